//go:build integration

package bus

import (
	"context"
	"testing"
	"time"
)

// These tests bind a local socket via the embedded broker.
// Run with: go test -tags=integration ./pkg/bus/

func TestEmbeddedRoundTrip(t *testing.T) {
	srv := NewEmbeddedServer("127.0.0.1", 0)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Shutdown()

	cfg := DefaultConfig()
	cfg.URL = srv.ClientURL()

	client, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Fatal("expected connected client")
	}

	received := make(chan []byte, 1)
	sub, err := client.Subscribe(client.Topics().Input(), func(data []byte) {
		received <- data
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Unsubscribe()

	if err := client.Publish(client.Topics().Input(), []byte("hello")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := client.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	select {
	case data := <-received:
		if string(data) != "hello" {
			t.Errorf("received %q, want %q", data, "hello")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	stats := client.Stats()
	if stats.Sent != 1 {
		t.Errorf("Sent = %d, want 1", stats.Sent)
	}
	if stats.Received != 1 {
		t.Errorf("Received = %d, want 1", stats.Received)
	}
}

func TestSubscriptionPreservesOrder(t *testing.T) {
	srv := NewEmbeddedServer("127.0.0.1", 0)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Shutdown()

	cfg := DefaultConfig()
	cfg.URL = srv.ClientURL()

	client, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	const n = 20
	received := make(chan string, n)
	sub, err := client.Subscribe("order.test", func(data []byte) {
		received <- string(data)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Unsubscribe()

	msgs := []string{}
	for i := 0; i < n; i++ {
		msg := string(rune('a' + i))
		msgs = append(msgs, msg)
		if err := client.Publish("order.test", []byte(msg)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	if err := client.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	for i := 0; i < n; i++ {
		select {
		case got := <-received:
			if got != msgs[i] {
				t.Fatalf("message %d = %q, want %q", i, got, msgs[i])
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

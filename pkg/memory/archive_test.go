package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestArchiveRecordAndQuery(t *testing.T) {
	a, err := NewArchive(filepath.Join(t.TempDir(), "coach.db"))
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()

	exchanges := []Exchange{
		{UtteranceID: "u1", Prompt: "How are you today?", Reply: "Doing great, thanks for asking."},
		{UtteranceID: "u2", Prompt: "What should I focus on?", Reply: "Pick one goal for this week."},
	}
	for _, ex := range exchanges {
		if err := a.Record(ctx, ex); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	count, err := a.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	recent, err := a.RecentExchanges(ctx, 10)
	if err != nil {
		t.Fatalf("RecentExchanges() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(recent))
	}
	// Newest first
	if recent[0].UtteranceID != "u2" {
		t.Errorf("expected newest exchange first, got %s", recent[0].UtteranceID)
	}
	if recent[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be assigned")
	}
}

func TestArchiveRecentLimit(t *testing.T) {
	a, err := NewArchive(":memory:")
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ex := Exchange{
			UtteranceID: "u",
			Prompt:      "p",
			Reply:       "r",
			CreatedAt:   time.Now().UTC(),
		}
		if err := a.Record(ctx, ex); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	recent, err := a.RecentExchanges(ctx, 3)
	if err != nil {
		t.Fatalf("RecentExchanges() error = %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("expected 3 exchanges, got %d", len(recent))
	}
}

func TestNoopRecent(t *testing.T) {
	var r Recent = NoopRecent{}
	ctx := context.Background()

	if err := r.Add(ctx, Exchange{Prompt: "p", Reply: "r"}); err != nil {
		t.Errorf("Add() error = %v", err)
	}
	list, err := r.List(ctx)
	if err != nil {
		t.Errorf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d entries", len(list))
	}
}

package protocol

import (
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "utterance message",
			msgType: TypeUtterance,
			data:    Utterance{ID: "u1", Text: "How are you today?", Source: "stdin"},
			wantErr: false,
		},
		{
			name:    "status message",
			msgType: TypeStatus,
			data:    Status{Node: "relay", State: "ready"},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypeStatus,
			data:    nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg == nil && !tt.wantErr {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestUtteranceRoundTrip(t *testing.T) {
	msg, err := NewUtteranceMessage("How are you today?", "stdin")
	if err != nil {
		t.Fatalf("NewUtteranceMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	if parsed.Type != TypeUtterance {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeUtterance)
	}

	u, err := parsed.GetUtterance()
	if err != nil {
		t.Fatalf("GetUtterance() error = %v", err)
	}

	if u.Text != "How are you today?" {
		t.Errorf("Text = %q, want %q", u.Text, "How are you today?")
	}
	if u.Source != "stdin" {
		t.Errorf("Source = %q, want %q", u.Source, "stdin")
	}
	if u.ID == "" {
		t.Error("ID should be assigned")
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestNewUtteranceAssignsUniqueIDs(t *testing.T) {
	a := NewUtterance("hello", "stdin")
	b := NewUtterance("hello", "stdin")
	if a.ID == b.ID {
		t.Errorf("expected distinct IDs, both were %q", a.ID)
	}
}

func TestNewResponseMessageLinksReply(t *testing.T) {
	in := NewUtterance("what should I do next?", "web")

	msg, err := NewResponseMessage("Take a short walk.", in)
	if err != nil {
		t.Fatalf("NewResponseMessage() error = %v", err)
	}

	resp, err := msg.GetUtterance()
	if err != nil {
		t.Fatalf("GetUtterance() error = %v", err)
	}

	if resp.ReplyTo != in.ID {
		t.Errorf("ReplyTo = %q, want %q", resp.ReplyTo, in.ID)
	}
	if resp.ID == in.ID {
		t.Error("response should carry its own ID")
	}
	if resp.Text != "Take a short walk." {
		t.Errorf("Text = %q, want %q", resp.Text, "Take a short walk.")
	}
	if resp.Source != "generator" {
		t.Errorf("Source = %q, want %q", resp.Source, "generator")
	}
}

func TestSpokenRoundTrip(t *testing.T) {
	msg, err := NewSpokenMessage(Spoken{
		UtteranceID: "u1",
		Text:        "Take a short walk.",
		Path:        "/tmp/coach-clips/clip.mp3",
		Engine:      "googletranslate",
		CharCount:   18,
		DurationMs:  1500,
	})
	if err != nil {
		t.Fatalf("NewSpokenMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	s, err := parsed.GetSpoken()
	if err != nil {
		t.Fatalf("GetSpoken() error = %v", err)
	}
	if s.Engine != "googletranslate" {
		t.Errorf("Engine = %q, want %q", s.Engine, "googletranslate")
	}
	if s.CharCount != 18 {
		t.Errorf("CharCount = %d, want 18", s.CharCount)
	}
}

func TestParseMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseMessage([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMessageTimestampIsRecent(t *testing.T) {
	msg, err := NewStatusMessage("speaker", "ready", "")
	if err != nil {
		t.Fatalf("NewStatusMessage() error = %v", err)
	}
	now := time.Now().UnixMilli()
	if msg.Timestamp < now-5000 || msg.Timestamp > now+5000 {
		t.Errorf("timestamp %d not within 5s of now %d", msg.Timestamp, now)
	}
}

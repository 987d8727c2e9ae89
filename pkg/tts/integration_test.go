//go:build integration

package tts_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/tts"
)

// These tests hit live endpoints.
// Run with: go test -tags=integration ./pkg/tts/

func TestGoogleTranslateRender(t *testing.T) {
	p, err := tts.NewGoogleTranslate(
		tts.WithFolder(t.TempDir()),
		tts.WithLanguage("en"),
	)
	if err != nil {
		t.Fatalf("NewGoogleTranslate() error = %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	clip, err := p.Synthesize(ctx, "How are you today?")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	info, err := os.Stat(clip.Path)
	if err != nil {
		t.Fatalf("clip file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty clip file")
	}
}

func TestElevenLabsRender(t *testing.T) {
	key := os.Getenv("ELEVENLABS_API_KEY")
	if key == "" {
		t.Skip("ELEVENLABS_API_KEY not set")
	}

	p, err := tts.NewElevenLabs(
		tts.WithAPIKey(key),
		tts.WithFolder(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("NewElevenLabs() error = %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.Health(ctx); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	clip, err := p.Synthesize(ctx, "Hello from the coach pipeline.")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if _, err := os.Stat(clip.Path); err != nil {
		t.Errorf("clip file missing: %v", err)
	}
}

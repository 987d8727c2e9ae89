package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewPlayerUnknownCommand(t *testing.T) {
	_, err := NewPlayer("definitely-not-a-player-xyz", nil)
	if !errors.Is(err, ErrNoPlayer) {
		t.Errorf("expected ErrNoPlayer, got %v", err)
	}
}

func TestPlaySucceeds(t *testing.T) {
	// "true" exits 0 regardless of arguments, standing in for a player.
	p, err := NewPlayer("true", nil)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}

	var started, ended bool
	p.OnPlaybackStart = func() { started = true }
	p.OnPlaybackEnd = func() { ended = true }

	if err := p.Play(context.Background(), writeTestClip(t)); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !started || !ended {
		t.Errorf("expected both callbacks, got start=%v end=%v", started, ended)
	}
	if p.IsPlaying() {
		t.Error("expected IsPlaying false after playback")
	}
}

func TestPlayFailureSurfaces(t *testing.T) {
	p, err := NewPlayer("false", nil)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}

	if err := p.Play(context.Background(), writeTestClip(t)); err == nil {
		t.Error("expected error from failing player")
	}
}

func TestPlayEmptyPath(t *testing.T) {
	p, err := NewPlayer("true", nil)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if err := p.Play(context.Background(), ""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestPlayContextCancellation(t *testing.T) {
	// "sleep" stands in for a long-running player.
	p, err := NewPlayer("sleep", nil)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Play(ctx, "5")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected prompt kill, took %v", elapsed)
	}
}

func TestDetectPlayer(t *testing.T) {
	command, _, err := DetectPlayer()
	if err != nil {
		t.Skipf("no playback binary installed: %v", err)
	}
	if command == "" {
		t.Error("expected a command name")
	}
}

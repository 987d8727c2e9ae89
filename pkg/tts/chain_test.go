package tts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/tts"
)

func TestChainRequiresProvider(t *testing.T) {
	_, err := tts.NewChain()
	if !errors.Is(err, tts.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestChainFirstProviderWins(t *testing.T) {
	primary := tts.NewMock()
	primary.Folder = t.TempDir()
	fallback := tts.NewMock()
	fallback.Folder = t.TempDir()

	chain, err := tts.NewChain(primary, fallback)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	clip, err := chain.Synthesize(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Path == "" {
		t.Error("expected clip path")
	}

	if primary.CallCount("Synthesize") != 1 {
		t.Errorf("expected 1 primary call, got %d", primary.CallCount("Synthesize"))
	}
	if fallback.CallCount("Synthesize") != 0 {
		t.Error("fallback should not be called after success")
	}
}

func TestChainFallsThroughOnError(t *testing.T) {
	fallback := tts.NewMock()
	fallback.Folder = t.TempDir()

	chain, err := tts.NewChain(tts.WithError(errors.New("primary down")), fallback)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	clip, err := chain.Synthesize(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip == nil {
		t.Fatal("expected clip from fallback")
	}
	if fallback.CallCount("Synthesize") != 1 {
		t.Errorf("expected 1 fallback call, got %d", fallback.CallCount("Synthesize"))
	}
}

func TestChainAggregatesErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	chain, err := tts.NewChain(tts.WithError(errA), tts.WithError(errB))
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	_, err = chain.Synthesize(context.Background(), "Hello")
	var chainErr *tts.ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected ChainError, got %T", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("expected 2 aggregated errors, got %d", len(chainErr.Errors))
	}
	if !errors.Is(err, errB) {
		t.Error("expected Unwrap to expose last error")
	}
}

func TestChainStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	primary := &tts.Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*tts.Clip, error) {
			cancel()
			return nil, errors.New("boom")
		},
	}
	fallback := tts.NewMock()
	fallback.Folder = t.TempDir()

	chain, err := tts.NewChain(primary, fallback)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	_, err = chain.Synthesize(ctx, "Hello")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fallback.CallCount("Synthesize") != 0 {
		t.Error("fallback should not run after cancellation")
	}
}

func TestChainHealth(t *testing.T) {
	t.Run("healthy if any member is healthy", func(t *testing.T) {
		chain, _ := tts.NewChain(tts.WithError(errors.New("down")), tts.NewMock())
		if err := chain.Health(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unhealthy if all members fail", func(t *testing.T) {
		chain, _ := tts.NewChain(tts.WithError(errors.New("down")))
		if err := chain.Health(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
}

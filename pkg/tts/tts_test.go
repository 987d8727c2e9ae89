package tts_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	mock.Folder = t.TempDir()
	ctx := context.Background()

	t.Run("Synthesize writes a clip file", func(t *testing.T) {
		clip, err := mock.Synthesize(ctx, "Hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clip.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", clip.CharCount)
		}
		if clip.Format != tts.FormatMP3 {
			t.Errorf("expected mp3 format, got %s", clip.Format)
		}
		if _, err := os.Stat(clip.Path); err != nil {
			t.Errorf("expected clip file on disk: %v", err)
		}
	})

	t.Run("Health returns nil", func(t *testing.T) {
		if err := mock.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		if mock.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := tts.WithError(testErr)
	ctx := context.Background()

	if _, err := mock.Synthesize(ctx, "Hello"); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if err := mock.Health(ctx); err == nil {
		t.Error("expected health error")
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Apply(
		tts.WithFolder("/tmp/clips"),
		tts.WithLanguage("en"),
		tts.WithVoice("test-voice"),
		tts.WithModel("test-model"),
		tts.WithTimeout(5*time.Second),
		tts.WithOutputFormat(tts.FormatWAV),
	)

	if cfg.Folder != "/tmp/clips" {
		t.Errorf("expected folder /tmp/clips, got %s", cfg.Folder)
	}
	if cfg.Language != "en" {
		t.Errorf("expected language en, got %s", cfg.Language)
	}
	if cfg.VoiceID != "test-voice" {
		t.Errorf("expected voice test-voice, got %s", cfg.VoiceID)
	}
	if cfg.OutputFormat != tts.FormatWAV {
		t.Errorf("expected wav format, got %s", cfg.OutputFormat)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("Validate requires folder", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.Folder = ""
		if err := cfg.Validate(); !errors.Is(err, tts.ErrNoFolder) {
			t.Errorf("expected ErrNoFolder, got %v", err)
		}
	})

	t.Run("ValidateWithKey requires API key", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		if err := cfg.ValidateWithKey(); !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})
}

func TestProviderConstruction(t *testing.T) {
	t.Run("GoogleTranslate needs no key", func(t *testing.T) {
		p, err := tts.NewGoogleTranslate(tts.WithFolder(t.TempDir()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer p.Close()
		if p.Language() != "en" {
			t.Errorf("expected default language en, got %s", p.Language())
		}
	})

	t.Run("ElevenLabs requires key", func(t *testing.T) {
		_, err := tts.NewElevenLabs(tts.WithFolder(t.TempDir()))
		if !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("Hosted OpenAI requires key", func(t *testing.T) {
		_, err := tts.NewOpenAITTS(tts.WithFolder(t.TempDir()))
		if !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("Local OpenAI-compatible server needs no key", func(t *testing.T) {
		p, err := tts.NewOpenAITTS(
			tts.WithFolder(t.TempDir()),
			tts.WithBaseURL("http://localhost:8880/v1"),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p.Close()
	})
}

func TestEmptyTextRejected(t *testing.T) {
	p, err := tts.NewGoogleTranslate(tts.WithFolder(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	for _, text := range []string{"", "   ", "\n"} {
		if _, err := p.Synthesize(context.Background(), text); !errors.Is(err, tts.ErrEmptyText) {
			t.Errorf("Synthesize(%q): expected ErrEmptyText, got %v", text, err)
		}
	}
}

func TestAPIError(t *testing.T) {
	t.Run("IsRateLimited", func(t *testing.T) {
		err := &tts.APIError{StatusCode: 429, Message: "rate limited"}
		if !err.IsRateLimited() {
			t.Error("expected IsRateLimited true")
		}
		if err.IsUnauthorized() {
			t.Error("expected IsUnauthorized false")
		}
	})

	t.Run("IsServerError", func(t *testing.T) {
		for _, code := range []int{500, 502, 503, 504} {
			err := &tts.APIError{StatusCode: code}
			if !err.IsServerError() {
				t.Errorf("expected IsServerError true for %d", code)
			}
			if !err.IsRetryable() {
				t.Errorf("expected IsRetryable true for %d", code)
			}
		}
	})

	t.Run("Error message format", func(t *testing.T) {
		err := &tts.APIError{
			StatusCode: 400,
			Message:    "bad request",
			Code:       "invalid_input",
			Provider:   "elevenlabs",
		}
		if err.Error() != "tts [elevenlabs]: API error 400 (invalid_input): bad request" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})
}

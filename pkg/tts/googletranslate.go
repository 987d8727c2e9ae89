package tts

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	htgotts "github.com/hegedustibor/htgo-tts"
	"github.com/google/uuid"

	"github.com/M2Elsanosi/NextGen-Coach/internal/httpc"
)

const providerGoogleTranslate = "googletranslate"

// googleTranslateHost is used for health checks; the speech library
// fetches its audio from the same host.
const googleTranslateHost = "https://translate.google.com"

// GoogleTranslate renders speech through the free Google Translate TTS
// endpoint. It speaks exactly one configured language and needs no API key,
// which makes it the default engine.
type GoogleTranslate struct {
	speech htgotts.Speech
	config *Config
	logger *slog.Logger
}

// NewGoogleTranslate creates a Google Translate TTS provider.
func NewGoogleTranslate(opts ...Option) (*GoogleTranslate, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &GoogleTranslate{
		speech: htgotts.Speech{
			Folder:   cfg.Folder,
			Language: cfg.Language,
		},
		config: cfg,
		logger: cfg.Logger.With("component", "tts.googletranslate"),
	}, nil
}

// Synthesize renders text to an MP3 file in the scratch folder.
func (g *GoogleTranslate) Synthesize(ctx context.Context, text string) (*Clip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerGoogleTranslate, ErrEmptyText)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	// The library names the file itself; a fresh ID keeps concurrent
	// renders from clobbering each other.
	name := uuid.NewString()
	path, err := g.speech.CreateSpeechFile(text, name)
	if err != nil {
		return nil, WrapError(providerGoogleTranslate, fmt.Errorf("render speech: %w", err))
	}

	latency := time.Since(start).Milliseconds()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	g.logger.Debug("rendered clip",
		"chars", len(text),
		"path", abs,
		"latency_ms", latency,
		"language", g.config.Language,
	)

	return &Clip{
		Path:      abs,
		Format:    FormatMP3,
		Engine:    providerGoogleTranslate,
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks that the translate endpoint is reachable.
func (g *GoogleTranslate) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", googleTranslateHost, nil)
	if err != nil {
		return WrapError(providerGoogleTranslate, err)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return WrapError(providerGoogleTranslate, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    "translate endpoint unavailable",
			Provider:   providerGoogleTranslate,
		}
	}
	return nil
}

// Close releases resources.
func (g *GoogleTranslate) Close() error {
	return nil
}

// Language returns the configured synthesis language.
func (g *GoogleTranslate) Language() string {
	return g.config.Language
}

// Verify GoogleTranslate implements Provider at compile time.
var _ Provider = (*GoogleTranslate)(nil)

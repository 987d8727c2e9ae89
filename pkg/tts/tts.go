// Package tts provides a unified interface for text-to-speech providers.
//
// The package renders text into transient audio files in a scratch folder.
// Providers include Google Translate (free, fixed language), ElevenLabs
// (custom voices) and any OpenAI-compatible speech endpoint. All providers
// implement the Provider interface, enabling seamless switching without
// changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewGoogleTranslate(
//	    tts.WithFolder("/tmp/coach-audio"),
//	    tts.WithLanguage("en"),
//	)
//	defer provider.Close()
//
//	clip, _ := provider.Synthesize(ctx, "Hello world")
//	// clip.Path points at the rendered audio file
package tts

import "context"

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Synthesize renders text to an audio file in the scratch folder.
	// The caller owns the returned clip and removes it after playback.
	Synthesize(ctx context.Context, text string) (*Clip, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Clip is a rendered audio file. It exists for a single pipeline pass:
// written by Synthesize, consumed by one playback call, then removed.
type Clip struct {
	// Path is the absolute location of the rendered file.
	Path string

	// Format is the container format ("mp3", "wav").
	Format string

	// Engine names the provider that produced the clip.
	Engine string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the render time in milliseconds.
	LatencyMs int64
}

// Audio formats produced by the providers.
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

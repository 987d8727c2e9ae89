// Package config provides environment helpers shared by coach commands.
package config

import (
	"fmt"
	"os"
)

// Default broker configuration.
const (
	DefaultNATSURL      = "nats://127.0.0.1:4222"
	DefaultEmbeddedPort = 4222
)

// Env returns the value of an environment variable or a default.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NATSURL returns the broker URL from COACH_NATS_URL, or the default.
func NATSURL() string {
	return Env("COACH_NATS_URL", DefaultNATSURL)
}

// EnvRequired returns the value of an environment variable.
// Exits with a usage message if not set.
func EnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", key)
		fmt.Fprintf(os.Stderr, "Usage: %s=... coach ...\n", key)
		os.Exit(1)
	}
	return v
}

// OpenAIKey returns the OpenAI API key, empty when unset.
func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// AnthropicKey returns the Anthropic API key, empty when unset.
func AnthropicKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// ElevenLabsKey returns the ElevenLabs API key, empty when unset.
func ElevenLabsKey() string {
	return os.Getenv("ELEVENLABS_API_KEY")
}

// HuggingFaceKey returns the Hugging Face token, empty when unset.
func HuggingFaceKey() string {
	if v := os.Getenv("HF_TOKEN"); v != "" {
		return v
	}
	return os.Getenv("HUGGINGFACE_API_KEY")
}

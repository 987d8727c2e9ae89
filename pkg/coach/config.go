// Package coach assembles the conversation pipeline into one application.
package coach

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration, loaded from coach.yaml with
// environment overrides. API keys are never read from the file; they come
// from the environment (see internal/config).
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`

	Bus        BusConfig        `mapstructure:"bus"`
	Generation GenerationConfig `mapstructure:"generation"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Web        WebConfig        `mapstructure:"web"`
}

// BusConfig selects the messaging substrate.
type BusConfig struct {
	// URL of an external broker. Ignored when Embedded is set.
	URL string `mapstructure:"url"`

	// Prefix for pipeline subjects.
	Prefix string `mapstructure:"prefix"`

	// Embedded runs an in-process broker (single-process mode).
	Embedded bool `mapstructure:"embedded"`

	// EmbeddedPort for the in-process broker's client listener.
	EmbeddedPort int `mapstructure:"embedded_port"`
}

// GenerationConfig tunes the reply generator.
type GenerationConfig struct {
	// Providers in fallback order: "openai", "anthropic", "huggingface".
	Providers []string `mapstructure:"providers"`

	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	Temperature       float64 `mapstructure:"temperature"`
	SystemPrompt      string  `mapstructure:"system_prompt"`
	RequestTimeoutMS  int     `mapstructure:"request_timeout_ms"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

// SpeechConfig tunes rendering and playback.
type SpeechConfig struct {
	// Engines in fallback order: "googletranslate", "elevenlabs", "openai".
	Engines []string `mapstructure:"engines"`

	Folder   string `mapstructure:"folder"`
	Language string `mapstructure:"language"`
	VoiceID  string `mapstructure:"voice_id"`

	// Player is the playback binary; empty means auto-detect.
	Player string `mapstructure:"player"`

	KeepClips bool `mapstructure:"keep_clips"`
}

// MemoryConfig wires the persistence layers. Empty values disable a layer.
type MemoryConfig struct {
	// ArchivePath is the SQLite file; empty disables the archive.
	ArchivePath string `mapstructure:"archive_path"`

	// RedisAddr enables the recent-exchange cache.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisSize     int    `mapstructure:"redis_size"`

	// ProfilePath is the coachee profile JSON; empty disables it.
	ProfilePath string `mapstructure:"profile_path"`
}

// WebConfig tunes the dashboard server.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("bus.url", "nats://127.0.0.1:4222")
	v.SetDefault("bus.prefix", "coach")
	v.SetDefault("bus.embedded", false)
	v.SetDefault("bus.embedded_port", 4222)

	v.SetDefault("generation.providers", []string{"openai"})
	v.SetDefault("generation.model", "")
	v.SetDefault("generation.max_tokens", 256)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.system_prompt", "")
	v.SetDefault("generation.request_timeout_ms", 30000)
	v.SetDefault("generation.requests_per_minute", 30)

	v.SetDefault("speech.engines", []string{"googletranslate"})
	v.SetDefault("speech.folder", os.TempDir())
	v.SetDefault("speech.language", "en")
	v.SetDefault("speech.voice_id", "")
	v.SetDefault("speech.player", "")
	v.SetDefault("speech.keep_clips", false)

	v.SetDefault("memory.archive_path", "")
	v.SetDefault("memory.redis_addr", "")
	v.SetDefault("memory.redis_password", "")
	v.SetDefault("memory.redis_db", 0)
	v.SetDefault("memory.redis_size", 50)
	v.SetDefault("memory.profile_path", "")

	v.SetDefault("web.enabled", false)
	v.SetDefault("web.addr", ":8090")
}

// LoadConfig reads configuration from path. An empty path searches for
// coach.yaml in the working directory; a missing file yields defaults.
// Environment variables prefixed COACH_ override file values
// (COACH_BUS_URL, COACH_WEB_ADDR, ...).
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("coach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks fields that would otherwise fail deep inside Init.
func (c *Config) Validate() error {
	if !c.Bus.Embedded && strings.TrimSpace(c.Bus.URL) == "" {
		return fmt.Errorf("bus.url is required when bus.embedded is false")
	}
	if strings.TrimSpace(c.Bus.Prefix) == "" {
		return fmt.Errorf("bus.prefix is required")
	}
	if len(c.Generation.Providers) == 0 {
		return fmt.Errorf("generation.providers is required")
	}
	for _, p := range c.Generation.Providers {
		switch p {
		case "openai", "anthropic", "huggingface":
		default:
			return fmt.Errorf("unknown generation provider %q", p)
		}
	}
	if len(c.Speech.Engines) == 0 {
		return fmt.Errorf("speech.engines is required")
	}
	for _, e := range c.Speech.Engines {
		switch e {
		case "googletranslate", "elevenlabs", "openai":
		default:
			return fmt.Errorf("unknown speech engine %q", e)
		}
	}
	if strings.TrimSpace(c.Speech.Folder) == "" {
		return fmt.Errorf("speech.folder is required")
	}
	return nil
}

// RequestTimeout returns the generation timeout as a duration.
func (c *GenerationConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// expandEnvStrings resolves ${VAR} references in string fields that
// commonly carry secrets or paths.
func expandEnvStrings(cfg *Config) {
	cfg.Bus.URL = os.ExpandEnv(cfg.Bus.URL)
	cfg.Speech.Folder = os.ExpandEnv(cfg.Speech.Folder)
	cfg.Memory.ArchivePath = os.ExpandEnv(cfg.Memory.ArchivePath)
	cfg.Memory.RedisAddr = os.ExpandEnv(cfg.Memory.RedisAddr)
	cfg.Memory.RedisPassword = os.ExpandEnv(cfg.Memory.RedisPassword)
	cfg.Memory.ProfilePath = os.ExpandEnv(cfg.Memory.ProfilePath)
}

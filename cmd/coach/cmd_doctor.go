package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/M2Elsanosi/NextGen-Coach/internal/config"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/audio"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/coach"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment the pipeline needs",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := coach.LoadConfig(flagConfig)
			if err != nil {
				check(false, "config: %v", err)
				return fmt.Errorf("configuration is broken, fix it first")
			}
			check(true, "config loaded (prefix %q)", cfg.Bus.Prefix)

			checkKeys(cfg)
			checkBroker(cfg)
			checkPlayer(cfg)
			checkSpeechFolder(cfg)
			checkRedis(cfg)
			checkArchive(cfg)

			return nil
		},
	}
}

func check(ok bool, format string, args ...any) {
	mark := "✗"
	if ok {
		mark = "✓"
	}
	fmt.Printf("  %s %s\n", mark, fmt.Sprintf(format, args...))
}

func checkKeys(cfg coach.Config) {
	for _, p := range cfg.Generation.Providers {
		switch p {
		case "openai":
			check(config.OpenAIKey() != "", "OPENAI_API_KEY (generation provider %q)", p)
		case "anthropic":
			check(config.AnthropicKey() != "", "ANTHROPIC_API_KEY (generation provider %q)", p)
		case "huggingface":
			check(config.HuggingFaceKey() != "", "HUGGINGFACE_API_KEY (generation provider %q)", p)
		}
	}
	for _, e := range cfg.Speech.Engines {
		switch e {
		case "elevenlabs":
			check(config.ElevenLabsKey() != "", "ELEVENLABS_API_KEY (speech engine %q)", e)
		case "openai":
			check(config.OpenAIKey() != "", "OPENAI_API_KEY (speech engine %q)", e)
		case "googletranslate":
			check(true, "speech engine %q needs no key", e)
		}
	}
}

func checkBroker(cfg coach.Config) {
	if cfg.Bus.Embedded {
		check(true, "broker: embedded (no external service)")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := connectBus(ctx, cfg)
	if err != nil {
		check(false, "broker %s unreachable: %v", cfg.Bus.URL, err)
		return
	}
	client.Close()
	check(true, "broker %s reachable", cfg.Bus.URL)
}

func checkPlayer(cfg coach.Config) {
	if cfg.Speech.Player != "" {
		_, err := exec.LookPath(cfg.Speech.Player)
		check(err == nil, "player %q in PATH", cfg.Speech.Player)
		return
	}
	command, _, err := audio.DetectPlayer()
	if err != nil {
		check(false, "no playback binary found (install mpg123, mpv, or ffplay)")
		return
	}
	check(true, "player auto-detected: %s", command)
}

func checkSpeechFolder(cfg coach.Config) {
	err := os.MkdirAll(cfg.Speech.Folder, 0o755)
	check(err == nil, "clip folder %s writable", cfg.Speech.Folder)
}

func checkRedis(cfg coach.Config) {
	if cfg.Memory.RedisAddr == "" {
		check(true, "redis: not configured (recent context disabled)")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Memory.RedisAddr,
		Password: cfg.Memory.RedisPassword,
		DB:       cfg.Memory.RedisDB,
	})
	defer rdb.Close()

	err := rdb.Ping(ctx).Err()
	check(err == nil, "redis %s reachable", cfg.Memory.RedisAddr)
}

func checkArchive(cfg coach.Config) {
	if cfg.Memory.ArchivePath == "" {
		check(true, "archive: not configured")
		return
	}
	dir := filepath.Dir(cfg.Memory.ArchivePath)
	err := os.MkdirAll(dir, 0o755)
	check(err == nil, "archive directory %s writable", dir)
}

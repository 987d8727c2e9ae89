package coach

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Bus.Prefix != "coach" {
		t.Errorf("bus prefix = %q, want %q", cfg.Bus.Prefix, "coach")
	}
	if len(cfg.Generation.Providers) != 1 || cfg.Generation.Providers[0] != "openai" {
		t.Errorf("generation providers = %v", cfg.Generation.Providers)
	}
	if len(cfg.Speech.Engines) != 1 || cfg.Speech.Engines[0] != "googletranslate" {
		t.Errorf("speech engines = %v", cfg.Speech.Engines)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coach.yaml")
	yaml := `
bus:
  embedded: true
  embedded_port: 14222
  prefix: test
generation:
  providers: [anthropic, huggingface]
  max_tokens: 64
speech:
  engines: [elevenlabs, googletranslate]
  language: de
web:
  enabled: true
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.Bus.Embedded || cfg.Bus.EmbeddedPort != 14222 {
		t.Errorf("bus = %+v", cfg.Bus)
	}
	if cfg.Bus.Prefix != "test" {
		t.Errorf("prefix = %q, want %q", cfg.Bus.Prefix, "test")
	}
	if len(cfg.Generation.Providers) != 2 || cfg.Generation.Providers[0] != "anthropic" {
		t.Errorf("providers = %v", cfg.Generation.Providers)
	}
	if cfg.Generation.MaxTokens != 64 {
		t.Errorf("max_tokens = %d, want 64", cfg.Generation.MaxTokens)
	}
	if cfg.Speech.Language != "de" {
		t.Errorf("language = %q, want %q", cfg.Speech.Language, "de")
	}
	if !cfg.Web.Enabled || cfg.Web.Addr != ":9000" {
		t.Errorf("web = %+v", cfg.Web)
	}

	// Unset keys keep their defaults.
	if cfg.Generation.RequestsPerMinute != 30 {
		t.Errorf("requests_per_minute = %d, want default 30", cfg.Generation.RequestsPerMinute)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Bus.URL == "" {
		t.Error("expected default bus url")
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generation.Providers = []string{"gemini"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}

	cfg = DefaultConfig()
	cfg.Speech.Engines = []string{"espeak"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown engine")
	}

	cfg = DefaultConfig()
	cfg.Bus.Embedded = false
	cfg.Bus.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing bus url")
	}
}

func TestConfigEnvExpansion(t *testing.T) {
	t.Setenv("COACH_TEST_DIR", "/tmp/clips")

	dir := t.TempDir()
	path := filepath.Join(dir, "coach.yaml")
	yaml := "speech:\n  folder: ${COACH_TEST_DIR}\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Speech.Folder != "/tmp/clips" {
		t.Errorf("folder = %q, want %q", cfg.Speech.Folder, "/tmp/clips")
	}
}

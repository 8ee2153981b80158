package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if cfg.Policy.Level != "safe" {
		t.Errorf("expected safe default level, got %q", cfg.Policy.Level)
	}
	if cfg.LLM.Model != "gpt-oss-20b" {
		t.Errorf("unexpected default model %q", cfg.LLM.Model)
	}
	if !cfg.Web.Enabled {
		t.Error("web access enabled by default")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
policy:
  level: educational
llm:
  api_url: http://localhost:9999/v1/chat/completions
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Policy.Level != "educational" {
		t.Errorf("expected educational level, got %q", cfg.Policy.Level)
	}
	if cfg.LLM.APIURL != "http://localhost:9999/v1/chat/completions" {
		t.Errorf("api url not applied: %q", cfg.LLM.APIURL)
	}
	// Unspecified fields keep their defaults.
	if cfg.Web.CacheTTLMinutes != 30 {
		t.Errorf("expected default cache ttl 30, got %d", cfg.Web.CacheTTLMinutes)
	}
	if cfg.LLM.Model != "gpt-oss-20b" {
		t.Errorf("expected default model, got %q", cfg.LLM.Model)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("policy: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid YAML must be rejected")
	}
}

func TestDatabasePathFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/gptoss"

	if got := cfg.PolicyDatabasePath(); got != "/var/lib/gptoss/content_policy.db" {
		t.Errorf("unexpected policy db path %q", got)
	}

	cfg.Web.DatabasePath = "/tmp/custom.db"
	if got := cfg.WebDatabasePath(); got != "/tmp/custom.db" {
		t.Errorf("explicit path must win, got %q", got)
	}
}

func TestNewReloaderSkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.yaml")
	if err := os.WriteFile(present, []byte("a: 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewReloader([]string{present, filepath.Join(dir, "absent.yaml"), ""}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	if len(r.Paths()) != 1 || r.Paths()[0] != present {
		t.Errorf("expected only the existing path watched, got %v", r.Paths())
	}
}

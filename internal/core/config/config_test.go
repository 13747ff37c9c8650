package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codegraph.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `version = 1`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scan.Mode != "ast" {
		t.Errorf("expected default mode ast, got %q", cfg.Scan.Mode)
	}
	if cfg.Scan.Concurrency <= 0 {
		t.Error("expected positive default concurrency")
	}
	if cfg.Query.TestDepth != 3 {
		t.Errorf("expected default test depth 3, got %d", cfg.Query.TestDepth)
	}
	if cfg.Impact.MinCoverage != 0.5 {
		t.Errorf("expected default min coverage 0.5, got %v", cfg.Impact.MinCoverage)
	}
	if len(cfg.Exclude.Dirs) == 0 {
		t.Error("expected default exclude dirs")
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
version = 1

[scan]
mode = "heuristic"
concurrency = 2

[impact]
max_reach = 25
min_coverage = 0.8

[query]
timeout = 2000000000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scan.Mode != "heuristic" {
		t.Errorf("mode = %q", cfg.Scan.Mode)
	}
	if cfg.Scan.Concurrency != 2 {
		t.Errorf("concurrency = %d", cfg.Scan.Concurrency)
	}
	if cfg.Impact.MaxReach != 25 {
		t.Errorf("max_reach = %d", cfg.Impact.MaxReach)
	}
	if cfg.Query.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", cfg.Query.Timeout)
	}
}

func TestLoad_InvalidMode(t *testing.T) {
	path := writeConfig(t, `
version = 1

[scan]
mode = "regex"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid scan mode")
	}
}

func TestLoad_InvalidExtension(t *testing.T) {
	path := writeConfig(t, `
version = 1

[languages.go]
extensions = ["go"]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for extension without dot")
	}
}

func TestLanguageEnabled(t *testing.T) {
	cfg := Default()
	if !cfg.LanguageEnabled("go") {
		t.Error("languages default to enabled")
	}

	off := false
	cfg.Languages = map[string]Language{"rust": {Enabled: &off}}
	if cfg.LanguageEnabled("rust") {
		t.Error("explicitly disabled language should be off")
	}
}

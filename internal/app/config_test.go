package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Query:      "seo tools",
		Language:   DefaultLanguage,
		NumResults: DefaultNumResults,
		OutDir:     DefaultOutDir,
		OutFormat:  DefaultOutFormat,
		Workers:    DefaultWorkers,
		SerpURL:    DefaultSerpURL,
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty query", func(c *Config) { c.Query = "   " }, "query"},
		{"zero results", func(c *Config) { c.NumResults = 0 }, "between 1 and 100"},
		{"too many results", func(c *Config) { c.NumResults = 101 }, "between 1 and 100"},
		{"bad language", func(c *Config) { c.Language = "no-such-lang" }, "language"},
		{"bad format", func(c *Config) { c.OutFormat = "xml" }, "format"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"negative cache age", func(c *Config) { c.CacheMaxAge = -time.Hour }, "cache age"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestApplyFileConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
language: fr
numResults: 25
out:
  dir: /custom/out
  format: json
workers: 3
llm:
  model: gpt-4o
history:
  db: runs.db
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Defaults: file values win.
	cfg := validConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.Language != "fr" || cfg.NumResults != 25 || cfg.OutDir != "/custom/out" ||
		cfg.OutFormat != "json" || cfg.Workers != 3 || cfg.LLMModel != "gpt-4o" ||
		cfg.HistoryDB != "runs.db" {
		t.Fatalf("file config not applied over defaults: %+v", cfg)
	}

	// Explicit flag values win over the file.
	cfg = validConfig()
	cfg.Language = "es"
	cfg.NumResults = 7
	cfg.OutFormat = "csv"
	ApplyFileConfig(&cfg, fc)
	if cfg.Language != "es" || cfg.NumResults != 7 || cfg.OutFormat != "csv" {
		t.Fatalf("explicit values overridden by file: %+v", cfg)
	}
	// Fields untouched by flags still come from the file.
	if cfg.LLMModel != "gpt-4o" {
		t.Fatalf("file value lost: %+v", cfg)
	}
}

func TestLoadConfigFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("language: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

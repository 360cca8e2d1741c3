package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Defaults shared between flag parsing and file-config overlay.
const (
	DefaultLanguage   = "en"
	DefaultNumResults = 10
	DefaultWorkers    = 5
	DefaultOutDir     = "output"
	DefaultOutFormat  = "all"
	DefaultSerpURL    = "https://serpapi.com/search"
)

// Config holds runtime configuration for one analysis run.
type Config struct {
	Query      string
	Language   string
	NumResults int

	// Output
	OutDir    string
	OutPrefix string
	OutFormat string
	EnablePDF bool

	// Analysis options
	ReferencePath string
	NER           bool
	Cluster       bool
	Sentiment     bool
	Workers       int

	// Cache
	NoCache         bool
	CacheDir        string
	CacheMaxAge     time.Duration
	CacheClear      bool
	CacheClearQuery bool

	// Search API
	SerpURL string
	SerpKey string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMKey     string

	// Extras
	WordcloudFont string
	HistoryDB     string
	Verbose       bool
}

// ValidateConfig checks the settings a run cannot start without. API keys
// are deliberately not validated here: a missing SERP key surfaces as the
// search client's error value and a missing LLM key skips recommendations.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Query) == "" {
		return errors.New("config: query is required")
	}
	if cfg.NumResults < 1 || cfg.NumResults > 100 {
		return fmt.Errorf("config: number of results must be between 1 and 100, got %d", cfg.NumResults)
	}
	if _, err := language.Parse(cfg.Language); err != nil {
		return fmt.Errorf("config: invalid language %q: %w", cfg.Language, err)
	}
	switch cfg.OutFormat {
	case "csv", "json", "html", "all":
	default:
		return fmt.Errorf("config: output format must be csv, json, html, or all, got %q", cfg.OutFormat)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("config: workers must be positive, got %d", cfg.Workers)
	}
	if cfg.CacheMaxAge < 0 {
		return errors.New("config: negative cache age is not allowed")
	}
	return nil
}

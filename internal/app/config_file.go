package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// naturally to the flag namespace. API keys are intentionally absent: they
// come from flags or the environment only, never from a config file.
type FileConfig struct {
	Language   string `yaml:"language"`
	NumResults int    `yaml:"numResults"`

	Out struct {
		Dir    string `yaml:"dir"`
		Prefix string `yaml:"prefix"`
		Format string `yaml:"format"`
		PDF    bool   `yaml:"pdf"`
	} `yaml:"out"`

	Workers int `yaml:"workers"`

	Cache struct {
		Dir    string        `yaml:"dir"`
		MaxAge time.Duration `yaml:"maxAge"`
	} `yaml:"cache"`

	Serp struct {
		URL string `yaml:"url"`
	} `yaml:"serp"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`

	Wordcloud struct {
		Font string `yaml:"font"`
	} `yaml:"wordcloud"`

	History struct {
		DB string `yaml:"db"`
	} `yaml:"history"`

	Verbose bool `yaml:"verbose"`
}

// LoadConfigFile reads the YAML config file.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

// ApplyFileConfig overlays file values into cfg for fields still holding
// their defaults. Flags are parsed first, so an explicit flag always wins
// over the file, and the file wins over built-in defaults.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.Language == DefaultLanguage && fc.Language != "" {
		cfg.Language = fc.Language
	}
	if cfg.NumResults == DefaultNumResults && fc.NumResults > 0 {
		cfg.NumResults = fc.NumResults
	}
	if cfg.OutDir == DefaultOutDir && fc.Out.Dir != "" {
		cfg.OutDir = fc.Out.Dir
	}
	if cfg.OutPrefix == "" && fc.Out.Prefix != "" {
		cfg.OutPrefix = fc.Out.Prefix
	}
	if cfg.OutFormat == DefaultOutFormat && fc.Out.Format != "" {
		cfg.OutFormat = fc.Out.Format
	}
	if !cfg.EnablePDF && fc.Out.PDF {
		cfg.EnablePDF = true
	}
	if cfg.Workers == DefaultWorkers && fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if cfg.SerpURL == DefaultSerpURL && fc.Serp.URL != "" {
		cfg.SerpURL = fc.Serp.URL
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.WordcloudFont == "" && fc.Wordcloud.Font != "" {
		cfg.WordcloudFont = fc.Wordcloud.Font
	}
	if cfg.HistoryDB == "" && fc.History.DB != "" {
		cfg.HistoryDB = fc.History.DB
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

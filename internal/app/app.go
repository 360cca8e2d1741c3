package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ptoivan/serpgap/internal/analyze"
	"github.com/ptoivan/serpgap/internal/cache"
	"github.com/ptoivan/serpgap/internal/extract"
	"github.com/ptoivan/serpgap/internal/history"
	"github.com/ptoivan/serpgap/internal/llm"
	"github.com/ptoivan/serpgap/internal/pool"
	"github.com/ptoivan/serpgap/internal/recommend"
	"github.com/ptoivan/serpgap/internal/report"
	"github.com/ptoivan/serpgap/internal/serp"
	"github.com/ptoivan/serpgap/internal/wordcloud"
)

// Result summarizes one completed run for the caller.
type Result struct {
	Query           string
	Requested       int
	Processed       int
	Failed          int
	Summary         analyze.Summary
	Recommendations string
	OutputFiles     map[string]string
	Duration        time.Duration
}

// Run executes the whole pipeline: SERP retrieval, parallel extraction,
// analysis, optional enrichments, and artifact fan-out. Partial extraction
// failures are reported inside the Result; only a run that produces nothing
// analyzable returns an error.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	log.Info().Str("query", cfg.Query).Str("language", cfg.Language).
		Int("num", cfg.NumResults).Int("workers", cfg.Workers).
		Bool("cache", !cfg.NoCache).Msg("starting analysis")

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(cfg.OutDir, "cache")
	}
	store := &cache.Store{Dir: cacheDir, MaxAge: cfg.CacheMaxAge}
	if cfg.CacheClear {
		store.ClearAll()
	} else if cfg.CacheClearQuery {
		store.ClearForQuery(cfg.Query, cfg.NumResults, cfg.Language)
	}

	pipeline, err := analyze.NewPipeline(cfg.Language)
	if err != nil {
		return nil, err
	}

	httpClient := newHTTPClient()
	searcher := &serp.Client{
		BaseURL:    cfg.SerpURL,
		APIKey:     cfg.SerpKey,
		HTTPClient: httpClient,
		Cache:      store,
	}
	results := searcher.Fetch(ctx, cfg.Query, cfg.NumResults, cfg.Language, !cfg.NoCache)
	if results.Err != "" {
		return nil, fmt.Errorf("search failed: %s", results.Err)
	}
	if len(results.Organic) == 0 {
		return nil, errors.New("search returned no results")
	}
	urls := make([]string, 0, len(results.Organic))
	for _, r := range results.Organic {
		urls = append(urls, r.URL)
	}
	log.Info().Int("urls", len(urls)).Int("paa", len(results.RelatedQuestions)).Msg("search done")

	extractor := &extract.Extractor{HTTPClient: httpClient, Cache: store}
	batch := pool.FetchAll(ctx, extractor, urls, cfg.Workers, !cfg.NoCache)
	if len(batch.Texts) == 0 {
		return nil, fmt.Errorf("no texts to analyze: %s", failureDigest(batch.Failures))
	}
	log.Info().Int("ok", len(batch.Texts)).Int("failed", len(batch.Failures)).Msg("extraction done")

	reference := loadReference(cfg.ReferencePath)

	analysis, err := pipeline.Analyze(batch.Texts, batch.URLs, analyze.Options{
		Reference: reference,
		Entities:  cfg.NER,
		Clusters:  cfg.Cluster,
		Sentiment: cfg.Sentiment,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	base := report.BasePath(cfg.OutDir, cfg.OutPrefix, cfg.Query, start)

	// Both enrichments are best-effort: a failed word cloud or brief never
	// aborts a run that already has analysis results.
	wordcloudFile := renderWordcloud(analysis.Summary.TopTerms, base, cfg.WordcloudFont)

	var client llm.Client
	if cfg.LLMKey != "" {
		client = llm.NewOpenAIProvider(cfg.LLMKey, cfg.LLMBaseURL)
	}
	recommendations := recommend.New(client, cfg.LLMModel).
		Generate(ctx, &analysis.Summary, cfg.Query, reference, results.RelatedQuestions)

	data := report.Data{
		Query:            cfg.Query,
		Language:         cfg.Language,
		Timestamp:        start.Format(report.TimestampLayout),
		Requested:        cfg.NumResults,
		Processed:        len(batch.Texts),
		CacheUsed:        !cfg.NoCache,
		ReferenceFile:    baseName(cfg.ReferencePath),
		Options:          report.Options{NER: cfg.NER, Cluster: cfg.Cluster, Sentiment: cfg.Sentiment},
		Summary:          analysis.Summary,
		RelatedQuestions: results.RelatedQuestions,
		Recommendations:  recommendations,
		Failures:         batch.Failures,
		WordcloudFile:    baseName(wordcloudFile),
	}
	outputs := writeArtifacts(cfg, base, data, analysis)

	recordHistory(ctx, cfg, start, len(batch.Texts), len(batch.Failures), outputs["summary_json"], time.Since(start))

	log.Info().Int("processed", len(batch.Texts)).Int("of", cfg.NumResults).
		Int("failed", len(batch.Failures)).Dur("duration", time.Since(start)).
		Msg("analysis complete")

	return &Result{
		Query:           cfg.Query,
		Requested:       cfg.NumResults,
		Processed:       len(batch.Texts),
		Failed:          len(batch.Failures),
		Summary:         analysis.Summary,
		Recommendations: recommendations,
		OutputFiles:     outputs,
		Duration:        time.Since(start),
	}, nil
}

// loadReference reads the user's own text for gap comparison. A missing or
// unreadable file logs a warning and disables the comparison rather than
// failing the run.
func loadReference(path string) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("reference file not readable, skipping comparison")
		return ""
	}
	return string(b)
}

func renderWordcloud(topTerms []analyze.TermScore, base, fontPath string) string {
	terms := make([]string, 0, len(topTerms))
	for _, ts := range topTerms {
		terms = append(terms, ts.Term)
	}
	path := base + "_wordcloud.png"
	if err := wordcloud.Render(terms, path, fontPath); err != nil {
		log.Error().Err(err).Msg("word cloud rendering failed")
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		// Render skipped (no terms or no font), nothing was written.
		return ""
	}
	return path
}

func recordHistory(ctx context.Context, cfg Config, start time.Time, processed, failed int, summaryPath string, duration time.Duration) {
	if cfg.HistoryDB == "" {
		return
	}
	ledger, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Error().Err(err).Msg("history database unavailable")
		return
	}
	defer ledger.Close()
	err = ledger.Record(ctx, history.Run{
		Query:        cfg.Query,
		Language:     cfg.Language,
		Timestamp:    start,
		NumRequested: cfg.NumResults,
		NumProcessed: processed,
		NumFailed:    failed,
		SummaryPath:  summaryPath,
		Duration:     duration,
	})
	if err != nil {
		log.Error().Err(err).Msg("recording run history failed")
	}
}

func failureDigest(failures []pool.Failure) string {
	if len(failures) == 0 {
		return "no search results or texts"
	}
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = fmt.Sprintf("%s: %s", f.URL, f.Reason)
	}
	return strings.Join(parts, "; ")
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

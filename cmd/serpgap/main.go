package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ptoivan/serpgap/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		cfg        app.Config
		configPath string
	)

	flag.StringVar(&cfg.Query, "query", "", "Search keyword to analyze (required)")
	flag.StringVar(&cfg.Language, "lang", app.DefaultLanguage, "ISO language code for search and analysis, e.g. 'en' or 'fr'")
	flag.IntVar(&cfg.NumResults, "num", app.DefaultNumResults, "Number of organic results to analyze (1-100)")
	flag.StringVar(&cfg.OutDir, "out.dir", app.DefaultOutDir, "Directory for result artifacts")
	flag.StringVar(&cfg.OutPrefix, "out.prefix", "", "Artifact filename prefix (defaults to the sanitized query)")
	flag.StringVar(&cfg.OutFormat, "out.format", app.DefaultOutFormat, "Artifact formats: csv, json, html, or all")
	flag.StringVar(&cfg.ReferencePath, "reference", "", "Path to a .txt file with your own text for gap comparison")
	flag.BoolVar(&cfg.NER, "ner", false, "Include named-entity recognition")
	flag.BoolVar(&cfg.Cluster, "cluster", false, "Include keyword clustering")
	flag.BoolVar(&cfg.Sentiment, "sentiment", false, "Include sentiment analysis")
	flag.IntVar(&cfg.Workers, "workers", app.DefaultWorkers, "Parallel download workers")
	flag.BoolVar(&cfg.NoCache, "no-cache", false, "Bypass the result cache for this run")
	flag.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory (default <out.dir>/cache)")
	flag.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries (e.g. 24h); 0 uses the 7-day default")
	flag.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the whole cache before the run")
	flag.BoolVar(&cfg.CacheClearQuery, "cache.clearQuery", false, "Clear the cached search results for this query before the run")
	flag.StringVar(&cfg.SerpURL, "serp.url", app.DefaultSerpURL, "SerpApi-compatible endpoint")
	flag.StringVar(&cfg.SerpKey, "serp.key", os.Getenv("SERP_API_KEY"), "Search API key")
	flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL (default public API)")
	flag.StringVar(&cfg.LLMModel, "llm.model", "", "Chat model for recommendations")
	flag.StringVar(&cfg.LLMKey, "llm.key", os.Getenv("OPENAI_API_KEY"), "Chat API key (recommendations are skipped without one)")
	flag.StringVar(&cfg.WordcloudFont, "wordcloud.font", "", "TTF font file for the word cloud (skipped without one)")
	flag.BoolVar(&cfg.EnablePDF, "report.pdf", false, "Also write a PDF report")
	flag.StringVar(&cfg.HistoryDB, "history.db", "", "SQLite file for the run ledger (disabled when empty)")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.Parse()

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config file unusable")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	res, err := app.Run(context.Background(), cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Analysis for %q done: processed %d of %d, %d failed (%.1fs)\n",
		res.Query, res.Processed, res.Requested, res.Failed, res.Duration.Seconds())
	keys := make([]string, 0, len(res.OutputFiles))
	for k := range res.OutputFiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-20s %s\n", k, res.OutputFiles[k])
	}
}

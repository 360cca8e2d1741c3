package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ptoivan/serpgap/internal/extract"
)

// DefaultWorkers is the bounded pool width when none is configured.
const DefaultWorkers = 5

// Extractor is the single operation the pool fans out.
type Extractor interface {
	Extract(ctx context.Context, url string, useCache bool) extract.Outcome
}

// Failure records one URL that produced no usable text.
type Failure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Batch partitions a fetch run: Texts[i] came from URLs[i]; Failures holds
// everything else. A URL appears in exactly one partition.
type Batch struct {
	Texts    []string
	URLs     []string
	Failures []Failure
}

// FetchAll extracts every URL over a bounded worker pool. Results are
// collected in completion order; a single task's panic or failure never
// aborts its siblings or the batch.
func FetchAll(ctx context.Context, ex Extractor, urls []string, workers int, useCache bool) Batch {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	type taskResult struct {
		url     string
		outcome extract.Outcome
	}

	jobs := make(chan string)
	results := make(chan taskResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				results <- taskResult{url: url, outcome: runTask(ctx, ex, url, useCache)}
			}
		}()
	}

	go func() {
		for _, u := range urls {
			jobs <- u
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var batch Batch
	for r := range results {
		switch {
		case r.outcome.Err != "":
			log.Warn().Str("url", r.url).Str("reason", r.outcome.Err).Msg("extraction failed")
			batch.Failures = append(batch.Failures, Failure{URL: r.url, Reason: r.outcome.Err})
		case r.outcome.Text != "":
			batch.Texts = append(batch.Texts, r.outcome.Text)
			batch.URLs = append(batch.URLs, r.url)
		default:
			batch.Failures = append(batch.Failures, Failure{URL: r.url, Reason: "no text and no error returned"})
		}
	}
	log.Info().Int("ok", len(batch.URLs)).Int("failed", len(batch.Failures)).Msg("extraction batch done")
	return batch
}

// runTask isolates one extraction so an unexpected panic becomes a failure
// entry instead of taking down the batch.
func runTask(ctx context.Context, ex Extractor, url string, useCache bool) (out extract.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("url", url).Any("panic", r).Msg("extraction task panicked")
			out = extract.Outcome{Err: fmt.Sprintf("unexpected task failure: %v", r)}
		}
	}()
	return ex.Extract(ctx, url, useCache)
}

package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ptoivan/serpgap/internal/analyze"
	"github.com/ptoivan/serpgap/internal/pool"
)

// RunSummary is the machine-readable record of one run.
type RunSummary struct {
	Query            string          `json:"query"`
	Language         string          `json:"language"`
	Timestamp        string          `json:"timestamp"`
	NumRequested     int             `json:"num_results_requested"`
	NumProcessed     int             `json:"num_results_processed"`
	ReferenceFile    string          `json:"reference_file_used,omitempty"`
	CacheUsed        bool            `json:"cache_used"`
	AnalysisOptions  Options         `json:"analysis_options"`
	AnalysisSummary  analyze.Summary `json:"analysis_summary"`
	RelatedQuestions []string        `json:"related_questions"`
	Recommendations  string          `json:"recommendations,omitempty"`
	Failures         []pool.Failure  `json:"failed_urls"`
	WordcloudFile    string          `json:"wordcloud_file,omitempty"`
}

// NewRunSummary maps the report data onto the JSON artifact shape.
func NewRunSummary(d Data) RunSummary {
	return RunSummary{
		Query:            d.Query,
		Language:         d.Language,
		Timestamp:        d.Timestamp,
		NumRequested:     d.Requested,
		NumProcessed:     d.Processed,
		ReferenceFile:    d.ReferenceFile,
		CacheUsed:        d.CacheUsed,
		AnalysisOptions:  d.Options,
		AnalysisSummary:  d.Summary,
		RelatedQuestions: d.RelatedQuestions,
		Recommendations:  d.Recommendations,
		Failures:         d.Failures,
		WordcloudFile:    d.WordcloudFile,
	}
}

// WriteSummaryJSON writes the run summary, indented for human inspection.
func WriteSummaryJSON(path string, s RunSummary) error {
	if s.RelatedQuestions == nil {
		s.RelatedQuestions = []string{}
	}
	if s.Failures == nil {
		s.Failures = []pool.Failure{}
	}
	body, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, append(body, '\n'), 0o644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}

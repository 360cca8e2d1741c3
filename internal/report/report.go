package report

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ptoivan/serpgap/internal/analyze"
	"github.com/ptoivan/serpgap/internal/pool"
)

// TimestampLayout names every artifact of one run with the same prefix.
const TimestampLayout = "20060102-150405"

// Options records which opt-in analysis stages ran, for the artifacts.
type Options struct {
	NER       bool `json:"ner"`
	Cluster   bool `json:"cluster"`
	Sentiment bool `json:"sentiment"`
}

// Data is everything the report writers render: run metadata, the analysis
// summary, and the surrounding pipeline results.
type Data struct {
	Query            string
	Language         string
	Timestamp        string
	Requested        int
	Processed        int
	CacheUsed        bool
	ReferenceFile    string
	Options          Options
	Summary          analyze.Summary
	RelatedQuestions []string
	Recommendations  string
	Failures         []pool.Failure
	WordcloudFile    string
}

var (
	separatorRe = regexp.MustCompile(`[\s\\/:*?"<>|]+`)
	allowedRe   = regexp.MustCompile(`[^\p{L}\p{N}._-]`)
	underscRe   = regexp.MustCompile(`_+`)
)

const maxFilenameLen = 100

// SanitizeFilename makes an arbitrary query string safe as a file name stem:
// path separators and shell-hostile characters become underscores, anything
// outside letters, digits, dot, dash, and underscore is dropped, runs of
// underscores collapse, and the result is length-capped.
func SanitizeFilename(name string) string {
	if name == "" {
		return "untitled"
	}
	s := separatorRe.ReplaceAllString(name, "_")
	s = allowedRe.ReplaceAllString(s, "")
	s = underscRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if len(s) > maxFilenameLen {
		runes := []rune(s)
		if len(runes) > maxFilenameLen {
			runes = runes[:maxFilenameLen]
		}
		s = strings.Trim(string(runes), "._")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// BasePath builds the shared artifact prefix: <dir>/<sanitized>_<timestamp>.
// Each writer appends its own suffix (_tfidf.csv, _summary.json, ...).
func BasePath(dir, prefix, query string, ts time.Time) string {
	stem := prefix
	if stem == "" {
		stem = query
	}
	return filepath.Join(dir, SanitizeFilename(stem)+"_"+ts.Format(TimestampLayout))
}

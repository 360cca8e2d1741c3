package report

import (
	"fmt"
	"os"
	"strings"
)

// WriteRecommendationsTXT writes the content brief as a plain-text artifact
// with a small header identifying the run.
func WriteRecommendationsTXT(path, query, timestamp, text string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommendations for: %s\n%s\n%s\n\n%s\n", query, timestamp, strings.Repeat("=", 30), text)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write recommendations: %w", err)
	}
	return nil
}

package analyze

import (
	"unicode/utf8"

	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// sentimentMinLength is the minimum text length that gets a real polarity
// score; anything shorter scores exactly 0.0 and is excluded from the mean.
const sentimentMinLength = 10

// sentimentScores computes a polarity score in [-1, 1] per text plus the
// arithmetic mean over the texts long enough to score.
func sentimentScores(texts []string) ([]float64, float64) {
	scores := make([]float64, len(texts))
	var total float64
	var scored int
	for i, text := range texts {
		if utf8.RuneCountInString(text) <= sentimentMinLength {
			scores[i] = 0.0
			continue
		}
		parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
		score := sentitext.PolarityScore(parsed).Compound
		scores[i] = score
		total += score
		scored++
	}
	if scored == 0 {
		return scores, 0.0
	}
	return scores, total / float64(scored)
}

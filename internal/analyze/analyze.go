package analyze

import (
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrNoUsableTexts is returned when preprocessing leaves nothing to analyze.
var ErrNoUsableTexts = errors.New("no usable texts after preprocessing")

// Options selects the optional aggregation stages and supplies the caller's
// reference text for gap detection.
type Options struct {
	Reference string
	Entities  bool
	Clusters  bool
	Sentiment bool
}

// Summary is the cross-document aggregation result. Optional fields stay nil
// when their stage is off or degraded.
type Summary struct {
	TopTerms         []TermScore              `json:"overall_top_terms_with_scores"`
	TopTermsByURL    map[string][]TermScore   `json:"top_terms_by_url"`
	MissingTerms     []string                 `json:"missing_terms"`
	Entities         map[string][]EntityCount `json:"overall_entities,omitempty"`
	Clusters         map[int][]string         `json:"clusters,omitempty"`
	SentimentByURL   map[string]float64       `json:"sentiment_by_url,omitempty"`
	OverallSentiment *float64                 `json:"overall_sentiment,omitempty"`
	Note             string                   `json:"note,omitempty"`
}

// Analysis bundles the summary with the TF-IDF matrix and the row order for
// artifact writers.
type Analysis struct {
	Summary Summary
	Matrix  *Matrix
	URLs    []string
}

// Analyze runs the staged aggregation over per-document texts. Documents
// that survive preprocessing with fewer than two tokens are dropped from all
// stages; their URLs stay visible only in the caller's fetch accounting.
// Vectorization failure is fatal; every optional stage degrades its own
// field on failure instead of aborting the summary.
func (p *Pipeline) Analyze(texts []string, urls []string, opts Options) (*Analysis, error) {
	log.Info().Int("docs", len(texts)).Msg("preprocessing texts")
	tokenized := make([][]string, len(texts))
	for i, t := range texts {
		tokenized[i] = p.Preprocess(t)
	}

	var docs [][]string
	var keptTexts, keptURLs []string
	for i, tokens := range tokenized {
		if len(tokens) > 1 {
			docs = append(docs, tokens)
			keptTexts = append(keptTexts, texts[i])
			keptURLs = append(keptURLs, urls[i])
		}
	}
	if len(docs) == 0 {
		return nil, ErrNoUsableTexts
	}
	log.Info().Int("kept", len(docs)).Int("dropped", len(texts)-len(docs)).Msg("preprocessing done")

	m, err := fitTFIDF(docs)
	if err != nil {
		return nil, err
	}
	if len(m.Terms) == 0 {
		log.Warn().Msg("tf-idf produced no features")
		return &Analysis{
			Summary: Summary{
				TopTerms:      []TermScore{},
				TopTermsByURL: map[string][]TermScore{},
				MissingTerms:  []string{},
				Note:          "no TF-IDF features found; documents share too little vocabulary",
			},
			Matrix: m,
			URLs:   keptURLs,
		}, nil
	}

	perDoc := topTermsPerDoc(m)
	byURL := make(map[string][]TermScore, len(keptURLs))
	for i, u := range keptURLs {
		byURL[u] = perDoc[i]
	}
	overall := overallTopTerms(perDoc)

	summary := Summary{
		TopTerms:      overall,
		TopTermsByURL: byURL,
		MissingTerms:  []string{},
	}

	if opts.Reference != "" {
		refTokens := p.Preprocess(opts.Reference)
		summary.MissingTerms = missingTerms(overall, refTokens)
		log.Info().Int("missing", len(summary.MissingTerms)).Msg("reference comparison done")
	}

	if opts.Entities {
		log.Info().Msg("running entity recognition")
		perDocEntities := extractEntitiesPerDoc(p, keptTexts, keptURLs)
		summary.Entities = aggregateEntities(perDocEntities)
	}

	if opts.Clusters {
		log.Info().Msg("running keyword clustering")
		summary.Clusters = clusterTerms(m, clusterCount(len(keptURLs)))
	}

	if opts.Sentiment {
		log.Info().Msg("running sentiment analysis")
		scores, overallScore := sentimentScores(keptTexts)
		byURLScores := make(map[string]float64, len(keptURLs))
		for i, u := range keptURLs {
			byURLScores[u] = scores[i]
		}
		summary.SentimentByURL = byURLScores
		summary.OverallSentiment = &overallScore
	}

	return &Analysis{Summary: summary, Matrix: m, URLs: keptURLs}, nil
}

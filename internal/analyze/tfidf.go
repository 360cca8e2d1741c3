package analyze

import (
	"errors"
	"math"
	"sort"
	"strings"
)

const (
	maxFeatures = 200
	minDocFreq  = 2
)

// Matrix is a dense TF-IDF matrix: one row per surviving document, one
// column per vocabulary term. Terms are sorted, rows are l2-normalized.
type Matrix struct {
	Terms []string
	Rows  [][]float64
}

// ErrNoDocuments is returned when the vectorizer receives an empty corpus.
var ErrNoDocuments = errors.New("no documents to vectorize")

// fitTFIDF builds the TF-IDF model over token lists: unigrams and bigrams,
// a term must appear in at least minDocFreq documents, vocabulary capped at
// maxFeatures by corpus frequency. Zero resulting features is a valid state
// expressed as a Matrix with no Terms.
func fitTFIDF(docs [][]string) (*Matrix, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	// Raw term counts per document over unigrams and bigrams.
	counts := make([]map[string]int, len(docs))
	docFreq := map[string]int{}
	corpusFreq := map[string]int{}
	for i, tokens := range docs {
		c := map[string]int{}
		for j, tok := range tokens {
			c[tok]++
			if j+1 < len(tokens) {
				c[tok+" "+tokens[j+1]]++
			}
		}
		counts[i] = c
		for term, n := range c {
			docFreq[term]++
			corpusFreq[term] += n
		}
	}

	// Vocabulary: document frequency floor, then top maxFeatures by corpus
	// frequency with an alphabetical tie-break for determinism.
	candidates := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= minDocFreq {
			candidates = append(candidates, term)
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		fa, fb := corpusFreq[candidates[a]], corpusFreq[candidates[b]]
		if fa != fb {
			return fa > fb
		}
		return candidates[a] < candidates[b]
	})
	if len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}
	sort.Strings(candidates)

	m := &Matrix{Terms: candidates, Rows: make([][]float64, len(docs))}
	if len(candidates) == 0 {
		for i := range m.Rows {
			m.Rows[i] = []float64{}
		}
		return m, nil
	}

	index := make(map[string]int, len(candidates))
	for i, t := range candidates {
		index[t] = i
	}

	// Smoothed idf: ln((1+n)/(1+df)) + 1, rows l2-normalized.
	n := float64(len(docs))
	idf := make([]float64, len(candidates))
	for i, term := range candidates {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	for i, c := range counts {
		row := make([]float64, len(candidates))
		var norm float64
		for term, tf := range c {
			if j, ok := index[term]; ok {
				row[j] = float64(tf) * idf[j]
				norm += row[j] * row[j]
			}
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range row {
				row[j] /= norm
			}
		}
		m.Rows[i] = row
	}
	return m, nil
}

// TermScore pairs a vocabulary term with its TF-IDF weight.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

const (
	perDocTermCap    = 15
	overallTermCap   = 50
	perDocScoreFloor = 0.01
)

// topTermsPerDoc ranks each document's own weights descending, keeps terms
// above the score floor, and caps the list.
func topTermsPerDoc(m *Matrix) [][]TermScore {
	out := make([][]TermScore, len(m.Rows))
	for i, row := range m.Rows {
		idx := make([]int, len(row))
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool {
			if row[idx[a]] != row[idx[b]] {
				return row[idx[a]] > row[idx[b]]
			}
			return m.Terms[idx[a]] < m.Terms[idx[b]]
		})
		var terms []TermScore
		for _, j := range idx {
			if row[j] <= perDocScoreFloor {
				break
			}
			terms = append(terms, TermScore{Term: m.Terms[j], Score: row[j]})
			if len(terms) == perDocTermCap {
				break
			}
		}
		out[i] = terms
	}
	return out
}

// overallTopTerms averages each term's score across the documents where it
// made the per-document list; documents where the term scored zero do not
// dilute the average.
func overallTopTerms(perDoc [][]TermScore) []TermScore {
	sums := map[string]float64{}
	occurrences := map[string]int{}
	for _, terms := range perDoc {
		for _, ts := range terms {
			sums[ts.Term] += ts.Score
			occurrences[ts.Term]++
		}
	}
	out := make([]TermScore, 0, len(sums))
	for term, sum := range sums {
		out = append(out, TermScore{Term: term, Score: sum / float64(occurrences[term])})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Term < out[b].Term
	})
	if len(out) > overallTermCap {
		out = out[:overallTermCap]
	}
	return out
}

// missingTerms returns the order-preserving subset of topTerms absent from
// the reference. A term counts as missing when its exact string does not
// occur in the preprocessed reference and, for multi-word terms, not all of
// its constituent words appear in the reference token set. The constituent
// rule trades precision for recall on reordered phrases.
func missingTerms(topTerms []TermScore, refTokens []string) []string {
	refText := strings.Join(refTokens, " ")
	refSet := make(map[string]bool, len(refTokens))
	for _, t := range refTokens {
		refSet[t] = true
	}
	var missing []string
	for _, ts := range topTerms {
		if strings.Contains(refText, ts.Term) {
			continue
		}
		parts := strings.Fields(ts.Term)
		all := true
		for _, p := range parts {
			if !refSet[p] {
				all = false
				break
			}
		}
		if !all {
			missing = append(missing, ts.Term)
		}
	}
	return missing
}

package analyze

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bbalet/stopwords"
	prose "github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball"
	"github.com/rs/zerolog/log"
)

// ErrUnsupportedLanguage signals that no linguistic model is available for
// the requested language. Callers treat this as a recoverable setup failure.
var ErrUnsupportedLanguage = errors.New("no linguistic model available for language")

// snowballLanguages maps ISO codes to stemmer language names.
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"hu": "hungarian",
}

// Pipeline bundles tokenization, part-of-speech tagging, lemma normalization,
// stopword detection, and named-entity spans for one language.
type Pipeline struct {
	lang     string
	stemLang string
}

// NewPipeline loads the linguistic pipeline for an ISO language code.
func NewPipeline(lang string) (*Pipeline, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	stemLang, ok := snowballLanguages[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return &Pipeline{lang: lang, stemLang: stemLang}, nil
}

// Language returns the pipeline's ISO code.
func (p *Pipeline) Language() string { return p.lang }

var (
	urlRe   = regexp.MustCompile(`https?://\S+`)
	digitRe = regexp.MustCompile(`\d+`)
	wsRe    = regexp.MustCompile(`\s+`)
)

// Preprocess reduces a raw text to lowercase lemma tokens: URLs and digits
// stripped, punctuation normalized, only noun/verb/adjective/proper-noun
// tokens kept, stopwords and lemmas of length <= 2 dropped.
func (p *Pipeline) Preprocess(text string) []string {
	if text == "" {
		return nil
	}
	text = urlRe.ReplaceAllString(text, " ")
	text = digitRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer(`"`, " ", "'", " ", "-", " ", "’", " ", "„", " ", "“", " ").Replace(text)
	text = strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		log.Error().Err(err).Msg("tokenization failed")
		return nil
	}

	var tokens []string
	for _, tok := range doc.Tokens() {
		if !keepTag(tok.Tag) {
			continue
		}
		word := strings.ToLower(tok.Text)
		if !isWordLike(word) || p.isStopword(word) {
			continue
		}
		lemma := p.lemma(word)
		if utf8.RuneCountInString(lemma) > 2 {
			tokens = append(tokens, lemma)
		}
	}
	return tokens
}

// keepTag keeps nouns (NN*, proper nouns included), verbs (VB*), and
// adjectives (JJ*) in Penn Treebank notation.
func keepTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "VB") || strings.HasPrefix(tag, "JJ")
}

func isWordLike(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func (p *Pipeline) isStopword(word string) bool {
	return strings.TrimSpace(stopwords.CleanString(word, p.lang, false)) == ""
}

func (p *Pipeline) lemma(word string) string {
	stemmed, err := snowball.Stem(word, p.stemLang, false)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

// Entity is one recognized span with its aggregated occurrence count.
type Entity struct {
	Text  string
	Label string
	Count int
}

// allowedEntityLabels restricts recognition to the categories the summary
// reports on.
var allowedEntityLabels = map[string]bool{
	"PERSON": true,
	"ORG":    true,
	"GPE":    true,
	"LOC":    true,
}

// Entities runs named-entity recognition over a raw text and returns counted
// mentions, most frequent first.
func (p *Pipeline) Entities(text string) []Entity {
	if text == "" {
		return nil
	}
	doc, err := prose.NewDocument(text, prose.WithSegmentation(true))
	if err != nil {
		log.Error().Err(err).Msg("entity recognition failed")
		return nil
	}

	counts := map[string]int{}
	labels := map[string]string{}
	for _, ent := range doc.Entities() {
		if !allowedEntityLabels[ent.Label] {
			continue
		}
		name := strings.TrimSpace(wsRe.ReplaceAllString(ent.Text, " "))
		if utf8.RuneCountInString(name) <= 2 || isAllDigits(name) {
			continue
		}
		counts[name]++
		if _, ok := labels[name]; !ok {
			labels[name] = ent.Label
		}
	}

	out := make([]Entity, 0, len(counts))
	for name, n := range counts {
		out = append(out, Entity{Text: name, Label: labels[name], Count: n})
	}
	sortEntities(out)
	return out
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

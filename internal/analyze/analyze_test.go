package analyze

import (
	"errors"
	"strings"
	"testing"
)

func TestNewPipeline_Languages(t *testing.T) {
	if _, err := NewPipeline("en"); err != nil {
		t.Fatalf("english must be supported: %v", err)
	}
	if _, err := NewPipeline(" EN "); err != nil {
		t.Fatalf("code must be trimmed and lowercased: %v", err)
	}
	_, err := NewPipeline("de")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestPreprocess_DropsNoise(t *testing.T) {
	p, err := NewPipeline("en")
	if err != nil {
		t.Fatal(err)
	}
	tokens := p.Preprocess("The 123 keywords at https://example.com/page are important")
	joined := strings.Join(tokens, " ")
	if !strings.Contains(joined, "keyword") {
		t.Fatalf("content word lost: %v", tokens)
	}
	for _, tok := range tokens {
		if tok == "the" || tok == "are" {
			t.Fatalf("stopword survived: %v", tokens)
		}
		if strings.Contains(tok, "123") || strings.Contains(tok, "http") || strings.Contains(tok, "example.com") {
			t.Fatalf("noise survived: %v", tokens)
		}
	}
}

func TestPreprocess_EmptyInput(t *testing.T) {
	p, err := NewPipeline("en")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Preprocess(""); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
	if got := p.Preprocess("   \n\t "); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
}

func TestAnalyze_SharedVocabulary(t *testing.T) {
	p, err := NewPipeline("en")
	if err != nil {
		t.Fatal(err)
	}
	docA := "Keyword research guides every content strategy. Good keyword research improves website traffic."
	docB := "Marketing teams rely on keyword research. Content strategy without keyword research wastes budget."
	texts := []string{docA, docB, "hi"}
	urls := []string{"https://a.example/post", "https://b.example/post", "https://c.example/stub"}

	res, err := p.Analyze(texts, urls, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// The third document yields too few tokens and is dropped everywhere.
	if len(res.URLs) != 2 {
		t.Fatalf("expected 2 surviving documents, got %v", res.URLs)
	}
	if len(res.Summary.TopTerms) == 0 {
		t.Fatal("expected overall top terms")
	}
	if !hasTerm(res.Summary.TopTerms, "keyword") {
		t.Fatalf("shared term missing from overall list: %+v", res.Summary.TopTerms)
	}
	for _, u := range res.URLs {
		if len(res.Summary.TopTermsByURL[u]) == 0 {
			t.Fatalf("no top terms for %s", u)
		}
	}
	if res.Summary.MissingTerms == nil {
		t.Fatal("missing terms must be an empty list, not nil")
	}
	if res.Summary.Entities != nil || res.Summary.Clusters != nil || res.Summary.SentimentByURL != nil {
		t.Fatal("optional stages must stay off by default")
	}
}

func TestAnalyze_ReferenceGap(t *testing.T) {
	p, err := NewPipeline("en")
	if err != nil {
		t.Fatal(err)
	}
	docA := "Backlink audits and backlink outreach grow domain authority for websites."
	docB := "Every backlink audit should measure domain authority and outreach quality."
	res, err := p.Analyze(
		[]string{docA, docB},
		[]string{"https://a.example", "https://b.example"},
		Options{Reference: "Our page covers content strategy and keyword research only."},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Summary.MissingTerms) == 0 {
		t.Fatalf("expected gap terms against unrelated reference, top terms %+v", res.Summary.TopTerms)
	}
	found := map[string]bool{}
	for _, term := range res.Summary.MissingTerms {
		found[term] = true
	}
	if !found["backlink"] {
		t.Fatalf("expected backlink flagged missing, got %v", res.Summary.MissingTerms)
	}
}

func TestAnalyze_NoUsableTexts(t *testing.T) {
	p, err := NewPipeline("en")
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Analyze([]string{"", "ok", "  "}, []string{"a", "b", "c"}, Options{})
	if !errors.Is(err, ErrNoUsableTexts) {
		t.Fatalf("expected ErrNoUsableTexts, got %v", err)
	}
}

func TestAnalyze_NoSharedVocabularyNote(t *testing.T) {
	p, err := NewPipeline("en")
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Analyze(
		[]string{"Guitars violins trumpets orchestras symphonies.", "Bananas cherries melons apricots groceries."},
		[]string{"https://a.example", "https://b.example"},
		Options{},
	)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Note == "" {
		t.Fatal("expected explanatory note for empty vocabulary")
	}
	if len(res.Summary.TopTerms) != 0 {
		t.Fatalf("expected no top terms, got %+v", res.Summary.TopTerms)
	}
}

func TestClusterCount(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 3, 4: 2, 5: 2, 7: 3, 10: 5, 20: 5}
	for docs, want := range cases {
		if got := clusterCount(docs); got != want {
			t.Errorf("clusterCount(%d) = %d, want %d", docs, got, want)
		}
	}
}

func TestClusterTerms_SingleCluster(t *testing.T) {
	m := &Matrix{
		Terms: []string{"alpha", "beta", "gamma"},
		Rows: [][]float64{
			{0.9, 0.1, 0.0},
			{0.7, 0.3, 0.0},
		},
	}
	got := clusterTerms(m, 1)
	if len(got) != 1 {
		t.Fatalf("expected one cluster, got %v", got)
	}
	terms := got[0]
	if len(terms) != 2 || terms[0] != "alpha" || terms[1] != "beta" {
		t.Fatalf("unexpected centroid terms: %v", terms)
	}
}

func TestClusterTerms_Degrades(t *testing.T) {
	empty := &Matrix{Terms: []string{}, Rows: [][]float64{{}, {}}}
	if got := clusterTerms(empty, 2); len(got) != 0 {
		t.Fatalf("no features must yield empty map, got %v", got)
	}
	m := &Matrix{Terms: []string{"alpha"}, Rows: [][]float64{{1.0}}}
	got := clusterTerms(m, 5)
	if len(got) != 1 {
		t.Fatalf("cluster count must shrink to document count, got %v", got)
	}
}

func TestSentimentScores(t *testing.T) {
	texts := []string{
		"This product is absolutely wonderful, I love everything about it and recommend it warmly.",
		"bad",
		"This is a terrible, horrible failure and I hate it deeply.",
	}
	scores, overall := sentimentScores(texts)
	if scores[0] <= 0 {
		t.Fatalf("positive text scored %f", scores[0])
	}
	if scores[1] != 0.0 {
		t.Fatalf("short text must score exactly zero, got %f", scores[1])
	}
	if scores[2] >= 0 {
		t.Fatalf("negative text scored %f", scores[2])
	}
	want := (scores[0] + scores[2]) / 2
	if overall != want {
		t.Fatalf("overall %f must exclude short texts, want %f", overall, want)
	}

	_, overall = sentimentScores([]string{"hi", "ok"})
	if overall != 0.0 {
		t.Fatalf("no scorable texts must yield 0.0, got %f", overall)
	}
}

func TestAggregateEntities(t *testing.T) {
	perDoc := [][]Entity{
		{
			{Text: "Google", Label: "ORG", Count: 3},
			{Text: "Paris", Label: "GPE", Count: 1},
			{Text: "Ada Lovelace", Label: "PERSON", Count: 2},
		},
		{
			{Text: "google", Label: "ORG", Count: 2},
			{Text: "Paris", Label: "LOC", Count: 3},
			{Text: "Berlin", Label: "GPE", Count: 4},
			{Text: "Something", Label: "DATE", Count: 9},
		},
	}
	got := aggregateEntities(perDoc)

	orgs := got["ORG"]
	if len(orgs) != 1 || orgs[0].Entity != "Google" || orgs[0].Count != 5 {
		t.Fatalf("case-insensitive merge failed: %+v", orgs)
	}
	places := got["GPE/LOC"]
	if len(places) != 2 {
		t.Fatalf("GPE and LOC must collapse into one category: %+v", places)
	}
	// Equal counts break ties alphabetically.
	if places[0].Entity != "Berlin" || places[1].Entity != "Paris" {
		t.Fatalf("unexpected order: %+v", places)
	}
	if places[1].Count != 4 {
		t.Fatalf("Paris counts must merge across labels: %+v", places)
	}
	if _, ok := got["DATE"]; ok {
		t.Fatal("unlisted labels must be dropped")
	}
	if len(got["PERSON"]) != 1 {
		t.Fatalf("person missing: %+v", got)
	}
}

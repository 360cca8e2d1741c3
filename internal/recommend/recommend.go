package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ptoivan/serpgap/internal/analyze"
	"github.com/ptoivan/serpgap/internal/llm"
	"github.com/ptoivan/serpgap/internal/retry"
)

const (
	// DefaultModel is the chat model used when the caller does not name one.
	DefaultModel = "gpt-4o-mini"

	defaultTemperature = 0.7
	defaultMaxTokens   = 1000

	promptTermCap    = 20
	promptClusterCap = 8
	promptEntityCap  = 5
	refSnippetRunes  = 200
)

// Recommender turns an analysis summary into an article brief via a chat
// model. A nil Client means no API key was configured; Generate then reports
// the step as skipped instead of failing the run.
type Recommender struct {
	Client      llm.Client
	Model       string
	Temperature float32
	MaxTokens   int
	Policy      retry.Policy
}

// New builds a Recommender around a provider. Pass nil when no key is set.
func New(client llm.Client, model string) *Recommender {
	if model == "" {
		model = DefaultModel
	}
	return &Recommender{
		Client:      client,
		Model:       model,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Policy:      retry.LLMPolicy(),
	}
}

// Generate produces the content brief. It never returns an error: any
// failure comes back as a human-readable string so the pipeline can carry it
// into the artifacts alongside the rest of the summary.
func (r *Recommender) Generate(ctx context.Context, summary *analyze.Summary, query, reference string, paa []string) string {
	if r.Client == nil {
		log.Warn().Msg("no chat API key configured, skipping recommendations")
		return "Skipped (no API key)."
	}

	req := openai.ChatCompletionRequest{
		Model:       r.Model,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(summary, query, reference, paa)},
		},
	}

	var resp openai.ChatCompletionResponse
	err := r.Policy.Do(ctx, "chat completion", func() error {
		var callErr error
		resp, callErr = r.Client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
				log.Error().Err(err).Msg("chat API authentication failed")
				return "Error: chat API key invalid or lacks permission."
			case apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500:
				log.Error().Err(err).Msg("chat API rejected the request")
				return fmt.Sprintf("Error: invalid request to chat API (status %d).", apiErr.HTTPStatusCode)
			}
		}
		log.Error().Err(err).Msg("recommendation generation failed")
		return fmt.Sprintf("Error generating recommendations: %v", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		log.Warn().Msg("chat API returned an empty response")
		return "Error: empty response from chat API."
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

const systemPrompt = `You are an excellent SEO editor and content strategist. Based on an SEO competitive-gap analysis, your task is to deliver detailed recommendations and concrete suggestions for writing a new, comprehensive article with the potential to outrank the analyzed competitors. Be creative, precise, and practical.`

func buildUserPrompt(summary *analyze.Summary, query, reference string, paa []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Goal:** Create an outstanding article for the keyword %q.\n\n", query)
	b.WriteString("**Basis:** SEO gap analysis of the top competitors and frequently asked questions (PAA).\n\n")
	b.WriteString("**Competitor and SERP analysis data:**\n")
	fmt.Fprintf(&b, "1. **Most important terms (TF-IDF):** %s\n", formatTopTerms(summary.TopTerms))
	b.WriteString("   (Core terms the article should contain.)\n")
	fmt.Fprintf(&b, "2. **Potentially missing terms (vs. the reference text):** %s\n", formatMissing(summary.MissingTerms))
	b.WriteString("   (These gaps should be closed in the new article.)\n")
	b.WriteString("3. **Relevant entities (NER):**\n")
	b.WriteString(formatEntities(summary.Entities))
	b.WriteString("   (Important people, places, and organizations that signal relevance.)\n")
	b.WriteString("4. **Thematic keyword clusters:**\n")
	b.WriteString(formatClusters(summary.Clusters))
	b.WriteString("   (Point to important subtopics and structure for the article.)\n")
	b.WriteString("5. **Frequently asked questions (People Also Ask):**\n")
	b.WriteString(formatPAA(paa))
	b.WriteString("   (Direct user questions the article should answer, ideally in an FAQ section.)\n")
	fmt.Fprintf(&b, "6. **Average competitor sentiment:** %s\n", formatSentiment(summary.OverallSentiment))
	b.WriteString("   (Guidance for the tone of voice.)\n")
	fmt.Fprintf(&b, "7. **Reference text (excerpt, if any):** %s\n\n", formatReference(reference))

	fmt.Fprintf(&b, "**Your task:**\nBased on **all** the data above, develop a **detailed concept and concrete recommendations for writing a new article** on %q.\n\n", query)
	b.WriteString(`**In particular, provide suggestions for:**

1. **Article structure / outline:**
   - Propose a logical outline with main (H2) and sub headings (H3).
   - Use the **keyword clusters** and the **PAA questions** to define meaningful sections, including an FAQ section.
   - Consider the **top terms** and **entities** when choosing section topics.

2. **Content focus and content gaps:**
   - Which **missing terms** must be covered, and in which sections?
   - Which **PAA questions** should be answered directly?
   - Which **entities** should be mentioned prominently or explained?
   - Are there **cluster topics** the competitors cover that the new article should deepen to be more comprehensive?

3. **Title and meta description:**
   - Suggest 2-3 attractive, SEO-optimized **title options** (about 50-60 characters) that pick up the keyword and important terms or questions.
   - Draft a **meta description** (about 150-160 characters) that invites the click and uses relevant keywords, entities, or questions.

4. **Introduction and key messages:**
   - Sketch a possible introduction that hooks the reader and frames the topic.
   - What should the central messages or unique angles of the article be?

5. **(Optional) Tone and style:**
   - Give a short tone recommendation based on the competitor **sentiment** and the topic.

**Structure your recommendations clearly (e.g. with Markdown).** Be specific: do not just repeat keywords, explain *how* to use them in the article.
`)
	return b.String()
}

func formatTopTerms(terms []analyze.TermScore) string {
	if len(terms) == 0 {
		return "None found."
	}
	if len(terms) > promptTermCap {
		terms = terms[:promptTermCap]
	}
	parts := make([]string, len(terms))
	for i, ts := range terms {
		parts[i] = fmt.Sprintf("%s (%.2f)", ts.Term, ts.Score)
	}
	return strings.Join(parts, ", ")
}

func formatMissing(missing []string) string {
	if len(missing) == 0 {
		return "None (or no reference text provided)."
	}
	return strings.Join(missing, ", ")
}

func formatEntities(entities map[string][]analyze.EntityCount) string {
	if len(entities) == 0 {
		return "   No relevant entities found.\n"
	}
	var b strings.Builder
	for _, label := range sortedKeys(entities) {
		ents := entities[label]
		if len(ents) == 0 {
			continue
		}
		if len(ents) > promptEntityCap {
			ents = ents[:promptEntityCap]
		}
		parts := make([]string, len(ents))
		for i, e := range ents {
			parts[i] = fmt.Sprintf("%s (%dx)", e.Entity, e.Count)
		}
		fmt.Fprintf(&b, "   - %s: %s\n", label, strings.Join(parts, ", "))
	}
	if b.Len() == 0 {
		return "   No relevant entities found.\n"
	}
	return b.String()
}

func formatClusters(clusters map[int][]string) string {
	if len(clusters) == 0 {
		return "   No clusters found.\n"
	}
	ids := make([]int, 0, len(clusters))
	for id := range clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var b strings.Builder
	for _, id := range ids {
		terms := clusters[id]
		suffix := ""
		if len(terms) > promptClusterCap {
			terms = terms[:promptClusterCap]
			suffix = "..."
		}
		fmt.Fprintf(&b, "   - Cluster %d: %s%s\n", id, strings.Join(terms, ", "), suffix)
	}
	return b.String()
}

func formatPAA(paa []string) string {
	if len(paa) == 0 {
		return "   No \"People Also Ask\" questions found.\n"
	}
	var b strings.Builder
	for _, q := range paa {
		fmt.Fprintf(&b, "   - %s\n", q)
	}
	return b.String()
}

func formatSentiment(overall *float64) string {
	if overall == nil {
		return "N/A."
	}
	return fmt.Sprintf("%.2f", *overall)
}

func formatReference(reference string) string {
	if reference == "" {
		return "None provided."
	}
	runes := []rune(reference)
	if len(runes) > refSnippetRunes {
		return fmt.Sprintf("%q...", string(runes[:refSnippetRunes]))
	}
	return fmt.Sprintf("%q", reference)
}

func sortedKeys(m map[string][]analyze.EntityCount) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

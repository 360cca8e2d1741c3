package recommend

import (
	"context"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ptoivan/serpgap/internal/analyze"
)

type fakeClient struct {
	calls   int
	lastReq openai.ChatCompletionRequest
	respond func(int) (openai.ChatCompletionResponse, error)
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.lastReq = req
	return f.respond(f.calls)
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func testRecommender(c *fakeClient) *Recommender {
	r := New(c, "test-model")
	r.Policy.Sleep = func(time.Duration) {}
	return r
}

func TestGenerate_SkippedWithoutKey(t *testing.T) {
	r := New(nil, "")
	got := r.Generate(context.Background(), &analyze.Summary{}, "seo tools", "", nil)
	if !strings.Contains(got, "Skipped") {
		t.Fatalf("expected skip notice, got %q", got)
	}
}

func TestGenerate_PromptCarriesAnalysisData(t *testing.T) {
	fake := &fakeClient{respond: func(int) (openai.ChatCompletionResponse, error) {
		return textResponse("  the brief  "), nil
	}}
	r := testRecommender(fake)

	overall := 0.42
	summary := &analyze.Summary{
		TopTerms:     []analyze.TermScore{{Term: "keyword research", Score: 0.8123}},
		MissingTerms: []string{"backlink audit"},
		Entities: map[string][]analyze.EntityCount{
			"ORG": {{Entity: "Google", Count: 7}},
		},
		Clusters:         map[int][]string{0: {"content", "strategy"}},
		OverallSentiment: &overall,
	}
	got := r.Generate(context.Background(), summary, "seo tools", strings.Repeat("r", 300), []string{"what is seo?"})
	if got != "the brief" {
		t.Fatalf("expected trimmed brief, got %q", got)
	}
	if fake.lastReq.Model != "test-model" {
		t.Fatalf("model not forwarded: %q", fake.lastReq.Model)
	}
	if len(fake.lastReq.Messages) != 2 || fake.lastReq.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected messages: %+v", fake.lastReq.Messages)
	}
	prompt := fake.lastReq.Messages[1].Content
	for _, want := range []string{
		`"seo tools"`,
		"keyword research (0.81)",
		"backlink audit",
		"Google (7x)",
		"Cluster 0: content, strategy",
		"what is seo?",
		"0.42",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	// Long reference texts get truncated to a snippet.
	if strings.Contains(prompt, strings.Repeat("r", 201)) {
		t.Fatal("reference snippet not truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("r", 200)) {
		t.Fatal("reference snippet missing")
	}
}

func TestGenerate_EmptySummarySections(t *testing.T) {
	fake := &fakeClient{respond: func(int) (openai.ChatCompletionResponse, error) {
		return textResponse("ok"), nil
	}}
	r := testRecommender(fake)
	if got := r.Generate(context.Background(), &analyze.Summary{}, "q", "", nil); got != "ok" {
		t.Fatalf("unexpected result %q", got)
	}
	prompt := fake.lastReq.Messages[1].Content
	for _, want := range []string{
		"None found.",
		"None (or no reference text provided).",
		"No relevant entities found.",
		"No clusters found.",
		"People Also Ask\" questions found.",
		"N/A.",
		"None provided.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing placeholder %q:\n%s", want, prompt)
		}
	}
}

func TestGenerate_ServerErrorExhaustsRetries(t *testing.T) {
	fake := &fakeClient{respond: func(int) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, &openai.APIError{HTTPStatusCode: 500, Message: "boom"}
	}}
	r := testRecommender(fake)
	got := r.Generate(context.Background(), &analyze.Summary{}, "q", "", nil)
	if !strings.HasPrefix(got, "Error generating recommendations:") {
		t.Fatalf("expected failure string, got %q", got)
	}
	if fake.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", fake.calls)
	}
}

func TestGenerate_AuthFailureNotRetried(t *testing.T) {
	fake := &fakeClient{respond: func(int) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}
	}}
	r := testRecommender(fake)
	got := r.Generate(context.Background(), &analyze.Summary{}, "q", "", nil)
	if !strings.Contains(got, "key invalid") {
		t.Fatalf("expected auth failure string, got %q", got)
	}
	if fake.calls != 1 {
		t.Fatalf("auth failures must not be retried, got %d attempts", fake.calls)
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	fake := &fakeClient{respond: func(int) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, nil
	}}
	r := testRecommender(fake)
	got := r.Generate(context.Background(), &analyze.Summary{}, "q", "", nil)
	if !strings.Contains(got, "empty response") {
		t.Fatalf("expected empty-response string, got %q", got)
	}
}

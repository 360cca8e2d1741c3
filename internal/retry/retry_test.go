package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func TestDo_ExhaustsConfiguredAttempts(t *testing.T) {
	calls := 0
	p := Policy{
		MaxAttempts: 3,
		MinSleep:    time.Millisecond,
		MaxSleep:    time.Millisecond,
		Retryable:   func(error) bool { return true },
		Sleep:       func(time.Duration) {},
	}
	err := p.Do(context.Background(), "serp request", func() error {
		calls++
		return &StatusError{StatusCode: 503, Status: "Service Unavailable"}
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected classified failure after exhaustion")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("exhaustion error should wrap the underlying cause, got %v", err)
	}
}

func TestDo_ClientErrorFailsImmediately(t *testing.T) {
	calls := 0
	p := DocumentPolicy()
	p.Sleep = func(time.Duration) {}
	err := p.Do(context.Background(), "download", func() error {
		calls++
		return &StatusError{StatusCode: 404, Status: "Not Found"}
	})
	if calls != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDo_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	slept := []time.Duration{}
	p := SearchPolicy()
	p.Sleep = func(d time.Duration) { slept = append(slept, d) }
	err := p.Do(context.Background(), "serp request", func() error {
		calls++
		if calls < 3 {
			return &StatusError{StatusCode: 500, Status: "Internal Server Error"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success: %v", err)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(slept))
	}
	// Bounds per the search policy: 2s..10s.
	for _, d := range slept {
		if d < 2*time.Second || d > 10*time.Second {
			t.Fatalf("sleep %v outside configured bounds", d)
		}
	}
}

func TestBackoff_Bounds(t *testing.T) {
	p := Policy{MinSleep: 2 * time.Second, MaxSleep: 5 * time.Second}
	if got := p.backoff(1); got != 2*time.Second {
		t.Fatalf("attempt 1: want min clamp 2s, got %v", got)
	}
	if got := p.backoff(4); got != 5*time.Second {
		t.Fatalf("attempt 4: want max clamp 5s, got %v", got)
	}
}

func TestTransientHTTP(t *testing.T) {
	if !TransientHTTP(&StatusError{StatusCode: 502}) {
		t.Fatal("5xx should be transient")
	}
	if TransientHTTP(&StatusError{StatusCode: 404}) {
		t.Fatal("4xx must be terminal")
	}
	if !TransientHTTP(context.DeadlineExceeded) {
		t.Fatal("timeout should be transient")
	}
	if TransientHTTP(errors.New("no such host")) {
		t.Fatal("unclassified errors must be terminal")
	}
}

func TestTransientOpenAI_ExcludesAuth(t *testing.T) {
	if TransientOpenAI(&openai.APIError{HTTPStatusCode: 401}) {
		t.Fatal("auth failure must never be retried")
	}
	if !TransientOpenAI(&openai.APIError{HTTPStatusCode: 429}) {
		t.Fatal("rate limiting should be retried")
	}
	if !TransientOpenAI(&openai.APIError{HTTPStatusCode: 500}) {
		t.Fatal("5xx should be retried")
	}
	if TransientOpenAI(&openai.APIError{HTTPStatusCode: 400}) {
		t.Fatal("client errors must be terminal")
	}
}

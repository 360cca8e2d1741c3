package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Policy executes one blocking network/API call with bounded retries and
// exponential backoff. It carries no state between calls; it is a pure
// control-flow wrapper around a single side-effecting operation.
type Policy struct {
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// MinSleep and MaxSleep bound the per-attempt backoff.
	MinSleep time.Duration
	MaxSleep time.Duration
	// Retryable classifies an error as transient. Nil means never retry.
	Retryable func(error) bool

	// Sleep is an injectable sleeper for tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// Do runs op until it succeeds, a non-retryable error occurs, or attempts
// are exhausted. Sleep happens only between attempts, never after the final
// failure. Exhaustion wraps the last error with the label.
func (p Policy) Do(ctx context.Context, label string, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable == nil || !p.Retryable(err) {
			return fmt.Errorf("%s: %w", label, err)
		}
		if attempt == attempts {
			break
		}
		sleep := p.backoff(attempt)
		log.Warn().Str("op", label).Int("attempt", attempt).Dur("sleep", sleep).Err(err).
			Msg("transient failure, retrying")
		if err := p.sleep(ctx, sleep); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", label, attempts, lastErr)
}

// backoff computes an exponential sleep (multiplier 1) clamped to the
// configured bounds: 1s, 2s, 4s, ... before clamping.
func (p Policy) backoff(attempt int) time.Duration {
	d := time.Second << uint(attempt-1)
	if d < p.MinSleep {
		d = p.MinSleep
	}
	if p.MaxSleep > 0 && d > p.MaxSleep {
		d = p.MaxSleep
	}
	return d
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		p.Sleep(d)
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StatusError carries an HTTP status for classification by the policies
// below. 4xx is terminal, 5xx transient.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, e.Status)
}

// IsClientError reports whether err is an HTTP 4xx StatusError.
func IsClientError(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		return se.StatusCode, true
	}
	return 0, false
}

// TransientHTTP classifies transient network failures (timeout, connection
// reset, truncated body) and server-side 5xx statuses as retryable. Client
// errors, 4xx included, fail immediately.
func TransientHTTP(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	// Chunked-encoding truncation surfaces as an unexpected EOF mid-body.
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	return false
}

// TransientOpenAI classifies rate limiting, timeouts, connection errors, and
// 5xx API statuses as retryable. Authentication failures are terminal even
// though they share the client-error status class.
func TransientOpenAI(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403 {
			return false
		}
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 401 || reqErr.HTTPStatusCode == 403 {
			return false
		}
		if reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == 429 {
			return true
		}
		return TransientHTTP(reqErr.Err)
	}
	return TransientHTTP(err)
}

// Policies mirror the three call sites: document download, SERP API, LLM.

func DocumentPolicy() Policy {
	return Policy{MaxAttempts: 2, MinSleep: 2 * time.Second, MaxSleep: 5 * time.Second, Retryable: TransientHTTP}
}

func SearchPolicy() Policy {
	return Policy{MaxAttempts: 3, MinSleep: 2 * time.Second, MaxSleep: 10 * time.Second, Retryable: TransientHTTP}
}

func LLMPolicy() Policy {
	return Policy{MaxAttempts: 3, MinSleep: 4 * time.Second, MaxSleep: 15 * time.Second, Retryable: TransientOpenAI}
}

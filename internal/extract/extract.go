package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/ptoivan/serpgap/internal/cache"
	"github.com/ptoivan/serpgap/internal/retry"
)

const namespace = "text"

// DefaultMinLength is the minimum extracted-text length considered usable.
const DefaultMinLength = 150

// Outcome is the per-URL result of an extraction. Exactly one of Text and
// Err is non-empty.
type Outcome struct {
	Text string
	Err  string
}

// Extractor downloads a URL and reduces it to main-content plain text, with
// caching of both positive and negative outcomes. Caching failures too
// prevents re-fetching a URL known to be unusable within the cache TTL.
type Extractor struct {
	HTTPClient *http.Client
	Cache      *cache.Store
	// MinLength below which extracted text is rejected. Zero means default.
	MinLength int
	// Timeout bounds each download attempt. Zero means 15s.
	Timeout time.Duration
	// Policy defaults to retry.DocumentPolicy when zero-valued.
	Policy retry.Policy
}

func (e *Extractor) minLength() int {
	if e.MinLength > 0 {
		return e.MinLength
	}
	return DefaultMinLength
}

func (e *Extractor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return 15 * time.Second
}

func (e *Extractor) policy() retry.Policy {
	if e.Policy.MaxAttempts > 0 {
		return e.Policy
	}
	return retry.DocumentPolicy()
}

// Extract returns the main text of url, or a terminal error string. All
// terminal outcomes, failures included, are cached when caching is enabled.
func (e *Extractor) Extract(ctx context.Context, url string, useCache bool) Outcome {
	var path string
	if e.Cache != nil {
		path = e.Cache.Path(namespace, e.Cache.Key(namespace, url), "json")
	}

	if useCache && e.Cache != nil {
		if out, ok := e.readCached(path, url); ok {
			return out
		}
	}

	out := e.extract(ctx, url)
	if useCache && e.Cache != nil {
		e.writeCached(out, path)
	}
	return out
}

// Cache entries are two-element outcome tuples [text|null, error|null].
// Entries with any other arity are logged and treated as a miss.
func (e *Extractor) readCached(path, url string) (Outcome, bool) {
	var entry []*string
	if !e.Cache.ReadJSON(path, &entry) {
		return Outcome{}, false
	}
	if len(entry) != 2 {
		log.Warn().Str("url", url).Int("arity", len(entry)).Msg("invalid text cache entry shape, ignoring")
		return Outcome{}, false
	}
	var out Outcome
	if entry[0] != nil {
		out.Text = *entry[0]
	}
	if entry[1] != nil {
		out.Err = *entry[1]
	}
	log.Debug().Str("url", url).Msg("extraction served from cache")
	return out, true
}

func (e *Extractor) writeCached(out Outcome, path string) {
	entry := []*string{nil, nil}
	if out.Err != "" {
		entry[1] = &out.Err
	} else {
		entry[0] = &out.Text
	}
	e.Cache.WriteJSON(entry, path)
}

func (e *Extractor) extract(ctx context.Context, url string) Outcome {
	var body []byte
	var contentType string

	p := e.policy()
	err := p.Do(ctx, "document download", func() error {
		var opErr error
		body, contentType, opErr = e.fetchOnce(ctx, url)
		return opErr
	})
	if err != nil {
		var msg string
		if code, ok := retry.IsClientError(err); ok {
			msg = fmt.Sprintf("HTTP client error %d", code)
			log.Warn().Str("url", url).Int("status", code).Msg("document fetch rejected")
		} else {
			msg = fmt.Sprintf("network error: %v", err)
			log.Error().Str("url", url).Err(err).Msg("document fetch failed")
		}
		return Outcome{Err: msg}
	}

	if !strings.Contains(strings.ToLower(contentType), "html") {
		msg := fmt.Sprintf("content type is not HTML (%s)", contentType)
		log.Warn().Str("url", url).Msg(msg)
		return Outcome{Err: msg}
	}
	if len(body) == 0 {
		log.Warn().Str("url", url).Msg("empty response body")
		return Outcome{Err: "no content downloaded"}
	}

	text, err := MainText(body)
	if err != nil {
		msg := fmt.Sprintf("extraction engine error: %v", err)
		log.Error().Str("url", url).Err(err).Msg("main-content extraction failed")
		return Outcome{Err: msg}
	}
	if text == "" {
		log.Warn().Str("url", url).Msg("no main content extracted")
		return Outcome{Err: "no main content could be extracted"}
	}
	if n := utf8.RuneCountInString(text); n < e.minLength() {
		msg := fmt.Sprintf("extracted text too short (%d/%d)", n, e.minLength())
		log.Warn().Str("url", url).Msg(msg)
		return Outcome{Err: msg}
	}

	log.Debug().Str("url", url).Int("chars", utf8.RuneCountInString(text)).Msg("text extracted")
	return Outcome{Text: text}
}

// fetchOnce performs one GET with a browser-like header set. The body is
// fully read and the response closed on every path.
func (e *Extractor) fetchOnce(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.8")
	req.Header.Set("Referer", "https://www.google.com/")

	hc := e.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	tctx, cancel := context.WithTimeout(req.Context(), e.timeout())
	defer cancel()
	req = req.WithContext(tctx)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &retry.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

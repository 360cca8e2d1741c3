package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ptoivan/serpgap/internal/cache"
	"github.com/ptoivan/serpgap/internal/retry"
)

const namespace = "serp"

// Result is a single ranked organic hit.
type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Results is the client's value return. Err is populated instead of an error
// being raised: callers treat retrieval failure as a normal, reportable state.
type Results struct {
	Organic          []Result `json:"organic_results"`
	RelatedQuestions []string `json:"related_questions"`
	Err              string   `json:"error,omitempty"`
}

// Client obtains ranked organic results plus "people also ask" questions for
// a query from a SerpApi-compatible provider, with caching and retries.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Cache      *cache.Store
	// Timeout bounds each attempt. Zero means 20s.
	Timeout time.Duration
	// Policy defaults to retry.SearchPolicy when zero-valued.
	Policy retry.Policy
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 20 * time.Second
}

func (c *Client) policy() retry.Policy {
	if c.Policy.MaxAttempts > 0 {
		return c.Policy
	}
	return retry.SearchPolicy()
}

// Fetch returns organic results truncated to numResults plus related
// questions. Any failure comes back in Results.Err with empty lists.
func (c *Client) Fetch(ctx context.Context, query string, numResults int, language string, useCache bool) Results {
	key := ""
	path := ""
	if c.Cache != nil {
		key = c.Cache.Key(namespace, query, strconv.Itoa(numResults), language)
		path = c.Cache.Path(namespace, key, "json")
	}

	if useCache && c.Cache != nil {
		// The stored record must carry both lists to count as a hit; an
		// absent error field is back-filled as empty.
		var stored struct {
			Organic          *[]Result `json:"organic_results"`
			RelatedQuestions *[]string `json:"related_questions"`
			Err              *string   `json:"error"`
		}
		if c.Cache.ReadJSON(path, &stored) {
			if stored.Organic != nil && stored.RelatedQuestions != nil {
				out := Results{Organic: *stored.Organic, RelatedQuestions: *stored.RelatedQuestions}
				if stored.Err != nil {
					out.Err = *stored.Err
				}
				log.Info().Str("query", query).Msg("serp results served from cache")
				return out
			}
			log.Warn().Str("query", query).Msg("serp cache entry has unexpected shape, ignoring")
		}
	}

	if strings.TrimSpace(c.APIKey) == "" {
		return Results{Organic: []Result{}, RelatedQuestions: []string{}, Err: "search API key missing"}
	}

	var body []byte
	p := c.policy()
	err := p.Do(ctx, "serp request", func() error {
		var opErr error
		body, opErr = c.request(ctx, query, numResults, language)
		return opErr
	})
	if err != nil {
		status := "n/a"
		if code, ok := retry.IsClientError(err); ok {
			status = strconv.Itoa(code)
		}
		msg := fmt.Sprintf("search request failed (status %s): %v", status, err)
		log.Error().Str("query", query).Err(err).Msg("serp request failed")
		return Results{Organic: []Result{}, RelatedQuestions: []string{}, Err: msg}
	}

	out, perr := parse(body, numResults)
	if perr != nil {
		msg := fmt.Sprintf("invalid search response: %v", perr)
		log.Error().Str("query", query).Err(perr).Msg("serp response unparseable")
		return Results{Organic: []Result{}, RelatedQuestions: []string{}, Err: msg}
	}
	log.Info().Str("query", query).Int("organic", len(out.Organic)).
		Int("paa", len(out.RelatedQuestions)).Msg("serp results fetched")

	if useCache && c.Cache != nil {
		c.Cache.WriteJSON(out, path)
	}
	return out
}

// request performs one provider call. It overshoots to numResults*2 so the
// post-filter truncation still yields enough usable hits.
func (c *Client) request(ctx context.Context, query string, numResults int, language string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("num", strconv.Itoa(numResults*2))
	q.Set("api_key", c.APIKey)
	q.Set("engine", "google")
	q.Set("hl", language)
	if len(language) == 2 {
		q.Set("gl", strings.ToUpper(language))
	}
	q.Set("lr", "lang_"+language)
	req.URL.RawQuery = q.Encode()

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	tctx, cancel := context.WithTimeout(req.Context(), c.timeout())
	defer cancel()
	req = req.WithContext(tctx)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return io.ReadAll(resp.Body)
}

type paaItem struct {
	Question string `json:"question"`
}

func parse(body []byte, numResults int) (Results, error) {
	var pr struct {
		OrganicResults []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"organic_results"`
		// The provider is inconsistent about which key carries the PAA list.
		RelatedQuestions []paaItem `json:"related_questions"`
		PeopleAlsoAsk    []paaItem `json:"people_also_ask"`
	}
	if err := json.Unmarshal(body, &pr); err != nil {
		return Results{}, err
	}

	organic := make([]Result, 0, numResults)
	for _, item := range pr.OrganicResults {
		if item.Title == "" || !isAbsoluteHTTP(item.Link) {
			continue
		}
		organic = append(organic, Result{Title: item.Title, URL: item.Link})
		if len(organic) >= numResults {
			break
		}
	}

	paa := pr.RelatedQuestions
	if len(paa) == 0 {
		paa = pr.PeopleAlsoAsk
	}
	questions := make([]string, 0, len(paa))
	for _, item := range paa {
		if item.Question != "" {
			questions = append(questions, item.Question)
		}
	}
	return Results{Organic: organic, RelatedQuestions: questions}, nil
}

func isAbsoluteHTTP(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")
}

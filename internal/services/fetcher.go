// Paged GET client for the Web API with 429 handling
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spotexport/internal/shared"
)

// RetryPolicy decides how long to wait before retrying a rate-limited request.
//
// attempt counts 429 responses seen for the current request, starting at 1. Returning false gives up.
type RetryPolicy interface {
	Next(attempt int, retryAfter time.Duration) (time.Duration, bool)
}

// UnboundedRetry retries forever, waiting the server's Retry-After plus one second.
type UnboundedRetry struct{}

func (UnboundedRetry) Next(_ int, retryAfter time.Duration) (time.Duration, bool) {
	return retryAfter + time.Second, true
}

// MaxRetries behaves like [UnboundedRetry] for up to N retries.
type MaxRetries struct {
	N int
}

func (m MaxRetries) Next(attempt int, retryAfter time.Duration) (time.Duration, bool) {
	if attempt > m.N {
		return 0, false
	}
	return retryAfter + time.Second, true
}

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Result is the outcome of [Fetcher.FetchAll]: either the accumulated items of a paged listing
// or the raw mapping of a single-shot response.
type Result struct {
	Items []json.RawMessage
	Raw   map[string]json.RawMessage
}

// Paged reports whether the response was a paged listing.
func (r *Result) Paged() bool {
	return r.Raw == nil
}

// Fetcher performs authenticated GET requests and follows pagination.
type Fetcher struct {
	client  *http.Client
	retry   RetryPolicy
	sleeper Sleeper
	limiter *rate.Limiter
	logger  *log.Logger
}

// FetcherOption configures a [Fetcher].
type FetcherOption func(*Fetcher)

// WithRetryPolicy replaces the default [UnboundedRetry].
func WithRetryPolicy(p RetryPolicy) FetcherOption {
	return func(f *Fetcher) { f.retry = p }
}

// WithSleeper replaces the timer used between retries.
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) { f.sleeper = s }
}

// WithRateLimit paces requests to rps per second. Zero or less means unlimited.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger used for rate-limit notices.
func WithLogger(l *log.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a [Fetcher]. A nil client uses [http.DefaultClient].
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:  client,
		retry:   UnboundedRetry{},
		sleeper: timerSleeper{},
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get issues an authenticated GET and returns the response body.
//
// A 429 is retried according to the [RetryPolicy]; any other status of 400 or above fails with
// [shared.RemoteAPIError].
func (f *Fetcher) Get(ctx context.Context, rawURL, token string, params url.Values) ([]byte, error) {
	target, err := withParams(rawURL, params)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		status, header, body, err := f.do(ctx, target, token)
		if err != nil {
			return nil, err
		}

		if status == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(header.Get("Retry-After"))
			wait, ok := f.retry.Next(attempt, retryAfter)
			if !ok {
				return nil, &shared.RemoteAPIError{Status: status, Body: string(body)}
			}
			f.logger.Warn("rate limited by remote API", "retry_after", retryAfter, "wait", wait, "attempt", attempt)
			if err := f.sleeper.Sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if status >= 400 {
			return nil, &shared.RemoteAPIError{Status: status, Body: string(body)}
		}
		return body, nil
	}
}

func (f *Fetcher) do(ctx context.Context, target, token string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// FetchAll collects every item of a paged listing.
//
// Items come from a top-level "items" array or a nested "tracks.items" array, and the top-level
// "next" link is followed until it is absent or null; params apply to the first request only.
// A first response of any other mapping shape is returned as [Result.Raw]. A body that is not a
// mapping, or a later page without items, ends paging with what was accumulated.
func (f *Fetcher) FetchAll(ctx context.Context, rawURL, token string, params url.Values) (*Result, error) {
	result := &Result{Items: []json.RawMessage{}}
	next := rawURL

	for first := true; next != ""; first = false {
		body, err := f.Get(ctx, next, token, params)
		if err != nil {
			return nil, err
		}
		params = nil

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
			break
		}

		items, ok, err := pageItems(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			if first {
				return &Result{Raw: raw}, nil
			}
			break
		}
		result.Items = append(result.Items, items...)

		next = ""
		if v, ok := raw["next"]; ok {
			var link *string
			if err := json.Unmarshal(v, &link); err == nil && link != nil {
				next = *link
			}
		}
	}

	return result, nil
}

// pageItems extracts the item array of a page and reports whether the page had one.
func pageItems(raw map[string]json.RawMessage) ([]json.RawMessage, bool, error) {
	if v, ok := raw["items"]; ok {
		return decodeItems(v)
	}

	v, ok := raw["tracks"]
	if !ok {
		return nil, false, nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(v, &nested); err != nil || nested == nil {
		return nil, false, nil
	}
	if v, ok := nested["items"]; ok {
		return decodeItems(v)
	}
	return nil, false, nil
}

func decodeItems(v json.RawMessage) ([]json.RawMessage, bool, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, false, fmt.Errorf("failed to decode page items: %w", err)
	}
	return items, true, nil
}

func withParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseRetryAfter reads an integer-seconds Retry-After header, defaulting to one second.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/spotexport/internal/shared"
	th "github.com/desertthunder/spotexport/internal/testing"
)

func TestFetcher(t *testing.T) {
	t.Run("Get sends bearer token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("unexpected Authorization header %q", got)
			}
			w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		body, err := NewFetcher(srv.Client()).Get(context.Background(), srv.URL, "tok", nil)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(body) != `{"ok":true}` {
			t.Errorf("unexpected body %s", body)
		}
	})

	t.Run("429 then 200 sleeps Retry-After plus one second", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"items":[1],"next":null}`))
		}))
		defer srv.Close()

		sleeper := &th.FakeSleeper{}
		f := NewFetcher(srv.Client(), WithSleeper(sleeper))

		result, err := f.FetchAll(context.Background(), srv.URL, "tok", nil)
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if len(result.Items) != 1 {
			t.Errorf("expected 1 item, got %d", len(result.Items))
		}
		if calls != 2 {
			t.Errorf("expected 2 requests, got %d", calls)
		}
		if len(sleeper.Sleeps) != 1 || sleeper.Sleeps[0] != 4*time.Second {
			t.Errorf("expected one 4s sleep, got %v", sleeper.Sleeps)
		}
	})

	t.Run("missing Retry-After defaults to one second", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.Header().Set("Retry-After", "soon")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		sleeper := &th.FakeSleeper{}
		if _, err := NewFetcher(srv.Client(), WithSleeper(sleeper)).Get(context.Background(), srv.URL, "tok", nil); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if len(sleeper.Sleeps) != 1 || sleeper.Sleeps[0] != 2*time.Second {
			t.Errorf("expected one 2s sleep, got %v", sleeper.Sleeps)
		}
	})

	t.Run("bounded policy gives up", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		sleeper := &th.FakeSleeper{}
		f := NewFetcher(srv.Client(), WithSleeper(sleeper), WithRetryPolicy(MaxRetries{N: 2}))

		_, err := f.Get(context.Background(), srv.URL, "tok", nil)
		var apiErr *shared.RemoteAPIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
			t.Fatalf("expected RemoteAPIError 429, got %v", err)
		}
		if len(sleeper.Sleeps) != 2 {
			t.Errorf("expected 2 sleeps, got %d", len(sleeper.Sleeps))
		}
	})

	t.Run("error status is not retried", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("missing"))
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client()).FetchAll(context.Background(), srv.URL, "tok", nil)

		var apiErr *shared.RemoteAPIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected RemoteAPIError, got %v", err)
		}
		if apiErr.Status != 404 || apiErr.Body != "missing" {
			t.Errorf("unexpected error %+v", apiErr)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected error to match ErrAPIRequest")
		}
		if calls != 1 {
			t.Errorf("expected a single request, got %d", calls)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("boom"))}
		_, err := NewFetcher(client).Get(context.Background(), "http://example.invalid", "tok", nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestFetchAll(t *testing.T) {
	t.Run("follows next across three pages", func(t *testing.T) {
		var srv *httptest.Server
		var queries []string
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			queries = append(queries, r.URL.RawQuery)
			pageNum := r.URL.Query().Get("page")
			switch pageNum {
			case "":
				fmt.Fprintf(w, `{"items":[1,2],"next":"%s/list?page=2"}`, srv.URL)
			case "2":
				fmt.Fprintf(w, `{"items":[3,4],"next":"%s/list?page=3"}`, srv.URL)
			default:
				w.Write([]byte(`{"items":[5,6],"next":null}`))
			}
		}))
		defer srv.Close()

		result, err := NewFetcher(srv.Client()).FetchAll(context.Background(), srv.URL+"/list", "tok", map[string][]string{"limit": {"2"}})
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}

		if !result.Paged() {
			t.Fatal("expected a paged result")
		}
		if len(result.Items) != 6 {
			t.Fatalf("expected 6 items, got %d", len(result.Items))
		}
		for i, item := range result.Items {
			var n int
			if err := json.Unmarshal(item, &n); err != nil || n != i+1 {
				t.Errorf("item %d = %s, want %d", i, item, i+1)
			}
		}

		if len(queries) != 3 {
			t.Fatalf("expected 3 requests, got %d", len(queries))
		}
		if queries[0] != "limit=2" {
			t.Errorf("first request query = %q", queries[0])
		}
		for _, q := range queries[1:] {
			if q != "page=2" && q != "page=3" {
				t.Errorf("original params leaked into %q", q)
			}
		}
	})

	t.Run("nested tracks items", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"tracks":{"items":["a","b"]},"next":null}`))
		}))
		defer srv.Close()

		result, err := NewFetcher(srv.Client()).FetchAll(context.Background(), srv.URL, "tok", nil)
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if !result.Paged() || len(result.Items) != 2 {
			t.Errorf("expected 2 paged items, got %+v", result)
		}
	})

	t.Run("raw mapping", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"me","display_name":"Me"}`))
		}))
		defer srv.Close()

		result, err := NewFetcher(srv.Client()).FetchAll(context.Background(), srv.URL, "tok", nil)
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if result.Paged() {
			t.Fatal("expected raw result")
		}
		if string(result.Raw["id"]) != `"me"` {
			t.Errorf("unexpected raw mapping %v", result.Raw)
		}
	})

	t.Run("non-mapping body stops paging", func(t *testing.T) {
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "" {
				fmt.Fprintf(w, `{"items":["x"],"next":"%s?page=2"}`, srv.URL)
				return
			}
			w.Write([]byte(`[1,2,3]`))
		}))
		defer srv.Close()

		result, err := NewFetcher(srv.Client()).FetchAll(context.Background(), srv.URL, "tok", nil)
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if !result.Paged() || len(result.Items) != 1 {
			t.Errorf("expected the single accumulated item, got %+v", result)
		}
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items":["a","a"]}`))
		}))
		defer srv.Close()

		result, err := NewFetcher(srv.Client()).FetchAll(context.Background(), srv.URL, "tok", nil)
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if len(result.Items) != 2 {
			t.Errorf("expected duplicates to be preserved, got %d items", len(result.Items))
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	tc := []struct {
		in   string
		want time.Duration
	}{
		{in: "", want: time.Second},
		{in: "5", want: 5 * time.Second},
		{in: " 2 ", want: 2 * time.Second},
		{in: "-1", want: time.Second},
		{in: "Wed, 21 Oct 2015 07:28:00 GMT", want: time.Second},
	}
	for _, tt := range tc {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

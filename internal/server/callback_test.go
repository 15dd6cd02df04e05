package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newRouter(h *CallbackHandler) *BasicRouter {
	r := NewBasicRouter()
	r.Handler(h)
	r.Handle(http.MethodGet, "/", RejectHandler())
	return r
}

func TestCallbackHandler(t *testing.T) {
	t.Run("captures code once", func(t *testing.T) {
		h := NewCallbackHandler("/callback", "s1")
		router := newRouter(h)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=s1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization complete") {
			t.Errorf("expected success page, got %s", rec.Body.String())
		}

		select {
		case res := <-h.Result():
			if res.Code != "abc" || res.Error != "" {
				t.Errorf("unexpected result %+v", res)
			}
		default:
			t.Fatal("expected a result to be published")
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=again&state=s1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("repeat callback should get 400, got %d", rec.Code)
		}

		if _, ok := <-h.Result(); ok {
			t.Error("channel should be closed after the single result")
		}
	})

	t.Run("captures error", func(t *testing.T) {
		h := NewCallbackHandler("/callback", "")
		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization failed") {
			t.Errorf("expected failure page, got %s", rec.Body.String())
		}
		if res := <-h.Result(); res.Error != "access_denied" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("empty path accepts the redirect anywhere", func(t *testing.T) {
		h := NewCallbackHandler("", "s1")
		router := NewBasicRouter()
		router.Handler(h)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?code=abc&state=s1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if res := <-h.Result(); res.Code != "abc" {
			t.Errorf("unexpected result %+v", res)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere?code=again&state=s1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("repeat callback should get 400, got %d", rec.Code)
		}
	})

	tc := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{name: "missing parameters", method: http.MethodGet, target: "/callback", want: http.StatusBadRequest},
		{name: "state mismatch", method: http.MethodGet, target: "/callback?code=abc&state=wrong", want: http.StatusBadRequest},
		{name: "other path", method: http.MethodGet, target: "/favicon.ico", want: http.StatusBadRequest},
		{name: "non-GET", method: http.MethodPost, target: "/callback?code=abc&state=s1", want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCallbackHandler("/callback", "s1")
			rec := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			select {
			case res := <-h.Result():
				t.Errorf("no result expected, got %+v", res)
			default:
			}
		})
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("unexpected order %s", got)
		}
	})

	t.Run("logging middleware records status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

		r := NewBasicRouter()
		r.Use(LoggingMiddleware(logger))
		r.Handle(http.MethodGet, "/", RejectHandler())
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "callback request") || !strings.Contains(out, "400") {
			t.Errorf("unexpected log output %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("query string leaked into log: %q", out)
		}
	})
}

func TestListener(t *testing.T) {
	h := NewCallbackHandler("/callback", "")
	l, err := Listen("127.0.0.1:0", newRouter(h))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	url := fmt.Sprintf("http://%s/callback?code=abc", l.Addr().String())
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	client := &http.Client{Timeout: time.Second}
	if _, err := client.Get(url); err == nil {
		t.Error("expected connection failure after Close")
	}
}

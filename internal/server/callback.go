package server

import (
	"net/http"
	"sync"
)

// CallbackResult is the outcome captured from the authorization redirect.
//
// Exactly one of Code or Error is set.
type CallbackResult struct {
	Code  string
	Error string
}

// CallbackHandler captures a single authorization redirect.
type CallbackHandler struct {
	path     string
	anyPath  bool
	state    string
	result   chan CallbackResult
	once     sync.Once
	mu       sync.Mutex
	captured bool
}

// NewCallbackHandler returns a handler for path. An empty path accepts the redirect on any
// path, and an empty state disables state checking.
func NewCallbackHandler(path, state string) *CallbackHandler {
	h := &CallbackHandler{
		path:   path,
		state:  state,
		result: make(chan CallbackResult, 1),
	}
	if path == "" {
		h.path = "/"
		h.anyPath = true
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP records the first relevant redirect and rejects everything else with 400.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.anyPath && r.URL.Path != h.path {
		http.Error(w, "Unexpected request", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	code, errCode := q.Get("code"), q.Get("error")
	if code == "" && errCode == "" {
		http.Error(w, "Missing code or error parameter", http.StatusBadRequest)
		return
	}
	if h.state != "" && q.Get("state") != h.state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.captured {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.captured = true
	h.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if errCode != "" {
		h.send(CallbackResult{Error: errCode})
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(failurePage))
		return
	}

	h.send(CallbackResult{Code: code})
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(successPage))
}

func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.result <- result
		close(h.result)
	})
}

// Result returns the channel that receives the captured outcome.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.result
}

// RejectHandler answers every request with 400.
func RejectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unexpected request", http.StatusBadRequest)
	})
}

const pageStyle = `
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; }
        .ok { color: #1DB954; }
        .fail { color: #D64545; }
        p { color: #666; margin: 0; }
    </style>`

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Complete</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1 class="ok">Authorization complete</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

const failurePage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Failed</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1 class="fail">Authorization failed</h1>
        <p>The request was not approved. You can close this window and check the terminal.</p>
    </div>
</body>
</html>
`

package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/upl/internal/services"
)

// CodeExchanger completes authorization with a code taken from the redirect.
type CodeExchanger interface {
	ExchangeCodeForToken(ctx context.Context, code string) error
}

// CallbackResult is the outcome of the single callback the handler accepts.
type CallbackResult struct {
	err error
}

func (r CallbackResult) Error() error {
	return r.err
}

// CallbackHandler serves the loopback redirect target for the authorization-code flow.
//
// Only the first request is processed. The full request URL goes through the same parsing
// as a deep-link redirect, so provider errors and malformed codes are rejected before any exchange.
type CallbackHandler struct {
	auth       CodeExchanger
	path       string
	resultChan chan CallbackResult
	once       sync.Once
	hit        bool
	mu         sync.Mutex
}

// NewCallbackHandler creates a handler for path (default /callback).
func NewCallbackHandler(auth CodeExchanger, path string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		auth:       auth,
		path:       path,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the provider redirect.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	code, err := services.ParseRedirect(r.URL.String())
	if err != nil {
		h.send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.auth.ExchangeCodeForToken(r.Context(), code); err != nil {
		h.send(CallbackResult{err: err})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(CallbackResult{})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Connected to Spotify</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

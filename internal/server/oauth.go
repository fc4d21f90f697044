package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

var errInvalidState = errors.New("invalid state parameter")

const authSuccessPage = `<!DOCTYPE html>
<html>
<head>
    <title>spotsync authorized</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; color: #fff; }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div>
        <h1>✓ Spotify authorized</h1>
        <p>The token was saved. You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

// OAuthResult is the outcome of one authorization callback.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler handles the authorization code callback on /callback.
//
// Only the first request is processed; later ones get 400.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	opts    []oauth2.AuthCodeOption
	results chan OAuthResult
	once    sync.Once
	mu      sync.Mutex
	handled bool
}

// NewOAuthHandler creates a handler that expects state on the callback. opts are passed to the code exchange.
func NewOAuthHandler(config *oauth2.Config, state string, opts ...oauth2.AuthCodeOption) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		opts:    opts,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates state, exchanges the code and sends the token on [OAuthHandler.Result].
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.handled {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.handled = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(OAuthResult{Err: errInvalidState})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(OAuthResult{Err: fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code, h.opts...)
	if err != nil {
		h.send(OAuthResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, authSuccessPage)
}

func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

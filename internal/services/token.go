package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/spotsync/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Scopes requested during authorization. Reading the library and editing the generated playlists.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// OAuthConfig builds the authorization code flow configuration for Spotify.
func OAuthConfig(creds shared.SpotifyConfig) (*oauth2.Config, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	redirect := creds.RedirectURI
	if redirect == "" {
		redirect = "http://127.0.0.1:8888/callback"
	}

	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}, nil
}

// TokenStore persists an OAuth token as JSON on disk.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

func (s *TokenStore) Path() string { return s.path }

// Load reads the stored token. A missing file wraps [shared.ErrNotAuthenticated].
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no token at %s, run `spotsync auth`", shared.ErrNotAuthenticated, s.path)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: corrupt token file %s: %v", shared.ErrNotAuthenticated, s.path, err)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions, replacing the file atomically.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// persistingSource saves every refreshed token back to the store.
type persistingSource struct {
	mu    sync.Mutex
	src   oauth2.TokenSource
	store *TokenStore
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Save(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// NewHTTPClient returns an HTTP client that authorizes requests with a stored token.
//
// When refreshToken is set (headless mode), it is used in place of the stored token.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, store *TokenStore, refreshToken string) (*http.Client, error) {
	var tok *oauth2.Token
	if refreshToken != "" {
		tok = &oauth2.Token{RefreshToken: refreshToken}
	} else {
		stored, err := store.Load()
		if err != nil {
			return nil, err
		}
		tok = stored
	}

	src := &persistingSource{
		src:   conf.TokenSource(ctx, tok),
		store: store,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

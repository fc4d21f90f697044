package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/spotsync/internal/server"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth obtains a Spotify token and stores it at credentials.spotify.token_path.
//
// With a configured refresh token (SPOTIPY_REFRESH_TOKEN) the token is refreshed directly, which suits
// headless hosts. Otherwise a local callback server is started and the browser is opened on the consent page.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	conf, err := services.OAuthConfig(creds)
	if err != nil {
		return err
	}

	var token *oauth2.Token
	if creds.RefreshToken != "" && !cmd.Bool("browser") {
		r.logger.Info("refreshing configured refresh token")
		token, err = conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		}
	} else {
		if token, err = r.doOAuth(ctx, conf, cmd.Duration("timeout")); err != nil {
			return err
		}
	}

	store := services.NewTokenStore(creds.TokenPath)
	if err := store.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	svc := services.NewSpotifyService(conf.Client(ctx, token), r.spotifyOptions())
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: token saved but verification failed: %v", shared.ErrAuthFailed, err)
	}

	r.writePlainln("✓ Authorized as %s (%s)", user.DisplayName, user.ID)
	r.writePlain("✓ Token saved to %s\n\n", store.Path())
	r.writePlain("You can now use: spotsync sync\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server on the redirect URI's host.
func (r *Runner) doOAuth(ctx context.Context, conf *oauth2.Config, timeout time.Duration) (*oauth2.Token, error) {
	redirect, err := url.Parse(conf.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, conf.RedirectURL)
	}

	state := shared.GenerateID()
	authURL := conf.AuthCodeURL(state)
	oauthHandler := server.NewOAuthHandler(conf, state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:              redirect.Host,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	if timeout <= 0 {
		timeout = authTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

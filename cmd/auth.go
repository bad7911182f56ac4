package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/spx/internal/server"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

const authTimeout = 2 * time.Minute

func (r *Runner) newAuth() *services.Auth {
	return services.NewAuth(r.config.ClientID, r.config.LoginRedirectURI, r.paths.TokenCache(), r.logger)
}

// spotifyClient builds the Web API client from the cached token.
func (r *Runner) spotifyClient(ctx context.Context) (services.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	auth := r.newAuth()
	tok, err := auth.LoadToken()
	if err != nil {
		return nil, err
	}

	client, err := services.NewSpotifyClient(services.ClientOpts{
		HTTPClient:        auth.Client(ctx, tok),
		RequestsPerSecond: r.config.RequestsPerSecond,
		Logger:            shared.WithLogger(r.logger, "service", "spotify"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify client: %w", err)
	}
	r.client = client
	return client, nil
}

// Authenticate performs the OAuth2 PKCE flow and caches the token.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user
// authorization and exchanges the code for a token.
func (r *Runner) Authenticate(ctx context.Context, cmd *cli.Command) error {
	auth := r.newAuth()
	tok, err := r.doOAuth(ctx, auth, "authorization")
	if err != nil {
		return err
	}

	client, err := services.NewSpotifyClient(services.ClientOpts{HTTPClient: auth.Client(ctx, tok), Logger: r.logger})
	if err == nil {
		if user, err := client.CurrentUser(ctx); err == nil {
			r.writePlainln("✓ Logged in as %s", user.DisplayName)
		}
	}

	r.writePlain("✓ Token saved to %s\n\n", r.paths.TokenCache())
	r.writePlain("You can now run: %s\n", shared.AppName)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, auth *services.Auth, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	redirect, err := url.Parse(r.config.LoginRedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: login_redirect_uri %q", shared.ErrInvalidConfig, r.config.LoginRedirectURI)
	}

	authURL := auth.AuthURL(state, verifier)
	oauthHandler, err := server.NewOAuthHandler(auth, r.config.LoginRedirectURI, state, verifier)
	if err != nil {
		return nil, err
	}
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	httpServer := &http.Server{Handler: router}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, redirect.Host)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

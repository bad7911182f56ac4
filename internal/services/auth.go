package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/spx/internal/shared"
)

// DefaultClientID is the public client used when app.toml does not set one.
const DefaultClientID = "65b708073fc0480ea92a077233ca87bd"

// Scopes requested during login.
var Scopes = []string{
	"app-remote-control",
	"playlist-modify-private",
	"playlist-modify-public",
	"playlist-read-collaborative",
	"playlist-read-private",
	"streaming",
	"user-follow-modify",
	"user-follow-read",
	"user-library-modify",
	"user-library-read",
	"user-modify-playback-state",
	"user-modify-private",
	"user-read-currently-playing",
	"user-read-playback-position",
	"user-read-playback-state",
	"user-read-private",
	"user-read-recently-played",
	"user-top-read",
}

// Auth runs the PKCE authorization code flow and manages the cached token.
type Auth struct {
	config    *oauth2.Config
	tokenPath string
	logger    *log.Logger
}

// NewAuth builds a PKCE OAuth2 configuration. No client secret is needed.
func NewAuth(clientID, redirectURI, tokenPath string, logger *log.Logger) *Auth {
	if clientID == "" {
		clientID = DefaultClientID
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Auth{
		config: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Scopes:      Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyAuthURL,
				TokenURL:  spotifyTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		tokenPath: tokenPath,
		logger:    logger,
	}
}

// Config exposes the OAuth2 configuration, e.g. for the callback handler.
func (a *Auth) Config() *oauth2.Config {
	return a.config
}

// SetEndpoint overrides the authorization server, used by tests.
func (a *Auth) SetEndpoint(e oauth2.Endpoint) {
	a.config.Endpoint = e
}

// AuthURL returns the login URL for state, challenged with verifier.
func (a *Auth) AuthURL(state, verifier string) string {
	return a.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for a token and caches it.
func (a *Auth) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if err := a.SaveToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// LoadToken reads the cached token. A missing cache is [shared.ErrNotAuthenticated].
func (a *Auth) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no cached token at %s, run `spx authenticate`", shared.ErrNotAuthenticated, a.tokenPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: corrupt token cache: %v", shared.ErrNotAuthenticated, err)
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("%w: cached token expired", shared.ErrNoRefreshToken)
	}
	return &tok, nil
}

// SaveToken writes tok to the token cache with owner-only permissions.
func (a *Auth) SaveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache folder: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(a.tokenPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Client returns an HTTP client that refreshes tok as needed and persists
// every refreshed token to the cache.
func (a *Auth) Client(ctx context.Context, tok *oauth2.Token) *http.Client {
	src := &refreshableTokenSource{
		base: a.config.TokenSource(ctx, tok),
		last: tok.AccessToken,
		onRefresh: func(t *oauth2.Token) {
			if err := a.SaveToken(t); err != nil {
				a.logger.Warn("failed to persist refreshed token", "error", err)
				return
			}
			a.logger.Debug("refreshed access token", "expiry", t.Expiry)
		},
	}
	return oauth2.NewClient(ctx, src)
}

// refreshableTokenSource reports each newly issued access token to onRefresh.
type refreshableTokenSource struct {
	base      oauth2.TokenSource
	onRefresh func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	s.mu.Lock()
	changed := tok.AccessToken != s.last
	s.last = tok.AccessToken
	s.mu.Unlock()

	if changed && s.onRefresh != nil {
		s.onRefresh(tok)
	}
	return tok, nil
}

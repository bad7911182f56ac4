package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spx/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// maximum number of ids accepted by library endpoints
	libraryBatchSize = 50
	// maximum number of items added or removed from a playlist per request
	playlistBatchSize = 100
)

// ClientOpts configures a [SpotifyClient].
type ClientOpts struct {
	// HTTPClient must attach credentials; typically built by [Auth.Client].
	HTTPClient *http.Client
	// BaseURL overrides the Web API root, used by tests.
	BaseURL string
	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64
	Logger            *log.Logger
}

// SpotifyClient implements [Client] against the Spotify Web API.
type SpotifyClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyClient creates a Web API client.
func NewSpotifyClient(opts ClientOpts) (*SpotifyClient, error) {
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("%w: http client is required", shared.ErrNotAuthenticated)
	}

	c := &SpotifyClient{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		logger:     opts.Logger,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	if c.baseURL == "" {
		c.baseURL = spotifyBaseURL
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(1, int(opts.RequestsPerSecond)))
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(io.Discard)
	}
	return c, nil
}

// doRequest performs an HTTP request against the Web API.
//
// endpoint is either a path relative to the base URL or an absolute URL taken
// from a paging "next" field, which must be under the base URL. body, when
// non-nil, is sent as JSON. result is left untouched when the response has no
// content.
func (c *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := endpoint
	switch {
	case !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://"):
		apiURL = c.baseURL + endpoint
	case !strings.HasPrefix(endpoint, c.baseURL+"/"):
		// the http client carries the access token
		return fmt.Errorf("%w: refusing to follow %s outside %s", shared.ErrAPIRequest, endpoint, c.baseURL)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("spotify request", "method", method, "url", apiURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var apiErr apiError
	msg := ""
	if json.Unmarshal(body, &apiErr) == nil {
		msg = apiErr.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, status, msg)
	}
}

// IsNotFound reports whether err came from a 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

// fetchAll follows "next" links until every page of an endpoint is read.
func fetchAll[T any](ctx context.Context, c *SpotifyClient, endpoint string) ([]T, error) {
	var all []T
	for next := endpoint; next != ""; {
		var p page[T]
		if err := c.doRequest(ctx, http.MethodGet, next, nil, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Items...)

		next = ""
		if p.Next != nil {
			next = *p.Next
		}
	}
	return all, nil
}

// chunk splits items into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

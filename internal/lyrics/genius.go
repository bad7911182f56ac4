// package lyrics finds song lyrics on Genius.
//
// Songs are looked up through the public search API and lyrics are scraped from
// the song page, where they live in elements carrying a data-lyrics-container
// attribute.
package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

const (
	DefaultSearchURL = "https://genius.com/api/search"

	containerAttr = "data-lyrics-container"
	userAgent     = "spx (https://github.com/desertthunder/spx)"
)

// SearchResult is a song hit from the Genius search API.
type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	ArtistNames string `json:"artist_names"`
}

type searchBody struct {
	Meta struct {
		Status  int     `json:"status"`
		Message *string `json:"message"`
	} `json:"meta"`
	Response *struct {
		Hits []struct {
			Type   string       `json:"type"`
			Result SearchResult `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// Client talks to Genius.
type Client struct {
	http      *http.Client
	searchURL string
	logger    *log.Logger
}

// NewClient creates a client. A nil httpClient uses a client with a 15s timeout.
func NewClient(httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{http: httpClient, searchURL: DefaultSearchURL, logger: logger}
}

// SetSearchURL overrides the search endpoint.
func (c *Client) SetSearchURL(u string) {
	c.searchURL = u
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return resp, nil
}

// SearchSongs searches Genius for songs matching query after [ImproveQuery].
func (c *Client) SearchSongs(ctx context.Context, query string) ([]SearchResult, error) {
	query = ImproveQuery(query)
	c.logger.Debug("searching songs", "query", query)

	resp, err := c.get(ctx, c.searchURL+"?"+url.Values{"q": {query}}.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body searchBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response (status %d): %v", shared.ErrAPIRequest, resp.StatusCode, err)
	}

	if body.Meta.Status != http.StatusOK {
		if body.Meta.Message != nil {
			return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, *body.Meta.Message)
		}
		return nil, fmt.Errorf("%w: request failed with status code: %d", shared.ErrAPIRequest, body.Meta.Status)
	}

	var results []SearchResult
	if body.Response != nil {
		for _, hit := range body.Response.Hits {
			if hit.Type == "song" {
				results = append(results, hit.Result)
			}
		}
	}
	return results, nil
}

// RetrieveLyric downloads a Genius song page and extracts its lyric.
func (c *Client) RetrieveLyric(ctx context.Context, pageURL string) (string, error) {
	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: lyric page returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	lyric, err := Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse lyric page: %w", err)
	}
	return strings.TrimSpace(lyric), nil
}

// GetLyric returns the lyric of the first song matching query. Found is false
// when the search has no song hits.
func (c *Client) GetLyric(ctx context.Context, query string) (*models.Lyrics, error) {
	results, err := c.SearchSongs(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &models.Lyrics{Query: query}, nil
	}

	top := results[0]
	lyric, err := c.RetrieveLyric(ctx, top.URL)
	if err != nil {
		return nil, err
	}
	return &models.Lyrics{
		Query:   query,
		Found:   true,
		Track:   top.Title,
		Artists: top.ArtistNames,
		Lyric:   ProcessLyric(lyric),
	}, nil
}

// Parse extracts the text of every lyric container in a Genius page, turning
// <br> elements into newlines.
func Parse(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node, inLyric bool)
	walk = func(n *html.Node, inLyric bool) {
		if !inLyric && n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == containerAttr {
					inLyric = true
					break
				}
			}
		}

		if inLyric {
			switch {
			case n.Type == html.TextNode:
				sb.WriteString(n.Data)
			case n.Type == html.ElementNode && n.Data == "br":
				sb.WriteByte('\n')
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, inLyric)
		}
	}
	walk(doc, false)

	return sb.String(), nil
}

// Package tenor fetches decorative GIFs for the leaderboard. It is purely
// cosmetic: without an API key every search returns an empty catalog, and no
// failure here may gate score submission or reads.
package tenor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/vmtlabs/tinsel/pkg/metrics"
)

// Search limit bounds and defaults.
const (
	defaultBaseURL     = "https://tenor.googleapis.com/v2"
	defaultClientKey   = "vmt-secret-santa"
	defaultLimit       = 9
	maxLimit           = 24
	defaultHTTPTimeout = 5 * time.Second
)

// GIF is one catalog entry.
type GIF struct {
	URL     string `json:"url"`
	TinyURL string `json:"tiny_url,omitempty"`
	Alt     string `json:"alt"`
}

// Client is a Tenor v2 search client with a process-scoped result cache.
// The cache is initialization-on-first-use state shared by all requests;
// a single in-flight upstream fetch is allowed at a time so a burst of
// identical queries fans in to one call.
type Client struct {
	key       string
	clientKey string
	baseURL   string
	httpc     *http.Client

	mu      sync.RWMutex
	cache   map[string][]GIF
	fetchMu sync.Mutex
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the Tenor endpoint, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// WithClientKey overrides the client identifier sent to Tenor.
func WithClientKey(k string) Option {
	return func(c *Client) {
		if k != "" {
			c.clientKey = k
		}
	}
}

// New creates a Client. An empty key disables the catalog entirely.
func New(key string, opts ...Option) *Client {
	c := &Client{
		key:       key,
		clientKey: defaultClientKey,
		baseURL:   defaultBaseURL,
		httpc:     &http.Client{Timeout: defaultHTTPTimeout},
		cache:     make(map[string][]GIF),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.key != ""
}

// Search returns GIFs for a query, serving repeats from the process cache.
// With no API key it returns an empty catalog and performs no network access.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]GIF, error) {
	if !c.Enabled() {
		return []GIF{}, nil
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	cacheKey := query + "::" + strconv.Itoa(limit)

	c.mu.RLock()
	cached, ok := c.cache[cacheKey]
	c.mu.RUnlock()
	if ok {
		metrics.RecordMemeCatalogHit()
		return cached, nil
	}
	metrics.RecordMemeCatalogMiss()

	// Serialize upstream fetches; a queued caller re-checks the cache first.
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	c.mu.RLock()
	cached, ok = c.cache[cacheKey]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	gifs, err := c.fetch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache[cacheKey] = gifs
	c.mu.Unlock()
	return gifs, nil
}

func (c *Client) fetch(ctx context.Context, query string, limit int) ([]GIF, error) {
	q := url.Values{
		"key":           {c.key},
		"client_key":    {c.clientKey},
		"q":             {query},
		"limit":         {strconv.Itoa(limit)},
		"contentfilter": {"high"},
		"media_filter":  {"tinygif,gif"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("tenor search: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tenor search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tenor search failed (%d)", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			ContentDescription string `json:"content_description"`
			MediaFormats       struct {
				TinyGIF struct {
					URL string `json:"url"`
				} `json:"tinygif"`
				GIF struct {
					URL string `json:"url"`
				} `json:"gif"`
			} `json:"media_formats"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("tenor search: %w", err)
	}

	gifs := make([]GIF, 0, len(body.Results))
	for _, r := range body.Results {
		full := r.MediaFormats.GIF.URL
		tiny := r.MediaFormats.TinyGIF.URL
		if full == "" {
			full = tiny
		}
		if full == "" {
			continue
		}
		alt := r.ContentDescription
		if alt == "" {
			alt = "Meme GIF"
		}
		gifs = append(gifs, GIF{URL: full, TinyURL: tiny, Alt: alt})
	}
	return gifs, nil
}

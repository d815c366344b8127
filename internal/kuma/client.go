package kuma

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dockhand/dockhand/internal/limits"
)

// Client fetches monitor status from an Uptime Kuma /metrics endpoint. An
// empty base URL disables the client; callers can always construct one.
//
// Lookups are cached for a short TTL so dashboard polling does not hammer
// Kuma. Failures degrade: the previous table (possibly empty) is returned and
// the error is only logged.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cacheTTL   time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	cached    map[string]Monitor
	fetchedAt time.Time
}

func NewClient(baseURL, apiKey string, cacheTTL time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Enabled reports whether a Kuma base URL is configured.
func (c *Client) Enabled() bool { return c != nil && c.baseURL != "" }

// Monitors returns the monitor table, served from cache within the TTL.
func (c *Client) Monitors(ctx context.Context) map[string]Monitor {
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		return c.cached
	}
	monitors, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("fetch uptime kuma metrics", "url", c.baseURL, "err", err)
		return c.cached
	}
	c.cached = monitors
	c.fetchedAt = time.Now()
	return monitors
}

func (c *Client) fetch(ctx context.Context) (map[string]Monitor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics", nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		// Kuma authenticates /metrics with basic auth, API key as password.
		req.SetBasicAuth("", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrics returned HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limits.JSON))
	if err != nil {
		return nil, err
	}
	return ParseMetrics(string(body)), nil
}

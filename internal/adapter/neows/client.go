// Package neows is the HTTP adapter for the NASA NeoWs API: the feed
// endpoint queried per date window and the per-object orbit lookup.
package neows

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/neo-approach-etl/internal/config"
	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

// maxRetries is the number of additional attempts after the first request
// fails with a transient error.
const maxRetries = 5

// Client fetches raw NeoWs documents. Responses are returned as raw bytes;
// decoding and schema validation belong to the cache layer so that cached
// and freshly fetched payloads go through the same checks.
type Client struct {
	apiKey     string
	baseURL    string
	retryBase  time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a NeoWs API client from the service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		retryBase: cfg.RetryBaseDelay,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// FetchFeed requests the close-approach feed for one inclusive date window.
func (c *Client) FetchFeed(ctx context.Context, w domain.Window) ([]byte, error) {
	params := url.Values{
		"start_date": {w.Start.Format(domain.DateFormat)},
		"end_date":   {w.End.Format(domain.DateFormat)},
		"api_key":    {c.apiKey},
	}
	return c.getWithRetry(ctx, c.baseURL+"/feed?"+params.Encode(), "feed "+w.String())
}

// FetchOrbit requests the per-object lookup document for one NEO id.
func (c *Client) FetchOrbit(ctx context.Context, neoID string) ([]byte, error) {
	params := url.Values{
		"api_key": {c.apiKey},
	}
	u := fmt.Sprintf("%s/neo/%s?%s", c.baseURL, url.PathEscape(neoID), params.Encode())
	return c.getWithRetry(ctx, u, "neo "+neoID)
}

// getWithRetry performs one GET, retrying transient failures up to
// maxRetries times with exponential backoff (base delay doubling each
// attempt). Fatal errors propagate immediately.
func (c *Client) getWithRetry(ctx context.Context, fullURL, label string) ([]byte, error) {
	delay := c.retryBase

	for attempt := 0; ; attempt++ {
		body, err := c.get(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		if attempt == maxRetries {
			return nil, fmt.Errorf("%s: retries exhausted: %w", label, err)
		}

		c.logger.Warn("transient fetch error, backing off",
			"request", label,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		if !sleepWithContext(ctx, delay) {
			return nil, ctx.Err()
		}
		delay *= 2
	}
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", body),
		}
	default:
		return nil, &FatalError{Status: resp.StatusCode, Body: string(body)}
	}
}

// sleepWithContext waits for d or until the context is cancelled. Blocking
// backoff is fine here: the pipeline is a single-threaded batch job.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Package opendata fetches dataset records from an Opendatasoft Explore v2.1
// `/records` endpoint, such as the EDF open-data portal.
package opendata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/edf-plant-map/internal/domain"
	"github.com/couchcryptid/edf-plant-map/internal/observability"
	"github.com/goccy/go-json"
)

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 512

// Client implements pipeline.Fetcher with a count-then-fetch round trip.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a records client. A zero timeout keeps the transport
// default (no deadline).
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch learns the dataset's total_count, then requests that many records in
// a single page. A zero count is a valid empty result.
func (c *Client) Fetch(ctx context.Context, ds domain.Dataset) (domain.Response, error) {
	start := time.Now()
	family := string(ds.Family)

	resp, err := c.fetch(ctx, ds)
	c.metrics.FetchDuration.WithLabelValues(family).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(family, "error").Inc()
		c.logger.Error("dataset fetch failed", "family", family, "url", ds.URL, "error", err)
		return domain.Response{}, err
	}

	c.metrics.FetchRequests.WithLabelValues(family, "success").Inc()
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, ds domain.Dataset) (domain.Response, error) {
	var count domain.Response
	if err := c.get(ctx, ds.URL, nil, &count); err != nil {
		return domain.Response{}, fmt.Errorf("%s count request: %w", ds.Family, err)
	}
	c.logger.Debug("dataset count", "family", ds.Family, "total_count", count.TotalCount)

	params := url.Values{"limit": {strconv.Itoa(count.TotalCount)}}
	var page domain.Response
	if err := c.get(ctx, ds.URL, params, &page); err != nil {
		return domain.Response{}, fmt.Errorf("%s records request: %w", ds.Family, err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values, out *domain.Response) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q[k] = v
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("opendata API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

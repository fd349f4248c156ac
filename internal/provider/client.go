// Package provider talks to the external market-data service. The service is
// treated as unreliable and schema-loose: every method can fail, and missing
// fields decode to zero values that downstream code must back-fill.
package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"market-pulse/internal/api"
	"market-pulse/internal/trace"
)

// InstrumentRow is one instrument in the full market spot table.
type InstrumentRow struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
	Amount    float64 `json:"amount"`
}

// IndexRow is one named index quote.
type IndexRow struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
}

// NewsRow is one raw news row as delivered by the feed, before
// deduplication and enrichment. Any field may be empty.
type NewsRow struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PublishTime string `json:"publishTime"`
}

// NewsSource is the contract the enrichment task consumes; both the API
// client and the page scraper satisfy it.
type NewsSource interface {
	News(ctx context.Context, category string) ([]NewsRow, error)
}

// Params configures the provider client
type Params struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client queries the market-data service over HTTP.
type Client struct {
	api   *api.Client
	token string
}

// NewClient creates a provider client
func NewClient(p Params) *Client {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		api: api.NewClient(
			api.WithBaseURL(p.BaseURL),
			api.WithTimeout(timeout),
		),
		token: p.Token,
	}
}

func (c *Client) path(endpoint string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.token != "" {
		query.Set("token", c.token)
	}
	if len(query) == 0 {
		return endpoint
	}
	return endpoint + "?" + query.Encode()
}

// Spot returns the point-in-time table of all instruments.
func (c *Client) Spot(ctx context.Context) ([]InstrumentRow, error) {
	ctx, span := trace.StartSpan(ctx, "provider-spot")
	defer span.End()

	var resp struct {
		Data []InstrumentRow `json:"data"`
	}
	if err := c.api.GetJSON(ctx, c.path("/spot", nil), &resp); err != nil {
		return nil, fmt.Errorf("spot fetch failed: %w", err)
	}
	return resp.Data, nil
}

// Indices returns the current index quote table.
func (c *Client) Indices(ctx context.Context) ([]IndexRow, error) {
	ctx, span := trace.StartSpan(ctx, "provider-indices")
	defer span.End()

	var resp struct {
		Data []IndexRow `json:"data"`
	}
	if err := c.api.GetJSON(ctx, c.path("/indices", nil), &resp); err != nil {
		return nil, fmt.Errorf("index fetch failed: %w", err)
	}
	return resp.Data, nil
}

// News returns the latest raw news rows for a category, most recent first.
func (c *Client) News(ctx context.Context, category string) ([]NewsRow, error) {
	ctx, span := trace.StartSpan(ctx, "provider-news")
	defer span.End()

	q := url.Values{}
	q.Set("category", category)

	var resp struct {
		Data []NewsRow `json:"data"`
	}
	if err := c.api.GetJSON(ctx, c.path("/news", q), &resp); err != nil {
		return nil, fmt.Errorf("news fetch failed: %w", err)
	}
	return resp.Data, nil
}

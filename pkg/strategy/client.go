// Package strategy is the stage client boundary for strategy generation.
// The default deployment runs the engine in-process (internal/strategy); the
// HTTP client here delegates to a remote strategy service when one is
// configured.
package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/resilience"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
)

const defaultBaseURL = "http://localhost:8003"

// Client produces a campaign strategy from products and creatives.
type Client interface {
	GenerateStrategy(ctx context.Context, req GenerateStrategyRequest) (*GenerateStrategyResponse, error)
}

// GenerateStrategyRequest is the request body for POST /generate_strategy.
type GenerateStrategyRequest struct {
	Spec      model.CampaignSpec   `json:"campaign_spec"`
	Groups    []model.ProductGroup `json:"product_groups"`
	Creatives []model.Creative     `json:"creatives"`
}

// GenerateStrategyResponse carries the abstract strategy, its per-platform
// renderings, and the underlying budget plan.
type GenerateStrategyResponse struct {
	Strategy model.Strategy `json:"strategy"`
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithBaseURL overrides the default service URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithTimeout overrides the default call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http = stagehttp.NewHTTPClient(d)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a remote strategy service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    stagehttp.NewHTTPClient(stagehttp.DefaultTimeout),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GenerateStrategy(ctx context.Context, req GenerateStrategyRequest) (*GenerateStrategyResponse, error) {
	return stagehttp.Post[GenerateStrategyResponse](ctx, c.http, c.retry, "strategy", c.baseURL, "/generate_strategy", req)
}

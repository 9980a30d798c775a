// Package product is the stage client for the product selection service.
package product

import (
	"context"
	"net/http"
	"time"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/resilience"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
)

const defaultBaseURL = "http://localhost:8001"

// Client selects products for a campaign.
type Client interface {
	SelectProducts(ctx context.Context, req SelectProductsRequest) (*SelectProductsResponse, error)
}

// SelectProductsRequest is the request body for POST /select_products.
type SelectProductsRequest struct {
	Spec  model.CampaignSpec `json:"campaign_spec"`
	Limit int                `json:"max_products"`
}

// SelectProductsResponse carries the selected products and their priority
// grouping.
type SelectProductsResponse struct {
	Products []model.Product      `json:"products"`
	Groups   []model.ProductGroup `json:"groups"`
}

// Option configures the client.
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

// NewClient creates a product service client.
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

func (c *httpClient) SelectProducts(ctx context.Context, req SelectProductsRequest) (*SelectProductsResponse, error) {
	return stagehttp.Post[SelectProductsResponse](ctx, c.http, c.retry, "product", c.baseURL, "/select_products", req)
}

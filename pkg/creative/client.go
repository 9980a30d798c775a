// Package creative is the stage client for the creative generation service.
package creative

import (
	"context"
	"net/http"
	"time"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/resilience"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
)

const defaultBaseURL = "http://localhost:8002"

// Client generates ad creatives for selected products.
type Client interface {
	GenerateCreatives(ctx context.Context, req GenerateCreativesRequest) (*GenerateCreativesResponse, error)
}

// ABConfig controls variant generation.
type ABConfig struct {
	VariantsPerProduct    int  `json:"variants_per_product"`
	MaxCreatives          int  `json:"max_creatives"`
	EnableImageGeneration bool `json:"enable_image_generation"`
	EnableVideoGeneration bool `json:"enable_video_generation"`
}

// GenerateCreativesRequest is the request body for POST /generate_creatives.
type GenerateCreativesRequest struct {
	Spec     model.CampaignSpec `json:"campaign_spec"`
	Products []model.Product    `json:"products"`
	AB       ABConfig           `json:"ab_config"`
}

// GenerateCreativesResponse carries the generated creatives.
type GenerateCreativesResponse struct {
	Creatives []model.Creative `json:"creatives"`
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

// NewClient creates a creative service client.
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

func (c *httpClient) GenerateCreatives(ctx context.Context, req GenerateCreativesRequest) (*GenerateCreativesResponse, error) {
	return stagehttp.Post[GenerateCreativesResponse](ctx, c.http, c.retry, "creative", c.baseURL, "/generate_creatives", req)
}

// Package meta is the stage client for the ad-platform publishing service.
// Calls are rate limited client-side; ad platform APIs throttle aggressively.
package meta

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/resilience"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
)

const defaultBaseURL = "http://localhost:8004"

// Client publishes campaigns to the ad platform.
type Client interface {
	CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*CreateCampaignResponse, error)
}

// AdSetSpec is one ad-set to create, carrying its own budget.
type AdSetSpec struct {
	Name        string          `json:"name"`
	DailyBudget float64         `json:"daily_budget"`
	Targeting   model.Targeting `json:"targeting"`
	CreativeIDs []string        `json:"creative_ids"`
}

// CreateCampaignRequest is the request body for POST /create_campaign.
type CreateCampaignRequest struct {
	CampaignName string            `json:"campaign_name"`
	Objective    model.Objective   `json:"objective"`
	DailyBudget  float64           `json:"daily_budget"`
	BidStrategy  model.BidStrategy `json:"bid_strategy"`
	AdSets       []AdSetSpec       `json:"ad_sets"`
	Creatives    []model.Creative  `json:"creatives"`
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date,omitempty"`
}

// AdResult is the platform's record of one created ad.
type AdResult struct {
	AdID       string `json:"ad_id"`
	CreativeID string `json:"creative_id"`
	Status     string `json:"status"`
}

// CreateCampaignResponse acknowledges the deployed campaign hierarchy.
type CreateCampaignResponse struct {
	CampaignID string     `json:"campaign_id"`
	AdSetIDs   []string   `json:"ad_set_ids"`
	Ads        []AdResult `json:"ad_ids"`
	Status     string     `json:"status"`
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

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
	limiter *rate.Limiter
}

// NewClient creates a publishing client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    stagehttp.NewHTTPClient(stagehttp.DefaultTimeout),
		retry:   resilience.DefaultRetryConfig(),
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*CreateCampaignResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "meta: rate limiter wait")
	}
	return stagehttp.Post[CreateCampaignResponse](ctx, c.http, c.retry, "meta", c.baseURL, "/create_campaign", req)
}

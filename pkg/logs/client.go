// Package logs is the stage client for the pipeline event log service.
// Logging is best-effort: callers never fail a pipeline on a log error.
package logs

import (
	"context"
	"net/http"
	"time"

	"github.com/adpilot/campaign-cli/internal/resilience"
	"github.com/adpilot/campaign-cli/internal/stagehttp"
)

const defaultBaseURL = "http://localhost:8005"

// Client appends pipeline events to the log service.
type Client interface {
	AppendEvent(ctx context.Context, req AppendEventRequest) (*AppendEventResponse, error)
}

// AppendEventRequest is the request body for POST /append_event.
type AppendEventRequest struct {
	Timestamp time.Time         `json:"timestamp"`
	Stage     string            `json:"stage"`
	Service   string            `json:"service"`
	Success   bool              `json:"success"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AppendEventResponse acknowledges a stored event.
type AppendEventResponse struct {
	EventID string `json:"event_id"`
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

// NewClient creates a log service client. Log appends are not retried.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    stagehttp.NewHTTPClient(10 * time.Second),
		retry:   resilience.RetryConfig{MaxAttempts: 1},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) AppendEvent(ctx context.Context, req AppendEventRequest) (*AppendEventResponse, error) {
	return stagehttp.Post[AppendEventResponse](ctx, c.http, c.retry, "logs", c.baseURL, "/append_event", req)
}

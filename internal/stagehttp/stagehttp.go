// Package stagehttp holds the request plumbing shared by the stage clients:
// JSON POST with a bounded timeout, transient-error classification, and
// retry. Each collaborator keeps its own typed client in pkg/.
package stagehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/adpilot/campaign-cli/internal/resilience"
)

// DefaultTimeout bounds every stage call unless the client overrides it.
const DefaultTimeout = 30 * time.Second

// APIError is an explicit failure returned by a collaborator service, as
// opposed to a transport failure reaching it.
type APIError struct {
	Service    string `json:"service"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Service, e.Message, e.Code)
}

// NewHTTPClient returns the http.Client used by stage clients.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// errorBody is the failure payload shape shared by all collaborator services.
type errorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Detail    string `json:"detail"`
}

// Post sends req as JSON to baseURL+path and decodes the response into T,
// retrying transient failures per cfg. Non-transient error responses come
// back as *APIError.
func Post[T any](ctx context.Context, hc *http.Client, cfg resilience.RetryConfig, service, baseURL, path string, req any) (*T, error) {
	return resilience.DoVal(ctx, cfg, service, path, func(ctx context.Context) (*T, error) {
		return postOnce[T](ctx, hc, service, baseURL, path, req)
	})
}

func postOnce[T any](ctx context.Context, hc *http.Client, service, baseURL, path string, req any) (*T, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: marshal request", service)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", service)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: send request", service)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: read response", service)
	}

	if resp.StatusCode != http.StatusOK {
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("%s: status %d: %s", service, resp.StatusCode, string(respBody)),
				resp.StatusCode,
			)
		}
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Detail
		}
		if msg == "" {
			msg = string(respBody)
		}
		return nil, &APIError{
			Service:    service,
			Code:       eb.ErrorCode,
			Message:    msg,
			HTTPStatus: resp.StatusCode,
		}
	}

	var result T
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrapf(err, "%s: unmarshal response", service)
	}
	return &result, nil
}

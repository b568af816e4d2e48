// Package proxy forwards validated requests to the downstream document
// processing service and relays its responses.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docsense/gateway/internal/domain"
)

const defaultTimeout = 120 * time.Second

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics attaches forwarding metrics.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client is the HTTP client for the downstream processing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
}

// NewClient creates a client for the processing service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Forward posts payload to the downstream route and returns the response
// body. A single attempt, no retries: any network failure or non-2xx status
// surfaces as a downstream error carrying the service's error payload when
// one is present and a generic message otherwise. The compare route is
// reshaped so only the comparison field reaches the client.
func (c *Client) Forward(ctx context.Context, route domain.Route, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route.Path(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The transport error may embed the downstream address; never
		// relay it to clients.
		c.record(route, "error", start)
		return nil, domain.ErrDownstream("Document processing service is unavailable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(route, "error", start)
		return nil, domain.ErrDownstream("Failed to read processing service response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.record(route, "error", start)
		if msg := parseErrorMessage(respBody); msg != "" {
			return nil, domain.ErrDownstream(msg)
		}
		return nil, domain.ErrDownstream(fmt.Sprintf("Document processing failed (status %d)", resp.StatusCode))
	}

	c.record(route, "ok", start)

	if route == domain.RouteCompare {
		return reshapeComparison(respBody)
	}
	return respBody, nil
}

func (c *Client) record(route domain.Route, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordForward(string(route), outcome, time.Since(start))
}

// parseErrorMessage extracts a human-readable message from a downstream
// error payload. The processing service reports either {"error": "..."} or
// the FastAPI-style {"detail": "..."}.
func parseErrorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}

// reshapeComparison reduces the raw downstream payload to the comparison
// field alone. Any other fields the service includes never reach the client.
func reshapeComparison(body []byte) ([]byte, error) {
	var payload struct {
		Comparison json.RawMessage `json:"comparison"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Comparison == nil {
		return nil, domain.ErrDownstream("Error comparing documents")
	}
	out, err := json.Marshal(map[string]json.RawMessage{"comparison": payload.Comparison})
	if err != nil {
		return nil, domain.ErrDownstream("Error comparing documents")
	}
	return out, nil
}

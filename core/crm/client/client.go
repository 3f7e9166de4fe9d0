// Package client calls the CRM HTTP service and exposes its operations as
// live session tools.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "http://localhost:8001"
	DefaultTimeout = 5 * time.Second
)

// APIError is a non-2xx answer from the CRM service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm responded with %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout bounds every request, including reading the response.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

type CreateLeadRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	City   string `json:"city"`
	Source string `json:"source,omitempty"`
}

type CreateLeadResponse struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

type ScheduleVisitRequest struct {
	LeadID    string `json:"lead_id"`
	VisitTime string `json:"visit_time"`
	Notes     string `json:"notes,omitempty"`
}

type ScheduleVisitResponse struct {
	VisitID string `json:"visit_id"`
	Status  string `json:"status"`
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type UpdateLeadStatusResponse struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

func (c *Client) CreateLead(ctx context.Context, req CreateLeadRequest) (CreateLeadResponse, error) {
	var resp CreateLeadResponse
	err := c.do(ctx, http.MethodPost, "/crm/leads", req, &resp)
	return resp, err
}

func (c *Client) ScheduleVisit(ctx context.Context, req ScheduleVisitRequest) (ScheduleVisitResponse, error) {
	var resp ScheduleVisitResponse
	err := c.do(ctx, http.MethodPost, "/crm/visits", req, &resp)
	return resp, err
}

func (c *Client) UpdateLeadStatus(ctx context.Context, leadID string, req UpdateLeadStatusRequest) (UpdateLeadStatusResponse, error) {
	var resp UpdateLeadStatusResponse
	err := c.do(ctx, http.MethodPost, "/crm/leads/"+url.PathEscape(leadID)+"/status", req, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

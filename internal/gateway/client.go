// Package gateway is a thin HTTP client for the upstream API gateway.
// The gateway owns all business data and authentication; this client only
// shuttles bodies back and forth so handlers can relay them verbatim.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no gateway base URL has been configured.
// Handlers surface it as a 500 configuration error without any network call.
var ErrNotConfigured = errors.New("backend URL not configured")

// Response captures an upstream reply for verbatim relay.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK reports whether the upstream replied with a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Token extracts the "token" field from a JSON response body.
// Returns empty string when the body is not JSON or carries no token.
func (r *Response) Token() string {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return ""
	}
	return payload.Token
}

// Client talks to the upstream API gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a gateway base URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// IdentityRedirectURL is the gateway's external-identity entry point that the
// BFF redirects browsers to. No session is established at this step.
func (c *Client) IdentityRedirectURL() string {
	return c.baseURL + "/api/auth/google"
}

// Login forwards a credential payload to the gateway's login endpoint.
// Only the body travels upstream; no headers or cookies from the original
// request are forwarded.
func (c *Client) Login(ctx context.Context, body []byte) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Me looks up the current user for the given bearer token.
func (c *Client) Me(ctx context.Context, token string) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

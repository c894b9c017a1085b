package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const metricsPath = "/metrics"

// Client performs single-attempt GETs against a Push Gateway metrics endpoint.
type Client struct {
	url    *url.URL
	client *http.Client
}

// NewClient parses the gateway base URL and builds an HTTP client with the
// given request timeout. Trailing slashes on the base URL are ignored.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("push gateway url required")
	}
	u, err := url.Parse(baseURL + metricsPath)
	if err != nil {
		return nil, err
	}
	return &Client{url: u, client: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) MetricsURL() string { return c.url.String() }

// Fetch does one GET, no retries. Failures are returned as *TransportError,
// *StatusError or *BodyReadError.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url.String(), nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BodyReadError{Err: err}
	}
	return body, nil
}

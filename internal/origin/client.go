// Package origin fetches deck resources (manifest candidates, slide
// pages, engine assets) from the upstream host the deck is published on.
package origin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MaxBodyBytes caps how much of a fetched resource is read. Slide pages
// are small HTML documents; anything larger is a misconfigured origin.
const MaxBodyBytes = 16 << 20

// StatusError reports a non-success HTTP status from the origin.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// Client is a thin HTTP fetcher for the deck origin.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient builds a client with the given per-request timeout. A zero
// timeout disables the bound, reproducing the original unbounded fetch
// behavior.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "deckd/1.0",
	}
}

// Fetch retrieves a resource and returns its body and content type.
// Non-2xx responses produce a *StatusError.
func (c *Client) Fetch(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, "", &StatusError{URL: u.String(), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", u, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// Probe checks that a resource exists without retrieving its body.
func (c *Client) Probe(ctx context.Context, u *url.URL) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", u, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: u.String(), Code: resp.StatusCode}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Package httpfetch is the single rate-limited HTTP client this server
// uses for every outbound call that isn't a Nostr relay or wallet RPC:
// NIP-05 identifier resolution, NIP-11 relay info documents, and Primal
// profile search. Outbound requests are paced with a token bucket so a
// burst of tool calls can't hammer third-party hosts.
package httpfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond and DefaultBurst are a default token-bucket
// rate and burst for a Client. New does not apply them itself; callers
// pass the rate and burst they want.
const (
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 10
)

// Client is a rate-limited HTTP client. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New builds a Client whose outbound requests are paced to at most
// requestsPerSecond, with burst allowed above that steady rate.
func New(requestsPerSecond float64, burst int) *Client {
	return &Client{
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// GetJSON issues a rate-limited GET against url, decoding a successful
// JSON response into out. headers are set on the request before
// sending; a nil map sets none.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string,
	timeout time.Duration, out any) error {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("httpfetch: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, body, err := c.do(ctx, req, timeout)
	if err != nil {
		return err
	}

	return decodeJSON(resp, body, out)
}

// PostJSON issues a rate-limited POST of body (JSON-encoded) against
// url, decoding a successful JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any,
	timeout time.Duration) error {

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpfetch: encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, respBody, err := c.do(ctx, req, timeout)
	if err != nil {
		return err
	}

	return decodeJSON(resp, respBody, out)
}

// TimedGet issues a rate-limited GET and reports both the response (with
// its body already read into memory and closed) and the round-trip
// latency, used by check_relay to report latency_ms alongside the
// NIP-11 document.
func (c *Client) TimedGet(ctx context.Context, url string, headers map[string]string,
	timeout time.Duration) (*http.Response, []byte, time.Duration, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("httpfetch: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, body, err := c.do(ctx, req, timeout)
	latency := time.Since(start)
	if err != nil {
		return nil, nil, 0, err
	}

	return resp, body, latency, nil
}

// do sends the request under a timeout-bounded context and reads the full
// response body before returning, so the deadline covers the body read
// too and callers never touch a body whose context has been cancelled.
func (c *Client) do(ctx context.Context, req *http.Request,
	timeout time.Duration) (*http.Response, []byte, error) {

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("httpfetch: rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("httpfetch: read body: %w", err)
	}

	return resp, body, nil
}

func decodeJSON(resp *http.Response, body []byte, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("httpfetch: HTTP error: %s", resp.Status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpfetch: decode response: %w", err)
	}
	return nil
}

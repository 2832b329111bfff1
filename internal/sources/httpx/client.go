// Package httpx provides the HTTP client shared by the outbound adapters:
// request pacing, bearer-token auth and status-code error mapping.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

// Client defaults.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultRate      = 2.0
	DefaultUserAgent = "vetta/1.0 (+https://github.com/custodia-labs/vetta)"
	maxErrorBody     = 512
	maxBody          = 16 << 20
)

// Config configures a Client.
type Config struct {
	// Timeout bounds each request. Zero uses DefaultTimeout.
	Timeout time.Duration
	// RequestsPerSecond paces requests. Zero uses DefaultRate; negative disables pacing.
	RequestsPerSecond float64
	// Burst is the token bucket size. Defaults to 1.
	Burst int
	// Token, when set, is sent as a bearer token on every request.
	Token string
	// Header is sent on every request that does not already set the same key.
	Header http.Header
	// Jar keeps cookies between requests, for session-based sites.
	Jar http.CookieJar
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// Transport overrides http.DefaultTransport. Mainly for tests.
	Transport http.RoundTripper
}

// Client is a paced HTTP client.
type Client struct {
	http      *http.Client
	limiter   *RateLimiter
	header    http.Header
	userAgent string
}

// New creates a client from cfg.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRate
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       cfg.Jar,
		},
		limiter:   NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		header:    cfg.Header.Clone(),
		userAgent: cfg.UserAgent,
	}
}

// HTTPClient returns the underlying client, for SDKs that take one.
// Requests made through it are not paced.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Do sends req after waiting for the rate limiter. Responses with a status
// of 400 or above are closed and returned as a *StatusError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(err, "wait for rate limiter")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range c.header {
		if req.Header.Get(k) == "" {
			req.Header[k] = v
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
	}
	return nil, NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)))
}

// Get fetches rawURL and returns the body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return c.read(req)
}

// PostForm submits form values to rawURL and returns the body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.read(req)
}

// PostJSON sends body as JSON to rawURL and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	data, err := c.read(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func (c *Client) read(req *http.Request) ([]byte, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	return data, nil
}

// StatusError is an HTTP response with a failing status code.
type StatusError struct {
	Code int
	Body string
}

// NewStatusError creates a StatusError marked with the matching domain error:
// 401 and 403 as domain.ErrAuthInvalid, 404 as domain.ErrNotFound and 429
// as domain.ErrRateLimited.
func NewStatusError(code int, body string) error {
	err := error(&StatusError{Code: code, Body: body})
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		err = errors.Mark(err, domain.ErrAuthInvalid)
	case http.StatusNotFound:
		err = errors.Mark(err, domain.ErrNotFound)
	case http.StatusTooManyRequests:
		err = errors.Mark(err, domain.ErrRateLimited)
	}
	return err
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		body := e.Body
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		msg += ": " + body
	}
	return msg
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

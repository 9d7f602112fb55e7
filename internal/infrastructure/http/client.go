package httpinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"fetcher.dev/cli/internal/core/domain"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 2
	userAgent      = "fetcher-cli/1.0"
)

// Client is a JSON API client for one service. Transport failures, 429 and 5xx
// responses are retried with backoff; a 401 triggers at most one reauthentication.
type Client struct {
	baseURL string
	auth    Authenticator
	headers http.Header
	http    *retryablehttp.Client
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.HTTPClient.Timeout = d
		}
	}
}

// WithRetries sets how many times transient failures are retried
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.http.RetryMax = n
		}
	}
}

// WithRetryWait bounds the backoff between retries
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = min
		c.http.RetryWaitMax = max
	}
}

// WithHeader adds a header sent on every request
func WithHeader(name, value string) Option {
	return func(c *Client) { c.headers.Set(name, value) }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for baseURL. auth may be nil for anonymous access.
func New(baseURL string, auth Authenticator, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = DefaultRetries
	rc.HTTPClient.Timeout = DefaultTimeout
	// Hand exhausted responses back so their status and body can be reported
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		headers: http.Header{},
		http:    rc,
		logger:  zap.NewNop(),
	}
	c.headers.Set("Accept", "application/json")
	c.headers.Set("User-Agent", userAgent)

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("http")
	rc.Logger = leveledLogger{s: c.logger.Sugar()}
	return c
}

// StandardClient returns a net/http client sharing the retrying transport
func (c *Client) StandardClient() *http.Client {
	return c.http.StandardClient()
}

// Get issues a GET and decodes the JSON response into out when non-nil
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, query, nil, out)
}

// Post sends body as JSON
func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, endpoint, nil, body, out)
}

// Put sends body as JSON
func (c *Client) Put(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, endpoint, nil, body, out)
}

// Patch sends body as JSON
func (c *Client) Patch(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, endpoint, nil, body, out)
}

// Do performs a request. Non-2xx responses become *domain.HTTPError.
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	target, err := c.resolve(endpoint, query)
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, target, payload)
	if err != nil {
		return err
	}

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.auth != nil {
		retry, authErr := c.auth.Reauthenticate(ctx)
		if authErr != nil {
			return fmt.Errorf("reauthentication after 401 failed: %w", authErr)
		}
		if retry {
			c.logger.Debug("retrying after reauthentication", zap.String("url", redact(target)))
			if resp, err = c.send(ctx, method, target, payload); err != nil {
				return err
			}
			if data, err = readBody(resp); err != nil {
				return err
			}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.HTTPError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	var body interface{}
	if payload != nil {
		body = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for name, values := range c.headers {
		req.Header[name] = append([]string(nil), values...)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.auth != nil {
		if err := c.auth.Apply(ctx, req.Request); err != nil {
			return nil, err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", redactedError{err: err})
	}
	return resp, nil
}

func (c *Client) resolve(endpoint string, query url.Values) (string, error) {
	raw := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		raw = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// Package fetch is the outbound HTTP client shared by provider integrations. It
// retries transient failures with exponential backoff.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1000 * time.Millisecond
	DefaultTimeout    = 30 * time.Second
)

// Config controls retries. Zero values fall back to the defaults.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Options are per-request settings.
type Options struct {
	Headers map[string]string
	Query   url.Values
	Body    []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Response   *Response
}

func (e *StatusError) Error() string {
	body := ""
	if e.Response != nil {
		body = string(e.Response.Body)
		if len(body) > 256 {
			body = body[:256]
		}
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryHook is called before each retry with the failure reason.
type RetryHook func(reason string, attempt int, delay time.Duration)

// Client issues HTTP requests with timeout and retry. It holds no per-call state and
// is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
	sleep      Sleeper
	onRetry    RetryHook
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleeper replaces the backoff wait, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithRetryHook registers a callback invoked before every retry.
func WithRetryHook(h RetryHook) Option {
	return func(c *Client) { c.onRetry = h }
}

// NewClient creates a client.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		cfg:        cfg.withDefaults(),
		logger:     logger,
		sleep:      waitWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Do sends the request, retrying transport failures, timeouts, 429 and 5xx up to
// MaxRetries times. The delay before retry n (0-indexed) is BaseDelay * 2^n.
func (c *Client) Do(ctx context.Context, method, rawURL string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}

	target := rawURL
	if len(opts.Query) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
		}
		q := u.Query()
		for k, vs := range opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	build := func(ctx context.Context) (*http.Request, error) {
		var body io.Reader
		if opts.Body != nil {
			body = bytes.NewReader(opts.Body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, err
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}

	return c.execute(ctx, method, target, build)
}

// GetJSON performs a GET and decodes the JSON body into out. Decode failures are
// returned as is and never retried.
func (c *Client) GetJSON(ctx context.Context, rawURL string, opts *Options, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return nil
}

type requestBuilder func(ctx context.Context) (*http.Request, error)

func (c *Client) execute(ctx context.Context, method, target string, build requestBuilder) (*Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(ctx, method, target, build)
		if err == nil {
			return resp, nil
		}

		reason, transient := classify(err)
		if !transient || attempt >= c.cfg.MaxRetries || ctx.Err() != nil {
			return resp, err
		}

		delay := c.backoff(attempt)
		c.logger.Warn("Retrying provider request",
			zap.String("method", method),
			zap.String("url", target),
			zap.String("reason", reason),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		if c.onRetry != nil {
			c.onRetry(reason, attempt, delay)
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// attempt performs one request bounded by the per-call timeout and reads the whole
// body before the timeout context is released.
func (c *Client) attempt(ctx context.Context, method, target string, build requestBuilder) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := build(attemptCtx)
	if err != nil {
		return nil, &permanentError{err: err}
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, &StatusError{Method: method, URL: target, StatusCode: resp.StatusCode, Response: resp}
	}
	return resp, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	return c.cfg.BaseDelay * time.Duration(1<<attempt)
}

// permanentError wraps failures that happen before anything is sent.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// classify returns a metric-friendly reason and whether err is transient.
func classify(err error) (string, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limited", true
		case statusErr.StatusCode >= http.StatusInternalServerError:
			return "server_error", true
		default:
			return "client_error", false
		}
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return "invalid_request", false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout", true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout", true
	}
	return "network", true
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

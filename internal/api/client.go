// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the platform API root during local development.
	DefaultBaseURL = "http://localhost:5000/api"

	// DefaultTimeout bounds one HTTP exchange. Chat answers and video
	// generation are slow, so this is generous.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of extra attempts for idempotent reads.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize caps response bodies.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "ragdesk/0.1"
)

// TokenStore is the client's view of the session. auth.Provider satisfies it.
type TokenStore interface {
	Token() string
	RefreshToken() string
	SetAccessToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Client talks to the assistant platform. A Client is safe for concurrent
// use once configured.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	tokens     TokenStore
	limiter    *rate.Limiter
	logger     *zap.Logger

	refreshMu sync.Mutex
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. "http://localhost:5000/api").
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxRetries: DefaultMaxRetries,
		logger:     zap.NewNop(),
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxRetries sets the number of retries for idempotent reads.
func (c *Client) WithMaxRetries(n int) *Client {
	if n >= 0 {
		c.maxRetries = n
	}
	return c
}

// WithTokens attaches the session used for authenticated calls.
func (c *Client) WithTokens(ts TokenStore) *Client {
	c.tokens = ts
	return c
}

// WithRateLimit paces outgoing requests to rps per second. rps <= 0
// disables pacing.
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	if l != nil {
		c.logger = l.Named("api")
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests, proxies).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// =============================================================================
// TRANSPORT
// =============================================================================

// call describes one logical API request.
type call struct {
	method string
	path   string

	// body builds a fresh request body and its content type. It is invoked
	// once per attempt so retries and post-refresh replays can resend.
	body func() (io.Reader, string, error)

	// anonymous calls never carry a token and never refresh.
	anonymous bool

	// once disables retries even for reads.
	once bool

	// accept lists non-2xx statuses whose body the caller decodes itself.
	accept []int
}

func jsonBody(v interface{}) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (c *Client) idempotent(cl call) bool {
	return !cl.once && (cl.method == http.MethodGet || cl.method == http.MethodHead)
}

// send performs cl and returns the status and body of a successful (or
// accepted) response. Failures come back as *Error or transport errors.
func (c *Client) send(ctx context.Context, cl call) (int, []byte, error) {
	attempts := 1
	if c.idempotent(cl) {
		attempts += c.maxRetries
	}

	refreshed := false
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		sentWith := ""
		if !cl.anonymous {
			sentWith = c.token()
		}
		status, body, err := c.doOnce(ctx, cl, sentWith)

		if err == nil && status == http.StatusUnauthorized && sentWith != "" && !refreshed {
			refreshed = true
			if rerr := c.refreshAfter(ctx, sentWith); rerr != nil {
				return 0, nil, rerr
			}
			// The replay does not consume a retry.
			attempt--
			continue
		}

		if err == nil {
			if status >= 200 && status < 300 || accepted(status, cl.accept) {
				return status, body, nil
			}
			err = handleErrorResponse(status, body)
		}

		if !isRetryable(err) {
			return 0, nil, err
		}
		lastErr = err
	}
	if attempts == 1 {
		return 0, nil, lastErr
	}
	return 0, nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func accepted(status int, list []int) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

// doOnce performs a single HTTP exchange.
func (c *Client) doOnce(ctx context.Context, cl call, token string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	var (
		body        io.Reader
		contentType string
	)
	if cl.body != nil {
		var err error
		body, contentType, err = cl.body()
		if err != nil {
			return 0, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	c.logger.Debug("request",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.Bool("auth", token != ""),
		zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// isRetryable reports whether a failed attempt should be repeated.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return false
	}
	// Transport failure (connection refused, reset).
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// calculateBackoff returns the delay before retry number attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// =============================================================================
// TOKEN REFRESH
// =============================================================================

// refreshAfter swaps a rejected token for a fresh one. Concurrent callers
// that were rejected with the same token share one refresh.
func (c *Client) refreshAfter(ctx context.Context, rejected string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.token(); current != "" && current != rejected {
		return nil
	}

	refresh := c.tokens.RefreshToken()
	if refresh == "" {
		c.clearTokens(ctx)
		return &Error{Status: http.StatusUnauthorized, Message: "session expired", kind: ErrUnauthorized}
	}

	access, err := c.refresh(ctx, refresh)
	if err != nil {
		c.logger.Info("token refresh failed", zap.Error(err))
		c.clearTokens(ctx)
		return &Error{Status: http.StatusUnauthorized, Message: "session expired", kind: ErrUnauthorized}
	}
	if err := c.tokens.SetAccessToken(ctx, access); err != nil {
		return fmt.Errorf("failed to store refreshed token: %w", err)
	}
	return nil
}

func (c *Client) clearTokens(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear tokens", zap.Error(err))
	}
}

// =============================================================================
// JSON HELPERS
// =============================================================================

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	_, body, err := c.send(ctx, call{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out interface{}) error {
	cl := call{method: method, path: path}
	if in != nil {
		cl.body = jsonBody(in)
	}
	_, body, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(body, out)
}

func decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return malformed("invalid JSON", err)
	}
	return nil
}

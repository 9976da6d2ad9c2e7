package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/metrics"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // max consecutive failures before circuit break
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           30 * time.Second,
		MaxRetries:        5,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      10 * time.Second,
		RateLimit:         10.0,
		CircuitBreakerMax: 5,
	}
}

// HTTPClientConfigFrom builds client settings from the data source config
func HTTPClientConfigFrom(cfg config.DataSourceConfig) HTTPClientConfig {
	hc := DefaultHTTPClientConfig()
	hc.Timeout = cfg.RequestTimeout()
	hc.MaxRetries = cfg.MaxRetries
	hc.RateLimit = cfg.RateLimit
	return hc
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	logger            *logrus.Entry

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Logger) *RateLimitedHTTPClient {
	if logger == nil {
		logger = logrus.New()
	}
	entry := logger.WithField("component", "http_client")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.Logger = nil

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		logger:            entry,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.isOpen {
		lastErr := c.lastError
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, lastErr)
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.client.Do(retryReq)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.consecutiveErrors++
		c.lastError = err
		if c.consecutiveErrors >= c.circuitBreakerMax && !c.isOpen {
			c.isOpen = true
			metrics.RecordCircuitBreakerTrip()
			c.logger.WithError(err).WithField("consecutive_errors", c.consecutiveErrors).Warn("Circuit breaker opened")
		}
		return nil, err
	}

	if resp.StatusCode < 500 {
		c.consecutiveErrors = 0
	}
	return resp, nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// IsOpen reports whether the circuit breaker is open
func (c *RateLimitedHTTPClient) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

// ResetCircuit closes the circuit breaker
func (c *RateLimitedHTTPClient) ResetCircuit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = false
	c.consecutiveErrors = 0
	c.lastError = nil
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			// Retry on network errors
			return true, err
		}

		// Retry on rate limit (429) and server errors
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}

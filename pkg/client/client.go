// Package client is the Go SDK for the LitFed HTTP API.  It wraps the
// federated query, persistence, and review endpoints behind typed
// sub-clients with retry and backoff.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const Version = "0.1.0"

// apiPrefix is prepended to every endpoint path.
const apiPrefix = "/api/v1"

// Logger is the minimal logging interface the client writes to.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client is the LitFed SDK client.  Use NewClient to construct one; the
// zero value is not usable.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	token        string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	reviews     *ReviewsClient
	reviewsOnce sync.Once
	queries     *QueriesClient
	queriesOnce sync.Once
}

// APIError is an error response from the API.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("litfed: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsForbidden() bool    { return e.StatusCode == http.StatusForbidden }
func (e *APIError) IsServerError() bool  { return e.StatusCode >= 500 && e.StatusCode < 600 }

// NewClient creates a LitFed SDK client.  token is the bearer token; it may
// be empty when the target deployment runs with authentication disabled.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("litfed: baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("litfed: invalid baseURL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("litfed: baseURL scheme must be http or https")
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        token,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("litfed-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Reviews returns the reviews sub-client.
func (c *Client) Reviews() *ReviewsClient {
	c.reviewsOnce.Do(func() {
		c.reviews = &ReviewsClient{client: c}
	})
	return c.reviews
}

// Queries returns the federated-query sub-client.
func (c *Client) Queries() *QueriesClient {
	c.queriesOnce.Do(func() {
		c.queries = &QueriesClient{client: c}
	})
	return c.queries
}

// do performs one API call with retry on network and 5xx failures.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + apiPrefix + path

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("litfed: failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.logger.Debugf("retry %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("litfed: failed to create request: %w", err)
		}

		requestID := uuid.New().String()
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Errorf("request failed: %v", err)
			lastErr = err
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("litfed: failed to read response body: %w", err)
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
			var errResp struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
					Detail  string `json:"detail"`
				} `json:"error"`
			}
			if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Code != "" {
				apiErr.Code = errResp.Error.Code
				apiErr.Message = errResp.Error.Message
				apiErr.Detail = errResp.Error.Detail
			} else {
				apiErr.Message = string(respBody)
			}

			lastErr = apiErr
			if apiErr.IsServerError() {
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("litfed: failed to decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodDelete, path, body, result)
}

// backoff is exponential with up to 25% jitter, capped at retryWaitMax.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if d > c.retryWaitMax {
		d = c.retryWaitMax
	}
	return d + time.Duration(rand.Int63n(int64(d/4)+1))
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// Envelope error strings of the uniform taxonomy.  These exact strings are
// part of the wire contract; clients match on their prefixes.
const (
	errPrefixHTTP    = "HTTP error: "
	errMsgDNS        = "Connection error: Failed to establish a connection: Name or service not known."
	errMsgTimeout    = "Connection error: Failed to establish a connection: Timeout."
	errPrefixRequest = "Request error: "
)

// Executor performs vendor HTTP calls under the uniform retry and error
// policy: transport timeouts are retried up to maxRetries additional
// attempts, every other failure terminates immediately.  Non-2xx responses
// are never retried.
type Executor struct {
	client *http.Client
	logger logging.Logger
}

// NewExecutor builds an Executor with the given per-attempt timeout.
func NewExecutor(timeout time.Duration, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Executor{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// NewExecutorWithClient builds an Executor around an existing http.Client.
// Used by tests to inject an httptest transport.
func NewExecutorWithClient(client *http.Client, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Executor{client: client, logger: logger}
}

// Execute performs the request and returns the raw response body.
//
// On failure the returned *AppError's Message carries the exact taxonomy
// string for the envelope's error field; the code classifies the failure
// for logging and metrics.
func (x *Executor) Execute(ctx context.Context, req *Request, maxRetries int) ([]byte, *apperrors.AppError) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var body []byte
	err := retry.Do(
		func() error {
			var attemptErr error
			body, attemptErr = x.attempt(ctx, req)
			return attemptErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxRetries)+1),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		// Only transport timeouts are worth another attempt.
		retry.RetryIf(func(err error) bool {
			return apperrors.IsCode(err, apperrors.ErrCodeProviderTimeout)
		}),
	)
	if err == nil {
		return body, nil
	}

	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		x.logger.Warn("provider request failed",
			logging.String("url", req.URL),
			logging.String("code", ae.Code.String()),
			logging.String("error", ae.Message),
		)
		return nil, ae
	}
	// Context cancellation or a retry-library error without classification.
	return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderRequest, errPrefixRequest+err.Error())
}

// attempt performs a single HTTP round trip and classifies any failure.
func (x *Executor) attempt(ctx context.Context, req *Request) ([]byte, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderRequest, errPrefixRequest+err.Error())
		}
		bodyReader = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderRequest, errPrefixRequest+err.Error())
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderRequest, errPrefixRequest+err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.New(apperrors.ErrCodeProviderHTTP, errPrefixHTTP+resp.Status)
	}
	return payload, nil
}

// classifyTransportError maps Go transport errors onto the taxonomy.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderTimeout, errMsgTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderTimeout, errMsgTimeout)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderConnection, errMsgDNS)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderConnection, errMsgDNS)
	}
	if strings.Contains(err.Error(), "connection refused") {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderConnection, errMsgDNS)
	}

	return apperrors.Wrap(err, apperrors.ErrCodeProviderRequest, errPrefixRequest+err.Error())
}

// envelopeErrorMessage extracts the taxonomy string destined for the
// envelope's error field.
func envelopeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return errPrefixRequest + err.Error()
}

package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	xhttp "PriceCast/pkg/http"
)

// HTTPServiceBase is the shared foundation for hosted-model clients.
// It centralizes client construction, auth headers and JSON POST handling.
type HTTPServiceBase struct {
	baseURL    string
	headers    map[string]string
	client     *xhttp.Client
	maxBackoff time.Duration
}

type BaseOption func(*HTTPServiceBase)

// WithBearerToken sends "Authorization: Bearer <token>" on every request.
func WithBearerToken(token string) BaseOption {
	return func(b *HTTPServiceBase) {
		if token != "" {
			b.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithMaxBackoff caps the total time spent retrying one call.
func WithMaxBackoff(d time.Duration) BaseOption {
	return func(b *HTTPServiceBase) { b.maxBackoff = d }
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, opts ...BaseOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	b := &HTTPServiceBase{
		baseURL:    baseURL,
		headers:    map[string]string{"Content-Type": "application/json", "Accept": "application/json"},
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("analytics http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: b.headers,
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry retries transient failures (network errors, 429, 5xx) with exponential backoff,
// up to `attempts` calls in total. Other statuses fail immediately.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.PostJSON(ctx, path, payload, dest)
	}
	operation := func() error {
		err := b.PostJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		var se *xhttp.HTTPStatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = 200 * time.Millisecond
	strategy.MaxElapsedTime = b.maxBackoff
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(strategy, uint64(attempts-1)), ctx))
}

package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"regscrape/internal/config"
	"regscrape/internal/logger"
	"regscrape/pkg/utils"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// Fetcher turns a request into a page.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Page, error)
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithCloudflareBypass routes requests through the Cloudflare bypass transport.
func WithCloudflareBypass() FetcherOption {
	return func(f *HTTPFetcher) {
		f.client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(f.client.GetClient().Transport)
	}
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) FetcherOption {
	return func(f *HTTPFetcher) {
		f.sleep = sleep
	}
}

// HTTPFetcher fetches pages with config-driven retry logic.
type HTTPFetcher struct {
	client      *resty.Client
	retryPolicy config.RetryPolicy
	log         *logger.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewHTTPFetcher creates a fetcher for the given retry policy.
func NewHTTPFetcher(retryPolicy config.RetryPolicy, log *logger.Logger, opts ...FetcherOption) *HTTPFetcher {
	client := resty.New().SetTimeout(retryPolicy.GetTimeout())
	client.Header = utils.BuildHeaders(nil)

	f := &HTTPFetcher{
		client:      client,
		retryPolicy: retryPolicy,
		log:         log,
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(f)
	}

	instrument(client, log)

	return f
}

// Fetch issues the request, retrying transport errors and retryable statuses.
// On a final non-2xx response the page is returned alongside the error.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	var (
		lastErr  error
		lastPage *Page
	)

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if delay := f.retryPolicy.GetRetryDelay(attempt); delay > 0 {
			if err := f.sleep(ctx, delay); err != nil {
				return lastPage, err
			}
		}

		startTime := time.Now()

		r := f.client.R().
			SetContext(ctx).
			SetHeaders(req.Headers)

		for name, value := range req.Cookies {
			r.SetCookie(&http.Cookie{Name: name, Value: value})
		}

		if req.Body != "" {
			r.SetBody(req.Body)
		}

		resp, err := r.Execute(method, req.URL)
		duration := time.Since(startTime)

		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, f.retryPolicy.MaxAttempts, err)

			if ctx.Err() != nil {
				return lastPage, lastErr
			}

			f.log.Debug("fetch attempt failed", "url", req.URL, "attempt", attempt, "error", err)

			continue
		}

		page := &Page{
			URL:        finalURL(resp, req.URL),
			StatusCode: resp.StatusCode(),
			Header:     resp.Header(),
			Body:       resp.Body(),
			Duration:   duration,
		}

		if resp.IsSuccess() {
			return page, nil
		}

		lastPage = page
		lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode())

		// Only retry on specific status codes
		if !isRetryableStatus(resp.StatusCode()) {
			return page, lastErr
		}

		f.log.Debug("retryable status", "url", req.URL, "attempt", attempt, "status", resp.StatusCode())
	}

	return lastPage, lastErr
}

func finalURL(resp *resty.Response, fallback string) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}

	return fallback
}

// isRetryableStatus returns true for HTTP status codes that should be retried.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

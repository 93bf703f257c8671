// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited, retrying HTTP client shared
// by the external provider clients.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 5

// Client wraps http.Client with a token-bucket rate limiter and retry on
// HTTP 429 and 5xx. Each external provider owns one Client configured with
// that provider's request-per-second ceiling. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
}

// NewClient builds a Client. ratePerSec <= 0 disables rate limiting;
// maxRetries <= 0 selects the default (5).
func NewClient(timeout time.Duration, ratePerSec float64, burst int, userAgent string, maxRetries int) *Client {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		userAgent:  userAgent,
		maxRetries: maxRetries,
	}
}

// Do executes the request, waiting on the rate limiter before each attempt
// and retrying 429 and 5xx responses with exponential backoff. The delay
// starts at RetryBaseDelay and doubles each attempt; a Retry-After header
// on a 429 overrides the computed delay. After exhausting retries the last
// response is returned so the caller can inspect it. Requests with a body
// must set GetBody or the retry reuses a consumed reader.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := c.httpClient.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= c.maxRetries {
			return resp, nil
		}

		delay := backoff(attempt)
		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := retryAfter(resp); ra > 0 {
				delay = ra
			}
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}

// retryAfter parses a Retry-After header as seconds or an HTTP date.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRetries   = 3
	DefaultUserAgent = "threadgrab/1.0"

	maxErrorBody = 512
)

// Options configures a Client. Zero values fall back to defaults, except
// Retries where zero means a single attempt.
type Options struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string

	// RequestsPerMinute paces outgoing requests on our side. Zero means
	// unpaced.
	RequestsPerMinute float64
	Burst             int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client fetches raw JSON payloads.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	retries   int
	userAgent string
	log       *slog.Logger
}

// NewClient creates a new client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		http:      hc,
		limiter:   buildLimiter(opts.RequestsPerMinute, opts.Burst),
		retries:   retries,
		userAgent: ua,
		log:       logger,
	}
}

func buildLimiter(perMinute float64, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perMinute/60.0), burst)
}

// Fetch GETs url and returns the body. A failed attempt is retried
// immediately, up to the configured number of retries.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	attempts := 0
	for attempts <= c.retries {
		attempts++
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		c.log.Debug("fetch attempt failed", "url", url, "attempt", attempts, "err", err)
	}
	return nil, &RequestError{Operation: "fetch", URL: url, Attempts: attempts, Err: lastErr}
}

// get performs a single request.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for request slot: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return body, nil
}

// Package spotify adapts the Spotify Web API to the playlist catalog.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"github.com/justestif/moodify/internal/playlist"
)

// Defaults for the request envelope of one Client.
const (
	DefaultRequestsPerSecond = 10
	DefaultReadAttempts      = 3
	defaultRetryDelay        = 200 * time.Millisecond
)

var _ playlist.Catalog = (*Client)(nil)

// Client wraps the Spotify API client for a single authenticated user.
// All calls made through one Client share a rate limiter.
type Client struct {
	api          *spotify.Client
	readAttempts uint
	retryDelay   time.Duration
}

type config struct {
	baseURL      string
	rps          float64
	readAttempts uint
	retryDelay   time.Duration
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL points the client at a different API root. Used in tests.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithRequestsPerSecond sets the client-side request rate.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *config) {
		if rps > 0 {
			c.rps = rps
		}
	}
}

// WithReadAttempts sets how many times a read is tried when the API answers 5xx.
func WithReadAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.readAttempts = uint(n)
		}
	}
}

// WithRetryDelay sets the base delay between read attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// New creates a client on top of an authenticated HTTP client, such as the
// one returned by auth.Authenticator.Client.
func New(httpClient *http.Client, opts ...Option) *Client {
	cfg := config{
		rps:          DefaultRequestsPerSecond,
		readAttempts: DefaultReadAttempts,
		retryDelay:   defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	limited := *httpClient
	limited.Transport = &limitedTransport{
		base:    httpClient.Transport,
		limiter: rate.NewLimiter(rate.Limit(cfg.rps), 1),
	}

	apiOpts := []spotify.ClientOption{spotify.WithRetry(true)}
	if cfg.baseURL != "" {
		apiOpts = append(apiOpts, spotify.WithBaseURL(cfg.baseURL))
	}

	return &Client{
		api:          spotify.New(&limited, apiOpts...),
		readAttempts: cfg.readAttempts,
		retryDelay:   cfg.retryDelay,
	}
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	p, err := c.Profile(ctx)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// read runs a read-only call, retrying server errors.
func (c *Client) read(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(c.readAttempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se spotify.Error
			if errors.As(err, &se) {
				return se.Status/100 == 5
			}
			return false
		}),
	)
}

// limitedTransport waits on a shared token bucket before each request.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

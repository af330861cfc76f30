package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"price-tracker/internal/domain"
	infraconfig "price-tracker/internal/infrastructure/config"
)

var ErrTooManyRedirects = errors.New("stopped after too many redirects")

// DefaultHeaders mimic a desktop browser navigation. Accept-Encoding is left
// to the transport so gzip is negotiated and decoded transparently.
var DefaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Cache-Control":             "max-age=0",
	"DNT":                       "1",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-User":            "?1",
	"Sec-Fetch-Dest":            "document",
	"Upgrade-Insecure-Requests": "1",
}

type Client struct {
	HTTP *http.Client
	// Headers are applied to every request on top of DefaultHeaders.
	Headers map[string]string
	// UserAgents rotate per request when Headers has no User-Agent.
	UserAgents []string
	// Attempts is the total number of tries, the first one included.
	Attempts int

	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxBodyBytes    int64

	Log *zap.Logger
}

// NewHTTPClient builds the shared client: per-request timeout, bounded
// redirects and, when proxies are given, a random proxy per request.
func NewHTTPClient(timeout time.Duration, proxies []*url.URL) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if len(proxies) > 0 {
		tr.Proxy = func(*http.Request) (*url.URL, error) {
			return proxies[rand.IntN(len(proxies))], nil
		}
	}
	return &http.Client{
		Timeout:       timeout,
		Transport:     tr,
		CheckRedirect: checkRedirect,
	}
}

func checkRedirect(_ *http.Request, via []*http.Request) error {
	if len(via) >= infraconfig.DefaultMaxRedirects {
		return ErrTooManyRedirects
	}
	return nil
}

// Fetch GETs url and returns the body. Network errors, 5xx and 429 are
// retried with exponential backoff; any other non-2xx status, redirect
// exhaustion or a body over MaxBodyBytes fails at once. The error is always a *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	maxBody := c.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = infraconfig.DefaultMaxBodyBytes
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = infraconfig.DefaultBackoffInitial
	if c.InitialInterval > 0 {
		exp.InitialInterval = c.InitialInterval
	}
	exp.MaxInterval = infraconfig.DefaultBackoffMax
	if c.MaxInterval > 0 {
		exp.MaxInterval = c.MaxInterval
	}
	exp.MaxElapsedTime = 0

	var (
		tries      int
		lastStatus int
		body       string
	)
	op := func() error {
		tries++
		lastStatus = 0
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.applyHeaders(req)

		resp, err := hc.Do(req)
		if err != nil {
			if errors.Is(err, ErrTooManyRedirects) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()
		lastStatus = resp.StatusCode

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
			return fmt.Errorf("status %d", resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
		if err != nil {
			lastStatus = 0
			return fmt.Errorf("read body: %w", err)
		}
		if int64(len(data)) > maxBody {
			lastStatus = 0
			return backoff.Permanent(fmt.Errorf("%w: more than %d bytes", domain.ErrPageTooBig, maxBody))
		}
		body = string(data)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("fetch.retry",
			zap.String("url", rawURL),
			zap.Int("attempt", tries),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		fe := &domain.FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: tries, Err: err}
		log.Error("fetch.failed",
			zap.String("url", rawURL),
			zap.Int("status", lastStatus),
			zap.Int("attempts", tries),
			zap.Error(err),
		)
		return "", fe
	}
	log.Info("fetch.ok", zap.String("url", rawURL), zap.Int("status", lastStatus), zap.Int("attempts", tries))
	return body, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range DefaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range c.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" && len(c.UserAgents) > 0 {
		req.Header.Set("User-Agent", c.UserAgents[rand.IntN(len(c.UserAgents))])
	}
}

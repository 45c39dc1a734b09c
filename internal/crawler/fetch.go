package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"sjsage522/pricewatcher/config"
	"sjsage522/pricewatcher/helpers"
	"sjsage522/pricewatcher/logger"
	apperrors "sjsage522/pricewatcher/pkg/errors"
	"sjsage522/pricewatcher/services/cache"
	"sjsage522/pricewatcher/services/metrics"
)

// statusError is returned for non-2xx responses
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// FetcherOption configures an HTTPFetcher
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithRateLimitCache blocks a host for block once every attempt of a fetch
// was answered with 429
func WithRateLimitCache(svc cache.CacheService, block time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.blocks = svc
		f.blockTime = block
	}
}

// WithPageCache keeps fetched pages for ttl, at most size entries
func WithPageCache(size int, ttl time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if size <= 0 || ttl <= 0 {
			f.pages = nil
			return
		}
		f.pages = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
}

// WithMetrics records request outcomes
func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *HTTPFetcher) {
		f.metrics = m
	}
}

// HTTPFetcher fetches pages politely. Every attempt waits the fixed delay and
// retries back off exponentially. A host that keeps answering 429 is blocked.
type HTTPFetcher struct {
	client     *http.Client
	userAgent  string
	delay      time.Duration
	maxRetries int
	backoff    time.Duration
	blocks     cache.CacheService
	blockTime  time.Duration
	pages      *expirable.LRU[string, []byte]
	metrics    *metrics.Metrics
	log        *logger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewHTTPFetcher creates a fetcher from the HTTP section of cfg
func NewHTTPFetcher(cfg *config.Config, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:  cfg.UserAgent,
		delay:      cfg.RequestDelay,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		blockTime:  cfg.BlockDuration(),
		log:        logger.ForFetcher(),
		sleep:      sleepContext,
	}
	if f.maxRetries < 1 {
		f.maxRetries = 1
	}
	for _, opt := range opts {
		opt(f)
	}
	// a block never outlives one cycle
	if cfg.CrawlInterval > 0 && f.blockTime > cfg.CrawlInterval {
		f.blockTime = cfg.CrawlInterval
	}
	return f
}

// Fetch returns the UTF-8 body of rawURL
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.pages != nil {
		if body, ok := f.pages.Get(rawURL); ok {
			f.metrics.IncRequest("cached")
			return body, nil
		}
	}

	host := hostOf(rawURL)
	if f.isBlocked(host) {
		f.metrics.IncFetchError(string(apperrors.ErrorTypeRateLimit))
		return nil, apperrors.NewRateLimit(host, f.blockTime)
	}

	var lastErr error
	throttled := false
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			f.metrics.IncRetries()
			if err := f.sleep(ctx, f.backoff<<(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := f.sleep(ctx, f.delay); err != nil {
			return nil, err
		}

		body, err := f.do(ctx, rawURL)
		if err == nil {
			f.metrics.IncRequest("success")
			if f.pages != nil {
				f.pages.Add(rawURL, body)
			}
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		f.metrics.IncRequest("failure")
		lastErr = err

		var se *statusError
		throttled = errors.As(err, &se) && se.code == http.StatusTooManyRequests

		typed := attemptError(rawURL, err)
		if !typed.IsRetryable() {
			f.metrics.IncFetchError(string(typed.Type))
			return nil, typed
		}

		f.log.Debug().
			Str("url", rawURL).
			Int("attempt", attempt+1).
			Int("max_attempts", f.maxRetries).
			Err(err).
			Msg("Request attempt failed")
	}

	if throttled && f.blocks != nil {
		f.block(host)
		f.metrics.IncFetchError(string(apperrors.ErrorTypeRateLimit))
		return nil, apperrors.NewRateLimit(host, f.blockTime)
	}

	f.metrics.IncFetchError(string(apperrors.ErrorTypeNetwork))
	return nil, apperrors.NewNetwork(rawURL, fmt.Sprintf("fetch failed after %d attempts", f.maxRetries), lastErr)
}

// attemptError types a single attempt failure. Transport errors and non-2xx
// responses, 429 included, are network errors and stay retryable.
func attemptError(rawURL string, err error) *apperrors.Error {
	var typed *apperrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return apperrors.NewNetwork(rawURL, "request failed", err)
}

// Purge drops every cached page
func (f *HTTPFetcher) Purge() {
	if f.pages != nil {
		f.pages.Purge()
	}
}

func (f *HTTPFetcher) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := helpers.NewPageRequest(ctx, rawURL, f.userAgent)
	if err != nil {
		return nil, apperrors.NewParsing(rawURL, "invalid request URL", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	f.metrics.ObserveRequest(time.Since(start))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode}
	}

	return helpers.ReadUTF8Body(resp)
}

func (f *HTTPFetcher) isBlocked(host string) bool {
	if f.blocks == nil || host == "" {
		return false
	}
	_, err := f.blocks.Get(cache.RateLimitKey(host))
	return err == nil
}

func (f *HTTPFetcher) block(host string) {
	if host == "" || f.blockTime <= 0 {
		return
	}
	seconds := strconv.Itoa(int(f.blockTime / time.Second))
	if err := f.blocks.Set(cache.RateLimitKey(host), []byte(seconds), f.blockTime); err != nil {
		f.log.Warn().Err(err).Str("host", host).Msg("Failed to record rate limit block")
		return
	}
	f.log.Warn().
		Str("host", host).
		Dur("block", f.blockTime).
		Msg("Host rate limited us, pausing requests")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

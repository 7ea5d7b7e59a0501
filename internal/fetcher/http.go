package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/publicsuffix"

	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/observability"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// HTTPFetcher implements Fetcher using net/http. Each source adapter owns
// its own instance; backoff and cookie state are per-source.
type HTTPFetcher struct {
	client           *http.Client
	cfg              *config.FetcherConfig
	rateLimitBackoff time.Duration
	logger           *slog.Logger
	metrics          *observability.Metrics
	userAgents       []string
	uaIndex          atomic.Int64
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithRateLimitBackoff sets the fixed pause before the single retry that
// follows an HTTP 429.
func WithRateLimitBackoff(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.rateLimitBackoff = d
		}
	}
}

// WithMetrics attaches a metrics collector. Counters stay untouched when
// none is set.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *HTTPFetcher) {
		f.metrics = m
	}
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger, opts ...Option) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetcher.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Fetcher.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.Fetcher.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Fetcher.TLSInsecure,
		},
		DisableCompression: true, // We handle decompression ourselves (including brotli)
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !cfg.Fetcher.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.Fetcher.MaxRedirects {
			return fmt.Errorf("max redirects (%d) reached", cfg.Fetcher.MaxRedirects)
		}
		return nil
	}

	f := &HTTPFetcher{
		client: &http.Client{
			Transport:     transport,
			Jar:           jar,
			Timeout:       cfg.Run.RequestTimeout,
			CheckRedirect: redirectPolicy,
		},
		cfg:              &cfg.Fetcher,
		rateLimitBackoff: 1 * time.Second,
		logger:           logger.With("component", "http_fetcher"),
		userAgents:       cfg.Fetcher.UserAgents,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch executes an HTTP request and returns the response.
//
// An HTTP 429 is retried exactly once after a fixed backoff, stretched to
// the server's Retry-After when that is longer. An HTTP 406 is retried
// once with a minimal header profile. Anything else is a single attempt.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	resp, err := f.doOnce(ctx, req)

	var fe *types.FetchError
	if err != nil && errors.As(err, &fe) && fe.StatusCode == http.StatusTooManyRequests {
		backoff := f.rateLimitBackoff
		if fe.RetryAfter > backoff {
			backoff = fe.RetryAfter
		}
		f.logger.Debug("rate limited, retrying once", "url", req.URLString(), "backoff", backoff)
		if err := sleepCtx(ctx, backoff); err != nil {
			return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: false}
		}
		if f.metrics != nil {
			f.metrics.RequestsRetried.Add(1)
		}
		resp, err = f.doOnce(ctx, req.Clone())
		if err != nil && errors.As(err, &fe) && fe.StatusCode == http.StatusTooManyRequests {
			return nil, &types.FetchError{
				URL:        req.URLString(),
				StatusCode: fe.StatusCode,
				Err:        types.ErrRateLimited,
				Retryable:  false,
				RetryAfter: fe.RetryAfter,
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotAcceptable {
		f.logger.Debug("406 response, retrying with minimal headers", "url", req.URLString())
		if f.metrics != nil {
			f.metrics.RequestsRetried.Add(1)
		}
		minimal := req.Clone()
		minimal.Headers = make(http.Header)
		if ua := req.Headers.Get("User-Agent"); ua != "" {
			minimal.Headers.Set("User-Agent", ua)
		}
		minimal.Headers.Set("Accept", "*/*")
		return f.doOnce(ctx, minimal)
	}

	return resp, nil
}

// doOnce performs a single HTTP round trip.
func (f *HTTPFetcher) doOnce(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URLString(), bodyReader)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: false}
	}

	httpReq.Header.Set("User-Agent", f.nextUserAgent())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	httpReq.Header.Set("Connection", "keep-alive")

	// Adapter header profiles override the defaults.
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}

	start := time.Now()
	if f.metrics != nil {
		f.metrics.RequestsTotal.Add(1)
	}
	httpResp, err := f.client.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		if f.metrics != nil {
			f.metrics.RequestsFailed.Add(1)
		}
		return nil, &types.FetchError{
			URL:       req.URLString(),
			Err:       err,
			Retryable: isRetryableError(err),
		}
	}
	defer httpResp.Body.Close()

	if f.metrics != nil {
		f.metrics.CountResponse(httpResp.StatusCode)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		if f.metrics != nil {
			f.metrics.RateLimitHits.Add(1)
			f.metrics.RequestsFailed.Add(1)
		}
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        req.URLString(),
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP 429: rate limited: %s", strings.TrimSpace(string(body))),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	}

	if httpResp.StatusCode >= 500 {
		if f.metrics != nil {
			f.metrics.RequestsFailed.Add(1)
		}
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, &types.FetchError{
			URL:        req.URLString(),
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(body)),
			Retryable:  true,
		}
	}

	var reader io.Reader = httpResp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}

	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: false}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		if f.metrics != nil {
			f.metrics.RequestsFailed.Add(1)
		}
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	if f.metrics != nil {
		f.metrics.BytesDownloaded.Add(int64(len(body)))
	}

	resp := types.NewResponse(req, httpResp, body, duration)

	f.logger.Debug("fetch complete",
		"url", req.URLString(),
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return resp, nil
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

// nextUserAgent returns the next User-Agent in rotation.
func (f *HTTPFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "PressGoat/" + config.Version
	}
	idx := f.uaIndex.Add(1) % int64(len(f.userAgents))
	return f.userAgents[idx]
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// isRetryableError checks if a network error warrants a retry.
// Covers timeouts, connection resets, unexpected EOF, and connection refused.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Context cancellation is NOT retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Unexpected EOF mid-stream — retryable
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	// Network-level errors
	if netErr, ok := err.(net.Error); ok {
		if netErr.Timeout() {
			return true
		}
	}
	// Connection reset by peer, connection refused
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value, zero when absent.
// Supports both integer seconds and HTTP-date formats, capped at 2 minutes.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120
		}
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 0
}

// SleepBetween pauses for a random duration in [min, max], returning early
// with the context error if the context is cancelled. Source adapters use
// it for polite spacing between fetches.
func SleepBetween(ctx context.Context, min, max time.Duration) error {
	if max < min {
		max = min
	}
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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

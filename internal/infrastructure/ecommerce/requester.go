package ecommerce

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from a platform API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxPlatformMessageLen bounds the error text copied from a platform response
const maxPlatformMessageLen = 512

// defaultRateLimitWait is used when a 429 carries no usable Retry-After header
const defaultRateLimitWait = time.Second

// maxRetryAfter caps a parsed Retry-After before it becomes a Duration
const maxRetryAfter = 24 * time.Hour

// RetryPolicy controls timeouts and retries for platform calls
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt for transient failures
	MaxRetries int
	// BaseBackoff is the first retry delay; each retry doubles it
	BaseBackoff time.Duration
	// MaxBackoff caps a single retry delay
	MaxBackoff time.Duration
	// RequestTimeout bounds each individual HTTP attempt
	RequestTimeout time.Duration
	// MaxRateLimitWait caps how long a Retry-After is honoured
	MaxRateLimitWait time.Duration
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:       3,
		BaseBackoff:      200 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
		RequestTimeout:   15 * time.Second,
		MaxRateLimitWait: 10 * time.Second,
	}
}

func (p *RetryPolicy) applyDefaults() {
	d := DefaultRetryPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = d.BaseBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = d.RequestTimeout
	}
	if p.MaxRateLimitWait <= 0 {
		p.MaxRateLimitWait = d.MaxRateLimitWait
	}
}

// backoff returns the delay before retry n (0-based) with jitter in [d/2, d]
func (p RetryPolicy) backoff(n int) time.Duration {
	d := p.BaseBackoff << n
	if d <= 0 || d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

// RequestObserver receives per-request telemetry. Implementations must be safe for concurrent use.
type RequestObserver interface {
	ObservePlatformRequest(platform, method string, statusCode int, duration time.Duration)
	ObservePlatformRetry(platform, reason string)
}

var _ RequestObserver = (*telemetry.IntegrationMetrics)(nil)

type noopObserver struct{}

func (noopObserver) ObservePlatformRequest(string, string, int, time.Duration) {}
func (noopObserver) ObservePlatformRetry(string, string)                       {}

// AdapterOption configures an adapter
type AdapterOption func(*requester)

// WithHTTPClient replaces the HTTP client used for platform calls
func WithHTTPClient(client *http.Client) AdapterOption {
	return func(r *requester) {
		if client != nil {
			r.client = client
		}
	}
}

// WithRequestObserver attaches request metrics
func WithRequestObserver(observer RequestObserver) AdapterOption {
	return func(r *requester) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// ---------------------------------------------------------------------------
// requester
// ---------------------------------------------------------------------------

// apiRequest is one logical platform call. Path is what appears in errors
// and spans; the query string may carry secrets and is never reported.
type apiRequest struct {
	Method string
	URL    *url.URL
	Path   string
	Header http.Header
	Body   []byte
}

type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// messageExtractor pulls a human-readable error out of a platform error body
type messageExtractor func(body []byte) string

// requester executes platform calls with per-attempt timeouts, exponential
// backoff for transient failures and a single bounded wait on 429
type requester struct {
	platform integration.PlatformType
	client   *http.Client
	policy   RetryPolicy
	observer RequestObserver
	extract  messageExtractor
	sleep    func(ctx context.Context, d time.Duration) error
}

func newRequester(platform integration.PlatformType, policy RetryPolicy, extract messageExtractor, opts ...AdapterOption) *requester {
	policy.applyDefaults()
	r := &requester{
		platform: platform,
		client:   &http.Client{},
		policy:   policy,
		observer: noopObserver{},
		extract:  extract,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *requester) do(ctx context.Context, req apiRequest) (*apiResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "platform."+strings.ToLower(r.platform.String())+".request",
		telemetry.WithAttribute("http.method", req.Method),
		telemetry.WithAttribute("platform.path", req.Path),
	)
	defer span.End()

	resp, err := r.doWithRetry(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, "http.status_code", resp.StatusCode)
	telemetry.SetOK(span)
	return resp, nil
}

func (r *requester) doWithRetry(ctx context.Context, req apiRequest) (*apiResponse, error) {
	retries := 0
	rateLimitWaited := false

	for {
		resp, err := r.attempt(ctx, req)
		if err != nil {
			// The caller's own deadline or cancellation ends the call outright
			if ctx.Err() != nil {
				return nil, r.requestError(req, 0, "", ctx.Err())
			}
			if retries < r.policy.MaxRetries {
				r.observer.ObservePlatformRetry(r.platform.String(), "transport")
				if serr := r.sleep(ctx, r.policy.backoff(retries)); serr != nil {
					return nil, r.requestError(req, 0, "", serr)
				}
				retries++
				continue
			}
			return nil, r.requestError(req, 0, "", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if rateLimitWaited {
				return nil, r.requestError(req, resp.StatusCode, r.extract(resp.Body), nil)
			}
			rateLimitWaited = true
			r.observer.ObservePlatformRetry(r.platform.String(), "rate_limited")
			wait := min(parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), r.policy.MaxRateLimitWait)
			if serr := r.sleep(ctx, wait); serr != nil {
				return nil, r.requestError(req, resp.StatusCode, r.extract(resp.Body), serr)
			}
			continue

		case resp.StatusCode >= http.StatusInternalServerError:
			if retries < r.policy.MaxRetries {
				r.observer.ObservePlatformRetry(r.platform.String(), "server_error")
				if serr := r.sleep(ctx, r.policy.backoff(retries)); serr != nil {
					return nil, r.requestError(req, resp.StatusCode, r.extract(resp.Body), serr)
				}
				retries++
				continue
			}
			return nil, r.requestError(req, resp.StatusCode, r.extract(resp.Body), nil)

		case resp.StatusCode >= http.StatusBadRequest:
			return nil, r.requestError(req, resp.StatusCode, r.extract(resp.Body), nil)
		}

		return resp, nil
	}
}

// attempt performs a single HTTP round trip bounded by the per-call timeout
func (r *requester) attempt(ctx context.Context, req apiRequest) (*apiResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.policy.RequestTimeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", stripURL(err))
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.client.Do(httpReq)
	if err != nil {
		r.observer.ObservePlatformRequest(r.platform.String(), req.Method, 0, time.Since(start))
		return nil, stripURL(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	r.observer.ObservePlatformRequest(r.platform.String(), req.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", stripURL(err))
	}
	return &apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (r *requester) requestError(req apiRequest, status int, message string, cause error) *integration.PlatformRequestError {
	return &integration.PlatformRequestError{
		Platform:        r.platform,
		Method:          req.Method,
		Path:            req.Path,
		StatusCode:      status,
		PlatformMessage: message,
		Err:             cause,
	}
}

// stripURL drops the request URL from net/http errors; WooCommerce URLs carry
// the consumer secret in the query string
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// parseRetryAfter accepts delta-seconds (fractions allowed) or an HTTP-date.
// Negative, NaN and infinite values fall back to the default wait; anything
// longer than maxRetryAfter is clamped.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultRateLimitWait
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
			return defaultRateLimitWait
		}
		if secs >= maxRetryAfter.Seconds() {
			return maxRetryAfter
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d <= 0 {
			return 0
		}
		return min(d, maxRetryAfter)
	}
	return defaultRateLimitWait
}

// truncateMessage cuts s to at most maxPlatformMessageLen bytes without
// splitting a UTF-8 sequence
func truncateMessage(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxPlatformMessageLen {
		return s
	}
	cut := maxPlatformMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

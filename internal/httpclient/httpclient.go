// Package httpclient provides the one shared HTTP transport for all sources:
// pooled connections, per-request timeouts, a process-wide concurrency cap,
// an optional token-bucket rate limiter, and transparent gzip/brotli
// Content-Encoding decode. Errors are classified into the gdelterr taxonomy
// so callers can decide on retry and fallback without inspecting statuses.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
	MaxIdleConnsPerHost    = 16

	userAgent = "gdelt-go/1.0"
)

// Config drives a Client. Zero values are replaced with safe defaults by New.
type Config struct {
	// Timeout is the whole-request deadline (connect + headers + body).
	Timeout time.Duration

	// MaxConcurrentRequests caps in-flight requests across the whole client.
	MaxConcurrentRequests int

	// RequestsPerSecond throttles request starts. 0 = unlimited.
	RequestsPerSecond float64

	// Transport may be injected (then it is shared and not owned). Nil = a
	// tuned pooled transport is built and owned by the Client.
	Transport http.RoundTripper
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = 10
	}
}

// Client is safe for concurrent use.
type Client struct {
	hc        *http.Client
	sem       chan struct{}
	limiter   *rate.Limiter // nil = unlimited
	ownsTrans bool
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	owns := false
	tr := cfg.Transport
	if tr == nil {
		tr = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: MaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
			ForceAttemptHTTP2:   true,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		}
		owns = true
	}

	var lim *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		hc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: tr,
			// Follow redirects (the default policy), capped by net/http at 10.
		},
		sem:       make(chan struct{}, cfg.MaxConcurrentRequests),
		limiter:   lim,
		ownsTrans: owns,
	}
}

// Close releases idle connections when the transport is owned by this Client.
// Injected transports are shared and left alone.
func (c *Client) Close() {
	if !c.ownsTrans {
		return
	}
	if tr, ok := c.hc.Transport.(*http.Transport); ok {
		tr.CloseIdleConnections()
	}
}

// Get fetches url and returns the full decoded body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.GetStream(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, classify(url, err)
	}
	return data, nil
}

// GetStream fetches url and returns a streaming decoded body. The caller
// must close it.
func (c *Client) GetStream(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	body, err := decodedBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: %v", gdelterr.ErrDecode, url, err)
	}
	return body, nil
}

// ErrNotModified is returned by GetConditional when the server responds 304.
var ErrNotModified = errors.New("httpclient: 304 not modified")

// CondResult carries the body and cache validators from a 200 response.
type CondResult struct {
	Body         []byte
	ETag         string
	LastModified string
}

// GetConditional issues a GET with If-None-Match / If-Modified-Since when the
// prior validators are non-empty. Returns ErrNotModified on 304. Used by the
// master-list refresher so an unchanged inventory is never re-downloaded.
func (c *Client) GetConditional(ctx context.Context, url, etag, lastModified string) (*CondResult, error) {
	hdr := http.Header{}
	if etag != "" {
		hdr.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		hdr.Set("If-Modified-Since", lastModified)
	}

	resp, err := c.do(ctx, url, hdr)
	if err != nil {
		if errors.Is(err, errStatusNotModified) {
			return nil, ErrNotModified
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := decodedBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", gdelterr.ErrDecode, url, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, classify(url, err)
	}
	return &CondResult{
		Body:         data,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// errStatusNotModified is internal plumbing between do and GetConditional;
// plain Get treats a 304 as an API error since it never sends validators.
var errStatusNotModified = errors.New("httpclient: unexpected 304")

func (c *Client) do(ctx context.Context, url string, extra http.Header) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, ctx.Err()
		}
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-c.sem }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		release()
		return nil, fmt.Errorf("%w: build request for %s: %v", gdelterr.ErrAPI, url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	// Stdlib auto-gzip is disabled once Accept-Encoding is explicit; decode
	// both encodings ourselves in decodedBody.
	req.Header.Set("Accept-Encoding", "gzip, br")
	for k, v := range extra {
		req.Header[k] = v
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		release()
		return nil, classify(url, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent:
		resp.Body = &releasingBody{rc: resp.Body, release: release}
		return resp, nil
	case resp.StatusCode == http.StatusNotModified:
		drainClose(resp)
		release()
		return nil, errStatusNotModified
	case resp.StatusCode == http.StatusTooManyRequests:
		hint := parseRetryAfter(resp.Header.Get("Retry-After"))
		drainClose(resp)
		release()
		return nil, &gdelterr.RateLimitError{URL: url, RetryAfter: hint}
	default:
		code := resp.StatusCode
		drainClose(resp)
		release()
		return nil, &gdelterr.HTTPError{URL: url, Code: code}
	}
}

// releasingBody returns the concurrency slot when the caller closes the body,
// so slow consumers hold their slot for the whole download.
type releasingBody struct {
	rc      io.ReadCloser
	release func()
	done    bool
}

func (b *releasingBody) Read(p []byte) (int, error) { return b.rc.Read(p) }

func (b *releasingBody) Close() error {
	err := b.rc.Close()
	if !b.done {
		b.done = true
		b.release()
	}
	return err
}

func drainClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// classify maps transport-level errors onto the taxonomy.
func classify(url string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", gdelterr.ErrTimeout, url, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s: %v", gdelterr.ErrTimeout, url, err)
	}
	return fmt.Errorf("%w: %s: %v", gdelterr.ErrAPIUnavailable, url, err)
}

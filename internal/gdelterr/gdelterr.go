// Package gdelterr defines the error taxonomy shared by every layer of the
// client. Sentinels are matched with errors.Is; the typed errors carry the
// HTTP status or retry hint and are matched with errors.As.
package gdelterr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration: missing or invalid settings. Fatal at the call site.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation: a filter violates its contract. Fatal at the call site.
	ErrValidation = errors.New("validation error")

	// ErrAPIUnavailable: the master inventory or transport is unreachable.
	ErrAPIUnavailable = errors.New("api unavailable")

	// ErrAPI: an HTTP or BigQuery failure not otherwise classified.
	ErrAPI = errors.New("api error")

	// ErrRateLimited: the server signalled throttling. May carry a retry hint
	// via *RateLimitError.
	ErrRateLimited = errors.New("rate limited")

	// ErrDecode: a ZIP/gzip payload could not be decompressed. Scoped to one URL.
	ErrDecode = errors.New("decode error")

	// ErrParse: a malformed row or line. Scoped to one record.
	ErrParse = errors.New("parse error")

	// ErrSecurity: a URL failed the allow-list check or a decompressed payload
	// exceeded the configured size cap.
	ErrSecurity = errors.New("security error")

	// ErrTimeout: a request exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// HTTPError wraps an unexpected HTTP status. Matches ErrAPI, and additionally
// ErrRateLimited when the status is 429.
type HTTPError struct {
	URL  string
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d from %s", e.Code, e.URL)
}

func (e *HTTPError) Is(target error) bool {
	if target == ErrAPI {
		return true
	}
	if target == ErrRateLimited && e.Code == 429 {
		return true
	}
	return false
}

// RateLimitError carries the server's Retry-After hint, when one was present.
// RetryAfter == 0 means the server gave no usable hint.
type RateLimitError struct {
	URL        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited on %s (retry after %s)", e.URL, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited on %s", e.URL)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited || target == ErrAPI
}

// Retryable reports whether err is worth retrying: timeouts, rate limits, and
// 5xx statuses. Decode and parse errors never retry.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDecode) || errors.Is(err, ErrParse) || errors.Is(err, ErrSecurity) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code == 429 || he.Code >= 500
	}
	return errors.Is(err, ErrAPIUnavailable)
}

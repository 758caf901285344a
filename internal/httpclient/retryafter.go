package httpclient

import (
	"strconv"
	"strings"
	"time"
)

// parseRetryAfter parses a Retry-After header (seconds or HTTP-date).
// Returns 0 when absent or unparseable; the caller falls back to its own
// backoff in that case.
func parseRetryAfter(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
		return time.Duration(sec) * time.Second
	}
	// RFC 1123 date
	t, err := time.Parse(time.RFC1123, s)
	if err != nil {
		return 0
	}
	until := time.Until(t)
	if until < 0 {
		return 0
	}
	return until
}

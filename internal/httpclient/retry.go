package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/metrics"
)

// Doer is the one-attempt download interface Retry wraps. Satisfied by
// *Client.
type Doer interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Retry adds exponential backoff with jitter around a Doer. Rate-limit
// responses honour the server's retry hint when it is longer than the
// computed backoff. Decode, parse and security errors never retry.
type Retry struct {
	next       Doer
	maxRetries int
}

func NewRetry(next Doer, maxRetries int) *Retry {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retry{next: next, maxRetries: maxRetries}
}

// RetryExhausted wraps the final error after all attempts failed, carrying
// the attempt count for failure reporting.
type RetryExhausted struct {
	Attempts int
	Err      error
}

func (e *RetryExhausted) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhausted) Unwrap() error { return e.Err }

func (r *Retry) Get(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.Reset()

	for attempt := 1; ; attempt++ {
		data, err := r.next.Get(ctx, url)
		if err == nil {
			return data, nil
		}
		if !gdelterr.Retryable(err) || attempt > r.maxRetries {
			return nil, &RetryExhausted{Attempts: attempt, Err: err}
		}

		delay := bo.NextBackOff()
		var rl *gdelterr.RateLimitError
		if errors.As(err, &rl) {
			metrics.RateLimited.Inc()
			if rl.RetryAfter > delay {
				delay = rl.RetryAfter
			}
		}
		metrics.Retries.Inc()
		log.Printf("httpclient: retrying %s in %s (attempt %d/%d): %v",
			url, delay.Round(time.Millisecond), attempt, r.maxRetries, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &RetryExhausted{Attempts: attempt, Err: ctx.Err()}
		}
	}
}

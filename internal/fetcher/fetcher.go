// Package fetcher orchestrates the record sources: it picks the file or
// BigQuery path, reroutes to BigQuery when the file path dies before the
// first record, and routes per-bucket failures through the error policy.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/gdeltlab/gdelt-go/internal/bqsource"
	"github.com/gdeltlab/gdelt-go/internal/filesource"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/httpclient"
	"github.com/gdeltlab/gdelt-go/internal/metrics"
	"github.com/gdeltlab/gdelt-go/internal/query"
	"github.com/gdeltlab/gdelt-go/internal/rawrec"
)

// Policy decides what a non-fatal failure does to the stream.
type Policy int

const (
	// PolicyWarn records a Failed entry and keeps streaming. The default.
	PolicyWarn Policy = iota
	// PolicyRaise aborts the stream on the first failure.
	PolicyRaise
	// PolicySkip keeps streaming and records nothing.
	PolicySkip
)

func (p Policy) String() string {
	switch p {
	case PolicyRaise:
		return "raise"
	case PolicySkip:
		return "skip"
	default:
		return "warn"
	}
}

// Options tune one fetch call.
type Options struct {
	UseBigQuery     bool // force the warehouse path
	Policy          Policy
	FallbackEnabled bool
}

// Failed describes one bucket or query that did not contribute records.
type Failed struct {
	URL      string
	Err      error
	Attempts int
}

// Stats are cumulative across the fetcher's lifetime.
type Stats struct {
	Records     int64
	Failures    int64
	Fallbacks   int64
	BytesBilled int64 // BigQuery bytes processed
}

func (s Stats) String() string {
	return fmt.Sprintf("records=%d failures=%d fallbacks=%d bq_bytes=%d",
		s.Records, s.Failures, s.Fallbacks, s.BytesBilled)
}

// Fetcher owns no transport; sources are shared with the client that built
// them.
type Fetcher struct {
	files *filesource.Source
	bq    *bqsource.Source

	records   atomic.Int64
	failures  atomic.Int64
	fallbacks atomic.Int64
}

func New(files *filesource.Source, bq *bqsource.Source) *Fetcher {
	return &Fetcher{files: files, bq: bq}
}

func (f *Fetcher) Stats() Stats {
	s := Stats{
		Records:   f.records.Load(),
		Failures:  f.failures.Load(),
		Fallbacks: f.fallbacks.Load(),
	}
	if f.bq != nil {
		s.BytesBilled = f.bq.BytesProcessed()
	}
	return s
}

// errFallback aborts the file stream so the fetch can reroute to BigQuery.
var errFallback = errors.New("fetcher: reroute to bigquery")

// Fetch streams raw records for spec into emit and returns the failure list.
// Under PolicyRaise the first failure is returned as the error instead.
func (f *Fetcher) Fetch(ctx context.Context, spec *query.Spec, opts Options, emit func(rawrec.Record) error) ([]Failed, error) {
	bqReady := f.bq != nil && f.bq.Configured()
	counted := func(r rawrec.Record) error {
		f.records.Add(1)
		return emit(r)
	}

	if opts.UseBigQuery {
		if !bqReady {
			return nil, fmt.Errorf("%w: use_bigquery set but no project configured",
				gdelterr.ErrConfiguration)
		}
		return f.fetchBQ(ctx, spec, opts, counted)
	}

	sink := &policySink{
		policy:      opts.Policy,
		fallbackArm: opts.FallbackEnabled && bqReady,
		emit:        counted,
	}
	err := f.files.Fetch(ctx, spec, sink)
	f.failures.Add(int64(len(sink.failed)))

	switch {
	case err == nil:
		return sink.failed, nil
	case errors.Is(err, errFallback):
		// died before the first record; reroute
	case !sink.yielded && opts.FallbackEnabled && bqReady && gdelterr.Retryable(err):
		// start-up failure outside the sink, e.g. inventory fetch
	default:
		return sink.failed, err
	}

	log.Printf("fetcher: file source unavailable before first record, falling back to bigquery: %v", err)
	metrics.Fallbacks.Inc()
	f.fallbacks.Add(1)
	return f.fetchBQ(ctx, spec, opts, counted)
}

func (f *Fetcher) fetchBQ(ctx context.Context, spec *query.Spec, opts Options, emit func(rawrec.Record) error) ([]Failed, error) {
	err := f.bq.Fetch(ctx, spec, emit)
	if err == nil {
		return nil, nil
	}
	if opts.Policy == PolicyRaise || errors.Is(err, gdelterr.ErrConfiguration) ||
		errors.Is(err, gdelterr.ErrValidation) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	f.failures.Add(1)
	if opts.Policy == PolicySkip {
		return nil, nil
	}
	return []Failed{{URL: "bigquery:" + spec.Dataset.String(), Err: err, Attempts: 1}}, nil
}

// policySink adapts the error policy to the filesource callback contract.
type policySink struct {
	policy      Policy
	fallbackArm bool
	emit        func(rawrec.Record) error

	yielded bool
	failed  []Failed
}

func (s *policySink) Record(r rawrec.Record) error {
	s.yielded = true
	return s.emit(r)
}

func (s *policySink) Failure(url string, err error) error {
	if !s.yielded && s.fallbackArm && gdelterr.Retryable(err) {
		return errFallback
	}
	if s.policy == PolicyRaise {
		return err
	}
	if s.policy == PolicyWarn {
		s.failed = append(s.failed, Failed{URL: url, Err: err, Attempts: attempts(err)})
	}
	return nil
}

func attempts(err error) int {
	var ex *httpclient.RetryExhausted
	if errors.As(err, &ex) {
		return ex.Attempts
	}
	return 1
}

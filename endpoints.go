package gdelt

import (
	"context"

	"github.com/gdeltlab/gdelt-go/internal/fetcher"
	"github.com/gdeltlab/gdelt-go/internal/query"
	"github.com/gdeltlab/gdelt-go/internal/rawrec"
)

// ErrorPolicy decides what a per-bucket failure does to a stream.
type ErrorPolicy int

const (
	// ErrorPolicyWarn records a FailedRequest and keeps streaming. The
	// default.
	ErrorPolicyWarn ErrorPolicy = iota
	// ErrorPolicyRaise aborts the stream on the first failure.
	ErrorPolicyRaise
	// ErrorPolicySkip keeps streaming and records nothing.
	ErrorPolicySkip
)

// QueryOption tunes a single Query or Stream call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	useBigQuery bool
	policy      ErrorPolicy
	fallback    *bool
	dedup       DedupStrategy
	maxTracked  int
	buffer      int
}

// WithBigQuery forces the warehouse source for this call.
func WithBigQuery() QueryOption {
	return func(o *queryOptions) { o.useBigQuery = true }
}

// WithErrorPolicy overrides the default warn policy.
func WithErrorPolicy(p ErrorPolicy) QueryOption {
	return func(o *queryOptions) { o.policy = p }
}

// WithFallback overrides the client's fallback_to_bigquery setting for this
// call.
func WithFallback(enabled bool) QueryOption {
	return func(o *queryOptions) { o.fallback = &enabled }
}

// WithDedup deduplicates raw records under the given strategy before
// conversion. First occurrence wins.
func WithDedup(s DedupStrategy) QueryOption {
	return func(o *queryOptions) { o.dedup = s }
}

// WithDedupWindow bounds dedup memory to the most recent n keys (an LRU).
// Unbounded when unset.
func WithDedupWindow(n int) QueryOption {
	return func(o *queryOptions) { o.maxTracked = n }
}

func (c *Client) resolveQueryOptions(opts []QueryOption) queryOptions {
	o := queryOptions{buffer: 256}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fallback == nil {
		f := c.settings.FallbackToBigQuery
		o.fallback = &f
	}
	return o
}

func (o queryOptions) fetcherOptions() fetcher.Options {
	var p fetcher.Policy
	switch o.policy {
	case ErrorPolicyRaise:
		p = fetcher.PolicyRaise
	case ErrorPolicySkip:
		p = fetcher.PolicySkip
	default:
		p = fetcher.PolicyWarn
	}
	return fetcher.Options{
		UseBigQuery:     o.useBigQuery,
		Policy:          p,
		FallbackEnabled: *o.fallback,
	}
}

// streamRecords drives the fetcher on a goroutine and bridges its push
// callbacks into a pull Stream. convert returns false to drop a record
// (wrong raw type, or rejected by the post-filter).
func streamRecords[T any](ctx context.Context, c *Client, spec *query.Spec, o queryOptions, convert func(rawrec.Record) (T, bool)) (*Stream[T], error) {
	ded, err := newDeduper(o.dedup, o.maxTracked)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	st := newStream[T](o.buffer, cancel)

	go func() {
		failed, err := c.fetch.Fetch(ctx, spec, o.fetcherOptions(), func(r rawrec.Record) error {
			if !ded.admit(r) {
				return nil
			}
			v, ok := convert(r)
			if !ok {
				return nil
			}
			select {
			case st.recs <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		st.finish(publicFailed(failed), err)
	}()
	return st, nil
}

func publicFailed(in []fetcher.Failed) []FailedRequest {
	if len(in) == 0 {
		return nil
	}
	out := make([]FailedRequest, len(in))
	for i, f := range in {
		out[i] = FailedRequest{URL: f.URL, Err: f.Err, Attempts: f.Attempts}
	}
	return out
}

// ─── Services ────────────────────────────────────────────────────────────────

// Events serves the events v2 dataset.
func (c *Client) Events() *EventsService { return &EventsService{c: c} }

// Mentions serves the event mentions v2 dataset.
func (c *Client) Mentions() *MentionsService { return &MentionsService{c: c} }

// GKG serves the Global Knowledge Graph v2 dataset.
func (c *Client) GKG() *GKGService { return &GKGService{c: c} }

// NGrams serves the web ngrams 3.0 dataset.
func (c *Client) NGrams() *NGramsService { return &NGramsService{c: c} }

type EventsService struct{ c *Client }

// Stream yields matching events incrementally, oldest bucket first.
func (s *EventsService) Stream(ctx context.Context, f EventFilter, opts ...QueryOption) (*Stream[Event], error) {
	spec, err := f.toSpec(s.c.filterEnv())
	if err != nil {
		return nil, err
	}
	return streamRecords(ctx, s.c, spec, s.c.resolveQueryOptions(opts), func(r rawrec.Record) (Event, bool) {
		raw, ok := r.(*rawrec.Event)
		if !ok {
			return Event{}, false
		}
		ev := eventFromRaw(raw)
		return ev, eventMatches(spec, &ev)
	})
}

// Query is Stream collected into a FetchResult.
func (s *EventsService) Query(ctx context.Context, f EventFilter, opts ...QueryOption) (*FetchResult[Event], error) {
	st, err := s.Stream(ctx, f, opts...)
	if err != nil {
		return nil, err
	}
	return collect(st)
}

type MentionsService struct{ c *Client }

func (s *MentionsService) Stream(ctx context.Context, f MentionFilter, opts ...QueryOption) (*Stream[Mention], error) {
	spec, err := f.toSpec(s.c.filterEnv())
	if err != nil {
		return nil, err
	}
	return streamRecords(ctx, s.c, spec, s.c.resolveQueryOptions(opts), func(r rawrec.Record) (Mention, bool) {
		raw, ok := r.(*rawrec.Mention)
		if !ok {
			return Mention{}, false
		}
		return mentionFromRaw(raw), true
	})
}

func (s *MentionsService) Query(ctx context.Context, f MentionFilter, opts ...QueryOption) (*FetchResult[Mention], error) {
	st, err := s.Stream(ctx, f, opts...)
	if err != nil {
		return nil, err
	}
	return collect(st)
}

type GKGService struct{ c *Client }

func (s *GKGService) Stream(ctx context.Context, f GKGFilter, opts ...QueryOption) (*Stream[GKGRecord], error) {
	spec, err := f.toSpec(s.c.filterEnv())
	if err != nil {
		return nil, err
	}
	return streamRecords(ctx, s.c, spec, s.c.resolveQueryOptions(opts), func(r rawrec.Record) (GKGRecord, bool) {
		raw, ok := r.(*rawrec.GKG)
		if !ok {
			return GKGRecord{}, false
		}
		g := gkgFromRaw(raw)
		return g, gkgMatches(spec, &g)
	})
}

func (s *GKGService) Query(ctx context.Context, f GKGFilter, opts ...QueryOption) (*FetchResult[GKGRecord], error) {
	st, err := s.Stream(ctx, f, opts...)
	if err != nil {
		return nil, err
	}
	return collect(st)
}

type NGramsService struct{ c *Client }

func (s *NGramsService) Stream(ctx context.Context, f NGramsFilter, opts ...QueryOption) (*Stream[NGramRecord], error) {
	spec, err := f.toSpec(s.c.filterEnv())
	if err != nil {
		return nil, err
	}
	return streamRecords(ctx, s.c, spec, s.c.resolveQueryOptions(opts), func(r rawrec.Record) (NGramRecord, bool) {
		raw, ok := r.(*rawrec.NGram)
		if !ok {
			return NGramRecord{}, false
		}
		n := ngramFromRaw(raw)
		return n, ngramMatches(spec, &n)
	})
}

func (s *NGramsService) Query(ctx context.Context, f NGramsFilter, opts ...QueryOption) (*FetchResult[NGramRecord], error) {
	st, err := s.Stream(ctx, f, opts...)
	if err != nil {
		return nil, err
	}
	return collect(st)
}

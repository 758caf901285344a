package gdelt

// FailedRequest describes one archive URL or warehouse query that contributed
// no records.
type FailedRequest struct {
	URL      string
	Err      error
	Attempts int
}

// FetchResult is a fully materialized query result.
type FetchResult[T any] struct {
	Data   []T
	Failed []FailedRequest
}

// Complete reports whether every bucket in range contributed its records.
func (r *FetchResult[T]) Complete() bool { return len(r.Failed) == 0 }

// Stream is a pull iterator over a record stream, in the bufio.Scanner
// style:
//
//	st, err := client.Events().Stream(ctx, filter)
//	...
//	defer st.Close()
//	for st.Next() {
//	    ev := st.Record()
//	    ...
//	}
//	if err := st.Err(); err != nil { ... }
//
// Failed reports the per-bucket failures observed so far; it is complete
// once Next has returned false.
type Stream[T any] struct {
	recs   chan T
	cancel func()

	cur T

	// written by the producer before recs is closed, read by the consumer
	// only after Next returns false
	err    error
	failed []FailedRequest
}

func newStream[T any](buffer int, cancel func()) *Stream[T] {
	return &Stream[T]{recs: make(chan T, buffer), cancel: cancel}
}

// Next advances to the next record. It returns false when the stream is
// exhausted, failed, or closed; Err then reports any terminal error.
func (s *Stream[T]) Next() bool {
	v, ok := <-s.recs
	if !ok {
		return false
	}
	s.cur = v
	return true
}

// Record returns the record Next advanced to.
func (s *Stream[T]) Record() T { return s.cur }

// Err returns the terminal error, if any. Valid after Next returns false.
func (s *Stream[T]) Err() error { return s.err }

// Failed lists the buckets that contributed no records. Valid after Next
// returns false.
func (s *Stream[T]) Failed() []FailedRequest { return s.failed }

// Close cancels the producer. Safe to call at any time, and more than once;
// always pair a Stream with a deferred Close.
func (s *Stream[T]) Close() {
	s.cancel()
	// drain so the producer goroutine can finish
	go func() {
		for range s.recs {
		}
	}()
}

// finish is called by the producer: it publishes the terminal state and then
// closes recs, which is what unblocks the consumer's final Next.
func (s *Stream[T]) finish(failed []FailedRequest, err error) {
	s.failed = failed
	s.err = err
	close(s.recs)
}

// collect drains the stream into a FetchResult.
func collect[T any](s *Stream[T]) (*FetchResult[T], error) {
	defer s.Close()
	res := &FetchResult[T]{}
	for s.Next() {
		res.Data = append(res.Data, s.Record())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	res.Failed = s.Failed()
	return res, nil
}

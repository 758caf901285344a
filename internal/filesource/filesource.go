// Package filesource streams raw records out of the 15-minute archive files.
// It resolves a query to inventory entries, downloads them through the disk
// cache with bounded concurrency, and emits each bucket's records contiguously
// in chronological order.
package filesource

import (
	"context"
	"errors"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/gdeltlab/gdelt-go/internal/dataset"
	"github.com/gdeltlab/gdelt-go/internal/decode"
	"github.com/gdeltlab/gdelt-go/internal/diskcache"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/masterlist"
	"github.com/gdeltlab/gdelt-go/internal/query"
	"github.com/gdeltlab/gdelt-go/internal/rawrec"
)

// Sink receives the stream. Record is called once per parsed raw record, in
// bucket order. Failure is called for a bucket that could not be downloaded
// or decoded, or for a malformed row; returning a non-nil error from either
// aborts the whole fetch and cancels outstanding downloads.
type Sink interface {
	Record(rawrec.Record) error
	Failure(url string, err error) error
}

// Config bounds the download fan-out.
type Config struct {
	MaxConcurrentDownloads int
	DecompressedSizeCap    int64
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrentDownloads <= 0 {
		c.MaxConcurrentDownloads = 10
	}
	if c.DecompressedSizeCap <= 0 {
		c.DecompressedSizeCap = 500 << 20
	}
}

// Source is the file-based record source.
type Source struct {
	cfg   Config
	list  *masterlist.List
	cache *diskcache.Cache
}

func New(cfg Config, list *masterlist.List, cache *diskcache.Cache) *Source {
	cfg.applyDefaults()
	return &Source{cfg: cfg, list: list, cache: cache}
}

// pending pairs an inventory entry with its in-flight download. done is
// closed when data/err are set.
type pending struct {
	entry masterlist.Entry
	data  []byte
	err   error
	done  chan struct{}
}

// Fetch resolves spec to archive URLs and pushes records into sink. Downloads
// run ahead of the consumer under a semaphore of width
// MaxConcurrentDownloads; emission is serialized per bucket so each bucket's
// records arrive contiguously and buckets arrive oldest first.
func (s *Source) Fetch(ctx context.Context, spec *query.Spec, sink Sink) error {
	entries, err := s.list.Resolve(ctx, spec.Dataset, spec.Start, spec.End, spec.IncludeTranslated)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Printf("filesource: no %s archives in inventory for %s..%s",
			spec.Dataset, spec.Start.Format("2006-01-02"), spec.End.Format("2006-01-02"))
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentDownloads)

	// The spawner blocks in g.Go once the limit is reached and in the
	// channel send once the consumer falls a window behind, so at most
	// ~2x MaxConcurrentDownloads buckets are held in memory.
	queue := make(chan *pending, s.cfg.MaxConcurrentDownloads)
	go func() {
		defer close(queue)
		for _, e := range entries {
			p := &pending{entry: e, done: make(chan struct{})}
			select {
			case queue <- p:
			case <-gctx.Done():
				return
			}
			g.Go(func() error {
				defer close(p.done)
				p.data, p.err = s.cache.GetOrFetch(gctx, p.entry.URL, p.entry.Checksum)
				return nil
			})
		}
	}()

	var abort error
	for p := range queue {
		select {
		case <-p.done:
		case <-ctx.Done():
			abort = ctx.Err()
		}
		if abort != nil {
			break
		}
		if p.err != nil {
			if ferr := sink.Failure(p.entry.URL, p.err); ferr != nil {
				abort = ferr
				break
			}
			continue
		}
		if err := s.emitBucket(p, spec.Dataset, sink); err != nil {
			abort = err
			break
		}
	}
	cancel()
	if err := g.Wait(); err != nil && abort == nil {
		abort = err
	}
	if abort != nil {
		// drain so the spawner goroutine can exit
		for range queue {
		}
	}
	return abort
}

// emitBucket decodes and parses one archive and forwards its records.
// Decode and parse failures route through sink.Failure; they never abort
// unless the sink says so.
func (s *Source) emitBucket(p *pending, ds dataset.Dataset, sink Sink) error {
	body, err := decode.Decode(p.data, hintFor(ds), s.cfg.DecompressedSizeCap)
	if err != nil {
		return sink.Failure(p.entry.URL, err)
	}
	defer body.Close()
	return s.parseInto(body, ds, p.entry.URL, sink)
}

func (s *Source) parseInto(body io.Reader, ds dataset.Dataset, url string, sink Sink) error {
	var sinkAbort error
	onBad := func(line int, err error) error {
		if ferr := sink.Failure(url, err); ferr != nil {
			sinkAbort = ferr
			return ferr
		}
		return nil
	}
	var err error
	if ds.JSONLines() {
		err = rawrec.ParseJSONL(body, sink.Record, onBad)
	} else {
		err = rawrec.ParseTSV(body, ds, sink.Record, onBad)
	}
	switch {
	case err == nil:
		return nil
	case sinkAbort != nil:
		return sinkAbort
	case errors.Is(err, gdelterr.ErrParse), errors.Is(err, gdelterr.ErrSecurity),
		errors.Is(err, gdelterr.ErrDecode):
		// stream-level failure: truncated or oversized archive
		return sink.Failure(url, err)
	default:
		// the sink's Record callback aborted
		return err
	}
}

func hintFor(ds dataset.Dataset) decode.Format {
	if ds.JSONLines() {
		return decode.Gzip
	}
	return decode.Zip
}

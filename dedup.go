package gdelt

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gdeltlab/gdelt-go/internal/metrics"
	"github.com/gdeltlab/gdelt-go/internal/rawrec"
)

// DedupStrategy picks the key duplicate raw records are collapsed on. The
// first occurrence always wins; later duplicates are dropped before
// conversion, so stream order is preserved.
type DedupStrategy int

const (
	// DedupOff disables deduplication.
	DedupOff DedupStrategy = iota
	// DedupURLOnly keys on the source URL.
	DedupURLOnly
	// DedupURLDate keys on (source URL, date).
	DedupURLDate
	// DedupURLDateLocation keys on (source URL, date, primary location ID).
	DedupURLDateLocation
	// DedupActorPair keys on (actor1 code, actor2 code, date).
	DedupActorPair
	// DedupFull keys on every identifying field of the record.
	DedupFull
)

func (s DedupStrategy) String() string {
	switch s {
	case DedupOff:
		return "off"
	case DedupURLOnly:
		return "url_only"
	case DedupURLDate:
		return "url_date"
	case DedupURLDateLocation:
		return "url_date_location"
	case DedupActorPair:
		return "actor_pair"
	case DedupFull:
		return "full"
	}
	return fmt.Sprintf("DedupStrategy(%d)", int(s))
}

const keySep = "\x1f"

func (s DedupStrategy) key(r rawrec.Record) string {
	switch s {
	case DedupURLOnly:
		return r.KeySourceURL()
	case DedupURLDate:
		return r.KeySourceURL() + keySep + r.KeyDate()
	case DedupURLDateLocation:
		return r.KeySourceURL() + keySep + r.KeyDate() + keySep + r.KeyLocationID()
	case DedupActorPair:
		return r.KeyActor1() + keySep + r.KeyActor2() + keySep + r.KeyDate()
	case DedupFull:
		return r.KeyAll()
	}
	return ""
}

// deduper tracks seen keys for one stream. With maxTracked > 0 the seen set
// is an LRU, trading exactness for bounded memory on very large streams; a
// duplicate evicted from the window is admitted again.
type deduper struct {
	strategy DedupStrategy
	seen     map[string]struct{}
	window   *lru.Cache[string, struct{}]
}

func newDeduper(strategy DedupStrategy, maxTracked int) (*deduper, error) {
	d := &deduper{strategy: strategy}
	if strategy == DedupOff {
		return d, nil
	}
	if maxTracked > 0 {
		w, err := lru.New[string, struct{}](maxTracked)
		if err != nil {
			return nil, fmt.Errorf("%w: max_tracked %d: %v", ErrValidation, maxTracked, err)
		}
		d.window = w
	} else {
		d.seen = make(map[string]struct{})
	}
	return d, nil
}

// admit reports whether r is the first occurrence of its key.
func (d *deduper) admit(r rawrec.Record) bool {
	if d.strategy == DedupOff {
		return true
	}
	k := d.strategy.key(r)
	if d.window != nil {
		if _, dup := d.window.Get(k); dup {
			metrics.DedupDropped.Inc()
			return false
		}
		d.window.Add(k, struct{}{})
		return true
	}
	if _, dup := d.seen[k]; dup {
		metrics.DedupDropped.Inc()
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

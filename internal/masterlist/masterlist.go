// Package masterlist maintains the GDELT master file inventory and resolves
// a dataset + date range to the 15-minute archive URLs that cover it.
//
// The inventory is two plain-text files (English and translated), one line
// per archive: "size<SP>md5<SP>url". It is fetched lazily, kept for a TTL,
// and revalidated with a conditional GET so an unchanged list costs a 304.
package masterlist

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gdeltlab/gdelt-go/internal/dataset"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/httpclient"
	"github.com/gdeltlab/gdelt-go/internal/safeurl"
)

const (
	DefaultEnglishURL    = "http://data.gdeltproject.org/gdeltv2/masterfilelist.txt"
	DefaultTranslatedURL = "http://data.gdeltproject.org/gdeltv2/masterfilelist-translation.txt"

	// badLineLimit is the fraction of malformed inventory lines above which
	// a refresh is treated as a failed fetch rather than a degraded one.
	badLineLimit = 0.10
)

var (
	tsvFileRe   = regexp.MustCompile(`(\d{14})\.(?:translation\.)?(export|mentions|gkg|ggg|iatv)\.(?:CSV|csv)\.zip$`)
	ngramFileRe = regexp.MustCompile(`(\d{14})\.webngrams\.json\.gz$`)
)

// Entry is one archive file from the inventory.
type Entry struct {
	URL      string
	Dataset  dataset.Dataset
	Bucket   time.Time // 15-minute bucket timestamp, UTC
	Size     int64
	Checksum string // md5 hex from the inventory, may be empty
}

// Config controls inventory fetching.
type Config struct {
	EnglishURL    string
	TranslatedURL string
	TTL           time.Duration // how long a fetched index stays fresh
	// StaleWindow bounds how long after its fetch a snapshot may still be
	// served when refreshes fail. Past it the failure propagates so the
	// caller can fall back. Defaults to 12×TTL.
	StaleWindow time.Duration
	PersistDir  string // optional dir for on-disk inventory copies
	Allow       *safeurl.Allowlist
}

func (c *Config) applyDefaults() {
	if c.EnglishURL == "" {
		c.EnglishURL = DefaultEnglishURL
	}
	if c.TranslatedURL == "" {
		c.TranslatedURL = DefaultTranslatedURL
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.StaleWindow <= 0 {
		c.StaleWindow = 12 * c.TTL
	}
	if c.Allow == nil {
		c.Allow = safeurl.DefaultAllowlist()
	}
}

// List is the process-wide inventory cache. Safe for concurrent use.
type List struct {
	cfg Config
	hc  *httpclient.Client

	mu         sync.Mutex
	english    *snapshot
	translated *snapshot
}

// snapshot is one fully-parsed inventory. Immutable once built; refreshes
// swap the pointer so in-flight resolves keep a consistent view.
type snapshot struct {
	fetchedAt    time.Time
	retryAt      time.Time // set after a failed refresh; next attempt not before this
	etag         string
	lastModified string
	index        map[dataset.Dataset]map[int64]Entry // bucket unix → entry
}

func (s *snapshot) fresh(ttl time.Duration) bool {
	return s != nil && time.Since(s.fetchedAt) < ttl
}

func New(cfg Config, hc *httpclient.Client) *List {
	cfg.applyDefaults()
	return &List{cfg: cfg, hc: hc}
}

// Resolve returns the inventory entries for ds whose bucket timestamp falls
// in [start-of-day(start), end-of-day(end)] UTC, chronologically ascending.
// The translated inventory is consulted only when includeTranslated is set.
func (l *List) Resolve(ctx context.Context, ds dataset.Dataset, start, end time.Time, includeTranslated bool) ([]Entry, error) {
	lo := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	hi := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)

	snaps := make([]*snapshot, 0, 2)
	snap, err := l.ensure(ctx, false)
	if err != nil {
		return nil, err
	}
	snaps = append(snaps, snap)

	if includeTranslated && ds != dataset.NGrams {
		tsnap, err := l.ensure(ctx, true)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, tsnap)
	}

	var out []Entry
	for _, s := range snaps {
		for unix, e := range s.index[ds] {
			t := time.Unix(unix, 0).UTC()
			if t.Before(lo) || t.After(hi) {
				continue
			}
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Bucket.Equal(out[j].Bucket) {
			return out[i].Bucket.Before(out[j].Bucket)
		}
		return out[i].URL < out[j].URL
	})
	return out, nil
}

// Invalidate drops both in-memory snapshots; the next Resolve refetches.
func (l *List) Invalidate() {
	l.mu.Lock()
	l.english = nil
	l.translated = nil
	l.mu.Unlock()
}

// ─── Refresh ─────────────────────────────────────────────────────────────────

// ensure returns a fresh snapshot for the requested inventory, refreshing it
// when the TTL has lapsed. A refresh failure falls back to the previous
// in-memory snapshot (with a warning), then to the on-disk copy.
func (l *List) ensure(ctx context.Context, translated bool) (*snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.english
	url := l.cfg.EnglishURL
	if translated {
		cur = l.translated
		url = l.cfg.TranslatedURL
	}
	if cur.fresh(l.cfg.TTL) {
		return cur, nil
	}
	if cur != nil && time.Now().Before(cur.retryAt) {
		return cur, nil
	}

	next, err := l.refresh(ctx, url, cur)
	if err != nil {
		// A stale snapshot is only served inside the stale window; past it
		// the failure propagates so the caller can fall back.
		if cur != nil && time.Since(cur.fetchedAt) < l.cfg.StaleWindow {
			log.Printf("masterlist: refresh %s failed, serving stale index: %v", url, err)
			cur.retryAt = time.Now().Add(l.cfg.TTL)
			return cur, nil
		}
		if disk := l.loadPersisted(url); disk != nil && time.Since(disk.fetchedAt) < l.cfg.StaleWindow {
			log.Printf("masterlist: refresh %s failed, serving on-disk copy: %v", url, err)
			disk.retryAt = time.Now().Add(l.cfg.TTL)
			l.store(translated, disk)
			return disk, nil
		}
		return nil, err
	}
	l.store(translated, next)
	return next, nil
}

func (l *List) store(translated bool, s *snapshot) {
	if translated {
		l.translated = s
	} else {
		l.english = s
	}
}

// refresh fetches and parses one inventory. A 304 revalidates the existing
// snapshot without re-parsing.
func (l *List) refresh(ctx context.Context, url string, prev *snapshot) (*snapshot, error) {
	var etag, lastMod string
	if prev != nil {
		etag, lastMod = prev.etag, prev.lastModified
	}
	res, err := l.hc.GetConditional(ctx, url, etag, lastMod)
	if errors.Is(err, httpclient.ErrNotModified) {
		// A 304 with no prior snapshot means the server ignored that we
		// sent no validators; there is nothing to revalidate.
		if prev == nil {
			return nil, fmt.Errorf("%w: masterlist %s: 304 without a cached inventory",
				gdelterr.ErrAPIUnavailable, url)
		}
		fresh := *prev
		fresh.fetchedAt = time.Now()
		return &fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: masterlist %s: %v", gdelterr.ErrAPIUnavailable, url, err)
	}
	body := res.Body

	snap, err := l.parse(body)
	if err != nil {
		return nil, err
	}
	snap.etag = res.ETag
	snap.lastModified = res.LastModified

	l.persist(url, body)
	return snap, nil
}

// ─── Parsing ─────────────────────────────────────────────────────────────────

// parse builds a snapshot from raw inventory text. Lines that fail to parse
// are logged and skipped; too many of them fails the whole refresh.
func (l *List) parse(body []byte) (*snapshot, error) {
	snap := &snapshot{
		fetchedAt: time.Now(),
		index:     make(map[dataset.Dataset]map[int64]Entry),
	}

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	var total, bad, dropped int
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		total++
		e, ok := parseLine(line)
		if !ok {
			bad++
			if bad <= 5 {
				log.Printf("masterlist: skipping malformed line: %.120s", line)
			}
			continue
		}
		if !l.cfg.Allow.Allowed(e.URL) {
			dropped++
			if dropped <= 5 {
				log.Printf("masterlist: dropping off-allowlist url %s", e.URL)
			}
			continue
		}
		byBucket := snap.index[e.Dataset]
		if byBucket == nil {
			byBucket = make(map[int64]Entry)
			snap.index[e.Dataset] = byBucket
		}
		// one entry per (dataset, bucket); first line wins
		unix := e.Bucket.Unix()
		if _, dup := byBucket[unix]; !dup {
			byBucket[unix] = e
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: masterlist: scan: %v", gdelterr.ErrAPIUnavailable, err)
	}
	if total > 0 && float64(bad)/float64(total) > badLineLimit {
		return nil, fmt.Errorf("%w: masterlist: %d of %d lines malformed", gdelterr.ErrParse, bad, total)
	}
	return snap, nil
}

// parseLine decodes "size<SP>checksum<SP>url". Lines whose filename does not
// match a known dataset pattern are not errors; they are other GDELT products
// and are silently ignored.
func parseLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Entry{}, false
	}
	size, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Entry{}, false
	}
	url := fields[2]
	if !safeurl.IsHTTPOrHTTPS(url) {
		return Entry{}, false
	}

	ds, bucket, ok := classify(url)
	if !ok {
		return Entry{}, true // recognised shape, unknown product: skip quietly
	}
	return Entry{
		URL:      url,
		Dataset:  ds,
		Bucket:   bucket,
		Size:     size,
		Checksum: fields[1],
	}, true
}

// classify extracts the dataset and bucket timestamp from an archive URL.
func classify(url string) (dataset.Dataset, time.Time, bool) {
	var stamp, token string
	if m := tsvFileRe.FindStringSubmatch(url); m != nil {
		stamp, token = m[1], m[2]
	} else if m := ngramFileRe.FindStringSubmatch(url); m != nil {
		stamp, token = m[1], "webngrams"
	} else {
		return "", time.Time{}, false
	}
	ds, err := dataset.FromFileToken(token)
	if err != nil {
		return "", time.Time{}, false
	}
	t, err := time.Parse("20060102150405", stamp)
	if err != nil {
		return "", time.Time{}, false
	}
	return ds, t.UTC(), true
}

// ─── On-disk copies ──────────────────────────────────────────────────────────

func (l *List) persistPath(url string) string {
	if l.cfg.PersistDir == "" {
		return ""
	}
	name := "masterlist.txt"
	if strings.Contains(url, "translation") {
		name = "masterlist-translation.txt"
	}
	return filepath.Join(l.cfg.PersistDir, name)
}

// persist writes the raw inventory next to the cache so a later process can
// start without network access. Best effort.
func (l *List) persist(url string, body []byte) {
	path := l.persistPath(url)
	if path == "" {
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		log.Printf("masterlist: persist %s: %v", path, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		log.Printf("masterlist: persist %s: %v", path, err)
	}
}

func (l *List) loadPersisted(url string) *snapshot {
	path := l.persistPath(url)
	if path == "" {
		return nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	snap, err := l.parse(body)
	if err != nil {
		log.Printf("masterlist: on-disk copy %s unusable: %v", path, err)
		return nil
	}
	// Age the snapshot by the file's write time so the stale window applies
	// to the on-disk copy too.
	if fi, err := os.Stat(path); err == nil {
		snap.fetchedAt = fi.ModTime()
	}
	return snap
}

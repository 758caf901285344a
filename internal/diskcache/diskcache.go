// Package diskcache is the content-addressed archive cache. Files live at
// <dir>/files/<urlhash>.<ext> with a JSON .meta sidecar; entries are served
// while younger than the TTL and re-downloaded otherwise. A per-URL mutex
// guarantees at most one concurrent download per URL; writes are atomic
// (temp file + rename) so a crash never leaves a half-written entry visible.
package diskcache

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/metrics"
)

// Getter downloads one URL. Satisfied by *httpclient.Client.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Meta is the .meta sidecar, one per cached file.
type Meta struct {
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	MTime    time.Time `json:"mtime"`
	Checksum string    `json:"checksum,omitempty"` // md5 hex from the inventory
}

// Cache is safe for concurrent use. The cache directory outlives the process.
type Cache struct {
	dir   string
	ttl   time.Duration
	fetch Getter
	keys  *keyMutex
}

// New opens (creating if needed) the cache under dir.
func New(dir string, ttl time.Duration, fetch Getter) (*Cache, error) {
	filesDir := filepath.Join(dir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return nil, fmt.Errorf("diskcache: create %s: %w", filesDir, err)
	}
	return &Cache{dir: dir, ttl: ttl, fetch: fetch, keys: newKeyMutex()}, nil
}

// Path returns the stable on-disk location for url.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.dir, "files", hashURL(url)+ext(url))
}

func (c *Cache) metaPath(url string) string {
	return filepath.Join(c.dir, "files", hashURL(url)+".meta")
}

// GetOrFetch returns the bytes for url, from disk when fresh, downloading
// otherwise. checksum, when non-empty, is the md5 hex the inventory promised
// for the file; a mismatch invalidates the entry and fails the fetch.
func (c *Cache) GetOrFetch(ctx context.Context, url, checksum string) ([]byte, error) {
	if data, ok := c.lookup(url, checksum); ok {
		metrics.CacheHits.Inc()
		return data, nil
	}

	unlock := c.keys.Lock(url)
	defer unlock()

	// Re-check under the lock: another goroutine may have fetched while we
	// waited.
	if data, ok := c.lookup(url, checksum); ok {
		metrics.CacheHits.Inc()
		return data, nil
	}
	metrics.CacheMisses.Inc()

	// A checksum mismatch is usually a truncated transfer; one fresh
	// download covers it before the failure is reported.
	var data []byte
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		data, err = c.fetch.Get(ctx, url)
		if err != nil {
			metrics.Downloads.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.Downloads.WithLabelValues("ok").Inc()

		if checksum == "" {
			break
		}
		sum := md5.Sum(data)
		got := hex.EncodeToString(sum[:])
		if strings.EqualFold(got, checksum) {
			break
		}
		err = fmt.Errorf("%w: %s: checksum mismatch (got %s, want %s)",
			gdelterr.ErrDecode, url, got, checksum)
		log.Printf("diskcache: %v", err)
	}
	if err != nil {
		return nil, err
	}

	if err := c.store(url, data, checksum); err != nil {
		// A failed store is not fatal to the caller; the bytes are good.
		return data, nil
	}
	return data, nil
}

// Invalidate drops the cached entry for url, if any.
func (c *Cache) Invalidate(url string) error {
	unlock := c.keys.Lock(url)
	defer unlock()
	if err := os.Remove(c.Path(url)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(c.metaPath(url)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// lookup serves a cached entry iff it exists, is non-empty, matches the
// expected checksum, and is younger than the TTL.
func (c *Cache) lookup(url, checksum string) ([]byte, bool) {
	p := c.Path(url)
	fi, err := os.Stat(p)
	if err != nil || fi.Size() == 0 {
		return nil, false
	}
	if time.Since(fi.ModTime()) >= c.ttl {
		return nil, false
	}
	if checksum != "" {
		if m, err := c.readMeta(url); err == nil && m.Checksum != "" &&
			!strings.EqualFold(m.Checksum, checksum) {
			// Inventory advertises different content than we have.
			return nil, false
		}
	}
	data, err := os.ReadFile(p)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// store writes data and its meta sidecar atomically.
func (c *Cache) store(url string, data []byte, checksum string) error {
	p := c.Path(url)
	if err := atomicWrite(p, data); err != nil {
		return err
	}
	m := Meta{URL: url, Size: int64(len(data)), MTime: time.Now().UTC(), Checksum: checksum}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(c.metaPath(url), raw)
}

func (c *Cache) readMeta(url string) (*Meta, error) {
	raw, err := os.ReadFile(c.metaPath(url))
	if err != nil {
		return nil, err
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("diskcache: create temp: %w", err)
	}
	name := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(name)
		if werr != nil {
			return fmt.Errorf("diskcache: write: %w", werr)
		}
		return fmt.Errorf("diskcache: close: %w", cerr)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("diskcache: rename: %w", err)
	}
	return nil
}

// hashURL derives the stable cache key for a URL.
func hashURL(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:16])
}

// ext preserves the archive's compound extension (".csv.zip", ".json.gz") so
// cached files stay recognisable on disk.
func ext(url string) string {
	base := url
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = base[strings.LastIndexByte(base, '/')+1:]
	e := filepath.Ext(base)
	if e == "" {
		return ".bin"
	}
	rest := strings.TrimSuffix(base, e)
	switch e2 := filepath.Ext(rest); strings.ToLower(e2) {
	case ".csv", ".json", ".txt":
		return e2 + e
	default:
		return e
	}
}

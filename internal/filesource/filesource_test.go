package filesource

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdeltlab/gdelt-go/internal/dataset"
	"github.com/gdeltlab/gdelt-go/internal/diskcache"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/httpclient"
	"github.com/gdeltlab/gdelt-go/internal/masterlist"
	"github.com/gdeltlab/gdelt-go/internal/query"
	"github.com/gdeltlab/gdelt-go/internal/rawrec"
	"github.com/gdeltlab/gdelt-go/internal/safeurl"
)

// collectSink records everything; failAction controls Failure's return.
type collectSink struct {
	records    []rawrec.Record
	failures   []string
	failAction func(url string, err error) error
}

func (s *collectSink) Record(r rawrec.Record) error {
	s.records = append(s.records, r)
	return nil
}

func (s *collectSink) Failure(url string, err error) error {
	s.failures = append(s.failures, url)
	if s.failAction != nil {
		return s.failAction(url, err)
	}
	return nil
}

// eventRow emits a 61-column row whose GlobalEventID is id.
func eventRow(id string) string {
	f := make([]string, 61)
	f[0] = id
	f[1] = "20240115"
	return strings.Join(f, "\t")
}

func zipArchive(t *testing.T, name string, rows ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(strings.Join(rows, "\n") + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// harness wires an httptest server that serves a masterfilelist plus archive
// files under /gdeltv2/, the way the real file server lays them out.
type harness struct {
	srv      *httptest.Server
	mu       sync.Mutex
	archives map[string][]byte // path → bytes
	source   *Source
	list     *masterlist.List
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{archives: map[string][]byte{}}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if r.URL.Path == "/masterfilelist.txt" {
			var b strings.Builder
			for path, data := range h.archives {
				fmt.Fprintf(&b, "%d %x http://data.gdeltproject.org%s\n",
					len(data), md5.Sum(data), path)
			}
			fmt.Fprint(w, b.String())
			return
		}
		data, ok := h.archives[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(h.srv.Close)

	hc := httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
	t.Cleanup(hc.Close)

	// rewrite archive URLs back at the test server
	getter := rewriteGetter{hc: hc, base: h.srv.URL}

	cache, err := diskcache.New(t.TempDir(), time.Hour, getter)
	if err != nil {
		t.Fatal(err)
	}
	h.list = masterlist.New(masterlist.Config{
		EnglishURL: h.srv.URL + "/masterfilelist.txt",
		TTL:        time.Minute,
		Allow:      safeurl.DefaultAllowlist(),
	}, hc)
	h.source = New(cfg, h.list, cache)
	return h
}

// rewriteGetter redirects data.gdeltproject.org URLs to the local test server.
type rewriteGetter struct {
	hc   *httpclient.Client
	base string
}

func (g rewriteGetter) Get(ctx context.Context, url string) ([]byte, error) {
	url = strings.Replace(url, "http://data.gdeltproject.org", g.base, 1)
	return g.hc.Get(ctx, url)
}

func (h *harness) addBucket(t *testing.T, stamp string, rows ...string) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	name := stamp + ".export.CSV"
	h.archives["/gdeltv2/"+stamp+".export.CSV.zip"] = zipArchive(t, name, rows...)
}

func (h *harness) removeBucket(stamp string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.archives, "/gdeltv2/"+stamp+".export.CSV.zip")
}

func eventsSpec(day time.Time) *query.Spec {
	return &query.Spec{Dataset: dataset.Events, Start: day, End: day}
}

func TestFetch_ChronologicalContiguousBuckets(t *testing.T) {
	h := newHarness(t, Config{MaxConcurrentDownloads: 4})
	h.addBucket(t, "20240115001500", eventRow("b1"), eventRow("b2"))
	h.addBucket(t, "20240115000000", eventRow("a1"))
	h.addBucket(t, "20240115003000", eventRow("c1"))

	sink := &collectSink{}
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if err := h.source.Fetch(context.Background(), eventsSpec(day), sink); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	var ids []string
	for _, r := range sink.records {
		ids = append(ids, r.(*rawrec.Event).GlobalEventID)
	}
	want := []string{"a1", "b1", "b2", "c1"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	if len(sink.failures) != 0 {
		t.Fatalf("failures = %v, want none", sink.failures)
	}
}

func TestFetch_EmptyInventoryYieldsNothing(t *testing.T) {
	h := newHarness(t, Config{})
	sink := &collectSink{}
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if err := h.source.Fetch(context.Background(), eventsSpec(day), sink); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("records = %d, want 0", len(sink.records))
	}
}

func TestFetch_BucketFailureRoutedAndContinues(t *testing.T) {
	h := newHarness(t, Config{MaxConcurrentDownloads: 1})
	h.addBucket(t, "20240115000000", eventRow("a1"))
	h.addBucket(t, "20240115001500", eventRow("b1"))

	sink := &collectSink{}
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// seed the inventory, then break one archive
	if _, err := h.list.Resolve(context.Background(), dataset.Events, day, day, false); err != nil {
		t.Fatal(err)
	}
	h.removeBucket("20240115000000")

	if err := h.source.Fetch(context.Background(), eventsSpec(day), sink); err != nil {
		t.Fatalf("Fetch with warn-style sink: %v", err)
	}
	if len(sink.failures) != 1 || !strings.Contains(sink.failures[0], "20240115000000") {
		t.Fatalf("failures = %v, want the missing bucket", sink.failures)
	}
	if len(sink.records) != 1 || sink.records[0].(*rawrec.Event).GlobalEventID != "b1" {
		t.Fatalf("records = %v, want just b1", sink.records)
	}
}

func TestFetch_SinkAbortStopsFetch(t *testing.T) {
	h := newHarness(t, Config{MaxConcurrentDownloads: 1})
	h.addBucket(t, "20240115001500", eventRow("b1"))
	h.addBucket(t, "20240115000000", eventRow("a1"))

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if _, err := h.list.Resolve(context.Background(), dataset.Events, day, day, false); err != nil {
		t.Fatal(err)
	}
	h.removeBucket("20240115000000")

	abort := errors.New("abort now")
	sink := &collectSink{failAction: func(string, error) error { return abort }}
	err := h.source.Fetch(context.Background(), eventsSpec(day), sink)
	if !errors.Is(err, abort) {
		t.Fatalf("Fetch = %v, want abort", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("records after abort = %d, want 0", len(sink.records))
	}
}

func TestFetch_MalformedRowRoutedToFailure(t *testing.T) {
	h := newHarness(t, Config{})
	h.addBucket(t, "20240115000000", eventRow("a1"), "too\tfew\tcolumns", eventRow("a2"))

	sink := &collectSink{failAction: func(url string, err error) error {
		if !errors.Is(err, gdelterr.ErrParse) {
			t.Fatalf("failure should wrap ErrParse, got %v", err)
		}
		return nil
	}}
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if err := h.source.Fetch(context.Background(), eventsSpec(day), sink); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(sink.records) != 2 || len(sink.failures) != 1 {
		t.Fatalf("records = %d failures = %d, want 2 and 1",
			len(sink.records), len(sink.failures))
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	h := newHarness(t, Config{})
	h.addBucket(t, "20240115000000", eventRow("a1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	err := h.source.Fetch(ctx, eventsSpec(day), &collectSink{})
	if err == nil {
		t.Fatal("Fetch with cancelled context should fail")
	}
}

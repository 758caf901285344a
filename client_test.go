package gdelt

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// rewriteTransport sends every request to the test server regardless of the
// host the client asked for, so the data.gdeltproject.org URLs from the
// inventory resolve against local fixtures.
type rewriteTransport struct{ host string }

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = "http"
	r.URL.Host = rt.host
	r.Host = rt.host
	return http.DefaultTransport.RoundTrip(r)
}

func zipArchive(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// clientEventRow builds a 61-column events line with the given overrides.
func clientEventRow(overrides map[int]string) string {
	f := make([]string, 61)
	f[0] = "1"
	f[1] = "20240115"
	for i, v := range overrides {
		f[i] = v
	}
	return strings.Join(f, "\t")
}

// fixtureServer serves a master file list plus the archives it references.
// archives maps stamp ("20240115000000") to TSV content; each becomes an
// export zip under /gdeltv2/.
func fixtureServer(t *testing.T, archives map[string]string, broken map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var inventory strings.Builder
	for stamp, content := range archives {
		name := stamp + ".export.CSV.zip"
		data := zipArchive(t, stamp+".export.CSV", content)
		url := "http://data.gdeltproject.org/gdeltv2/" + name
		fmt.Fprintf(&inventory, "%d %x %s\n", len(data), md5.Sum(data), url)
		if broken[stamp] {
			mux.HandleFunc("/gdeltv2/"+name, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "not here", http.StatusNotFound)
			})
			continue
		}
		body := data
		mux.HandleFunc("/gdeltv2/"+name, func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		})
	}
	mux.HandleFunc("/gdeltv2/masterfilelist.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, inventory.String())
	})
	mux.HandleFunc("/gdeltv2/masterfilelist-translation.txt", func(w http.ResponseWriter, r *http.Request) {
		// no translated archives in the fixtures
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		WithTransport(rewriteTransport{host: strings.TrimPrefix(srv.URL, "http://")}),
		WithCacheDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_EventsQuery(t *testing.T) {
	srv := fixtureServer(t, map[string]string{
		"20240115000000": strings.Join([]string{
			clientEventRow(map[int]string{0: "1", 7: "USA", 5: "USAGOV", 60: "http://news.example/a"}),
			clientEventRow(map[int]string{0: "2", 7: "FRA", 5: "FRA", 60: "http://news.example/b"}),
		}, "\n"),
		"20240115001500": strings.Join([]string{
			clientEventRow(map[int]string{0: "3", 7: "USA", 5: "USAGOV", 60: "http://news.example/a"}),
			clientEventRow(map[int]string{0: "4", 7: "USA", 5: "USAMIL", 60: "http://news.example/d"}),
		}, "\n"),
	}, nil)
	c := newTestClient(t, srv)

	res, err := c.Events().Query(context.Background(),
		EventFilter{DateRange: Day(2024, time.January, 15), Actor1Country: "USA"},
		WithDedup(DedupURLOnly))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !res.Complete() {
		t.Fatalf("unexpected failures: %+v", res.Failed)
	}
	// event 2 fails the country filter, event 3 is a duplicate of 1 by URL
	if len(res.Data) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(res.Data), res.Data)
	}
	if res.Data[0].GlobalEventID != 1 || res.Data[1].GlobalEventID != 4 {
		t.Fatalf("ids = %d, %d", res.Data[0].GlobalEventID, res.Data[1].GlobalEventID)
	}
	for _, ev := range res.Data {
		if ev.Actor1 == nil || ev.Actor1.CountryCode != "US" {
			t.Fatalf("actor1 = %+v, want FIPS US", ev.Actor1)
		}
	}
	if s := c.Stats(); s.Records == 0 {
		t.Fatal("stats should count raw records")
	}
}

func TestClient_EventsStreamClose(t *testing.T) {
	srv := fixtureServer(t, map[string]string{
		"20240115000000": clientEventRow(map[int]string{0: "1", 60: "http://news.example/a"}),
	}, nil)
	c := newTestClient(t, srv)

	st, err := c.Events().Stream(context.Background(),
		EventFilter{DateRange: Day(2024, time.January, 15)})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !st.Next() {
		t.Fatalf("no first record, err = %v", st.Err())
	}
	st.Close() // must not deadlock with the producer mid-stream
}

func TestClient_FailedBucketWarns(t *testing.T) {
	srv := fixtureServer(t, map[string]string{
		"20240115000000": clientEventRow(map[int]string{0: "1", 60: "http://news.example/a"}),
		"20240115001500": clientEventRow(map[int]string{0: "2", 60: "http://news.example/b"}),
	}, map[string]bool{"20240115001500": true})
	c := newTestClient(t, srv)

	res, err := c.Events().Query(context.Background(),
		EventFilter{DateRange: Day(2024, time.January, 15)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].GlobalEventID != 1 {
		t.Fatalf("data = %+v", res.Data)
	}
	if res.Complete() || len(res.Failed) != 1 {
		t.Fatalf("failed = %+v", res.Failed)
	}
	if !strings.Contains(res.Failed[0].URL, "20240115001500") {
		t.Fatalf("failed URL = %q", res.Failed[0].URL)
	}
	if res.Failed[0].Err == nil || res.Failed[0].Attempts < 1 {
		t.Fatalf("failed entry = %+v", res.Failed[0])
	}
}

func TestClient_FailedBucketRaises(t *testing.T) {
	srv := fixtureServer(t, map[string]string{
		"20240115000000": clientEventRow(map[int]string{0: "1", 60: "http://news.example/a"}),
	}, map[string]bool{"20240115000000": true})
	c := newTestClient(t, srv)

	_, err := c.Events().Query(context.Background(),
		EventFilter{DateRange: Day(2024, time.January, 15)},
		WithErrorPolicy(ErrorPolicyRaise))
	if err == nil {
		t.Fatal("raise policy must surface the bucket failure")
	}
}

func TestClient_InvalidFilterFailsFast(t *testing.T) {
	srv := fixtureServer(t, nil, nil)
	c := newTestClient(t, srv)

	_, err := c.Events().Query(context.Background(), EventFilter{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestClient_ForcedBigQueryUnconfigured(t *testing.T) {
	srv := fixtureServer(t, nil, nil)
	c := newTestClient(t, srv)

	if c.BigQueryConfigured() {
		t.Fatal("no project was configured")
	}
	_, err := c.Events().Query(context.Background(),
		EventFilter{DateRange: Day(2024, time.January, 15)},
		WithBigQuery())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestClient_CacheLayout(t *testing.T) {
	srv := fixtureServer(t, map[string]string{
		"20240115000000": clientEventRow(map[int]string{0: "1", 60: "http://news.example/a"}),
	}, nil)
	dir := t.TempDir()
	c, err := NewClient(
		WithTransport(rewriteTransport{host: strings.TrimPrefix(srv.URL, "http://")}),
		WithCacheDir(dir),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if _, err := c.Events().Query(context.Background(),
		EventFilter{DateRange: Day(2024, time.January, 15)}); err != nil {
		t.Fatalf("Query: %v", err)
	}

	// archives live directly under <cache_dir>/files with .meta sidecars
	names, err := os.ReadDir(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("reading cache dir: %v", err)
	}
	var zips, metas int
	for _, e := range names {
		switch {
		case strings.HasSuffix(e.Name(), ".zip"):
			zips++
		case strings.HasSuffix(e.Name(), ".meta"):
			metas++
		}
	}
	if zips != 1 || metas != 1 {
		t.Fatalf("cache entries = %d zips, %d metas, want 1 each", zips, metas)
	}
	if _, err := os.Stat(filepath.Join(dir, "masterlist.txt")); err != nil {
		t.Fatalf("persisted inventory: %v", err)
	}
}

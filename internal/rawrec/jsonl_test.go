package rawrec_test

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gdeltlab/gdelt-go/internal/decode"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/rawrec"
)

func collectJSONL(t *testing.T, input string) []*rawrec.NGram {
	t.Helper()
	var out []*rawrec.NGram
	err := rawrec.ParseJSONL(strings.NewReader(input),
		func(r rawrec.Record) error { out = append(out, r.(*rawrec.NGram)); return nil },
		func(line int, err error) error { return nil })
	if err != nil {
		t.Fatalf("ParseJSONL: %v", err)
	}
	return out
}

func TestParseJSONL_KnownFields(t *testing.T) {
	line := `{"date":"20240115120000","ngram":"climate","lang":"en","type":1,"pos":42,"pre":"the global","post":"crisis is","url":"http://example.com/a"}`
	recs := collectJSONL(t, line+"\n")
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	n := recs[0]
	if n.NGram != "climate" || n.Language != "en" || n.URL != "http://example.com/a" {
		t.Fatalf("bad mapping: %+v", n)
	}
	if n.Type != "1" || n.Position != "42" {
		t.Fatalf("numeric fields should render as integers: type=%q pos=%q", n.Type, n.Position)
	}
	if len(n.UnknownFields) != 0 {
		t.Fatalf("unknown fields = %v, want none", n.UnknownFields)
	}
}

func TestParseJSONL_CaseInsensitiveKeys(t *testing.T) {
	recs := collectJSONL(t, `{"Date":"20240115120000","NGram":"trade","Lang":"fr","URL":"http://example.com/b"}`+"\n")
	n := recs[0]
	if n.Date != "20240115120000" || n.NGram != "trade" || n.Language != "fr" {
		t.Fatalf("upper-case keys should map: %+v", n)
	}
}

func TestParseJSONL_UnknownFieldsPreserved(t *testing.T) {
	recs := collectJSONL(t, `{"ngram":"x","sentiment":0.5,"novel":"yes"}`+"\n")
	n := recs[0]
	if n.UnknownFields["sentiment"] != "0.5" || n.UnknownFields["novel"] != "yes" {
		t.Fatalf("unknown fields = %v", n.UnknownFields)
	}
}

func TestParseJSONL_MalformedLineSkipped(t *testing.T) {
	var bad int
	var out []*rawrec.NGram
	input := `{"ngram":"a"}` + "\n" + `{not json` + "\n" + `{"ngram":"b"}` + "\n"
	err := rawrec.ParseJSONL(strings.NewReader(input),
		func(r rawrec.Record) error { out = append(out, r.(*rawrec.NGram)); return nil },
		func(line int, err error) error {
			if !errors.Is(err, gdelterr.ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			bad++
			return nil
		})
	if err != nil {
		t.Fatalf("ParseJSONL: %v", err)
	}
	if bad != 1 || len(out) != 2 {
		t.Fatalf("bad = %d, kept = %d, want 1 and 2", bad, len(out))
	}
}

func TestParseJSONL_MalformedLineCanAbort(t *testing.T) {
	stop := errors.New("stop")
	err := rawrec.ParseJSONL(strings.NewReader("not json\n"),
		func(rawrec.Record) error { return nil },
		func(int, error) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
}

func TestParseJSONL_EmptyLinesSkipped(t *testing.T) {
	recs := collectJSONL(t, "\n\n"+`{"ngram":"z"}`+"\n\n")
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
}

func TestParseJSONL_SizeCapKeepsSecurityClass(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	for i := 0; i < 64; i++ {
		fmt.Fprintf(gw, `{"ngram":"word%d","lang":"en"}`+"\n", i)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	rc, err := decode.Decode(buf.Bytes(), decode.Gzip, 128)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer rc.Close()

	err = rawrec.ParseJSONL(rc,
		func(rawrec.Record) error { return nil },
		func(int, error) error { return nil })
	if !errors.Is(err, gdelterr.ErrSecurity) {
		t.Fatalf("expected ErrSecurity past the cap, got %v", err)
	}
	if errors.Is(err, gdelterr.ErrParse) {
		t.Fatalf("cap hit must not be reclassified as a parse error: %v", err)
	}
}

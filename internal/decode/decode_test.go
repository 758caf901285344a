package decode_test

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/gdeltlab/gdelt-go/internal/decode"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
)

func zipBytes(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := io.WriteString(gw, content); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecode_ZipAuto(t *testing.T) {
	data := zipBytes(t, "20240115120000.export.CSV", "a\tb\tc\n")
	r, err := decode.Decode(data, decode.Auto, 1<<20)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "a\tb\tc\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDecode_GzipAuto(t *testing.T) {
	data := gzipBytes(t, `{"ngram":"climate"}`+"\n")
	r, err := decode.Decode(data, decode.Auto, 1<<20)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != `{"ngram":"climate"}`+"\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDecode_CorruptZip(t *testing.T) {
	data := []byte("PK\x03\x04 this is not a zip")
	_, err := decode.Decode(data, decode.Auto, 1<<20)
	if !errors.Is(err, gdelterr.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := decode.Decode([]byte("plain text, no magic"), decode.Auto, 1<<20)
	if !errors.Is(err, gdelterr.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecode_SizeCapExceeded(t *testing.T) {
	big := strings.Repeat("x", 64*1024)
	data := gzipBytes(t, big)
	r, err := decode.Decode(data, decode.Auto, 1024)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer r.Close()
	_, err = io.ReadAll(r)
	if !errors.Is(err, gdelterr.ErrSecurity) {
		t.Fatalf("expected ErrSecurity, got %v", err)
	}
}

func TestDecode_ExactlyAtCapPasses(t *testing.T) {
	content := strings.Repeat("y", 2048)
	data := gzipBytes(t, content)
	r, err := decode.Decode(data, decode.Auto, 2048)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read at cap should pass: %v", err)
	}
	if len(got) != 2048 {
		t.Fatalf("len = %d, want 2048", len(got))
	}
}

func TestDecode_HintOverridesSniff(t *testing.T) {
	data := gzipBytes(t, "content")
	if _, err := decode.Decode(data, decode.Zip, 1<<20); !errors.Is(err, gdelterr.ErrDecode) {
		t.Fatalf("gzip bytes with Zip hint should fail decode, got %v", err)
	}
}

// Package decode turns downloaded archive bytes into a readable stream.
// Format is auto-detected from the magic prefix unless a hint is given.
// The cumulative decompressed size is checked per chunk against a cap so a
// decompression bomb fails fast instead of exhausting memory or disk.
package decode

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
)

// Format hints the decoder. Auto sniffs the magic prefix.
type Format int

const (
	Auto Format = iota
	Zip
	Gzip
)

// Decode returns a reader over the decompressed payload of data. GDELT
// archives contain exactly one member; for ZIP the first member is used.
// Reads past cap bytes fail with a security error.
func Decode(data []byte, hint Format, cap int64) (io.ReadCloser, error) {
	f := hint
	if f == Auto {
		f = sniff(data)
	}
	switch f {
	case Zip:
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: zip: %v", gdelterr.ErrDecode, err)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("%w: zip: no members", gdelterr.ErrDecode)
		}
		member, err := zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("%w: zip member %s: %v", gdelterr.ErrDecode, zr.File[0].Name, err)
		}
		return newCappedReader(member, cap), nil
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", gdelterr.ErrDecode, err)
		}
		return newCappedReader(gr, cap), nil
	default:
		return nil, fmt.Errorf("%w: unrecognized archive format", gdelterr.ErrDecode)
	}
}

func sniff(data []byte) Format {
	if len(data) >= 4 && data[0] == 'P' && data[1] == 'K' {
		return Zip
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return Gzip
	}
	return Auto // unrecognized; Decode reports it
}

// cappedReader enforces the cumulative decompressed-size cap. Decompression
// errors surface as decode errors; the cap surfaces as a security error.
type cappedReader struct {
	r     io.ReadCloser
	cap   int64
	total int64
}

func newCappedReader(r io.ReadCloser, cap int64) *cappedReader {
	return &cappedReader{r: r, cap: cap}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.total += int64(n)
	if c.cap > 0 && c.total > c.cap {
		return n, fmt.Errorf("%w: decompressed size exceeds cap of %d bytes",
			gdelterr.ErrSecurity, c.cap)
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %v", gdelterr.ErrDecode, err)
	}
	return n, err
}

func (c *cappedReader) Close() error { return c.r.Close() }

package httpclient

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// decodedBody wraps resp.Body according to Content-Encoding. Identity bodies
// pass through untouched.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch enc {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &wrappedBody{r: zr, underlying: resp.Body}, nil
	case "br":
		return &wrappedBody{r: brotli.NewReader(resp.Body), underlying: resp.Body}, nil
	default:
		return nil, fmt.Errorf("unsupported content-encoding %q", enc)
	}
}

// wrappedBody reads through the decoder and closes the underlying connection
// body when done.
type wrappedBody struct {
	r          io.Reader
	underlying io.ReadCloser
}

func (w *wrappedBody) Read(p []byte) (int, error) { return w.r.Read(p) }

func (w *wrappedBody) Close() error {
	if c, ok := w.r.(io.Closer); ok {
		c.Close()
	}
	return w.underlying.Close()
}

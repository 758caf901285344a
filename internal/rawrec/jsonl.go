package rawrec

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gdeltlab/gdelt-go/internal/dataset"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/metrics"
)

// ParseJSONL streams newline-delimited JSON ngram records from r. Empty lines
// are skipped; malformed lines go through onBad like malformed TSV rows.
// Unknown object keys are preserved in UnknownFields rather than dropped.
func ParseJSONL(r io.Reader, emit EmitFunc, onBad BadRowFunc) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	ds := dataset.NGrams.String()
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			metrics.ParseFailures.WithLabelValues(ds).Inc()
			perr := fmt.Errorf("%w: ngrams line %d: %v", gdelterr.ErrParse, lineNo, err)
			if cbErr := onBad(lineNo, perr); cbErr != nil {
				return cbErr
			}
			continue
		}

		metrics.RecordsParsed.WithLabelValues(ds).Inc()
		if err := emit(ngramFromObject(obj)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return readErr(ds, err)
	}
	return nil
}

// ngramFromObject maps the known keys (case-insensitively; the feed has used
// both upper and lower case) and banks the rest in UnknownFields.
func ngramFromObject(obj map[string]any) *NGram {
	n := &NGram{}
	for k, v := range obj {
		s := scalarString(v)
		switch strings.ToLower(k) {
		case "date":
			n.Date = s
		case "ngram":
			n.NGram = s
		case "lang":
			n.Language = s
		case "type":
			n.Type = s
		case "pos":
			n.Position = s
		case "pre":
			n.Pre = s
		case "post":
			n.Post = s
		case "url":
			n.URL = s
		default:
			if n.UnknownFields == nil {
				n.UnknownFields = make(map[string]string)
			}
			n.UnknownFields[k] = s
		}
	}
	return n
}

// scalarString renders a decoded JSON value as its raw-record string form.
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

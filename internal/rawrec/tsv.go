package rawrec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gdeltlab/gdelt-go/internal/dataset"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/metrics"
)

// columnTolerance is how far a row's field count may deviate from the
// dataset's expected count before the row is rejected. Extra columns within
// the margin land in Extras; missing trailing columns default to "".
const columnTolerance = 2

// GKG rows routinely exceed 1 MB (GCAM blocks); size the scanner for them.
const maxLineBytes = 8 << 20

// EmitFunc receives each parsed record. Returning an error stops the parse.
type EmitFunc func(Record) error

// BadRowFunc is called for each malformed row with its 1-based line number.
// Returning nil skips the row and continues; returning an error stops.
type BadRowFunc func(line int, err error) error

// ParseTSV streams tab-separated rows of ds from r. No header row exists in
// GDELT archives; every non-empty line is a record.
func ParseTSV(r io.Reader, ds dataset.Dataset, emit EmitFunc, onBad BadRowFunc) error {
	expected := ds.ColumnCount()
	if expected == 0 {
		return fmt.Errorf("%w: dataset %s is not tab-separated", gdelterr.ErrParse, ds)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		if len(fields) < expected-columnTolerance || len(fields) > expected+columnTolerance {
			metrics.ParseFailures.WithLabelValues(ds.String()).Inc()
			err := fmt.Errorf("%w: %s line %d: %d columns, expected %d±%d",
				gdelterr.ErrParse, ds, lineNo, len(fields), expected, columnTolerance)
			if cbErr := onBad(lineNo, err); cbErr != nil {
				return cbErr
			}
			continue
		}

		var rec Record
		switch ds {
		case dataset.Events:
			rec = newEvent(fields)
		case dataset.Mentions:
			rec = newMention(fields)
		case dataset.GKG:
			rec = newGKG(fields)
		default:
			return fmt.Errorf("%w: no TSV parser for dataset %s", gdelterr.ErrParse, ds)
		}

		metrics.RecordsParsed.WithLabelValues(ds.String()).Inc()
		if err := emit(rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return readErr(ds.String(), err)
	}
	return nil
}

// readErr classifies a mid-stream read failure. Errors from the decoder keep
// their own class (a size-cap hit stays a security error, a truncated archive
// stays a decode error); anything else is a parse error.
func readErr(ds string, err error) error {
	if errors.Is(err, gdelterr.ErrSecurity) || errors.Is(err, gdelterr.ErrDecode) {
		return fmt.Errorf("%s: read: %w", ds, err)
	}
	return fmt.Errorf("%w: %s: read: %v", gdelterr.ErrParse, ds, err)
}

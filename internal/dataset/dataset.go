// Package dataset enumerates the GDELT record families and their per-dataset
// constants: archive file naming, expected column counts, and the maximum
// date-range span a single query may cover.
package dataset

import "fmt"

// Dataset identifies one GDELT record family.
type Dataset string

const (
	Events    Dataset = "events"
	Mentions  Dataset = "mentions"
	GKG       Dataset = "gkg"
	NGrams    Dataset = "ngrams"
	Graphs    Dataset = "graphs"
	Broadcast Dataset = "broadcast"
)

// All lists every known dataset, in a stable order.
var All = []Dataset{Events, Mentions, GKG, NGrams, Graphs, Broadcast}

// Valid reports whether d is a known dataset.
func (d Dataset) Valid() bool {
	switch d {
	case Events, Mentions, GKG, NGrams, Graphs, Broadcast:
		return true
	}
	return false
}

func (d Dataset) String() string { return string(d) }

// MaxSpanDays is the longest date range (inclusive, in days) a single filter
// may cover for this dataset. Larger archives get shorter windows.
func (d Dataset) MaxSpanDays() int {
	switch d {
	case Events, Mentions:
		return 365
	case GKG:
		return 30
	case NGrams:
		return 7
	default:
		return 7
	}
}

// ColumnCount is the expected TSV field count for file-based datasets.
// Returns 0 for JSON-lines datasets.
func (d Dataset) ColumnCount() int {
	switch d {
	case Events:
		return 61
	case Mentions:
		return 16
	case GKG:
		return 27
	}
	return 0
}

// JSONLines reports whether the dataset's archives are newline-delimited JSON
// rather than TSV.
func (d Dataset) JSONLines() bool { return d == NGrams }

// FileToken is the token that identifies the dataset inside an archive
// filename (YYYYMMDDHHMMSS.<token>.csv.zip or .json.gz).
func (d Dataset) FileToken() string {
	switch d {
	case Events:
		return "export"
	case Mentions:
		return "mentions"
	case GKG:
		return "gkg"
	case NGrams:
		return "webngrams"
	case Graphs:
		return "ggg"
	case Broadcast:
		return "iatv"
	}
	return ""
}

// FromFileToken maps an archive filename token back to its dataset.
func FromFileToken(tok string) (Dataset, error) {
	for _, d := range All {
		if d.FileToken() == tok {
			return d, nil
		}
	}
	return "", fmt.Errorf("dataset: unknown file token %q", tok)
}

// BigQueryTable returns the published table name for the dataset, or "" when
// no warehouse table exists.
func (d Dataset) BigQueryTable() string {
	switch d {
	case Events:
		return "gdelt-bq.gdeltv2.events_partitioned"
	case Mentions:
		return "gdelt-bq.gdeltv2.eventmentions_partitioned"
	case GKG:
		return "gdelt-bq.gdeltv2.gkg_partitioned"
	case NGrams:
		return "gdelt-bq.gdeltv2.webngrams"
	}
	return ""
}

// Package query carries a validated, normalized query description from the
// public filter types down to the file and BigQuery sources. It is a plain
// data carrier: validation and code normalization happen before a Spec is
// built, so sources can trust every field as-is.
package query

import (
	"time"

	"github.com/gdeltlab/gdelt-go/internal/dataset"
)

// Spec is the internal form of a public filter. String-valued fields are
// already normalized (country codes to FIPS, themes upper-cased). Nil slices
// and nil range pointers mean "no constraint".
type Spec struct {
	Dataset dataset.Dataset

	// Start and End bound the query in UTC; End is inclusive.
	Start time.Time
	End   time.Time

	IncludeTranslated bool

	// Events / mentions predicates.
	Actor1CountryCode string
	Actor2CountryCode string
	ActionCountryCode string
	EventCodes        []string
	EventRootCodes    []string
	MinTone           *float64
	MaxTone           *float64

	// GKG predicates.
	Themes        []string
	ThemePrefixes []string
	Persons       []string
	Organizations []string
	SourceCountry string

	// NGrams predicates.
	NGramText   string
	Language    string
	MinPosition *int
	MaxPosition *int
}

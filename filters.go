package gdelt

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdeltlab/gdelt-go/internal/cameo"
	"github.com/gdeltlab/gdelt-go/internal/dataset"
	"github.com/gdeltlab/gdelt-go/internal/query"
)

// DateRange bounds a query in UTC. End is inclusive; a zero End means the
// same day as Start. Each dataset caps the span: 365 days for events and
// mentions, 30 for GKG, 7 for ngrams.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) resolve() (start, end time.Time, err error) {
	if r.Start.IsZero() {
		return start, end, fmt.Errorf("%w: date range start is required", ErrValidation)
	}
	start = r.Start.UTC()
	end = r.End.UTC()
	if r.End.IsZero() {
		end = start
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: date range end %s before start %s",
			ErrValidation, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

func (r DateRange) validateSpan(ds dataset.Dataset) (start, end time.Time, err error) {
	start, end, err = r.resolve()
	if err != nil {
		return
	}
	maxDays := ds.MaxSpanDays()
	if end.Sub(start) > time.Duration(maxDays)*24*time.Hour {
		err = fmt.Errorf("%w: %s date range exceeds %d days", ErrValidation, ds, maxDays)
	}
	return
}

// Day is shorthand for a single-day range.
func Day(year int, month time.Month, day int) DateRange {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: d, End: d}
}

// ─── Per-dataset filters ─────────────────────────────────────────────────────

// EventFilter selects events v2 records. Country codes accept FIPS 10-4 or
// ISO 3166-1 alpha-3 and are normalized to FIPS.
type EventFilter struct {
	DateRange DateRange

	Actor1Country string
	Actor2Country string
	ActionCountry string

	// EventCodes and EventRootCodes are exact CAMEO matches, OR within each
	// list.
	EventCodes     []string
	EventRootCodes []string

	MinTone *float64
	MaxTone *float64

	// IncludeTranslated overrides the client default when non-nil.
	IncludeTranslated *bool
}

// MentionFilter selects mentions v2 records.
type MentionFilter struct {
	DateRange         DateRange
	IncludeTranslated *bool
}

// GKGFilter selects GKG v2 records. Entity terms match case-insensitively:
// themes by set membership, theme prefixes by prefix, persons and
// organizations by substring, OR across the terms of each list.
type GKGFilter struct {
	DateRange DateRange

	Themes        []string
	ThemePrefixes []string
	Persons       []string
	Organizations []string

	// SourceCountry restricts to records whose first location is in the
	// given country (FIPS or ISO3).
	SourceCountry string

	MinTone *float64
	MaxTone *float64

	IncludeTranslated *bool
}

// NGramsFilter selects web ngrams 3.0 records.
type NGramsFilter struct {
	DateRange DateRange

	// NGram is a case-insensitive substring match on the ngram text.
	NGram    string
	Language string

	// Article position decile, 0 to 90.
	MinPosition *int
	MaxPosition *int
}

// ─── Validation and lowering ─────────────────────────────────────────────────

// validation context shared by all filters.
type filterEnv struct {
	validateCodes     bool
	includeTranslated bool
}

func normCountry(field, code string, strict bool) (string, error) {
	if code == "" {
		return "", nil
	}
	fips, ok := cameo.NormalizeCountry(code)
	if ok {
		return fips, nil
	}
	if strict {
		return "", fmt.Errorf("%w: unknown country code %q for %s", ErrValidation, code, field)
	}
	return strings.ToUpper(strings.TrimSpace(code)), nil
}

func (f EventFilter) toSpec(env filterEnv) (*query.Spec, error) {
	start, end, err := f.DateRange.validateSpan(dataset.Events)
	if err != nil {
		return nil, err
	}
	spec := &query.Spec{
		Dataset:           dataset.Events,
		Start:             start,
		End:               end,
		IncludeTranslated: boolOr(f.IncludeTranslated, env.includeTranslated),
		EventCodes:        trimAll(f.EventCodes),
		EventRootCodes:    trimAll(f.EventRootCodes),
		MinTone:           f.MinTone,
		MaxTone:           f.MaxTone,
	}
	if spec.MinTone != nil && spec.MaxTone != nil && *spec.MinTone > *spec.MaxTone {
		return nil, fmt.Errorf("%w: min_tone %v above max_tone %v",
			ErrValidation, *spec.MinTone, *spec.MaxTone)
	}
	if spec.Actor1CountryCode, err = normCountry("actor1_country", f.Actor1Country, env.validateCodes); err != nil {
		return nil, err
	}
	if spec.Actor2CountryCode, err = normCountry("actor2_country", f.Actor2Country, env.validateCodes); err != nil {
		return nil, err
	}
	if spec.ActionCountryCode, err = normCountry("action_country", f.ActionCountry, env.validateCodes); err != nil {
		return nil, err
	}
	return spec, nil
}

func (f MentionFilter) toSpec(env filterEnv) (*query.Spec, error) {
	start, end, err := f.DateRange.validateSpan(dataset.Mentions)
	if err != nil {
		return nil, err
	}
	return &query.Spec{
		Dataset:           dataset.Mentions,
		Start:             start,
		End:               end,
		IncludeTranslated: boolOr(f.IncludeTranslated, env.includeTranslated),
	}, nil
}

func (f GKGFilter) toSpec(env filterEnv) (*query.Spec, error) {
	start, end, err := f.DateRange.validateSpan(dataset.GKG)
	if err != nil {
		return nil, err
	}
	spec := &query.Spec{
		Dataset:           dataset.GKG,
		Start:             start,
		End:               end,
		IncludeTranslated: boolOr(f.IncludeTranslated, env.includeTranslated),
		Persons:           trimAll(f.Persons),
		Organizations:     trimAll(f.Organizations),
		MinTone:           f.MinTone,
		MaxTone:           f.MaxTone,
	}
	if spec.MinTone != nil && spec.MaxTone != nil && *spec.MinTone > *spec.MaxTone {
		return nil, fmt.Errorf("%w: min_tone %v above max_tone %v",
			ErrValidation, *spec.MinTone, *spec.MaxTone)
	}
	for _, th := range f.Themes {
		t := strings.ToUpper(strings.TrimSpace(th))
		if t == "" {
			continue
		}
		if env.validateCodes && !cameo.KnownTheme(t) {
			return nil, fmt.Errorf("%w: unknown theme %q", ErrValidation, th)
		}
		spec.Themes = append(spec.Themes, t)
	}
	for _, p := range f.ThemePrefixes {
		if t := strings.ToUpper(strings.TrimSpace(p)); t != "" {
			spec.ThemePrefixes = append(spec.ThemePrefixes, t)
		}
	}
	if spec.SourceCountry, err = normCountry("source_country", f.SourceCountry, env.validateCodes); err != nil {
		return nil, err
	}
	return spec, nil
}

func (f NGramsFilter) toSpec(env filterEnv) (*query.Spec, error) {
	start, end, err := f.DateRange.validateSpan(dataset.NGrams)
	if err != nil {
		return nil, err
	}
	for _, p := range []*int{f.MinPosition, f.MaxPosition} {
		if p != nil && (*p < 0 || *p > 90) {
			return nil, fmt.Errorf("%w: position %d outside 0..90", ErrValidation, *p)
		}
	}
	if f.MinPosition != nil && f.MaxPosition != nil && *f.MinPosition > *f.MaxPosition {
		return nil, fmt.Errorf("%w: min_position above max_position", ErrValidation)
	}
	return &query.Spec{
		Dataset:     dataset.NGrams,
		Start:       start,
		End:         end,
		NGramText:   strings.TrimSpace(f.NGram),
		Language:    strings.TrimSpace(f.Language),
		MinPosition: f.MinPosition,
		MaxPosition: f.MaxPosition,
	}, nil
}

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

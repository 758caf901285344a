package bqsource

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/gdeltlab/gdelt-go/internal/cameo"
	"github.com/gdeltlab/gdelt-go/internal/dataset"
	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
	"github.com/gdeltlab/gdelt-go/internal/query"
)

// Column lists per dataset, in raw-record order. These are the published
// gdelt-bq schema names; the mapper walks them positionally to rebuild the
// same field order the archive files use.
var (
	eventColumns = []string{
		"GLOBALEVENTID", "SQLDATE", "MonthYear", "Year", "FractionDate",
		"Actor1Code", "Actor1Name", "Actor1CountryCode", "Actor1KnownGroupCode",
		"Actor1EthnicCode", "Actor1Religion1Code", "Actor1Religion2Code",
		"Actor1Type1Code", "Actor1Type2Code", "Actor1Type3Code",
		"Actor2Code", "Actor2Name", "Actor2CountryCode", "Actor2KnownGroupCode",
		"Actor2EthnicCode", "Actor2Religion1Code", "Actor2Religion2Code",
		"Actor2Type1Code", "Actor2Type2Code", "Actor2Type3Code",
		"IsRootEvent", "EventCode", "EventBaseCode", "EventRootCode",
		"QuadClass", "GoldsteinScale", "NumMentions", "NumSources",
		"NumArticles", "AvgTone",
		"Actor1Geo_Type", "Actor1Geo_FullName", "Actor1Geo_CountryCode",
		"Actor1Geo_ADM1Code", "Actor1Geo_ADM2Code", "Actor1Geo_Lat",
		"Actor1Geo_Long", "Actor1Geo_FeatureID",
		"Actor2Geo_Type", "Actor2Geo_FullName", "Actor2Geo_CountryCode",
		"Actor2Geo_ADM1Code", "Actor2Geo_ADM2Code", "Actor2Geo_Lat",
		"Actor2Geo_Long", "Actor2Geo_FeatureID",
		"ActionGeo_Type", "ActionGeo_FullName", "ActionGeo_CountryCode",
		"ActionGeo_ADM1Code", "ActionGeo_ADM2Code", "ActionGeo_Lat",
		"ActionGeo_Long", "ActionGeo_FeatureID",
		"DATEADDED", "SOURCEURL",
	}
	mentionColumns = []string{
		"GLOBALEVENTID", "EventTimeDate", "MentionTimeDate", "MentionType",
		"MentionSourceName", "MentionIdentifier", "SentenceID",
		"Actor1CharOffset", "Actor2CharOffset", "ActionCharOffset",
		"InRawText", "Confidence", "MentionDocLen", "MentionDocTone",
		"MentionDocTranslationInfo", "Extras",
	}
	gkgColumns = []string{
		"GKGRECORDID", "DATE", "SourceCollectionIdentifier", "SourceCommonName",
		"DocumentIdentifier", "Counts", "V2Counts", "Themes", "V2Themes",
		"Locations", "V2Locations", "Persons", "V2Persons",
		"Organizations", "V2Organizations", "V2Tone", "Dates", "GCAM",
		"SharingImage", "RelatedImages", "SocialImageEmbeds",
		"SocialVideoEmbeds", "Quotations", "AllNames", "Amounts",
		"TranslationInfo", "Extras",
	}
	ngramColumns = []string{
		"DATE", "NGRAM", "LANG", "TYPE", "POS", "PRE", "POST", "URL",
	}
)

func columnsFor(ds dataset.Dataset) []string {
	switch ds {
	case dataset.Events:
		return eventColumns
	case dataset.Mentions:
		return mentionColumns
	case dataset.GKG:
		return gkgColumns
	case dataset.NGrams:
		return ngramColumns
	}
	return nil
}

// BuildQuery renders a parameterized standard-SQL query for spec. Every user
// value is bound as a parameter; nothing is interpolated into the SQL text.
// Partition pruning always applies: _PARTITIONTIME for the partitioned
// tables, the numeric DATE column for webngrams.
func BuildQuery(spec *query.Spec) (string, []bigquery.QueryParameter, error) {
	table := spec.Dataset.BigQueryTable()
	cols := columnsFor(spec.Dataset)
	if table == "" || cols == nil {
		return "", nil, fmt.Errorf("%w: dataset %s has no published table",
			gdelterr.ErrValidation, spec.Dataset)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s\nFROM `%s`\nWHERE ", strings.Join(cols, ", "), table)

	var conds []string
	var params []bigquery.QueryParameter
	bind := func(cond, name string, value any) {
		conds = append(conds, cond)
		params = append(params, bigquery.QueryParameter{Name: name, Value: value})
	}

	partStart := time.Date(spec.Start.Year(), spec.Start.Month(), spec.Start.Day(), 0, 0, 0, 0, time.UTC)
	partEnd := time.Date(spec.End.Year(), spec.End.Month(), spec.End.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	if spec.Dataset == dataset.NGrams {
		bind("DATE >= @part_start", "part_start", compactInt(partStart))
		bind("DATE < @part_end", "part_end", compactInt(partEnd))
	} else {
		bind("_PARTITIONTIME >= @part_start", "part_start", partStart)
		bind("_PARTITIONTIME < @part_end", "part_end", partEnd)
	}

	switch spec.Dataset {
	case dataset.Events:
		if spec.Actor1CountryCode != "" {
			bind("Actor1CountryCode = @actor1_country", "actor1_country", actorCode(spec.Actor1CountryCode))
		}
		if spec.Actor2CountryCode != "" {
			bind("Actor2CountryCode = @actor2_country", "actor2_country", actorCode(spec.Actor2CountryCode))
		}
		if spec.ActionCountryCode != "" {
			bind("ActionGeo_CountryCode = @action_country", "action_country", spec.ActionCountryCode)
		}
		if len(spec.EventCodes) > 0 {
			bind("EventCode IN UNNEST(@event_codes)", "event_codes", spec.EventCodes)
		}
		if len(spec.EventRootCodes) > 0 {
			bind("EventRootCode IN UNNEST(@event_root_codes)", "event_root_codes", spec.EventRootCodes)
		}
		if spec.MinTone != nil {
			bind("AvgTone >= @min_tone", "min_tone", *spec.MinTone)
		}
		if spec.MaxTone != nil {
			bind("AvgTone <= @max_tone", "max_tone", *spec.MaxTone)
		}

	case dataset.GKG:
		if re := termsRegexp(spec.Themes, spec.ThemePrefixes); re != "" {
			bind("REGEXP_CONTAINS(LOWER(V2Themes), @themes_re)", "themes_re", re)
		}
		if re := termsRegexp(spec.Persons, nil); re != "" {
			bind("REGEXP_CONTAINS(LOWER(V2Persons), @persons_re)", "persons_re", re)
		}
		if re := termsRegexp(spec.Organizations, nil); re != "" {
			bind("REGEXP_CONTAINS(LOWER(V2Organizations), @orgs_re)", "orgs_re", re)
		}
		if spec.SourceCountry != "" {
			bind("REGEXP_CONTAINS(LOWER(V2Locations), @source_country_re)",
				"source_country_re", "#"+strings.ToLower(spec.SourceCountry)+"#")
		}

	case dataset.NGrams:
		if spec.NGramText != "" {
			bind("STRPOS(LOWER(NGRAM), @ngram_text) > 0", "ngram_text", strings.ToLower(spec.NGramText))
		}
		if spec.Language != "" {
			bind("LANG = @language", "language", spec.Language)
		}
		if spec.MinPosition != nil {
			bind("POS >= @min_pos", "min_pos", int64(*spec.MinPosition))
		}
		if spec.MaxPosition != nil {
			bind("POS <= @max_pos", "max_pos", int64(*spec.MaxPosition))
		}
	}

	b.WriteString(strings.Join(conds, "\n  AND "))
	if spec.Dataset == dataset.NGrams {
		b.WriteString("\nORDER BY DATE")
	} else {
		b.WriteString("\nORDER BY " + cols[1]) // SQLDATE / EventTimeDate / DATE
	}
	return b.String(), params, nil
}

// actorCode maps a normalized FIPS code back to the ISO3-style code the CAMEO
// actor columns carry. Unmappable codes pass through unchanged.
func actorCode(fips string) string {
	if iso, ok := cameo.ISO3ForFIPS(fips); ok {
		return iso
	}
	return fips
}

// termsRegexp builds one lowercase alternation regex from exact terms plus
// prefix terms. User input is regexp-escaped before joining.
func termsRegexp(terms, prefixes []string) string {
	var alts []string
	for _, t := range terms {
		if t != "" {
			alts = append(alts, regexp.QuoteMeta(strings.ToLower(t)))
		}
	}
	for _, p := range prefixes {
		if p != "" {
			alts = append(alts, regexp.QuoteMeta(strings.ToLower(p))+"[a-z0-9_]*")
		}
	}
	if len(alts) == 0 {
		return ""
	}
	return strings.Join(alts, "|")
}

func compactInt(t time.Time) int64 {
	n, _ := strconv.ParseInt(t.Format("20060102150405"), 10, 64)
	return n
}

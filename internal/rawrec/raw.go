// Package rawrec defines the flat raw-record types that mirror GDELT's
// on-disk field order, and the TSV / JSON-lines parsers that produce them.
// Raw records stay strings end to end: numeric interpretation and validation
// happen at the public-record conversion layer, so a malformed row is still
// representable and can participate in deduplication.
package rawrec

import (
	"strings"

	"github.com/gdeltlab/gdelt-go/internal/dataset"
)

// Record is the union of the per-dataset raw types. The Key* getters expose
// the fields the dedup strategies are defined over; datasets without a field
// return "".
type Record interface {
	Dataset() dataset.Dataset
	KeySourceURL() string
	KeyDate() string
	KeyLocationID() string
	KeyActor1() string
	KeyActor2() string
	KeyAll() string
}

// FromFields builds the raw record for ds from fields in on-disk column
// order. Used by the BigQuery row mapper, which reassembles column order from
// the table schema. Fields beyond the known count land in Extras; missing
// trailing fields default to "".
func FromFields(ds dataset.Dataset, fields []string) (Record, bool) {
	switch ds {
	case dataset.Events:
		return newEvent(fields), true
	case dataset.Mentions:
		return newMention(fields), true
	case dataset.GKG:
		return newGKG(fields), true
	}
	return nil, false
}

// ─── Events v2 (61 columns) ──────────────────────────────────────────────────

// Event mirrors the 61-column events v2 export row.
type Event struct {
	GlobalEventID string
	Day           string
	MonthYear     string
	Year          string
	FractionDate  string

	Actor1Code          string
	Actor1Name          string
	Actor1CountryCode   string
	Actor1KnownGroup    string
	Actor1EthnicCode    string
	Actor1Religion1Code string
	Actor1Religion2Code string
	Actor1Type1Code     string
	Actor1Type2Code     string
	Actor1Type3Code     string

	Actor2Code          string
	Actor2Name          string
	Actor2CountryCode   string
	Actor2KnownGroup    string
	Actor2EthnicCode    string
	Actor2Religion1Code string
	Actor2Religion2Code string
	Actor2Type1Code     string
	Actor2Type2Code     string
	Actor2Type3Code     string

	IsRootEvent    string
	EventCode      string
	EventBaseCode  string
	EventRootCode  string
	QuadClass      string
	GoldsteinScale string
	NumMentions    string
	NumSources     string
	NumArticles    string
	AvgTone        string

	Actor1GeoType        string
	Actor1GeoFullname    string
	Actor1GeoCountryCode string
	Actor1GeoADM1Code    string
	Actor1GeoADM2Code    string
	Actor1GeoLat         string
	Actor1GeoLong        string
	Actor1GeoFeatureID   string

	Actor2GeoType        string
	Actor2GeoFullname    string
	Actor2GeoCountryCode string
	Actor2GeoADM1Code    string
	Actor2GeoADM2Code    string
	Actor2GeoLat         string
	Actor2GeoLong        string
	Actor2GeoFeatureID   string

	ActionGeoType        string
	ActionGeoFullname    string
	ActionGeoCountryCode string
	ActionGeoADM1Code    string
	ActionGeoADM2Code    string
	ActionGeoLat         string
	ActionGeoLong        string
	ActionGeoFeatureID   string

	DateAdded string
	SourceURL string

	// Extras holds unknown trailing columns so a schema bump never loses data.
	Extras []string
}

func (e *Event) Dataset() dataset.Dataset { return dataset.Events }
func (e *Event) KeySourceURL() string     { return e.SourceURL }
func (e *Event) KeyDate() string          { return e.Day }
func (e *Event) KeyLocationID() string    { return e.ActionGeoFeatureID }
func (e *Event) KeyActor1() string        { return e.Actor1Code }
func (e *Event) KeyActor2() string        { return e.Actor2Code }
func (e *Event) KeyAll() string {
	return strings.Join(eventFields(e), "\x1f")
}

func newEvent(f []string) *Event {
	e := &Event{}
	dst := eventSlots(e)
	for i, p := range dst {
		if i < len(f) {
			*p = f[i]
		}
	}
	if len(f) > len(dst) {
		e.Extras = append(e.Extras, f[len(dst):]...)
	}
	return e
}

// eventSlots returns the struct fields in on-disk column order.
func eventSlots(e *Event) []*string {
	return []*string{
		&e.GlobalEventID, &e.Day, &e.MonthYear, &e.Year, &e.FractionDate,
		&e.Actor1Code, &e.Actor1Name, &e.Actor1CountryCode, &e.Actor1KnownGroup,
		&e.Actor1EthnicCode, &e.Actor1Religion1Code, &e.Actor1Religion2Code,
		&e.Actor1Type1Code, &e.Actor1Type2Code, &e.Actor1Type3Code,
		&e.Actor2Code, &e.Actor2Name, &e.Actor2CountryCode, &e.Actor2KnownGroup,
		&e.Actor2EthnicCode, &e.Actor2Religion1Code, &e.Actor2Religion2Code,
		&e.Actor2Type1Code, &e.Actor2Type2Code, &e.Actor2Type3Code,
		&e.IsRootEvent, &e.EventCode, &e.EventBaseCode, &e.EventRootCode,
		&e.QuadClass, &e.GoldsteinScale, &e.NumMentions, &e.NumSources,
		&e.NumArticles, &e.AvgTone,
		&e.Actor1GeoType, &e.Actor1GeoFullname, &e.Actor1GeoCountryCode,
		&e.Actor1GeoADM1Code, &e.Actor1GeoADM2Code, &e.Actor1GeoLat,
		&e.Actor1GeoLong, &e.Actor1GeoFeatureID,
		&e.Actor2GeoType, &e.Actor2GeoFullname, &e.Actor2GeoCountryCode,
		&e.Actor2GeoADM1Code, &e.Actor2GeoADM2Code, &e.Actor2GeoLat,
		&e.Actor2GeoLong, &e.Actor2GeoFeatureID,
		&e.ActionGeoType, &e.ActionGeoFullname, &e.ActionGeoCountryCode,
		&e.ActionGeoADM1Code, &e.ActionGeoADM2Code, &e.ActionGeoLat,
		&e.ActionGeoLong, &e.ActionGeoFeatureID,
		&e.DateAdded, &e.SourceURL,
	}
}

func eventFields(e *Event) []string {
	slots := eventSlots(e)
	out := make([]string, 0, len(slots)+len(e.Extras))
	for _, p := range slots {
		out = append(out, *p)
	}
	return append(out, e.Extras...)
}

// ─── Mentions v2 (16 columns) ────────────────────────────────────────────────

type Mention struct {
	GlobalEventID       string
	EventTimeDate       string
	MentionTimeDate     string
	MentionType         string
	MentionSourceName   string
	MentionIdentifier   string
	SentenceID          string
	Actor1CharOffset    string
	Actor2CharOffset    string
	ActionCharOffset    string
	InRawText           string
	Confidence          string
	MentionDocLen       string
	MentionDocTone      string
	MentionDocTransInfo string
	MentionExtras       string

	Extras []string
}

func (m *Mention) Dataset() dataset.Dataset { return dataset.Mentions }
func (m *Mention) KeySourceURL() string     { return m.MentionIdentifier }
func (m *Mention) KeyDate() string          { return m.MentionTimeDate }
func (m *Mention) KeyLocationID() string    { return "" }
func (m *Mention) KeyActor1() string        { return "" }
func (m *Mention) KeyActor2() string        { return "" }
func (m *Mention) KeyAll() string {
	return strings.Join(mentionFields(m), "\x1f")
}

func newMention(f []string) *Mention {
	m := &Mention{}
	dst := mentionSlots(m)
	for i, p := range dst {
		if i < len(f) {
			*p = f[i]
		}
	}
	if len(f) > len(dst) {
		m.Extras = append(m.Extras, f[len(dst):]...)
	}
	return m
}

func mentionSlots(m *Mention) []*string {
	return []*string{
		&m.GlobalEventID, &m.EventTimeDate, &m.MentionTimeDate, &m.MentionType,
		&m.MentionSourceName, &m.MentionIdentifier, &m.SentenceID,
		&m.Actor1CharOffset, &m.Actor2CharOffset, &m.ActionCharOffset,
		&m.InRawText, &m.Confidence, &m.MentionDocLen, &m.MentionDocTone,
		&m.MentionDocTransInfo, &m.MentionExtras,
	}
}

func mentionFields(m *Mention) []string {
	slots := mentionSlots(m)
	out := make([]string, 0, len(slots)+len(m.Extras))
	for _, p := range slots {
		out = append(out, *p)
	}
	return append(out, m.Extras...)
}

// ─── GKG v2 (27 columns) ─────────────────────────────────────────────────────

type GKG struct {
	RecordID           string
	Date               string
	SourceCollectionID string
	SourceCommonName   string
	DocumentIdentifier string
	Counts             string
	V2Counts           string
	Themes             string
	V2Themes           string
	Locations          string
	V2Locations        string
	Persons            string
	V2Persons          string
	Organizations      string
	V2Organizations    string
	V2Tone             string
	Dates              string
	GCAM               string
	SharingImage       string
	RelatedImages      string
	SocialImageEmbeds  string
	SocialVideoEmbeds  string
	Quotations         string
	AllNames           string
	Amounts            string
	TranslationInfo    string
	ExtrasXML          string

	Extras []string
}

func (g *GKG) Dataset() dataset.Dataset { return dataset.GKG }
func (g *GKG) KeySourceURL() string     { return g.DocumentIdentifier }
func (g *GKG) KeyDate() string          { return g.Date }

// KeyLocationID is the feature ID of the first V2 location block, when
// present. V2 blocks carry 9 fields (ADM2 and char offset added); V1 blocks
// carry 7, with the feature ID last in both layouts' data portion.
func (g *GKG) KeyLocationID() string {
	first := g.V2Locations
	if i := strings.IndexByte(first, ';'); i >= 0 {
		first = first[:i]
	}
	parts := strings.Split(first, "#")
	switch {
	case len(parts) >= 8:
		return parts[7]
	case len(parts) == 7:
		return parts[6]
	}
	return ""
}

func (g *GKG) KeyActor1() string { return "" }
func (g *GKG) KeyActor2() string { return "" }
func (g *GKG) KeyAll() string {
	return strings.Join(gkgFields(g), "\x1f")
}

func newGKG(f []string) *GKG {
	g := &GKG{}
	dst := gkgSlots(g)
	for i, p := range dst {
		if i < len(f) {
			*p = f[i]
		}
	}
	if len(f) > len(dst) {
		g.Extras = append(g.Extras, f[len(dst):]...)
	}
	return g
}

func gkgSlots(g *GKG) []*string {
	return []*string{
		&g.RecordID, &g.Date, &g.SourceCollectionID, &g.SourceCommonName,
		&g.DocumentIdentifier, &g.Counts, &g.V2Counts, &g.Themes, &g.V2Themes,
		&g.Locations, &g.V2Locations, &g.Persons, &g.V2Persons,
		&g.Organizations, &g.V2Organizations, &g.V2Tone, &g.Dates, &g.GCAM,
		&g.SharingImage, &g.RelatedImages, &g.SocialImageEmbeds,
		&g.SocialVideoEmbeds, &g.Quotations, &g.AllNames, &g.Amounts,
		&g.TranslationInfo, &g.ExtrasXML,
	}
}

func gkgFields(g *GKG) []string {
	slots := gkgSlots(g)
	out := make([]string, 0, len(slots)+len(g.Extras))
	for _, p := range slots {
		out = append(out, *p)
	}
	return append(out, g.Extras...)
}

// ─── Web NGrams 3.0 (JSON-lines) ─────────────────────────────────────────────

type NGram struct {
	Date     string
	NGram    string
	Language string
	Type     string
	Position string
	Pre      string
	Post     string
	URL      string

	// UnknownFields preserves JSON keys the schema doesn't know about.
	UnknownFields map[string]string
}

func (n *NGram) Dataset() dataset.Dataset { return dataset.NGrams }
func (n *NGram) KeySourceURL() string     { return n.URL }
func (n *NGram) KeyDate() string          { return n.Date }
func (n *NGram) KeyLocationID() string    { return "" }
func (n *NGram) KeyActor1() string        { return "" }
func (n *NGram) KeyActor2() string        { return "" }
func (n *NGram) KeyAll() string {
	return strings.Join([]string{n.Date, n.NGram, n.Language, n.Type, n.Position, n.Pre, n.Post, n.URL}, "\x1f")
}

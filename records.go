package gdelt

import (
	"strconv"
	"strings"
	"time"

	"github.com/gdeltlab/gdelt-go/internal/cameo"
	"github.com/gdeltlab/gdelt-go/internal/dates"
	"github.com/gdeltlab/gdelt-go/internal/rawrec"
)

// ─── Shared sub-structures ───────────────────────────────────────────────────

// Actor is one side of a CAMEO-coded event. CountryCode is normalized to
// FIPS 10-4 when the raw code is recognisable, otherwise kept verbatim.
type Actor struct {
	Code        string
	Name        string
	CountryCode string
	KnownGroup  string
	Ethnic      string
	Religion1   string
	Religion2   string
	Type1       string
	Type2       string
	Type3       string
}

// Location is a resolved geography. Type runs 1 (country) to 5 (landmark).
// Lat and Lon are nil when the raw record carried no coordinates.
type Location struct {
	Type        int
	Name        string
	CountryCode string
	ADM1Code    string
	ADM2Code    string
	Lat         *float64
	Lon         *float64
	FeatureID   string
	CharOffset  int
}

// ToneScores is the 7-value V2Tone block.
type ToneScores struct {
	Tone                float64
	PositiveScore       float64
	NegativeScore       float64
	Polarity            float64
	ActivityRefDensity  float64
	SelfGroupRefDensity float64
	WordCount           int
}

// EntityMention is an offset-tagged name from a GKG V2 entity list.
type EntityMention struct {
	Name       string
	CharOffset int
}

// Quotation is one extracted quote from a GKG record.
type Quotation struct {
	Offset int
	Length int
	Verb   string
	Text   string
}

// ─── Events ──────────────────────────────────────────────────────────────────

// Event is the public form of an events v2 record. Conversion from raw is
// total: malformed numerics default to zero values rather than failing.
type Event struct {
	GlobalEventID int64
	Date          time.Time
	FractionDate  float64

	Actor1 *Actor
	Actor2 *Actor

	IsRootEvent    bool
	EventCode      string
	EventBaseCode  string
	EventRootCode  string
	QuadClass      int
	GoldsteinScale float64
	NumMentions    int
	NumSources     int
	NumArticles    int
	AvgTone        float64

	Actor1Geo *Location
	Actor2Geo *Location
	ActionGeo *Location

	DateAdded time.Time
	SourceURL string
}

func eventFromRaw(r *rawrec.Event) Event {
	return Event{
		GlobalEventID:  toInt64(r.GlobalEventID),
		Date:           toDate(r.Day),
		FractionDate:   toFloat(r.FractionDate),
		Actor1:         actorFromRaw(r.Actor1Code, r.Actor1Name, r.Actor1CountryCode, r.Actor1KnownGroup, r.Actor1EthnicCode, r.Actor1Religion1Code, r.Actor1Religion2Code, r.Actor1Type1Code, r.Actor1Type2Code, r.Actor1Type3Code),
		Actor2:         actorFromRaw(r.Actor2Code, r.Actor2Name, r.Actor2CountryCode, r.Actor2KnownGroup, r.Actor2EthnicCode, r.Actor2Religion1Code, r.Actor2Religion2Code, r.Actor2Type1Code, r.Actor2Type2Code, r.Actor2Type3Code),
		IsRootEvent:    r.IsRootEvent == "1",
		EventCode:      r.EventCode,
		EventBaseCode:  r.EventBaseCode,
		EventRootCode:  r.EventRootCode,
		QuadClass:      toInt(r.QuadClass),
		GoldsteinScale: toFloat(r.GoldsteinScale),
		NumMentions:    toInt(r.NumMentions),
		NumSources:     toInt(r.NumSources),
		NumArticles:    toInt(r.NumArticles),
		AvgTone:        toFloat(r.AvgTone),
		Actor1Geo:      geoFromRaw(r.Actor1GeoType, r.Actor1GeoFullname, r.Actor1GeoCountryCode, r.Actor1GeoADM1Code, r.Actor1GeoADM2Code, r.Actor1GeoLat, r.Actor1GeoLong, r.Actor1GeoFeatureID),
		Actor2Geo:      geoFromRaw(r.Actor2GeoType, r.Actor2GeoFullname, r.Actor2GeoCountryCode, r.Actor2GeoADM1Code, r.Actor2GeoADM2Code, r.Actor2GeoLat, r.Actor2GeoLong, r.Actor2GeoFeatureID),
		ActionGeo:      geoFromRaw(r.ActionGeoType, r.ActionGeoFullname, r.ActionGeoCountryCode, r.ActionGeoADM1Code, r.ActionGeoADM2Code, r.ActionGeoLat, r.ActionGeoLong, r.ActionGeoFeatureID),
		DateAdded:      toDate(r.DateAdded),
		SourceURL:      r.SourceURL,
	}
}

func actorFromRaw(code, name, country, group, ethnic, rel1, rel2, t1, t2, t3 string) *Actor {
	if code == "" && name == "" {
		return nil
	}
	return &Actor{
		Code:        code,
		Name:        name,
		CountryCode: normActorCountry(country),
		KnownGroup:  group,
		Ethnic:      ethnic,
		Religion1:   rel1,
		Religion2:   rel2,
		Type1:       t1,
		Type2:       t2,
		Type3:       t3,
	}
}

// normActorCountry converts the CAMEO/ISO3 affiliation code to FIPS when the
// code is a known country; unrecognised codes (ethnic groups, IGOs) pass
// through unchanged.
func normActorCountry(code string) string {
	if code == "" {
		return ""
	}
	if fips, ok := cameo.NormalizeCountry(code); ok {
		return fips
	}
	return code
}

func geoFromRaw(typ, name, country, adm1, adm2, lat, lon, featureID string) *Location {
	if typ == "" && name == "" {
		return nil
	}
	return &Location{
		Type:        toInt(typ),
		Name:        name,
		CountryCode: country,
		ADM1Code:    adm1,
		ADM2Code:    adm2,
		Lat:         toFloatPtr(lat),
		Lon:         toFloatPtr(lon),
		FeatureID:   featureID,
	}
}

// ─── Mentions ────────────────────────────────────────────────────────────────

// Mention is the public form of a mentions v2 record.
type Mention struct {
	GlobalEventID int64
	EventTime     time.Time
	MentionTime   time.Time
	MentionType   int
	SourceName    string
	Identifier    string
	SentenceID    int

	Actor1CharOffset int
	Actor2CharOffset int
	ActionCharOffset int

	InRawText       bool
	Confidence      int
	DocLength       int
	DocTone         float64
	TranslationInfo string
}

func mentionFromRaw(r *rawrec.Mention) Mention {
	return Mention{
		GlobalEventID:    toInt64(r.GlobalEventID),
		EventTime:        toDate(r.EventTimeDate),
		MentionTime:      toDate(r.MentionTimeDate),
		MentionType:      toInt(r.MentionType),
		SourceName:       r.MentionSourceName,
		Identifier:       r.MentionIdentifier,
		SentenceID:       toInt(r.SentenceID),
		Actor1CharOffset: toInt(r.Actor1CharOffset),
		Actor2CharOffset: toInt(r.Actor2CharOffset),
		ActionCharOffset: toInt(r.ActionCharOffset),
		InRawText:        r.InRawText == "1",
		Confidence:       toInt(r.Confidence),
		DocLength:        toInt(r.MentionDocLen),
		DocTone:          toFloat(r.MentionDocTone),
		TranslationInfo:  r.MentionDocTransInfo,
	}
}

// ─── GKG ─────────────────────────────────────────────────────────────────────

// GKGRecord is the public form of a GKG v2 record. Compound fields are split
// into typed lists; themes keep both the plain set and the offset-tagged
// mentions.
type GKGRecord struct {
	RecordID           string
	Date               time.Time
	SourceCollectionID int
	SourceName         string
	DocumentIdentifier string

	Themes        []string
	ThemeMentions []EntityMention
	Locations     []Location
	Persons       []EntityMention
	Organizations []EntityMention
	AllNames      []EntityMention
	Quotations    []Quotation

	Tone *ToneScores

	SharingImage    string
	TranslationInfo string
}

func gkgFromRaw(r *rawrec.GKG) GKGRecord {
	return GKGRecord{
		RecordID:           r.RecordID,
		Date:               toDate(r.Date),
		SourceCollectionID: toInt(r.SourceCollectionID),
		SourceName:         r.SourceCommonName,
		DocumentIdentifier: r.DocumentIdentifier,
		Themes:             themeNames(r.V2Themes, r.Themes),
		ThemeMentions:      splitEntityMentions(r.V2Themes),
		Locations:          splitLocations(r.V2Locations),
		Persons:            splitEntityMentions(r.V2Persons),
		Organizations:      splitEntityMentions(r.V2Organizations),
		AllNames:           splitEntityMentions(r.AllNames),
		Quotations:         splitQuotations(r.Quotations),
		Tone:               toneFromRaw(r.V2Tone),
		SharingImage:       r.SharingImage,
		TranslationInfo:    r.TranslationInfo,
	}
}

// themeNames prefers the V2 list, falling back to V1 when V2 is absent.
// Duplicate names (same theme at several offsets) collapse to one entry.
func themeNames(v2, v1 string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if v2 != "" {
		for _, m := range splitEntityMentions(v2) {
			add(m.Name)
		}
		return out
	}
	for _, t := range strings.Split(v1, ";") {
		add(strings.TrimSpace(t))
	}
	return out
}

// splitEntityMentions parses "Name,offset;Name,offset;…". Entries without an
// offset (V1 lists) get offset 0.
func splitEntityMentions(s string) []EntityMention {
	if s == "" {
		return nil
	}
	var out []EntityMention
	for _, block := range strings.Split(s, ";") {
		if block == "" {
			continue
		}
		name, off := block, 0
		if i := strings.LastIndexByte(block, ','); i >= 0 {
			if n, err := strconv.Atoi(block[i+1:]); err == nil {
				name, off = block[:i], n
			}
		}
		if name == "" {
			continue
		}
		out = append(out, EntityMention{Name: name, CharOffset: off})
	}
	return out
}

// splitLocations parses V2Locations blocks:
// type#name#country#adm1#adm2#lat#lon#featureID#offset. V1 blocks omit adm2
// and the offset.
func splitLocations(s string) []Location {
	if s == "" {
		return nil
	}
	var out []Location
	for _, block := range strings.Split(s, ";") {
		f := strings.Split(block, "#")
		if len(f) < 7 {
			continue
		}
		loc := Location{
			Type:        toInt(f[0]),
			Name:        f[1],
			CountryCode: f[2],
			ADM1Code:    f[3],
		}
		if len(f) >= 8 {
			loc.ADM2Code = f[4]
			loc.Lat = toFloatPtr(f[5])
			loc.Lon = toFloatPtr(f[6])
			loc.FeatureID = f[7]
			if len(f) >= 9 {
				loc.CharOffset = toInt(f[8])
			}
		} else {
			loc.Lat = toFloatPtr(f[4])
			loc.Lon = toFloatPtr(f[5])
			loc.FeatureID = f[6]
		}
		out = append(out, loc)
	}
	return out
}

// splitQuotations parses "offset|length|verb|quote#offset|length|verb|quote".
func splitQuotations(s string) []Quotation {
	if s == "" {
		return nil
	}
	var out []Quotation
	for _, block := range strings.Split(s, "#") {
		f := strings.SplitN(block, "|", 4)
		if len(f) < 4 || f[3] == "" {
			continue
		}
		out = append(out, Quotation{
			Offset: toInt(f[0]),
			Length: toInt(f[1]),
			Verb:   f[2],
			Text:   f[3],
		})
	}
	return out
}

func toneFromRaw(s string) *ToneScores {
	if s == "" {
		return nil
	}
	f := strings.Split(s, ",")
	get := func(i int) float64 {
		if i < len(f) {
			return toFloat(f[i])
		}
		return 0
	}
	t := &ToneScores{
		Tone:                get(0),
		PositiveScore:       get(1),
		NegativeScore:       get(2),
		Polarity:            get(3),
		ActivityRefDensity:  get(4),
		SelfGroupRefDensity: get(5),
	}
	if len(f) > 6 {
		t.WordCount = toInt(f[6])
	}
	return t
}

// ─── NGrams ──────────────────────────────────────────────────────────────────

// NGramRecord is the public form of a web ngrams 3.0 record.
type NGramRecord struct {
	Date     time.Time
	NGram    string
	Language string
	Type     int
	Position int
	Pre      string
	Post     string
	URL      string
}

func ngramFromRaw(r *rawrec.NGram) NGramRecord {
	return NGramRecord{
		Date:     toDate(r.Date),
		NGram:    r.NGram,
		Language: r.Language,
		Type:     toInt(r.Type),
		Position: toInt(r.Position),
		Pre:      r.Pre,
		Post:     r.Post,
		URL:      r.URL,
	}
}

// ─── Numeric defaults ────────────────────────────────────────────────────────

func toInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func toInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func toFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func toFloatPtr(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func toDate(s string) time.Time {
	t, _ := dates.ParseLenient(s)
	return t
}

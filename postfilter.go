package gdelt

import (
	"strings"

	"github.com/gdeltlab/gdelt-go/internal/query"
)

// Post-conversion predicates. The file source cannot push filters into the
// archives, so every predicate is re-checked here over public records; on the
// BigQuery path this re-check is redundant but harmless.

func eventMatches(spec *query.Spec, ev *Event) bool {
	if spec.Actor1CountryCode != "" && !actorInCountry(ev.Actor1, spec.Actor1CountryCode) {
		return false
	}
	if spec.Actor2CountryCode != "" && !actorInCountry(ev.Actor2, spec.Actor2CountryCode) {
		return false
	}
	if spec.ActionCountryCode != "" {
		if ev.ActionGeo == nil || !strings.EqualFold(ev.ActionGeo.CountryCode, spec.ActionCountryCode) {
			return false
		}
	}
	if len(spec.EventCodes) > 0 && !inSet(ev.EventCode, spec.EventCodes) {
		return false
	}
	if len(spec.EventRootCodes) > 0 && !inSet(ev.EventRootCode, spec.EventRootCodes) {
		return false
	}
	if spec.MinTone != nil && ev.AvgTone < *spec.MinTone {
		return false
	}
	if spec.MaxTone != nil && ev.AvgTone > *spec.MaxTone {
		return false
	}
	return true
}

func actorInCountry(a *Actor, fips string) bool {
	return a != nil && strings.EqualFold(a.CountryCode, fips)
}

func gkgMatches(spec *query.Spec, g *GKGRecord) bool {
	if len(spec.Themes) > 0 || len(spec.ThemePrefixes) > 0 {
		if !themesMatch(g.Themes, spec.Themes, spec.ThemePrefixes) {
			return false
		}
	}
	if len(spec.Persons) > 0 && !anySubstring(g.Persons, spec.Persons) {
		return false
	}
	if len(spec.Organizations) > 0 && !anySubstring(g.Organizations, spec.Organizations) {
		return false
	}
	if spec.SourceCountry != "" {
		if len(g.Locations) == 0 || !strings.EqualFold(g.Locations[0].CountryCode, spec.SourceCountry) {
			return false
		}
	}
	if spec.MinTone != nil && (g.Tone == nil || g.Tone.Tone < *spec.MinTone) {
		return false
	}
	if spec.MaxTone != nil && (g.Tone == nil || g.Tone.Tone > *spec.MaxTone) {
		return false
	}
	return true
}

// themesMatch is satisfied by any exact theme (set intersection) or any
// prefix hit, case-insensitively.
func themesMatch(have, want, prefixes []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
		for _, p := range prefixes {
			if len(h) >= len(p) && strings.EqualFold(h[:len(p)], p) {
				return true
			}
		}
	}
	return false
}

// anySubstring reports whether any mention name contains any term,
// case-insensitively. OR across terms.
func anySubstring(mentions []EntityMention, terms []string) bool {
	for _, m := range mentions {
		name := strings.ToLower(m.Name)
		for _, t := range terms {
			if strings.Contains(name, strings.ToLower(t)) {
				return true
			}
		}
	}
	return false
}

func ngramMatches(spec *query.Spec, n *NGramRecord) bool {
	if spec.NGramText != "" &&
		!strings.Contains(strings.ToLower(n.NGram), strings.ToLower(spec.NGramText)) {
		return false
	}
	if spec.Language != "" && !strings.EqualFold(n.Language, spec.Language) {
		return false
	}
	if spec.MinPosition != nil && n.Position < *spec.MinPosition {
		return false
	}
	if spec.MaxPosition != nil && n.Position > *spec.MaxPosition {
		return false
	}
	return true
}

func inSet(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Package safeurl validates archive URLs against an allow-list before they
// are offered for download. The inventory is fetched over the network, so a
// poisoned or corrupted line must not be able to point the client at an
// arbitrary host or scheme.
package safeurl

import (
	"net/url"
	"strings"
)

// Rule is one allowed (scheme, host, path-prefix) triple.
type Rule struct {
	Scheme     string // "http" or "https"
	Host       string
	PathPrefix string
}

// Allowlist holds the rules for expected GDELT archive locations.
type Allowlist struct {
	rules []Rule
}

// DefaultAllowlist covers the published GDELT file servers.
func DefaultAllowlist() *Allowlist {
	return NewAllowlist(
		Rule{Scheme: "http", Host: "data.gdeltproject.org", PathPrefix: "/gdeltv2/"},
		Rule{Scheme: "https", Host: "data.gdeltproject.org", PathPrefix: "/gdeltv2/"},
		Rule{Scheme: "http", Host: "data.gdeltproject.org", PathPrefix: "/gdeltv3/"},
		Rule{Scheme: "https", Host: "data.gdeltproject.org", PathPrefix: "/gdeltv3/"},
	)
}

func NewAllowlist(rules ...Rule) *Allowlist {
	return &Allowlist{rules: rules}
}

// Allowed reports whether raw parses as a URL matching any rule. Host
// comparison is case-insensitive; the path prefix is exact.
func (a *Allowlist) Allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	for _, r := range a.rules {
		if u.Scheme == r.Scheme &&
			strings.EqualFold(u.Host, r.Host) &&
			strings.HasPrefix(u.Path, r.PathPrefix) {
			return true
		}
	}
	return false
}

// IsHTTPOrHTTPS rejects file://, ftp:// and other schemes outright.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	s := parsed.Scheme
	return s == "http" || s == "https"
}

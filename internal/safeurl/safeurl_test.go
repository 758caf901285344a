package safeurl_test

import (
	"testing"

	"github.com/gdeltlab/gdelt-go/internal/safeurl"
)

func TestDefaultAllowlist(t *testing.T) {
	a := safeurl.DefaultAllowlist()
	allowed := []string{
		"http://data.gdeltproject.org/gdeltv2/20240115120000.export.CSV.zip",
		"https://data.gdeltproject.org/gdeltv2/20240115120000.gkg.csv.zip",
		"http://DATA.GDELTPROJECT.ORG/gdeltv2/x.zip",
		"https://data.gdeltproject.org/gdeltv3/webngrams/20240115120000.webngrams.json.gz",
	}
	for _, u := range allowed {
		if !a.Allowed(u) {
			t.Errorf("Allowed(%q) = false, want true", u)
		}
	}
	denied := []string{
		"http://evil.example.com/gdeltv2/20240115120000.export.CSV.zip",
		"ftp://data.gdeltproject.org/gdeltv2/x.zip",
		"file:///etc/passwd",
		"http://data.gdeltproject.org/private/x.zip",
		"http://data.gdeltproject.org.evil.com/gdeltv2/x.zip",
		"",
	}
	for _, u := range denied {
		if a.Allowed(u) {
			t.Errorf("Allowed(%q) = true, want false", u)
		}
	}
}

func TestIsHTTPOrHTTPS(t *testing.T) {
	if !safeurl.IsHTTPOrHTTPS("https://example.com/a") {
		t.Fatal("https should pass")
	}
	if safeurl.IsHTTPOrHTTPS("file:///etc/passwd") {
		t.Fatal("file scheme should fail")
	}
}

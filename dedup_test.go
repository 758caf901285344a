package gdelt

import (
	"testing"

	"github.com/gdeltlab/gdelt-go/internal/rawrec"
)

func dedupEvent(url, day, locID, a1, a2 string) *rawrec.Event {
	return &rawrec.Event{
		SourceURL:          url,
		Day:                day,
		ActionGeoFeatureID: locID,
		Actor1Code:         a1,
		Actor2Code:         a2,
	}
}

func TestDedupOff_AdmitsEverything(t *testing.T) {
	d, err := newDeduper(DedupOff, 0)
	if err != nil {
		t.Fatal(err)
	}
	r := dedupEvent("u", "20240115", "", "", "")
	if !d.admit(r) || !d.admit(r) {
		t.Fatal("off strategy must never drop")
	}
}

func TestDedupURLOnly(t *testing.T) {
	d, _ := newDeduper(DedupURLOnly, 0)
	if !d.admit(dedupEvent("https://a", "20240115", "", "", "")) {
		t.Fatal("first occurrence dropped")
	}
	if d.admit(dedupEvent("https://a", "20240116", "", "", "")) {
		t.Fatal("same URL on a different day must still be a duplicate")
	}
	if !d.admit(dedupEvent("https://b", "20240115", "", "", "")) {
		t.Fatal("distinct URL dropped")
	}
}

func TestDedupURLDate(t *testing.T) {
	d, _ := newDeduper(DedupURLDate, 0)
	d.admit(dedupEvent("https://a", "20240115", "", "", ""))
	if d.admit(dedupEvent("https://a", "20240115", "", "", "")) {
		t.Fatal("same URL and date must be a duplicate")
	}
	if !d.admit(dedupEvent("https://a", "20240116", "", "", "")) {
		t.Fatal("same URL on a new date must be admitted")
	}
}

func TestDedupURLDateLocation(t *testing.T) {
	d, _ := newDeduper(DedupURLDateLocation, 0)
	d.admit(dedupEvent("https://a", "20240115", "531871", "", ""))
	if d.admit(dedupEvent("https://a", "20240115", "531871", "", "")) {
		t.Fatal("same triple must be a duplicate")
	}
	if !d.admit(dedupEvent("https://a", "20240115", "537227", "", "")) {
		t.Fatal("new location must be admitted")
	}
}

func TestDedupActorPair(t *testing.T) {
	d, _ := newDeduper(DedupActorPair, 0)
	d.admit(dedupEvent("https://a", "20240115", "", "USA", "RUS"))
	if d.admit(dedupEvent("https://b", "20240115", "", "USA", "RUS")) {
		t.Fatal("same actors and date must be a duplicate regardless of URL")
	}
	if !d.admit(dedupEvent("https://a", "20240115", "", "RUS", "USA")) {
		t.Fatal("swapped actors are a distinct pair")
	}
}

func TestDedupFull(t *testing.T) {
	d, _ := newDeduper(DedupFull, 0)
	a := dedupEvent("https://a", "20240115", "", "USA", "RUS")
	b := dedupEvent("https://a", "20240115", "", "USA", "RUS")
	b.AvgTone = "1.5"
	if !d.admit(a) {
		t.Fatal("first dropped")
	}
	if d.admit(a) {
		t.Fatal("identical record must be a duplicate")
	}
	if !d.admit(b) {
		t.Fatal("any differing field makes the record distinct")
	}
}

func TestDedupWindow_ReadmitsAfterEviction(t *testing.T) {
	d, err := newDeduper(DedupURLOnly, 2)
	if err != nil {
		t.Fatal(err)
	}
	a := dedupEvent("https://a", "", "", "", "")
	d.admit(a)
	d.admit(dedupEvent("https://b", "", "", "", ""))
	d.admit(dedupEvent("https://c", "", "", "", "")) // evicts a
	if !d.admit(a) {
		t.Fatal("evicted key should be admitted again")
	}
}

func TestDedupStrategyString(t *testing.T) {
	cases := map[DedupStrategy]string{
		DedupOff:             "off",
		DedupURLOnly:         "url_only",
		DedupURLDate:         "url_date",
		DedupURLDateLocation: "url_date_location",
		DedupActorPair:       "actor_pair",
		DedupFull:            "full",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}

package timestamp

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWireFormatUTC(t *testing.T) {
	ts, err := Date(2003, time.November, 10, 6, 0, 0, "")
	if err != nil {
		t.Fatalf("build timestamp: %v", err)
	}
	if got := ts.String(); got != "2003-11-10T06:00:00Z" {
		t.Errorf("expected 2003-11-10T06:00:00Z, got %s", got)
	}
}

func TestWireFormatZoned(t *testing.T) {
	ts, err := Date(2003, time.November, 10, 0, 0, 0, "US/Central")
	if err != nil {
		t.Fatalf("build timestamp: %v", err)
	}
	// Midnight Central is 06:00 UTC (CST, UTC-6).
	if got := ts.String(); got != "2003-11-10T06:00:00Z US/Central" {
		t.Errorf("unexpected wire format: %s", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"2003-11-10T06:00:00Z",
		"2003-11-10T06:00:00Z US/Central",
		"2011-10-29T00:00:00Z Europe/Berlin",
	}
	for _, c := range cases {
		ts, err := Parse(c)
		if err != nil {
			t.Fatalf("parse %q: %v", c, err)
		}
		if got := ts.String(); got != c {
			t.Errorf("round trip of %q gave %q", c, got)
		}
	}
}

func TestParseLegacyLongFraction(t *testing.T) {
	// Journals written by older versions carry twelve fractional digits.
	ts, err := Parse("2003-11-10T06:00:00.000000000000Z")
	if err != nil {
		t.Fatalf("parse legacy fraction: %v", err)
	}
	want, _ := Date(2003, time.November, 10, 6, 0, 0, "")
	if !ts.Equal(want) {
		t.Errorf("expected %s, got %s", want, ts)
	}
}

func TestParseRejectsUnknownZone(t *testing.T) {
	if _, err := Parse("2003-11-10T06:00:00Z Mars/Olympus"); err == nil {
		t.Error("expected an error for an unknown zone")
	}
}

func TestEqualityAcrossZones(t *testing.T) {
	utc, _ := Date(2003, time.November, 10, 6, 0, 0, "")
	central, _ := Date(2003, time.November, 10, 0, 0, 0, "US/Central")
	if !utc.Equal(central) {
		t.Errorf("expected %s to equal %s", utc, central)
	}
	if utc.Compare(central) != 0 {
		t.Errorf("expected Compare to return 0")
	}
}

func TestOrdering(t *testing.T) {
	early, _ := Date(2011, time.October, 29, 0, 0, 0, "")
	late, _ := Date(2011, time.November, 5, 0, 0, 0, "")
	if !early.Before(late) || !late.After(early) {
		t.Error("ordering is broken")
	}
	if early.Compare(late) != -1 || late.Compare(early) != 1 {
		t.Error("Compare disagrees with Before/After")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	ts, _ := Date(2003, time.November, 10, 0, 0, 0, "US/Central")
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2003-11-10T06:00:00Z US/Central"` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(ts) || back.Zone() != "US/Central" {
		t.Errorf("round trip lost information: %s", back)
	}
}

func TestLocalRendering(t *testing.T) {
	ts, _ := Parse("2003-11-10T06:00:00Z US/Central")
	local := ts.Local()
	if local.Hour() != 0 {
		t.Errorf("expected midnight Central, got hour %d", local.Hour())
	}
}

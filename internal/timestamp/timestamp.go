// Package timestamp provides a timestamp that remembers the IANA time zone it
// was recorded in while comparing and ordering by absolute instant.
//
// The wire format is an RFC3339 UTC instant, optionally followed by a single
// space and the zone name:
//
//	"2003-11-10T06:00:00Z"
//	"2003-11-10T06:00:00Z US/Central"
//
// Two timestamps recorded in different zones are equal when they denote the
// same instant.
package timestamp

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp is an absolute instant plus the zone name it was recorded in.
// The zero value is the zero instant in UTC.
type Timestamp struct {
	utc  time.Time
	zone string // IANA zone name; empty means UTC
}

// New builds a Timestamp from t, remembering t's location name. The names
// "UTC", "Local", and fixed-offset names collapse to UTC: only real IANA
// names survive a round-trip through the wire format.
func New(t time.Time) Timestamp {
	name := t.Location().String()
	if _, err := time.LoadLocation(name); err != nil || name == "UTC" || name == "Local" || name == "" {
		return Timestamp{utc: t.UTC()}
	}
	return Timestamp{utc: t.UTC(), zone: name}
}

// At builds a Timestamp for instant t recorded in the named zone.
// An empty zone means UTC.
func At(t time.Time, zone string) (Timestamp, error) {
	if zone == "" || zone == "UTC" {
		return Timestamp{utc: t.UTC()}, nil
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return Timestamp{}, fmt.Errorf("unknown time zone %q: %w", zone, err)
	}
	return Timestamp{utc: t.UTC(), zone: zone}, nil
}

// Now returns the current instant in UTC.
func Now() Timestamp {
	return Timestamp{utc: time.Now().UTC()}
}

// Date builds a Timestamp from calendar fields in the named zone.
// It is primarily a test and CLI convenience.
func Date(year int, month time.Month, day, hour, min, sec int, zone string) (Timestamp, error) {
	loc := time.UTC
	if zone != "" && zone != "UTC" {
		var err error
		loc, err = time.LoadLocation(zone)
		if err != nil {
			return Timestamp{}, fmt.Errorf("unknown time zone %q: %w", zone, err)
		}
	}
	t := time.Date(year, month, day, hour, min, sec, 0, loc)
	return At(t, zone)
}

// Parse decodes the wire format.
func Parse(s string) (Timestamp, error) {
	instant := s
	zone := ""
	if i := strings.IndexByte(s, ' '); i >= 0 {
		instant, zone = s[:i], s[i+1:]
	}

	t, err := time.Parse(time.RFC3339Nano, truncateFraction(instant))
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return At(t, zone)
}

// truncateFraction caps fractional seconds at nanosecond precision. Legacy
// journals carry up to twelve fractional digits.
func truncateFraction(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	end := dot + 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end-dot-1 <= 9 {
		return s
	}
	return s[:dot+10] + s[end:]
}

// UTC returns the instant in UTC.
func (ts Timestamp) UTC() time.Time { return ts.utc }

// Zone returns the recorded IANA zone name, or "" for UTC.
func (ts Timestamp) Zone() string { return ts.zone }

// Local returns the instant expressed in the recorded zone.
func (ts Timestamp) Local() time.Time {
	if ts.zone == "" {
		return ts.utc
	}
	loc, err := time.LoadLocation(ts.zone)
	if err != nil {
		return ts.utc
	}
	return ts.utc.In(loc)
}

// IsZero reports whether ts is the zero Timestamp.
func (ts Timestamp) IsZero() bool { return ts.utc.IsZero() }

// Equal reports whether both timestamps denote the same instant.
func (ts Timestamp) Equal(other Timestamp) bool { return ts.utc.Equal(other.utc) }

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.utc.Before(other.utc) }

// After reports whether ts is strictly later than other.
func (ts Timestamp) After(other Timestamp) bool { return ts.utc.After(other.utc) }

// Compare orders by instant: -1, 0, or +1.
func (ts Timestamp) Compare(other Timestamp) int { return ts.utc.Compare(other.utc) }

// String renders the wire format.
func (ts Timestamp) String() string {
	s := ts.utc.Format(time.RFC3339Nano)
	if ts.zone != "" {
		s += " " + ts.zone
	}
	return s
}

// MarshalText implements encoding.TextMarshaler using the wire format.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

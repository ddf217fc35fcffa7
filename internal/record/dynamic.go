package record

import (
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// Dynamic is a schema-less payload used by the daemon and CLI, where the
// record type is not known at compile time. Every Dynamic carries a
// timestamp, an optional tag list, and an arbitrary bag of fields.
type Dynamic struct {
	Time   timestamp.Timestamp `json:"timestamp"`
	Labels []string            `json:"tags,omitempty"`
	Fields map[string]any      `json:"fields,omitempty"`
}

// NewDynamic builds a Dynamic payload with normalized tags.
func NewDynamic(ts timestamp.Timestamp, tags []string, fields map[string]any) Dynamic {
	return Dynamic{Time: ts, Labels: NormalizeTags(tags), Fields: fields}
}

// Timestamp implements Recordable.
func (d Dynamic) Timestamp() timestamp.Timestamp { return d.Time }

// Tags implements Recordable.
func (d Dynamic) Tags() []string { return d.Labels }

// Validate checks the invariants a Dynamic must satisfy before it is stored.
func (d Dynamic) Validate() error {
	if d.Time.IsZero() {
		return fmt.Errorf("dynamic record is missing a timestamp")
	}
	for _, tag := range d.Labels {
		if tag == "" {
			return fmt.Errorf("dynamic record has an empty tag")
		}
	}
	return nil
}

// NormalizeTags NFC-normalizes tags and drops duplicates and empty strings,
// preserving first-seen order. Tag lookups compare byte-for-byte, so
// canonically equivalent Unicode spellings must collapse to one form.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = norm.NFC.String(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

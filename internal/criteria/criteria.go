// Package criteria provides composable predicates for searching a dataset.
package criteria

import (
	"slices"

	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// Criteria is a predicate over a record.
type Criteria interface {
	// Matches returns true only if the record satisfies the criteria.
	Matches(r record.Recordable) bool
}

// And matches when both sides match.
type And struct {
	Left  Criteria
	Right Criteria
}

func (c And) Matches(r record.Recordable) bool {
	return c.Left.Matches(r) && c.Right.Matches(r)
}

// Or matches when either side matches.
type Or struct {
	Left  Criteria
	Right Criteria
}

func (c Or) Matches(r record.Recordable) bool {
	return c.Left.Matches(r) || c.Right.Matches(r)
}

// StartTime is the lower time bound of a search.
type StartTime struct {
	Time      timestamp.Timestamp
	Inclusive bool
}

func (c StartTime) Matches(r record.Recordable) bool {
	ts := r.Timestamp()
	if c.Inclusive {
		return !ts.Before(c.Time)
	}
	return ts.After(c.Time)
}

// EndTime is the upper time bound of a search.
type EndTime struct {
	Time      timestamp.Timestamp
	Inclusive bool
}

func (c EndTime) Matches(r record.Recordable) bool {
	ts := r.Timestamp()
	if c.Inclusive {
		return !ts.After(c.Time)
	}
	return ts.Before(c.Time)
}

// HasTags matches records carrying every listed tag.
type HasTags struct {
	Tags []string
}

func (c HasTags) Matches(r record.Recordable) bool {
	have := r.Tags()
	for _, want := range c.Tags {
		if !slices.Contains(have, want) {
			return false
		}
	}
	return true
}

// ExactTime matches records whose timestamp equals ts.
func ExactTime(ts timestamp.Timestamp) Criteria {
	return And{
		Left:  StartTime{Time: ts, Inclusive: true},
		Right: EndTime{Time: ts, Inclusive: true},
	}
}

// TimeRange matches records between start and end, with per-bound
// inclusivity.
func TimeRange(start timestamp.Timestamp, startIncl bool, end timestamp.Timestamp, endIncl bool) Criteria {
	return And{
		Left:  StartTime{Time: start, Inclusive: startIncl},
		Right: EndTime{Time: end, Inclusive: endIncl},
	}
}

package criteria

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

func at(t *testing.T, day int) timestamp.Timestamp {
	t.Helper()
	ts, err := timestamp.Date(2011, time.October, day, 0, 0, 0, "")
	if err != nil {
		t.Fatalf("build timestamp: %v", err)
	}
	return ts
}

func sample(t *testing.T, day int, tags ...string) record.Dynamic {
	t.Helper()
	return record.NewDynamic(at(t, day), tags, nil)
}

func TestStartTimeBounds(t *testing.T) {
	rec := sample(t, 15)

	if !(StartTime{Time: at(t, 15), Inclusive: true}).Matches(rec) {
		t.Error("inclusive start should match the boundary")
	}
	if (StartTime{Time: at(t, 15), Inclusive: false}).Matches(rec) {
		t.Error("exclusive start should reject the boundary")
	}
	if !(StartTime{Time: at(t, 10), Inclusive: false}).Matches(rec) {
		t.Error("later records should match")
	}
}

func TestEndTimeBounds(t *testing.T) {
	rec := sample(t, 15)

	if !(EndTime{Time: at(t, 15), Inclusive: true}).Matches(rec) {
		t.Error("inclusive end should match the boundary")
	}
	if (EndTime{Time: at(t, 15), Inclusive: false}).Matches(rec) {
		t.Error("exclusive end should reject the boundary")
	}
	if (EndTime{Time: at(t, 10), Inclusive: true}).Matches(rec) {
		t.Error("later records should not match")
	}
}

func TestExactTime(t *testing.T) {
	c := ExactTime(at(t, 15))
	if !c.Matches(sample(t, 15)) {
		t.Error("expected exact match")
	}
	if c.Matches(sample(t, 16)) {
		t.Error("expected mismatch for a different day")
	}
}

func TestTimeRange(t *testing.T) {
	c := TimeRange(at(t, 10), true, at(t, 20), false)
	cases := []struct {
		day  int
		want bool
	}{
		{9, false}, {10, true}, {15, true}, {20, false}, {21, false},
	}
	for _, tc := range cases {
		if got := c.Matches(sample(t, tc.day)); got != tc.want {
			t.Errorf("day %d: expected %v, got %v", tc.day, tc.want, got)
		}
	}
}

func TestHasTags(t *testing.T) {
	rec := sample(t, 15, "long", "hilly")

	if !(HasTags{Tags: []string{"long"}}).Matches(rec) {
		t.Error("single present tag should match")
	}
	if !(HasTags{Tags: []string{"long", "hilly"}}).Matches(rec) {
		t.Error("all present tags should match")
	}
	if (HasTags{Tags: []string{"long", "flat"}}).Matches(rec) {
		t.Error("a missing tag should fail the match")
	}
	if !(HasTags{}).Matches(rec) {
		t.Error("the empty tag list matches everything")
	}
}

func TestOrCombinator(t *testing.T) {
	c := Or{
		Left:  ExactTime(at(t, 10)),
		Right: HasTags{Tags: []string{"long"}},
	}
	if !c.Matches(sample(t, 10)) {
		t.Error("left side should match")
	}
	if !c.Matches(sample(t, 15, "long")) {
		t.Error("right side should match")
	}
	if c.Matches(sample(t, 15)) {
		t.Error("neither side should match")
	}
}

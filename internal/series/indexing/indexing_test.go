package indexing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

func day(t *testing.T, d int) timestamp.Timestamp {
	t.Helper()
	ts, err := timestamp.Date(2011, time.November, d, 0, 0, 0, "")
	require.NoError(t, err)
	return ts
}

func entry(t *testing.T, d int, tags ...string) (record.ID, record.Dynamic) {
	t.Helper()
	return record.NewID(), record.NewDynamic(day(t, d), tags, nil)
}

func TestByTimeRangeLookup(t *testing.T) {
	ix := NewByTime()

	ids := make(map[int]record.ID)
	for _, d := range []int{1, 3, 5, 7} {
		id, rec := entry(t, d)
		ids[d] = id
		ix.Insert(id, rec)
	}

	got, ok := ix.TimeRange(day(t, 3), day(t, 5))
	require.True(t, ok)
	assert.Equal(t, []record.ID{ids[3], ids[5]}, got)

	// Bounds are inclusive on both ends.
	got, ok = ix.TimeRange(day(t, 1), day(t, 7))
	require.True(t, ok)
	assert.Len(t, got, 4)

	// An empty window yields no IDs but is still served.
	got, ok = ix.TimeRange(day(t, 8), day(t, 9))
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestByTimeOrdersAcrossBuckets(t *testing.T) {
	ix := NewByTime()

	// Insert out of order; lookups must come back in timestamp order.
	var want []record.ID
	for _, d := range []int{5, 1, 3} {
		id, rec := entry(t, d)
		ix.Insert(id, rec)
		want = append(want, id)
	}

	got, ok := ix.TimeRange(day(t, 1), day(t, 5))
	require.True(t, ok)
	assert.Equal(t, []record.ID{want[1], want[2], want[0]}, got)
}

func TestByTimeSharedBucket(t *testing.T) {
	ix := NewByTime()

	idA, recA := entry(t, 2)
	idB, recB := entry(t, 2)
	ix.Insert(idA, recA)
	ix.Insert(idB, recB)

	got, ok := ix.TimeRange(day(t, 2), day(t, 2))
	require.True(t, ok)
	assert.Len(t, got, 2)

	ix.Remove(idA, recA)
	got, _ = ix.TimeRange(day(t, 2), day(t, 2))
	assert.Equal(t, []record.ID{idB}, got)

	ix.Remove(idB, recB)
	got, _ = ix.TimeRange(day(t, 2), day(t, 2))
	assert.Empty(t, got)
}

func TestByTimeUpdateMovesRecord(t *testing.T) {
	ix := NewByTime()

	id, rec := entry(t, 2)
	ix.Insert(id, rec)

	moved := record.NewDynamic(day(t, 9), nil, nil)
	ix.Update(id, rec, moved)

	got, _ := ix.TimeRange(day(t, 2), day(t, 2))
	assert.Empty(t, got)
	got, _ = ix.TimeRange(day(t, 9), day(t, 9))
	assert.Equal(t, []record.ID{id}, got)
}

func TestByTimeDoesNotServeTags(t *testing.T) {
	_, ok := NewByTime().Tagged("long")
	assert.False(t, ok)
}

func TestByAllTags(t *testing.T) {
	ix := NewByAllTags()

	idA, recA := entry(t, 1, "long")
	idB, recB := entry(t, 2, "long", "hilly")
	idC, recC := entry(t, 3)
	ix.Insert(idA, recA)
	ix.Insert(idB, recB)
	ix.Insert(idC, recC)

	got, ok := ix.Tagged("long")
	require.True(t, ok)
	assert.Len(t, got, 2)

	got, ok = ix.Tagged("hilly")
	require.True(t, ok)
	assert.Equal(t, []record.ID{idB}, got)

	// Authoritative for unseen tags: served, empty.
	got, ok = ix.Tagged("flat")
	require.True(t, ok)
	assert.Empty(t, got)

	ix.Remove(idB, recB)
	got, _ = ix.Tagged("hilly")
	assert.Empty(t, got)
}

func TestByAllTagsUpdateReindexes(t *testing.T) {
	ix := NewByAllTags()

	id, rec := entry(t, 1, "long")
	ix.Insert(id, rec)

	retagged := record.NewDynamic(day(t, 1), []string{"short"}, nil)
	ix.Update(id, rec, retagged)

	got, _ := ix.Tagged("long")
	assert.Empty(t, got)
	got, _ = ix.Tagged("short")
	assert.Equal(t, []record.ID{id}, got)
}

func TestBySelectedTags(t *testing.T) {
	ix := NewBySelectedTags([]string{"long"})

	idA, recA := entry(t, 1, "long", "hilly")
	idB, recB := entry(t, 2, "hilly")
	ix.Insert(idA, recA)
	ix.Insert(idB, recB)

	got, ok := ix.Tagged("long")
	require.True(t, ok)
	assert.Equal(t, []record.ID{idA}, got)

	// Unconfigured tags are not served; the engine scans instead.
	_, ok = ix.Tagged("hilly")
	assert.False(t, ok)

	ix.Remove(idA, recA)
	got, _ = ix.Tagged("long")
	assert.Empty(t, got)
}

func TestResetKeepsConfiguration(t *testing.T) {
	selected := NewBySelectedTags([]string{"long"})
	id, rec := entry(t, 1, "long")
	selected.Insert(id, rec)
	selected.Reset()

	got, ok := selected.Tagged("long")
	require.True(t, ok)
	assert.Empty(t, got)
	_, ok = selected.Tagged("other")
	assert.False(t, ok)

	byTime := NewByTime()
	byTime.Insert(id, rec)
	byTime.Reset()
	got, _ = byTime.TimeRange(day(t, 1), day(t, 1))
	assert.Empty(t, got)
}

func TestRemoveUnknownPanics(t *testing.T) {
	ix := NewByTime()
	id, rec := entry(t, 1)
	assert.Panics(t, func() { ix.Remove(id, rec) })
}

package indexing

import (
	"slices"

	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// ByTime indexes records by timestamp. Buckets are kept sorted by instant,
// so TimeRange is a pair of binary searches plus a walk.
type ByTime struct {
	buckets []timeBucket
}

type timeBucket struct {
	ts  timestamp.Timestamp
	ids []record.ID
}

// NewByTime returns an empty time index.
func NewByTime() *ByTime { return &ByTime{} }

func (ix *ByTime) Insert(id record.ID, rec record.Recordable) {
	ix.insert(id, rec.Timestamp())
}

func (ix *ByTime) Update(id record.ID, old, updated record.Recordable) {
	// Only the timestamp is indexed here.
	if old.Timestamp().Equal(updated.Timestamp()) {
		return
	}
	ix.Remove(id, old)
	ix.Insert(id, updated)
}

func (ix *ByTime) Remove(id record.ID, rec record.Recordable) {
	pos, found := ix.search(rec.Timestamp())
	if !found {
		panic("indexing: removing a record that was never indexed")
	}
	bucket := &ix.buckets[pos]
	bucket.ids = removeSorted(bucket.ids, id)
	if len(bucket.ids) == 0 {
		ix.buckets = slices.Delete(ix.buckets, pos, pos+1)
	}
}

func (ix *ByTime) Reset() { ix.buckets = nil }

// TimeRange serves lookups with both bounds inclusive, in timestamp order.
func (ix *ByTime) TimeRange(start, end timestamp.Timestamp) ([]record.ID, bool) {
	lo, _ := ix.search(start)
	var out []record.ID
	for i := lo; i < len(ix.buckets); i++ {
		if ix.buckets[i].ts.After(end) {
			break
		}
		out = append(out, ix.buckets[i].ids...)
	}
	return out, true
}

// Tagged is not served by a time index.
func (ix *ByTime) Tagged(string) ([]record.ID, bool) { return nil, false }

func (ix *ByTime) insert(id record.ID, ts timestamp.Timestamp) {
	pos, found := ix.search(ts)
	if !found {
		ix.buckets = slices.Insert(ix.buckets, pos, timeBucket{ts: ts})
	}
	bucket := &ix.buckets[pos]
	bucket.ids = insertSorted(bucket.ids, id)
}

// search finds the position of ts in the bucket slice.
func (ix *ByTime) search(ts timestamp.Timestamp) (int, bool) {
	return slices.BinarySearchFunc(ix.buckets, ts, func(b timeBucket, target timestamp.Timestamp) int {
		return b.ts.Compare(target)
	})
}

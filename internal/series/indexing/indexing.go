// Package indexing provides pluggable in-memory indexes for a dataset.
//
// An Indexer keeps candidate record IDs organized so the engine can answer
// time-range and tag lookups without scanning every record. Lookups return
// the candidate IDs plus an ok flag; ok=false means the index cannot serve
// that lookup and the engine must fall back to a full scan.
package indexing

import (
	"slices"

	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// Indexer maintains derived lookup structures for the records in a dataset.
//
// The engine guarantees that Insert is never called twice for one ID without
// an intervening Remove, and that Update/Remove are only called for IDs the
// index has seen. A Remove for an unknown member means the index and the
// store have drifted apart, which is an engine bug; implementations panic in
// that case rather than limp along with a corrupt index.
type Indexer interface {
	// Insert adds a record to the index.
	Insert(id record.ID, rec record.Recordable)

	// Update re-indexes a record whose payload changed. Implementations
	// skip the work when the indexed key is unchanged.
	Update(id record.ID, old, updated record.Recordable)

	// Remove drops a record from the index.
	Remove(id record.ID, rec record.Recordable)

	// Reset empties the index, keeping its configuration.
	Reset()

	// TimeRange returns the IDs of records with start <= timestamp <= end,
	// in timestamp order. ok=false means the index cannot serve the lookup.
	TimeRange(start, end timestamp.Timestamp) (ids []record.ID, ok bool)

	// Tagged returns the IDs of records carrying the tag. ok=false means
	// the index cannot serve the lookup.
	Tagged(tag string) (ids []record.ID, ok bool)
}

// NoIndex is the default Indexer. It maintains nothing and serves nothing,
// leaving every lookup to a full scan.
type NoIndex struct{}

func (NoIndex) Insert(record.ID, record.Recordable)                    {}
func (NoIndex) Update(record.ID, record.Recordable, record.Recordable) {}
func (NoIndex) Remove(record.ID, record.Recordable)                    {}
func (NoIndex) Reset()                                                 {}

func (NoIndex) TimeRange(_, _ timestamp.Timestamp) ([]record.ID, bool) { return nil, false }
func (NoIndex) Tagged(string) ([]record.ID, bool)                      { return nil, false }

// insertSorted adds id to a bucket, keeping the bucket in ID order.
func insertSorted(bucket []record.ID, id record.ID) []record.ID {
	idx, _ := slices.BinarySearchFunc(bucket, id, record.ID.Compare)
	return slices.Insert(bucket, idx, id)
}

// removeSorted removes id from a bucket. It panics if id is absent: the
// engine only removes members it previously inserted.
func removeSorted(bucket []record.ID, id record.ID) []record.ID {
	idx, found := slices.BinarySearchFunc(bucket, id, record.ID.Compare)
	if !found {
		panic("indexing: removing a record that was never indexed")
	}
	return slices.Delete(bucket, idx, idx+1)
}

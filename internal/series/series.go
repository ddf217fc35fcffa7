// Package series implements the dataset engine: an in-memory record map kept
// durable through an append-only journal, with a pluggable index answering
// time-range and tag lookups.
//
// A Series holds one payload type, fixed when the dataset is opened. All
// methods are safe for concurrent use. The journal is the source of truth:
// every mutation is appended before it becomes visible in memory.
package series

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/chronicle/internal/criteria"
	"git.home.luguber.info/inful/chronicle/internal/journal"
	"git.home.luguber.info/inful/chronicle/internal/metrics"
	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/series/indexing"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// Series is an open dataset of records of type T.
type Series[T record.Recordable] struct {
	mu       sync.RWMutex
	journal  journal.Journal
	index    indexing.Indexer
	recorder metrics.Recorder
	elements map[record.ID]T
}

type settings struct {
	index    indexing.Indexer
	recorder metrics.Recorder
}

// Option configures a Series at open time.
type Option func(*settings)

// WithIndexer selects the index maintained for the dataset. The default is
// indexing.NoIndex, which leaves every lookup to a full scan.
func WithIndexer(ix indexing.Indexer) Option {
	return func(s *settings) { s.index = ix }
}

// WithRecorder injects a metrics recorder. The default is a no-op.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *settings) { s.recorder = r }
}

// Open replays the journal and returns a ready Series. The journal is owned
// by the Series afterwards and is closed by Close.
func Open[T record.Recordable](ctx context.Context, j journal.Journal, opts ...Option) (*Series[T], error) {
	cfg := settings{index: indexing.NoIndex{}, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Series[T]{
		journal:  j,
		index:    cfg.index,
		recorder: cfg.recorder,
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// load rebuilds the in-memory state and the index from the journal.
// Callers must hold the write lock (or have exclusive access at open time).
func (s *Series[T]) load(ctx context.Context) error {
	elements := make(map[record.ID]T)
	err := s.journal.Replay(ctx, func(e journal.Entry) error {
		if e.Tombstone() {
			delete(elements, e.ID)
			return nil
		}
		var data T
		if err := json.Unmarshal(e.Data, &data); err != nil {
			return fmt.Errorf("decode record %s: %w", e.ID, err)
		}
		elements[e.ID] = data
		return nil
	})
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}

	s.elements = elements
	s.index.Reset()
	for id, data := range elements {
		s.index.Insert(id, data)
	}

	s.recorder.SetRecordsLive(len(elements))
	s.observeJournalSize(ctx)
	return nil
}

// Put stores a new record and returns its freshly assigned ID.
func (s *Series[T]) Put(ctx context.Context, data T) (record.ID, error) {
	start := time.Now()
	id := record.NewID()

	payload, err := json.Marshal(data)
	if err != nil {
		s.recorder.IncOperationFailure("put")
		return record.ID{}, fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.elements[id]; taken {
		s.recorder.IncOperationFailure("put")
		return record.ID{}, ErrExists{ID: id}
	}
	if err := s.journal.Append(ctx, journal.Entry{ID: id, Data: payload}); err != nil {
		s.recorder.IncOperationFailure("put")
		return record.ID{}, err
	}

	s.elements[id] = data
	s.index.Insert(id, data)
	s.recorder.SetRecordsLive(len(s.elements))
	s.recorder.ObserveOperation("put", time.Since(start))
	return id, nil
}

// Update replaces the payload of an existing record. The record's ID must
// already be in the dataset.
func (s *Series[T]) Update(ctx context.Context, rec record.Record[T]) error {
	start := time.Now()

	payload, err := json.Marshal(rec.Data)
	if err != nil {
		s.recorder.IncOperationFailure("update")
		return fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.elements[rec.ID]
	if !ok {
		s.recorder.IncOperationFailure("update")
		return ErrNotFound{ID: rec.ID}
	}
	if err := s.journal.Append(ctx, journal.Entry{ID: rec.ID, Data: payload}); err != nil {
		s.recorder.IncOperationFailure("update")
		return err
	}

	s.elements[rec.ID] = rec.Data
	s.index.Update(rec.ID, old, rec.Data)
	s.recorder.ObserveOperation("update", time.Since(start))
	return nil
}

// Delete removes a record. The journal only gains a tombstone: history stays
// replayable until Compact rewrites it.
func (s *Series[T]) Delete(ctx context.Context, id record.ID) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.elements[id]
	if !ok {
		s.recorder.IncOperationFailure("delete")
		return ErrNotFound{ID: id}
	}
	if err := s.journal.Append(ctx, journal.Entry{ID: id}); err != nil {
		s.recorder.IncOperationFailure("delete")
		return err
	}

	delete(s.elements, id)
	s.index.Remove(id, old)
	s.recorder.SetRecordsLive(len(s.elements))
	s.recorder.ObserveOperation("delete", time.Since(start))
	return nil
}

// Get returns the record with the given ID.
func (s *Series[T]) Get(id record.ID) (record.Record[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.elements[id]
	if !ok {
		return record.Record[T]{}, ErrNotFound{ID: id}
	}
	return record.Record[T]{ID: id, Data: data}, nil
}

// Len returns the number of live records.
func (s *Series[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// Records returns a snapshot of all records in timestamp order.
func (s *Series[T]) Records() []record.Record[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Search returns the records matching the criteria. The result order is
// unspecified; use SearchSorted to impose one.
func (s *Series[T]) Search(c criteria.Criteria) []record.Record[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record[T]
	for id, data := range s.elements {
		if c.Matches(data) {
			out = append(out, record.Record[T]{ID: id, Data: data})
		}
	}
	return out
}

// SearchSorted returns the records matching the criteria, sorted by less.
func (s *Series[T]) SearchSorted(c criteria.Criteria, less func(a, b record.Record[T]) bool) []record.Record[T] {
	out := s.Search(c)
	slices.SortStableFunc(out, func(a, b record.Record[T]) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// QueryRange returns the records with start <= timestamp <= end, in
// timestamp order. The lookup is served by the index when it can be.
func (s *Series[T]) QueryRange(start, end timestamp.Timestamp) []record.Record[T] {
	began := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ids, ok := s.index.TimeRange(start, end); ok {
		out := s.resolve(ids)
		s.recorder.ObserveOperation("query", time.Since(began))
		return out
	}

	var out []record.Record[T]
	for id, data := range s.elements {
		ts := data.Timestamp()
		if !ts.Before(start) && !ts.After(end) {
			out = append(out, record.Record[T]{ID: id, Data: data})
		}
	}
	sortByTime(out)
	s.recorder.ObserveOperation("query", time.Since(began))
	return out
}

// QueryTagged returns the records carrying the tag, in timestamp order.
// The lookup is served by the index when it can be.
func (s *Series[T]) QueryTagged(tag string) []record.Record[T] {
	began := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record[T]
	if ids, ok := s.index.Tagged(tag); ok {
		out = s.resolve(ids)
		sortByTime(out)
		s.recorder.ObserveOperation("query", time.Since(began))
		return out
	}

	for id, data := range s.elements {
		if slices.Contains(data.Tags(), tag) {
			out = append(out, record.Record[T]{ID: id, Data: data})
		}
	}
	sortByTime(out)
	s.recorder.ObserveOperation("query", time.Since(began))
	return out
}

// Compact rewrites the journal down to the live records, discarding
// tombstones and superseded versions.
func (s *Series[T]) Compact(ctx context.Context) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	live := make([]journal.Entry, 0, len(s.elements))
	for _, rec := range s.snapshotLocked() {
		payload, err := json.Marshal(rec.Data)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
		live = append(live, journal.Entry{ID: rec.ID, Data: payload})
	}
	if err := s.journal.Compact(ctx, live); err != nil {
		return fmt.Errorf("compact journal: %w", err)
	}

	s.recorder.ObserveCompaction(time.Since(start))
	s.observeJournalSize(ctx)
	return nil
}

// Reload drops the in-memory state and replays the journal again. It exists
// for read-only observers of a journal written by another process.
func (s *Series[T]) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// JournalSize reports the on-disk size of the backing journal.
func (s *Series[T]) JournalSize(ctx context.Context) (int64, error) {
	return s.journal.Size(ctx)
}

// Close closes the underlying journal.
func (s *Series[T]) Close() error {
	return s.journal.Close()
}

// resolve maps index candidate IDs back to records. Index membership implies
// store membership, so a miss here means the index drifted.
func (s *Series[T]) resolve(ids []record.ID) []record.Record[T] {
	out := make([]record.Record[T], 0, len(ids))
	for _, id := range ids {
		data, ok := s.elements[id]
		if !ok {
			panic("series: index returned a record that is not in the store")
		}
		out = append(out, record.Record[T]{ID: id, Data: data})
	}
	return out
}

// snapshotLocked returns all records sorted by time; callers hold the lock.
func (s *Series[T]) snapshotLocked() []record.Record[T] {
	out := make([]record.Record[T], 0, len(s.elements))
	for id, data := range s.elements {
		out = append(out, record.Record[T]{ID: id, Data: data})
	}
	sortByTime(out)
	return out
}

func (s *Series[T]) observeJournalSize(ctx context.Context) {
	if size, err := s.journal.Size(ctx); err == nil {
		s.recorder.SetJournalBytes(size)
	}
}

// sortByTime orders records by timestamp, breaking ties by ID so results are
// deterministic.
func sortByTime[T record.Recordable](recs []record.Record[T]) {
	slices.SortFunc(recs, func(a, b record.Record[T]) int {
		if c := a.Timestamp().Compare(b.Timestamp()); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
}

// Package journal provides append-only persistence for a dataset. Every
// mutation becomes one journal entry; replaying the journal in order
// reconstructs the dataset. An entry with a nil payload is a tombstone.
package journal

import (
	"context"
	"encoding/json"

	"git.home.luguber.info/inful/chronicle/internal/record"
)

// Entry is one journaled mutation. A nil Data marks a deletion.
type Entry struct {
	ID   record.ID       `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Tombstone reports whether the entry deletes its record.
func (e Entry) Tombstone() bool { return e.Data == nil }

// Journal is an append-only entry log.
type Journal interface {
	// Replay calls fn for every entry in append order. A non-nil error
	// from fn aborts the replay.
	Replay(ctx context.Context, fn func(Entry) error) error

	// Append durably adds one entry.
	Append(ctx context.Context, e Entry) error

	// Compact replaces the journal's contents with exactly the live
	// entries, discarding tombstones and superseded versions.
	Compact(ctx context.Context, live []Entry) error

	// Size returns the journal's storage footprint in bytes.
	Size(ctx context.Context) (int64, error)

	// Close releases resources. The journal is unusable afterwards.
	Close() error
}

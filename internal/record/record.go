// Package record defines the types stored in a chronicle dataset: unique
// record identifiers, the Recordable contract payload types implement, and
// the Record envelope pairing an identifier with its payload.
package record

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// ID uniquely identifies a record. It is a UUIDv4 under the hood and is
// usable as a map key.
type ID uuid.UUID

// NewID returns a fresh random ID.
func NewID() ID { return ID(uuid.New()) }

// ParseID parses the hyphenated string form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("parse record id %q: %w", s, err)
	}
	return ID(u), nil
}

// String renders the hyphenated form.
func (id ID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether id is the zero ID.
func (id ID) IsZero() bool { return id == ID{} }

// Compare orders IDs bytewise. The order carries no meaning beyond giving
// index buckets a deterministic layout.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := ParseID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Recordable is the contract every payload type must satisfy. The timestamp
// orders the record in time; the tags feed tag indexes and tag criteria.
type Recordable interface {
	Timestamp() timestamp.Timestamp
	Tags() []string
}

// Record pairs an ID with its payload.
type Record[T Recordable] struct {
	ID   ID `json:"id"`
	Data T  `json:"data"`
}

// Timestamp returns the payload's timestamp, making Record itself Recordable.
func (r Record[T]) Timestamp() timestamp.Timestamp { return r.Data.Timestamp() }

// Tags returns the payload's tags.
func (r Record[T]) Tags() []string { return r.Data.Tags() }

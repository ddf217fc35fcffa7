package series

import (
	"errors"
	"fmt"

	"git.home.luguber.info/inful/chronicle/internal/record"
)

// ErrNotFound is returned when no record exists for an ID.
type ErrNotFound struct {
	ID record.ID
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("record not found: %s", e.ID)
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// ErrExists is returned when a record with the same ID is already stored.
type ErrExists struct {
	ID record.ID
}

func (e ErrExists) Error() string {
	return fmt.Sprintf("record already exists: %s", e.ID)
}

// IsExists returns true if the error is ErrExists.
func IsExists(err error) bool {
	var ex ErrExists
	return errors.As(err, &ex)
}

package archive

import "errors"

// ErrNilRecord is returned by Put for a nil record.
var ErrNilRecord = errors.New("cannot store nil record")

// ErrEmptyID is returned by Put for a record without an ID.
var ErrEmptyID = errors.New("record has no id")

// NotFoundError is returned when a record doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "session not found"
	}

	return "session not found: " + e.ID
}

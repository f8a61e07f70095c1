// Package archive persists the outcome of finished stream sessions.
package archive

import "context"

// Driver defines the interface for persisting and retrieving session records.
type Driver interface {
	// Put stores a record, replacing any record with the same ID.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by session ID. It returns a NotFoundError when
	// no record exists.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all records, most recently started first.
	List(ctx context.Context) ([]*Record, error)

	// Close closes the store and releases any resources.
	Close() error
}

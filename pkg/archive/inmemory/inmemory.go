// Package inmemory provides a map-backed archive driver.
package inmemory

import (
	"context"
	"maps"
	"sync"

	"github.com/papercomputeco/tapestream/pkg/archive"
)

// Driver implements archive.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is keyed by session ID
	records map[string]*archive.Record
}

// NewDriver creates a new in-memory archive.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*archive.Record),
	}
}

// Put stores a copy of rec, replacing any record with the same ID.
func (d *Driver) Put(_ context.Context, rec *archive.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.records[rec.ID] = clone(rec)
	return nil
}

// Get retrieves a record by session ID.
func (d *Driver) Get(_ context.Context, id string) (*archive.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[id]
	if !ok {
		return nil, archive.NotFoundError{ID: id}
	}

	return clone(rec), nil
}

// List returns all records, newest first.
func (d *Driver) List(_ context.Context) ([]*archive.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*archive.Record, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, clone(rec))
	}
	archive.SortNewestFirst(out)

	return out, nil
}

// Close is a no-op for the in-memory archive.
func (d *Driver) Close() error {
	return nil
}

func clone(rec *archive.Record) *archive.Record {
	c := *rec
	c.Result = maps.Clone(rec.Result)
	return &c
}

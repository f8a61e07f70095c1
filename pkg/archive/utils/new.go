// Package archiveutils builds an archive.Driver from configuration.
package archiveutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/tapestream/pkg/archive"
	"github.com/papercomputeco/tapestream/pkg/archive/inmemory"
	"github.com/papercomputeco/tapestream/pkg/archive/postgres"
	"github.com/papercomputeco/tapestream/pkg/archive/sqlite"
)

var (
	// ErrNoSQLitePath is returned for the sqlite driver without a path.
	ErrNoSQLitePath = errors.New("sqlite archive requires a path")

	// ErrNoPostgresDSN is returned for the postgres driver without a DSN.
	ErrNoPostgresDSN = errors.New("postgres archive requires a connection string")
)

type NewDriverOpts struct {
	// Driver is one of memory, sqlite or postgres. Empty means memory.
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// Persistent reports whether the named driver outlives the process.
func Persistent(driver string) bool {
	return driver == "sqlite" || driver == "postgres"
}

func NewDriver(ctx context.Context, o *NewDriverOpts) (archive.Driver, error) {
	switch o.Driver {
	case "", "memory":
		return inmemory.NewDriver(), nil
	case "sqlite":
		if o.SQLitePath == "" {
			return nil, ErrNoSQLitePath
		}
		d, err := sqlite.NewDriver(ctx, o.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite archive: %w", err)
		}
		return d, nil
	case "postgres":
		if o.PostgresDSN == "" {
			return nil, ErrNoPostgresDSN
		}
		d, err := postgres.NewDriver(ctx, o.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres archive: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported archive driver: %s", o.Driver)
	}
}

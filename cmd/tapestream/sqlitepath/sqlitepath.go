package sqlitepath

import (
	"fmt"
	"path/filepath"

	archiveutils "github.com/papercomputeco/tapestream/pkg/archive/utils"
	"github.com/papercomputeco/tapestream/pkg/config"
	"github.com/papercomputeco/tapestream/pkg/dotdir"
)

// ResolveSQLitePath returns the session archive path: the configured path
// when set, otherwise sessions.db inside the resolved .tapestream/ directory,
// which is created if needed.
func ResolveSQLitePath(configured, configDir string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	dir, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving sqlite archive path: %w", err)
	}

	return filepath.Join(dir, config.DefaultSQLiteFile), nil
}

// DriverOpts turns the archive config into driver options, resolving the
// SQLite path only when the sqlite driver is selected.
func DriverOpts(cfg config.ArchiveConfig, configDir string) (*archiveutils.NewDriverOpts, error) {
	opts := &archiveutils.NewDriverOpts{
		Driver:      cfg.Driver,
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
	}

	if cfg.Driver == "sqlite" {
		path, err := ResolveSQLitePath(cfg.SQLitePath, configDir)
		if err != nil {
			return nil, err
		}
		opts.SQLitePath = path
	}

	return opts, nil
}

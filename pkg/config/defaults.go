package config

const (
	defaultMethod      = "POST"
	defaultCredentials = "include"
	defaultReadSize    = 32 * 1024

	defaultArchiveDriver = "memory"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "tapestream.sessions"

	defaultFixtureListen    = ":8090"
	defaultFixtureChunkSize = 16
	defaultFixtureDelayMs   = 25

	// DefaultSQLiteFile is the archive file name used when archive.driver is
	// sqlite and no path is configured. It is placed in the .tapestream/ dir.
	DefaultSQLiteFile = "sessions.db"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Stream: StreamConfig{
			Method:      defaultMethod,
			Credentials: defaultCredentials,
			ReadSize:    defaultReadSize,
		},
		Archive: ArchiveConfig{
			Driver: defaultArchiveDriver,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Fixture: FixtureConfig{
			Listen:    defaultFixtureListen,
			ChunkSize: defaultFixtureChunkSize,
			DelayMs:   defaultFixtureDelayMs,
		},
	}
}

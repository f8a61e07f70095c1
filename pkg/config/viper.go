package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/tapestream/pkg/dotdir"
)

// EnvPrefix is the prefix of environment variables bound by InitViper.
const EnvPrefix = "TAPESTREAM"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the TAPESTREAM_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (TAPESTREAM_STREAM_URL, TAPESTREAM_ARCHIVE_DRIVER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: TAPESTREAM_STREAM_URL, TAPESTREAM_EVENTS_BROKERS, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the resolved configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Stream: StreamConfig{
			URL:         v.GetString("stream.url"),
			Method:      strings.ToUpper(v.GetString("stream.method")),
			Credentials: v.GetString("stream.credentials"),
			ReadSize:    v.GetInt("stream.read_size"),
		},
		Archive: ArchiveConfig{
			Driver:      v.GetString("archive.driver"),
			SQLitePath:  v.GetString("archive.sqlite_path"),
			PostgresDSN: v.GetString("archive.postgres_dsn"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  brokers(v.GetStringSlice("events.brokers")),
			Topic:    v.GetString("events.topic"),
		},
		Fixture: FixtureConfig{
			Listen:    v.GetString("fixture.listen"),
			ChunkSize: v.GetInt("fixture.chunk_size"),
			DelayMs:   v.GetInt("fixture.delay_ms"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// brokers flattens values that arrive comma-joined from the environment.
func brokers(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, splitList(v)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Stream
	v.SetDefault("stream.url", d.Stream.URL)
	v.SetDefault("stream.method", d.Stream.Method)
	v.SetDefault("stream.credentials", d.Stream.Credentials)
	v.SetDefault("stream.read_size", d.Stream.ReadSize)

	// Archive
	v.SetDefault("archive.driver", d.Archive.Driver)
	v.SetDefault("archive.sqlite_path", d.Archive.SQLitePath)
	v.SetDefault("archive.postgres_dsn", d.Archive.PostgresDSN)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Fixture
	v.SetDefault("fixture.listen", d.Fixture.Listen)
	v.SetDefault("fixture.chunk_size", d.Fixture.ChunkSize)
	v.SetDefault("fixture.delay_ms", d.Fixture.DelayMs)
}

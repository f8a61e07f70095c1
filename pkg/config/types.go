package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Config represents the persistent tapestream configuration stored as
// config.toml in the .tapestream/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Stream  StreamConfig  `toml:"stream"`
	Archive ArchiveConfig `toml:"archive"`
	Events  EventsConfig  `toml:"events"`
	Fixture FixtureConfig `toml:"fixture"`
}

// StreamConfig holds defaults for "tapestream stream".
type StreamConfig struct {
	URL         string `toml:"url,omitempty"`
	Method      string `toml:"method,omitempty"`
	Credentials string `toml:"credentials,omitempty"`
	ReadSize    int    `toml:"read_size,omitempty"`
}

// ArchiveConfig selects where finished sessions are persisted.
type ArchiveConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig selects where session events are published.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// FixtureConfig holds settings for "tapestream serve".
type FixtureConfig struct {
	Listen    string `toml:"listen,omitempty"`
	ChunkSize int    `toml:"chunk_size,omitempty"`
	DelayMs   int    `toml:"delay_ms,omitempty"`
}

// Enumerated values accepted by config keys.
var (
	ArchiveDrivers   = []string{"memory", "sqlite", "postgres"}
	EventsProviders  = []string{"none", "kafka"}
	CredentialModes  = []string{"include", "same-origin", "omit"}
	supportedMethods = []string{"GET", "POST", "PUT", "PATCH"}
)

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"stream.url": {
		get: func(c *Config) string { return c.Stream.URL },
		set: func(c *Config, v string) error { c.Stream.URL = v; return nil },
	},
	"stream.method": {
		get: func(c *Config) string { return c.Stream.Method },
		set: func(c *Config, v string) error {
			m, err := oneOf("stream.method", strings.ToUpper(v), supportedMethods)
			if err != nil {
				return err
			}
			c.Stream.Method = m
			return nil
		},
	},
	"stream.credentials": {
		get: func(c *Config) string { return c.Stream.Credentials },
		set: func(c *Config, v string) error {
			m, err := oneOf("stream.credentials", v, CredentialModes)
			if err != nil {
				return err
			}
			c.Stream.Credentials = m
			return nil
		},
	},
	"stream.read_size": {
		get: func(c *Config) string { return formatInt(c.Stream.ReadSize) },
		set: func(c *Config, v string) error {
			n, err := parsePositive("stream.read_size", v)
			if err != nil {
				return err
			}
			c.Stream.ReadSize = n
			return nil
		},
	},
	"archive.driver": {
		get: func(c *Config) string { return c.Archive.Driver },
		set: func(c *Config, v string) error {
			d, err := oneOf("archive.driver", v, ArchiveDrivers)
			if err != nil {
				return err
			}
			c.Archive.Driver = d
			return nil
		},
	},
	"archive.sqlite_path": {
		get: func(c *Config) string { return c.Archive.SQLitePath },
		set: func(c *Config, v string) error { c.Archive.SQLitePath = v; return nil },
	},
	"archive.postgres_dsn": {
		get: func(c *Config) string { return c.Archive.PostgresDSN },
		set: func(c *Config, v string) error { c.Archive.PostgresDSN = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			p, err := oneOf("events.provider", v, EventsProviders)
			if err != nil {
				return err
			}
			c.Events.Provider = p
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error { c.Events.Brokers = splitList(v); return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"fixture.listen": {
		get: func(c *Config) string { return c.Fixture.Listen },
		set: func(c *Config, v string) error { c.Fixture.Listen = v; return nil },
	},
	"fixture.chunk_size": {
		get: func(c *Config) string { return formatInt(c.Fixture.ChunkSize) },
		set: func(c *Config, v string) error {
			n, err := parseNonNegative("fixture.chunk_size", v)
			if err != nil {
				return err
			}
			c.Fixture.ChunkSize = n
			return nil
		},
	},
	"fixture.delay_ms": {
		get: func(c *Config) string { return formatInt(c.Fixture.DelayMs) },
		set: func(c *Config, v string) error {
			n, err := parseNonNegative("fixture.delay_ms", v)
			if err != nil {
				return err
			}
			c.Fixture.DelayMs = n
			return nil
		},
	},
}

func oneOf(key, v string, allowed []string) (string, error) {
	if !slices.Contains(allowed, v) {
		return "", fmt.Errorf("invalid value for %s: %q (available: %s)", key, v, strings.Join(allowed, ", "))
	}
	return v, nil
}

func parseNonNegative(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid value for %s: must not be negative", key)
	}
	return n, nil
}

func parsePositive(key, v string) (int, error) {
	n, err := parseNonNegative(key, v)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid value for %s: must be positive", key)
	}
	return n, nil
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

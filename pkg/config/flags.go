package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --archive-driver
// on both "tapestream stream" and "tapestream sessions").
type Flag struct {
	// Name is the long flag name (e.g. "archive-driver").
	Name string

	// Shorthand is the one-letter short flag (e.g. "X"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "archive.driver").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagMethod         = "method"
	FlagCredentials    = "credentials"
	FlagReadSize       = "read-size"
	FlagArchiveDriver  = "archive-driver"
	FlagSQLite         = "sqlite"
	FlagPostgresDSN    = "postgres-dsn"
	FlagEventsProvider = "events-provider"
	FlagKafkaBrokers   = "kafka-brokers"
	FlagKafkaTopic     = "kafka-topic"
	FlagListen         = "listen"
	FlagChunkSize      = "chunk-size"
	FlagDelay          = "delay-ms"
)

// Flags is the registry of every config-backed flag.
var Flags = FlagSet{
	FlagMethod:         {Name: "method", Shorthand: "X", ViperKey: "stream.method", Description: "HTTP method of the stream request"},
	FlagCredentials:    {Name: "credentials", ViperKey: "stream.credentials", Description: "Ambient credentials policy (include, same-origin, omit)"},
	FlagReadSize:       {Name: "read-size", ViperKey: "stream.read_size", Description: "Buffer size of each body read in bytes"},
	FlagArchiveDriver:  {Name: "archive-driver", ViperKey: "archive.driver", Description: "Session archive driver (memory, sqlite, postgres)"},
	FlagSQLite:         {Name: "sqlite", Shorthand: "s", ViperKey: "archive.sqlite_path", Description: "Path to the SQLite session archive"},
	FlagPostgresDSN:    {Name: "postgres-dsn", ViperKey: "archive.postgres_dsn", Description: "PostgreSQL connection string for the session archive"},
	FlagEventsProvider: {Name: "events-provider", ViperKey: "events.provider", Description: "Session event publisher (none, kafka)"},
	FlagKafkaBrokers:   {Name: "kafka-brokers", ViperKey: "events.brokers", Description: "Kafka broker addresses"},
	FlagKafkaTopic:     {Name: "kafka-topic", ViperKey: "events.topic", Description: "Kafka topic for session events"},
	FlagListen:         {Name: "listen", Shorthand: "l", ViperKey: "fixture.listen", Description: "Address for the fixture server to listen on"},
	FlagChunkSize:      {Name: "chunk-size", ViperKey: "fixture.chunk_size", Description: "Split fixture responses into pieces of this many bytes (0 disables)"},
	FlagDelay:          {Name: "delay-ms", ViperKey: "fixture.delay_ms", Description: "Milliseconds between fixture response pieces"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringSliceFlag registers a comma-separated list flag on cmd from the
// given FlagSet.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *[]string) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultStringSlice(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringSliceVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringSliceVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaults().GetString(viperKey)
}

// defaultInt returns the default int value for a viper key from NewDefaultConfig.
func defaultInt(viperKey string) int {
	return defaults().GetInt(viperKey)
}

// defaultStringSlice returns the default list value for a viper key from NewDefaultConfig.
func defaultStringSlice(viperKey string) []string {
	return defaults().GetStringSlice(viperKey)
}

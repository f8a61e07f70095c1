// Package configcmder provides the config command for managing persistent
// tapestream configuration stored in the .tapestream/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/tapestream/pkg/config"
)

const configLongDesc string = `Manage persistent tapestream configuration.

Configuration is stored as config.toml in the .tapestream/ directory and provides
default values for command flags. Environment variables (TAPESTREAM_STREAM_URL,
TAPESTREAM_ARCHIVE_DRIVER, ...) override config file values, and CLI flags
always take precedence over both.

Keys use dotted notation matching the TOML section structure:
  stream.url, stream.method, stream.credentials, stream.read_size,
  archive.driver, archive.sqlite_path, archive.postgres_dsn,
  events.provider, events.brokers, events.topic,
  fixture.listen, fixture.chunk_size, fixture.delay_ms

Use subcommands to get, set, or list configuration values:
  tapestream config set <key> <value>    Set a configuration value
  tapestream config get <key>            Get a configuration value
  tapestream config list                 List all configuration values

Examples:
  tapestream config set stream.url http://localhost:8090/stream/partial
  tapestream config set archive.driver sqlite
  tapestream config get archive.driver
  tapestream config list`

const configShortDesc string = "Manage persistent tapestream configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// completeKeys offers config keys for the first argument.
func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

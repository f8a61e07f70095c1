// Package tapestreamcmder
package tapestreamcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/tapestream/cmd/tapestream/config"
	"github.com/papercomputeco/tapestream/cmd/tapestream/globals"
	servecmder "github.com/papercomputeco/tapestream/cmd/tapestream/serve"
	sessionscmder "github.com/papercomputeco/tapestream/cmd/tapestream/sessions"
	streamcmder "github.com/papercomputeco/tapestream/cmd/tapestream/stream"
	versioncmder "github.com/papercomputeco/tapestream/cmd/version"
)

const tapestreamLongDesc string = `Tapestream consumes server-sent JSON streams.

Consume a stream and print the merged result:
  tapestream stream <url>      Stream from a URL
  tapestream serve             Run the local fixture stream server
  tapestream sessions [id]     Inspect archived sessions
  tapestream config            Manage persistent configuration`

const tapestreamShortDesc string = "Tapestream - incremental JSON stream consumer"

func NewTapestreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tapestream",
		Short: tapestreamShortDesc,
		Long:  tapestreamLongDesc,
	}

	// Global flags
	globals.Register(cmd)

	// Add subcommands
	cmd.AddCommand(streamcmder.NewStreamCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

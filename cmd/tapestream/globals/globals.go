// Package globals reads the persistent flags of the tapestream root command
// and builds the command logger from them.
package globals

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/tapestream/pkg/logger"
)

// Persistent flag names registered by the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagLogJSON   = "log-json"
)

// Globals holds the persistent flag values.
type Globals struct {
	Debug     bool
	LogJSON   bool
	ConfigDir string
}

// Register adds the persistent flags to the root command.
func Register(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolP(FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(FlagConfigDir, "", "Override the .tapestream/ config directory")
	cmd.PersistentFlags().Bool(FlagLogJSON, false, "Write logs as JSON")
}

// Read returns the persistent flag values seen by cmd.
func Read(cmd *cobra.Command) (Globals, error) {
	var g Globals
	var err error

	g.Debug, err = cmd.Flags().GetBool(FlagDebug)
	if err != nil {
		return g, fmt.Errorf("could not get debug flag: %w", err)
	}

	g.LogJSON, err = cmd.Flags().GetBool(FlagLogJSON)
	if err != nil {
		return g, fmt.Errorf("could not get log-json flag: %w", err)
	}

	g.ConfigDir, err = cmd.Flags().GetString(FlagConfigDir)
	if err != nil {
		return g, fmt.Errorf("could not get config-dir flag: %w", err)
	}

	return g, nil
}

// Logger builds the command logger writing to w. Output is pretty when w is
// a terminal and JSON was not requested.
func (g Globals) Logger(w io.Writer) *slog.Logger {
	return logger.New(
		logger.WithWriter(w),
		logger.WithDebug(g.Debug),
		logger.WithJSON(g.LogJSON),
		logger.WithPretty(!g.LogJSON && IsTerminal(w)),
	)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

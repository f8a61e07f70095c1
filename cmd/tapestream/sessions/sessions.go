// Package sessionscmder provides the sessions command for inspecting
// archived stream sessions.
package sessionscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tapestream/cmd/tapestream/globals"
	"github.com/papercomputeco/tapestream/cmd/tapestream/sqlitepath"
	"github.com/papercomputeco/tapestream/pkg/archive"
	archiveutils "github.com/papercomputeco/tapestream/pkg/archive/utils"
	"github.com/papercomputeco/tapestream/pkg/cliui"
	"github.com/papercomputeco/tapestream/pkg/config"
	"github.com/papercomputeco/tapestream/pkg/utils"
)

type sessionsCommander struct {
	archiveDriver string
	sqlitePath    string
	postgresDSN   string
	json          bool

	globals globals.Globals
	cfg     *config.Config
	out     io.Writer
	logger  *slog.Logger
}

const sessionsLongDesc string = `Inspect archived stream sessions.

Without arguments, lists archived sessions newest first. With a session ID,
shows that session's outcome and its full result.

Sessions are archived by "tapestream stream --archive" into the configured
archive (archive.driver). The in-memory driver does not persist across runs,
so use sqlite or postgres to inspect sessions later.

Examples:
  tapestream sessions
  tapestream sessions 3f0c2a9e-6a35-4c1e-9a83-0d8f0c5b1d2e
  tapestream sessions --archive-driver sqlite --sqlite ./sessions.db --json`

const sessionsShortDesc string = "Inspect archived stream sessions"

// urlWidth bounds the URL column of the session list.
const urlWidth = 48

var boundFlags = []string{
	config.FlagArchiveDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
}

func NewSessionsCmd() *cobra.Command {
	cmder := &sessionsCommander{}

	cmd := &cobra.Command{
		Use:   "sessions [id]",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.globals, err = globals.Read(cmd)
			if err != nil {
				return err
			}

			v, err := config.InitViper(cmder.globals.ConfigDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, boundFlags)

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !archiveutils.Persistent(cmder.cfg.Archive.Driver) {
				return fmt.Errorf("archive driver %q does not persist sessions; use sqlite or postgres", cmder.cfg.Archive.Driver)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cmder.out = cmd.OutOrStdout()
			cmder.logger = cmder.globals.Logger(cmd.ErrOrStderr())

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return cmder.run(cmd.Context(), id)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveDriver, &cmder.archiveDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print sessions as JSON")

	return cmd
}

func (c *sessionsCommander) run(ctx context.Context, id string) error {
	opts, err := sqlitepath.DriverOpts(c.cfg.Archive, c.globals.ConfigDir)
	if err != nil {
		return err
	}

	driver, err := archiveutils.NewDriver(ctx, opts)
	if err != nil {
		return err
	}
	defer driver.Close()

	c.logger.Debug("opened archive", "driver", opts.Driver, "sqlite_path", opts.SQLitePath)

	if id != "" {
		rec, err := driver.Get(ctx, id)
		if err != nil {
			return err
		}
		return c.show(rec)
	}

	records, err := driver.List(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	return c.list(records)
}

func (c *sessionsCommander) list(records []*archive.Record) error {
	if c.json {
		return c.encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No archived sessions."))
		return nil
	}

	fmt.Fprintln(c.out)
	for _, rec := range records {
		fmt.Fprintf(c.out, "  %s  %s  %s %s  %s\n",
			cliui.HashStyle.Render(utils.Truncate(rec.ID, 8)),
			cliui.StatusBadge(rec.Status),
			cliui.ValueStyle.Render(fmt.Sprintf("%d records", rec.Records)),
			cliui.DimStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(rec.Duration()))),
			cliui.DimStyle.Render(rec.Method+" "+utils.Truncate(rec.URL, urlWidth)),
		)
	}
	fmt.Fprintln(c.out)

	return nil
}

func (c *sessionsCommander) show(rec *archive.Record) error {
	if c.json {
		return c.encode(rec)
	}

	rows := []struct{ key, value string }{
		{"ID", rec.ID},
		{"URL", rec.URL},
		{"Method", rec.Method},
		{"Started", rec.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Duration", cliui.FormatDuration(rec.Duration())},
		{"Records", fmt.Sprintf("%d (%d dropped)", rec.Records, rec.Dropped)},
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n", label("Status"), cliui.StatusBadge(rec.Status))
	for _, row := range rows {
		fmt.Fprintf(c.out, "  %s %s\n", label(row.key), cliui.ValueStyle.Render(row.value))
	}
	if rec.Error != "" {
		fmt.Fprintf(c.out, "  %s %s %s\n", label("Error"), cliui.FailMark, rec.Error)
	}

	result, err := json.MarshalIndent(rec.Result, "  ", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintf(c.out, "\n  %s\n  %s\n\n", cliui.NameStyle.Render("Result"), result)

	return nil
}

// label pads before styling so ANSI codes don't skew alignment.
func label(key string) string {
	return cliui.KeyStyle.Render(fmt.Sprintf("%-9s", key))
}

func (c *sessionsCommander) encode(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}
	return nil
}

// Package streamcmder provides the stream command, which consumes a
// server-sent JSON stream and prints the accumulated result.
package streamcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tapestream/cmd/tapestream/globals"
	"github.com/papercomputeco/tapestream/cmd/tapestream/sqlitepath"
	archiveutils "github.com/papercomputeco/tapestream/pkg/archive/utils"
	"github.com/papercomputeco/tapestream/pkg/cliui"
	"github.com/papercomputeco/tapestream/pkg/config"
	"github.com/papercomputeco/tapestream/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/tapestream/pkg/eventstream/utils"
	"github.com/papercomputeco/tapestream/pkg/logger"
	"github.com/papercomputeco/tapestream/pkg/recorder"
	"github.com/papercomputeco/tapestream/pkg/stream"
	"github.com/papercomputeco/tapestream/pkg/worker"
)

type streamCommander struct {
	url         string
	method      string
	headers     []string
	data        string
	credentials string
	readSize    int
	tee         string
	field       string
	archive     bool
	json        bool
	logFile     string
	timeout     time.Duration

	// Flag targets for settings that are read back through viper.
	archiveDriver  string
	sqlitePath     string
	postgresDSN    string
	eventsProvider string
	kafkaBrokers   []string
	kafkaTopic     string

	globals globals.Globals
	cfg     *config.Config
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
}

const streamLongDesc string = `Consume a server-sent JSON stream.

Sends one request to the stream URL and reads the response incrementally.
Every "data:" record holding a JSON object is shallow-merged into the
result; {"type":"object","object":{...}} merges the nested object and
{"type":"finish"} or "data: [DONE]" completes the stream. Malformed records
are skipped.

Status changes are printed to stderr while streaming. The final result is
printed to stdout as JSON, or a single field of it rendered as markdown with
--field. Press Ctrl-C to stop the stream.

With --archive the finished session is saved to the configured archive
(archive.driver) and announced on the configured event stream
(events.provider). Archived sessions are listed by "tapestream sessions".

The URL may be omitted when stream.url is configured.`

const streamShortDesc string = "Consume a server-sent JSON stream"

// boundFlags are the registry flags resolved through viper.
var boundFlags = []string{
	config.FlagMethod,
	config.FlagCredentials,
	config.FlagReadSize,
	config.FlagArchiveDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagEventsProvider,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewStreamCmd() *cobra.Command {
	cmder := &streamCommander{}

	cmd := &cobra.Command{
		Use:   "stream [url]",
		Short: streamShortDesc,
		Long:  streamLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
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

			cmder.url = cmder.cfg.Stream.URL
			if len(args) == 1 {
				cmder.url = args[0]
			}
			if cmder.url == "" {
				return errors.New("no stream URL: pass one as an argument or set stream.url")
			}

			cmder.method = cmder.cfg.Stream.Method
			cmder.credentials = cmder.cfg.Stream.Credentials
			cmder.readSize = cmder.cfg.Stream.ReadSize
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagMethod, &cmder.method)
	config.AddStringFlag(cmd, config.Flags, config.FlagCredentials, &cmder.credentials)
	config.AddIntFlag(cmd, config.Flags, config.FlagReadSize, &cmder.readSize)
	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveDriver, &cmder.archiveDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)

	cmd.Flags().StringArrayVarP(&cmder.headers, "header", "H", nil, `Request header as "Key: Value" (repeatable)`)
	cmd.Flags().StringVar(&cmder.data, "data", "", "JSON request body, or @file to read it from a file")
	cmd.Flags().StringVar(&cmder.tee, "tee", "", "Write the raw response body to this file")
	cmd.Flags().StringVar(&cmder.field, "field", "", "Render this field of the result as markdown instead of printing the whole result")
	cmd.Flags().BoolVar(&cmder.archive, "archive", false, "Archive the finished session")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print newline-delimited JSON events instead of status lines")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write debug logs as JSON to this file")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 0, "Give up after this long (0 waits forever)")

	return cmd
}

func (c *streamCommander) run(ctx context.Context) error {
	var closeLog func()
	c.logger, closeLog = c.newLogger()
	defer closeLog()

	headers, err := parseHeaders(c.headers)
	if err != nil {
		return err
	}

	body, err := parseBody(c.data)
	if err != nil {
		return err
	}

	credentials, err := stream.ParseCredentials(c.credentials)
	if err != nil {
		return err
	}

	opts := []stream.Option{
		stream.WithLogger(c.logger),
		stream.WithReadSize(c.readSize),
	}

	if c.tee != "" {
		f, err := os.Create(c.tee)
		if err != nil {
			return fmt.Errorf("creating tee file: %w", err)
		}
		defer f.Close()
		opts = append(opts, stream.WithTee(f))
	}

	var pool *worker.Pool
	if c.archive {
		var closeArchive func() error
		pool, closeArchive, err = c.newArchivePool(ctx)
		if err != nil {
			return err
		}
		defer c.flushArchive(closeArchive)
	}

	ctrl := stream.NewController(opts...)
	defer ctrl.Close()

	p := newPrinter(c.out, c.errOut, c.json)
	cfg := stream.Config{
		URL:         c.url,
		Method:      c.method,
		Headers:     headers,
		Credentials: credentials,
		Body:        body,
		OnData:      p.data,
		OnError:     p.error,
		OnStatus:    p.status,
	}

	if pool != nil {
		cfg = recorder.New(pool, ctrl, recorder.WithLogger(c.logger)).Wrap(cfg)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	ctrl.Start(runCtx, cfg)
	ctrl.Wait()
	elapsed := time.Since(started)

	c.logger.Debug("stream finished",
		logger.SessionIDKey, ctrl.SessionID(),
		"status", ctrl.Status().String(),
		"elapsed", elapsed,
	)

	if err := c.report(p, ctrl, elapsed); err != nil {
		return err
	}

	return ctrl.Err()
}

// report prints the final result of the session.
func (c *streamCommander) report(p *printer, ctrl *stream.Controller, elapsed time.Duration) error {
	result := ctrl.Data()
	stats := ctrl.Stats()

	if c.json {
		return p.emit(event{
			Event:     "result",
			SessionID: ctrl.SessionID(),
			Status:    ctrl.Status().String(),
			Result:    result,
			Records:   &stats.Records,
			Dropped:   &stats.Dropped,
		})
	}

	fmt.Fprintf(c.errOut, "  %s %d records, %d dropped %s\n",
		cliui.Mark(ctrl.Err()),
		stats.Records,
		stats.Dropped,
		cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(elapsed))),
	)

	if c.field != "" {
		return c.printField(result)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(c.out, string(out))
	return nil
}

func (c *streamCommander) printField(result stream.Result) error {
	value, ok := result[c.field]
	if !ok {
		keys := make([]string, 0, len(result))
		for k := range result {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return fmt.Errorf("field %q not in result (available: %s)", c.field, strings.Join(keys, ", "))
	}

	md, ok := value.(string)
	if !ok {
		raw, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding field %q: %w", c.field, err)
		}
		md = "```json\n" + string(raw) + "\n```"
	}

	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		c.logger.Debug("markdown rendering failed", "error", err)
	}
	fmt.Fprint(c.out, rendered)
	return nil
}

// newLogger writes to stderr, and additionally to --log-file as JSON.
func (c *streamCommander) newLogger() (*slog.Logger, func()) {
	l := c.globals.Logger(c.errOut)
	if c.logFile == "" {
		return l, func() {}
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		l.Warn("could not open log file", "path", c.logFile, "error", err)
		return l, func() {}
	}

	fileLogger := logger.New(logger.WithWriter(f), logger.WithJSON(true), logger.WithDebug(true))
	return logger.Multi(l, fileLogger), func() { f.Close() }
}

// newArchivePool opens the configured archive and event publisher and
// starts a worker pool over them. The returned func drains the pool and
// closes all three.
func (c *streamCommander) newArchivePool(ctx context.Context) (*worker.Pool, func() error, error) {
	opts, err := sqlitepath.DriverOpts(c.cfg.Archive, c.globals.ConfigDir)
	if err != nil {
		return nil, nil, err
	}

	driver, err := archiveutils.NewDriver(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	if !archiveutils.Persistent(opts.Driver) {
		c.logger.Warn("archive driver does not persist sessions across runs", "driver", c.cfg.Archive.Driver)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		Provider: c.cfg.Events.Provider,
		Brokers:  c.cfg.Events.Brokers,
		Topic:    c.cfg.Events.Topic,
	})
	if err != nil {
		driver.Close()
		return nil, nil, fmt.Errorf("creating event publisher: %w", err)
	}

	host, _ := os.Hostname()
	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Source:    eventstream.EventSource{Host: host, Command: "tapestream stream"},
		Logger:    c.logger,
	})
	if err != nil {
		publisher.Close()
		driver.Close()
		return nil, nil, fmt.Errorf("creating worker pool: %w", err)
	}

	c.logger.Debug("archiving session",
		"driver", opts.Driver,
		"sqlite_path", opts.SQLitePath,
		"events_provider", c.cfg.Events.Provider,
	)

	return pool, func() error {
		pool.Close()
		var errs []error
		if err := publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event publisher: %w", err))
		}
		if err := driver.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing archive: %w", err))
		}
		return errors.Join(errs...)
	}, nil
}

// flushArchive waits for queued sessions to be written. Failures are logged
// and do not change the exit code.
func (c *streamCommander) flushArchive(flush func() error) {
	var err error
	if c.json {
		err = flush()
	} else {
		err = cliui.Step(c.errOut, "Archiving session", flush)
	}
	if err != nil {
		c.logger.Warn("archive flush incomplete", "error", err)
	}
}

// parseHeaders parses "Key: Value" pairs.
func parseHeaders(raw []string) (http.Header, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	h := make(http.Header, len(raw))
	for _, line := range raw {
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Key: Value\"", line)
		}
		h.Add(key, strings.TrimSpace(value))
	}
	return h, nil
}

// parseBody validates the --data JSON. A leading @ names a file.
func parseBody(data string) (any, error) {
	if data == "" {
		return nil, nil
	}

	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
	}

	if !json.Valid(raw) {
		return nil, errors.New("request body is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

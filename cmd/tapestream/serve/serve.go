// Package servecmder provides the serve command, which runs the fixture
// stream server.
package servecmder

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tapestream/cmd/tapestream/globals"
	"github.com/papercomputeco/tapestream/pkg/config"
	"github.com/papercomputeco/tapestream/pkg/fixture"
)

type ServeCommander struct {
	listen    string
	chunkSize int
	delayMs   int

	globals globals.Globals
	logger  *slog.Logger

	// stop replaces the interrupt signal in tests.
	stop <-chan struct{}
}

const serveLongDesc string = `Run the fixture stream server.

The fixture server replays scripted server-sent JSON streams so stream
consumers can be developed and tested without a real upstream. Responses are
split into small chunks with a pause between them to exercise incremental
decoding.

Endpoints:
  GET  /ping                 Health check
  GET  /scripts              List the built-in scripts
  GET  /stream/<script>      Replay a script
  POST /stream/<script>      Replay a script; a {"script":[...]} body
                             replaces its records

Query parameters ?chunk=<bytes> and ?delay=<duration> override
--chunk-size and --delay-ms per request.

Example:
  tapestream serve --chunk-size 3
  tapestream stream http://localhost:8090/stream/partial`

const serveShortDesc string = "Run the fixture stream server"

var boundFlags = []string{
	config.FlagListen,
	config.FlagChunkSize,
	config.FlagDelay,
}

func NewServeCmd() *cobra.Command {
	return newServeCmd(&ServeCommander{})
}

func newServeCmd(cmder *ServeCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
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

			cfg, err := config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.listen = cfg.Fixture.Listen
			cmder.chunkSize = cfg.Fixture.ChunkSize
			cmder.delayMs = cfg.Fixture.DelayMs
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cmder.logger = cmder.globals.Logger(cmd.ErrOrStderr())
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddIntFlag(cmd, config.Flags, config.FlagChunkSize, &cmder.chunkSize)
	config.AddIntFlag(cmd, config.Flags, config.FlagDelay, &cmder.delayMs)

	return cmd
}

func (c *ServeCommander) run() error {
	listener, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.listen, err)
	}

	server := fixture.NewServer(fixture.Config{
		ListenAddr: c.listen,
		ChunkSize:  c.chunkSize,
		Delay:      time.Duration(c.delayMs) * time.Millisecond,
		Logger:     c.logger,
	})

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.RunWithListener(listener)
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("fixture server error: %w", err)
		}
		return errors.New("fixture server stopped unexpectedly")
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-c.stop:
		c.logger.Info("shutting down")
	}

	return server.Close()
}

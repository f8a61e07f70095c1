// Package fixture provides an SSE fixture server that replays scripted
// record streams. It is used for local development of stream consumers and
// for end-to-end tests of pkg/stream.
package fixture

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/tapestream/pkg/logger"
)

// Config is the fixture server configuration.
type Config struct {
	// ListenAddr is the address Run listens on.
	ListenAddr string

	// ChunkSize splits each response body into pieces of this many bytes.
	// Zero sends the body in one piece.
	ChunkSize int

	// Delay is the pause between pieces.
	Delay time.Duration

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Server replays scripts over HTTP.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a new fixture server.
func NewServer(config Config) *Server {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger.OrNop(config.Logger),
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/scripts", s.handleListScripts)
	app.Get("/stream/:script", s.handleStream)
	app.Post("/stream/:script", s.handleStream)

	return s
}

// Run starts the fixture server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting fixture server",
		"listen", s.config.ListenAddr,
		"chunk_size", s.config.ChunkSize,
		"delay", s.config.Delay,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the fixture server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting fixture server",
		"listen", listener.Addr().String(),
		"chunk_size", s.config.ChunkSize,
		"delay", s.config.Delay,
	)
	return s.app.Listener(listener)
}

// Close gracefully shuts down the fixture server.
func (s *Server) Close() error {
	return s.app.Shutdown()
}

// Handler exposes the server as an http.Handler. Responses served through it
// are buffered in full before they are written, so chunk pacing only applies
// when the server runs on its own listener.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (s *Server) handleListScripts(c *fiber.Ctx) error {
	return c.JSON(Scripts())
}

func (s *Server) handleStream(c *fiber.Ctx) error {
	name := c.Params("script")
	script, ok := Lookup(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "unknown script: " + name})
	}

	if body := c.Body(); len(body) > 0 {
		var override Override
		if err := json.Unmarshal(body, &override); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
		}
		if override.Script != nil {
			lines, err := override.Lines()
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
			}
			script.Lines = lines
		}
	}

	if script.Status < 200 || script.Status > 299 {
		s.logger.Debug("replaying error script", "script", name, "status", script.Status)
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(script.Status).Send(script.Body())
	}

	chunkSize := c.QueryInt("chunk", s.config.ChunkSize)
	delay := s.config.Delay
	if raw := c.Query("delay"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid delay: " + raw})
		}
		delay = d
	}

	pieces := split(script.Body(), chunkSize)
	s.logger.Debug("replaying script",
		"script", name,
		"lines", len(script.Lines),
		"pieces", len(pieces),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// pw.Write blocks until fasthttp consumes the piece, so every piece is
	// flushed to the socket as its own chunk.
	pr, pw := io.Pipe()
	go s.writePieces(pw, pieces, delay)

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) writePieces(pw *io.PipeWriter, pieces [][]byte, delay time.Duration) {
	defer pw.Close()

	for i, piece := range pieces {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		if _, err := pw.Write(piece); err != nil {
			s.logger.Debug("client went away", "error", err, "written", i)
			return
		}
	}
}

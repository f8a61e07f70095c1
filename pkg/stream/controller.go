// Package stream consumes a long-lived HTTP response of newline-delimited
// "data:" records and accumulates the JSON objects they carry.
//
// A Controller owns at most one session at a time. Start opens the request
// and returns immediately; a reader goroutine then decodes the body chunk by
// chunk, shallow-merges every object into the Result and reports progress to
// the session's observers. Outcomes are never returned to the caller: they
// are observed through Status, Data, Err and the Config callbacks.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/tapestream/pkg/logger"
	"github.com/papercomputeco/tapestream/pkg/sse"
)

// Controller drives stream sessions. It is safe for concurrent use.
type Controller struct {
	client            *http.Client
	logger            *slog.Logger
	jar               http.CookieJar
	credentialHeaders http.Header
	origin            *url.URL
	readSize          int
	tee               io.Writer

	// mu guards everything below.
	mu sync.Mutex

	status  Status
	result  Result
	err     *Error
	session *session
	stats   Stats
	lastID  string
	closed  bool

	// observers of the most recent session, kept after it ends so that
	// Reset can still report the transition back to idle.
	observers observers

	queue    []notification
	draining bool

	// readerDraining is set while a reader goroutine delivers the queue.
	readerDraining bool

	wg sync.WaitGroup
}

// session is one start-to-terminal lifetime. It is current while
// Controller.session points at it; once replaced or cleared, its reader
// goroutine may not mutate controller state.
type session struct {
	id      string
	cfg     Config
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
}

// NewController returns an idle Controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		readSize: defaultReadSize,
		result:   Result{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.jar == nil {
		c.jar = c.client.Jar
	}
	c.logger = logger.OrNop(c.logger)

	return c
}

// Start begins a session unless one is already active, in which case it
// does nothing. Cancelling ctx has the same effect as Cancel.
func (c *Controller) Start(ctx context.Context, cfg Config) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.closed || c.session != nil {
		c.mu.Unlock()
		c.logger.Debug("start ignored", "closed", c.closed)
		return
	}

	cfg = cfg.withDefaults()
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		id:      cfg.ID,
		cfg:     cfg,
		ctx:     sctx,
		cancel:  cancel,
		started: time.Now(),
	}

	c.session = s
	c.lastID = s.id
	c.result = Result{}
	c.err = nil
	c.stats = Stats{}
	c.observers = cfg.observers()
	c.setStatusLocked(StatusConnecting)
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("session started",
		logger.SessionIDKey, s.id,
		"method", cfg.Method,
		"url", cfg.URL,
	)

	c.drain()
	go c.run(s)
}

// Cancel stops the active session, if any. The status becomes stopped before
// Cancel returns and no further data is merged for that session. Cancel is
// idempotent.
func (c *Controller) Cancel() {
	c.mu.Lock()
	stopped := c.stopLocked()
	c.mu.Unlock()

	if stopped {
		c.drain()
	}
}

// Reset cancels any active session, then clears the result and error and
// returns the status to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopLocked()
	c.result = Result{}
	c.err = nil
	c.setStatusLocked(StatusIdle)
	c.mu.Unlock()

	c.drain()
}

// Close tears the controller down: the active session is cancelled, Close
// waits for its reader goroutine to exit, and later calls to Start are
// ignored.
//
// Close may be called from an observer. When a reader goroutine is
// delivering notifications at that moment, Close does not wait for it: the
// session is already detached, so the goroutine makes no further reads or
// state changes and exits once the observer returns.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	stopped := c.stopLocked()
	reentrant := c.draining && c.readerDraining
	c.mu.Unlock()

	if stopped {
		c.drain()
	}
	if reentrant {
		return
	}
	c.wg.Wait()
}

// Wait blocks until every reader goroutine started so far has exited. It
// must not be called concurrently with Start, nor from an observer.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Status returns the current connection status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Data returns a copy of the accumulated result.
func (c *Controller) Data() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result.Clone()
}

// IsStreaming reports whether a session is connecting or connected.
func (c *Controller) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Err returns the fatal error of the last session as a *Error, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return nil
	}
	return c.err
}

// Stats returns the record counts of the active or most recent session.
// Unlike Data, they survive Reset.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// SessionID returns the ID of the active or most recent session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}

func (c *Controller) run(s *session) {
	defer c.wg.Done()
	defer s.cancel()

	log := logger.ForSession(c.logger, s.id)

	req, err := c.newRequest(s)
	if err != nil {
		c.fail(s, KindTransport, fmt.Sprintf("invalid request: %v", err), err)
		return
	}

	resp, err := c.clientFor(s.cfg.Credentials, req.URL).Do(req)
	if err != nil {
		if isCancellation(s, err) {
			c.stop(s)
			return
		}
		c.fail(s, KindTransport, fmt.Sprintf("request failed: %v", err), err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.fail(s, KindTransport, fmt.Sprintf("unexpected response status: %s", resp.Status), nil)
		return
	}
	if resp.Body == http.NoBody && !bodyAllowed(resp.StatusCode) {
		c.fail(s, KindTransport, ErrNoBody.Error(), ErrNoBody)
		return
	}

	if !c.transition(s, StatusConnected) {
		return
	}
	log.Debug("connected", "status", resp.StatusCode)

	c.consume(s, resp.Body, log)

	stats := c.Stats()
	log.Debug("session ended",
		"records", stats.Records,
		"dropped", stats.Dropped,
		"duration", time.Since(s.started),
	)
}

// consume is the read-decode-parse-merge loop. The body read is its only
// suspension point.
func (c *Controller) consume(s *session, body io.Reader, log *slog.Logger) {
	dec := sse.NewDecoder(c.tee)
	buf := make([]byte, c.readSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			lines, err := dec.Feed(buf[:n])
			if c.process(s, lines, log) {
				return
			}
			if err != nil {
				c.fail(s, KindRead, fmt.Sprintf("stream decode failed: %v", err), err)
				return
			}
		}

		switch {
		case readErr == nil:
			if !c.isCurrent(s) {
				return
			}
		case errors.Is(readErr, io.EOF):
			lines, err := dec.Flush()
			if c.process(s, lines, log) {
				return
			}
			if err != nil {
				c.fail(s, KindRead, fmt.Sprintf("stream decode failed: %v", err), err)
				return
			}
			c.complete(s)
			return
		case isCancellation(s, readErr):
			c.stop(s)
			return
		default:
			c.fail(s, KindRead, fmt.Sprintf("stream read failed: %v", readErr), readErr)
			return
		}
	}
}

// process handles decoded lines in order. It returns true once the session
// is over, either because a terminator was seen or because it is no longer
// current.
func (c *Controller) process(s *session, lines []string, log *slog.Logger) bool {
	for _, line := range lines {
		rec := sse.ParseRecord(line)
		switch rec.Kind {
		case sse.KindSkip:
			continue
		case sse.KindDone:
			c.complete(s)
			return true
		}

		p, err := classify(rec.Data)
		if err != nil {
			c.countDropped(s)
			log.Debug("dropping record", "error", err, "data", rec.Data)
			continue
		}

		if p.kind == payloadFinish {
			c.complete(s)
			return true
		}

		if !c.merge(s, p.fields) {
			return true
		}
	}

	return !c.isCurrent(s)
}

// bodyAllowed reports whether a response with this status can carry a body.
// An empty body on any other 2xx status is an empty stream.
func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusResetContent
}

func isCancellation(s *session, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return errors.Is(s.ctx.Err(), context.Canceled)
}

func (c *Controller) isCurrent(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == s
}

func (c *Controller) transition(s *session, to Status) bool {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return false
	}
	c.setStatusLocked(to)
	c.mu.Unlock()

	c.drainReader()
	return true
}

func (c *Controller) merge(s *session, fields map[string]any) bool {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return false
	}
	c.result.Merge(fields)
	c.stats.Records++
	if fn := c.observers.onData; fn != nil {
		c.queue = append(c.queue, func() { fn(fields) })
	}
	c.mu.Unlock()

	c.drainReader()
	return true
}

func (c *Controller) countDropped(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == s {
		c.stats.Dropped++
	}
}

func (c *Controller) complete(s *session) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.setStatusLocked(StatusCompleted)
	if fn := c.observers.onFinish; fn != nil {
		c.queue = append(c.queue, fn)
	}
	c.mu.Unlock()

	c.drainReader()
}

func (c *Controller) fail(s *session, kind ErrorKind, msg string, cause error) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.err = &Error{Kind: kind, Message: msg, Err: cause}
	if fn := c.observers.onError; fn != nil {
		c.queue = append(c.queue, func() { fn(msg) })
	}
	c.setStatusLocked(StatusError)
	c.mu.Unlock()

	c.logger.Debug("session failed", logger.SessionIDKey, s.id, "kind", kind.String(), "error", msg)
	c.drainReader()
}

func (c *Controller) stop(s *session) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.mu.Unlock()

	c.drainReader()
}

// stopLocked invalidates the active session and moves to stopped. It reports
// whether there was a session to stop.
func (c *Controller) stopLocked() bool {
	s := c.session
	if s == nil {
		return false
	}
	c.session = nil
	s.cancel()
	c.setStatusLocked(StatusStopped)
	return true
}

// Package recorder archives stream sessions by observing them.
//
// A Recorder wraps a stream.Config so that, next to the caller's own
// observers, it tracks the session's result and outcome. When the session
// reaches a terminal status the outcome is handed to the worker pool as an
// archive.Record; the read loop never waits on persistence.
package recorder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/tapestream/pkg/archive"
	"github.com/papercomputeco/tapestream/pkg/logger"
	"github.com/papercomputeco/tapestream/pkg/stream"
	"github.com/papercomputeco/tapestream/pkg/worker"
)

// Enqueuer accepts archive jobs. *worker.Pool implements it.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// Snapshotter exposes the record counts of the observed session.
// *stream.Controller implements it.
type Snapshotter interface {
	Stats() stream.Stats
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// Recorder turns session observations into archive jobs.
type Recorder struct {
	queue  Enqueuer
	source Snapshotter
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Recorder that enqueues onto queue. source may be nil, in
// which case dropped records are not counted.
func New(queue Enqueuer, source Snapshotter, opts ...Option) *Recorder {
	r := &Recorder{
		queue:  queue,
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrNop(r.logger)
	return r
}

// tape accumulates one session's outcome between Connecting and a terminal
// status.
type tape struct {
	mu      sync.Mutex
	record  archive.Record
	result  stream.Result
	records int
}

// Wrap returns cfg with an ID assigned and every observer chained through
// the recorder. The caller's observers run after the recorder's bookkeeping.
func (r *Recorder) Wrap(cfg stream.Config) stream.Config {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	method := cfg.Method
	if method == "" {
		method = "POST"
	}

	t := &tape{
		record: archive.Record{ID: cfg.ID, URL: cfg.URL, Method: method},
		result: stream.Result{},
	}

	onData, onError, onStatus := cfg.OnData, cfg.OnError, cfg.OnStatus

	cfg.OnData = func(data map[string]any) {
		t.mu.Lock()
		t.result.Merge(data)
		t.records++
		t.mu.Unlock()

		if onData != nil {
			onData(data)
		}
	}

	cfg.OnError = func(message string) {
		t.mu.Lock()
		t.record.Error = message
		t.mu.Unlock()

		if onError != nil {
			onError(message)
		}
	}

	cfg.OnStatus = func(status stream.Status) {
		switch {
		case status == stream.StatusConnecting:
			r.begin(t)
		case status.IsTerminal():
			r.finish(t, status)
		}

		if onStatus != nil {
			onStatus(status)
		}
	}

	return cfg
}

func (r *Recorder) begin(t *tape) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.record.StartedAt = r.now()
	t.record.FinishedAt = time.Time{}
	t.record.Error = ""
	t.result = stream.Result{}
	t.records = 0
}

func (r *Recorder) finish(t *tape, status stream.Status) {
	t.mu.Lock()
	rec := t.record
	rec.Status = status.String()
	rec.FinishedAt = r.now()
	rec.Result = t.result.Clone()
	rec.Records = t.records
	t.mu.Unlock()

	if r.source != nil {
		rec.Dropped = r.source.Stats().Dropped
	}

	if !r.queue.Enqueue(worker.Job{Record: &rec}) {
		r.logger.Warn("session not archived", logger.SessionIDKey, rec.ID, "status", rec.Status)
		return
	}

	r.logger.Debug("session queued for archive", logger.SessionIDKey, rec.ID, "status", rec.Status)
}

// Package worker provides an asynchronous worker pool for archiving finished
// stream sessions using the provided archive.Driver and announcing them on the
// provided eventstream.Publisher.
//
// The pool decouples persistence from the stream read loop so that a slow
// database or broker never delays observer notifications.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/tapestream/pkg/archive"
	"github.com/papercomputeco/tapestream/pkg/eventstream"
	"github.com/papercomputeco/tapestream/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Record *archive.Record
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the archive backend for persisting session records.
	Driver archive.Driver

	// Publisher optionally announces archived sessions.
	Publisher eventstream.Publisher

	// Source is stamped on every published event.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Pool processes archive jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed against concurrent Enqueue and Close.
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires an archive driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger.OrNop(c.Logger),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	if job.Record == nil {
		p.logger.Error("job not queued, nil record")
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, pool closed, job dropped", logger.SessionIDKey, job.Record.ID)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			logger.SessionIDKey, job.Record.ID,
			"status", job.Record.Status,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			logger.SessionIDKey, job.Record.ID,
			"status", job.Record.Status,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("archive worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("archive worker stopped", "worker_id", id)
}

// processJob archives the record, then publishes an event for it when a
// publisher is configured. A failed publish does not undo the archive write.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	rec := job.Record

	if err := p.config.Driver.Put(ctx, rec); err != nil {
		p.logger.Error("async session archive failed",
			logger.SessionIDKey, rec.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("session archived",
		logger.SessionIDKey, rec.ID,
		"status", rec.Status,
		"records", rec.Records,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewSessionEvent(rec, p.config.Source)
	if err := p.config.Publisher.PublishSession(ctx, event); err != nil {
		p.logger.Warn("failed to publish session event",
			logger.SessionIDKey, rec.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("published session event",
		logger.SessionIDKey, rec.ID,
		"event_id", event.EventID,
	)
}

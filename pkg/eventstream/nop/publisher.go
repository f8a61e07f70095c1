// Package nop provides a Publisher for the "none" events provider. It
// validates events like a real publisher and then discards them.
package nop

import (
	"context"
	"sync/atomic"

	"github.com/papercomputeco/tapestream/pkg/eventstream"
)

type Publisher struct {
	discarded atomic.Int64
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishSession discards a valid event.
func (p *Publisher) PublishSession(_ context.Context, event *eventstream.SessionEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	p.discarded.Add(1)
	return nil
}

// Discarded counts the events accepted so far.
func (p *Publisher) Discarded() int64 {
	return p.discarded.Load()
}

func (p *Publisher) Close() error {
	return nil
}

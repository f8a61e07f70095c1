// Package eventstreamutils builds an eventstream.Publisher from configuration.
package eventstreamutils

import (
	"fmt"

	"github.com/papercomputeco/tapestream/pkg/eventstream"
	"github.com/papercomputeco/tapestream/pkg/eventstream/kafka"
	"github.com/papercomputeco/tapestream/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	// Provider is one of none or kafka. Empty means none.
	Provider string
	Brokers  []string
	Topic    string
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.Provider {
	case "", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", o.Provider)
	}
}

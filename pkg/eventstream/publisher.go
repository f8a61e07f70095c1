package eventstream

import "context"

// Publisher delivers finished-session events to an event stream backend.
// Implementations call SessionEvent.Validate before publishing.
type Publisher interface {
	PublishSession(ctx context.Context, event *SessionEvent) error
	Close() error
}

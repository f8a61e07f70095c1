package eventstream

import "errors"

var (
	// ErrNilSessionEvent indicates a nil session event payload was provided to a publisher.
	ErrNilSessionEvent = errors.New("nil session event")

	// ErrMissingSessionID indicates an event that cannot be keyed to a session.
	ErrMissingSessionID = errors.New("session event has no session id")
)

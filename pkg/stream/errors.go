package stream

import "errors"

// ErrNoBody is the cause of a transport rejection for a response without a body.
var ErrNoBody = errors.New("response has no body")

// ErrorKind classifies fatal session errors.
type ErrorKind int

const (
	// KindTransport covers everything before the body is read: invalid
	// request, network failure, non-success status, missing body.
	KindTransport ErrorKind = iota + 1

	// KindRead covers failures while reading or decoding the body.
	KindRead
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRead:
		return "read"
	default:
		return "unknown"
	}
}

// Error is the fatal error of a session, as exposed by Controller.Err.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

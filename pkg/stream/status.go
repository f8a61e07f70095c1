package stream

import "fmt"

// Status is the connection status of a Controller.
//
//	idle ──▶ connecting ──▶ connected ──▶ completed
//	             │   │           │ │
//	             │   └──▶ error ◀┘ └──▶ stopped
//	             └──────────▶ stopped
//
// Reset returns any status to idle.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusCompleted
	StatusError
	StatusStopped
)

var statusNames = [...]string{
	StatusIdle:       "idle",
	StatusConnecting: "connecting",
	StatusConnected:  "connected",
	StatusCompleted:  "completed",
	StatusError:      "error",
	StatusStopped:    "stopped",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// IsTerminal reports whether s ends a session.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusStopped
}

// IsActive reports whether a session is in flight in status s.
func (s Status) IsActive() bool {
	return s == StatusConnecting || s == StatusConnected
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return StatusIdle, fmt.Errorf("unknown status: %q", name)
}

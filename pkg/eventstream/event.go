package eventstream

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/tapestream/pkg/archive"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSessionFinished is emitted after a stream session reaches a
	// terminal status and has been archived.
	EventTypeSessionFinished = "tapestream.session.finished"
)

// SessionEvent is a transport-neutral event payload for a finished session.
type SessionEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Session       SessionMeta `json:"session"`
}

// EventSource identifies where the session ran.
type EventSource struct {
	Host    string `json:"host,omitempty"`
	Command string `json:"command,omitempty"`
}

// SessionMeta captures the outcome of the session.
type SessionMeta struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Records     int       `json:"records"`
	Dropped     int       `json:"dropped"`
	ResultKeys  []string  `json:"result_keys"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewSessionEvent builds a finished-session event for an archived record.
// The result itself is not carried; only its top-level keys, sorted.
func NewSessionEvent(rec *archive.Record, source EventSource) *SessionEvent {
	keys := slices.Sorted(maps.Keys(rec.Result))
	if keys == nil {
		keys = []string{}
	}

	return &SessionEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeSessionFinished,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Session: SessionMeta{
			ID:          rec.ID,
			URL:         rec.URL,
			Method:      rec.Method,
			Status:      rec.Status,
			Error:       rec.Error,
			Records:     rec.Records,
			Dropped:     rec.Dropped,
			ResultKeys:  keys,
			StartedAt:   rec.StartedAt,
			CompletedAt: rec.FinishedAt,
			DurationMs:  rec.Duration().Milliseconds(),
		},
	}
}

// Validate reports whether e can be published. Publishers key messages by
// session ID, so an event without one is rejected.
func (e *SessionEvent) Validate() error {
	if e == nil {
		return ErrNilSessionEvent
	}
	if e.Session.ID == "" {
		return ErrMissingSessionID
	}
	return nil
}

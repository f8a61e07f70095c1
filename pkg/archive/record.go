package archive

import (
	"sort"
	"time"
)

// Record is the archived outcome of one stream session.
type Record struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Method string `json:"method"`

	// Status is the terminal status name: completed, error or stopped.
	Status string `json:"status"`

	// Error is the fatal error message, empty unless Status is error.
	Error string `json:"error,omitempty"`

	// Result is the accumulated result at the time the session ended.
	Result map[string]any `json:"result"`

	// Records counts merged records; Dropped counts malformed ones.
	Records int `json:"records"`
	Dropped int `json:"dropped"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Validate checks that rec can be stored.
func (r *Record) Validate() error {
	if r == nil {
		return ErrNilRecord
	}
	if r.ID == "" {
		return ErrEmptyID
	}
	return nil
}

// Duration is the wall time between start and finish.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SortNewestFirst orders records by start time, newest first, breaking ties
// by ID.
func SortNewestFirst(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.After(b.StartedAt)
		}
		return a.ID < b.ID
	})
}

package stream

// Result is the accumulated result of a session: the left-to-right shallow
// merge of every object received.
type Result map[string]any

// Merge copies the top-level keys of fields into r, replacing existing keys.
// Nested values are stored as-is, never merged recursively.
func (r Result) Merge(fields map[string]any) {
	for k, v := range fields {
		r[k] = v
	}
}

// Clone returns a shallow copy of r.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

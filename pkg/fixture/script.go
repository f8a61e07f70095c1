package fixture

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Script is a canned stream response.
type Script struct {
	// Name is the route segment under /stream/.
	Name string `json:"name"`

	// Status is the HTTP status of the response. Non-2xx scripts send Lines
	// as a plain body instead of streaming.
	Status int `json:"status"`

	// Lines are written in order, each terminated by a newline.
	Lines []string `json:"lines"`
}

// Body renders the script as the raw response body.
func (s Script) Body() []byte {
	var b strings.Builder
	for _, line := range s.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func data(payload string) string {
	return "data: " + payload
}

var builtin = []Script{
	{
		Name:   "objects",
		Status: http.StatusOK,
		Lines: []string{
			data(`{"a":1}`),
			data(`{"b":2}`),
			data(`{"c":{"nested":true}}`),
		},
	},
	{
		Name:   "partial",
		Status: http.StatusOK,
		Lines: []string{
			data(`{"type":"object","object":{"title":"Draft"}}`),
			data(`{"type":"object","object":{"summary":"Streams merge left to right."}}`),
			data(`{"type":"object","object":{"title":"Final"}}`),
			data(`{"type":"finish"}`),
			data(`{"ignored":true}`),
		},
	},
	{
		Name:   "done",
		Status: http.StatusOK,
		Lines: []string{
			data(`{"a":1}`),
			data(`{"b":2}`),
			data("[DONE]"),
			data(`{"never":"processed"}`),
			"garbage after the sentinel",
		},
	},
	{
		Name:   "malformed",
		Status: http.StatusOK,
		Lines: []string{
			data(`{"a":1}`),
			data(`{not json`),
			": keepalive",
			"event: ping",
			"",
			data(`{"b":2}`),
		},
	},
	{
		Name:   "unicode",
		Status: http.StatusOK,
		Lines: []string{
			data(`{"greeting":"héllo wörld"}`),
			data(`{"price":"42 €"}`),
			data(`{"kanji":"日本語"}`),
			data(`{"emoji":"🎞️"}`),
		},
	},
	{
		Name:   "error",
		Status: http.StatusInternalServerError,
		Lines:  []string{`{"error":"scripted failure"}`},
	},
}

// Scripts returns the built-in scripts, sorted by name.
func Scripts() []Script {
	out := slices.Clone(builtin)
	slices.SortFunc(out, func(a, b Script) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Lookup returns the built-in script with the given name.
func Lookup(name string) (Script, bool) {
	for _, s := range builtin {
		if s.Name == name {
			return s, true
		}
	}
	return Script{}, false
}

// Override is the optional request body that replaces a script's lines.
//
// Each entry is sent as one data record: JSON strings are sent verbatim as the
// payload (so "[DONE]" or a malformed fragment can be scripted) and any other
// JSON value is sent re-encoded.
type Override struct {
	Script []json.RawMessage `json:"script"`
}

// Lines renders the override as data lines.
func (o Override) Lines() ([]string, error) {
	lines := make([]string, 0, len(o.Script))
	for i, raw := range o.Script {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			lines = append(lines, data(s))
			continue
		}

		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("script entry %d: %w", i, err)
		}
		compact, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("script entry %d: %w", i, err)
		}
		lines = append(lines, data(string(compact)))
	}
	return lines, nil
}

// split cuts b into pieces of at most size bytes. Pieces may end inside a
// multi-byte character.
func split(b []byte, size int) [][]byte {
	if size <= 0 || size >= len(b) {
		return [][]byte{b}
	}

	pieces := make([][]byte, 0, len(b)/size+1)
	for len(b) > 0 {
		n := min(size, len(b))
		pieces = append(pieces, b[:n])
		b = b[n:]
	}
	return pieces
}

package streamcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/papercomputeco/tapestream/pkg/cliui"
	"github.com/papercomputeco/tapestream/pkg/stream"
)

// event is one line of --json output.
type event struct {
	Event     string         `json:"event"`
	SessionID string         `json:"session_id,omitempty"`
	Status    string         `json:"status,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Message   string         `json:"message,omitempty"`
	Result    stream.Result  `json:"result,omitempty"`
	Records   *int           `json:"records,omitempty"`
	Dropped   *int           `json:"dropped,omitempty"`
}

// printer renders session observations. Observers are invoked serially by
// the controller, so printer needs no locking.
type printer struct {
	out    io.Writer
	errOut io.Writer
	json   bool
	enc    *json.Encoder
}

func newPrinter(out, errOut io.Writer, asJSON bool) *printer {
	return &printer{
		out:    out,
		errOut: errOut,
		json:   asJSON,
		enc:    json.NewEncoder(out),
	}
}

func (p *printer) emit(e event) error {
	if err := p.enc.Encode(e); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

func (p *printer) status(s stream.Status) {
	if p.json {
		_ = p.emit(event{Event: "status", Status: s.String()})
		return
	}
	fmt.Fprintf(p.errOut, "  %s %s\n", cliui.DimStyle.Render("status"), cliui.StatusBadge(s.String()))
}

func (p *printer) data(fields map[string]any) {
	if p.json {
		_ = p.emit(event{Event: "data", Data: fields})
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fmt.Fprintf(p.errOut, "  %s %s\n", cliui.DimStyle.Render("merged"), cliui.KeyStyle.Render(strings.Join(keys, ", ")))
}

func (p *printer) error(message string) {
	if p.json {
		_ = p.emit(event{Event: "error", Message: message})
		return
	}
	fmt.Fprintf(p.errOut, "  %s %s\n", cliui.FailMark, message)
}

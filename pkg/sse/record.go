package sse

import "strings"

const (
	// DataPrefix marks a line carrying a record payload.
	DataPrefix = "data:"

	// DoneSentinel is the in-band terminator payload ("data: [DONE]").
	DoneSentinel = "[DONE]"
)

// Kind classifies a single decoded line.
type Kind int

const (
	// KindSkip is a blank line, a comment, or any line without the data prefix.
	KindSkip Kind = iota

	// KindDone is the "[DONE]" sentinel.
	KindDone

	// KindData is a data line whose payload should be parsed by the caller.
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindDone:
		return "done"
	case KindData:
		return "data"
	default:
		return "skip"
	}
}

// Record is one parsed line of the stream.
type Record struct {
	Kind Kind

	// Data is the trimmed payload after the "data:" prefix. Empty unless Kind
	// is KindData.
	Data string
}

// ParseRecord classifies a single line. Surrounding whitespace is trimmed
// from both the line and the payload, so "data: {...}\r" and "data:{...}"
// yield the same Record.
func ParseRecord(line string) Record {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{Kind: KindSkip}
	}

	payload, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return Record{Kind: KindSkip}
	}

	payload = strings.TrimSpace(payload)
	if payload == DoneSentinel {
		return Record{Kind: KindDone}
	}

	return Record{Kind: KindData, Data: payload}
}

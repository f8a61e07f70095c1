package sse

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxLineSize bounds the length of a single buffered line.
const MaxLineSize = 1024 * 1024

// ErrLineTooLong is returned when a line grows past MaxLineSize without a
// terminating newline.
var ErrLineTooLong = errors.New("sse: line exceeds maximum size")

// Decoder turns raw byte chunks into complete lines, optionally writing every
// raw byte verbatim to a destination io.Writer.
//
// ┌──────────────┐   ┌──────────────────┐
// │  raw chunk   │──▶│ tee io.Writer    │
// └──────────────┘   └──────────────────┘
// │
// ▼
// ┌──────────────┐
// │ UTF-8 decode │  incomplete runes held back
// └──────────────┘
// │
// ▼
// ┌──────────────┐
// │ line framing │  partial line held back
// └──────────────┘
//
// A Decoder belongs to a single stream and is not safe for concurrent use.
type Decoder struct {
	tee  io.Writer
	utf8 transform.Transformer

	// pending holds undecoded bytes of an incomplete multi-byte sequence.
	pending []byte

	// line holds decoded text of the current, not yet terminated line.
	line []byte

	scratch []byte
}

// NewDecoder returns a Decoder. When tee is non-nil, every chunk passed to
// Feed is written to it before decoding.
func NewDecoder(tee io.Writer) *Decoder {
	return &Decoder{
		tee:     tee,
		utf8:    unicode.UTF8.NewDecoder(),
		scratch: make([]byte, 4096),
	}
}

// Feed decodes chunk and returns every line completed by it, without the
// trailing "\n". Text after the last newline is kept for the next call.
//
// On error the lines completed before the failure are still returned.
func (d *Decoder) Feed(chunk []byte) ([]string, error) {
	if d.tee != nil && len(chunk) > 0 {
		if _, err := d.tee.Write(chunk); err != nil {
			return nil, fmt.Errorf("writing tee: %w", err)
		}
	}

	text, err := d.decode(chunk, false)
	if err != nil {
		return nil, err
	}

	return d.split(text)
}

// Flush ends the stream: any incomplete multi-byte sequence is decoded as
// U+FFFD and a final unterminated line is returned. The Decoder is empty
// afterwards.
func (d *Decoder) Flush() ([]string, error) {
	text, err := d.decode(nil, true)
	if err != nil {
		return nil, err
	}

	lines, err := d.split(text)
	if err != nil {
		return lines, err
	}

	if len(d.line) > 0 {
		lines = append(lines, string(d.line))
		d.line = d.line[:0]
	}
	d.utf8.Reset()

	return lines, nil
}

func (d *Decoder) decode(chunk []byte, atEOF bool) ([]byte, error) {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}

	out := make([]byte, 0, len(src))
	for {
		nDst, nSrc, err := d.utf8.Transform(d.scratch, src, atEOF)
		out = append(out, d.scratch[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return out, nil
		case errors.Is(err, transform.ErrShortDst):
			continue
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append([]byte(nil), src...)
			return out, nil
		default:
			return out, fmt.Errorf("decoding utf-8: %w", err)
		}
	}
}

func (d *Decoder) split(text []byte) ([]string, error) {
	d.line = append(d.line, text...)

	var lines []string
	for {
		i := bytes.IndexByte(d.line, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(d.line[:i]))
		d.line = d.line[i+1:]
	}

	// Compact so the consumed prefix can be collected.
	if len(lines) > 0 {
		d.line = append([]byte(nil), d.line...)
	}

	if len(d.line) > MaxLineSize {
		return lines, ErrLineTooLong
	}

	return lines, nil
}

// Package sse provides a minimal, purpose-built decoder for newline-delimited
// Server-Sent-Events style streams consumed by tapestream.
//
// Unlike a bufio.Scanner based reader, the Decoder is fed raw network chunks
// of arbitrary size. It carries incomplete UTF-8 sequences and partial lines
// from one chunk to the next, so a record whose bytes straddle a chunk
// boundary is only surfaced once its terminating newline has arrived.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities, and it only understands the "data:" field.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

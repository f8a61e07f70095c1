package sse_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tapestream/pkg/sse"
)

// feedAll feeds each chunk in order and flushes, returning every line.
func feedAll(d *sse.Decoder, chunks ...[]byte) []string {
	var lines []string
	for _, c := range chunks {
		got, err := d.Feed(c)
		Expect(err).NotTo(HaveOccurred())
		lines = append(lines, got...)
	}
	got, err := d.Flush()
	Expect(err).NotTo(HaveOccurred())
	return append(lines, got...)
}

// splitEvery cuts b into pieces of at most n bytes.
func splitEvery(b []byte, n int) [][]byte {
	var out [][]byte
	for len(b) > n {
		out = append(out, b[:n])
		b = b[n:]
	}
	return append(out, b)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

var _ = Describe("Decoder", func() {
	var d *sse.Decoder

	BeforeEach(func() {
		d = sse.NewDecoder(nil)
	})

	Describe("Feed", func() {
		It("returns complete lines", func() {
			lines, err := d.Feed([]byte("data: {\"a\":1}\ndata: {\"b\":2}\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{`data: {"a":1}`, `data: {"b":2}`}))
		})

		It("holds a trailing partial line until its newline arrives", func() {
			lines, err := d.Feed([]byte("data: {\"a\""))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(BeEmpty())

			lines, err = d.Feed([]byte(":1}\ndata: {"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{`data: {"a":1}`}))

			lines, err = d.Feed([]byte("\"b\":2}\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{`data: {"b":2}`}))
		})

		It("keeps blank lines so callers can skip them", func() {
			lines, err := d.Feed([]byte("data: x\n\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"data: x", ""}))
		})

		It("carries multi-byte characters split across chunks", func() {
			input := []byte("data: {\"t\":\"héllo wörld ✓ 🎉\"}\n")
			lines := feedAll(d, splitEvery(input, 1)...)
			Expect(lines).To(Equal([]string{`data: {"t":"héllo wörld ✓ 🎉"}`}))
		})

		It("produces the same lines for every chunk size", func() {
			input := []byte("data: {\"a\":\"α\"}\r\n: comment\ndata: {\"b\":\"日本\"}\ndata: [DONE]\n")
			want := feedAll(sse.NewDecoder(nil), input)

			for size := 1; size <= len(input); size++ {
				got := feedAll(sse.NewDecoder(nil), splitEvery(input, size)...)
				Expect(got).To(Equal(want), "chunk size %d", size)
			}
		})

		It("replaces invalid bytes with the replacement character", func() {
			lines := feedAll(d, []byte("data: a\xffb\n"))
			Expect(lines).To(Equal([]string{"data: a�b"}))
		})

		It("rejects lines longer than MaxLineSize", func() {
			_, err := d.Feed(bytes.Repeat([]byte("x"), sse.MaxLineSize+1))
			Expect(err).To(MatchError(sse.ErrLineTooLong))
		})

		It("returns lines completed before an oversized remainder", func() {
			chunk := append([]byte("data: ok\n"), bytes.Repeat([]byte("x"), sse.MaxLineSize+1)...)
			lines, err := d.Feed(chunk)
			Expect(err).To(MatchError(sse.ErrLineTooLong))
			Expect(lines).To(Equal([]string{"data: ok"}))
		})
	})

	Describe("Flush", func() {
		It("returns an unterminated final line", func() {
			lines := feedAll(d, []byte("data: {\"a\":1}\ndata: tail"))
			Expect(lines).To(Equal([]string{`data: {"a":1}`, "data: tail"}))
		})

		It("decodes a dangling partial rune as the replacement character", func() {
			euro := []byte("€")
			lines := feedAll(d, append([]byte("data: "), euro[:2]...))
			Expect(lines).To(HaveLen(1))
			Expect(lines[0]).To(HavePrefix("data: �"))
			Expect(lines[0]).NotTo(ContainSubstring("€"))
		})

		It("returns nothing for empty input", func() {
			Expect(feedAll(d)).To(BeEmpty())
		})
	})

	Describe("tee", func() {
		It("writes every raw byte verbatim", func() {
			var dst bytes.Buffer
			d = sse.NewDecoder(&dst)
			input := "data: {\"a\":1}\n\n: keep-alive\ndata: [DONE]\n\n"

			feedAll(d, splitEvery([]byte(input), 5)...)
			Expect(dst.String()).To(Equal(input))
		})

		It("surfaces tee write failures", func() {
			d = sse.NewDecoder(failingWriter{})
			_, err := d.Feed([]byte("data: x\n"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("disk full"))
		})
	})

	It("round trips a large stream", func() {
		var sb strings.Builder
		for range 1000 {
			sb.WriteString("data: {\"k\":\"v\"}\n")
		}
		lines := feedAll(d, splitEvery([]byte(sb.String()), 7)...)
		Expect(lines).To(HaveLen(1000))
	})
})

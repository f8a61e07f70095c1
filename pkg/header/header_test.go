package header_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tapestream/pkg/header"
)

var _ = Describe("Compose", func() {
	It("starts from the defaults", func() {
		h := header.Compose(header.Defaults(), nil)
		Expect(h.Get("Content-Type")).To(Equal(header.ContentTypeJSON))
		Expect(h.Get("Accept")).To(Equal(header.AcceptEventStream))
	})

	It("lets caller headers override defaults regardless of key casing", func() {
		overrides := http.Header{"content-type": {"text/plain"}}
		h := header.Compose(header.Defaults(), overrides)
		Expect(h.Values("Content-Type")).To(Equal([]string{"text/plain"}))
	})

	It("merges unrelated caller headers", func() {
		overrides := http.Header{"X-Request-Id": {"abc"}, "X-Multi": {"1", "2"}}
		h := header.Compose(header.Defaults(), overrides)
		Expect(h.Get("X-Request-Id")).To(Equal("abc"))
		Expect(h.Values("X-Multi")).To(Equal([]string{"1", "2"}))
		Expect(h.Get("Accept")).To(Equal(header.AcceptEventStream))
	})

	It("drops hop-by-hop headers", func() {
		overrides := http.Header{"Connection": {"close"}, "Host": {"evil"}, "Upgrade": {"websocket"}}
		h := header.Compose(header.Defaults(), overrides)
		Expect(h).NotTo(HaveKey("Connection"))
		Expect(h).NotTo(HaveKey("Host"))
		Expect(h).NotTo(HaveKey("Upgrade"))
	})

	It("does not alias the input slices", func() {
		overrides := http.Header{"X-A": {"1"}}
		h := header.Compose(nil, overrides)
		h["X-A"][0] = "changed"
		Expect(overrides["X-A"][0]).To(Equal("1"))
	})
})

var _ = Describe("AddMissing", func() {
	It("adds absent keys", func() {
		h := http.Header{}
		header.AddMissing(h, http.Header{"Authorization": {"Bearer t"}})
		Expect(h.Get("Authorization")).To(Equal("Bearer t"))
	})

	It("never replaces an explicit value", func() {
		h := http.Header{"Authorization": {"Bearer mine"}}
		header.AddMissing(h, http.Header{"authorization": {"Bearer ambient"}})
		Expect(h.Values("Authorization")).To(Equal([]string{"Bearer mine"}))
	})
})

var _ = Describe("Skipped", func() {
	It("reports hop-by-hop headers", func() {
		Expect(header.Skipped("connection")).To(BeTrue())
		Expect(header.Skipped("Transfer-Encoding")).To(BeTrue())
		Expect(header.Skipped("Authorization")).To(BeFalse())
	})
})

var _ = Describe("Filter", func() {
	It("removes hop-by-hop headers and keeps the rest", func() {
		in := http.Header{"connection": {"close"}, "X-Trace": {"t1"}, "Upgrade": {"h2c"}}
		out := header.Filter(in)
		Expect(out).To(Equal(http.Header{"X-Trace": {"t1"}}))
		Expect(in).To(HaveLen(3))
	})
})

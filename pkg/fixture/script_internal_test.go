package fixture

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("split", func() {
	It("keeps the body in one piece without a chunk size", func() {
		Expect(split([]byte("abc"), 0)).To(Equal([][]byte{[]byte("abc")}))
	})

	It("cuts pieces of at most size bytes", func() {
		pieces := split([]byte("abcdefg"), 3)
		Expect(pieces).To(Equal([][]byte{[]byte("abc"), []byte("def"), []byte("g")}))
		Expect(bytes.Join(pieces, nil)).To(Equal([]byte("abcdefg")))
	})
})

var _ = Describe("Override", func() {
	It("sends strings verbatim and re-encodes other values", func() {
		var o Override
		Expect(json.Unmarshal([]byte(`{"script":[{"a": 1}, "[DONE]", "{oops"]}`), &o)).To(Succeed())

		lines, err := o.Lines()
		Expect(err).NotTo(HaveOccurred())
		Expect(lines).To(Equal([]string{`data: {"a":1}`, "data: [DONE]", "data: {oops"}))
	})
})

package archive_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tapestream/pkg/archive"
)

var _ = Describe("Record", func() {
	It("reports zero duration while unfinished", func() {
		rec := &archive.Record{ID: "s1", StartedAt: time.Now()}
		Expect(rec.Duration()).To(BeZero())
	})

	It("sorts newest first with ID tie-break", func() {
		t0 := time.Unix(1000, 0)
		records := []*archive.Record{
			{ID: "b", StartedAt: t0},
			{ID: "c", StartedAt: t0.Add(time.Second)},
			{ID: "a", StartedAt: t0},
		}
		archive.SortNewestFirst(records)
		Expect([]string{records[0].ID, records[1].ID, records[2].ID}).To(Equal([]string{"c", "a", "b"}))
	})

	It("formats NotFoundError", func() {
		Expect(archive.NotFoundError{ID: "s1"}.Error()).To(Equal("session not found: s1"))
		Expect(archive.NotFoundError{}.Error()).To(Equal("session not found"))
	})
})

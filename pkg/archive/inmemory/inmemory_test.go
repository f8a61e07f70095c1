package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tapestream/pkg/archive"
	"github.com/papercomputeco/tapestream/pkg/archive/archivetest"
	"github.com/papercomputeco/tapestream/pkg/archive/inmemory"
)

var _ = Describe("Driver", func() {
	archivetest.DriverBehaviors(func() archive.Driver {
		return inmemory.NewDriver()
	})

	It("does not share result maps with callers", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()

		rec := archivetest.NewRecord("s1", time.Now())
		Expect(d.Put(ctx, rec)).To(Succeed())
		rec.Result["a"] = "mutated"

		got, err := d.Get(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Result["a"]).To(Equal(float64(1)))

		got.Result["a"] = "mutated again"
		again, err := d.Get(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Result["a"]).To(Equal(float64(1)))
	})
})

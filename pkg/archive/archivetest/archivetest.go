// Package archivetest holds the behavior every archive.Driver must share, as
// ginkgo specs that driver test suites run against their own driver.
package archivetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tapestream/pkg/archive"
)

// NewRecord returns a completed record started at the given time.
func NewRecord(id string, started time.Time) *archive.Record {
	return &archive.Record{
		ID:         id,
		URL:        "http://localhost:8090/stream/objects",
		Method:     "POST",
		Status:     "completed",
		Result:     map[string]any{"a": float64(1), "nested": map[string]any{"b": "x"}},
		Records:    2,
		Dropped:    1,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}
}

// DriverBehaviors registers the shared driver specs. newDriver is called
// once per spec; the returned driver is closed afterwards.
func DriverBehaviors(newDriver func() archive.Driver) {
	var (
		driver archive.Driver
		ctx    context.Context
		now    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
			driver = nil
		}
	})

	Describe("Put and Get", func() {
		It("round-trips a record", func() {
			rec := NewRecord("s1", now)
			Expect(driver.Put(ctx, rec)).To(Succeed())

			got, err := driver.Get(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("s1"))
			Expect(got.URL).To(Equal(rec.URL))
			Expect(got.Method).To(Equal("POST"))
			Expect(got.Status).To(Equal("completed"))
			Expect(got.Error).To(BeEmpty())
			Expect(got.Result).To(Equal(rec.Result))
			Expect(got.Records).To(Equal(2))
			Expect(got.Dropped).To(Equal(1))
			Expect(got.StartedAt).To(BeTemporally("~", now, time.Millisecond))
			Expect(got.Duration()).To(BeNumerically("~", 1500*time.Millisecond, time.Millisecond))
		})

		It("replaces a record with the same ID", func() {
			Expect(driver.Put(ctx, NewRecord("s1", now))).To(Succeed())

			updated := NewRecord("s1", now)
			updated.Status = "error"
			updated.Error = "unexpected response status: 500 Internal Server Error"
			updated.Result = nil
			Expect(driver.Put(ctx, updated)).To(Succeed())

			got, err := driver.Get(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal("error"))
			Expect(got.Error).To(ContainSubstring("500"))
			Expect(got.Result).To(BeEmpty())

			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("returns NotFoundError for unknown IDs", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(MatchError(archive.NotFoundError{ID: "missing"}))
		})

		It("rejects invalid records", func() {
			Expect(driver.Put(ctx, nil)).To(MatchError(archive.ErrNilRecord))
			Expect(driver.Put(ctx, &archive.Record{})).To(MatchError(archive.ErrEmptyID))
		})
	})

	Describe("List", func() {
		It("is empty for a new archive", func() {
			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})

		It("orders records newest first", func() {
			Expect(driver.Put(ctx, NewRecord("old", now.Add(-time.Hour)))).To(Succeed())
			Expect(driver.Put(ctx, NewRecord("new", now))).To(Succeed())
			Expect(driver.Put(ctx, NewRecord("mid", now.Add(-time.Minute)))).To(Succeed())

			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())

			ids := make([]string, 0, len(all))
			for _, rec := range all {
				ids = append(ids, rec.ID)
			}
			Expect(ids).To(Equal([]string{"new", "mid", "old"}))
		})
	})
}

package stream

// Stats counts the records of one session.
type Stats struct {
	// Records is the number of objects merged into the result.
	Records int

	// Dropped is the number of data records that were not valid JSON
	// objects and were skipped.
	Dropped int
}

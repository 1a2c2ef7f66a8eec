package progress

// Tracker receives progress from the transfer engine. The engine calls it
// from a single goroutine: Begin once, Item once per source in order, and
// Done after the last item has completed.
type Tracker interface {
	// Begin announces the number of items and the total bytes the request
	// expects to move. totalBytes may be 0 when sizes are unknown.
	Begin(items int, totalBytes int64)

	// Item starts tracking one source. size is its tree size in bytes.
	Item(index int, src, dst string, size int64) ItemHandle

	// Done flushes and releases any rendering resources.
	Done()
}

// ItemHandle tracks a single source item.
type ItemHandle interface {
	// Advance records n more bytes copied.
	Advance(n int64)

	// Complete marks the item finished; err is nil on success.
	Complete(err error)
}

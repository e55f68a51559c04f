package rtbuf

import "sync/atomic"

// Buffer is a latest-wins handoff cell between one or more writers on the
// non-realtime side and a reader on the periodic side. The zero value is an
// empty buffer ready for use.
type Buffer[T any] struct {
	cell atomic.Pointer[T]
}

// New creates an empty buffer.
func New[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// Write replaces the buffered value with v. It never blocks the reader;
// the swap is a single atomic pointer store.
func (b *Buffer[T]) Write(v T) {
	b.cell.Store(&v)
}

// Read returns a copy of the most recently written value. The second return
// is false when no value has been written since creation or the last Clear.
func (b *Buffer[T]) Read() (T, bool) {
	p := b.cell.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Clear resets the buffer to empty. Used on lifecycle transitions so a
// command received while inactive is not replayed on reactivation.
func (b *Buffer[T]) Clear() {
	b.cell.Store(nil)
}

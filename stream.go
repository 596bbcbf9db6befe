package linkz

import "errors"

// Stream errors.
var (
	// ErrEndOfStream is returned by Read when the reader has no more items.
	ErrEndOfStream = errors.New("end of stream")

	// ErrInvalidWindow is returned by bulk operations when the offset/count
	// window falls outside the supplied slice.
	ErrInvalidWindow = errors.New("invalid offset/count window")
)

// Reader produces a lazy, forward-only, finite sequence of items.
//
// Contract: items are observed in the order they were written. A reader is
// not restartable mid-traversal; Reset rewinds to the very start. One
// reader per stream instance - no concurrent-reader safety is provided.
type Reader[T any] interface {
	// More reports whether another item is available without blocking.
	More() bool

	// Read returns the next item, or ErrEndOfStream when exhausted.
	Read() (T, error)

	// ReadInto reads up to n items into dst starting at off and returns
	// how many were read. It returns ErrInvalidWindow if the window falls
	// outside dst, and ErrEndOfStream only when the reader was already
	// exhausted before the call.
	ReadInto(dst []T, off, n int) (int, error)

	// Skip advances past up to n items and returns how many were skipped.
	Skip(n int) (int, error)

	// Reset rewinds the reader to the start of its sequence.
	Reset() error
}

// Writer accepts items for a downstream reader.
//
// Contract: writes are ordered - an item written before another must be
// observed by any reader in that order. Flush guarantees visibility of
// buffered writes to downstream consumers before the writer proceeds. One
// writer per stream instance - no concurrent-writer safety is provided.
type Writer[T any] interface {
	// Write appends one item.
	Write(item T) error

	// WriteFrom appends n items from src starting at off. It returns
	// ErrInvalidWindow if the window falls outside src.
	WriteFrom(src []T, off, n int) error

	// Flush makes all buffered writes visible to readers.
	Flush() error
}

// Buffer is an in-memory ordered stream implementing both Reader and
// Writer. Items become visible to Read in write order immediately; Flush
// is a no-op kept for the Writer contract.
//
// A Buffer is the standard inter-stage hand-off: a filter stage drains its
// input reader into a fresh Buffer and installs it on the Flow for the
// next stage.
//
// Buffer is not safe for concurrent use. The stream contract is a single
// writer and a single reader per instance, which sequential pipeline
// execution guarantees.
type Buffer[T any] struct {
	items []T
	pos   int
}

// NewBuffer creates a Buffer pre-filled with the given items, ready to be
// read from the start.
func NewBuffer[T any](items ...T) *Buffer[T] {
	return &Buffer[T]{items: items}
}

// More reports whether another item is available.
func (b *Buffer[T]) More() bool {
	return b.pos < len(b.items)
}

// Read returns the next item, or ErrEndOfStream when exhausted.
func (b *Buffer[T]) Read() (T, error) {
	if b.pos >= len(b.items) {
		var zero T
		return zero, ErrEndOfStream
	}
	item := b.items[b.pos]
	b.pos++
	return item, nil
}

// ReadInto reads up to n items into dst starting at off.
func (b *Buffer[T]) ReadInto(dst []T, off, n int) (int, error) {
	if off < 0 || n < 0 || off+n > len(dst) {
		return 0, ErrInvalidWindow
	}
	if b.pos >= len(b.items) {
		return 0, ErrEndOfStream
	}
	read := copy(dst[off:off+n], b.items[b.pos:])
	b.pos += read
	return read, nil
}

// Skip advances past up to n items and returns how many were skipped.
func (b *Buffer[T]) Skip(n int) (int, error) {
	if n < 0 {
		return 0, ErrInvalidWindow
	}
	remaining := len(b.items) - b.pos
	if n > remaining {
		n = remaining
	}
	b.pos += n
	return n, nil
}

// Reset rewinds the buffer to its first item.
func (b *Buffer[T]) Reset() error {
	b.pos = 0
	return nil
}

// Write appends one item.
func (b *Buffer[T]) Write(item T) error {
	b.items = append(b.items, item)
	return nil
}

// WriteFrom appends n items from src starting at off.
func (b *Buffer[T]) WriteFrom(src []T, off, n int) error {
	if off < 0 || n < 0 || off+n > len(src) {
		return ErrInvalidWindow
	}
	b.items = append(b.items, src[off:off+n]...)
	return nil
}

// Flush implements the Writer contract. Buffer writes are immediately
// visible, so Flush has nothing to do.
func (b *Buffer[T]) Flush() error {
	return nil
}

// Len returns the total number of items written, read or not.
func (b *Buffer[T]) Len() int {
	return len(b.items)
}

// Items returns a snapshot of everything written to the buffer, in order,
// independent of the read position.
func (b *Buffer[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// Interface checks.
var (
	_ Reader[int] = (*Buffer[int])(nil)
	_ Writer[int] = (*Buffer[int])(nil)
)

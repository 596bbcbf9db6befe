package linkz

// Flow is the per-run control object threaded through every stage of a
// pipeline. It carries the current item stream: a source stage installs
// the initial stream, each filter stage drains it into a fresh Buffer and
// installs that for the next stage, and a sink stage drains whatever is
// current.
//
// One Flow serves one Process run. It is read and written by every stage
// in turn but never concurrently (execution is sequential), so it carries
// no locking. Reusing a Flow across runs is allowed only if a source stage
// installs a fresh stream each time.
type Flow[T any] struct {
	stream Reader[T]
}

// NewFlow creates a Flow, optionally seeded with an initial stream. When
// the first stage of the pipeline is a source, no seed is needed.
func NewFlow[T any](stream ...Reader[T]) *Flow[T] {
	f := &Flow[T]{}
	if len(stream) > 0 {
		f.stream = stream[0]
	}
	return f
}

// Stream returns the current item stream, or nil if none is installed.
func (f *Flow[T]) Stream() Reader[T] {
	return f.stream
}

// SetStream installs the stream the next stage will consume.
func (f *Flow[T]) SetStream(stream Reader[T]) {
	f.stream = stream
}

// Drain reads the remainder of the current stream into a slice, in order.
// It returns nil when no stream is installed.
func (f *Flow[T]) Drain() []T {
	if f.stream == nil {
		return nil
	}
	var items []T
	for {
		item, err := f.stream.Read()
		if err != nil {
			return items
		}
		items = append(items, item)
	}
}

package linkz

import "context"

// stageFunc is the value-type stage produced by the adapter constructors.
// Stages built this way are immutable: a name plus a processing function.
type stageFunc[T any] struct {
	fn   func(context.Context, T) bool
	name Name
}

// Process implements the Stage interface. A panic in the wrapped function
// is recovered and answered as a reject, keeping the fault inside the
// stage boundary.
func (s stageFunc[T]) Process(ctx context.Context, value T) (ok bool) {
	defer recoverToReject(&ok)
	return s.fn(ctx, value)
}

// Name returns the name of the stage for debugging and diagnostics.
func (s stageFunc[T]) Name() Name {
	return s.name
}

// Accept creates a Stage from a predicate over the control value.
// Accept is the simplest adapter - use it when the stage's whole job is to
// answer a condition, with no fallible work involved.
//
// Example:
//
//	nonEmpty := linkz.Accept("non-empty", func(_ context.Context, flow *linkz.Flow[string]) bool {
//	    return flow.Stream() != nil && flow.Stream().More()
//	})
func Accept[T any](name Name, fn func(context.Context, T) bool) Stage[T] {
	return stageFunc[T]{name: name, fn: fn}
}

// Attempt creates a Stage from a function that may fail.
// A nil return answers accept; any error is recovered at the stage
// boundary and answers reject. This is the fault-to-boolean conversion
// that keeps the pipeline's contract free of error handling: the error
// never propagates past the stage.
//
// Use Attempt for stages whose work can genuinely fail - opening a
// resource, writing to a destination - when the built-in stream stages
// don't fit.
//
// Example:
//
//	archive := linkz.Attempt("archive", func(_ context.Context, flow *linkz.Flow[string]) error {
//	    return writeArchive(flow)
//	})
func Attempt[T any](name Name, fn func(context.Context, T) error) Stage[T] {
	return stageFunc[T]{
		name: name,
		fn: func(ctx context.Context, value T) bool {
			return fn(ctx, value) == nil
		},
	}
}

package linkz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Keep stage.
const (
	// Metrics.
	KeepProcessedTotal = metricz.Key("keep.processed.total")
	KeepKeptTotal      = metricz.Key("keep.kept.total")
	KeepDroppedTotal   = metricz.Key("keep.dropped.total")

	// Spans.
	KeepFilterSpan = tracez.Key("keep.filter")

	// Tags.
	KeepTagStage   = tracez.Tag("keep.stage")
	KeepTagKept    = tracez.Tag("keep.kept")
	KeepTagDropped = tracez.Tag("keep.dropped")

	// Hook event keys.
	KeepEventFiltered = hookz.Key("keep.filtered")
)

// KeepEvent represents one completed filter traversal.
type KeepEvent struct {
	Name      Name          // Stage name
	Kept      int           // Items forwarded downstream
	Dropped   int           // Items rejected by the predicate
	Duration  time.Duration // How long the traversal took
	Timestamp time.Time     // When the event occurred
}

// Keep is a filter stage: it drains the flow's current stream, forwards
// the items that satisfy its predicate into a fresh buffer, and installs
// that buffer as the stream for the next stage.
//
// Dropping items is not failure. Process answers accept whenever the
// traversal completes, however many items passed - a predicate that
// rejects everything still yields an accept with an empty stream. Keep
// rejects only when the flow has no stream to drain, which means the
// pipeline was mis-assembled (no source ran before it).
//
// A Keep built from a pure predicate is stateless between runs: the same
// input contents always yield the same kept/dropped partition.
//
// Example:
//
//	keepShort := linkz.NewKeep("short", linkz.MaxLength(3))
//	keepW := linkz.NewKeep("starts-w", linkz.StartsWith("w"))
type Keep[T any] struct {
	name      Name
	predicate func(T) bool
	mu        sync.RWMutex

	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[KeepEvent]
}

// NewKeep creates a Keep stage with the given per-item predicate.
func NewKeep[T any](name Name, predicate func(T) bool) *Keep[T] {
	metrics := metricz.New()
	metrics.Counter(KeepProcessedTotal)
	metrics.Counter(KeepKeptTotal)
	metrics.Counter(KeepDroppedTotal)

	return &Keep[T]{
		name:      name,
		predicate: predicate,
		metrics:   metrics,
		tracer:    tracez.New(),
		hooks:     hookz.New[KeepEvent](),
	}
}

// Process implements the Stage interface. It drains the current stream,
// partitions items with the predicate, and installs the kept items as the
// next stream.
func (k *Keep[T]) Process(ctx context.Context, flow *Flow[T]) (ok bool) {
	defer recoverToReject(&ok)

	k.mu.RLock()
	predicate := k.predicate
	k.mu.RUnlock()

	ctx, span := k.tracer.StartSpan(ctx, KeepFilterSpan)
	defer span.Finish()
	span.SetTag(KeepTagStage, string(k.name))

	in := flow.Stream()
	if in == nil {
		return false
	}

	start := time.Now()
	out := NewBuffer[T]()
	kept, dropped := 0, 0
	for {
		item, err := in.Read()
		if err != nil {
			break
		}
		k.metrics.Counter(KeepProcessedTotal).Inc()
		if predicate(item) {
			_ = out.Write(item) //nolint:errcheck
			k.metrics.Counter(KeepKeptTotal).Inc()
			kept++
		} else {
			k.metrics.Counter(KeepDroppedTotal).Inc()
			dropped++
		}
	}
	flow.SetStream(out)

	span.SetTag(KeepTagKept, fmt.Sprintf("%d", kept))
	span.SetTag(KeepTagDropped, fmt.Sprintf("%d", dropped))

	_ = k.hooks.Emit(ctx, KeepEventFiltered, KeepEvent{ //nolint:errcheck
		Name:      k.name,
		Kept:      kept,
		Dropped:   dropped,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	})
	return true
}

// Name returns the name of this stage.
func (k *Keep[T]) Name() Name {
	return k.name
}

// SetPredicate updates the per-item predicate for the next run.
func (k *Keep[T]) SetPredicate(predicate func(T) bool) *Keep[T] {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.predicate = predicate
	return k
}

// Metrics returns the metrics registry for this stage.
func (k *Keep[T]) Metrics() *metricz.Registry {
	return k.metrics
}

// Tracer returns the tracer for this stage.
func (k *Keep[T]) Tracer() *tracez.Tracer {
	return k.tracer
}

// Close gracefully shuts down observability components.
func (k *Keep[T]) Close() error {
	if k.tracer != nil {
		k.tracer.Close()
	}
	k.hooks.Close()
	return nil
}

// OnFiltered registers a handler fired after each traversal with the
// kept/dropped partition counts. The handler is called asynchronously.
func (k *Keep[T]) OnFiltered(handler func(context.Context, KeepEvent) error) error {
	_, err := k.hooks.Hook(KeepEventFiltered, handler)
	return err
}

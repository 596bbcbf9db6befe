package linkz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// ErrOriginUnavailable indicates a source stage's backing origin does not
// exist or cannot be read. It is recovered at the stage boundary: the
// stage answers reject and surfaces the wrapped error through its failure
// event and LastError, never past Process.
var ErrOriginUnavailable = errors.New("origin unavailable")

// Observability constants for the Source stage.
const (
	// Metrics.
	SourceLoadedTotal = metricz.Key("source.loaded.total")
	SourceFailedTotal = metricz.Key("source.failed.total")
	SourceTokens      = metricz.Key("source.tokens")

	// Spans.
	SourceLoadSpan = tracez.Key("source.load")

	// Tags.
	SourceTagOrigin  = tracez.Tag("source.origin")
	SourceTagSuccess = tracez.Tag("source.success")
	SourceTagError   = tracez.Tag("source.error")

	// Hook event keys.
	SourceEventLoaded = hookz.Key("source.loaded")
	SourceEventFailed = hookz.Key("source.failed")
)

// SourceEvent represents the outcome of one source traversal.
// It is emitted via hookz after every Process call and is the diagnostic
// sink for origin failures: the pipeline only ever sees the boolean.
type SourceEvent struct {
	Name      Name          // Stage name
	Origin    string        // Origin path
	Tokens    int           // Tokens produced (loaded only)
	Err       error         // Underlying failure (failed only)
	Duration  time.Duration // How long the load took
	Timestamp time.Time     // When the event occurred
}

// Source is a stage that reads an origin file, tokenizes its contents with
// a delimiter set, and installs the resulting token stream on the Flow for
// downstream stages. It writes output only; it ignores any stream already
// installed.
//
// Process answers accept on a complete traversal of the origin and reject
// when the origin does not exist or cannot be read. The open file handle
// is scoped to the call and released on every exit path.
//
// # Observability
//
// Metrics:
//   - source.loaded.total: Counter of successful loads
//   - source.failed.total: Counter of failed loads
//   - source.tokens: Gauge of tokens produced by the last load
//
// Traces:
//   - source.load: Span for the origin read and tokenization
//
// Events (via hooks):
//   - source.loaded: Fired after a successful load
//   - source.failed: Fired when the origin cannot be read
//
// Example:
//
//	source := linkz.NewFileSource("load", "testdata/words.txt", " ;,")
//	source.OnFailed(func(_ context.Context, e linkz.SourceEvent) error {
//	    log.Printf("source %s: %v", e.Name, e.Err)
//	    return nil
//	})
type Source struct {
	name   Name
	origin string
	delims string
	mu     sync.RWMutex

	lastErr error

	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[SourceEvent]
	clock   clockz.Clock
}

// NewFileSource creates a Source stage backed by the file at path. Every
// rune in delims is a token delimiter. The file is not touched until
// Process runs, so a missing origin surfaces as a reject at run time, not
// at construction.
func NewFileSource(name Name, path, delims string) *Source {
	metrics := metricz.New()
	metrics.Counter(SourceLoadedTotal)
	metrics.Counter(SourceFailedTotal)
	metrics.Gauge(SourceTokens)

	return &Source{
		name:    name,
		origin:  path,
		delims:  delims,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[SourceEvent](),
	}
}

// Process implements the Stage interface. It reads the origin, installs
// the token stream on the flow, and answers whether the full traversal of
// the origin succeeded.
func (s *Source) Process(ctx context.Context, flow *Flow[string]) (ok bool) {
	defer recoverToReject(&ok)

	s.mu.RLock()
	origin := s.origin
	delims := s.delims
	clock := s.getClock()
	s.mu.RUnlock()

	ctx, span := s.tracer.StartSpan(ctx, SourceLoadSpan)
	defer span.Finish()
	span.SetTag(SourceTagOrigin, origin)

	start := clock.Now()
	data, err := os.ReadFile(origin)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrOriginUnavailable, origin, err)

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		s.metrics.Counter(SourceFailedTotal).Inc()
		span.SetTag(SourceTagSuccess, "false")
		span.SetTag(SourceTagError, err.Error())

		_ = s.hooks.Emit(ctx, SourceEventFailed, SourceEvent{ //nolint:errcheck
			Name:      s.name,
			Origin:    origin,
			Err:       err,
			Duration:  clock.Since(start),
			Timestamp: clock.Now(),
		})
		return false
	}

	// Full traversal happens here: the origin is tokenized to completion
	// before the stage answers, so downstream stages see a finished stream.
	tokens := Split(string(data), delims)
	flow.SetStream(NewBuffer(tokens...))
	count := len(tokens)

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.Counter(SourceLoadedTotal).Inc()
	s.metrics.Gauge(SourceTokens).Set(float64(count))
	span.SetTag(SourceTagSuccess, "true")

	_ = s.hooks.Emit(ctx, SourceEventLoaded, SourceEvent{ //nolint:errcheck
		Name:      s.name,
		Origin:    origin,
		Tokens:    count,
		Duration:  clock.Since(start),
		Timestamp: clock.Now(),
	})
	return true
}

// Name returns the name of this stage.
func (s *Source) Name() Name {
	return s.name
}

// Origin returns the configured origin path.
func (s *Source) Origin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}

// SetOrigin updates the origin path for the next Process run.
func (s *Source) SetOrigin(path string) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origin = path
	return s
}

// LastError returns the failure recorded by the most recent Process run,
// or nil if it succeeded. This is stage-local diagnostics; the pipeline
// itself never observes the error.
func (s *Source) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Metrics returns the metrics registry for this stage.
func (s *Source) Metrics() *metricz.Registry {
	return s.metrics
}

// Tracer returns the tracer for this stage.
func (s *Source) Tracer() *tracez.Tracer {
	return s.tracer
}

// Close gracefully shuts down observability components.
func (s *Source) Close() error {
	if s.tracer != nil {
		s.tracer.Close()
	}
	s.hooks.Close()
	return nil
}

// OnLoaded registers a handler for successful loads.
// The handler is called asynchronously.
func (s *Source) OnLoaded(handler func(context.Context, SourceEvent) error) error {
	_, err := s.hooks.Hook(SourceEventLoaded, handler)
	return err
}

// OnFailed registers a handler for origin failures. This is the diagnostic
// sink for OriginUnavailable faults. The handler is called asynchronously.
func (s *Source) OnFailed(handler func(context.Context, SourceEvent) error) error {
	_, err := s.hooks.Hook(SourceEventFailed, handler)
	return err
}

// WithClock sets a custom clock for timestamps and durations.
// Primarily used in tests with a fake clock.
func (s *Source) WithClock(clock clockz.Clock) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
	return s
}

// getClock returns the clock to use.
func (s *Source) getClock() clockz.Clock {
	if s.clock == nil {
		return clockz.RealClock
	}
	return s.clock
}

var _ Stage[*Flow[string]] = (*Source)(nil)

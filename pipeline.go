package linkz

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Pipeline.
const (
	// Metrics.
	PipelineProcessedTotal     = metricz.Key("pipeline.processed.total")
	PipelineAcceptedTotal      = metricz.Key("pipeline.accepted.total")
	PipelineRejectedTotal      = metricz.Key("pipeline.rejected.total")
	PipelineShortCircuitsTotal = metricz.Key("pipeline.shortcircuits.total")
	PipelineStagesTotal        = metricz.Key("pipeline.stages.total")
	PipelineStagesInvoked      = metricz.Key("pipeline.stages.invoked")
	PipelineDurationMs         = metricz.Key("pipeline.duration.ms")

	// Spans.
	PipelineProcessSpan = tracez.Key("pipeline.process")
	PipelineStageSpan   = tracez.Key("pipeline.stage")

	// Tags.
	PipelineTagPolicy         = tracez.Tag("pipeline.policy")
	PipelineTagStageCount     = tracez.Tag("pipeline.stage_count")
	PipelineTagStageNumber    = tracez.Tag("pipeline.stage_number")
	PipelineTagStageName      = tracez.Tag("pipeline.stage_name")
	PipelineTagAccepted       = tracez.Tag("pipeline.accepted")
	PipelineTagResult         = tracez.Tag("pipeline.result")
	PipelineTagShortCircuited = tracez.Tag("pipeline.short_circuited")

	// Hook event keys.
	PipelineEventStageComplete = hookz.Key("pipeline.stage_complete")
	PipelineEventComplete      = hookz.Key("pipeline.complete")
)

// Pipeline modification errors.
var (
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrEmptyPipeline    = errors.New("pipeline is empty")
	ErrStageNotFound    = errors.New("stage not found")
)

// PipelineEvent represents a pipeline processing event.
// It is emitted via hookz as each stage completes and once per run,
// providing visibility into traversal progress and short-circuit outcomes.
type PipelineEvent struct {
	Name           Name          // Pipeline name
	StageName      Name          // Name of the stage (stage_complete only)
	StageNumber    int           // Stage number, 1-based (stage_complete only)
	TotalStages    int           // Total registered stages
	Accepted       bool          // Whether the stage accepted (stage_complete only)
	Result         bool          // Final combined result (complete only)
	Policy         Policy        // Combination policy in effect
	ShortCircuited bool          // Whether trailing stages were skipped (complete only)
	StagesInvoked  int           // How many stages actually ran (complete only)
	Duration       time.Duration // How long this stage took (stage_complete only)
	TotalDuration  time.Duration // Total time for the run (complete only)
	Timestamp      time.Time     // When the event occurred
}

// Pipeline is an ordered composition of stages that all process one shared
// control value, combined under a Policy.
//
// Stages are invoked in registration order. Under All, the first reject
// determines the result and the remaining stages are never invoked. Under
// Any, every stage runs for its side effects and the result is true iff at
// least one stage accepted. Side effects performed by stages (file reads,
// writes to a sink) happen during traversal and are never rolled back.
//
// Key features:
//   - Thread-safe registration and runtime modification of the stage chain
//   - Named stages for debugging and diagnostics
//   - Boolean-only contract: the pipeline never observes stage faults
//
// # Observability
//
// Metrics:
//   - pipeline.processed.total: Counter of Process invocations
//   - pipeline.accepted.total: Counter of runs that returned true
//   - pipeline.rejected.total: Counter of runs that returned false
//   - pipeline.shortcircuits.total: Counter of All-policy runs that skipped trailing stages
//   - pipeline.stages.total: Gauge of registered stages
//   - pipeline.stages.invoked: Gauge of stages invoked in the last run
//   - pipeline.duration.ms: Gauge of total run duration
//
// Traces:
//   - pipeline.process: Parent span for the whole run
//   - pipeline.stage: Child span per stage invocation
//
// Events (via hooks):
//   - pipeline.stage_complete: Fired as each stage answers
//   - pipeline.complete: Fired once per run with the combined result
//
// Example with hooks:
//
//	pipeline := linkz.NewPipeline[*linkz.Flow[string]]("tokens", linkz.All)
//	pipeline.OnComplete(func(_ context.Context, e linkz.PipelineEvent) error {
//	    if e.ShortCircuited {
//	        log.Printf("stopped after %d/%d stages", e.StagesInvoked, e.TotalStages)
//	    }
//	    return nil
//	})
type Pipeline[T any] struct {
	name    Name
	policy  Policy
	stages  []Stage[T]
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[PipelineEvent]
	clock   clockz.Clock
}

// NewPipeline creates a new Pipeline with the given combination policy and
// optional initial stages. The pipeline is ready to use immediately and can
// be safely accessed concurrently. Additional stages can be registered with
// AddLink or the modification methods.
//
// Example:
//
//	pipeline := linkz.NewPipeline[*linkz.Flow[string]]("token-filter", linkz.All)
//	pipeline.AddLink(
//	    linkz.NewFileSource("load", path, " ;,"),
//	    linkz.NewKeep("short", linkz.MaxLength(3)),
//	    linkz.SinkTo("print", os.Stdout),
//	)
func NewPipeline[T any](name Name, policy Policy, stages ...Stage[T]) *Pipeline[T] {
	metrics := metricz.New()
	metrics.Counter(PipelineProcessedTotal)
	metrics.Counter(PipelineAcceptedTotal)
	metrics.Counter(PipelineRejectedTotal)
	metrics.Counter(PipelineShortCircuitsTotal)
	metrics.Gauge(PipelineStagesTotal)
	metrics.Gauge(PipelineStagesInvoked)
	metrics.Gauge(PipelineDurationMs)

	return &Pipeline[T]{
		name:    name,
		policy:  policy,
		stages:  slices.Clone(stages),
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[PipelineEvent](),
	}
}

// AddLink appends stages to the pipeline. Stages are executed in the order
// they are added; registering the same stage twice runs it twice. There is
// no upper bound on the number of stages.
//
// AddLink is thread-safe and can be called concurrently, including between
// Process runs:
//
//	pipeline := linkz.NewPipeline[*Flow[string]]("tokens", linkz.All)
//	pipeline.AddLink(source)
//	pipeline.AddLink(keepShort, keepPalindromes)
//	if cfg.Print {
//	    pipeline.AddLink(linkz.SinkTo("print", os.Stdout))
//	}
func (p *Pipeline[T]) AddLink(stages ...Stage[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, stages...)
}

// Process invokes the registered stages in order against the shared value
// and combines their answers under the pipeline's policy.
//
// Under All the accumulator starts true; the first stage to reject sets it
// false and stops the traversal, so trailing stages are never invoked.
// Under Any the accumulator starts false; every stage is invoked exactly
// once and any accept sets it true. With no stages registered, Process
// returns the policy's neutral element: true for All, false for Any.
//
// The same value instance is passed to every stage; stages read and mutate
// shared state inside it (typically a Flow's item stream), not its
// identity. Process runs every stage on the caller's goroutine, in
// sequence; the pipeline itself imposes no timeout or cancellation, and the
// context is passed through for stages that honor it.
//
// Process is thread-safe with respect to the stage list: the chain is
// snapshotted at entry, so concurrent modification affects later runs only.
func (p *Pipeline[T]) Process(ctx context.Context, value T) (result bool) {
	p.mu.RLock()
	stages := make([]Stage[T], len(p.stages))
	copy(stages, p.stages)
	policy := p.policy
	clock := p.getClock()
	p.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}

	defer recoverToReject(&result)

	p.metrics.Counter(PipelineProcessedTotal).Inc()
	p.metrics.Gauge(PipelineStagesTotal).Set(float64(len(stages)))
	start := clock.Now()

	ctx, span := p.tracer.StartSpan(ctx, PipelineProcessSpan)
	span.SetTag(PipelineTagPolicy, policy.String())
	span.SetTag(PipelineTagStageCount, fmt.Sprintf("%d", len(stages)))

	result = policy.neutral()
	invoked := 0
	shortCircuited := false

	defer func() {
		elapsed := clock.Since(start)
		p.metrics.Gauge(PipelineDurationMs).Set(float64(elapsed.Milliseconds()))
		p.metrics.Gauge(PipelineStagesInvoked).Set(float64(invoked))
		if result {
			p.metrics.Counter(PipelineAcceptedTotal).Inc()
		} else {
			p.metrics.Counter(PipelineRejectedTotal).Inc()
		}
		if shortCircuited {
			p.metrics.Counter(PipelineShortCircuitsTotal).Inc()
		}
		span.SetTag(PipelineTagResult, fmt.Sprintf("%t", result))
		span.SetTag(PipelineTagShortCircuited, fmt.Sprintf("%t", shortCircuited))
		span.Finish()

		_ = p.hooks.Emit(ctx, PipelineEventComplete, PipelineEvent{ //nolint:errcheck
			Name:           p.name,
			TotalStages:    len(stages),
			Result:         result,
			Policy:         policy,
			ShortCircuited: shortCircuited,
			StagesInvoked:  invoked,
			TotalDuration:  elapsed,
			Timestamp:      clock.Now(),
		})
	}()

	for i, stage := range stages {
		stageCtx, stageSpan := p.tracer.StartSpan(ctx, PipelineStageSpan)
		stageSpan.SetTag(PipelineTagStageNumber, fmt.Sprintf("%d", i+1))
		stageSpan.SetTag(PipelineTagStageName, string(stage.Name()))

		stageStart := clock.Now()
		accepted := runStage(stageCtx, stage, value)
		stageDuration := clock.Since(stageStart)

		stageSpan.SetTag(PipelineTagAccepted, fmt.Sprintf("%t", accepted))
		stageSpan.Finish()
		invoked++

		_ = p.hooks.Emit(ctx, PipelineEventStageComplete, PipelineEvent{ //nolint:errcheck
			Name:        p.name,
			StageName:   stage.Name(),
			StageNumber: i + 1,
			TotalStages: len(stages),
			Accepted:    accepted,
			Policy:      policy,
			Duration:    stageDuration,
			Timestamp:   clock.Now(),
		})

		switch policy {
		case All:
			if !accepted {
				result = false
				shortCircuited = i < len(stages)-1
				return result
			}
		case Any:
			if accepted {
				result = true
			}
		}
	}

	return result
}

// Len returns the number of registered stages.
func (p *Pipeline[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.stages)
}

// IsEmpty returns true if the pipeline has no stages.
func (p *Pipeline[T]) IsEmpty() bool {
	return p.Len() == 0
}

// Clear removes all stages from the pipeline.
func (p *Pipeline[T]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = p.stages[:0]
}

// Policy returns the pipeline's combination policy.
func (p *Pipeline[T]) Policy() Policy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.policy
}

// SetPolicy updates the combination policy. It affects the next Process
// run; a run already in progress keeps the policy it started with.
func (p *Pipeline[T]) SetPolicy(policy Policy) *Pipeline[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policy = policy
	return p
}

// Unshift adds stages to the front of the pipeline (they run first).
func (p *Pipeline[T]) Unshift(stages ...Stage[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = slices.Insert(p.stages, 0, stages...)
}

// Push adds stages to the back of the pipeline (they run last).
// It is equivalent to AddLink and exists for symmetry with Unshift.
func (p *Pipeline[T]) Push(stages ...Stage[T]) {
	p.AddLink(stages...)
}

// Shift removes and returns the first stage.
func (p *Pipeline[T]) Shift() (Stage[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.stages) == 0 {
		var zero Stage[T]
		return zero, ErrEmptyPipeline
	}

	stage := p.stages[0]
	p.stages = p.stages[1:]
	return stage, nil
}

// Pop removes and returns the last stage.
func (p *Pipeline[T]) Pop() (Stage[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.stages) == 0 {
		var zero Stage[T]
		return zero, ErrEmptyPipeline
	}

	lastIndex := len(p.stages) - 1
	stage := p.stages[lastIndex]
	p.stages = p.stages[:lastIndex]
	return stage, nil
}

// InsertAt inserts stages at the specified index.
func (p *Pipeline[T]) InsertAt(index int, stages ...Stage[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index > len(p.stages) {
		return ErrIndexOutOfBounds
	}

	p.stages = slices.Insert(p.stages, index, stages...)
	return nil
}

// Swap exchanges the stages at indices i and j.
func (p *Pipeline[T]) Swap(i, j int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i < 0 || i >= len(p.stages) || j < 0 || j >= len(p.stages) {
		return ErrIndexOutOfBounds
	}

	if i != j {
		p.stages[i], p.stages[j] = p.stages[j], p.stages[i]
	}
	return nil
}

// Remove removes the first stage with the specified name.
func (p *Pipeline[T]) Remove(name Name) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, stage := range p.stages {
		if stage.Name() == name {
			p.stages = slices.Delete(p.stages, i, i+1)
			return nil
		}
	}
	return ErrStageNotFound
}

// Names returns the names of all stages in execution order.
func (p *Pipeline[T]) Names() []Name {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]Name, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Name()
	}
	return names
}

// Name returns the name of this pipeline.
func (p *Pipeline[T]) Name() Name {
	return p.name
}

// Metrics returns the metrics registry for this pipeline.
func (p *Pipeline[T]) Metrics() *metricz.Registry {
	return p.metrics
}

// Tracer returns the tracer for this pipeline.
func (p *Pipeline[T]) Tracer() *tracez.Tracer {
	return p.tracer
}

// Close gracefully shuts down observability components.
func (p *Pipeline[T]) Close() error {
	if p.tracer != nil {
		p.tracer.Close()
	}
	p.hooks.Close()
	return nil
}

// OnStageComplete registers a handler fired as each stage answers.
// The handler is called asynchronously.
func (p *Pipeline[T]) OnStageComplete(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventStageComplete, handler)
	return err
}

// OnComplete registers a handler fired once per run with the combined
// result. The handler is called asynchronously.
func (p *Pipeline[T]) OnComplete(handler func(context.Context, PipelineEvent) error) error {
	_, err := p.hooks.Hook(PipelineEventComplete, handler)
	return err
}

// WithClock sets a custom clock for timestamps and durations.
// Primarily used in tests with a fake clock.
func (p *Pipeline[T]) WithClock(clock clockz.Clock) *Pipeline[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = clock
	return p
}

// getClock returns the clock to use.
func (p *Pipeline[T]) getClock() clockz.Clock {
	if p.clock == nil {
		return clockz.RealClock
	}
	return p.clock
}

// runStage invokes one stage with its own panic guard, so a stage that
// violates the recover-your-own-faults contract still only costs a reject.
func runStage[T any](ctx context.Context, stage Stage[T], value T) (accepted bool) {
	defer recoverToReject(&accepted)
	return stage.Process(ctx, value)
}

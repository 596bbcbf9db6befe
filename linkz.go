// Package linkz provides a lightweight, type-safe library for composing
// sequential processing pipelines with configurable combination semantics.
//
// # Overview
//
// linkz models a pipeline as an ordered chain of stages that all operate on
// one shared control value. Each stage does its work and answers with a
// single boolean: accept (continue downstream) or reject. The pipeline
// combines those answers under one of two policies:
//
//   - All: every stage must accept; execution stops at the first reject
//     (short-circuit), and the remaining stages are never invoked.
//   - Any: every stage runs regardless of outcome, for its side effects;
//     the pipeline accepts if at least one stage accepted.
//
// A pipeline with no stages returns the policy's neutral element: true for
// All, false for Any.
//
// # Core Concepts
//
// The library is built around a single, uniform interface:
//
//	type Stage[T any] interface {
//	    Process(context.Context, T) bool
//	    Name() Name
//	}
//
// Key components:
//   - Stages: units of work created with adapter functions (Accept, Attempt)
//     or provided as stream-aware stages (NewFileSource, NewKeep, SinkTo)
//   - Pipeline: the ordered composition, with runtime modification support
//   - Flow: the per-run control object threaded through every stage,
//     carrying the current item stream from one stage to the next
//
// Faults never cross a stage boundary. A stage that hits an internal error
// (a missing origin file, a failed write, even a panic) recovers it, emits a
// diagnostic event, and answers reject. The pipeline's error taxonomy is
// exactly {accepted, rejected}; richer diagnostics are a stage-local
// concern, surfaced through hooks.
//
// # Quick Start
//
//	flow := linkz.NewFlow[string]()
//	pipeline := linkz.NewPipeline[*linkz.Flow[string]]("tokens", linkz.All)
//	pipeline.AddLink(
//	    linkz.NewFileSource("load", "words.txt", " ;,"),
//	    linkz.NewKeep("starts-w", linkz.StartsWith("w")),
//	    linkz.SinkTo("print", os.Stdout),
//	)
//	ok := pipeline.Process(context.Background(), flow)
//
// # Observability
//
// Pipeline and the stream-aware stages each own a metrics registry, a
// tracer, and a typed hook stream. Hook handlers run asynchronously and
// act as the diagnostic sink for stage-local failures.
//
// # Limitations
//
// Execution is single-threaded and synchronous: stage i fully drains its
// input before stage i+1 begins, and a long-running stage blocks the whole
// pipeline. There is no timeout, no cancellation beyond the caller's
// context, and no retry anywhere in this core. A concurrent, pipelined
// variant (one goroutine per stage connected by bounded queues) is a known
// extension point and is deliberately not part of this package.
package linkz

import "context"

// Stage defines the interface for one unit of work in a pipeline.
// A stage consumes the shared control value, performs its work (which may
// include draining and replacing the value's item stream), and answers
// with a single boolean: true to accept and continue downstream, false to
// reject.
//
// For a filter-style stage, reject means the traversal itself failed, not
// that individual items were dropped: dropping items that fail a predicate
// is normal operation and still answers accept.
//
// Implementations must recover their own faults. A stage must never let a
// panic or error escape Process; the pipeline only ever observes booleans.
type Stage[T any] interface {
	Process(context.Context, T) bool
	Name() Name
}

// Name is a type alias for stage and pipeline names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    LoadTokensName Name = "load-tokens"
//	    KeepShortName  Name = "keep-short"
//	)
type Name = string

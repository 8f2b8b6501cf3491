// Package trace provides the tracing subsystem of dropelab.
//
// # Usage
//
//	dropelab elaborate --trace=- --trace-level=detail body.mir
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped when a pass aborts
//   - MultiTracer: combines multiple tracers
//
// # Scopes
//
//   - ScopeDriver: CLI and per-file work
//   - ScopePass: phases of drop elaboration
//   - ScopeFunc: per-function work
//   - ScopeBlock: single drop markers
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "collect", trace.CurrentSpan(ctx))
//	defer span.End("")
package trace

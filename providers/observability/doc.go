// Package observability defines the tracing, metrics and logging interfaces
// used across the summarizer, plus the attribute and span names they share.
//
// [Provider] composes [Tracer], [Metrics] and [Logger]. A provider and the
// active [Span] travel in a [context.Context] ([ContextWithObserver],
// [ContextWithSpan]), so the provider adapters and HTTP helpers can report
// without taking an observer parameter. Both lookups return nil when nothing
// is attached and callers check for that.
//
// The slogobs subpackage is the log/slog implementation.
package observability

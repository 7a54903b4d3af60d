package observability

import "context"

type contextKey int

const (
	spanContextKey contextKey = iota
	observerContextKey
)

// SpanFromContext returns the active span, or nil when there is none.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanContextKey).(Span)
	return span
}

// ContextWithSpan attaches span to ctx. A nil ctx is treated as Background.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanContextKey, span)
}

// ObserverFromContext returns the provider attached with [ContextWithObserver],
// or nil. Adapters use it so that a single observer configured by the caller
// reaches every layer without extra constructor arguments.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return nil
	}
	observer, _ := ctx.Value(observerContextKey).(Provider)
	return observer
}

// ContextWithObserver attaches observer to ctx. A nil ctx is treated as
// Background.
func ContextWithObserver(ctx context.Context, observer Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerContextKey, observer)
}

package observability

import (
	"context"
	"time"
)

// Provider bundles the three observability concerns a component may report to.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer opens spans. The returned context carries the new span so that
// helpers further down the call chain can attach events to it.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one timed unit of work, such as a summarization or a provider stream.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the final outcome of a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// String returns the lower-case name used in log output.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Metrics hands out named instruments. Asking twice for the same name returns
// the same instrument.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter only goes up.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records observed values such as durations in milliseconds.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger writes leveled structured records. Trace sits below Debug and is used
// for per-event stream noise.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key/value pair attached to spans, metrics and log records.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error stores the error message under [AttrError]. A nil error yields an
// empty message.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}

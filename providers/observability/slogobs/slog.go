package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leofalp/sitesummarizer/providers/observability"
)

// Observer implements observability.Provider on top of a slog.Logger. Spans
// become start/end/event records, counters and histograms are kept in memory
// and every update is logged at DEBUG.
//
//	observer := slogobs.New(
//	    slogobs.WithFormat(slogobs.FormatJSON),
//	    slogobs.WithLevel(slog.LevelDebug),
//	)
//	ctx = observability.ContextWithObserver(ctx, observer)
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
}

var _ observability.Provider = (*Observer)(nil)

// New builds an Observer. Without options it writes compact INFO records to
// stderr.
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(NewHandler(&HandlerOptions{
			Format: cfg.format,
			Level:  cfg.level,
			Output: cfg.output,
			Colors: cfg.colors,
		}))
	}

	return &Observer{
		logger:  logger,
		metrics: newMetricsStore(),
	}
}

// Logger exposes the underlying slog.Logger, e.g. to install it with
// slog.SetDefault.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// --- TRACING ---

// StartSpan logs the span start and returns a context carrying the new span.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     append([]observability.Attribute{}, attrs...),
	}

	logAttrs := append([]slog.Attr{
		slog.String("span", name),
		slog.String("event", "span.start"),
	}, toSlogAttrs(attrs)...)
	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started", logAttrs...)

	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	mu        sync.Mutex
	name      string
	startTime time.Time
	logger    *slog.Logger
	attrs     []observability.Attribute
	status    observability.StatusCode
	ended     bool
}

// End logs the span duration together with every attribute collected so far.
// Only the first call has an effect.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.ended = true

	logAttrs := append([]slog.Attr{
		slog.String("span", s.name),
		slog.String("event", "span.end"),
		slog.Duration(observability.AttrDuration, time.Since(s.startTime)),
	}, toSlogAttrs(s.attrs)...)

	level := slog.LevelDebug
	if s.status == observability.StatusError {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(context.Background(), level, "Span ended", logAttrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = code
	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, code.String()))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

// RecordError keeps the error on the span and logs it immediately at ERROR.
func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs = append(s.attrs, observability.Error(err))
	s.logger.LogAttrs(context.Background(), slog.LevelError, "Span error",
		slog.String("span", s.name),
		slog.String("event", "error"),
		slog.String(observability.AttrError, err.Error()),
	)
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := append([]slog.Attr{
		slog.String("span", s.name),
		slog.String("event", name),
	}, toSlogAttrs(attrs)...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", logAttrs...)
}

// --- METRICS ---

func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.counter(name, o.logger)
}

func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.histogram(name, o.logger)
}

// CounterValue returns the current total of the named counter, zero when it
// was never used.
func (o *Observer) CounterValue(name string) int64 {
	o.metrics.mu.RLock()
	counter, ok := o.metrics.counters[name]
	o.metrics.mu.RUnlock()
	if !ok {
		return 0
	}

	counter.mu.Lock()
	defer counter.mu.Unlock()
	return counter.value
}

// HistogramStats returns the number of observations and their sum.
func (o *Observer) HistogramStats(name string) (count int64, sum float64) {
	o.metrics.mu.RLock()
	histogram, ok := o.metrics.histograms[name]
	o.metrics.mu.RUnlock()
	if !ok {
		return 0, 0
	}

	histogram.mu.Lock()
	defer histogram.mu.Unlock()
	return histogram.count, histogram.sum
}

type metricsStore struct {
	mu         sync.RWMutex
	counters   map[string]*slogCounter
	histograms map[string]*slogHistogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		counters:   make(map[string]*slogCounter),
		histograms: make(map[string]*slogHistogram),
	}
}

func (m *metricsStore) counter(name string, logger *slog.Logger) *slogCounter {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return counter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// another goroutine may have created it between the two locks
	if counter, ok := m.counters[name]; ok {
		return counter
	}
	counter = &slogCounter{name: name, logger: logger}
	m.counters[name] = counter
	return counter
}

func (m *metricsStore) histogram(name string, logger *slog.Logger) *slogHistogram {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()
	if ok {
		return histogram
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, ok := m.histograms[name]; ok {
		return histogram
	}
	histogram = &slogHistogram{name: name, logger: logger}
	m.histograms[name] = histogram
	return histogram
}

type slogCounter struct {
	mu     sync.Mutex
	name   string
	logger *slog.Logger
	value  int64
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	current := c.value
	c.mu.Unlock()

	logAttrs := append([]slog.Attr{
		slog.String("metric", c.name),
		slog.String("type", "counter"),
		slog.Int64("value", current),
		slog.Int64("delta", value),
	}, toSlogAttrs(attrs)...)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", logAttrs...)
}

type slogHistogram struct {
	mu     sync.Mutex
	name   string
	logger *slog.Logger
	count  int64
	sum    float64
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.mu.Lock()
	h.count++
	h.sum += value
	h.mu.Unlock()

	logAttrs := append([]slog.Attr{
		slog.String("metric", h.name),
		slog.String("type", "histogram"),
		slog.Float64("value", value),
	}, toSlogAttrs(attrs)...)
	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", logAttrs...)
}

// --- LOGGING ---

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, LevelTrace, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlogAttrs(attrs)...)
}

func toSlogAttrs(attrs []observability.Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, slog.Any(attr.Key, attr.Value))
	}
	return out
}

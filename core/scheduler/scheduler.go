package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/store"
)

const (
	DefaultEvictionSpec = "@every 10m"
	DefaultSessionTTL   = 24 * time.Hour

	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	evictionTimeout       = time.Minute
)

// Scheduler periodically drops sessions older than the TTL from the session
// scope.
type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	sessions store.SessionStore
	observer observability.Provider
	spec     string
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Scheduler)

// WithSpec sets the cron schedule, e.g. "@every 10m" or "*/5 * * * *".
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithTTL sets how long a session is kept; non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Scheduler) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New returns a stopped scheduler. observer may be nil.
func New(ctx context.Context, sessions store.SessionStore, observer observability.Provider, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:      ctx,
		cron:     cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds))),
		sessions: sessions,
		observer: observer,
		spec:     DefaultEvictionSpec,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.evict); err != nil {
		return fmt.Errorf("schedule eviction %q: %w", s.spec, err)
	}

	s.cron.Start()

	return nil
}

// Stop halts the schedule and waits for a running eviction to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// EvictStale removes every session created more than the TTL ago and
// returns how many were removed.
func (s *Scheduler) EvictStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)

	var span observability.Span
	if s.observer != nil {
		ctx, span = s.observer.StartSpan(ctx, observability.SpanSessionEviction)
		defer span.End()
	}

	removed, err := s.sessions.EvictSessions(ctx, cutoff)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "eviction failed")
		}
		return removed, fmt.Errorf("evict sessions: %w", err)
	}

	if s.observer != nil {
		s.observer.Counter(observability.MetricSessionsEvicted).Add(ctx, int64(removed))
		if removed > 0 {
			s.observer.Info(ctx, "Evicted stale sessions",
				observability.Int("removed", removed),
				observability.Duration("ttl", s.ttl),
			)
		}
	}
	return removed, nil
}

func (s *Scheduler) evict() {
	ctx, cancel := context.WithTimeout(s.ctx, evictionTimeout)
	defer cancel()

	if ctx.Err() != nil {
		if s.observer != nil {
			s.observer.Info(ctx, "Scheduler context is done", observability.Error(ctx.Err()))
		}
		return
	}

	if _, err := s.EvictStale(ctx); err != nil && s.observer != nil {
		s.observer.Error(ctx, "Failed to evict stale sessions", observability.Error(err))
	}
}

package summarizer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/leofalp/sitesummarizer/core/settings"
	"github.com/leofalp/sitesummarizer/internal/utils"
	"github.com/leofalp/sitesummarizer/providers/ai"
	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/page"
	"github.com/leofalp/sitesummarizer/providers/sink"
	"github.com/leofalp/sitesummarizer/providers/store"
)

// Request is one summarization with every parameter spelled out.
type Request struct {
	Target   page.Target
	Provider ai.ProviderName
	APIKey   string
	Model    string
	Length   string
}

// ShortcutRequest names only the page; everything else comes from the saved
// settings.
type ShortcutRequest struct {
	Target page.Target
}

// OpenedFunc is told the session id as soon as the session exists, before
// the first delta is requested.
type OpenedFunc func(sessionID string)

// Summarizer runs summarizations end to end: extract the page, build the
// prompt, stream the provider's answer into the session store and the hub.
type Summarizer struct {
	extractor page.Extractor
	sessions  store.SessionStore
	hub       *sink.Hub
	providers map[ai.ProviderName]ai.StreamProvider
	settings  *settings.Service
	observer  observability.Provider
	now       func() time.Time
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithProvider registers a provider under its Name, replacing any previous one.
func WithProvider(provider ai.StreamProvider) Option {
	return func(s *Summarizer) {
		s.providers[provider.Name()] = provider
	}
}

// WithSettings enables SummarizeShortcut.
func WithSettings(svc *settings.Service) Option {
	return func(s *Summarizer) {
		s.settings = svc
	}
}

// WithObserver reports spans, metrics and logs to observer. Without it the
// observer found in the request context, if any, is used.
func WithObserver(observer observability.Provider) Option {
	return func(s *Summarizer) {
		s.observer = observer
	}
}

// WithClock replaces time.Now for session timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) {
		s.now = now
	}
}

func New(extractor page.Extractor, sessions store.SessionStore, hub *sink.Hub, opts ...Option) *Summarizer {
	s := &Summarizer{
		extractor: extractor,
		sessions:  sessions,
		hub:       hub,
		providers: make(map[ai.ProviderName]ai.StreamProvider),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SummarizeShortcut resolves provider, model, length and key from the saved
// settings and runs Summarize. A missing saved key is ErrMissingAPIKey.
func (s *Summarizer) SummarizeShortcut(ctx context.Context, req ShortcutRequest, opened OpenedFunc) (*store.Session, error) {
	if s.settings == nil {
		return nil, errors.New("settings are not configured")
	}

	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	saved, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	return s.Summarize(ctx, Request{
		Target:   req.Target,
		Provider: saved.Provider,
		APIKey:   apiKey,
		Model:    saved.Model,
		Length:   saved.Length,
	}, opened)
}

// Summarize runs one summarization and returns its terminal session.
//
// Input errors (ErrInput) and extraction errors are returned before a session
// exists, with a nil session. Once opened has been called every outcome is
// persisted: a failed stream leaves a snapshot with OK=false holding whatever
// text arrived, and the returned session is that snapshot.
func (s *Summarizer) Summarize(ctx context.Context, req Request, opened OpenedFunc) (*store.Session, error) {
	if strings.TrimSpace(req.Target.URL) == "" {
		return nil, ErrMissingTarget
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	providerName := ai.ParseProviderName(string(req.Provider))
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", providerName)
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = provider.DefaultModel()
	}

	observer := s.observer
	if observer == nil {
		observer = observability.ObserverFromContext(ctx)
	}
	tr := &runTracker{
		observer: observer,
		timer:    utils.NewTimer(),
		attrs: []observability.Attribute{
			observability.String(observability.AttrLLMProvider, providerName.String()),
			observability.String(observability.AttrLLMModel, model),
		},
	}
	if observer != nil {
		ctx = observability.ContextWithObserver(ctx, observer)
		ctx, tr.span = observer.StartSpan(ctx, observability.SpanSummarize,
			append(tr.attrs, observability.String(observability.AttrSummaryLength, req.Length))...,
		)
		defer tr.span.End()
	}
	tr.count(ctx, observability.MetricSummariesStarted)

	// Extract
	extracted, err := s.extractor.Extract(ctx, req.Target)
	if err != nil {
		return nil, tr.fail(ctx, "extract", fmt.Errorf("extract page: %w", err))
	}
	if utf8.RuneCountInString(extracted.Text) < MinTextLength {
		return nil, tr.fail(ctx, "extract", ErrInsufficientText)
	}

	// PromptBuild
	prompt := BuildPrompt(extracted, req.Length)

	// StreamOpen
	created := s.now()
	session := store.Session{
		ID:        newSessionID(created),
		Provider:  providerName.String(),
		Model:     model,
		Title:     extracted.Title,
		URL:       extracted.URL,
		CreatedAt: created,
		OK:        true,
	}
	if err := s.sessions.PutSession(ctx, session); err != nil {
		return nil, tr.fail(ctx, "stream_open", fmt.Errorf("persist session: %w", err))
	}
	tr.sessionOpened(ctx, session.ID)
	if opened != nil {
		opened(session.ID)
	}
	s.hub.Broadcast(session.ID, sink.Message{Type: sink.MessageInit, SessionID: session.ID})

	// Streaming
	var summary strings.Builder
	deltas := 0
	streamErr := tr.stream(ctx, provider, ai.StreamRequest{APIKey: req.APIKey, Model: model, Prompt: prompt}, func(delta string) error {
		summary.WriteString(delta)
		deltas++

		session.Summary = summary.String()
		if err := s.sessions.PutSession(ctx, session); err != nil {
			tr.warn(ctx, "Failed to persist partial summary", session.ID, err)
		}

		s.hub.Broadcast(session.ID, sink.Message{Type: sink.MessageDelta, SessionID: session.ID, Delta: delta})
		return nil
	})
	tr.add(ctx, observability.MetricSummaryDeltas, int64(deltas))

	session.Summary = summary.String()
	session.Done = true

	if streamErr != nil {
		session.OK = false
		session.Error = streamErr.Error()
		if err := s.sessions.PutSession(ctx, session); err != nil {
			tr.warn(ctx, "Failed to persist failed session", session.ID, err)
		}
		s.hub.Broadcast(session.ID, sink.Message{Type: sink.MessageError, SessionID: session.ID, Error: session.Error})
		return &session, tr.fail(ctx, "streaming", streamErr)
	}

	// Persist
	session.CreatedAt = s.now()
	if err := s.sessions.PutSession(ctx, session); err != nil {
		err = fmt.Errorf("persist summary: %w", err)
		s.hub.Broadcast(session.ID, sink.Message{Type: sink.MessageError, SessionID: session.ID, Error: err.Error()})
		return &session, tr.fail(ctx, "persist", err)
	}

	// Done
	s.hub.Broadcast(session.ID, sink.Message{Type: sink.MessageDone, SessionID: session.ID})
	tr.succeed(ctx, session)
	return &session, nil
}

// newSessionID returns "summary_<unix ms>_<random hex>".
func newSessionID(t time.Time) string {
	id := uuid.New()
	return "summary_" + strconv.FormatInt(t.UnixMilli(), 10) + "_" + hex.EncodeToString(id[:8])
}

// runTracker carries the observability state of one Summarize call.
type runTracker struct {
	observer observability.Provider
	span     observability.Span
	timer    *utils.Timer
	attrs    []observability.Attribute
}

func (r *runTracker) stream(ctx context.Context, provider ai.StreamProvider, request ai.StreamRequest, onDelta ai.DeltaFunc) error {
	if r.observer == nil {
		return provider.Stream(ctx, request, onDelta)
	}

	ctx, span := r.observer.StartSpan(ctx, observability.SpanProviderStream, r.attrs...)
	defer span.End()

	err := provider.Stream(ctx, request, onDelta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "provider stream failed")
		return err
	}
	span.SetStatus(observability.StatusOK, "")
	return nil
}

func (r *runTracker) sessionOpened(ctx context.Context, sessionID string) {
	r.attrs = append(r.attrs, observability.String(observability.AttrSessionID, sessionID))
	if r.span != nil {
		r.span.SetAttributes(observability.String(observability.AttrSessionID, sessionID))
		r.span.AddEvent(observability.EventSessionOpened)
	}
	if r.observer != nil {
		r.observer.Debug(ctx, "Summary session opened", r.attrs...)
	}
}

func (r *runTracker) succeed(ctx context.Context, session store.Session) {
	r.timer.Stop()
	if r.span != nil {
		r.span.SetAttributes(observability.Int(observability.AttrSummaryChars, utf8.RuneCountInString(session.Summary)))
		r.span.AddEvent(observability.EventSessionPersisted)
		r.span.SetStatus(observability.StatusOK, "")
	}
	if r.observer == nil {
		return
	}

	r.observer.Counter(observability.MetricSummariesCompleted).Add(ctx, 1, r.attrs...)
	r.observer.Histogram(observability.MetricSummaryDuration).Record(ctx, r.timer.Milliseconds(),
		append(r.attrs, observability.String(observability.AttrStatus, "ok"))...,
	)
	r.observer.Info(ctx, "Summary completed",
		append(r.attrs,
			observability.Int(observability.AttrSummaryChars, utf8.RuneCountInString(session.Summary)),
			observability.Duration(observability.AttrDuration, r.timer.GetDuration()),
		)...,
	)
}

// fail records err against the state it happened in and returns it unchanged.
func (r *runTracker) fail(ctx context.Context, state string, err error) error {
	r.timer.Stop()
	if r.span != nil {
		r.span.RecordError(err)
		r.span.AddEvent(observability.EventSessionFailed, observability.String(observability.AttrSummaryState, state))
		r.span.SetStatus(observability.StatusError, "summarization failed")
	}
	if r.observer == nil {
		return err
	}

	attrs := append(r.attrs,
		observability.String(observability.AttrSummaryState, state),
		observability.String(observability.AttrErrorType, ErrorType(err)),
	)
	r.observer.Counter(observability.MetricSummariesFailed).Add(ctx, 1, attrs...)
	r.observer.Histogram(observability.MetricSummaryDuration).Record(ctx, r.timer.Milliseconds(),
		append(attrs, observability.String(observability.AttrStatus, "error"))...,
	)
	r.observer.Error(ctx, "Summary failed",
		append(attrs,
			observability.Error(err),
			observability.Duration(observability.AttrDuration, r.timer.GetDuration()),
		)...,
	)
	return err
}

func (r *runTracker) warn(ctx context.Context, msg, sessionID string, err error) {
	if r.observer == nil {
		return
	}
	r.observer.Warn(ctx, msg,
		observability.String(observability.AttrSessionID, sessionID),
		observability.Error(err),
	)
}

func (r *runTracker) count(ctx context.Context, name string) {
	r.add(ctx, name, 1)
}

func (r *runTracker) add(ctx context.Context, name string, value int64) {
	if r.observer == nil || value == 0 {
		return
	}
	r.observer.Counter(name).Add(ctx, value, r.attrs...)
}

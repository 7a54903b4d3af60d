package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/leofalp/sitesummarizer/core/settings"
	"github.com/leofalp/sitesummarizer/core/summarizer"
	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/sink"
	"github.com/leofalp/sitesummarizer/providers/store"
)

const (
	maxRequestBodySize = 1 << 20
	readHeaderTimeout  = 10 * time.Second
	shutdownTimeout    = 30 * time.Second
)

// Server exposes the summarizer over HTTP. Summarizations outlive the
// request that started them; Wait blocks until all of them have finished.
type Server struct {
	summarizer *summarizer.Summarizer
	sessions   store.SessionStore
	hub        *sink.Hub
	settings   *settings.Service
	observer   observability.Provider

	runs sync.WaitGroup
}

// New wires the handlers. observer may be nil.
func New(summ *summarizer.Summarizer, sessions store.SessionStore, hub *sink.Hub, settingsSvc *settings.Service, observer observability.Provider) *Server {
	return &Server{
		summarizer: summ,
		sessions:   sessions,
		hub:        hub,
		settings:   settingsSvc,
		observer:   observer,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("POST /summarize/shortcut", s.handleSummarizeShortcut)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /sessions/{id}/events", s.handleSessionEvents)
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.handlePutSettings)
	mux.HandleFunc("DELETE /settings/apikey", s.handleClearAPIKey)

	return s.withObservability(mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down and waits
// for running summarizations.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	if s.observer != nil {
		s.observer.Info(ctx, "HTTP server listening", observability.String("addr", addr))
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		return fmt.Errorf("wait for summarizations: %w", shutdownCtx.Err())
	}
	return nil
}

// Wait blocks until every summarization started through the API has ended.
func (s *Server) Wait() {
	s.runs.Wait()
}

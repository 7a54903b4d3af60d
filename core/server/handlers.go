package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leofalp/sitesummarizer/core/settings"
	"github.com/leofalp/sitesummarizer/core/summarizer"
	"github.com/leofalp/sitesummarizer/providers/ai"
	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/page"
	"github.com/leofalp/sitesummarizer/providers/store"
)

type summarizeRequest struct {
	URL       string `json:"url"`
	Selection string `json:"selection"`
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey"`
	Model     string `json:"model"`
	Length    string `json:"length"`
}

type summarizeResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type settingsRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Length   string `json:"length"`
	APIKey   string `json:"apiKey"`
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "pong": true})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var body summarizeRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req := summarizer.Request{
		Target:   page.Target{URL: body.URL, Selection: body.Selection},
		Provider: ai.ProviderName(body.Provider),
		APIKey:   body.APIKey,
		Model:    body.Model,
		Length:   body.Length,
	}
	s.start(w, r, func(ctx context.Context, opened summarizer.OpenedFunc) error {
		_, err := s.summarizer.Summarize(ctx, req, opened)
		return err
	})
}

func (s *Server) handleSummarizeShortcut(w http.ResponseWriter, r *http.Request) {
	var body summarizeRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req := summarizer.ShortcutRequest{Target: page.Target{URL: body.URL, Selection: body.Selection}}
	s.start(w, r, func(ctx context.Context, opened summarizer.OpenedFunc) error {
		_, err := s.summarizer.SummarizeShortcut(ctx, req, opened)
		return err
	})
}

// start runs summarize detached from the request and answers as soon as the
// session is opened, or with the error that prevented it.
func (s *Server) start(w http.ResponseWriter, r *http.Request, summarize func(context.Context, summarizer.OpenedFunc) error) {
	ctx := context.WithoutCancel(r.Context())
	if s.observer != nil {
		ctx = observability.ContextWithObserver(ctx, s.observer)
	}

	openedCh := make(chan string, 1)
	errCh := make(chan error, 1)

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		err := summarize(ctx, func(sessionID string) { openedCh <- sessionID })
		if err != nil {
			errCh <- err
		}
	}()

	select {
	case sessionID := <-openedCh:
		writeJSON(w, http.StatusOK, summarizeResponse{OK: true, SessionID: sessionID})
	case err := <-errCh:
		// a stream that fails right after opening still reports its session
		select {
		case sessionID := <-openedCh:
			writeJSON(w, http.StatusOK, summarizeResponse{OK: true, SessionID: sessionID})
			return
		default:
		}

		status := http.StatusBadGateway
		if errors.Is(err, summarizer.ErrInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, summarizeResponse{Error: err.Error()})
	case <-r.Context().Done():
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.settings.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsRequest
	if !decodeBody(w, r, &body) {
		return
	}

	next := settings.Settings{
		Provider: ai.ParseProviderName(body.Provider),
		Model:    body.Model,
		Length:   body.Length,
	}
	if err := s.settings.Save(r.Context(), next, body.APIKey); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.handleGetSettings(w, r)
}

func (s *Server) handleClearAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.ClearAPIKey(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request body: %w", err))
		return false
	}
	return true
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, summarizeResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/sink"
)

// SSE event names written by the events endpoint.
const (
	EventSnapshot = "snapshot"
	EventInit     = "init"
	EventDelta    = "delta"
	EventDone     = "done"
	EventError    = "error"
)

// handleSessionEvents streams one session as server-sent events: first the
// stored snapshot, then live messages until DONE or ERROR.
//
// The subscription is taken before the snapshot is read, so nothing is lost
// in between; a delta may appear both in the snapshot and as a live event.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	sessionID := r.PathValue("id")
	sub := s.hub.Subscribe(sessionID)
	defer sub.Close()
	if s.observer != nil {
		s.observer.Debug(r.Context(), "Event subscriber attached",
			observability.String(observability.AttrSessionID, sessionID),
			observability.Int("subscribers", s.hub.Subscribers(sessionID)),
		)
	}

	snapshot, err := s.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, flusher, EventSnapshot, snapshot); err != nil {
		return
	}
	if snapshot.Done {
		return
	}

	for {
		msg, err := sub.Next(r.Context())
		if err != nil {
			return
		}
		// the hub is keyed by session; this guards against a miswired publisher
		if msg.SessionID != sessionID {
			continue
		}

		if err := writeEvent(w, flusher, eventName(msg.Type), msg); err != nil {
			if s.observer != nil {
				s.observer.Debug(r.Context(), "Event subscriber went away",
					observability.String(observability.AttrSessionID, sessionID),
					observability.Error(err),
				)
			}
			return
		}
		if msg.Type.Terminal() {
			return
		}
	}
}

func eventName(t sink.MessageType) string {
	switch t {
	case sink.MessageInit:
		return EventInit
	case sink.MessageDelta:
		return EventDelta
	case sink.MessageDone:
		return EventDone
	case sink.MessageError:
		return EventError
	default:
		return strings.ToLower(string(t))
	}
}

// writeEvent writes one SSE event with a single-line JSON data field.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/store"
)

// Store keeps both scopes in process memory. It is safe for concurrent use and
// hands out copies, so callers cannot mutate stored records.
type Store struct {
	mu       sync.RWMutex
	values   map[string]string
	sessions map[string]store.Session
}

var (
	_ store.KV           = (*Store)(nil)
	_ store.SessionStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		values:   make(map[string]string),
		sessions: make(map[string]store.Session),
	}
}

func (s *Store) Get(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := s.values[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (s *Store) Set(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range values {
		s.values[key] = value
	}
	return nil
}

func (s *Store) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (store.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return store.Session{}, fmt.Errorf("session %q: %w", id, store.ErrNotFound)
	}
	return session, nil
}

// PutSession overwrites the record with the same id.
func (s *Store) PutSession(_ context.Context, session store.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id is empty")
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return nil
}

func (s *Store) EvictSessions(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	evicted := 0
	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.Int(observability.MetricSessionsEvicted, evicted),
			observability.Int("sessions.remaining", remaining),
		)
	}
	return evicted, nil
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

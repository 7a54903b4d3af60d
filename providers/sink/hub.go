package sink

import (
	"context"
	"errors"
	"sync"
)

// MessageType tags a sink message.
type MessageType string

const (
	// MessageInit is sent once the session exists, before the first delta.
	MessageInit MessageType = "INIT"
	// MessageDelta carries one text fragment.
	MessageDelta MessageType = "DELTA"
	// MessageDone is sent after the final snapshot is persisted.
	MessageDone MessageType = "DONE"
	// MessageError is sent after a failed session's snapshot is persisted.
	MessageError MessageType = "ERROR"
)

// Terminal reports whether no further messages follow for the session.
func (t MessageType) Terminal() bool {
	return t == MessageDone || t == MessageError
}

// Message is one notification for a session's subscribers.
type Message struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"key"`
	Delta     string      `json:"delta,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("subscription closed")

// Hub fans messages out to the subscribers of each session. Broadcast never
// blocks and never drops: every subscription has its own unbounded queue.
// The zero value is not usable; call NewHub.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]*Subscription)}
}

// Broadcast delivers msg to every current subscriber of sessionID. Having no
// subscribers is not an error.
func (h *Hub) Broadcast(sessionID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[sessionID] {
		sub.push(msg)
	}
}

// Subscribe attaches to sessionID. Messages broadcast before this call are not
// replayed; read the stored session after subscribing to catch up.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		hub:       h,
		id:        h.nextID,
		sessionID: sessionID,
		signal:    make(chan struct{}, 1),
	}

	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[uint64]*Subscription)
	}
	h.subs[sessionID][sub.id] = sub
	return sub
}

// Subscribers returns how many subscriptions are attached to sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[sub.sessionID]
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.subs, sub.sessionID)
	}
}

// Subscription is one reader's queue. It is meant for a single goroutine
// calling Next; Close may be called from anywhere.
type Subscription struct {
	hub       *Hub
	id        uint64
	sessionID string

	mu     sync.Mutex
	queue  []Message
	closed bool
	signal chan struct{}
}

func (s *Subscription) SessionID() string {
	return s.sessionID
}

func (s *Subscription) push(msg Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Next returns the next queued message, waiting until one arrives, ctx is
// done or the subscription is closed.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			msg := s.queue[0]
			s.queue[0] = Message{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return msg, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return Message{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-s.signal:
		}
	}
}

// Close detaches the subscription. Queued messages are discarded. Calling
// Close more than once is safe.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.hub.remove(s)

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

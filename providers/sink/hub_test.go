package sink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	h := NewHub()
	h.Broadcast("summary_1", Message{Type: MessageDelta, SessionID: "summary_1", Delta: "x"})
	if n := h.Subscribers("summary_1"); n != 0 {
		t.Errorf("Subscribers = %d, want 0", n)
	}
}

func TestHub_DeliversInOrder(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("summary_1")
	defer sub.Close()

	h.Broadcast("summary_1", Message{Type: MessageInit, SessionID: "summary_1"})
	h.Broadcast("summary_1", Message{Type: MessageDelta, SessionID: "summary_1", Delta: "Hello"})
	h.Broadcast("summary_1", Message{Type: MessageDelta, SessionID: "summary_1", Delta: " world"})
	h.Broadcast("summary_1", Message{Type: MessageDone, SessionID: "summary_1"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	want := []MessageType{MessageInit, MessageDelta, MessageDelta, MessageDone}
	var text string
	for i, wantType := range want {
		msg, err := sub.Next(ctx)
		if err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
		if msg.Type != wantType {
			t.Errorf("message #%d type = %s, want %s", i, msg.Type, wantType)
		}
		text += msg.Delta
	}
	if text != "Hello world" {
		t.Errorf("concatenated deltas = %q", text)
	}
}

func TestHub_SessionsAreIsolated(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("a")
	defer a.Close()
	b := h.Subscribe("b")
	defer b.Close()

	h.Broadcast("a", Message{Type: MessageDelta, SessionID: "a", Delta: "for-a"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := b.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("b.Next err = %v, want deadline exceeded", err)
	}

	msg, err := a.Next(context.Background())
	if err != nil || msg.Delta != "for-a" {
		t.Errorf("a.Next = %+v, %v", msg, err)
	}
}

func TestHub_FanOut(t *testing.T) {
	h := NewHub()
	first := h.Subscribe("s")
	second := h.Subscribe("s")
	defer first.Close()
	defer second.Close()

	if n := h.Subscribers("s"); n != 2 {
		t.Fatalf("Subscribers = %d, want 2", n)
	}

	h.Broadcast("s", Message{Type: MessageDone, SessionID: "s"})

	for _, sub := range []*Subscription{first, second} {
		msg, err := sub.Next(context.Background())
		if err != nil || msg.Type != MessageDone {
			t.Errorf("Next = %+v, %v", msg, err)
		}
	}
}

func TestSubscription_NoReplay(t *testing.T) {
	h := NewHub()
	h.Broadcast("s", Message{Type: MessageDelta, SessionID: "s", Delta: "early"})

	sub := h.Subscribe("s")
	defer sub.Close()
	h.Broadcast("s", Message{Type: MessageDelta, SessionID: "s", Delta: "late"})

	msg, err := sub.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Delta != "late" {
		t.Errorf("Delta = %q, want late", msg.Delta)
	}
}

func TestSubscription_Close(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("s")

	done := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		done <- err
	}()

	sub.Close()
	sub.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Next after Close = %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}

	if n := h.Subscribers("s"); n != 0 {
		t.Errorf("Subscribers after Close = %d", n)
	}

	// Broadcasting to a closed subscription must not panic or block.
	h.Broadcast("s", Message{Type: MessageDelta, SessionID: "s"})
}

func TestHub_ConcurrentBroadcastNeverDrops(t *testing.T) {
	const producers, perProducer = 8, 250

	h := NewHub()
	sub := h.Subscribe("s")
	defer sub.Close()

	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perProducer {
				h.Broadcast("s", Message{Type: MessageDelta, SessionID: "s", Delta: "."})
			}
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := range producers * perProducer {
		if _, err := sub.Next(ctx); err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
	}
}

func TestMessageType_Terminal(t *testing.T) {
	cases := map[MessageType]bool{
		MessageInit:  false,
		MessageDelta: false,
		MessageDone:  true,
		MessageError: true,
	}
	for typ, want := range cases {
		if got := typ.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", typ, got, want)
		}
	}
}

package notify

import (
	"context"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	alice, cancelA := h.Subscribe(ctx, "alice")
	defer cancelA()
	bob, cancelB := h.Subscribe(ctx, "bob")
	defer cancelB()

	if err := h.Publish(ctx, "alice"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := recv(t, alice)
	if ev.UserID != "alice" || ev.At.IsZero() {
		t.Errorf("event = %+v", ev)
	}

	select {
	case ev := <-bob:
		t.Fatalf("bob received alice's event: %+v", ev)
	default:
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe(context.Background(), "local")
	if h.Subscribers("local") != 1 {
		t.Fatalf("subscribers = %d, want 1", h.Subscribers("local"))
	}

	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
	if h.Subscribers("local") != 0 {
		t.Errorf("subscribers = %d, want 0", h.Subscribers("local"))
	}

	// Publishing after cancel must not panic.
	_ = h.Publish(context.Background(), "local")
}

func TestHub_ContextDoneUnsubscribes(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := h.Subscribe(ctx, "local")

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to close")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription did not end with context")
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe(context.Background(), "local")
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		if err := h.Publish(context.Background(), "local"); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestDecodeEvent(t *testing.T) {
	ev, err := decodeEvent(Channel("alice"), `{"userId":"mallory","at":"2026-01-02T03:04:05Z"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.UserID != "alice" {
		t.Errorf("user = %q, want channel user alice", ev.UserID)
	}
	if ev.At.Year() != 2026 {
		t.Errorf("at = %v", ev.At)
	}

	if _, err := decodeEvent(Channel("alice"), "not json"); err == nil {
		t.Error("expected error for bad payload")
	}
}

func TestNew_WithoutRedisUsesHub(t *testing.T) {
	b, err := New(RedisOptions{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer b.Close()
	if _, ok := b.(*Hub); !ok {
		t.Errorf("broker = %T, want *Hub", b)
	}
}

func TestNewRedisBroker_Unreachable(t *testing.T) {
	_, err := NewRedisBroker(RedisOptions{Addr: "127.0.0.1:1"}, nil)
	if err == nil {
		t.Fatal("expected ping error for unreachable redis")
	}
}

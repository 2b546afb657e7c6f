// Package notify fans out "progress changed" events keyed by user id.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sertugser/assessai/internal/logger"
)

// Event says that a user's activity collection changed.
type Event struct {
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// Broker publishes change events and hands out per-user subscriptions.
type Broker interface {
	Publish(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string) (<-chan Event, func())
	Close() error
}

const subscriberBuffer = 8

type subscriber struct {
	ch   chan Event
	once sync.Once
}

// Hub is the in-process Broker. Slow subscribers drop events rather than
// block publishers.
type Hub struct {
	log *logger.Logger

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates an empty Hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		log:  log.With("component", "notify"),
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers an event to every subscriber of userID.
func (h *Hub) Publish(_ context.Context, userID string) error {
	h.deliver(Event{UserID: strings.TrimSpace(userID), At: time.Now()})
	return nil
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[ev.UserID] {
		select {
		case s.ch <- ev:
		default:
			h.log.Warn("dropping progress event; subscriber buffer full", "user", ev.UserID)
		}
	}
}

// Subscribe returns a channel of events for userID and a cancel func. The
// subscription also ends when ctx is done. The channel is closed on cancel.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan Event, func()) {
	userID = strings.TrimSpace(userID)
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, s)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
	stop := context.AfterFunc(ctx, cancel)

	return s.ch, func() {
		stop()
		cancel()
	}
}

// Subscribers returns the number of live subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close is a no-op for the in-process hub.
func (h *Hub) Close() error { return nil }

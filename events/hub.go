package events

import (
	"context"
	"sync"
	"time"

	"mediahub/logger"
)

const defaultBuffer = 16

type subscription struct {
	ch   chan Event
	once sync.Once
}

// Hub fans events out to the websocket subscribers of each user. With a Bus
// attached, events travel through the bus so other instances see them too.
type Hub struct {
	log    *logger.Logger
	bus    Bus
	buffer int

	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	closed bool
}

func NewHub(bus Bus, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		log:    log.With("service", "EventHub"),
		bus:    bus,
		buffer: defaultBuffer,
		subs:   make(map[string]map[*subscription]struct{}),
	}
}

// Start begins forwarding bus traffic to local subscribers until ctx ends.
func (h *Hub) Start(ctx context.Context) error {
	if h.bus == nil {
		return nil
	}
	return h.bus.StartForwarder(ctx, h.dispatch)
}

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if h.bus != nil {
		err := h.bus.Publish(ctx, ev)
		if err == nil {
			return nil
		}
		h.log.Warn("event bus publish failed, delivering locally", "type", ev.Type, "error", err)
	}
	h.dispatch(ev)
	return nil
}

// Subscribe returns a channel of userID's events and a func that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		sub.once.Do(func() { close(sub.ch) })
	}
	return sub.ch, cancel
}

// SubscriberCount reports how many live subscriptions userID has.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (h *Hub) dispatch(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.UserID] {
		select {
		case sub.ch <- ev:
		default:
			h.log.Debug("dropping event for slow subscriber", "userId", ev.UserID, "type", ev.Type)
		}
	}
}

// Close ends every subscription and releases the bus.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	for userID, set := range h.subs {
		for sub := range set {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(h.subs, userID)
	}
	h.mu.Unlock()

	if h.bus != nil {
		return h.bus.Close()
	}
	return nil
}

package console

import (
	"fmt"
	"sync"
	"time"
)

// Event topics published on the console bus.
const (
	EventRawInput         = "input.raw"
	EventRequestExclusive = "input.request_exclusive"
	EventReleaseExclusive = "input.release_exclusive"
	EventModelsUpdated    = "models.updated"
)

// Event is a single notification delivered through the bus.
type Event struct {
	Type      string
	Source    string
	Data      interface{}
	Timestamp int64
}

// EventHandler processes a single event.
type EventHandler func(event Event) error

// EventBus is a small synchronous pub/sub hub. The input reader publishes
// raw byte chunks on it before parsing, so listeners (like the raw escape
// sequence watcher) see exactly what the terminal sent.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[string][]eventSubscription
	idCounter     int
}

type eventSubscription struct {
	id      string
	handler EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscriptions: make(map[string][]eventSubscription),
	}
}

// Subscribe registers a handler for an event type and returns a
// subscription id for later removal.
func (eb *EventBus) Subscribe(eventType string, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.idCounter++
	id := fmt.Sprintf("sub_%d", eb.idCounter)

	eb.subscriptions[eventType] = append(eb.subscriptions[eventType], eventSubscription{
		id:      id,
		handler: handler,
	})

	return id
}

// Unsubscribe removes a subscription by id.
func (eb *EventBus) Unsubscribe(subscriptionID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for key, subs := range eb.subscriptions {
		for i, sub := range subs {
			if sub.id == subscriptionID {
				eb.subscriptions[key] = append(subs[:i], subs[i+1:]...)
				if len(eb.subscriptions[key]) == 0 {
					delete(eb.subscriptions, key)
				}
				return
			}
		}
	}
}

// Publish delivers an event to every subscriber of its type, in
// subscription order, on the caller's goroutine. Handlers run outside
// the bus lock so they may subscribe or unsubscribe freely.
func (eb *EventBus) Publish(event Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}

	eb.mu.RLock()
	var handlers []EventHandler
	for _, sub := range eb.subscriptions[event.Type] {
		handlers = append(handlers, sub.handler)
	}
	eb.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

package console

import (
	"errors"
	"testing"
)

func TestEventBusSubscribePublish(t *testing.T) {
	bus := NewEventBus()

	var got []Event
	bus.Subscribe("topic.a", func(event Event) error {
		got = append(got, event)
		return nil
	})

	if err := bus.Publish(Event{Type: "topic.a", Source: "test", Data: 42}); err != nil {
		t.Fatalf("Publish returned %v", err)
	}
	if len(got) != 1 || got[0].Data != 42 || got[0].Source != "test" {
		t.Errorf("Expected one delivery with payload, got %+v", got)
	}
	if got[0].Timestamp == 0 {
		t.Error("Expected a timestamp stamped on publish")
	}

	// Other topics do not leak in.
	if err := bus.Publish(Event{Type: "topic.b"}); err != nil {
		t.Fatalf("Publish returned %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected no delivery for another topic, got %d", len(got))
	}
}

func TestEventBusMultipleSubscribersInOrder(t *testing.T) {
	bus := NewEventBus()

	var order []string
	bus.Subscribe("t", func(Event) error { order = append(order, "first"); return nil })
	bus.Subscribe("t", func(Event) error { order = append(order, "second"); return nil })

	_ = bus.Publish(Event{Type: "t"})
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Expected delivery in subscription order, got %v", order)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	id := bus.Subscribe("t", func(Event) error { calls++; return nil })
	keep := 0
	bus.Subscribe("t", func(Event) error { keep++; return nil })

	bus.Unsubscribe(id)
	_ = bus.Publish(Event{Type: "t"})

	if calls != 0 {
		t.Errorf("Expected unsubscribed handler silent, got %d calls", calls)
	}
	if keep != 1 {
		t.Errorf("Expected remaining handler delivered, got %d calls", keep)
	}

	// Unknown ids are ignored.
	bus.Unsubscribe("sub_999")
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()

	first := errors.New("first failure")
	bus.Subscribe("t", func(Event) error { return first })
	bus.Subscribe("t", func(Event) error { return errors.New("second failure") })
	delivered := 0
	bus.Subscribe("t", func(Event) error { delivered++; return nil })

	err := bus.Publish(Event{Type: "t"})
	if !errors.Is(err, first) {
		t.Errorf("Expected the first handler error, got %v", err)
	}
	if delivered != 1 {
		t.Error("A failing handler must not stop later deliveries")
	}
}

func TestEventBusPublishFromHandler(t *testing.T) {
	// Handlers run outside the bus lock, so nested publishes and even
	// subscriptions from inside a handler must not deadlock.
	bus := NewEventBus()

	nested := 0
	bus.Subscribe("inner", func(Event) error { nested++; return nil })
	bus.Subscribe("outer", func(Event) error {
		return bus.Publish(Event{Type: "inner"})
	})

	if err := bus.Publish(Event{Type: "outer"}); err != nil {
		t.Fatalf("Nested publish failed: %v", err)
	}
	if nested != 1 {
		t.Errorf("Expected nested delivery, got %d", nested)
	}
}

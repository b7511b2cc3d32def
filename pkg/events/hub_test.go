package events

import "testing"

func TestPublishSubscribe(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish(ControllerPhase, PhaseEvent{Controller: "ctrl-1", From: "idle", To: "starting", Ts: 1})

	ev := <-ch
	if ev.Name != ControllerPhase {
		t.Fatalf("event name = %q", ev.Name)
	}
	payload, err := DecodeAs[PhaseEvent](ev)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.From != "idle" || payload.To != "starting" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	// A second unsubscribe must not panic.
	h.Unsubscribe(ch)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Overflow the buffer; publishing must not block.
	for i := 0; i < 100; i++ {
		h.Publish(ControllerPhase, PhaseEvent{Ts: int64(i)})
	}

	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered events = %d, want full buffer %d", got, cap(ch))
	}
}

func TestNilHubPublishIsSafe(t *testing.T) {
	var h *EventHub
	h.Publish(ControllerPhase, PhaseEvent{})
}

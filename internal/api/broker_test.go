package api

import (
	"testing"
	"time"
)

func TestBrokerPublishToSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("tech-1")
	defer b.Unsubscribe("tech-1", ch)

	b.Publish("tech-1", Event{Type: "assignment", Data: map[string]any{"ticketKey": "DC-1"}})
	select {
	case evt := <-ch:
		if evt.Type != "assignment" {
			t.Fatalf("want assignment, got %q", evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBrokerIsolatesTechnicians(t *testing.T) {
	b := NewBroker()
	ch1 := b.Subscribe("tech-1")
	ch2 := b.Subscribe("tech-2")
	defer b.Unsubscribe("tech-1", ch1)
	defer b.Unsubscribe("tech-2", ch2)

	b.Publish("tech-2", Event{Type: "assignment"})
	select {
	case <-ch1:
		t.Fatal("tech-1 received tech-2's event")
	case <-time.After(50 * time.Millisecond):
	}
	select {
	case <-ch2:
	case <-time.After(time.Second):
		t.Fatal("tech-2 did not receive its event")
	}
}

func TestBrokerDropsWhenSubscriberSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("tech-1")
	defer b.Unsubscribe("tech-1", ch)

	// Channel buffer is 8; further publishes are dropped, not blocked.
	for i := 0; i < 20; i++ {
		b.Publish("tech-1", Event{Type: "assignment"})
	}
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			if n == 0 || n > 8 {
				t.Fatalf("want 1..8 buffered events, got %d", n)
			}
			return
		}
	}
}

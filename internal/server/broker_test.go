package server

import (
	"encoding/json"
	"testing"

	"github.com/acapella/riskhunt/internal/game"
)

func TestBroker(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("s1")
	other := b.Subscribe("s2")

	b.Publish("s1", game.Event{Type: game.EventTick, SessionID: "s1", TimeRemainingSeconds: 41})

	select {
	case msg := <-a:
		var ev game.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if msg.Type != game.EventTick || ev.TimeRemainingSeconds != 41 {
			t.Errorf("got %+v", ev)
		}
	default:
		t.Fatal("subscriber did not receive event")
	}

	select {
	case <-other:
		t.Error("event leaked to another session")
	default:
	}

	b.Unsubscribe("s1", a)
	if n := b.Subscribers("s1"); n != 0 {
		t.Errorf("subscribers = %d", n)
	}
	b.Publish("s1", game.Event{Type: game.EventTick})
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("s")
	for range cap(ch) + 5 {
		b.Publish("s", game.Event{Type: game.EventTick})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered %d, want %d", len(ch), cap(ch))
	}
}

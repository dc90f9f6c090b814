package channel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixedClock(at time.Time) Clock {
	return clockFunc(func() time.Time { return at })
}

func TestBusDispatchesByChannelAndName(t *testing.T) {
	now := time.Unix(1700000000, 0)
	bus := NewBus(fixedClock(now))

	var swings, all, other []Message
	bus.Subscribe("badminton-ABC234", "swing", func(m Message) { swings = append(swings, m) })
	bus.Subscribe("badminton-ABC234", "", func(m Message) { all = append(all, m) })
	bus.Subscribe("badminton-ZZZ999", "swing", func(m Message) { other = append(other, m) })

	ctx := context.Background()
	if _, err := PublishJSON(ctx, bus, "badminton-ABC234", "swing", map[string]any{"speed": 12}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if _, err := PublishJSON(ctx, bus, "badminton-ABC234", "controller-move", map[string]any{"x": 1}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(swings) != 1 || swings[0].Name != "swing" {
		t.Fatalf("expected one swing delivery, got %+v", swings)
	}
	if len(all) != 2 {
		t.Fatalf("expected wildcard subscriber to see both events, got %d", len(all))
	}
	if len(other) != 0 {
		t.Fatalf("expected other channel to receive nothing, got %d", len(other))
	}
	if !swings[0].Timestamp.Equal(now) {
		t.Fatalf("expected broker timestamp %v, got %v", now, swings[0].Timestamp)
	}
	var payload struct {
		Speed float64 `json:"speed"`
	}
	if err := swings[0].Decode(&payload); err != nil || payload.Speed != 12 {
		t.Fatalf("unexpected payload %+v err=%v", payload, err)
	}
}

func TestBusKeepsSuppliedIDs(t *testing.T) {
	bus := NewBus(nil)
	var seen []string
	bus.Subscribe("c", "e", func(m Message) { seen = append(seen, m.ID) })
	msg := Message{ID: "client-1", Channel: "c", Name: "e", Data: []byte(`{}`)}
	bus.Publish(context.Background(), msg)
	bus.Publish(context.Background(), msg)
	bus.Publish(context.Background(), Message{Channel: "c", Name: "e"})
	if len(seen) != 3 || seen[0] != "client-1" || seen[1] != "client-1" {
		t.Fatalf("expected redelivery to keep the id, got %v", seen)
	}
	if seen[2] == "" || seen[2] == "client-1" {
		t.Fatalf("expected generated id for anonymous message, got %q", seen[2])
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	count := 0
	unsubscribe := bus.Subscribe("c", "e", func(Message) { count++ })
	bus.Publish(context.Background(), Message{Channel: "c", Name: "e"})
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), Message{Channel: "c", Name: "e"})
	if count != 1 {
		t.Fatalf("expected one delivery before unsubscribe, got %d", count)
	}
	if bus.Subscribers("c") != 0 {
		t.Fatalf("expected no subscribers left")
	}
}

func TestBusStateChangesAndClose(t *testing.T) {
	bus := NewBus(nil)
	var states []State
	bus.OnStateChange(func(s State) { states = append(states, s) })

	bus.SetState(StateDisconnected)
	bus.SetState(StateDisconnected)
	bus.SetState(StateConnected)
	bus.Close()

	want := []State{StateDisconnected, StateConnected, StateClosed}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, states)
		}
	}
	if _, err := bus.Publish(context.Background(), Message{Channel: "c", Name: "e"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestBusHandlersMayPublish(t *testing.T) {
	bus := NewBus(nil)
	var replies int
	bus.Subscribe("c", "ping", func(m Message) {
		bus.Publish(context.Background(), Message{Channel: "c", Name: "pong"})
	})
	bus.Subscribe("c", "pong", func(Message) { replies++ })
	bus.Publish(context.Background(), Message{Channel: "c", Name: "ping"})
	if replies != 1 {
		t.Fatalf("expected nested publish to dispatch, got %d", replies)
	}
}

package sim

import (
	"testing"

	"motion-arena/server/logging"
)

func TestCommandBufferKeepsArrivalOrder(t *testing.T) {
	buffer := NewCommandBuffer(3, 0, nil)
	cmds := []Command{{ActorID: "a"}, {ActorID: "b"}, {ActorID: "c"}}
	for _, cmd := range cmds {
		if ok, reason := buffer.Push(cmd); !ok {
			t.Fatalf("expected push to succeed for %+v, got %s", cmd, reason)
		}
	}
	if ok, reason := buffer.Push(Command{ActorID: "overflow"}); ok || reason != CommandRejectQueueFull {
		t.Fatalf("expected full buffer to refuse, got ok=%v reason=%s", ok, reason)
	}
	drained := buffer.Drain()
	if len(drained) != len(cmds) {
		t.Fatalf("expected %d commands, got %d", len(cmds), len(drained))
	}
	for i, cmd := range drained {
		if cmd.ActorID != cmds[i].ActorID {
			t.Fatalf("expected drain order %v, got %v", cmds[i].ActorID, cmd.ActorID)
		}
	}
	buffer.Push(Command{ActorID: "d"})
	buffer.Push(Command{ActorID: "e"})
	again := buffer.Drain()
	if len(again) != 2 || again[0].ActorID != "d" || again[1].ActorID != "e" {
		t.Fatalf("expected d then e after a drain, got %+v", again)
	}
}

func TestCommandBufferQuotaResetsOnDrain(t *testing.T) {
	buffer := NewCommandBuffer(8, 1, nil)
	if ok, _ := buffer.Push(Command{ActorID: "a"}); !ok {
		t.Fatalf("expected first command from a staged")
	}
	if ok, reason := buffer.Push(Command{ActorID: "a"}); ok || reason != CommandRejectQueueLimit {
		t.Fatalf("expected quota refusal, got ok=%v reason=%s", ok, reason)
	}
	if ok, _ := buffer.Push(Command{ActorID: "b"}); !ok {
		t.Fatalf("expected other actors unaffected by a's quota")
	}
	if ok, _ := buffer.Push(Command{Type: CommandHost}); !ok {
		t.Fatalf("expected actorless host commands outside the quota")
	}
	buffer.Drain()
	if ok, _ := buffer.Push(Command{ActorID: "a"}); !ok {
		t.Fatalf("expected quota reset after drain")
	}
}

func TestCommandBufferSealRefusesLaterPushes(t *testing.T) {
	buffer := NewCommandBuffer(4, 0, nil)
	buffer.Push(Command{ActorID: "a"})
	buffer.Seal()
	if ok, reason := buffer.Push(Command{ActorID: "b"}); ok || reason != CommandRejectEnded {
		t.Fatalf("expected sealed buffer to refuse with %s, got ok=%v reason=%s", CommandRejectEnded, ok, reason)
	}
	if got := buffer.Drain(); len(got) != 1 || got[0].ActorID != "a" {
		t.Fatalf("expected staged command still drainable, got %+v", got)
	}
}

func TestCommandBufferMetrics(t *testing.T) {
	metrics := &logging.Metrics{}
	buffer := NewCommandBuffer(1, 0, metrics)
	buffer.Push(Command{ActorID: "one"})
	buffer.Push(Command{ActorID: "two"})

	snapshot := metrics.Snapshot()
	if snapshot[commandBufferOverflowMetricKey] != 1 {
		t.Fatalf("expected one overflow, got %d", snapshot[commandBufferOverflowMetricKey])
	}
	if snapshot[commandBufferOccupancyMetricKey] != 1 {
		t.Fatalf("expected occupancy 1, got %d", snapshot[commandBufferOccupancyMetricKey])
	}
	buffer.Drain()
	if got := metrics.Snapshot()[commandBufferOccupancyMetricKey]; got != 0 {
		t.Fatalf("expected occupancy to reset after drain, got %d", got)
	}
}

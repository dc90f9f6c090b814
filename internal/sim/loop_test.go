package sim

import (
	"testing"
	"time"
)

func TestLoopEnqueueLimits(t *testing.T) {
	s := newTestSession(t, GameBadminton)
	var drops []string
	loop := NewLoop(s, LoopConfig{CommandCapacity: 4, PerActorLimit: 2}, LoopHooks{
		OnCommandDrop: func(reason string, cmd Command) { drops = append(drops, reason) },
	})

	for i := 0; i < 2; i++ {
		if ok, reason := loop.Enqueue(Command{ActorID: "a", Type: CommandMove}); !ok {
			t.Fatalf("expected enqueue %d accepted, got %s", i, reason)
		}
	}
	if ok, reason := loop.Enqueue(Command{ActorID: "a", Type: CommandMove}); ok || reason != CommandRejectQueueLimit {
		t.Fatalf("expected per-actor limit, got ok=%v reason=%s", ok, reason)
	}
	loop.Enqueue(Command{ActorID: "b", Type: CommandMove})
	loop.Enqueue(Command{ActorID: "c", Type: CommandMove})
	if ok, reason := loop.Enqueue(Command{ActorID: "d", Type: CommandMove}); ok || reason != CommandRejectQueueFull {
		t.Fatalf("expected global capacity, got ok=%v reason=%s", ok, reason)
	}
	if loop.Pending() != 4 {
		t.Fatalf("expected 4 pending, got %d", loop.Pending())
	}
	if len(drops) != 2 {
		t.Fatalf("expected drop hook twice, got %v", drops)
	}

	loop.Advance(baseTime)
	if loop.Pending() != 0 {
		t.Fatalf("expected queue drained by advance")
	}
	if ok, _ := loop.Enqueue(Command{ActorID: "a", Type: CommandMove}); !ok {
		t.Fatalf("expected per-actor count to reset after a step")
	}
}

func TestLoopAdvanceAppliesInOrder(t *testing.T) {
	s := newTestSession(t, GameBadminton)
	loop := NewLoop(s, LoopConfig{}, LoopHooks{})
	loop.Enqueue(Command{ActorID: "a", Type: CommandJoin, IssuedAt: baseTime, Join: &JoinCommand{Name: "Ann"}})
	loop.Enqueue(Command{ActorID: "b", Type: CommandJoin, IssuedAt: baseTime})
	loop.Enqueue(Command{ActorID: "c", Type: CommandJoin, IssuedAt: baseTime})

	result := loop.Advance(baseTime)
	if len(result.Outcomes) != 3 {
		t.Fatalf("expected three outcomes, got %d", len(result.Outcomes))
	}
	if !result.Outcomes[0].Result.Success || !result.Outcomes[1].Result.Success {
		t.Fatalf("expected the first two joins accepted, got %+v", result.Outcomes)
	}
	if result.Outcomes[2].Result.Reason != ReasonInProgress {
		t.Fatalf("expected late join refused, got %+v", result.Outcomes[2].Result)
	}
	if result.Phase != PhaseCountdown || loop.Snapshot().Phase != PhaseCountdown {
		t.Fatalf("expected countdown, got %s", result.Phase)
	}
	if len(eventsOf(result.Events, EventJoinAccepted)) != 2 {
		t.Fatalf("expected two join-accepted events")
	}
	if snap := loop.Snapshot(); len(snap.Entities) != 2 || snap.Entities[0].Name != "Ann" {
		t.Fatalf("unexpected stored snapshot %+v", snap)
	}

	result = loop.Advance(baseTime.Add(3 * time.Second))
	if result.Phase != PhaseActive || len(eventsOf(result.Events, EventGameStart)) != 1 {
		t.Fatalf("expected game-start after countdown, got %s", result.Phase)
	}
	loop.Inspect(func(s *Session) {
		if s.Tick() != 2 {
			t.Fatalf("expected two ticks, got %d", s.Tick())
		}
	})
}

func TestLoopRunStopsWhenSessionEnds(t *testing.T) {
	s := newTestSession(t, GameBadminton)
	phases := make(chan Phase, 64)
	loop := NewLoop(s, LoopConfig{TickRate: 200}, LoopHooks{
		AfterStep: func(r LoopStepResult) {
			select {
			case phases <- r.Phase:
			default:
			}
		},
	})
	loop.Enqueue(Command{Type: CommandHost, Host: &HostCommand{Action: HostQuit}})

	done := make(chan struct{})
	go func() {
		loop.Run(make(chan struct{}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected run to return once the session ended")
	}
	if got := <-phases; got != PhaseEnded {
		t.Fatalf("expected first step to end the session, got %s", got)
	}
}

func TestLoopRefusesCommandsOnceEnded(t *testing.T) {
	s := newTestSession(t, GameBadminton)
	var drops []string
	loop := NewLoop(s, LoopConfig{}, LoopHooks{
		OnCommandDrop: func(reason string, cmd Command) { drops = append(drops, reason) },
	})
	loop.Inspect(func(s *Session) {
		if err := s.Quit(baseTime); err != nil {
			t.Fatalf("quit: %v", err)
		}
	})

	ok, reason := loop.Enqueue(Command{ActorID: "late", Type: CommandJoin, IssuedAt: baseTime})
	if ok || reason != CommandRejectEnded {
		t.Fatalf("expected the ended session to refuse input, got ok=%v reason=%s", ok, reason)
	}
	if loop.Pending() != 0 || len(drops) != 1 || drops[0] != CommandRejectEnded {
		t.Fatalf("expected nothing staged and one drop, got pending=%d drops=%v", loop.Pending(), drops)
	}
}

func TestLoopAppliesCommandsStagedBeforeTheEnd(t *testing.T) {
	s := newTestSession(t, GameBadminton)
	loop := NewLoop(s, LoopConfig{}, LoopHooks{})
	loop.Enqueue(Command{ActorID: "host", Type: CommandHost, IssuedAt: baseTime, Host: &HostCommand{Action: HostQuit}})
	loop.Enqueue(Command{ActorID: "late", Type: CommandJoin, IssuedAt: baseTime})

	result := loop.Advance(baseTime)
	if result.Phase != PhaseEnded || len(result.Outcomes) != 2 {
		t.Fatalf("expected both staged commands applied in the ending step, got phase=%s outcomes=%d", result.Phase, len(result.Outcomes))
	}
	if got := result.Outcomes[1].Result.Reason; got != ReasonEnded {
		t.Fatalf("expected the join after quit rejected as ended, got %q", got)
	}
	if ok, reason := loop.Enqueue(Command{ActorID: "later", Type: CommandJoin}); ok || reason != CommandRejectEnded {
		t.Fatalf("expected the queue sealed after the ending step, got ok=%v reason=%s", ok, reason)
	}
}

func TestLoopRunStopsOnSignal(t *testing.T) {
	loop := NewLoop(newTestSession(t, GameBadminton), LoopConfig{TickRate: 200}, LoopHooks{})
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		loop.Run(stop)
		close(done)
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected run to stop")
	}
}

func TestDedupEvictsOldest(t *testing.T) {
	d := NewDedup(2)
	if d.Seen("a") || d.Seen("b") {
		t.Fatalf("expected fresh ids to be unseen")
	}
	if !d.Seen("a") {
		t.Fatalf("expected repeat to be seen")
	}
	d.Seen("c")
	if d.Len() != 2 {
		t.Fatalf("expected bounded size, got %d", d.Len())
	}
	if d.Seen("a") {
		t.Fatalf("expected oldest id evicted")
	}
}

package sim

import (
	"errors"
	"math"
	"testing"
	"time"
)

func tap(id, actor string, at time.Time) Command {
	return action(id, actor, at, ActionTap, "")
}

func TestRacingWaitsForHostUntilFull(t *testing.T) {
	s := newTestSession(t, GameRacing)
	for _, id := range []string{"a", "b", "c", "d"} {
		mustJoin(t, s, id, baseTime)
		if s.Phase() != PhaseLobby {
			t.Fatalf("expected the lobby to stay open after %s joined, got %s", id, s.Phase())
		}
	}
	if _, err := s.Join("e", "", baseTime); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected a fifth racer refused, got %v", err)
	}

	solo := newTestSession(t, GameRacing)
	mustJoin(t, solo, "a", baseTime)
	if err := solo.Start(baseTime); err != nil || solo.Phase() != PhaseCountdown {
		t.Fatalf("expected the host to start a solo race, got %s err=%v", solo.Phase(), err)
	}
}

func TestTapAccelerationIsCappedAndCooledDown(t *testing.T) {
	s := newTestSession(t, GameRacing)
	mustJoin(t, s, "a", baseTime)
	if err := s.Start(baseTime); err != nil {
		t.Fatalf("start: %v", err)
	}
	now := baseTime.Add(s.tuning.Countdown)
	s.Step(now)
	a := s.byID["a"]

	if res := s.ProcessAction(tap("t1", "a", now)); !res.Success || a.Speed != 0.5 {
		t.Fatalf("expected first tap to add 0.5, got %+v speed=%v", res, a.Speed)
	}
	if res := s.ProcessAction(tap("t2", "a", now.Add(10*time.Millisecond))); res.Reason != ReasonCooldown || a.Speed != 0.5 {
		t.Fatalf("expected rapid tap refused, got %+v speed=%v", res, a.Speed)
	}
	for i := 1; i <= 10; i++ {
		s.ProcessAction(tap("burst"+string(rune('a'+i)), "a", now.Add(time.Duration(i)*50*time.Millisecond)))
	}
	if a.Speed != s.tuning.Racing.MaxSpeed {
		t.Fatalf("expected speed capped at %v, got %v", s.tuning.Racing.MaxSpeed, a.Speed)
	}
	if res := s.ProcessAction(move("m", "a", now.Add(time.Second), 1, 0, true)); res.Reason != ReasonUnsupported {
		t.Fatalf("expected movement unsupported in racing, got %+v", res)
	}

	step := now.Add(time.Second)
	s.lastStep = step
	s.Step(step.Add(16 * time.Millisecond))
	if math.Abs(a.Progress-3*0.016*60) > 1e-9 {
		t.Fatalf("expected progress from one frame, got %v", a.Progress)
	}
	if want := 3 * math.Pow(0.92, 0.96); math.Abs(a.Speed-want) > 1e-9 {
		t.Fatalf("expected decayed speed %v, got %v", want, a.Speed)
	}
}

func TestRaceFinishPlacesAndEnds(t *testing.T) {
	s := newTestSession(t, GameRacing)
	mustJoin(t, s, "a", baseTime)
	mustJoin(t, s, "b", baseTime)
	if err := s.Start(baseTime); err != nil {
		t.Fatalf("start: %v", err)
	}
	now := baseTime.Add(s.tuning.Countdown)
	s.Step(now)
	a, b := s.byID["a"], s.byID["b"]
	if a.Position.Y == b.Position.Y {
		t.Fatalf("expected racers in separate lanes")
	}

	a.Progress, a.Speed = 1499, 3
	s.Step(now.Add(16 * time.Millisecond))
	if a.Status != StatusFinished || a.Place != 1 {
		t.Fatalf("expected a finished first, got %+v", a.clone())
	}
	finished := eventsOf(s.DrainEvents(), EventRacerFinished)
	if len(finished) != 1 || finished[0].Payload.(RacerFinished).TimeMs != 16 {
		t.Fatalf("expected racer-finished with race time, got %+v", finished)
	}
	if s.Phase() != PhaseActive {
		t.Fatalf("expected race to continue until everyone finishes")
	}
	if res := s.ProcessAction(tap("late", "a", now.Add(time.Second))); res.Reason != ReasonEntityInactive {
		t.Fatalf("expected finished racer input rejected, got %+v", res)
	}

	b.Progress, b.Speed = 1499.5, 1
	s.Step(now.Add(32 * time.Millisecond))
	if b.Place != 2 || s.Phase() != PhaseEnded {
		t.Fatalf("expected b second and the race over, got place=%d phase=%s", b.Place, s.Phase())
	}
	end := eventsOf(s.DrainEvents(), EventGameEnd)
	if len(end) != 1 {
		t.Fatalf("expected game-end")
	}
	got := end[0].Payload.(GameEnded)
	if got.Reason != EndFinished || got.Winner != "a" || got.Standings[1].PlayerID != "b" {
		t.Fatalf("unexpected race result %+v", got)
	}
}

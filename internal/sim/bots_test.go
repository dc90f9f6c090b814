package sim

import (
	"errors"
	"testing"
	"time"

	"motion-arena/server/internal/physics"
)

func startSolo(t *testing.T) (*Session, time.Time) {
	t.Helper()
	s := newTestSession(t, GameBadmintonSolo)
	mustJoin(t, s, "a", baseTime)
	if s.Phase() != PhaseCountdown {
		t.Fatalf("expected a solo lobby to start by itself, got %s", s.Phase())
	}
	active := baseTime.Add(s.tuning.Countdown)
	s.Step(active)
	if s.Phase() != PhaseActive {
		t.Fatalf("expected active phase, got %s", s.Phase())
	}
	return s, active
}

func TestSoloLobbySeatsRobotAtStart(t *testing.T) {
	s := newTestSession(t, GameBadmintonSolo)
	mustJoin(t, s, "a", baseTime)
	events := s.DrainEvents()
	accepted := eventsOf(events, EventJoinAccepted)
	if len(accepted) != 2 {
		t.Fatalf("expected the player and the robot announced, got %d", len(accepted))
	}
	robot := accepted[1].Payload.(JoinAccepted)
	if !robot.Bot || robot.PlayerID != "bot-1" || robot.Name != "Robot" {
		t.Fatalf("unexpected robot announcement %+v", robot)
	}
	bot := s.byID["bot-1"]
	if bot.Side != SideRight || bot.Slot != 1 {
		t.Fatalf("expected the robot on the right, got side=%s slot=%d", bot.Side, bot.Slot)
	}
	roster := s.Roster()
	if len(roster) != 2 || !roster[1].Bot {
		t.Fatalf("expected the roster to flag the robot, got %+v", roster)
	}
}

func TestRobotSeatIsReserved(t *testing.T) {
	s, now := startSolo(t)
	if _, err := s.Join("bot-1", "", now); !errors.Is(err, ErrReservedID) {
		t.Fatalf("expected the robot id refused, got %v", err)
	}
	if res := s.ProcessAction(swing("s1", "bot-1", now, 20, physics.StrokeForehand)); res.Reason != ReasonReserved {
		t.Fatalf("expected remote input for the robot refused, got %+v", res)
	}
	if err := s.Disconnect("bot-1", "gone", now); !errors.Is(err, ErrReservedID) {
		t.Fatalf("expected the robot not to be disconnectable, got %v", err)
	}
}

func TestRobotServesItsPoint(t *testing.T) {
	s, now := startSolo(t)
	r := racket(s)
	r.serverID = "bot-1"
	r.park(s)
	if r.shuttle.Active {
		t.Fatalf("expected the shuttle parked")
	}

	s.Step(now.Add(16 * time.Millisecond))
	if !r.shuttle.Active || r.shuttle.OwnerID != "bot-1" {
		t.Fatalf("expected the robot to serve, got active=%v owner=%q", r.shuttle.Active, r.shuttle.OwnerID)
	}
	if r.shuttle.Velocity.X >= 0 {
		t.Fatalf("expected the serve to head for the left half, got %v", r.shuttle.Velocity)
	}
}

func TestRobotDoesNotHoldTheRoomOpen(t *testing.T) {
	s, now := startSolo(t)
	if got := s.contestants(); got != 1 {
		t.Fatalf("expected only the human counted, got %d", got)
	}
	if err := s.Disconnect("a", "closed", now); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	s.Step(now.Add(s.tuning.DisconnectGrace + time.Second))
	if s.Phase() != PhaseEnded {
		t.Fatalf("expected the game to end once the human forfeits, got %s", s.Phase())
	}
}

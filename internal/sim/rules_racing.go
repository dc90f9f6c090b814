package sim

import (
	"math"
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/combat"
	"motion-arena/server/internal/geom"
	"motion-arena/server/internal/physics"
)

const cooldownTap = "tap"

// racingRules advances each racer along its own lane from tap input.
type racingRules struct {
	finished int
}

func (r *racingRules) spawn(s *Session, e *Entity) {
	spacing := s.tuning.Racing.LaneSpacing
	e.Spawn = geom.Vec2{X: 0, Y: float64(float64(e.Slot)+0.5) * spacing}
	e.Position = e.Spawn
	e.Progress = 0
	e.Speed = 0
	e.Place = 0
}

func (r *racingRules) start(s *Session, now time.Time) {
	r.finished = 0
	for _, e := range s.entities {
		if !e.InContest() {
			continue
		}
		r.spawn(s, e)
		e.Status = StatusActive
		e.FinishedAt = time.Time{}
		e.cooldowns = nil
	}
}

func (r *racingRules) action(s *Session, e *Entity, cmd Command) Result {
	if cmd.Type != CommandAction || cmd.Action.Name != ActionTap {
		return rejected(ReasonUnsupported)
	}
	t := s.tuning.Racing
	if !combat.ReadyCooldown(&e.cooldowns, cooldownTap, t.TapCooldown, cmd.IssuedAt) {
		return rejected(ReasonCooldown)
	}
	e.Speed = math.Min(e.Speed+t.TapBoost, t.MaxSpeed)
	return accepted()
}

// step integrates progress in 1/60 s frames, then applies the per-frame
// speed decay.
func (r *racingRules) step(s *Session, now time.Time, deltaMs float64) {
	t := s.tuning.Racing
	dt := deltaMs / 1000
	for _, e := range s.entities {
		if !e.Alive() {
			continue
		}
		e.Progress += float64(float64(e.Speed*dt) * 60)
		e.Speed = geom.DecayPerFrame(e.Speed, t.Decay, dt)
		if e.Speed < 1e-3 {
			e.Speed = 0
		}
		if e.Progress >= t.Distance {
			e.Progress = t.Distance
			r.finish(s, e, now)
		}
		e.Position.X = e.Progress
	}
}

func (r *racingRules) finish(s *Session, e *Entity, now time.Time) {
	r.finished++
	e.Place = r.finished
	e.Status = StatusFinished
	e.FinishedAt = now
	e.Speed = 0
	s.emit(EventRacerFinished, e.ID, RacerFinished{
		PlayerID: e.ID,
		Place:    e.Place,
		TimeMs:   now.Sub(s.startedAt).Milliseconds(),
	})
}

func (r *racingRules) onTimer(*Session, timer, time.Time) {}

func (r *racingRules) checkEnd(s *Session) (string, string, bool) {
	if r.finished == 0 {
		return "", "", false
	}
	winner := ""
	for _, e := range s.entities {
		if e.Place == 1 {
			winner = e.ID
		}
		if e.InContest() && e.Status != StatusFinished {
			return "", "", false
		}
	}
	return EndFinished, winner, true
}

func (r *racingRules) clamp(*Session, *Entity) {}

func (r *racingRules) drive(*Session, *Entity, *ai.Bot, time.Time) []ai.Command {
	return nil
}

func (r *racingRules) projectiles() []*physics.Projectile {
	return nil
}

func (r *racingRules) sides(*Session) (int, int) {
	return 0, 0
}

func (r *racingRules) server() string {
	return ""
}

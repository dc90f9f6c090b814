package sim

import (
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/physics"
)

// rules holds everything that differs between game modes. The session owns
// lifecycle, movement and reconciliation; rules own projectiles and scoring.
type rules interface {
	spawn(s *Session, e *Entity)
	start(s *Session, now time.Time)
	action(s *Session, e *Entity, cmd Command) Result
	step(s *Session, now time.Time, deltaMs float64)
	onTimer(s *Session, t timer, now time.Time)
	checkEnd(s *Session) (reason, winner string, ended bool)
	clamp(s *Session, e *Entity)
	drive(s *Session, e *Entity, bot *ai.Bot, now time.Time) []ai.Command
	projectiles() []*physics.Projectile
	sides(s *Session) (left, right int)
	server() string
}

func newRules(t Tuning) rules {
	switch t.Mode {
	case ModeShooter:
		return newShooterRules(t)
	case ModeRacing:
		return &racingRules{}
	case ModePaddle:
		return newPaddleRules(t)
	default:
		return newRacketRules(t)
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

package ai

import (
	"math"
	"time"

	"motion-arena/server/internal/geom"
)

const (
	forehandSpeed = 14
	overheadSpeed = 15
	// Shuttles above this height invite an overhead or a smash.
	highBallY = 300
	// Reach is measured against the shuttle this far ahead.
	racketLookahead = 200 * time.Millisecond
	reachFactor     = 1.5
	stickRange      = 120
	stickDeadzone   = 10
)

// RacketView is what a bot sees of a net court.
type RacketView struct {
	Self      geom.Vec2
	Home      geom.Vec2
	NetX      float64
	// Defends is +1 when the bot's half lies right of the net, -1 otherwise.
	Defends   float64
	HitRadius float64

	Shuttle   geom.Vec2
	Velocity  geom.Vec2
	InFlight  bool
	Serving   bool
	Predicted func(lookahead time.Duration) geom.Vec2
}

// Racket decides one racket-game step: chase the incoming shuttle, then
// swing once the reaction delay has passed and it is in reach.
func (b *Bot) Racket(view RacketView, now time.Time) []Command {
	if !b.due(now) {
		return nil
	}
	bb := &b.Blackboard

	incoming := view.InFlight &&
		(view.Shuttle.X-view.NetX)*view.Defends > 0 &&
		view.Velocity.X*view.Defends > 0
	predicted := view.Shuttle
	if view.Predicted != nil {
		predicted = view.Predicted(racketLookahead)
	}
	target := view.Home.X
	if incoming {
		target = predicted.X
	}
	cmds := []Command{move(stick(target-view.Self.X), 0)}

	if now.Sub(bb.LastActionAt) < bb.ReactionDelay {
		return cmds
	}
	switch {
	case view.Serving:
		cmds = append(cmds, Command{Type: CommandSwing, Swing: &SwingCommand{Speed: forehandSpeed, Stroke: "forehand"}})
	case incoming && geom.Distance(predicted, view.Self) <= view.HitRadius*reachFactor && b.rng.Float64() < b.Profile.Accuracy:
		cmds = append(cmds, b.racketSwing(view.Shuttle.Y < highBallY))
	default:
		return cmds
	}
	bb.LastActionAt = now
	bb.ReactionDelay = b.rollReaction()
	return cmds
}

func (b *Bot) racketSwing(high bool) Command {
	sw := &SwingCommand{Speed: forehandSpeed, Stroke: "forehand"}
	switch {
	case high && b.rng.Float64() < 0.5:
		sw.Speed, sw.Stroke = overheadSpeed, "overhead"
	case high:
		sw.Speed, sw.Stroke, sw.Smash = math.Max(b.Profile.SmashSpeed, overheadSpeed), "overhead", true
	case b.Profile.SmashChance > 0 && b.rng.Float64() < b.Profile.SmashChance:
		sw.Speed, sw.Stroke, sw.Smash = b.Profile.SmashSpeed, "overhead", true
	}
	sw.Spin = (b.rng.Float64() - 0.5) * 20
	return Command{Type: CommandSwing, Swing: sw}
}

// stick maps a horizontal gap to a stick deflection.
func stick(dx float64) float64 {
	if math.Abs(dx) < stickDeadzone {
		return 0
	}
	return geom.Clamp(dx/stickRange, -1, 1)
}

package ai

import (
	"math"
	"time"

	"motion-arena/server/internal/geom"
)

const (
	dodgeRangeX   = 200
	dodgeRangeY   = 150
	dodgeInterval = 300 * time.Millisecond
	arriveBand    = 30
	strategyMin   = 3 * time.Second
	strategySpan  = 2 * time.Second
)

type firePlan struct {
	align    float64
	interval time.Duration
}

var firePlans = map[Strategy]firePlan{
	StrategyAggressive: {align: 150, interval: 300 * time.Millisecond},
	StrategyDefensive:  {align: 80, interval: 500 * time.Millisecond},
	StrategyMirror:     {align: 100, interval: 400 * time.Millisecond},
}

// Shot is a hostile projectile as the bot sees it.
type Shot struct {
	Position geom.Vec2
	Velocity geom.Vec2
}

// ShooterView is what a bot sees of a duel arena.
type ShooterView struct {
	Self      geom.Vec2
	Opponent  geom.Vec2
	HasTarget bool
	Height    float64
	Incoming  []Shot
	CanFire   bool
}

// Shooter decides one duel step. A shot about to land forces a dodge;
// otherwise the bot holds the height its strategy picks and fires when
// lined up with the opponent.
func (b *Bot) Shooter(view ShooterView, now time.Time) []Command {
	if !b.due(now) {
		return nil
	}
	bb := &b.Blackboard
	if bb.Strategy == "" || !now.Before(bb.StrategyUntil) {
		bb.Strategy = strategies[b.rng.Intn(len(strategies))]
		bb.StrategyUntil = now.Add(strategyMin + time.Duration(b.rng.Int63n(int64(strategySpan))))
	}
	if !view.HasTarget {
		return []Command{move(0, 0)}
	}

	var cmds []Command
	if dy, ok := b.dodge(view, now); ok {
		cmds = append(cmds, move(0, dy))
	} else {
		cmds = append(cmds, move(0, b.steer(view)))
	}

	aim := math.Atan2(view.Opponent.Y-view.Self.Y, view.Opponent.X-view.Self.X)
	cmds = append(cmds, Command{Type: CommandLook, Look: &LookCommand{Angle: aim}})

	plan := firePlans[bb.Strategy]
	if view.CanFire && math.Abs(view.Opponent.Y-view.Self.Y) < plan.align && now.Sub(bb.LastShotAt) >= plan.interval {
		cmds = append(cmds, Command{Type: CommandFire})
		bb.LastShotAt = now
	}
	return cmds
}

// dodge returns a vertical stick away from the nearest shot closing in.
func (b *Bot) dodge(view ShooterView, now time.Time) (float64, bool) {
	if now.Sub(b.Blackboard.LastDodgeAt) < dodgeInterval {
		return 0, false
	}
	for _, shot := range view.Incoming {
		dx := view.Self.X - shot.Position.X
		dy := view.Self.Y - shot.Position.Y
		if dx*shot.Velocity.X <= 0 || math.Abs(dx) >= dodgeRangeX || math.Abs(dy) >= dodgeRangeY {
			continue
		}
		b.Blackboard.LastDodgeAt = now
		if dy >= 0 && view.Self.Y < view.Height-arriveBand {
			return 1, true
		}
		return -1, true
	}
	return 0, false
}

func (b *Bot) steer(view ShooterView) float64 {
	var target float64
	switch b.Blackboard.Strategy {
	case StrategyAggressive:
		target = view.Opponent.Y + (b.rng.Float64()-0.5)*50
	case StrategyDefensive:
		target = view.Height * 0.7
		if view.Opponent.Y > view.Height/2 {
			target = view.Height * 0.3
		}
	default:
		target = view.Height/2 + (b.rng.Float64()-0.5)*100
	}
	switch gap := target - view.Self.Y; {
	case gap > arriveBand:
		return 1
	case gap < -arriveBand:
		return -1
	default:
		return 0
	}
}

package sim

import (
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/combat"
	"motion-arena/server/internal/geom"
	"motion-arena/server/internal/physics"
	"motion-arena/server/logging"
	loggingCombat "motion-arena/server/logging/combat"
)

const cooldownSwing = "swing"

// racketRules runs a two-sided net game with a single shuttle.
type racketRules struct {
	shuttle    *physics.Projectile
	lastSide   Side
	serverID   string
	serveReady bool
	left       int
	right      int
}

func newRacketRules(t Tuning) *racketRules {
	return &racketRules{shuttle: physics.NewProjectile(t.Physics)}
}

func (r *racketRules) spawn(s *Session, e *Entity) {
	spawns := s.tuning.Racket.Spawns
	e.Side = SideLeft
	if e.Slot%2 == 1 {
		e.Side = SideRight
	}
	if len(spawns) > 0 {
		e.Spawn = spawns[e.Slot%len(spawns)]
	}
	e.Position = e.Spawn
	e.Velocity = geom.Vec2{}
}

func (r *racketRules) start(s *Session, now time.Time) {
	for _, e := range s.entities {
		e.Position = e.Spawn
		e.Velocity = geom.Vec2{}
	}
	r.left, r.right = 0, 0
	r.lastSide = SideNone
	r.serverID = ""
	if len(s.entities) > 0 {
		r.serverID = s.entities[0].ID
	}
	r.park(s)
}

// park places the shuttle above the server, ready for the serve.
func (r *racketRules) park(s *Session) {
	server, ok := s.byID[r.serverID]
	if !ok || !server.InContest() {
		server = nil
		for _, e := range s.entities {
			if e.InContest() {
				server = e
				break
			}
		}
	}
	if server == nil {
		r.serveReady = false
		return
	}
	r.serverID = server.ID
	r.shuttle.Reset(server.Position.Add(s.tuning.Racket.ServeOffset))
	r.shuttle.OwnerID = ""
	r.serveReady = true
}

func (r *racketRules) action(s *Session, e *Entity, cmd Command) Result {
	if cmd.Type != CommandSwing {
		return rejected(ReasonUnsupported)
	}
	return r.swing(s, e, cmd)
}

func (r *racketRules) swing(s *Session, e *Entity, cmd Command) Result {
	t := s.tuning.Racket
	sw := cmd.Swing
	if !combat.CooldownReady(e.cooldowns, cooldownSwing, t.SwingCooldown, cmd.IssuedAt) {
		return rejected(ReasonCooldown)
	}

	stroke := sw.Stroke
	if stroke == "" {
		stroke = physics.StrokeNeutral
	}
	power := sw.Smash || (t.SmashSpeed > 0 && sw.Speed >= t.SmashSpeed)
	payload := loggingCombat.SwingPayload{
		Stroke: string(stroke),
		Speed:  sw.Speed,
		Power:  power,
		Radius: t.HitZoneRadius,
	}

	if !r.shuttle.Active {
		if !r.serveReady || e.ID != r.serverID {
			return rejected(ReasonNotServing)
		}
	} else {
		predicted := r.shuttle.PredictPosition(millis(t.Lookahead))
		payload.Distance = geom.Distance(predicted, e.Position)
		if !combat.InHitZone(predicted, e.Position, t.HitZoneRadius) {
			loggingCombat.SwingResolved(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(e.ID), payload, s.fields())
			s.haptic(e.ID, s.tuning.Haptics.Miss)
			return rejected(ReasonMiss)
		}
	}

	origin := e.Position.Add(t.ServeOffset)
	r.shuttle.Launch(origin, float64(sw.Speed*t.LaunchScale), stroke, sw.Spin, power)
	r.shuttle.OwnerID = e.ID
	r.lastSide = e.Side
	r.serveReady = false
	combat.MarkCooldown(&e.cooldowns, cooldownSwing, cmd.IssuedAt)

	payload.Hit = true
	loggingCombat.SwingResolved(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(e.ID), payload, s.fields())
	if power {
		s.haptic(e.ID, s.tuning.Haptics.Smash)
	} else {
		s.haptic(e.ID, s.tuning.Haptics.Hit)
	}
	return accepted()
}

func (r *racketRules) step(s *Session, now time.Time, deltaMs float64) {
	outcome := r.shuttle.Update(deltaMs)
	if !outcome.Terminal() {
		return
	}
	r.award(s, now, r.scoringSide(s, outcome), string(outcome))
}

// scoringSide applies the tie-break: a shuttle grounded left of the net
// scores for the right side and vice versa; faults go to whoever did not
// touch it last.
func (r *racketRules) scoringSide(s *Session, outcome physics.Outcome) Side {
	netX := r.shuttle.Config().Arena.NetX
	landedSide := SideLeft
	if r.shuttle.Position.X >= netX {
		landedSide = SideRight
	}
	if outcome == physics.OutcomeGround || r.lastSide == SideNone {
		return landedSide.Opposite()
	}
	return r.lastSide.Opposite()
}

func (r *racketRules) award(s *Session, now time.Time, side Side, reason string) {
	var scorer *Entity
	for _, e := range s.entities {
		if e.Side == side && e.InContest() {
			scorer = e
			break
		}
	}
	if side == SideLeft {
		r.left++
	} else {
		r.right++
	}
	scorerID := ""
	if scorer != nil {
		scorer.addScore(1)
		scorerID = scorer.ID
		r.serverID = scorer.ID
		loggingCombat.PointScored(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(scorer.ID), loggingCombat.PointPayload{
			Reason: reason,
			Score:  scorer.Score,
		}, s.fields())
	}
	r.lastSide = SideNone
	r.serveReady = false
	s.emit(EventScoreUpdate, "", ScoreUpdate{
		Scores: s.scores(),
		Left:   r.left,
		Right:  r.right,
		Scorer: scorerID,
		Reason: reason,
	})
	s.schedule(timerServe, r.serverID, now.Add(s.tuning.Racket.ServeDelay))
}

func (r *racketRules) onTimer(s *Session, t timer, now time.Time) {
	if t.Kind != timerServe || r.shuttle.Active {
		return
	}
	r.serverID = t.Target
	r.park(s)
}

func (r *racketRules) checkEnd(s *Session) (string, string, bool) {
	target := s.tuning.ScoreToWin
	if target <= 0 {
		return "", "", false
	}
	var side Side
	switch {
	case r.left >= target:
		side = SideLeft
	case r.right >= target:
		side = SideRight
	default:
		return "", "", false
	}
	for _, e := range s.entities {
		if e.Side == side {
			return EndScore, e.ID, true
		}
	}
	return EndScore, "", true
}

// clamp keeps a player on their own half, clear of the net.
func (r *racketRules) clamp(s *Session, e *Entity) {
	arena := r.shuttle.Config().Arena
	margin := s.tuning.Movement.Margin
	lo, hi := margin, arena.NetX-arena.NetHalfWidth-margin
	if e.Side == SideRight {
		lo, hi = arena.NetX+arena.NetHalfWidth+margin, arena.Width-margin
	}
	e.Position.X = geom.Clamp(e.Position.X, lo, hi)
	if s.tuning.Movement.HorizontalOnly {
		e.Position.Y = e.Spawn.Y
	} else {
		e.Position.Y = geom.Clamp(e.Position.Y, 0, arena.Height)
	}
}

func (r *racketRules) drive(s *Session, e *Entity, bot *ai.Bot, now time.Time) []ai.Command {
	arena := r.shuttle.Config().Arena
	defends := -1.0
	if e.Side == SideRight {
		defends = 1
	}
	return bot.Racket(ai.RacketView{
		Self:      e.Position,
		Home:      e.Spawn,
		NetX:      arena.NetX,
		Defends:   defends,
		HitRadius: s.tuning.Racket.HitZoneRadius,
		Shuttle:   r.shuttle.Position,
		Velocity:  r.shuttle.Velocity,
		InFlight:  r.shuttle.Active,
		Serving:   !r.shuttle.Active && r.serveReady && r.serverID == e.ID,
		Predicted: func(ahead time.Duration) geom.Vec2 {
			return r.shuttle.PredictPosition(millis(ahead))
		},
	}, now)
}

func (r *racketRules) projectiles() []*physics.Projectile {
	return []*physics.Projectile{r.shuttle}
}

func (r *racketRules) sides(*Session) (int, int) {
	return r.left, r.right
}

func (r *racketRules) server() string {
	return r.serverID
}

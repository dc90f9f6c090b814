package sim

import (
	"math"
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/geom"
	"motion-arena/server/internal/physics"
	"motion-arena/server/logging"
	loggingCombat "motion-arena/server/logging/combat"
)

// paddleRules runs a two-paddle table game. Each paddle chases the height
// its phone points at; the ball bounces off the long edges and scores when
// it leaves a short one.
type paddleRules struct {
	ball  *physics.Projectile
	left  int
	right int
	// toward is the side the next serve heads for.
	toward Side
}

func newPaddleRules(t Tuning) *paddleRules {
	return &paddleRules{ball: physics.NewProjectile(t.Physics)}
}

// tableHeight is the full table height; the physics arena is inset by the
// ball radius.
func (r *paddleRules) tableHeight() float64 {
	arena := r.ball.Config().Arena
	return arena.Height + arena.Top
}

func (r *paddleRules) spawn(s *Session, e *Entity) {
	p := s.tuning.Paddle
	arena := r.ball.Config().Arena
	e.Side = SideLeft
	e.Spawn = geom.Vec2{X: p.Width / 2, Y: r.tableHeight() / 2}
	if e.Slot%2 == 1 {
		e.Side = SideRight
		e.Spawn.X = arena.Width - p.Width/2
	}
	e.Position = e.Spawn
	e.Velocity = geom.Vec2{}
}

func (r *paddleRules) start(s *Session, now time.Time) {
	for _, e := range s.entities {
		e.Position = e.Spawn
		e.Velocity = geom.Vec2{}
		e.intent = moveIntent{}
	}
	r.left, r.right = 0, 0
	r.toward = SideNone
	r.serve(s)
}

// serve puts the ball in the centre and sends it at a random angle.
func (r *paddleRules) serve(s *Session) {
	p := s.tuning.Paddle
	arena := r.ball.Config().Arena
	centre := geom.Vec2{X: arena.Width / 2, Y: r.tableHeight() / 2}
	r.ball.Reset(centre)
	r.ball.OwnerID = ""

	dir := 1.0
	switch r.toward {
	case SideLeft:
		dir = -1
	case SideNone:
		if s.deps.Rand.Intn(2) == 0 {
			dir = -1
		}
	}
	angle := (s.deps.Rand.Float64()*2 - 1) * p.ServeAngle
	speed := p.ServeSpeed * 60
	r.ball.Fire(centre, geom.Vec2{X: dir * speed * math.Cos(angle), Y: speed * math.Sin(angle)}, "")
}

func (r *paddleRules) action(*Session, *Entity, Command) Result {
	return rejected(ReasonUnsupported)
}

func (r *paddleRules) step(s *Session, now time.Time, deltaMs float64) {
	dt := deltaMs / 1000
	for _, e := range s.entities {
		r.follow(s, e, dt)
	}
	if !r.ball.Active {
		return
	}
	prev := r.ball.Position
	outcome := r.ball.Update(deltaMs)
	for _, e := range s.entities {
		if e.Alive() && r.deflect(s, e, prev) {
			r.ball.Active = true
			outcome = physics.OutcomeNone
		}
	}
	if outcome != physics.OutcomeOut {
		return
	}
	side := SideLeft
	if r.ball.Position.X < 0 {
		side = SideRight
	}
	r.award(s, now, side)
}

// follow eases a paddle toward the height its stick selects. Full up is
// the top of the table.
func (r *paddleRules) follow(s *Session, e *Entity, dt float64) {
	p := s.tuning.Paddle
	if dt <= 0 || !e.Alive() {
		return
	}
	h := r.tableHeight()
	target := p.Height/2 + (e.intent.Y+1)/2*(h-p.Height)
	prev := e.Position.Y
	e.Position.Y = target + geom.DecayPerFrame(prev-target, 1-p.Follow, dt)
	e.Position.X = e.Spawn.X
	e.Velocity = geom.Vec2{Y: (e.Position.Y - prev) / dt}
}

// deflect sends the ball back when it crosses the paddle face this step.
// Where it strikes the paddle sets the new vertical speed.
func (r *paddleRules) deflect(s *Session, e *Entity, prev geom.Vec2) bool {
	p := s.tuning.Paddle
	radius := p.BallSize / 2
	b := r.ball
	var face float64
	switch e.Side {
	case SideLeft:
		face = e.Spawn.X + p.Width/2 + radius
		if b.Velocity.X >= 0 || prev.X < face || b.Position.X > face {
			return false
		}
	case SideRight:
		face = e.Spawn.X - p.Width/2 - radius
		if b.Velocity.X <= 0 || prev.X > face || b.Position.X < face {
			return false
		}
	default:
		return false
	}
	offset := b.Position.Y - e.Position.Y
	if math.Abs(offset) > p.Height/2+radius {
		return false
	}
	b.Position.X = face
	b.Velocity.X = -b.Velocity.X * p.Speedup
	b.Velocity.Y += offset / (p.Height / 2) * p.Spin * 60
	b.OwnerID = e.ID
	s.haptic(e.ID, s.tuning.Haptics.Hit)
	return true
}

func (r *paddleRules) award(s *Session, now time.Time, side Side) {
	if side == SideLeft {
		r.left++
	} else {
		r.right++
	}
	scorerID := ""
	for _, e := range s.entities {
		if e.Side == side && e.InContest() {
			e.addScore(1)
			scorerID = e.ID
			loggingCombat.PointScored(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(e.ID), loggingCombat.PointPayload{
				Reason: string(physics.OutcomeOut),
				Score:  e.Score,
			}, s.fields())
			break
		}
	}
	for _, e := range s.entities {
		if e.Side == side.Opposite() {
			s.haptic(e.ID, s.tuning.Haptics.Miss)
		}
	}
	// The player who conceded receives the next serve.
	r.toward = side.Opposite()
	r.ball.Reset(r.ball.Position)
	s.emit(EventScoreUpdate, "", ScoreUpdate{
		Scores: s.scores(),
		Left:   r.left,
		Right:  r.right,
		Scorer: scorerID,
		Reason: string(physics.OutcomeOut),
	})
	s.schedule(timerServe, "", now.Add(s.tuning.Paddle.ServeDelay))
}

func (r *paddleRules) onTimer(s *Session, t timer, now time.Time) {
	if t.Kind != timerServe || r.ball.Active {
		return
	}
	r.serve(s)
}

func (r *paddleRules) checkEnd(s *Session) (string, string, bool) {
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

func (r *paddleRules) clamp(*Session, *Entity) {}

func (r *paddleRules) drive(*Session, *Entity, *ai.Bot, time.Time) []ai.Command {
	return nil
}

func (r *paddleRules) projectiles() []*physics.Projectile {
	return []*physics.Projectile{r.ball}
}

func (r *paddleRules) sides(*Session) (int, int) {
	return r.left, r.right
}

func (r *paddleRules) server() string {
	return ""
}

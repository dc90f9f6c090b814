package physics

import (
	"math"

	"motion-arena/server/internal/geom"
)

// Outcome is the boundary result of a projectile step.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomeGround Outcome = "ground"
	OutcomeOut    Outcome = "out"
	OutcomeNet    Outcome = "net"
)

// Terminal reports whether the outcome ends the projectile's flight.
func (o Outcome) Terminal() bool {
	return o != OutcomeNone
}

// Stroke is the directional category of a swing.
type Stroke string

const (
	StrokeOverhead  Stroke = "overhead"
	StrokeForehand  Stroke = "forehand"
	StrokeBackhand  Stroke = "backhand"
	StrokeUnderhand Stroke = "underhand"
	StrokeNeutral   Stroke = "neutral"
)

type strokeVector struct {
	x      float64
	y      float64
	powerY float64
}

// Velocity multipliers per stroke. Only the overhead smash changes with power.
var strokeTable = map[Stroke]strokeVector{
	StrokeOverhead:  {x: 0.7, y: -0.5, powerY: -1.2},
	StrokeForehand:  {x: 1.0, y: -0.5, powerY: -0.5},
	StrokeBackhand:  {x: 0.8, y: -0.4, powerY: -0.4},
	StrokeUnderhand: {x: 0.6, y: -1.5, powerY: -1.5},
	StrokeNeutral:   {x: 0.8, y: -0.6, powerY: -0.6},
}

// KnownStroke reports whether s is in the launch table.
func KnownStroke(s Stroke) bool {
	_, ok := strokeTable[s]
	return ok
}

// Projectile is a single moving object: a shuttle, ball or bullet.
type Projectile struct {
	ID       uint64    `json:"id"`
	Position geom.Vec2 `json:"position"`
	Velocity geom.Vec2 `json:"velocity"`
	Origin   geom.Vec2 `json:"-"`
	Rotation float64   `json:"rotation"`
	Spin     float64   `json:"spin"`
	Active   bool      `json:"active"`
	Power    bool      `json:"power"`
	OwnerID  string    `json:"ownerId,omitempty"`

	cfg   Config
	trail *Trail
}

func NewProjectile(cfg Config) *Projectile {
	cfg = cfg.normalized()
	return &Projectile{cfg: cfg, trail: NewTrail(cfg.TrailLength)}
}

func (p *Projectile) Config() Config {
	return p.cfg
}

// Launch activates the projectile at origin with a velocity derived from the
// stroke table. Strokes travel toward the opposite half of the net.
func (p *Projectile) Launch(origin geom.Vec2, speed float64, stroke Stroke, spin float64, power bool) {
	vec, ok := strokeTable[stroke]
	if !ok {
		vec = strokeTable[StrokeNeutral]
	}
	sign := 1.0
	if origin.X >= p.cfg.Arena.NetX {
		sign = -1
	}
	vy := vec.y
	if power {
		vy = vec.powerY
	}

	p.Position = origin
	p.Origin = origin
	p.Velocity = geom.Vec2{
		X: float64(vec.x*speed)*sign + float64(spin*p.cfg.SpinLaunch),
		Y: float64(vy * speed),
	}
	p.Spin = spin
	p.Power = power
	p.Rotation = 0
	p.Active = true
	p.trail.Reset()
}

// Fire activates the projectile with an explicit velocity.
func (p *Projectile) Fire(origin, velocity geom.Vec2, ownerID string) {
	p.Position = origin
	p.Origin = origin
	p.Velocity = velocity
	p.Spin = 0
	p.Power = false
	p.Rotation = math.Atan2(velocity.Y, velocity.X)
	p.Active = true
	p.OwnerID = ownerID
	p.trail.Reset()
}

// Reset parks the projectile inactive at position.
func (p *Projectile) Reset(position geom.Vec2) {
	p.Position = position
	p.Origin = position
	p.Velocity = geom.Vec2{}
	p.Spin = 0
	p.Power = false
	p.Rotation = 0
	p.Active = false
	p.trail.Reset()
}

// Update advances the projectile by deltaMs milliseconds and returns the
// boundary outcome of the step. Inactive projectiles are left untouched.
func (p *Projectile) Update(deltaMs float64) Outcome {
	if !p.Active || deltaMs <= 0 {
		return OutcomeNone
	}
	dt := deltaMs / 1000

	// Products are rounded explicitly so no platform fuses them.
	p.Velocity.Y += float64(p.cfg.Gravity * dt)
	p.Velocity.X = float64(p.Velocity.X * p.cfg.Drag)
	p.Velocity.Y = float64(p.Velocity.Y * p.cfg.Drag)
	if math.Abs(p.Spin) > p.cfg.SpinThreshold {
		p.Velocity.X += float64(float64(p.Spin*p.cfg.SpinCurve) * dt)
	}
	p.Position.X += float64(p.Velocity.X * dt)
	p.Position.Y += float64(p.Velocity.Y * dt)
	p.Rotation += float64(float64((p.Velocity.X+p.Velocity.Y)*p.cfg.RotationRate) * dt)
	p.trail.Push(p.Position)

	return p.CheckBoundaries()
}

// CheckBoundaries classifies the current position against the arena and
// deactivates the projectile on any terminal outcome.
func (p *Projectile) CheckBoundaries() Outcome {
	arena := p.cfg.Arena
	if arena.Walls {
		return p.bounce()
	}
	outcome := OutcomeNone
	switch {
	case p.Position.Y >= arena.Height:
		p.Position.Y = arena.Height
		outcome = OutcomeGround
	case p.Position.X < 0 || p.Position.X > arena.Width || p.Position.Y < arena.Top:
		outcome = OutcomeOut
	case arena.HasNet() &&
		math.Abs(p.Position.X-arena.NetX) <= arena.NetHalfWidth &&
		p.Position.Y >= arena.Height-arena.NetHeight:
		outcome = OutcomeNet
	}
	if outcome.Terminal() {
		p.Active = false
	}
	return outcome
}

// bounce reflects off the top and bottom walls and reports an exit past
// either side.
func (p *Projectile) bounce() Outcome {
	arena := p.cfg.Arena
	switch {
	case p.Position.Y <= arena.Top:
		p.Position.Y = 2*arena.Top - p.Position.Y
		p.Velocity.Y = math.Abs(p.Velocity.Y)
	case p.Position.Y >= arena.Height:
		p.Position.Y = 2*arena.Height - p.Position.Y
		p.Velocity.Y = -math.Abs(p.Velocity.Y)
	}
	if p.Position.X < 0 || p.Position.X > arena.Width {
		p.Active = false
		return OutcomeOut
	}
	return OutcomeNone
}

// PredictPosition extrapolates lookaheadMs ahead using the current velocity
// plus one gravity increment. It does not mutate the projectile.
func (p *Projectile) PredictPosition(lookaheadMs float64) geom.Vec2 {
	if !p.Active {
		return p.Position
	}
	dt := lookaheadMs / 1000
	vy := p.Velocity.Y + float64(p.cfg.Gravity*dt)
	return geom.Vec2{
		X: p.Position.X + float64(p.Velocity.X*dt),
		Y: p.Position.Y + float64(vy*dt),
	}
}

// Travelled returns the straight-line distance from the launch origin.
func (p *Projectile) Travelled() float64 {
	return geom.Distance(p.Origin, p.Position)
}

func (p *Projectile) Trail() []geom.Vec2 {
	return p.trail.Points()
}

package sim

import (
	"math"
	"time"

	"motion-arena/server/internal/geom"
	"motion-arena/server/internal/physics"
	"motion-arena/server/logging"
	loggingNetwork "motion-arena/server/logging/network"
)

// ProcessAction validates and applies a controller input. Every rejection is
// reported through the Result and leaves state untouched.
func (s *Session) ProcessAction(cmd Command) Result {
	if !validCommand(cmd) {
		return s.drop(cmd, ReasonInvalid)
	}
	if cmd.ID != "" && s.dedup.Seen(dedupKey(cmd)) {
		return s.drop(cmd, ReasonDuplicate)
	}
	e, ok := s.byID[cmd.ActorID]
	if !ok {
		return s.drop(cmd, ReasonUnknownEntity)
	}
	if e.Bot {
		return s.drop(cmd, ReasonReserved)
	}
	if s.phase != PhaseActive {
		return s.drop(cmd, ReasonNotActive)
	}
	if !e.Alive() {
		return s.drop(cmd, ReasonEntityInactive)
	}
	if result := s.dispatch(e, cmd); !result.Success {
		return s.drop(cmd, result.Reason)
	}
	return accepted()
}

// dedupKey scopes a message id to its sender. Ids are only unique per
// controller, so two players may legitimately reuse one.
func dedupKey(cmd Command) string {
	return cmd.ActorID + "\x00" + cmd.ID
}

// dispatch applies a validated input for a live entity.
func (s *Session) dispatch(e *Entity, cmd Command) Result {
	switch cmd.Type {
	case CommandMove:
		return s.applyMove(e, cmd)
	case CommandLook:
		return s.applyLook(e, cmd)
	case CommandSwing, CommandAction:
		return s.rules.action(s, e, cmd)
	default:
		return rejected(ReasonUnsupported)
	}
}

func (s *Session) drop(cmd Command, reason string) Result {
	if s.deps.Metrics != nil {
		s.deps.Metrics.Add(metricActionsDenied, 1)
	}
	loggingNetwork.InputDropped(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(cmd.ActorID), loggingNetwork.InputDroppedPayload{
		Event:  string(cmd.Type),
		Reason: reason,
	}, map[string]any{"room": s.code, "commandId": cmd.ID})
	return rejected(reason)
}

func validCommand(cmd Command) bool {
	if cmd.ActorID == "" {
		return false
	}
	switch cmd.Type {
	case CommandMove:
		m := cmd.Move
		return m != nil && unitRange(m.X) && unitRange(m.Y)
	case CommandLook:
		l := cmd.Look
		if l == nil || !geom.Finite(l.X) || !geom.Finite(l.Y) {
			return false
		}
		return l.Angle == nil || geom.Finite(*l.Angle)
	case CommandAction:
		a := cmd.Action
		if a == nil {
			return false
		}
		_, known := knownActions[a.Name]
		return known
	case CommandSwing:
		sw := cmd.Swing
		if sw == nil || !geom.Finite(sw.Speed) || sw.Speed < 0 || !geom.Finite(sw.Spin) {
			return false
		}
		return sw.Stroke == "" || physics.KnownStroke(sw.Stroke)
	default:
		return false
	}
}

func unitRange(v float64) bool {
	return geom.Finite(v) && v >= -1 && v <= 1
}

// applyMove snaps the movement intent. Older intents never overwrite newer
// ones, so a reordered delivery is a no-op.
func (s *Session) applyMove(e *Entity, cmd Command) Result {
	paddle := s.tuning.Mode == ModePaddle
	if s.tuning.Movement.Speed <= 0 && !paddle {
		return rejected(ReasonUnsupported)
	}
	if !e.intent.At.IsZero() && cmd.IssuedAt.Before(e.intent.At) {
		return accepted()
	}
	m := cmd.Move
	if paddle {
		// A released stick leaves the paddle where it was aimed.
		if m.Active {
			e.intent = moveIntent{X: m.X, Y: m.Y, Active: true, At: cmd.IssuedAt}
		}
		return accepted()
	}
	e.intent = moveIntent{X: m.X, Y: m.Y, Active: m.Active, At: cmd.IssuedAt}
	if !m.Active {
		e.intent.X, e.intent.Y = 0, 0
		e.Velocity = geom.Vec2{}
	}
	return accepted()
}

func (s *Session) applyLook(e *Entity, cmd Command) Result {
	if s.tuning.Mode == ModeRacing || s.tuning.Mode == ModePaddle {
		return rejected(ReasonUnsupported)
	}
	l := cmd.Look
	if !l.Active {
		return accepted()
	}
	switch {
	case l.Angle != nil:
		e.Aim = geom.NormalizeAngle(*l.Angle)
	case l.X != 0 || l.Y != 0:
		e.Aim = math.Atan2(l.Y, l.X)
	}
	return accepted()
}

// stepMovement turns intents into velocity and integrates positions. An
// intent older than StaleAfter decays towards rest.
func (s *Session) stepMovement(now time.Time, dt float64) {
	mv := s.tuning.Movement
	if mv.Speed <= 0 {
		return
	}
	for _, e := range s.entities {
		if !e.Alive() {
			e.Velocity = geom.Vec2{}
			continue
		}
		in := e.intent
		switch {
		case !in.Active:
			e.Velocity = geom.Vec2{}
		case now.Sub(in.At) <= mv.StaleAfter:
			e.Velocity = intentVelocity(in, mv, e.Crouching)
		default:
			e.Velocity = geom.Vec2{
				X: geom.DecayPerFrame(e.Velocity.X, mv.StaleDecay, dt),
				Y: geom.DecayPerFrame(e.Velocity.Y, mv.StaleDecay, dt),
			}
			if e.Velocity.Len() < mv.StopBelow {
				e.Velocity = geom.Vec2{}
			}
		}
		if e.Velocity == (geom.Vec2{}) {
			continue
		}
		e.Position = e.Position.Add(e.Velocity.Scale(dt))
		s.rules.clamp(s, e)
	}
}

// intentVelocity applies the response curve to the stick magnitude.
func intentVelocity(in moveIntent, mv MovementTuning, crouching bool) geom.Vec2 {
	y := in.Y
	if mv.HorizontalOnly {
		y = 0
	}
	stick := geom.Vec2{X: in.X, Y: y}
	mag := stick.Len()
	if mag == 0 {
		return geom.Vec2{}
	}
	if mag > 1 {
		stick = stick.Scale(1 / mag)
		mag = 1
	}
	curved := mag
	if mv.Curve > 0 {
		curved = math.Pow(mag, mv.Curve)
	}
	speed := mv.Speed
	if crouching && mv.CrouchSpeed > 0 {
		speed = mv.CrouchSpeed
	}
	return stick.Scale(float64(speed*curved) / mag)
}

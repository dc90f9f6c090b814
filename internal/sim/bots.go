package sim

import (
	"fmt"
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/physics"
)

const metricBotInputsRejected = "sim_bot_inputs_rejected_total"

// seatBots fills the seats humans left free. It runs once, when the lobby
// starts, so bots never count towards the lobby minimum.
func (s *Session) seatBots() {
	cfg := s.tuning.Bots
	if cfg.Count <= 0 || len(s.bots) > 0 {
		return
	}
	profile, err := ai.ProfileFor(cfg.Difficulty)
	if err != nil {
		s.deps.Logger.Printf("[session] room=%s bots disabled: %v", s.code, err)
		return
	}
	for i := 0; i < cfg.Count; i++ {
		name := cfg.Name
		if name == "" {
			name = "Bot"
		}
		if cfg.Count > 1 {
			name = fmt.Sprintf("%s %d", name, i+1)
		}
		e := &Entity{
			ID:        s.freeBotID(),
			Name:      name,
			Slot:      len(s.entities),
			Status:    StatusActive,
			Connected: true,
			Bot:       true,
		}
		s.rules.spawn(s, e)
		s.entities = append(s.entities, e)
		s.byID[e.ID] = e
		s.bots = append(s.bots, ai.NewBot(e.ID, profile, s.deps.Rand))
		s.announceJoin(e, false)
	}
}

func (s *Session) freeBotID() string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("bot-%d", n)
		if _, taken := s.byID[id]; !taken {
			return id
		}
	}
}

// runBots lets every live bot decide and applies its input through the same
// paths remote controllers use.
func (s *Session) runBots(now time.Time) {
	for _, bot := range s.bots {
		e, ok := s.byID[bot.ID]
		if !ok || !e.Alive() {
			continue
		}
		for _, input := range s.rules.drive(s, e, bot, now) {
			cmd, ok := botCommand(e.ID, input, now)
			if !ok || !validCommand(cmd) {
				continue
			}
			if result := s.dispatch(e, cmd); !result.Success && s.deps.Metrics != nil {
				s.deps.Metrics.Add(metricBotInputsRejected, 1)
			}
		}
	}
}

func botCommand(actor string, input ai.Command, now time.Time) (Command, bool) {
	cmd := Command{ActorID: actor, IssuedAt: now}
	switch {
	case input.Type == ai.CommandMove && input.Move != nil:
		cmd.Type = CommandMove
		cmd.Move = &MoveCommand{X: input.Move.X, Y: input.Move.Y, Active: input.Move.Active}
	case input.Type == ai.CommandLook && input.Look != nil:
		angle := input.Look.Angle
		cmd.Type = CommandLook
		cmd.Look = &LookCommand{Active: true, Angle: &angle}
	case input.Type == ai.CommandSwing && input.Swing != nil:
		cmd.Type = CommandSwing
		cmd.Swing = &SwingCommand{
			Speed:  input.Swing.Speed,
			Stroke: physics.Stroke(input.Swing.Stroke),
			Spin:   input.Swing.Spin,
			Smash:  input.Swing.Smash,
		}
	case input.Type == ai.CommandFire:
		cmd.Type = CommandAction
		cmd.Action = &ActionCommand{Name: ActionFire}
	default:
		return Command{}, false
	}
	return cmd, true
}

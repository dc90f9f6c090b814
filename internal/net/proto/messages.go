package proto

import (
	"encoding/json"
	"strings"

	"motion-arena/server/internal/channel"
	"motion-arena/server/internal/physics"
	"motion-arena/server/internal/sim"
)

// Version tracks the wire-protocol revision expected by controllers.
const Version = 1

// Event names carried on a room channel. All but game-state are inbound.
const (
	EventPlayerJoin       = "player-join"
	EventPlayerLeave      = "player-leave"
	EventControllerMove   = "controller-move"
	EventControllerLook   = "controller-look"
	EventControllerAction = "controller-action"
	EventSwing            = "swing"
	EventPeerDisconnected = "peer-disconnected"
	EventGameState        = "game-state"
)

const swingTypeSmash = "smash"

type JoinPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name,omitempty"`
}

type LeavePayload struct {
	PlayerID string `json:"playerId"`
}

// MovePayload is a movement stick sample with components in [-1, 1].
type MovePayload struct {
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x" jsonschema:"minimum=-1,maximum=1"`
	Y        float64 `json:"y" jsonschema:"minimum=-1,maximum=1"`
	Active   bool    `json:"active"`
}

type LookPayload struct {
	PlayerID string   `json:"playerId"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Active   bool     `json:"active"`
	Angle    *float64 `json:"angle,omitempty"`
}

// ActionPayload carries a discrete action. Value is a boolean or a string.
type ActionPayload struct {
	PlayerID string          `json:"playerId"`
	Action   string          `json:"action"`
	Value    json.RawMessage `json:"value,omitempty" jsonschema:"oneof_type=boolean;string"`
}

// SwingPayload describes a racket swing measured by the controller.
type SwingPayload struct {
	PlayerID  string  `json:"playerId"`
	Speed     float64 `json:"speed" jsonschema:"minimum=0"`
	Category  string  `json:"category" jsonschema:"enum=overhead,enum=forehand,enum=backhand,enum=underhand,enum=neutral"`
	Spin      float64 `json:"spin"`
	Type      string  `json:"type,omitempty" jsonschema:"enum=smash,enum=normal"`
	Timestamp int64   `json:"timestamp"`
}

// PeerPayload is published by the broker when a controller connection drops.
type PeerPayload struct {
	PlayerID string `json:"playerId"`
}

// ToCommand decodes a channel message into a simulation command. The broker
// verified ClientID wins over any playerId in the payload. It returns false
// for unknown events and undecodable payloads.
func ToCommand(msg channel.Message) (sim.Command, bool) {
	cmd := sim.Command{
		ID:       msg.ID,
		ActorID:  msg.ClientID,
		IssuedAt: msg.Timestamp,
	}
	switch msg.Name {
	case EventPlayerJoin:
		var p JoinPayload
		if !decode(msg, &p) {
			return sim.Command{}, false
		}
		cmd.Type = sim.CommandJoin
		cmd.Join = &sim.JoinCommand{Name: strings.TrimSpace(p.Name)}
		cmd.ActorID = actor(msg, p.PlayerID)
	case EventPlayerLeave, EventPeerDisconnected:
		var p LeavePayload
		if len(msg.Data) > 0 && !decode(msg, &p) {
			return sim.Command{}, false
		}
		reason := "leave"
		if msg.Name == EventPeerDisconnected {
			reason = EventPeerDisconnected
		}
		cmd.Type = sim.CommandLeave
		cmd.Leave = &sim.LeaveCommand{Reason: reason}
		cmd.ActorID = actor(msg, p.PlayerID)
	case EventControllerMove:
		var p MovePayload
		if !decode(msg, &p) {
			return sim.Command{}, false
		}
		cmd.Type = sim.CommandMove
		cmd.Move = &sim.MoveCommand{X: p.X, Y: p.Y, Active: p.Active}
		cmd.ActorID = actor(msg, p.PlayerID)
	case EventControllerLook:
		var p LookPayload
		if !decode(msg, &p) {
			return sim.Command{}, false
		}
		cmd.Type = sim.CommandLook
		cmd.Look = &sim.LookCommand{X: p.X, Y: p.Y, Active: p.Active, Angle: p.Angle}
		cmd.ActorID = actor(msg, p.PlayerID)
	case EventControllerAction:
		var p ActionPayload
		if !decode(msg, &p) {
			return sim.Command{}, false
		}
		action := &sim.ActionCommand{Name: sim.ActionName(p.Action)}
		if !decodeValue(p.Value, action) {
			return sim.Command{}, false
		}
		cmd.Type = sim.CommandAction
		cmd.Action = action
		cmd.ActorID = actor(msg, p.PlayerID)
	case EventSwing:
		var p SwingPayload
		if !decode(msg, &p) {
			return sim.Command{}, false
		}
		cmd.Type = sim.CommandSwing
		cmd.ClientTime = p.Timestamp
		cmd.Swing = &sim.SwingCommand{
			Speed:  p.Speed,
			Stroke: physics.Stroke(strings.ToLower(p.Category)),
			Spin:   p.Spin,
			Smash:  p.Type == swingTypeSmash,
		}
		cmd.ActorID = actor(msg, p.PlayerID)
	default:
		return sim.Command{}, false
	}
	return cmd, true
}

func decode(msg channel.Message, v any) bool {
	return msg.Decode(v) == nil
}

func actor(msg channel.Message, payloadID string) string {
	if msg.ClientID != "" {
		return msg.ClientID
	}
	return payloadID
}

func decodeValue(raw json.RawMessage, action *sim.ActionCommand) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		action.Flag = flag
		return true
	}
	var option string
	if err := json.Unmarshal(raw, &option); err == nil {
		action.Option = option
		return true
	}
	return false
}

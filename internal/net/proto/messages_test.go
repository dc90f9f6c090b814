package proto

import (
	"encoding/json"
	"testing"
	"time"

	"motion-arena/server/internal/channel"
	"motion-arena/server/internal/physics"
	"motion-arena/server/internal/sim"
)

func message(t *testing.T, name, clientID string, payload any) channel.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return channel.Message{
		ID:        "msg-1",
		Channel:   "room:ABCD",
		Name:      name,
		ClientID:  clientID,
		Data:      data,
		Timestamp: time.UnixMilli(1_700_000_000_000),
	}
}

func TestToCommand(t *testing.T) {
	t.Run("join command", func(t *testing.T) {
		cmd, ok := ToCommand(message(t, EventPlayerJoin, "", JoinPayload{PlayerID: "p1", Name: "  Ada "}))
		if !ok {
			t.Fatalf("expected join to be recognized")
		}
		if cmd.Type != sim.CommandJoin || cmd.Join == nil {
			t.Fatalf("expected join command, got %+v", cmd)
		}
		if cmd.ActorID != "p1" {
			t.Fatalf("expected actor p1, got %q", cmd.ActorID)
		}
		if cmd.Join.Name != "Ada" {
			t.Fatalf("expected trimmed name, got %q", cmd.Join.Name)
		}
		if cmd.ID != "msg-1" || cmd.IssuedAt.UnixMilli() != 1_700_000_000_000 {
			t.Fatalf("expected broker id and timestamp, got %q %v", cmd.ID, cmd.IssuedAt)
		}
	})

	t.Run("client id wins over payload", func(t *testing.T) {
		cmd, ok := ToCommand(message(t, EventControllerMove, "verified", MovePayload{PlayerID: "spoofed", X: 0.5, Active: true}))
		if !ok {
			t.Fatalf("expected move to be recognized")
		}
		if cmd.ActorID != "verified" {
			t.Fatalf("expected verified actor, got %q", cmd.ActorID)
		}
		if cmd.Move == nil || cmd.Move.X != 0.5 || !cmd.Move.Active {
			t.Fatalf("unexpected move payload: %+v", cmd.Move)
		}
	})

	t.Run("look command with angle", func(t *testing.T) {
		angle := 1.25
		cmd, ok := ToCommand(message(t, EventControllerLook, "", LookPayload{PlayerID: "p1", Active: true, Angle: &angle}))
		if !ok || cmd.Type != sim.CommandLook {
			t.Fatalf("expected look command, got %+v", cmd)
		}
		if cmd.Look.Angle == nil || *cmd.Look.Angle != angle {
			t.Fatalf("expected angle to be forwarded")
		}
	})

	t.Run("action with boolean value", func(t *testing.T) {
		cmd, ok := ToCommand(message(t, EventControllerAction, "", map[string]any{"playerId": "p1", "action": "crouch", "value": true}))
		if !ok {
			t.Fatalf("expected action to be recognized")
		}
		if cmd.Action.Name != sim.ActionCrouch || !cmd.Action.Flag {
			t.Fatalf("unexpected action: %+v", cmd.Action)
		}
	})

	t.Run("action with string value", func(t *testing.T) {
		cmd, ok := ToCommand(message(t, EventControllerAction, "", map[string]any{"playerId": "p1", "action": "switchWeapon", "value": "secondary"}))
		if !ok {
			t.Fatalf("expected action to be recognized")
		}
		if cmd.Action.Option != "secondary" || cmd.Action.Flag {
			t.Fatalf("unexpected action: %+v", cmd.Action)
		}
	})

	t.Run("action with object value", func(t *testing.T) {
		_, ok := ToCommand(message(t, EventControllerAction, "", map[string]any{"playerId": "p1", "action": "fire", "value": map[string]int{"a": 1}}))
		if ok {
			t.Fatalf("expected object value to be rejected")
		}
	})

	t.Run("swing command", func(t *testing.T) {
		cmd, ok := ToCommand(message(t, EventSwing, "", SwingPayload{
			PlayerID:  "p1",
			Speed:     18,
			Category:  "Forehand",
			Spin:      0.2,
			Type:      "smash",
			Timestamp: 42,
		}))
		if !ok || cmd.Swing == nil {
			t.Fatalf("expected swing command, got %+v", cmd)
		}
		if cmd.Swing.Stroke != physics.StrokeForehand {
			t.Fatalf("expected forehand stroke, got %q", cmd.Swing.Stroke)
		}
		if !cmd.Swing.Smash || cmd.Swing.Speed != 18 || cmd.ClientTime != 42 {
			t.Fatalf("unexpected swing: %+v client=%d", cmd.Swing, cmd.ClientTime)
		}
	})

	t.Run("peer disconnect without payload", func(t *testing.T) {
		cmd, ok := ToCommand(channel.Message{Name: EventPeerDisconnected, ClientID: "p2"})
		if !ok {
			t.Fatalf("expected disconnect to be recognized")
		}
		if cmd.Type != sim.CommandLeave || cmd.ActorID != "p2" || cmd.Leave.Reason != "peer-disconnected" {
			t.Fatalf("unexpected leave command: %+v", cmd)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		if _, ok := ToCommand(message(t, "emote", "p1", map[string]string{})); ok {
			t.Fatalf("expected unknown event to be ignored")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		msg := channel.Message{Name: EventControllerMove, Data: json.RawMessage(`{"x":`)}
		if _, ok := ToCommand(msg); ok {
			t.Fatalf("expected malformed payload to be ignored")
		}
	})
}

func TestCodecs(t *testing.T) {
	env := Envelope{
		ID:        "c-1",
		Name:      EventControllerMove,
		ClientID:  "p1",
		Timestamp: 99,
		Data:      json.RawMessage(`{"playerId":"p1","x":0.5,"y":-1,"active":true}`),
	}

	for _, name := range []string{CodecJSON, CodecMsgpack} {
		t.Run(name, func(t *testing.T) {
			codec, err := CodecByName(name)
			if err != nil {
				t.Fatalf("expected codec %q: %v", name, err)
			}
			frame, err := codec.Encode(env)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			decoded, err := codec.Decode(frame)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if decoded.ID != env.ID || decoded.Name != env.Name || decoded.ClientID != env.ClientID || decoded.Timestamp != env.Timestamp {
				t.Fatalf("unexpected envelope: %+v", decoded)
			}
			var move MovePayload
			if err := json.Unmarshal(decoded.Data, &move); err != nil {
				t.Fatalf("payload not decodable: %v", err)
			}
			if move.X != 0.5 || move.Y != -1 || !move.Active {
				t.Fatalf("unexpected payload: %+v", move)
			}
		})
	}

	if _, err := CodecByName("xml"); err == nil {
		t.Fatalf("expected unknown codec to fail")
	}
}

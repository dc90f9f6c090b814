package lifecycle

import (
	"context"

	"motion-arena/server/logging"
)

const (
	// EventPlayerJoined is emitted when a controller joins a room.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerDisconnected is emitted when a controller drops or leaves.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventPlayerForfeited is emitted when a disconnected player's grace period ends.
	EventPlayerForfeited logging.EventType = "lifecycle.player_forfeited"
	// EventPhaseChanged is emitted on every session phase transition.
	EventPhaseChanged logging.EventType = "lifecycle.phase_changed"
)

// PlayerJoinedPayload captures where and how a player entered the session.
type PlayerJoinedPayload struct {
	Slot        int     `json:"slot"`
	Side        string  `json:"side,omitempty"`
	SpawnX      float64 `json:"spawnX"`
	SpawnY      float64 `json:"spawnY"`
	Reconnected bool    `json:"reconnected,omitempty"`
}

// PlayerDisconnectedPayload captures the reason a player left.
type PlayerDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// PhaseChangedPayload records a lifecycle transition.
type PhaseChangedPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerJoinedPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerJoined, logging.SeverityInfo, tick, actor, payload, extra)
}

// PlayerDisconnected publishes a player disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerDisconnectedPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerDisconnected, logging.SeverityInfo, tick, actor, payload, extra)
}

// PlayerForfeited publishes a warning when a player is removed from play.
func PlayerForfeited(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, EventPlayerForfeited, logging.SeverityWarn, tick, actor, nil, extra)
}

// PhaseChanged publishes a session phase transition.
func PhaseChanged(ctx context.Context, pub logging.Publisher, tick uint64, room logging.EntityRef, payload PhaseChangedPayload, extra map[string]any) {
	publish(ctx, pub, EventPhaseChanged, logging.SeverityInfo, tick, room, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryLifecycle,
		Extra:    extra,
	}
	if payload != nil {
		event.Payload = payload
	}
	pub.Publish(ctx, event)
}

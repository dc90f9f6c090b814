package network

import (
	"context"

	"motion-arena/server/logging"
)

const (
	// EventInputDropped is emitted when an input event is rejected before or during reconciliation.
	EventInputDropped logging.EventType = "network.input_dropped"
	// EventChannelState is emitted when the pub/sub transport changes state.
	EventChannelState logging.EventType = "network.channel_state"
	// EventPeerConnected is emitted when a websocket peer attaches to a room channel.
	EventPeerConnected logging.EventType = "network.peer_connected"
)

// InputDroppedPayload records why an input event produced no state change.
type InputDroppedPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// ChannelStatePayload records a transport status change.
type ChannelStatePayload struct {
	State string `json:"state"`
}

// PeerPayload describes a broker connection.
type PeerPayload struct {
	Codec  string `json:"codec"`
	Remote string `json:"remote,omitempty"`
}

// InputDropped publishes a debug event for a dropped or rejected input.
func InputDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload InputDroppedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventInputDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// ChannelState publishes a warning whenever the transport leaves the connected state.
func ChannelState(ctx context.Context, pub logging.Publisher, room logging.EntityRef, payload ChannelStatePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityInfo
	if payload.State != "connected" {
		severity = logging.SeverityWarn
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventChannelState,
		Actor:    room,
		Severity: severity,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// PeerConnected publishes a broker attach event.
func PeerConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PeerPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPeerConnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

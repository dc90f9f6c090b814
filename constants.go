package server

import (
	"time"

	"motion-arena/server/internal/net/proto"
)

const (
	ProtocolVersion        = proto.Version
	writeWait              = 10 * time.Second
	defaultTickRate        = 60 // ticks per second
	defaultBroadcastEvery  = 2  // ticks between game-state snapshots
	defaultCommandCapacity = 1024
	defaultPerActorLimit   = 32
	queueWarningStep       = 256
	maxCodeAttempts        = 32
	inputDropChannelDown   = "channel_disconnected"
)

// WriteWait bounds every websocket write.
func WriteWait() time.Duration {
	return writeWait
}

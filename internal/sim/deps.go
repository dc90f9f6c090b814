package sim

import (
	"math/rand"

	"motion-arena/server/internal/telemetry"
	"motion-arena/server/logging"
)

// Deps carries the collaborators a session and its loop report through.
type Deps struct {
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Clock     logging.Clock
	// Rand feeds bots and serves. Sessions are not safe for concurrent use,
	// so neither is the source.
	Rand *rand.Rand
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = telemetry.Nop()
	}
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Clock == nil {
		d.Clock = logging.SystemClock{}
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(1))
	}
	return d
}

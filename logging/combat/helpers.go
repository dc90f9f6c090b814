package combat

import (
	"context"

	"motion-arena/server/logging"
)

const (
	// EventSwingResolved is emitted for every swing that reached hit validation.
	EventSwingResolved logging.EventType = "combat.swing_resolved"
	// EventShotFired is emitted when a weapon discharges.
	EventShotFired logging.EventType = "combat.shot_fired"
	// EventPlayerHit is emitted when damage lands on a player.
	EventPlayerHit logging.EventType = "combat.player_hit"
	// EventPointScored is emitted when a rally or kill awards score.
	EventPointScored logging.EventType = "combat.point_scored"
)

// SwingPayload captures the inputs and result of a hit-zone check.
type SwingPayload struct {
	Stroke   string  `json:"stroke"`
	Speed    float64 `json:"speed"`
	Power    bool    `json:"power"`
	Distance float64 `json:"distance"`
	Radius   float64 `json:"radius"`
	Hit      bool    `json:"hit"`
}

// ShotPayload describes a single weapon discharge.
type ShotPayload struct {
	Weapon  string `json:"weapon"`
	Hitscan bool   `json:"hitscan"`
	Ammo    int    `json:"ammo"`
}

// HitPayload describes damage applied to a target.
type HitPayload struct {
	Weapon string  `json:"weapon,omitempty"`
	Damage float64 `json:"damage"`
	Health float64 `json:"health"`
	Fatal  bool    `json:"fatal"`
}

// PointPayload describes a score change.
type PointPayload struct {
	Reason string `json:"reason"`
	Score  int    `json:"score"`
}

// SwingResolved publishes a swing outcome. Misses are debug level.
func SwingResolved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SwingPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityInfo
	if !payload.Hit {
		severity = logging.SeverityDebug
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSwingResolved,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// ShotFired publishes a weapon discharge.
func ShotFired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ShotPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventShotFired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// PlayerHit publishes damage from actor to target.
func PlayerHit(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload HitPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerHit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// PointScored publishes a score increment for actor.
func PointScored(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PointPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPointScored,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	})
}

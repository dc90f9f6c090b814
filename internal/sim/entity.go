package sim

import (
	"time"

	"motion-arena/server/internal/geom"
)

// Side is the half of a net court an entity defends.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opposite returns the other half of the court.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}

// Team is a shooter side in team games.
type Team string

const (
	TeamNone Team = ""
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Status is an entity's participation state.
type Status string

const (
	StatusActive     Status = "active"
	StatusRespawning Status = "respawning"
	StatusEliminated Status = "eliminated"
	StatusFinished   Status = "finished"
	StatusForfeited  Status = "forfeited"
)

type moveIntent struct {
	X      float64
	Y      float64
	Active bool
	At     time.Time
}

type magazine struct {
	Ammo    int
	Reserve int
}

// Entity is a participant in a session. Sessions hand out copies; only the
// owning session mutates the original.
type Entity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slot  int    `json:"slot"`
	Side  Side   `json:"side,omitempty"`
	Team  Team   `json:"team,omitempty"`
	Bot   bool   `json:"bot,omitempty"`
	Spawn geom.Vec2

	Position geom.Vec2 `json:"position"`
	Velocity geom.Vec2 `json:"velocity"`
	Aim      float64   `json:"aim"`

	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Score     int     `json:"score"`
	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`

	Weapon    string `json:"weapon,omitempty"`
	Ammo      int    `json:"ammo"`
	Reserve   int    `json:"reserve"`
	Crouching bool   `json:"crouching,omitempty"`

	Progress   float64   `json:"progress"`
	Speed      float64   `json:"speed"`
	Place      int       `json:"place,omitempty"`
	FinishedAt time.Time `json:"-"`

	Status         Status    `json:"status"`
	Connected      bool      `json:"connected"`
	DisconnectedAt time.Time `json:"-"`

	cooldowns map[string]time.Time
	intent    moveIntent
	loadout   map[string]magazine
}

// Alive reports whether the entity currently takes part in play.
func (e *Entity) Alive() bool {
	return e.Status == StatusActive
}

// InContest reports whether the entity still counts towards the game.
func (e *Entity) InContest() bool {
	return e.Status != StatusForfeited
}

// Teammate reports whether o fights on e's side. Entities without a team
// have no teammates.
func (e *Entity) Teammate(o *Entity) bool {
	return e.Team != TeamNone && e.Team == o.Team
}

// addScore applies a non-negative score increment.
func (e *Entity) addScore(points int) {
	if points <= 0 {
		return
	}
	e.Score += points
}

func (e *Entity) clone() Entity {
	copied := *e
	copied.cooldowns = nil
	copied.loadout = nil
	return copied
}

package sim

import (
	"sort"

	"motion-arena/server/internal/geom"
	"motion-arena/server/internal/physics"
)

// Snapshot is the authoritative state broadcast as game-state.
type Snapshot struct {
	Room        string               `json:"room"`
	Game        Game                 `json:"game"`
	Tick        uint64               `json:"tick"`
	Time        int64                `json:"time"`
	Phase       Phase                `json:"phase"`
	Entities    []EntitySnapshot     `json:"entities"`
	Projectiles []ProjectileSnapshot `json:"projectiles,omitempty"`
	Left        int                  `json:"left"`
	Right       int                  `json:"right"`
	Server      string               `json:"server,omitempty"`
	CountdownMs int64                `json:"countdownMs,omitempty"`
	RemainingMs int64                `json:"remainingMs,omitempty"`
	EndReason   string               `json:"endReason,omitempty"`
	Winner      string               `json:"winner,omitempty"`
}

type EntitySnapshot struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slot      int     `json:"slot"`
	Side      Side    `json:"side,omitempty"`
	Team      Team    `json:"team,omitempty"`
	Bot       bool    `json:"bot,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Aim       float64 `json:"aim"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Score     int     `json:"score"`
	Kills     int     `json:"kills,omitempty"`
	Deaths    int     `json:"deaths,omitempty"`
	Weapon    string  `json:"weapon,omitempty"`
	Ammo      int     `json:"ammo,omitempty"`
	Reserve   int     `json:"reserve,omitempty"`
	Crouching bool    `json:"crouching,omitempty"`
	Progress  float64 `json:"progress,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	Place     int     `json:"place,omitempty"`
	Status    Status  `json:"status"`
	Connected bool    `json:"connected"`
}

type ProjectileSnapshot struct {
	ID       uint64      `json:"id"`
	OwnerID  string      `json:"ownerId,omitempty"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	VX       float64     `json:"vx"`
	VY       float64     `json:"vy"`
	Rotation float64     `json:"rotation"`
	Active   bool        `json:"active"`
	Trail    []geom.Vec2 `json:"trail,omitempty"`
}

// Standing is one row of the final ranking.
type Standing struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Team     Team    `json:"team,omitempty"`
	Score    int     `json:"score"`
	Kills    int     `json:"kills,omitempty"`
	Deaths   int     `json:"deaths,omitempty"`
	Place    int     `json:"place,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	Status   Status  `json:"status"`
}

func entitySnapshot(e *Entity) EntitySnapshot {
	return EntitySnapshot{
		ID:        e.ID,
		Name:      e.Name,
		Slot:      e.Slot,
		Side:      e.Side,
		Team:      e.Team,
		Bot:       e.Bot,
		X:         e.Position.X,
		Y:         e.Position.Y,
		VX:        e.Velocity.X,
		VY:        e.Velocity.Y,
		Aim:       e.Aim,
		Health:    e.Health,
		MaxHealth: e.MaxHealth,
		Score:     e.Score,
		Kills:     e.Kills,
		Deaths:    e.Deaths,
		Weapon:    e.Weapon,
		Ammo:      e.Ammo,
		Reserve:   e.Reserve,
		Crouching: e.Crouching,
		Progress:  e.Progress,
		Speed:     e.Speed,
		Place:     e.Place,
		Status:    e.Status,
		Connected: e.Connected,
	}
}

func projectileSnapshot(p *physics.Projectile) ProjectileSnapshot {
	return ProjectileSnapshot{
		ID:       p.ID,
		OwnerID:  p.OwnerID,
		X:        p.Position.X,
		Y:        p.Position.Y,
		VX:       p.Velocity.X,
		VY:       p.Velocity.Y,
		Rotation: p.Rotation,
		Active:   p.Active,
		Trail:    p.Trail(),
	}
}

// rankStandings orders finishers by place, then score, then progress. Slot
// breaks remaining ties so the order is stable.
func rankStandings(entities []*Entity) []Standing {
	ordered := append([]*Entity(nil), entities...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ranksAbove(ordered[i], ordered[j])
	})
	standings := make([]Standing, 0, len(ordered))
	for _, e := range ordered {
		standings = append(standings, Standing{
			PlayerID: e.ID,
			Name:     e.Name,
			Team:     e.Team,
			Score:    e.Score,
			Kills:    e.Kills,
			Deaths:   e.Deaths,
			Place:    e.Place,
			Progress: e.Progress,
			Status:   e.Status,
		})
	}
	return standings
}

func ranksAbove(a, b *Entity) bool {
	if a.InContest() != b.InContest() {
		return a.InContest()
	}
	if (a.Place > 0) != (b.Place > 0) {
		return a.Place > 0
	}
	if a.Place != b.Place {
		return a.Place < b.Place
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Progress != b.Progress {
		return a.Progress > b.Progress
	}
	return a.Slot < b.Slot
}

// tiedRank reports whether neither entity outranks the other, ignoring slot.
func tiedRank(a, b *Entity) bool {
	return a.InContest() == b.InContest() && a.Place == b.Place &&
		a.Score == b.Score && a.Progress == b.Progress
}

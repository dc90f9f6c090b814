package combat

import "motion-arena/server/internal/geom"

// Target is a candidate for a hit test.
type Target struct {
	ID       string
	Position geom.Vec2
}

// Raycast returns the target closest to origin whose centre lies within
// radius of the ray segment. Targets are checked in order and ties keep the
// earlier one.
func Raycast(origin geom.Vec2, angle, length, radius float64, targets []Target) (Target, bool) {
	end := origin.Add(geom.FromAngle(angle, length))
	return closestOnSegment(origin, end, radius, targets)
}

// SweepHit reports the first target whose centre lies within radius of the
// path travelled from prev to next during a step.
func SweepHit(prev, next geom.Vec2, radius float64, targets []Target) (Target, bool) {
	return closestOnSegment(prev, next, radius, targets)
}

func closestOnSegment(a, b geom.Vec2, radius float64, targets []Target) (Target, bool) {
	var (
		best  Target
		found bool
		bestD float64
	)
	for _, target := range targets {
		if geom.DistToSegment(target.Position, a, b) >= radius {
			continue
		}
		d := geom.Distance(a, target.Position)
		if !found || d < bestD {
			best = target
			bestD = d
			found = true
		}
	}
	return best, found
}

// InHitZone reports whether point lies within radius of centre.
func InHitZone(point, centre geom.Vec2, radius float64) bool {
	return geom.Distance(point, centre) <= radius
}

// ApplyDamage subtracts damage and clamps the result into [0, max].
func ApplyDamage(health, damage, max float64) float64 {
	if damage < 0 {
		damage = 0
	}
	return geom.Clamp(health-damage, 0, max)
}

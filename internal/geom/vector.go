package geom

import "math"

// Vec2 is a point or displacement in arena pixels. Y grows downward.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: float64(v.X * s), Y: float64(v.Y * s)}
}

// Len returns the Euclidean magnitude.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Finite reports whether both components are real numbers.
func (v Vec2) Finite() bool {
	return Finite(v.X) && Finite(v.Y)
}

// FromAngle returns a vector of the given length pointing along angle radians.
func FromAngle(angle, length float64) Vec2 {
	return Vec2{X: float64(math.Cos(angle) * length), Y: float64(math.Sin(angle) * length)}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistToSegment returns the shortest distance from p to the segment ab.
func DistToSegment(p, a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lengthSq := float64(dx*dx) + float64(dy*dy)
	if lengthSq == 0 {
		return Distance(p, a)
	}
	t := (float64((p.X-a.X)*dx) + float64((p.Y-a.Y)*dy)) / lengthSq
	t = Clamp(t, 0, 1)
	closest := Vec2{X: a.X + float64(t*dx), Y: a.Y + float64(t*dy)}
	return Distance(p, closest)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

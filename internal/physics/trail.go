package physics

import "motion-arena/server/internal/geom"

// Trail is a fixed-capacity ring of recent positions. When full the oldest
// point is overwritten.
type Trail struct {
	points []geom.Vec2
	head   int
	count  int
}

func NewTrail(capacity int) *Trail {
	if capacity < 0 {
		capacity = 0
	}
	return &Trail{points: make([]geom.Vec2, capacity)}
}

// Push appends a point, evicting the oldest when the ring is full.
func (t *Trail) Push(p geom.Vec2) {
	if t == nil || len(t.points) == 0 {
		return
	}
	idx := (t.head + t.count) % len(t.points)
	if t.count == len(t.points) {
		t.points[t.head] = p
		t.head = (t.head + 1) % len(t.points)
		return
	}
	t.points[idx] = p
	t.count++
}

// Points returns the stored positions oldest first.
func (t *Trail) Points() []geom.Vec2 {
	if t == nil || t.count == 0 {
		return nil
	}
	out := make([]geom.Vec2, t.count)
	for i := 0; i < t.count; i++ {
		out[i] = t.points[(t.head+i)%len(t.points)]
	}
	return out
}

func (t *Trail) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

func (t *Trail) Reset() {
	if t == nil {
		return
	}
	t.head = 0
	t.count = 0
}

package sim

import (
	"sort"
	"time"
)

type timerKind string

const (
	timerServe   timerKind = "serve"
	timerRespawn timerKind = "respawn"
)

// timer is a delayed effect. Epoch ties it to the session instance that
// scheduled it.
type timer struct {
	At     time.Time
	Kind   timerKind
	Target string
	Epoch  uint64
	seq    uint64
}

type timerQueue struct {
	pending []timer
	seq     uint64
}

func (q *timerQueue) schedule(t timer) {
	q.seq++
	t.seq = q.seq
	q.pending = append(q.pending, t)
	sort.SliceStable(q.pending, func(i, j int) bool {
		if q.pending[i].At.Equal(q.pending[j].At) {
			return q.pending[i].seq < q.pending[j].seq
		}
		return q.pending[i].At.Before(q.pending[j].At)
	})
}

// popDue removes and returns every timer due at or before now.
func (q *timerQueue) popDue(now time.Time) []timer {
	n := 0
	for n < len(q.pending) && !q.pending[n].At.After(now) {
		n++
	}
	if n == 0 {
		return nil
	}
	due := append([]timer(nil), q.pending[:n]...)
	q.pending = append(q.pending[:0], q.pending[n:]...)
	return due
}

func (q *timerQueue) shift(d time.Duration) {
	for i := range q.pending {
		q.pending[i].At = q.pending[i].At.Add(d)
	}
}

func (q *timerQueue) clear() {
	q.pending = nil
}

func (q *timerQueue) len() int {
	return len(q.pending)
}

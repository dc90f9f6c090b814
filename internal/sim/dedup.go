package sim

// Dedup remembers the most recent message ids in a bounded FIFO.
type Dedup struct {
	ring  []string
	head  int
	count int
	index map[string]struct{}
}

func NewDedup(capacity int) *Dedup {
	if capacity < 1 {
		capacity = 1
	}
	return &Dedup{
		ring:  make([]string, capacity),
		index: make(map[string]struct{}, capacity),
	}
}

// Seen records id and reports whether it was already present. The oldest id
// is evicted once the set is full.
func (d *Dedup) Seen(id string) bool {
	if _, ok := d.index[id]; ok {
		return true
	}
	if d.count == len(d.ring) {
		delete(d.index, d.ring[d.head])
		d.ring[d.head] = id
		d.head = (d.head + 1) % len(d.ring)
	} else {
		d.ring[(d.head+d.count)%len(d.ring)] = id
		d.count++
	}
	d.index[id] = struct{}{}
	return false
}

func (d *Dedup) Len() int {
	return d.count
}

package sim

import (
	"sync"

	"motion-arena/server/internal/telemetry"
)

const (
	commandBufferOccupancyMetricKey = "sim_command_buffer_occupancy"
	commandBufferOverflowMetricKey  = "sim_command_buffer_overflow_total"
)

// CommandBuffer stages controller input between transport goroutines and
// the tick. Each actor may hold at most perActor slots between drains, and
// a sealed buffer refuses everything.
type CommandBuffer struct {
	mu       sync.Mutex
	ring     []Command
	head     int
	count    int
	perActor int
	quota    map[string]int
	sealed   bool
	metrics  telemetry.Metrics
}

// NewCommandBuffer sizes the ring. A perActor of zero disables the quota.
func NewCommandBuffer(capacity, perActor int, metrics telemetry.Metrics) *CommandBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &CommandBuffer{
		ring:     make([]Command, capacity),
		perActor: perActor,
		quota:    make(map[string]int),
		metrics:  metrics,
	}
}

// Push stages cmd. A refusal names the limit that was hit.
func (b *CommandBuffer) Push(cmd Command) (bool, string) {
	if b == nil {
		return false, CommandRejectQueueFull
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.sealed:
		return false, CommandRejectEnded
	case b.perActor > 0 && cmd.ActorID != "" && b.quota[cmd.ActorID] >= b.perActor:
		return false, CommandRejectQueueLimit
	case b.count == len(b.ring):
		if b.metrics != nil {
			b.metrics.Add(commandBufferOverflowMetricKey, 1)
		}
		return false, CommandRejectQueueFull
	}
	b.ring[(b.head+b.count)%len(b.ring)] = cmd
	b.count++
	if b.perActor > 0 && cmd.ActorID != "" {
		b.quota[cmd.ActorID]++
	}
	b.recordLocked()
	return true, ""
}

// Drain returns the staged commands in arrival order and resets every
// actor's quota.
func (b *CommandBuffer) Drain() []Command {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.quota)
	if b.count == 0 {
		return nil
	}
	out := make([]Command, b.count)
	for i := range out {
		idx := (b.head + i) % len(b.ring)
		out[i] = b.ring[idx]
		b.ring[idx] = Command{}
	}
	b.head, b.count = 0, 0
	b.recordLocked()
	return out
}

// Seal refuses every later Push. Commands already staged stay drainable.
func (b *CommandBuffer) Seal() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
}

func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *CommandBuffer) recordLocked() {
	if b.metrics != nil {
		b.metrics.Store(commandBufferOccupancyMetricKey, uint64(b.count))
	}
}

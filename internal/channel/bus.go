package channel

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Clock supplies broker timestamps.
type Clock interface {
	Now() time.Time
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

type subscription struct {
	id      uint64
	channel string
	name    string
	handler Handler
}

// Bus is an in-process broker. Publish dispatches synchronously on the
// caller's goroutine to handlers in registration order.
type Bus struct {
	clock Clock

	mu        sync.RWMutex
	subs      []subscription
	listeners map[uint64]func(State)
	state     State
	closed    bool

	nextSub atomic.Uint64
	nextMsg atomic.Uint64
}

// NewBus constructs a connected bus. A nil clock uses time.Now.
func NewBus(clock Clock) *Bus {
	if clock == nil {
		clock = clockFunc(time.Now)
	}
	return &Bus{
		clock:     clock,
		listeners: make(map[uint64]func(State)),
		state:     StateConnected,
	}
}

// Publish stamps msg and dispatches it. Messages keep a caller supplied id so
// retried deliveries stay recognisable as duplicates.
func (b *Bus) Publish(ctx context.Context, msg Message) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return Message{}, ErrClosed
	}
	if msg.ID == "" {
		msg.ID = "m" + strconv.FormatUint(b.nextMsg.Add(1), 36)
	}
	msg.Timestamp = b.clock.Now()
	var targets []Handler
	for _, sub := range b.subs {
		if sub.channel != msg.Channel {
			continue
		}
		if sub.name != "" && sub.name != msg.Name {
			continue
		}
		targets = append(targets, sub.handler)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(msg)
	}
	return msg, nil
}

func (b *Bus) Subscribe(channel, name string, h Handler) func() {
	if h == nil {
		return func() {}
	}
	id := b.nextSub.Add(1)
	b.mu.Lock()
	b.subs = append(b.subs, subscription{id: id, channel: channel, name: name, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *Bus) OnStateChange(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
	id := b.nextSub.Add(1)
	b.mu.Lock()
	b.listeners[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// State reports the current connection status.
func (b *Bus) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// SetState records a transport status change and notifies listeners.
func (b *Bus) SetState(state State) {
	b.mu.Lock()
	if b.closed || b.state == state {
		b.mu.Unlock()
		return
	}
	b.state = state
	listeners := b.listenersLocked()
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(state)
	}
}

// Subscribers reports the number of registered handlers on channel.
func (b *Bus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	count := 0
	for _, sub := range b.subs {
		if sub.channel == channel {
			count++
		}
	}
	return count
}

// Close drops all subscriptions and refuses further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.state = StateClosed
	b.subs = nil
	listeners := b.listenersLocked()
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(StateClosed)
	}
}

func (b *Bus) listenersLocked() []func(State) {
	out := make([]func(State), 0, len(b.listeners))
	for _, fn := range b.listeners {
		out = append(out, fn)
	}
	return out
}

var _ Channel = (*Bus)(nil)

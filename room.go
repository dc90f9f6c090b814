package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"motion-arena/server/internal/channel"
	"motion-arena/server/internal/net/proto"
	"motion-arena/server/internal/rooms"
	"motion-arena/server/internal/sim"
	"motion-arena/server/logging"
	loggingNetwork "motion-arena/server/logging/network"
)

// ErrUnknownAction is returned for a host control the room does not know.
var ErrUnknownAction = errors.New("server: unknown room action")

// Room control actions accepted by Control.
const (
	ActionStart  = "start"
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionQuit   = "quit"
	ActionReset  = "reset"
)

const hostActorID = "host"

type eventHandler func(channel.Message)

// Room binds one session to its channel. Inputs arrive on publisher
// goroutines and are only decoded and enqueued; the loop goroutine owns the
// session.
type Room struct {
	hub         *Hub
	code        string
	channelName string
	tuning      sim.Tuning
	ctx         context.Context
	// rng seeds each session's bots and serves. Guarded by mu.
	rng *rand.Rand

	mu          sync.Mutex
	loop        *sim.Loop
	stop        chan struct{}
	done        chan struct{}
	unsubscribe []func()
	closed      bool

	publishMu sync.Mutex
	lastPhase sim.Phase
}

func newRoom(h *Hub, code string, tuning sim.Tuning, seed int64) *Room {
	r := &Room{
		hub:         h,
		code:        code,
		channelName: rooms.ChannelName(string(tuning.Game), code),
		tuning:      tuning,
		ctx:         context.Background(),
		lastPhase:   sim.PhaseLobby,
		rng:         rand.New(rand.NewSource(seed)),
	}
	r.loop = r.newLoop()
	return r
}

func (r *Room) newLoop() *sim.Loop {
	cfg := r.hub.config
	session := sim.NewSession(r.code, r.tuning, sim.Deps{
		Logger:    cfg.Logger,
		Publisher: cfg.Publisher,
		Metrics:   cfg.Metrics,
		Clock:     cfg.Clock,
		Rand:      rand.New(rand.NewSource(r.rng.Int63())),
	})
	return sim.NewLoop(session, sim.LoopConfig{
		TickRate:        cfg.TickRate,
		CommandCapacity: cfg.CommandCapacity,
		PerActorLimit:   cfg.PerActorLimit,
		WarningStep:     queueWarningStep,
	}, sim.LoopHooks{
		AfterStep: r.afterStep,
		OnCommandDrop: func(reason string, cmd sim.Command) {
			r.hub.telemetry.IncrementCommandDrops()
		},
		OnQueueWarning: func(length int) {
			cfg.Logger.Printf("[rooms] command queue room=%s length=%d", r.code, length)
		},
	})
}

// handlers is the inbound event table. Every entry decodes the message and
// stages it for the next tick.
func (r *Room) handlers() map[string]eventHandler {
	return map[string]eventHandler{
		proto.EventPlayerJoin:       r.enqueueInput,
		proto.EventPlayerLeave:      r.enqueueInput,
		proto.EventPeerDisconnected: r.enqueueInput,
		proto.EventControllerMove:   r.enqueueInput,
		proto.EventControllerLook:   r.enqueueInput,
		proto.EventControllerAction: r.enqueueInput,
		proto.EventSwing:            r.enqueueInput,
	}
}

func (r *Room) attach() {
	bus := r.hub.bus
	if bus == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, handler := range r.handlers() {
		r.unsubscribe = append(r.unsubscribe, bus.Subscribe(r.channelName, name, channel.Handler(handler)))
	}
}

func (r *Room) enqueueInput(msg channel.Message) {
	cmd, ok := proto.ToCommand(msg)
	if !ok {
		r.hub.telemetry.IncrementMalformed()
		loggingNetwork.InputDropped(r.ctx, r.hub.config.Publisher, 0, logging.PlayerRef(msg.ClientID), loggingNetwork.InputDroppedPayload{
			Event:  msg.Name,
			Reason: "malformed",
		}, map[string]any{"room": r.code, "messageId": msg.ID})
		return
	}
	if !r.hub.acceptingInput() && cmd.Type != sim.CommandLeave {
		r.hub.telemetry.IncrementCommandDrops()
		loggingNetwork.InputDropped(r.ctx, r.hub.config.Publisher, 0, logging.PlayerRef(msg.ClientID), loggingNetwork.InputDroppedPayload{
			Event:  msg.Name,
			Reason: inputDropChannelDown,
		}, map[string]any{"room": r.code, "messageId": msg.ID})
		return
	}
	ok, reason := r.currentLoop().Enqueue(cmd)
	if !ok && reason == sim.CommandRejectEnded && cmd.Type == sim.CommandJoin {
		r.publishEvents([]sim.Event{{
			Kind:    sim.EventJoinRejected,
			Target:  cmd.ActorID,
			Payload: sim.JoinRejected{PlayerID: cmd.ActorID, Reason: sim.ReasonEnded},
		}})
	}
}

func (r *Room) currentLoop() *sim.Loop {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loop
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Channel() string {
	return r.channelName
}

func (r *Room) Game() sim.Game {
	return r.tuning.Game
}

// Snapshot returns the state stored by the latest tick.
func (r *Room) Snapshot() sim.Snapshot {
	return r.currentLoop().Snapshot()
}

func (r *Room) Summary() RoomSummary {
	snap := r.Snapshot()
	return RoomSummary{
		Code:    r.code,
		Channel: r.channelName,
		Game:    r.tuning.Game,
		Phase:   snap.Phase,
		Players: len(snap.Entities),
		Tick:    snap.Tick,
	}
}

// Start runs the loop on its own goroutine. It is a no-op when already
// running.
func (r *Room) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.startLocked()
}

func (r *Room) startLocked() {
	if r.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	loop := r.loop
	r.stop, r.done = stop, done
	go func() {
		defer close(done)
		loop.Run(stop)
	}()
}

// stopLocked halts the loop goroutine and reports whether it was running.
func (r *Room) stopLocked() bool {
	if r.stop == nil {
		return false
	}
	close(r.stop)
	<-r.done
	r.stop, r.done = nil, nil
	return true
}

// Step advances the room to now on the caller's goroutine and publishes the
// outcome.
func (r *Room) Step(now time.Time) sim.LoopStepResult {
	result := r.currentLoop().Advance(now)
	r.afterStep(result)
	return result
}

// ControlResult is the outcome of a host action and the phase it left the
// session in.
type ControlResult struct {
	sim.Result
	Phase sim.Phase
}

// Control applies a host action. Reset replaces the session and re-admits
// the connected players.
func (r *Room) Control(action string) (ControlResult, error) {
	var host sim.HostAction
	switch action {
	case ActionStart:
		host = sim.HostStart
	case ActionPause:
		host = sim.HostPause
	case ActionResume:
		host = sim.HostResume
	case ActionQuit:
		host = sim.HostQuit
	case ActionReset:
		if err := r.Reset(); err != nil {
			return ControlResult{}, err
		}
		out := ControlResult{Result: sim.Result{Success: true}}
		r.currentLoop().Inspect(func(s *sim.Session) {
			out.Phase = s.Phase()
		})
		return out, nil
	default:
		return ControlResult{}, fmt.Errorf("room %s action %q: %w", r.code, action, ErrUnknownAction)
	}

	cmd := sim.Command{
		ActorID:  hostActorID,
		Type:     sim.CommandHost,
		IssuedAt: r.hub.config.Clock.Now(),
		Host:     &sim.HostCommand{Action: host},
	}
	var out ControlResult
	r.currentLoop().Inspect(func(s *sim.Session) {
		out.Result = s.Apply(cmd)
		out.Phase = s.Phase()
	})
	return out, nil
}

// Reset discards the current session for a fresh lobby.
func (r *Room) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("reset %s: %w", r.code, ErrUnknownRoom)
	}
	running := r.stopLocked()

	var players []sim.Entity
	r.loop.Inspect(func(s *sim.Session) {
		players = s.Entities()
	})
	r.loop = r.newLoop()
	now := r.hub.config.Clock.Now()
	for _, p := range players {
		if !p.Connected || p.Bot {
			continue
		}
		r.loop.Enqueue(sim.Command{
			ActorID:  p.ID,
			Type:     sim.CommandJoin,
			IssuedAt: now,
			Join:     &sim.JoinCommand{Name: p.Name},
		})
	}
	r.hub.config.Logger.Printf("[rooms] reset room=%s players=%d", r.code, len(players))
	if running {
		r.startLocked()
	}
	return nil
}

// Close ends the session, publishes the final state and drops the room's
// subscriptions.
func (r *Room) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.stopLocked()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	loop := r.loop
	r.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}

	now := r.hub.config.Clock.Now()
	loop.Inspect(func(s *sim.Session) {
		if s.Phase() != sim.PhaseEnded {
			_ = s.Quit(now)
		}
	})
	r.afterStep(loop.Advance(now))
}

func (r *Room) afterStep(result sim.LoopStepResult) {
	if result.Duration > 0 {
		r.hub.telemetry.RecordTickDuration(result.Duration)
	}
	r.publishMu.Lock()
	defer r.publishMu.Unlock()
	r.publishEvents(result.Events)

	every := uint64(r.hub.config.BroadcastEvery)
	changed := result.Phase != r.lastPhase
	r.lastPhase = result.Phase
	if changed || every <= 1 || result.Tick%every == 0 {
		r.publishSnapshot(result.Snapshot)
	}
}

func (r *Room) publishEvents(events []sim.Event) {
	for _, ev := range events {
		msg, err := channel.PublishJSON(r.ctx, r.hub.bus, r.channelName, string(ev.Kind), ev.Payload)
		if err != nil {
			r.publishFailed(string(ev.Kind), err)
			continue
		}
		r.hub.telemetry.RecordEvent(len(msg.Data))
	}
}

func (r *Room) publishSnapshot(snap sim.Snapshot) {
	msg, err := channel.PublishJSON(r.ctx, r.hub.bus, r.channelName, proto.EventGameState, snap)
	if err != nil {
		r.publishFailed(proto.EventGameState, err)
		return
	}
	r.hub.telemetry.RecordSnapshot(len(msg.Data))
}

func (r *Room) publishFailed(name string, err error) {
	failures := r.hub.telemetry.IncrementPublishFailures()
	if failures&(failures-1) == 0 {
		r.hub.config.Logger.Printf("[rooms] publish failed room=%s event=%s count=%d: %v", r.code, name, failures, err)
	}
}

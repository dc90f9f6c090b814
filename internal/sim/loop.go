package sim

import (
	"context"
	"sync"
	"time"

	"motion-arena/server/internal/telemetry"
	"motion-arena/server/logging"
	loggingSimulation "motion-arena/server/logging/simulation"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to per-actor
	// queue throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the global command buffer is saturated.
	CommandRejectQueueFull = "queue_full"
	// CommandRejectEnded indicates the session ended and the loop no longer
	// applies input.
	CommandRejectEnded = "session_ended"
)

// LoopConfig tunes the command buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int
	CommandCapacity int
	PerActorLimit   int
	WarningStep     int
}

// LoopHooks lets the owner observe the loop without touching the session.
type LoopHooks struct {
	AfterStep      func(LoopStepResult)
	OnCommandDrop  func(reason string, cmd Command)
	OnQueueWarning func(length int)
}

// CommandOutcome pairs an applied command with its result.
type CommandOutcome struct {
	Command Command
	Result  Result
}

// LoopStepResult is everything one Advance produced.
type LoopStepResult struct {
	Tick     uint64
	Now      time.Time
	Duration time.Duration
	Budget   time.Duration
	Phase    Phase
	Outcomes []CommandOutcome
	Events   []Event
	Snapshot Snapshot
}

// Loop serializes access to a Session. Producers enqueue from any goroutine;
// Advance applies the queue and steps the session under a single mutex.
type Loop struct {
	session   *Session
	buffer    *CommandBuffer
	hooks     LoopHooks
	config    LoopConfig
	logger    telemetry.Logger
	publisher logging.Publisher
	clock     logging.Clock

	dropMu     sync.Mutex
	dropCounts map[string]uint64

	stepMu sync.Mutex
	snapMu sync.RWMutex
	latest Snapshot
	streak uint64
}

// NewLoop wraps the session with a ring-buffer queue.
func NewLoop(session *Session, cfg LoopConfig, hooks LoopHooks) *Loop {
	if session == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = 1024
	}
	deps := session.deps
	return &Loop{
		session:       session,
		buffer:     NewCommandBuffer(cfg.CommandCapacity, cfg.PerActorLimit, deps.Metrics),
		hooks:      hooks,
		config:     cfg,
		logger:     deps.Logger,
		publisher:  deps.Publisher,
		clock:      deps.Clock,
		dropCounts: make(map[string]uint64),
		latest:     session.Snapshot(),
	}
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Snapshot returns the state stored by the most recent Advance.
func (l *Loop) Snapshot() Snapshot {
	if l == nil {
		return Snapshot{}
	}
	l.snapMu.RLock()
	defer l.snapMu.RUnlock()
	return l.latest
}

// Inspect runs fn with exclusive access to the session. If fn ends the
// session the queue is sealed, as after a step.
func (l *Loop) Inspect(fn func(*Session)) {
	if l == nil || fn == nil {
		return
	}
	l.stepMu.Lock()
	defer l.stepMu.Unlock()
	fn(l.session)
	if l.session.Phase() == PhaseEnded {
		l.buffer.Seal()
	}
}

// Enqueue stages a command, enforcing per-actor throttling and capacity
// limits. Once the session has ended every command is refused.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectQueueFull
	}
	ok, reason := l.buffer.Push(cmd)
	if !ok {
		l.reportDrop(reason, cmd, l.countDrop(cmd.ActorID))
		return false, reason
	}
	if step := l.config.WarningStep; step > 0 && l.hooks.OnQueueWarning != nil {
		if length := l.buffer.Len(); length >= step && length%step == 0 {
			l.hooks.OnQueueWarning(length)
		}
	}
	return true, ""
}

// Advance applies the staged commands and steps the session to now. The
// step that ends the session seals the queue and applies whatever slipped
// in meanwhile, so a late join still gets its rejection.
func (l *Loop) Advance(now time.Time) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	l.stepMu.Lock()
	defer l.stepMu.Unlock()

	commands := l.buffer.Drain()
	outcomes := make([]CommandOutcome, 0, len(commands))
	for _, cmd := range commands {
		outcomes = append(outcomes, CommandOutcome{Command: cmd, Result: l.session.Apply(cmd)})
	}
	l.session.Step(now)
	if l.session.Phase() == PhaseEnded {
		l.buffer.Seal()
		for _, cmd := range l.buffer.Drain() {
			outcomes = append(outcomes, CommandOutcome{Command: cmd, Result: l.session.Apply(cmd)})
		}
	}
	snapshot := l.session.Snapshot()

	l.snapMu.Lock()
	l.latest = snapshot
	l.snapMu.Unlock()

	return LoopStepResult{
		Tick:     l.session.Tick(),
		Now:      now,
		Phase:    l.session.Phase(),
		Outcomes: outcomes,
		Events:   l.session.DrainEvents(),
		Snapshot: snapshot,
	}
}

// Run drives the loop from a ticker until stop closes or the session ends.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	budget := time.Second / time.Duration(l.config.TickRate)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			start := l.clock.Now()
			result := l.Advance(start)
			result.Duration = l.clock.Now().Sub(start)
			result.Budget = budget
			l.checkBudget(result)

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
			if result.Phase == PhaseEnded {
				return
			}
		}
	}
}

func (l *Loop) checkBudget(result LoopStepResult) {
	if result.Duration <= result.Budget {
		l.streak = 0
		return
	}
	l.streak++
	loggingSimulation.TickBudgetOverrun(context.Background(), l.publisher, result.Tick, logging.RoomRef(l.session.code), loggingSimulation.TickBudgetOverrunPayload{
		DurationMillis: result.Duration.Milliseconds(),
		BudgetMillis:   result.Budget.Milliseconds(),
		Ratio:          float64(result.Duration) / float64(result.Budget),
		Streak:         l.streak,
	}, nil)
}

func (l *Loop) countDrop(actorID string) uint64 {
	if actorID == "" {
		return 0
	}
	l.dropMu.Lock()
	defer l.dropMu.Unlock()
	count := l.dropCounts[actorID] + 1
	l.dropCounts[actorID] = count
	return count
}

func (l *Loop) reportDrop(reason string, cmd Command, count uint64) {
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	if reason == CommandRejectEnded || count == 0 || count&(count-1) != 0 {
		return
	}
	l.logger.Printf(
		"[backpressure] dropping command room=%s actor=%s type=%s count=%d limit=%d",
		l.session.code,
		cmd.ActorID,
		cmd.Type,
		count,
		l.config.PerActorLimit,
	)
	loggingSimulation.CommandBackpressure(context.Background(), l.publisher, 0, logging.PlayerRef(cmd.ActorID), loggingSimulation.BackpressurePayload{
		Reason: reason,
		Count:  count,
	}, map[string]any{"room": l.session.code})
}

package sim

import (
	"context"
	"fmt"
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/geom"
	"motion-arena/server/logging"
	loggingLifecycle "motion-arena/server/logging/lifecycle"
)

const (
	metricSessionTicks  = "sim_session_ticks_total"
	metricActionsDenied = "sim_actions_rejected_total"
	metricPhaseChanges  = "sim_phase_changes_total"
)

// Session is one game instance. It is not safe for concurrent use; a Loop
// serializes access. An ended session is never reused.
type Session struct {
	code   string
	tuning Tuning
	deps   Deps
	ctx    context.Context
	rules  rules

	phase    Phase
	tick     uint64
	epoch    uint64
	entities []*Entity
	byID     map[string]*Entity
	bots     []*ai.Bot
	dedup    *Dedup
	timers   timerQueue
	events   []Event

	lastStep      time.Time
	countdownEnds time.Time
	startedAt     time.Time
	deadline      time.Time
	pausedAt      time.Time
	endReason     string
	winner        string
}

// NewSession builds a lobby for the tuning's game.
func NewSession(code string, tuning Tuning, deps Deps) *Session {
	deps = deps.withDefaults()
	capacity := tuning.DedupCapacity
	if capacity <= 0 {
		capacity = 512
	}
	s := &Session{
		code:   code,
		tuning: tuning,
		deps:   deps,
		ctx:    context.Background(),
		phase:  PhaseLobby,
		byID:   make(map[string]*Entity),
		dedup:  NewDedup(capacity),
	}
	s.rules = newRules(tuning)
	return s
}

func (s *Session) Code() string {
	return s.code
}

func (s *Session) Tuning() Tuning {
	return s.tuning
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Tick() uint64 {
	return s.tick
}

// Entity returns a copy of the entity with id.
func (s *Session) Entity(id string) (Entity, bool) {
	e, ok := s.byID[id]
	if !ok {
		return Entity{}, false
	}
	return e.clone(), true
}

// Entities returns copies of every entity in join order.
func (s *Session) Entities() []Entity {
	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e.clone())
	}
	return out
}

// Roster lists the players in join order so a reset can re-admit them.
func (s *Session) Roster() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, PlayerInfo{PlayerID: e.ID, Name: e.Name, Slot: e.Slot, Side: e.Side, Team: e.Team, Bot: e.Bot})
	}
	return out
}

// DrainEvents returns the queued outbound events and clears the queue.
func (s *Session) DrainEvents() []Event {
	if len(s.events) == 0 {
		return nil
	}
	events := s.events
	s.events = nil
	return events
}

// Apply routes a command to the matching session operation.
func (s *Session) Apply(cmd Command) Result {
	now := cmd.IssuedAt
	if now.IsZero() {
		now = s.deps.Clock.Now()
	}
	switch cmd.Type {
	case CommandJoin:
		name := ""
		if cmd.Join != nil {
			name = cmd.Join.Name
		}
		if _, err := s.Join(cmd.ActorID, name, now); err != nil {
			return rejected(reasonForError(err))
		}
		return accepted()
	case CommandLeave:
		reason := "leave"
		if cmd.Leave != nil && cmd.Leave.Reason != "" {
			reason = cmd.Leave.Reason
		}
		if err := s.Disconnect(cmd.ActorID, reason, now); err != nil {
			return rejected(reasonForError(err))
		}
		return accepted()
	case CommandHost:
		if cmd.Host == nil {
			return rejected(ReasonInvalid)
		}
		if err := s.host(cmd.Host.Action, now); err != nil {
			return rejected(reasonForError(err))
		}
		return accepted()
	default:
		return s.ProcessAction(cmd)
	}
}

func (s *Session) host(action HostAction, now time.Time) error {
	switch action {
	case HostStart:
		return s.Start(now)
	case HostPause:
		return s.Pause(now)
	case HostResume:
		return s.Resume(now)
	case HostQuit:
		return s.Quit(now)
	default:
		return fmt.Errorf("host action %q: %w", action, ErrInvalidTransition)
	}
}

// Join admits a player in the lobby or reconnects a known one.
func (s *Session) Join(id, name string, now time.Time) (Entity, error) {
	if id == "" {
		return Entity{}, fmt.Errorf("join without id: %w", ErrUnknownEntity)
	}
	if existing, ok := s.byID[id]; ok {
		if existing.Bot {
			return Entity{}, s.rejectJoin(id, ErrReservedID)
		}
		if s.phase == PhaseEnded {
			return Entity{}, s.rejectJoin(id, ErrSessionEnded)
		}
		if !existing.InContest() {
			return Entity{}, s.rejectJoin(id, ErrGameInProgress)
		}
		if name != "" {
			existing.Name = name
		}
		existing.Connected = true
		existing.DisconnectedAt = time.Time{}
		s.announceJoin(existing, true)
		return existing.clone(), nil
	}
	switch {
	case s.phase == PhaseEnded:
		return Entity{}, s.rejectJoin(id, ErrSessionEnded)
	case s.phase != PhaseLobby:
		return Entity{}, s.rejectJoin(id, ErrGameInProgress)
	case len(s.entities) >= s.tuning.HumanSeats():
		return Entity{}, s.rejectJoin(id, ErrRoomFull)
	}

	if name == "" {
		name = fmt.Sprintf("Player %d", len(s.entities)+1)
	}
	e := &Entity{
		ID:        id,
		Name:      name,
		Slot:      len(s.entities),
		Status:    StatusActive,
		Connected: true,
	}
	s.rules.spawn(s, e)
	s.entities = append(s.entities, e)
	s.byID[id] = e
	s.announceJoin(e, false)

	if s.tuning.AutoStart && len(s.entities) >= s.tuning.MinEntities {
		if err := s.Start(now); err != nil {
			s.deps.Logger.Printf("[session] room=%s auto start failed: %v", s.code, err)
		}
	}
	return e.clone(), nil
}

func (s *Session) rejectJoin(id string, err error) error {
	s.emit(EventJoinRejected, id, JoinRejected{PlayerID: id, Reason: reasonForError(err)})
	return fmt.Errorf("join %s: %w", id, err)
}

func (s *Session) announceJoin(e *Entity, reconnected bool) {
	s.emit(EventJoinAccepted, e.ID, JoinAccepted{
		PlayerID:    e.ID,
		Slot:        e.Slot,
		Side:        e.Side,
		Team:        e.Team,
		Name:        e.Name,
		RoomCode:    s.code,
		Bot:         e.Bot,
		Reconnected: reconnected,
	})
	loggingLifecycle.PlayerJoined(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(e.ID), loggingLifecycle.PlayerJoinedPayload{
		Slot:        e.Slot,
		Side:        string(e.Side),
		SpawnX:      e.Spawn.X,
		SpawnY:      e.Spawn.Y,
		Reconnected: reconnected,
	}, s.fields())
}

// Disconnect marks a player as gone. Lobby players are removed outright;
// during play the entity waits out the grace period.
func (s *Session) Disconnect(id, reason string, now time.Time) error {
	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("disconnect %s: %w", id, ErrUnknownEntity)
	}
	if e.Bot {
		return fmt.Errorf("disconnect %s: %w", id, ErrReservedID)
	}
	if s.phase == PhaseEnded {
		return nil
	}
	loggingLifecycle.PlayerDisconnected(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(id), loggingLifecycle.PlayerDisconnectedPayload{Reason: reason}, s.fields())
	if s.phase == PhaseLobby {
		s.remove(e)
		return nil
	}
	if e.Connected {
		e.Connected = false
		e.DisconnectedAt = now
	}
	return nil
}

func (s *Session) remove(target *Entity) {
	delete(s.byID, target.ID)
	kept := s.entities[:0]
	for _, e := range s.entities {
		if e != target {
			kept = append(kept, e)
		}
	}
	s.entities = kept
	for i, e := range s.entities {
		if e.Slot != i {
			e.Slot = i
			s.rules.spawn(s, e)
		}
	}
}

// Start moves the lobby into the countdown.
func (s *Session) Start(now time.Time) error {
	if err := s.checkTransition(PhaseCountdown); err != nil {
		return err
	}
	if s.contestants() < s.tuning.MinEntities {
		return fmt.Errorf("start with %d players: %w", s.contestants(), ErrNotEnoughPlayers)
	}
	s.seatBots()
	s.setPhase(PhaseCountdown, "start")
	s.countdownEnds = now.Add(s.tuning.Countdown)
	s.lastStep = now
	s.emit(EventCountdown, "", CountdownStarted{EndsAt: s.countdownEnds.UnixMilli()})
	return nil
}

// Pause halts stepping. Only the host may pause.
func (s *Session) Pause(now time.Time) error {
	if err := s.checkTransition(PhasePaused); err != nil {
		return err
	}
	s.setPhase(PhasePaused, "host")
	s.pausedAt = now
	s.emit(EventGamePaused, "", PhaseNotice{Timestamp: now.UnixMilli()})
	return nil
}

// Resume restarts stepping and shifts every pending deadline by the time
// spent paused.
func (s *Session) Resume(now time.Time) error {
	if s.phase != PhasePaused {
		return fmt.Errorf("resume from %s: %w", s.phase, ErrInvalidTransition)
	}
	paused := now.Sub(s.pausedAt)
	if paused < 0 {
		paused = 0
	}
	s.timers.shift(paused)
	s.startedAt = s.startedAt.Add(paused)
	if !s.deadline.IsZero() {
		s.deadline = s.deadline.Add(paused)
	}
	for _, e := range s.entities {
		if !e.intent.At.IsZero() {
			e.intent.At = e.intent.At.Add(paused)
		}
	}
	s.lastStep = now
	s.setPhase(PhaseActive, "host")
	s.emit(EventGameResumed, "", PhaseNotice{Timestamp: now.UnixMilli()})
	return nil
}

// Quit ends the session from any live phase.
func (s *Session) Quit(now time.Time) error {
	if s.phase == PhaseEnded {
		return fmt.Errorf("quit: %w", ErrSessionEnded)
	}
	s.end(EndQuit, "")
	return nil
}

func (s *Session) checkTransition(to Phase) error {
	if s.phase == PhaseEnded {
		return fmt.Errorf("%s to %s: %w", s.phase, to, ErrSessionEnded)
	}
	if !CanTransition(s.phase, to) {
		return fmt.Errorf("%s to %s: %w", s.phase, to, ErrInvalidTransition)
	}
	return nil
}

func (s *Session) setPhase(to Phase, reason string) {
	from := s.phase
	s.phase = to
	if s.deps.Metrics != nil {
		s.deps.Metrics.Add(metricPhaseChanges, 1)
	}
	loggingLifecycle.PhaseChanged(s.ctx, s.deps.Publisher, s.tick, logging.RoomRef(s.code), loggingLifecycle.PhaseChangedPayload{
		From:   string(from),
		To:     string(to),
		Reason: reason,
	}, s.fields())
}

func (s *Session) activate(now time.Time) {
	s.setPhase(PhaseActive, "countdown")
	s.startedAt = now
	if s.tuning.MatchDuration > 0 {
		s.deadline = now.Add(s.tuning.MatchDuration)
	}
	s.rules.start(s, now)
	s.emit(EventGameStart, "", GameStarted{Timestamp: now.UnixMilli(), Players: s.Roster()})
}

// end moves to the terminal phase. Bumping the epoch invalidates any timer
// that escaped the clear.
func (s *Session) end(reason, winner string) {
	if s.phase == PhaseEnded {
		return
	}
	s.setPhase(PhaseEnded, reason)
	s.epoch++
	s.timers.clear()
	s.endReason = reason
	s.winner = winner
	for _, e := range s.entities {
		e.Velocity = geom.Vec2{}
		e.intent = moveIntent{}
	}
	left, right := s.rules.sides(s)
	s.emit(EventGameEnd, "", GameEnded{
		Reason:    reason,
		Winner:    winner,
		Scores:    s.scores(),
		Left:      left,
		Right:     right,
		Standings: rankStandings(s.entities),
	})
}

// Step advances the session to now.
func (s *Session) Step(now time.Time) {
	s.tick++
	if s.deps.Metrics != nil {
		s.deps.Metrics.Add(metricSessionTicks, 1)
	}

	var dt time.Duration
	if !s.lastStep.IsZero() {
		dt = now.Sub(s.lastStep)
	}
	if dt < 0 {
		dt = 0
	}
	if max := s.tuning.MaxStep; max > 0 && dt > max {
		dt = max
	}
	if s.lastStep.IsZero() || now.After(s.lastStep) {
		s.lastStep = now
	}

	if s.phase == PhaseCountdown && !now.Before(s.countdownEnds) {
		s.activate(now)
		dt = 0
	}

	if s.phase == PhaseActive {
		if dt > 0 {
			s.runBots(now)
			s.stepMovement(now, dt.Seconds())
			s.rules.step(s, now, float64(dt)/float64(time.Millisecond))
		}
		s.runTimers(now)
	}

	s.checkForfeits(now)
	if s.phase == PhaseActive {
		s.checkEnd(now)
	}
}

func (s *Session) runTimers(now time.Time) {
	for _, t := range s.timers.popDue(now) {
		if t.Epoch != s.epoch || s.phase != PhaseActive {
			continue
		}
		s.rules.onTimer(s, t, now)
	}
}

func (s *Session) schedule(kind timerKind, target string, at time.Time) {
	s.timers.schedule(timer{At: at, Kind: kind, Target: target, Epoch: s.epoch})
}

func (s *Session) checkForfeits(now time.Time) {
	switch s.phase {
	case PhaseCountdown, PhaseActive, PhasePaused:
	default:
		return
	}
	grace := s.tuning.DisconnectGrace
	forfeited := false
	for _, e := range s.entities {
		if e.Connected || !e.InContest() || now.Sub(e.DisconnectedAt) < grace {
			continue
		}
		e.Status = StatusForfeited
		e.Velocity = geom.Vec2{}
		e.intent = moveIntent{}
		forfeited = true
		loggingLifecycle.PlayerForfeited(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(e.ID), s.fields())
		s.emit(EventEliminated, e.ID, PlayerStatus{PlayerID: e.ID, Reason: EndForfeit})
	}
	if forfeited && s.contestants() < s.tuning.MinEntities {
		s.end(EndForfeit, s.leader())
	}
}

func (s *Session) checkEnd(now time.Time) {
	if reason, winner, ok := s.rules.checkEnd(s); ok {
		s.end(reason, winner)
		return
	}
	if !s.deadline.IsZero() && !now.Before(s.deadline) {
		s.end(EndTime, s.leader())
	}
}

// leader returns the top-ranked entity id, or empty on a tie for first.
// Team games name the leading team instead.
func (s *Session) leader() string {
	if s.tuning.Teams {
		return s.leadingTeam()
	}
	var best, second *Entity
	for _, e := range s.entities {
		switch {
		case best == nil || ranksAbove(e, best):
			second = best
			best = e
		case second == nil || ranksAbove(e, second):
			second = e
		}
	}
	if best == nil || !best.InContest() {
		return ""
	}
	if second != nil && tiedRank(best, second) {
		return ""
	}
	return best.ID
}

func (s *Session) leadingTeam() string {
	red, blue := teamTotals(s.entities)
	switch {
	case red > blue:
		return string(TeamRed)
	case blue > red:
		return string(TeamBlue)
	default:
		return ""
	}
}

// contestants counts the humans still in the game. Bots never hold a room
// open on their own.
func (s *Session) contestants() int {
	n := 0
	for _, e := range s.entities {
		if e.InContest() && !e.Bot {
			n++
		}
	}
	return n
}

func (s *Session) scores() map[string]int {
	scores := make(map[string]int, len(s.entities))
	for _, e := range s.entities {
		scores[e.ID] = e.Score
	}
	return scores
}

func (s *Session) emit(kind EventKind, target string, payload any) {
	s.events = append(s.events, Event{Kind: kind, Target: target, Payload: payload})
}

func (s *Session) haptic(target string, pattern []int) {
	if target == "" || len(pattern) == 0 {
		return
	}
	s.emit(EventHaptic, target, Haptic{PlayerID: target, Pattern: append([]int(nil), pattern...)})
}

func (s *Session) fields() map[string]any {
	return map[string]any{"room": s.code, "game": string(s.tuning.Game)}
}

// Snapshot builds the current authoritative state.
func (s *Session) Snapshot() Snapshot {
	now := s.lastStep
	snap := Snapshot{
		Room:      s.code,
		Game:      s.tuning.Game,
		Tick:      s.tick,
		Phase:     s.phase,
		Entities:  make([]EntitySnapshot, 0, len(s.entities)),
		EndReason: s.endReason,
		Winner:    s.winner,
	}
	if !now.IsZero() {
		snap.Time = now.UnixMilli()
	}
	for _, e := range s.entities {
		snap.Entities = append(snap.Entities, entitySnapshot(e))
	}
	for _, p := range s.rules.projectiles() {
		snap.Projectiles = append(snap.Projectiles, projectileSnapshot(p))
	}
	snap.Left, snap.Right = s.rules.sides(s)
	snap.Server = s.rules.server()
	if s.phase == PhaseCountdown {
		snap.CountdownMs = remainingMs(s.countdownEnds, now)
	}
	if !s.deadline.IsZero() {
		ref := now
		if s.phase == PhasePaused {
			ref = s.pausedAt
		}
		snap.RemainingMs = remainingMs(s.deadline, ref)
	}
	return snap
}

func remainingMs(deadline, now time.Time) int64 {
	left := deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left.Milliseconds()
}

package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/channel"
	"motion-arena/server/internal/rooms"
	"motion-arena/server/internal/sim"
	"motion-arena/server/internal/telemetry"
	"motion-arena/server/logging"
	loggingNetwork "motion-arena/server/logging/network"
)

// ErrUnknownRoom is returned when a room code does not match a live room.
var ErrUnknownRoom = errors.New("server: unknown room")

// HubConfig tunes every room the hub creates.
type HubConfig struct {
	TickRate        int
	BroadcastEvery  int
	CommandCapacity int
	PerActorLimit   int
	DefaultGame     sim.Game
	DisconnectGrace time.Duration
	// StartLoops runs each room's ticker. Tests leave it off and drive rooms
	// with Room.Step.
	StartLoops bool

	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Clock     logging.Clock
	Rand      *rand.Rand
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickRate:        defaultTickRate,
		BroadcastEvery:  defaultBroadcastEvery,
		CommandCapacity: defaultCommandCapacity,
		PerActorLimit:   defaultPerActorLimit,
		DefaultGame:     sim.GameBadminton,
		StartLoops:      true,
	}
}

func (cfg HubConfig) normalized() HubConfig {
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = defaultBroadcastEvery
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = defaultCommandCapacity
	}
	if cfg.PerActorLimit < 0 {
		cfg.PerActorLimit = 0
	}
	if cfg.DefaultGame == "" {
		cfg.DefaultGame = sim.GameBadminton
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Nop()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return cfg
}

// Hub owns the rooms of one process. Rooms share the channel but nothing
// else.
type Hub struct {
	bus       channel.Channel
	config    HubConfig
	telemetry *telemetryCounters
	unwatch   func()
	// inputOpen is cleared while the channel reports anything but
	// connected.
	inputOpen atomic.Bool

	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand
}

// RoomSummary is the listing view of a room.
type RoomSummary struct {
	Code    string    `json:"code"`
	Channel string    `json:"channel"`
	Game    sim.Game  `json:"game"`
	Phase   sim.Phase `json:"phase"`
	Players int       `json:"players"`
	Tick    uint64    `json:"tick"`
}

// Diagnostics is the /diagnostics payload.
type Diagnostics struct {
	ServerTime   int64             `json:"serverTime"`
	TickRate     int               `json:"tickRate"`
	ChannelState channel.State     `json:"channelState,omitempty"`
	Rooms        []RoomSummary     `json:"rooms"`
	Telemetry    telemetrySnapshot `json:"telemetry"`
}

func NewHub(bus channel.Channel, cfg HubConfig) *Hub {
	cfg = cfg.normalized()
	h := &Hub{
		bus:       bus,
		config:    cfg,
		telemetry: newTelemetryCounters(),
		rooms:     make(map[string]*Room),
		rng:       cfg.Rand,
	}
	h.inputOpen.Store(true)
	if bus, ok := bus.(interface{ State() channel.State }); ok {
		h.inputOpen.Store(bus.State() == channel.StateConnected)
	}
	if bus != nil {
		h.unwatch = bus.OnStateChange(h.handleChannelState)
	}
	return h
}

// handleChannelState stops rooms taking input while the channel is down.
// Messages that arrive during an outage describe a stale controller.
func (h *Hub) handleChannelState(state channel.State) {
	h.inputOpen.Store(state == channel.StateConnected)
	h.config.Logger.Printf("[channel] state=%s", state)
	loggingNetwork.ChannelState(context.Background(), h.config.Publisher, logging.EntityRef{Kind: logging.EntityKindHost}, loggingNetwork.ChannelStatePayload{
		State: string(state),
	}, nil)
}

func (h *Hub) acceptingInput() bool {
	return h.inputOpen.Load()
}

// Bus exposes the channel the hub publishes on.
func (h *Hub) Bus() channel.Channel {
	return h.bus
}

func (h *Hub) Config() HubConfig {
	return h.config
}

// RoomOption adjusts a room's tuning before its lobby opens.
type RoomOption func(*sim.Tuning) error

// WithBotDifficulty sets the skill of every bot the room seats.
func WithBotDifficulty(d ai.Difficulty) RoomOption {
	return func(t *sim.Tuning) error {
		if t.Bots.Count == 0 {
			return fmt.Errorf("%s has no bots: %w", t.Game, sim.ErrInvalidTuning)
		}
		t.Bots.Difficulty = d
		return nil
	}
}

// CreateRoom opens a lobby for game under a fresh code. An empty game uses
// the configured default.
func (h *Hub) CreateRoom(game sim.Game, opts ...RoomOption) (*Room, error) {
	if game == "" {
		game = h.config.DefaultGame
	}
	tuning, err := sim.TuningFor(game)
	if err != nil {
		return nil, err
	}
	if h.config.DisconnectGrace > 0 {
		tuning.DisconnectGrace = h.config.DisconnectGrace
	}
	for _, opt := range opts {
		if err := opt(&tuning); err != nil {
			return nil, err
		}
	}
	if err := tuning.Validate(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	code := ""
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := rooms.NewCode(h.rng)
		if _, taken := h.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		h.mu.Unlock()
		return nil, fmt.Errorf("allocate room code for %s: exhausted %d attempts", game, maxCodeAttempts)
	}
	room := newRoom(h, code, tuning, h.rng.Int63())
	h.rooms[code] = room
	h.mu.Unlock()

	room.attach()
	if h.config.StartLoops {
		room.Start()
	}
	h.config.Logger.Printf("[rooms] opened room=%s game=%s channel=%s", code, game, room.Channel())
	return room, nil
}

// Room looks a room up by a user supplied code.
func (h *Hub) Room(code string) (*Room, bool) {
	code = rooms.Normalize(code)
	if !rooms.ValidCode(code) {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[code]
	return room, ok
}

// Rooms lists every live room ordered by code.
func (h *Hub) Rooms() []RoomSummary {
	h.mu.Lock()
	list := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		list = append(list, room)
	}
	h.mu.Unlock()

	out := make([]RoomSummary, 0, len(list))
	for _, room := range list {
		out = append(out, room.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// CloseRoom stops the room's loop and releases its subscriptions.
func (h *Hub) CloseRoom(code string) error {
	code = rooms.Normalize(code)
	h.mu.Lock()
	room, ok := h.rooms[code]
	if ok {
		delete(h.rooms, code)
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("close %q: %w", code, ErrUnknownRoom)
	}
	room.Close()
	h.config.Logger.Printf("[rooms] closed room=%s", code)
	return nil
}

// Close shuts every room down.
func (h *Hub) Close() {
	h.mu.Lock()
	list := make([]*Room, 0, len(h.rooms))
	for code, room := range h.rooms {
		list = append(list, room)
		delete(h.rooms, code)
	}
	h.mu.Unlock()
	for _, room := range list {
		room.Close()
	}
	if h.unwatch != nil {
		h.unwatch()
	}
}

func (h *Hub) Diagnostics() Diagnostics {
	diag := Diagnostics{
		ServerTime: h.config.Clock.Now().UnixMilli(),
		TickRate:   h.config.TickRate,
		Rooms:      h.Rooms(),
		Telemetry:  h.telemetry.Snapshot(),
	}
	if bus, ok := h.bus.(interface{ State() channel.State }); ok {
		diag.ChannelState = bus.State()
	}
	return diag
}

func (h *Hub) TelemetrySnapshot() telemetrySnapshot {
	return h.telemetry.Snapshot()
}

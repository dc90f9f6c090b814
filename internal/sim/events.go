package sim

// EventKind names an outbound broadcast. The values double as channel event
// names.
type EventKind string

const (
	EventJoinAccepted  EventKind = "player-join-accepted"
	EventJoinRejected  EventKind = "player-join-rejected"
	EventCountdown     EventKind = "game-countdown"
	EventGameStart     EventKind = "game-start"
	EventGamePaused    EventKind = "game-paused"
	EventGameResumed   EventKind = "game-resumed"
	EventScoreUpdate   EventKind = "score-update"
	EventPlayerHit     EventKind = "player-hit"
	EventEliminated    EventKind = "player-eliminated"
	EventRespawned     EventKind = "player-respawned"
	EventRacerFinished EventKind = "racer-finished"
	EventHaptic        EventKind = "haptic"
	EventGameEnd       EventKind = "game-end"
)

// Event is an outbound message produced by the session. Target is the
// player the message concerns, empty for room-wide announcements.
type Event struct {
	Kind    EventKind
	Target  string
	Payload any
}

type JoinAccepted struct {
	PlayerID    string `json:"playerId"`
	Slot        int    `json:"slot"`
	Side        Side   `json:"side,omitempty"`
	Team        Team   `json:"team,omitempty"`
	Name        string `json:"name"`
	RoomCode    string `json:"roomCode"`
	Bot         bool   `json:"bot,omitempty"`
	Reconnected bool   `json:"reconnected,omitempty"`
}

type JoinRejected struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

type CountdownStarted struct {
	EndsAt int64 `json:"endsAt"`
}

type PlayerInfo struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Slot     int    `json:"slot"`
	Side     Side   `json:"side,omitempty"`
	Team     Team   `json:"team,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
}

type GameStarted struct {
	Timestamp int64        `json:"timestamp"`
	Players   []PlayerInfo `json:"players"`
}

type PhaseNotice struct {
	Timestamp int64 `json:"timestamp"`
}

type ScoreUpdate struct {
	Scores map[string]int `json:"scores"`
	Left   int            `json:"left"`
	Right  int            `json:"right"`
	Scorer string         `json:"scorer,omitempty"`
	Reason string         `json:"reason"`
}

type PlayerHit struct {
	Attacker string  `json:"attacker"`
	Target   string  `json:"target"`
	Damage   float64 `json:"damage"`
	Health   float64 `json:"health"`
}

type PlayerStatus struct {
	PlayerID string `json:"playerId"`
	By       string `json:"by,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type RacerFinished struct {
	PlayerID string `json:"playerId"`
	Place    int    `json:"place"`
	TimeMs   int64  `json:"timeMs"`
}

type Haptic struct {
	PlayerID string `json:"playerId"`
	Pattern  []int  `json:"pattern"`
}

type GameEnded struct {
	Reason    string         `json:"reason"`
	Winner    string         `json:"winner,omitempty"`
	Scores    map[string]int `json:"scores"`
	Left      int            `json:"left"`
	Right     int            `json:"right"`
	Standings []Standing     `json:"standings"`
}

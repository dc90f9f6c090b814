package sim

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseCountdown Phase = "countdown"
	PhaseActive    Phase = "active"
	PhasePaused    Phase = "paused"
	PhaseEnded     Phase = "ended"
)

var transitions = map[Phase][]Phase{
	PhaseLobby:     {PhaseCountdown, PhaseEnded},
	PhaseCountdown: {PhaseActive, PhaseEnded},
	PhaseActive:    {PhasePaused, PhaseEnded},
	PhasePaused:    {PhaseActive, PhaseEnded},
}

// CanTransition reports whether from may move to to. Ended has no exits.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reasons a session can end with.
const (
	EndScore       = "score"
	EndElimination = "elimination"
	EndFinished    = "finished"
	EndTime        = "time"
	EndForfeit     = "forfeit"
	EndQuit        = "quit"
)

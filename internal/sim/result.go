package sim

import "errors"

// Reasons reported in a rejected Result.
const (
	ReasonInvalid        = "invalid"
	ReasonDuplicate      = "duplicate"
	ReasonUnknownEntity  = "unknown_entity"
	ReasonNotActive      = "not_active"
	ReasonEntityInactive = "entity_inactive"
	ReasonUnsupported    = "unsupported"
	ReasonCooldown       = "cooldown"
	ReasonMiss           = "miss"
	ReasonNotServing     = "not_serving"
	ReasonNoAmmo         = "no_ammo"
	ReasonFull           = "full"
	ReasonRoomFull       = "room_full"
	ReasonInProgress     = "game_in_progress"
	ReasonEnded          = "ended"
	ReasonNotEnough      = "not_enough_players"
	ReasonTransition     = "invalid_transition"
	ReasonReserved       = "reserved"
)

var (
	ErrRoomFull          = errors.New("sim: room is full")
	ErrGameInProgress    = errors.New("sim: game already in progress")
	ErrSessionEnded      = errors.New("sim: session has ended")
	ErrNotEnoughPlayers  = errors.New("sim: not enough players")
	ErrInvalidTransition = errors.New("sim: invalid phase transition")
	ErrUnknownGame       = errors.New("sim: unknown game")
	ErrUnknownEntity     = errors.New("sim: unknown entity")
	ErrReservedID        = errors.New("sim: id belongs to a bot")
	ErrInvalidTuning     = errors.New("sim: invalid tuning")
)

// Result is the outcome of applying a command. A rejection is a reported
// outcome, never an error.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

func accepted() Result {
	return Result{Success: true}
}

func rejected(reason string) Result {
	return Result{Reason: reason}
}

func reasonForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRoomFull):
		return ReasonRoomFull
	case errors.Is(err, ErrGameInProgress):
		return ReasonInProgress
	case errors.Is(err, ErrSessionEnded):
		return ReasonEnded
	case errors.Is(err, ErrNotEnoughPlayers):
		return ReasonNotEnough
	case errors.Is(err, ErrUnknownEntity):
		return ReasonUnknownEntity
	case errors.Is(err, ErrReservedID):
		return ReasonReserved
	default:
		return ReasonTransition
	}
}

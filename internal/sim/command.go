package sim

import (
	"time"

	"motion-arena/server/internal/physics"
)

// CommandType identifies the payload carried by a Command.
type CommandType string

const (
	CommandJoin   CommandType = "join"
	CommandLeave  CommandType = "leave"
	CommandHost   CommandType = "host"
	CommandMove   CommandType = "move"
	CommandLook   CommandType = "look"
	CommandAction CommandType = "action"
	CommandSwing  CommandType = "swing"
)

// HostAction is a lifecycle control only the host may issue.
type HostAction string

const (
	HostStart  HostAction = "start"
	HostPause  HostAction = "pause"
	HostResume HostAction = "resume"
	HostQuit   HostAction = "quit"
)

// ActionName is a discrete controller action.
type ActionName string

const (
	ActionFire         ActionName = "fire"
	ActionReload       ActionName = "reload"
	ActionSwitchWeapon ActionName = "switchWeapon"
	ActionCrouch       ActionName = "crouch"
	ActionMedkit       ActionName = "medkit"
	ActionTap          ActionName = "tap"
)

var knownActions = map[ActionName]struct{}{
	ActionFire:         {},
	ActionReload:       {},
	ActionSwitchWeapon: {},
	ActionCrouch:       {},
	ActionMedkit:       {},
	ActionTap:          {},
}

// MoveCommand is a normalized movement stick vector.
type MoveCommand struct {
	X      float64
	Y      float64
	Active bool
}

// LookCommand updates the aim direction. Angle, when set, wins over X/Y.
type LookCommand struct {
	X      float64
	Y      float64
	Active bool
	Angle  *float64
}

// ActionCommand carries a discrete action with an optional boolean or
// string value.
type ActionCommand struct {
	Name   ActionName
	Flag   bool
	Option string
}

// SwingCommand describes a racket swing measured on the controller.
type SwingCommand struct {
	Speed  float64
	Stroke physics.Stroke
	Spin   float64
	Smash  bool
}

type JoinCommand struct {
	Name string
}

type LeaveCommand struct {
	Reason string
}

type HostCommand struct {
	Action HostAction
}

// Command is an input event staged for the simulation. IssuedAt is the
// broker timestamp and is the only time reconciliation trusts.
type Command struct {
	ID         string
	ActorID    string
	Type       CommandType
	IssuedAt   time.Time
	ClientTime int64

	Move   *MoveCommand
	Look   *LookCommand
	Action *ActionCommand
	Swing  *SwingCommand
	Join   *JoinCommand
	Leave  *LeaveCommand
	Host   *HostCommand
}

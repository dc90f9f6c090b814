// Package ai drives computer-controlled opponents. A bot reads a view of the
// arena and answers with controller commands; the session applies them
// through the same paths remote controllers use.
package ai

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrUnknownDifficulty is returned for a difficulty with no profile.
var ErrUnknownDifficulty = errors.New("ai: unknown difficulty")

// Difficulty selects a bot profile.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Profile tunes how quickly and how well a bot plays.
type Profile struct {
	Cadence        time.Duration
	Reaction       time.Duration
	ReactionJitter time.Duration
	Accuracy       float64
	SmashChance    float64
	SmashSpeed     float64
}

var profiles = map[Difficulty]Profile{
	Easy: {
		Cadence:        150 * time.Millisecond,
		Reaction:       400 * time.Millisecond,
		ReactionJitter: 200 * time.Millisecond,
		Accuracy:       0.6,
	},
	Medium: {
		Cadence:        150 * time.Millisecond,
		Reaction:       250 * time.Millisecond,
		ReactionJitter: 150 * time.Millisecond,
		Accuracy:       0.8,
		SmashChance:    0.2,
		SmashSpeed:     17,
	},
	Hard: {
		Cadence:        150 * time.Millisecond,
		Reaction:       100 * time.Millisecond,
		ReactionJitter: 100 * time.Millisecond,
		Accuracy:       0.95,
		SmashChance:    0.3,
		SmashSpeed:     19,
	},
}

// Difficulties lists the known profiles from easiest to hardest.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// ProfileFor returns the profile for d. An empty difficulty means Medium.
func ProfileFor(d Difficulty) (Profile, error) {
	if d == "" {
		d = Medium
	}
	p, ok := profiles[d]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	return p, nil
}

// Strategy is the shooter bot's current plan.
type Strategy string

const (
	StrategyAggressive Strategy = "aggressive"
	StrategyDefensive  Strategy = "defensive"
	StrategyMirror     Strategy = "mirror"
)

var strategies = []Strategy{StrategyAggressive, StrategyDefensive, StrategyMirror}

// Blackboard is a bot's memory between decisions.
type Blackboard struct {
	NextDecisionAt time.Time
	LastActionAt   time.Time
	ReactionDelay  time.Duration
	Strategy       Strategy
	StrategyUntil  time.Time
	LastShotAt     time.Time
	LastDodgeAt    time.Time
}

// CommandType identifies the controller input a bot issues.
type CommandType string

const (
	CommandMove  CommandType = "move"
	CommandLook  CommandType = "look"
	CommandSwing CommandType = "swing"
	CommandFire  CommandType = "fire"
)

type MoveCommand struct {
	X      float64
	Y      float64
	Active bool
}

type LookCommand struct {
	Angle float64
}

type SwingCommand struct {
	Speed  float64
	Stroke string
	Spin   float64
	Smash  bool
}

// Command is one controller input. Exactly the payload matching Type is set.
type Command struct {
	Type  CommandType
	Move  *MoveCommand
	Look  *LookCommand
	Swing *SwingCommand
}

// Bot is one computer-controlled entity.
type Bot struct {
	ID         string
	Profile    Profile
	Blackboard Blackboard

	rng *rand.Rand
}

// NewBot builds a bot that draws every random choice from rng.
func NewBot(id string, profile Profile, rng *rand.Rand) *Bot {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	b := &Bot{ID: id, Profile: profile, rng: rng}
	b.Blackboard.ReactionDelay = b.rollReaction()
	return b
}

// due reports whether the bot may decide at now and books the next slot.
func (b *Bot) due(now time.Time) bool {
	if now.Before(b.Blackboard.NextDecisionAt) {
		return false
	}
	b.Blackboard.NextDecisionAt = now.Add(b.Profile.Cadence)
	return true
}

func (b *Bot) rollReaction() time.Duration {
	delay := b.Profile.Reaction
	if jitter := b.Profile.ReactionJitter; jitter > 0 {
		delay += time.Duration(b.rng.Int63n(int64(jitter)))
	}
	return delay
}

func move(x, y float64) Command {
	return Command{Type: CommandMove, Move: &MoveCommand{X: x, Y: y, Active: x != 0 || y != 0}}
}

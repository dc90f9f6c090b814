package sim

import (
	"fmt"
	"math"
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/combat"
	"motion-arena/server/internal/geom"
	"motion-arena/server/internal/physics"
)

// Game names a playable variant.
type Game string

const (
	GameBadminton      Game = "badminton"
	GameBadmintonSolo  Game = "badminton-solo"
	GameGunfight       Game = "gunfight"
	GameGunfightTeams  Game = "gunfight-tdm"
	GameSpaceShooter   Game = "space-shooter"
	GameSpaceShooterAI Game = "space-shooter-bot"
	GameRacing         Game = "racing"
	GamePingPong       Game = "ping-pong"
)

// Mode selects the rule set a game runs on.
type Mode string

const (
	ModeRacket  Mode = "racket"
	ModeShooter Mode = "shooter"
	ModeRacing  Mode = "racing"
	ModePaddle  Mode = "paddle"
)

// MovementTuning controls how stick input becomes velocity.
type MovementTuning struct {
	Speed          float64
	CrouchSpeed    float64
	Curve          float64
	StaleAfter     time.Duration
	StaleDecay     float64
	StopBelow      float64
	Margin         float64
	HorizontalOnly bool
}

// RacketTuning controls swings and serves on a net court.
type RacketTuning struct {
	SwingCooldown time.Duration
	HitZoneRadius float64
	Lookahead     time.Duration
	LaunchScale   float64
	SmashSpeed    float64
	ServeDelay    time.Duration
	ServeOffset   geom.Vec2
	Spawns        []geom.Vec2
}

// ShooterTuning controls weapons, damage and respawns.
type ShooterTuning struct {
	Armory         combat.Armory
	DefaultWeapon  string
	MaxHealth      float64
	HitRadius      float64
	HitScore       int
	KillScore      int
	RespawnDelay   time.Duration
	MedkitHeal     float64
	MedkitCooldown time.Duration
	Spawns         []geom.Vec2
}

// RacingTuning controls tap acceleration. Speeds are in pixels per 1/60 s.
type RacingTuning struct {
	TapBoost    float64
	TapCooldown time.Duration
	MaxSpeed    float64
	Decay       float64
	Distance    float64
	LaneSpacing float64
}

// PaddleTuning controls the paddle duel. Speeds are in pixels per 1/60 s.
type PaddleTuning struct {
	Width      float64
	Height     float64
	BallSize   float64
	ServeSpeed float64
	ServeAngle float64
	Speedup    float64
	Spin       float64
	Follow     float64
	ServeDelay time.Duration
}

// BotTuning seats computer opponents when the game starts. Bots fill the
// seats humans leave free up to MaxEntities.
type BotTuning struct {
	Count      int
	Difficulty ai.Difficulty
	Name       string
}

// HapticTuning holds vibration patterns in milliseconds.
type HapticTuning struct {
	Hit    []int
	Smash  []int
	Miss   []int
	Damage []int
}

// Tuning is the single configuration record every variant is built from.
type Tuning struct {
	Game            Game
	Mode            Mode
	Physics         physics.Config
	MinEntities     int
	MaxEntities     int
	AutoStart       bool
	Countdown       time.Duration
	MaxStep         time.Duration
	ScoreToWin      int
	MatchDuration   time.Duration
	DisconnectGrace time.Duration
	DedupCapacity   int
	// Teams splits shooters into red and blue by slot parity.
	Teams           bool

	Movement MovementTuning
	Racket   RacketTuning
	Shooter  ShooterTuning
	Racing   RacingTuning
	Paddle   PaddleTuning
	Bots     BotTuning
	Haptics  HapticTuning
}

// HumanSeats is the number of remote players a lobby admits.
func (t Tuning) HumanSeats() int {
	return t.MaxEntities - t.Bots.Count
}

// Validate reports a preset no lobby could start.
func (t Tuning) Validate() error {
	if t.MinEntities < 1 || t.MinEntities > t.HumanSeats() {
		return fmt.Errorf("%s: %d to %d players with %d bots: %w", t.Game, t.MinEntities, t.MaxEntities, t.Bots.Count, ErrInvalidTuning)
	}
	if t.Bots.Count > 0 {
		if _, err := ai.ProfileFor(t.Bots.Difficulty); err != nil {
			return fmt.Errorf("%s: %w", t.Game, err)
		}
	}
	return nil
}

// seal derives AutoStart. A lobby only starts by itself once every human
// seat is taken; larger rooms wait for the host.
func (t Tuning) seal() Tuning {
	t.AutoStart = t.MinEntities >= t.HumanSeats()
	return t
}

// Games lists the available variants.
func Games() []Game {
	return []Game{
		GameBadminton, GameBadmintonSolo,
		GameGunfight, GameGunfightTeams,
		GameSpaceShooter, GameSpaceShooterAI,
		GameRacing, GamePingPong,
	}
}

// TuningFor returns the preset for game.
func TuningFor(game Game) (Tuning, error) {
	var t Tuning
	switch game {
	case GameBadminton:
		t = badmintonTuning()
	case GameBadmintonSolo:
		t = badmintonSoloTuning()
	case GameGunfight:
		t = gunfightTuning()
	case GameGunfightTeams:
		t = gunfightTeamsTuning()
	case GameSpaceShooter:
		t = spaceShooterTuning()
	case GameSpaceShooterAI:
		t = spaceShooterBotTuning()
	case GameRacing:
		t = racingTuning()
	case GamePingPong:
		t = pingPongTuning()
	default:
		return Tuning{}, fmt.Errorf("%w: %q", ErrUnknownGame, game)
	}
	return t.seal(), nil
}

func baseTuning() Tuning {
	return Tuning{
		MinEntities:     2,
		MaxEntities:     2,
		Countdown:       3 * time.Second,
		MaxStep:         250 * time.Millisecond,
		DisconnectGrace: 30 * time.Second,
		DedupCapacity:   512,
		Movement: MovementTuning{
			Curve:      1.2,
			StaleAfter: 300 * time.Millisecond,
			StaleDecay: 0.5,
			StopBelow:  6,
		},
		Haptics: HapticTuning{
			Hit:    []int{10},
			Smash:  []int{20, 10, 20},
			Miss:   []int{5, 5, 5},
			Damage: []int{30},
		},
	}
}

func badmintonTuning() Tuning {
	t := baseTuning()
	t.Game = GameBadminton
	t.Mode = ModeRacket
	t.Physics = physics.DefaultConfig()
	t.ScoreToWin = 11
	t.Movement.Speed = 400
	t.Movement.Margin = 40
	t.Movement.HorizontalOnly = true
	t.Racket = RacketTuning{
		SwingCooldown: 300 * time.Millisecond,
		HitZoneRadius: 100,
		Lookahead:     100 * time.Millisecond,
		LaunchScale:   60,
		SmashSpeed:    15,
		ServeDelay:    time.Second,
		ServeOffset:   geom.Vec2{X: 0, Y: -100},
		Spawns:        []geom.Vec2{{X: 200, Y: 600}, {X: 1000, Y: 600}},
	}
	return t
}

// badmintonSoloTuning pits one player against a robot on the far court.
func badmintonSoloTuning() Tuning {
	t := badmintonTuning()
	t.Game = GameBadmintonSolo
	t.MinEntities = 1
	t.Bots = BotTuning{Count: 1, Difficulty: ai.Medium, Name: "Robot"}
	return t
}

func gunfightTuning() Tuning {
	t := baseTuning()
	t.Game = GameGunfight
	t.Mode = ModeShooter
	t.Physics = physics.BulletConfig(2000, 2000)
	t.MaxEntities = 8
	t.MatchDuration = 3 * time.Minute
	t.Movement.Speed = 270
	t.Movement.CrouchSpeed = 120
	t.Movement.Margin = 20
	t.Shooter = ShooterTuning{
		Armory:         combat.GunfightArmory(),
		DefaultWeapon:  "primary",
		MaxHealth:      100,
		HitRadius:      25,
		KillScore:      100,
		RespawnDelay:   3 * time.Second,
		MedkitHeal:     50,
		MedkitCooldown: 10 * time.Second,
		Spawns: []geom.Vec2{
			{X: 200, Y: 200}, {X: 1800, Y: 1800}, {X: 1800, Y: 200}, {X: 200, Y: 1800},
			{X: 1000, Y: 200}, {X: 1000, Y: 1800}, {X: 200, Y: 1000}, {X: 1800, Y: 1000},
		},
	}
	return t
}

func gunfightTeamsTuning() Tuning {
	t := gunfightTuning()
	t.Game = GameGunfightTeams
	t.Teams = true
	return t
}

func spaceShooterTuning() Tuning {
	t := baseTuning()
	t.Game = GameSpaceShooter
	t.Mode = ModeShooter
	t.Physics = physics.BulletConfig(1200, 800)
	t.Movement.Speed = 300
	t.Movement.Margin = 30
	t.Shooter = ShooterTuning{
		Armory:        combat.BlasterArmory(),
		DefaultWeapon: "blaster",
		MaxHealth:     100,
		HitRadius:     25,
		HitScore:      10,
		Spawns:        []geom.Vec2{{X: 100, Y: 400}, {X: 1100, Y: 400}},
	}
	return t
}

func spaceShooterBotTuning() Tuning {
	t := spaceShooterTuning()
	t.Game = GameSpaceShooterAI
	t.MinEntities = 1
	t.Bots = BotTuning{Count: 1, Difficulty: ai.Medium, Name: "Bot"}
	return t
}

func racingTuning() Tuning {
	t := baseTuning()
	t.Game = GameRacing
	t.Mode = ModeRacing
	t.Physics = physics.Config{Drag: 1, Arena: physics.Arena{Width: 1500, Height: 600}}
	t.MinEntities = 1
	t.MaxEntities = 4
	t.MatchDuration = 2 * time.Minute
	t.Racing = RacingTuning{
		TapBoost:    0.5,
		TapCooldown: 50 * time.Millisecond,
		MaxSpeed:    3,
		Decay:       0.92,
		Distance:    1500,
		LaneSpacing: 120,
	}
	return t
}

func pingPongTuning() Tuning {
	t := baseTuning()
	t.Game = GamePingPong
	t.Mode = ModePaddle
	t.Physics = physics.TableConfig(800, 500, 5)
	t.ScoreToWin = 11
	t.Paddle = PaddleTuning{
		Width:      15,
		Height:     100,
		BallSize:   10,
		ServeSpeed: 5,
		ServeAngle: math.Pi / 4,
		Speedup:    1.1,
		Spin:       2,
		Follow:     0.2,
		ServeDelay: time.Second,
	}
	return t
}

package sim

import (
	"math"
	"testing"
	"time"

	"motion-arena/server/internal/geom"
)

func startShooter(t *testing.T, game Game) (*Session, time.Time) {
	t.Helper()
	s := newTestSession(t, game)
	mustJoin(t, s, "a", baseTime)
	mustJoin(t, s, "b", baseTime)
	if s.Phase() == PhaseLobby {
		if err := s.Start(baseTime); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	active := baseTime.Add(s.tuning.Countdown)
	s.Step(active)
	if s.Phase() != PhaseActive {
		t.Fatalf("expected active phase, got %s", s.Phase())
	}
	s.DrainEvents()
	return s, active
}

func action(id, actor string, at time.Time, name ActionName, option string) Command {
	return Command{
		ID:       id,
		ActorID:  actor,
		Type:     CommandAction,
		IssuedAt: at,
		Action:   &ActionCommand{Name: name, Option: option},
	}
}

func look(id, actor string, at time.Time, angle float64) Command {
	return Command{
		ID:       id,
		ActorID:  actor,
		Type:     CommandLook,
		IssuedAt: at,
		Look:     &LookCommand{Active: true, Angle: &angle},
	}
}

func TestShooterSpawnLoadout(t *testing.T) {
	s, _ := startShooter(t, GameGunfight)
	a := s.byID["a"]
	if a.Weapon != "primary" || a.Ammo != 30 || a.Reserve != 120 || a.Health != 100 {
		t.Fatalf("unexpected loadout %+v", a.clone())
	}
	if math.Abs(a.Aim-math.Pi/4) > 1e-9 {
		t.Fatalf("expected a to face the arena centre, got %v", a.Aim)
	}
}

func TestHitscanFireRespectsFireRate(t *testing.T) {
	s, now := startShooter(t, GameGunfight)
	a, b := s.byID["a"], s.byID["b"]
	a.Position = geom.Vec2{X: 200, Y: 200}
	b.Position = geom.Vec2{X: 400, Y: 210}
	s.ProcessAction(look("l1", "a", now, 0))

	if res := s.ProcessAction(action("f1", "a", now, ActionFire, "")); !res.Success {
		t.Fatalf("expected first shot accepted, got %+v", res)
	}
	if b.Health != 75 || a.Ammo != 29 {
		t.Fatalf("expected 25 damage and one round spent, got health=%v ammo=%d", b.Health, a.Ammo)
	}
	events := s.DrainEvents()
	hits := eventsOf(events, EventPlayerHit)
	if len(hits) != 1 || hits[0].Target != "b" || hits[0].Payload.(PlayerHit).Attacker != "a" {
		t.Fatalf("expected a player-hit for b, got %+v", hits)
	}
	if len(eventsOf(events, EventHaptic)) != 2 {
		t.Fatalf("expected damage and hit haptics")
	}

	if res := s.ProcessAction(action("f2", "a", now.Add(50*time.Millisecond), ActionFire, "")); res.Reason != ReasonCooldown {
		t.Fatalf("expected cooldown, got %+v", res)
	}
	if a.Ammo != 29 || b.Health != 75 {
		t.Fatalf("expected rejected shot to spend nothing, got ammo=%d health=%v", a.Ammo, b.Health)
	}
	if res := s.ProcessAction(action("f3", "a", now.Add(75*time.Millisecond), ActionFire, "")); !res.Success {
		t.Fatalf("expected shot after fire rate, got %+v", res)
	}
	if b.Health != 50 || a.Ammo != 28 {
		t.Fatalf("expected second hit, got health=%v ammo=%d", b.Health, a.Ammo)
	}
}

func TestKillRespawnsAfterDelay(t *testing.T) {
	s, now := startShooter(t, GameGunfight)
	a, b := s.byID["a"], s.byID["b"]
	a.Position = geom.Vec2{X: 200, Y: 200}
	b.Position = geom.Vec2{X: 800, Y: 200}
	s.ProcessAction(look("l1", "a", now, 0))

	if res := s.ProcessAction(action("w1", "a", now, ActionSwitchWeapon, "sniper")); !res.Success {
		t.Fatalf("expected switch to sniper, got %+v", res)
	}
	if a.Weapon != "sniper" || a.Ammo != 5 {
		t.Fatalf("expected sniper loadout, got %s ammo=%d", a.Weapon, a.Ammo)
	}
	if res := s.ProcessAction(action("w2", "a", now, ActionSwitchWeapon, "rocket")); res.Reason != ReasonInvalid {
		t.Fatalf("expected unknown weapon invalid, got %+v", res)
	}

	shotAt := now.Add(time.Second)
	if res := s.ProcessAction(action("f1", "a", shotAt, ActionFire, "")); !res.Success {
		t.Fatalf("expected sniper shot, got %+v", res)
	}
	if b.Health != 0 || b.Status != StatusRespawning || b.Deaths != 1 {
		t.Fatalf("expected b down and respawning, got %+v", b.clone())
	}
	if a.Kills != 1 || a.Score != s.tuning.Shooter.KillScore {
		t.Fatalf("expected kill credited, got kills=%d score=%d", a.Kills, a.Score)
	}
	if len(eventsOf(s.DrainEvents(), EventEliminated)) != 1 {
		t.Fatalf("expected a player-eliminated broadcast")
	}
	if res := s.ProcessAction(action("b1", "b", shotAt, ActionFire, "")); res.Reason != ReasonEntityInactive {
		t.Fatalf("expected respawning player input rejected, got %+v", res)
	}

	s.Step(shotAt.Add(2 * time.Second))
	if b.Status != StatusRespawning {
		t.Fatalf("expected respawn to wait, got %s", b.Status)
	}
	s.Step(shotAt.Add(3 * time.Second))
	if b.Status != StatusActive || b.Health != 100 || b.Position != b.Spawn {
		t.Fatalf("expected b respawned at spawn, got %+v", b.clone())
	}
	if len(eventsOf(s.DrainEvents(), EventRespawned)) != 1 {
		t.Fatalf("expected a player-respawned broadcast")
	}

	s.ProcessAction(action("w3", "a", shotAt, ActionSwitchWeapon, "primary"))
	if a.Ammo != 30 || a.Reserve != 120 {
		t.Fatalf("expected primary magazine preserved across switches, got ammo=%d reserve=%d", a.Ammo, a.Reserve)
	}
}

func TestReloadAndAmmo(t *testing.T) {
	s, now := startShooter(t, GameGunfight)
	a := s.byID["a"]
	a.Ammo = 0
	if res := s.ProcessAction(action("f1", "a", now, ActionFire, "")); res.Reason != ReasonNoAmmo {
		t.Fatalf("expected no_ammo, got %+v", res)
	}
	if _, stamped := a.cooldowns[cooldownFire]; stamped {
		t.Fatalf("expected empty trigger not to stamp the cooldown")
	}
	if res := s.ProcessAction(action("r1", "a", now, ActionReload, "")); !res.Success {
		t.Fatalf("expected reload, got %+v", res)
	}
	if a.Ammo != 30 || a.Reserve != 90 {
		t.Fatalf("expected full magazine from reserve, got ammo=%d reserve=%d", a.Ammo, a.Reserve)
	}
	if res := s.ProcessAction(action("r2", "a", now, ActionReload, "")); res.Reason != ReasonFull {
		t.Fatalf("expected full, got %+v", res)
	}
	a.Ammo, a.Reserve = 3, 0
	if res := s.ProcessAction(action("r3", "a", now, ActionReload, "")); res.Reason != ReasonNoAmmo {
		t.Fatalf("expected empty reserve, got %+v", res)
	}
}

func TestMedkitHealsOncePerCooldown(t *testing.T) {
	s, now := startShooter(t, GameGunfight)
	a := s.byID["a"]
	a.Health = 30
	if res := s.ProcessAction(action("m1", "a", now, ActionMedkit, "")); !res.Success || a.Health != 80 {
		t.Fatalf("expected +50 heal, got %+v health=%v", res, a.Health)
	}
	if res := s.ProcessAction(action("m2", "a", now.Add(time.Second), ActionMedkit, "")); res.Reason != ReasonCooldown {
		t.Fatalf("expected cooldown, got %+v", res)
	}
	if res := s.ProcessAction(action("m3", "a", now.Add(10*time.Second), ActionMedkit, "")); !res.Success || a.Health != 100 {
		t.Fatalf("expected heal clamped to max, got %+v health=%v", res, a.Health)
	}
	if res := s.ProcessAction(action("m4", "a", now.Add(25*time.Second), ActionMedkit, "")); res.Reason != ReasonFull {
		t.Fatalf("expected full health refusal, got %+v", res)
	}
}

func TestCrouchSlowsMovement(t *testing.T) {
	s, now := startShooter(t, GameGunfight)
	a := s.byID["a"]
	s.ProcessAction(Command{ID: "c1", ActorID: "a", Type: CommandAction, IssuedAt: now, Action: &ActionCommand{Name: ActionCrouch, Flag: true}})
	s.ProcessAction(move("m1", "a", now, 1, 0, true))
	s.Step(now.Add(16 * time.Millisecond))
	if math.Abs(a.Velocity.X-120) > 1e-9 {
		t.Fatalf("expected crouch speed, got %+v", a.Velocity)
	}
	s.ProcessAction(move("m2", "a", now.Add(16*time.Millisecond), 0.5, 0, true))
	s.Step(now.Add(32 * time.Millisecond))
	want := 120 * math.Pow(0.5, 1.2)
	if math.Abs(a.Velocity.X-want) > 1e-9 {
		t.Fatalf("expected response curve %v, got %v", want, a.Velocity.X)
	}
}

func TestMatchTimerHighestScoreWins(t *testing.T) {
	s, now := startShooter(t, GameGunfight)
	s.byID["b"].Score = 200
	s.Step(now.Add(s.tuning.MatchDuration - time.Second))
	if s.Phase() != PhaseActive {
		t.Fatalf("expected match to run until the timer")
	}
	s.Step(now.Add(s.tuning.MatchDuration))
	end := eventsOf(s.DrainEvents(), EventGameEnd)
	if len(end) != 1 {
		t.Fatalf("expected game-end at the timer")
	}
	if got := end[0].Payload.(GameEnded); got.Reason != EndTime || got.Winner != "b" {
		t.Fatalf("expected b to win on time, got %+v", got)
	}
}

func TestMatchTimerTieHasNoWinner(t *testing.T) {
	s, now := startShooter(t, GameGunfight)
	s.Step(now.Add(s.tuning.MatchDuration))
	end := eventsOf(s.DrainEvents(), EventGameEnd)
	if len(end) != 1 || end[0].Payload.(GameEnded).Winner != "" {
		t.Fatalf("expected a draw, got %+v", end)
	}
}

func TestBulletTravelsAndEliminates(t *testing.T) {
	s, now := startShooter(t, GameSpaceShooter)
	a, b := s.byID["a"], s.byID["b"]
	if a.Aim != 0 || math.Abs(b.Aim-math.Pi) > 1e-9 {
		t.Fatalf("expected ships to face each other, got %v and %v", a.Aim, b.Aim)
	}
	b.Health = 10
	if res := s.ProcessAction(action("f1", "a", now, ActionFire, "")); !res.Success {
		t.Fatalf("expected blaster shot, got %+v", res)
	}
	if len(s.Snapshot().Projectiles) != 1 {
		t.Fatalf("expected one live bullet")
	}
	if a.Ammo != 0 {
		t.Fatalf("expected unlimited weapon not to count ammo, got %d", a.Ammo)
	}

	for i := 1; i <= 60 && s.Phase() == PhaseActive; i++ {
		s.Step(now.Add(time.Duration(i) * 50 * time.Millisecond))
	}
	if s.Phase() != PhaseEnded {
		t.Fatalf("expected elimination to end the game")
	}
	if b.Status != StatusEliminated {
		t.Fatalf("expected b eliminated, got %s", b.Status)
	}
	if a.Score != s.tuning.Shooter.HitScore {
		t.Fatalf("expected hit score %d, got %d", s.tuning.Shooter.HitScore, a.Score)
	}
	if len(s.Snapshot().Projectiles) != 0 {
		t.Fatalf("expected bullet consumed by the hit")
	}
	end := eventsOf(s.DrainEvents(), EventGameEnd)
	if len(end) != 1 || end[0].Payload.(GameEnded).Reason != EndElimination || end[0].Payload.(GameEnded).Winner != "a" {
		t.Fatalf("expected a to win by elimination, got %+v", end)
	}
}

func TestBulletExpiresPastRange(t *testing.T) {
	s, now := startShooter(t, GameSpaceShooter)
	a := s.byID["a"]
	s.ProcessAction(look("l1", "a", now, math.Pi/2))
	s.ProcessAction(action("f1", "a", now, ActionFire, ""))
	if a.Aim != math.Pi/2 {
		t.Fatalf("expected aim from the look angle, got %v", a.Aim)
	}
	for i := 1; i <= 40; i++ {
		s.Step(now.Add(time.Duration(i) * 50 * time.Millisecond))
	}
	if n := len(s.Snapshot().Projectiles); n != 0 {
		t.Fatalf("expected bullet removed at the arena edge, got %d", n)
	}
	if s.Phase() != PhaseActive {
		t.Fatalf("expected a miss not to end the game")
	}
}

func startTeams(t *testing.T) (*Session, time.Time) {
	t.Helper()
	s := newTestSession(t, GameGunfightTeams)
	for _, id := range []string{"a", "b", "c"} {
		mustJoin(t, s, id, baseTime)
	}
	if err := s.Start(baseTime); err != nil {
		t.Fatalf("start: %v", err)
	}
	active := baseTime.Add(s.tuning.Countdown)
	s.Step(active)
	s.DrainEvents()
	return s, active
}

func TestTeamsAlternateBySlot(t *testing.T) {
	s, _ := startTeams(t)
	a, b, c := s.byID["a"], s.byID["b"], s.byID["c"]
	if a.Team != TeamRed || b.Team != TeamBlue || c.Team != TeamRed {
		t.Fatalf("expected red, blue, red, got %s %s %s", a.Team, b.Team, c.Team)
	}
	if !a.Teammate(c) || a.Teammate(b) {
		t.Fatalf("expected a and c on one side and b on the other")
	}
	if snap := s.Snapshot(); snap.Entities[1].Team != TeamBlue {
		t.Fatalf("expected the snapshot to carry teams, got %+v", snap.Entities[1])
	}
}

func TestTeamShotsPassThroughTeammates(t *testing.T) {
	s, now := startTeams(t)
	a, b, c := s.byID["a"], s.byID["b"], s.byID["c"]
	a.Position = geom.Vec2{X: 200, Y: 200}
	c.Position = geom.Vec2{X: 400, Y: 210}
	b.Position = geom.Vec2{X: 600, Y: 200}
	s.ProcessAction(look("l1", "a", now, 0))
	if res := s.ProcessAction(action("f1", "a", now, ActionFire, "")); !res.Success {
		t.Fatalf("expected shot accepted, got %+v", res)
	}
	if c.Health != c.MaxHealth {
		t.Fatalf("expected the teammate in the line of fire untouched, got %v", c.Health)
	}
	if b.Health != 75 {
		t.Fatalf("expected the opponent behind to take the hit, got %v", b.Health)
	}

	red, blue := shooter(s).sides(s)
	if red != 0 || blue != 0 {
		t.Fatalf("expected no team score from a wound, got %d-%d", red, blue)
	}
	shooter(s).damage(s, now, a, c, s.tuning.Shooter.Armory["primary"])
	if c.Health != c.MaxHealth {
		t.Fatalf("expected direct friendly damage to be ignored, got %v", c.Health)
	}
}

func TestTeamWithHigherTotalWinsOnTime(t *testing.T) {
	s, now := startTeams(t)
	s.byID["a"].Score = 100
	s.byID["c"].Score = 50
	s.byID["b"].Score = 120
	s.Step(now.Add(s.tuning.MatchDuration))
	end := eventsOf(s.DrainEvents(), EventGameEnd)
	if len(end) != 1 {
		t.Fatalf("expected game-end at the timer")
	}
	got := end[0].Payload.(GameEnded)
	if got.Winner != string(TeamRed) || got.Left != 150 || got.Right != 120 {
		t.Fatalf("expected red to win 150-120, got %+v", got)
	}
}

func TestShooterBotTakesAim(t *testing.T) {
	s := newTestSession(t, GameSpaceShooterAI)
	mustJoin(t, s, "a", baseTime)
	if s.Phase() != PhaseCountdown {
		t.Fatalf("expected the solo lobby to start by itself, got %s", s.Phase())
	}
	active := baseTime.Add(s.tuning.Countdown)
	s.Step(active)
	bot, ok := s.byID["bot-1"]
	if !ok || !bot.Bot {
		t.Fatalf("expected a bot seat, got %+v", s.Roster())
	}

	s.Step(active.Add(16 * time.Millisecond))
	if math.Abs(math.Abs(bot.Aim)-math.Pi) > 1e-9 {
		t.Fatalf("expected the bot to aim at the player, got %v", bot.Aim)
	}
	fired := false
	for _, b := range shooter(s).bullets {
		if b.proj.OwnerID == bot.ID {
			fired = true
		}
	}
	if !fired {
		t.Fatalf("expected the bot to fire down the lane")
	}
}

func shooter(s *Session) *shooterRules {
	return s.rules.(*shooterRules)
}

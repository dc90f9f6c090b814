package sim

import (
	"math"
	"time"

	"motion-arena/server/internal/ai"
	"motion-arena/server/internal/combat"
	"motion-arena/server/internal/geom"
	"motion-arena/server/internal/physics"
	"motion-arena/server/logging"
	loggingCombat "motion-arena/server/logging/combat"
)

const (
	cooldownFire   = "fire"
	cooldownMedkit = "medkit"
)

type bullet struct {
	proj   *physics.Projectile
	weapon combat.Weapon
}

// shooterRules runs free-for-all or team combat with hitscan or travelling
// bullets.
type shooterRules struct {
	armory  combat.Armory
	bullets []bullet
	nextID  uint64
}

func newShooterRules(t Tuning) *shooterRules {
	return &shooterRules{armory: t.Shooter.Armory}
}

func (r *shooterRules) spawn(s *Session, e *Entity) {
	if s.tuning.Teams {
		e.Team = TeamRed
		if e.Slot%2 == 1 {
			e.Team = TeamBlue
		}
	}
	spawns := s.tuning.Shooter.Spawns
	if len(spawns) > 0 {
		e.Spawn = spawns[e.Slot%len(spawns)]
	}
	arena := s.tuning.Physics.Arena
	centre := geom.Vec2{X: arena.Width / 2, Y: arena.Height / 2}
	e.Aim = math.Atan2(centre.Y-e.Spawn.Y, centre.X-e.Spawn.X)
	r.revive(s, e)
	e.loadout = make(map[string]magazine, len(r.armory))
	for name, w := range r.armory {
		e.loadout[name] = magazine{Ammo: w.Magazine, Reserve: w.Reserve}
	}
	e.Weapon = s.tuning.Shooter.DefaultWeapon
	r.equip(e, e.Weapon)
}

// revive restores position and health without touching the loadout.
func (r *shooterRules) revive(s *Session, e *Entity) {
	e.Position = e.Spawn
	e.Velocity = geom.Vec2{}
	e.intent = moveIntent{}
	e.MaxHealth = s.tuning.Shooter.MaxHealth
	e.Health = e.MaxHealth
	e.Crouching = false
}

func (r *shooterRules) equip(e *Entity, name string) {
	mag := e.loadout[name]
	e.Weapon = name
	e.Ammo = mag.Ammo
	e.Reserve = mag.Reserve
}

func (r *shooterRules) stow(e *Entity) {
	if e.Weapon == "" {
		return
	}
	if e.loadout == nil {
		e.loadout = make(map[string]magazine)
	}
	e.loadout[e.Weapon] = magazine{Ammo: e.Ammo, Reserve: e.Reserve}
}

func (r *shooterRules) start(s *Session, now time.Time) {
	r.bullets = nil
	for _, e := range s.entities {
		if !e.InContest() {
			continue
		}
		e.Status = StatusActive
		e.Score, e.Kills, e.Deaths = 0, 0, 0
		e.cooldowns = nil
		r.spawn(s, e)
	}
}

func (r *shooterRules) action(s *Session, e *Entity, cmd Command) Result {
	if cmd.Type != CommandAction {
		return rejected(ReasonUnsupported)
	}
	act := cmd.Action
	switch act.Name {
	case ActionFire:
		return r.fire(s, e, cmd.IssuedAt)
	case ActionReload:
		return r.reload(e)
	case ActionSwitchWeapon:
		return r.switchWeapon(e, act.Option)
	case ActionCrouch:
		e.Crouching = act.Flag
		return accepted()
	case ActionMedkit:
		return r.medkit(s, e, cmd.IssuedAt)
	default:
		return rejected(ReasonUnsupported)
	}
}

func (r *shooterRules) fire(s *Session, e *Entity, now time.Time) Result {
	w, ok := r.armory[e.Weapon]
	if !ok {
		return rejected(ReasonInvalid)
	}
	if !combat.CooldownReady(e.cooldowns, cooldownFire, w.FireRate, now) {
		return rejected(ReasonCooldown)
	}
	if !w.Unlimited() && e.Ammo <= 0 {
		return rejected(ReasonNoAmmo)
	}
	combat.MarkCooldown(&e.cooldowns, cooldownFire, now)
	if !w.Unlimited() {
		e.Ammo--
	}
	loggingCombat.ShotFired(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(e.ID), loggingCombat.ShotPayload{
		Weapon:  w.Name,
		Hitscan: w.Hitscan(),
		Ammo:    e.Ammo,
	}, s.fields())

	if w.Hitscan() {
		if hit, ok := combat.Raycast(e.Position, e.Aim, w.Range, s.tuning.Shooter.HitRadius, r.targets(s, e)); ok {
			r.damage(s, now, e, s.byID[hit.ID], w)
		}
		return accepted()
	}

	r.nextID++
	proj := physics.NewProjectile(s.tuning.Physics)
	proj.ID = r.nextID
	proj.Fire(e.Position, geom.FromAngle(e.Aim, w.BulletSpeed), e.ID)
	r.bullets = append(r.bullets, bullet{proj: proj, weapon: w})
	return accepted()
}

func (r *shooterRules) reload(e *Entity) Result {
	w, ok := r.armory[e.Weapon]
	if !ok {
		return rejected(ReasonInvalid)
	}
	if w.Unlimited() || e.Ammo >= w.Magazine {
		return rejected(ReasonFull)
	}
	ammo, reserve, moved := combat.Reload(w, e.Ammo, e.Reserve)
	if moved == 0 {
		return rejected(ReasonNoAmmo)
	}
	e.Ammo, e.Reserve = ammo, reserve
	return accepted()
}

func (r *shooterRules) switchWeapon(e *Entity, name string) Result {
	if _, ok := r.armory[name]; !ok {
		return rejected(ReasonInvalid)
	}
	if name == e.Weapon {
		return accepted()
	}
	r.stow(e)
	r.equip(e, name)
	return accepted()
}

func (r *shooterRules) medkit(s *Session, e *Entity, now time.Time) Result {
	t := s.tuning.Shooter
	if t.MedkitHeal <= 0 {
		return rejected(ReasonUnsupported)
	}
	if !combat.CooldownReady(e.cooldowns, cooldownMedkit, t.MedkitCooldown, now) {
		return rejected(ReasonCooldown)
	}
	if e.Health >= e.MaxHealth {
		return rejected(ReasonFull)
	}
	combat.MarkCooldown(&e.cooldowns, cooldownMedkit, now)
	e.Health = geom.Clamp(e.Health+t.MedkitHeal, 0, e.MaxHealth)
	return accepted()
}

// targets lists who a shot from shooter can hit. Teammates are not in
// the list, so team shots pass through them.
func (r *shooterRules) targets(s *Session, shooter *Entity) []combat.Target {
	targets := make([]combat.Target, 0, len(s.entities))
	for _, e := range s.entities {
		if e.ID == shooter.ID || !e.Alive() || shooter.Teammate(e) {
			continue
		}
		targets = append(targets, combat.Target{ID: e.ID, Position: e.Position})
	}
	return targets
}

func (r *shooterRules) damage(s *Session, now time.Time, attacker, target *Entity, w combat.Weapon) {
	if attacker == nil || target == nil || !target.Alive() || attacker.Teammate(target) {
		return
	}
	t := s.tuning.Shooter
	target.Health = combat.ApplyDamage(target.Health, w.Damage, target.MaxHealth)
	attacker.addScore(t.HitScore)
	fatal := target.Health <= 0

	loggingCombat.PlayerHit(s.ctx, s.deps.Publisher, s.tick, logging.PlayerRef(attacker.ID), logging.PlayerRef(target.ID), loggingCombat.HitPayload{
		Weapon: w.Name,
		Damage: w.Damage,
		Health: target.Health,
		Fatal:  fatal,
	}, s.fields())
	s.emit(EventPlayerHit, target.ID, PlayerHit{
		Attacker: attacker.ID,
		Target:   target.ID,
		Damage:   w.Damage,
		Health:   target.Health,
	})
	s.haptic(target.ID, s.tuning.Haptics.Damage)
	s.haptic(attacker.ID, s.tuning.Haptics.Hit)
	if !fatal {
		return
	}

	target.Deaths++
	attacker.Kills++
	attacker.addScore(t.KillScore)
	target.Velocity = geom.Vec2{}
	target.intent = moveIntent{}
	if t.RespawnDelay > 0 {
		target.Status = StatusRespawning
		s.schedule(timerRespawn, target.ID, now.Add(t.RespawnDelay))
	} else {
		target.Status = StatusEliminated
	}
	s.emit(EventEliminated, target.ID, PlayerStatus{PlayerID: target.ID, By: attacker.ID})
	red, blue := r.sides(s)
	s.emit(EventScoreUpdate, "", ScoreUpdate{Scores: s.scores(), Left: red, Right: blue, Scorer: attacker.ID, Reason: "kill"})
}

func (r *shooterRules) step(s *Session, now time.Time, deltaMs float64) {
	kept := r.bullets[:0]
	for _, b := range r.bullets {
		prev := b.proj.Position
		outcome := b.proj.Update(deltaMs)
		if hit, ok := combat.SweepHit(prev, b.proj.Position, s.tuning.Shooter.HitRadius, r.targets(s, r.owner(s, b))); ok {
			r.damage(s, now, s.byID[b.proj.OwnerID], s.byID[hit.ID], b.weapon)
			continue
		}
		if outcome.Terminal() || (b.weapon.Range > 0 && b.proj.Travelled() > b.weapon.Range) {
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(r.bullets); i++ {
		r.bullets[i] = bullet{}
	}
	r.bullets = kept
}

// owner resolves a bullet's shooter, falling back to a bare entity when
// the shooter has left.
func (r *shooterRules) owner(s *Session, b bullet) *Entity {
	if e, ok := s.byID[b.proj.OwnerID]; ok {
		return e
	}
	return &Entity{ID: b.proj.OwnerID}
}

func (r *shooterRules) onTimer(s *Session, t timer, now time.Time) {
	if t.Kind != timerRespawn {
		return
	}
	e, ok := s.byID[t.Target]
	if !ok || e.Status != StatusRespawning {
		return
	}
	e.Status = StatusActive
	r.revive(s, e)
	for name, w := range r.armory {
		e.loadout[name] = magazine{Ammo: w.Magazine, Reserve: w.Reserve}
	}
	r.equip(e, e.Weapon)
	s.emit(EventRespawned, e.ID, PlayerStatus{PlayerID: e.ID})
}

func (r *shooterRules) checkEnd(s *Session) (string, string, bool) {
	if target := s.tuning.ScoreToWin; target > 0 && s.tuning.Teams {
		if red, blue := teamTotals(s.entities); red >= target || blue >= target {
			return EndScore, s.leadingTeam(), true
		}
	} else if target > 0 {
		for _, e := range s.entities {
			if e.Score >= target {
				return EndScore, e.ID, true
			}
		}
	}
	if s.tuning.Shooter.RespawnDelay > 0 || len(s.entities) < 2 {
		return "", "", false
	}
	var survivor *Entity
	alive := 0
	for _, e := range s.entities {
		if e.Alive() {
			alive++
			survivor = e
		}
	}
	switch alive {
	case 0:
		return EndElimination, "", true
	case 1:
		return EndElimination, survivor.ID, true
	default:
		return "", "", false
	}
}

func (r *shooterRules) clamp(s *Session, e *Entity) {
	arena := s.tuning.Physics.Arena
	margin := s.tuning.Movement.Margin
	e.Position.X = geom.Clamp(e.Position.X, margin, arena.Width-margin)
	e.Position.Y = geom.Clamp(e.Position.Y, margin, arena.Height-margin)
}

func (r *shooterRules) projectiles() []*physics.Projectile {
	out := make([]*physics.Projectile, 0, len(r.bullets))
	for _, b := range r.bullets {
		out = append(out, b.proj)
	}
	return out
}

// sides reports the red and blue totals in team games.
func (r *shooterRules) sides(s *Session) (int, int) {
	if !s.tuning.Teams {
		return 0, 0
	}
	return teamTotals(s.entities)
}

func teamTotals(entities []*Entity) (red, blue int) {
	for _, e := range entities {
		switch e.Team {
		case TeamRed:
			red += e.Score
		case TeamBlue:
			blue += e.Score
		}
	}
	return red, blue
}

// drive aims a bot at the nearest living opponent and shows it the shots
// heading its way.
func (r *shooterRules) drive(s *Session, e *Entity, bot *ai.Bot, now time.Time) []ai.Command {
	view := ai.ShooterView{
		Self:   e.Position,
		Height: s.tuning.Physics.Arena.Height,
	}
	best := math.Inf(1)
	for _, o := range s.entities {
		if o == e || !o.Alive() || e.Teammate(o) {
			continue
		}
		if d := geom.Distance(e.Position, o.Position); d < best {
			best = d
			view.Opponent = o.Position
			view.HasTarget = true
		}
	}
	for _, b := range r.bullets {
		if b.proj.OwnerID == e.ID {
			continue
		}
		if owner, ok := s.byID[b.proj.OwnerID]; ok && e.Teammate(owner) {
			continue
		}
		view.Incoming = append(view.Incoming, ai.Shot{Position: b.proj.Position, Velocity: b.proj.Velocity})
	}
	if w, ok := r.armory[e.Weapon]; ok {
		view.CanFire = w.Unlimited() || e.Ammo > 0
	}
	return bot.Shooter(view, now)
}

func (r *shooterRules) server() string {
	return ""
}

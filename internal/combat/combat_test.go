package combat

import (
	"math"
	"testing"
	"time"

	"motion-arena/server/internal/geom"
)

func TestReadyCooldown(t *testing.T) {
	var cooldowns map[string]time.Time
	base := time.Unix(100, 0)
	if !ReadyCooldown(&cooldowns, "fire", 200*time.Millisecond, base) {
		t.Fatalf("expected first trigger to be ready")
	}
	if cooldowns == nil {
		t.Fatalf("expected registry to be allocated")
	}
	if ReadyCooldown(&cooldowns, "fire", 200*time.Millisecond, base.Add(150*time.Millisecond)) {
		t.Fatalf("expected trigger inside cooldown to be refused")
	}
	if ReadyCooldown(&cooldowns, "fire", 200*time.Millisecond, base.Add(-time.Second)) {
		t.Fatalf("expected out-of-order timestamp to be refused")
	}
	if !ReadyCooldown(&cooldowns, "fire", 200*time.Millisecond, base.Add(200*time.Millisecond)) {
		t.Fatalf("expected trigger at the cooldown boundary to pass")
	}
	if !ReadyCooldown(&cooldowns, "reload", 200*time.Millisecond, base) {
		t.Fatalf("expected independent categories to have separate cooldowns")
	}
	if ReadyCooldown(nil, "fire", 0, base) {
		t.Fatalf("expected nil registry pointer to refuse")
	}
}

func TestCooldownReadyDoesNotRecord(t *testing.T) {
	cooldowns := map[string]time.Time{}
	now := time.Unix(5, 0)
	if !CooldownReady(cooldowns, "swing", time.Second, now) {
		t.Fatalf("expected empty registry to be ready")
	}
	if len(cooldowns) != 0 {
		t.Fatalf("expected readiness check not to record a trigger")
	}
	MarkCooldown(&cooldowns, "swing", now)
	if CooldownReady(cooldowns, "swing", time.Second, now.Add(999*time.Millisecond)) {
		t.Fatalf("expected marked cooldown to gate the next trigger")
	}
}

func TestRaycastPicksClosestTarget(t *testing.T) {
	origin := geom.Vec2{X: 0, Y: 0}
	targets := []Target{
		{ID: "far", Position: geom.Vec2{X: 400, Y: 5}},
		{ID: "near", Position: geom.Vec2{X: 100, Y: -10}},
		{ID: "wide", Position: geom.Vec2{X: 50, Y: 80}},
	}
	hit, ok := Raycast(origin, 0, 500, 25, targets)
	if !ok || hit.ID != "near" {
		t.Fatalf("expected near target hit, got %+v ok=%v", hit, ok)
	}
	if _, ok := Raycast(origin, math.Pi, 500, 25, targets); ok {
		t.Fatalf("expected ray pointing away to miss")
	}
	if _, ok := Raycast(origin, 0, 50, 25, targets[:1]); ok {
		t.Fatalf("expected ray shorter than the distance to miss")
	}
}

func TestSweepHit(t *testing.T) {
	targets := []Target{{ID: "ship", Position: geom.Vec2{X: 50, Y: 10}}}
	if _, ok := SweepHit(geom.Vec2{X: 0, Y: 0}, geom.Vec2{X: 100, Y: 0}, 25, targets); !ok {
		t.Fatalf("expected a fast bullet to hit a target it passed through")
	}
	if _, ok := SweepHit(geom.Vec2{X: 0, Y: 100}, geom.Vec2{X: 100, Y: 100}, 25, targets); ok {
		t.Fatalf("expected distant path to miss")
	}
}

func TestInHitZone(t *testing.T) {
	if !InHitZone(geom.Vec2{X: 100, Y: 0}, geom.Vec2{}, 100) {
		t.Fatalf("expected point on the radius to be inside")
	}
	if InHitZone(geom.Vec2{X: 100.5, Y: 0}, geom.Vec2{}, 100) {
		t.Fatalf("expected point past the radius to be outside")
	}
}

func TestApplyDamageClamps(t *testing.T) {
	if got := ApplyDamage(20, 35, 100); got != 0 {
		t.Fatalf("expected health to clamp at zero, got %v", got)
	}
	if got := ApplyDamage(90, -50, 100); got != 90 {
		t.Fatalf("expected negative damage to be ignored, got %v", got)
	}
}

func TestReload(t *testing.T) {
	w := GunfightArmory()["primary"]
	ammo, reserve, moved := Reload(w, 10, 15)
	if ammo != 25 || reserve != 0 || moved != 15 {
		t.Fatalf("expected partial reload to drain reserve, got ammo=%d reserve=%d moved=%d", ammo, reserve, moved)
	}
	ammo, reserve, moved = Reload(w, 30, 50)
	if ammo != 30 || reserve != 50 || moved != 0 {
		t.Fatalf("expected full magazine to stay unchanged, got ammo=%d reserve=%d moved=%d", ammo, reserve, moved)
	}
	blaster := BlasterArmory()["blaster"]
	if !blaster.Unlimited() || blaster.Hitscan() {
		t.Fatalf("expected blaster to be an unlimited projectile weapon")
	}
}

package combat

import "time"

// CooldownReady reports whether the action may trigger at now without
// recording anything. Timestamps earlier than the last trigger are refused so
// reordered deliveries cannot slip under the gate.
func CooldownReady(cooldowns map[string]time.Time, action string, cooldown time.Duration, now time.Time) bool {
	if cooldown <= 0 {
		return true
	}
	last, ok := cooldowns[action]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}

// ReadyCooldown lazily allocates the registry map, refuses to trigger when the
// action is still on cooldown, and records the trigger timestamp when ready.
func ReadyCooldown(cooldowns *map[string]time.Time, action string, cooldown time.Duration, now time.Time) bool {
	if cooldowns == nil {
		return false
	}
	if *cooldowns == nil {
		*cooldowns = make(map[string]time.Time)
	}
	if !CooldownReady(*cooldowns, action, cooldown, now) {
		return false
	}
	(*cooldowns)[action] = now
	return true
}

// MarkCooldown stamps the action as triggered at now.
func MarkCooldown(cooldowns *map[string]time.Time, action string, now time.Time) {
	if cooldowns == nil {
		return
	}
	if *cooldowns == nil {
		*cooldowns = make(map[string]time.Time)
	}
	(*cooldowns)[action] = now
}

package combat

import (
	"sort"
	"time"
)

// Weapon describes one firearm. A zero Magazine means unlimited ammunition
// and a zero BulletSpeed resolves shots as instant rays.
type Weapon struct {
	Name        string        `json:"name"`
	Damage      float64       `json:"damage"`
	FireRate    time.Duration `json:"fireRate"`
	Range       float64       `json:"range"`
	Magazine    int           `json:"magazine"`
	Reserve     int           `json:"reserve"`
	BulletSpeed float64       `json:"bulletSpeed,omitempty"`
}

func (w Weapon) Hitscan() bool {
	return w.BulletSpeed <= 0
}

func (w Weapon) Unlimited() bool {
	return w.Magazine <= 0
}

// Armory is the set of weapons available in a game.
type Armory map[string]Weapon

// Names returns weapon names in stable order.
func (a Armory) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GunfightArmory returns the hitscan loadout of the arena shooter.
func GunfightArmory() Armory {
	return Armory{
		"primary":   {Name: "primary", Damage: 25, FireRate: 75 * time.Millisecond, Range: 500, Magazine: 30, Reserve: 120},
		"secondary": {Name: "secondary", Damage: 35, FireRate: 150 * time.Millisecond, Range: 300, Magazine: 12, Reserve: 48},
		"sniper":    {Name: "sniper", Damage: 100, FireRate: 600 * time.Millisecond, Range: 1000, Magazine: 5, Reserve: 20},
	}
}

// BlasterArmory returns the single projectile weapon of the space shooter.
func BlasterArmory() Armory {
	return Armory{
		"blaster": {Name: "blaster", Damage: 10, FireRate: 200 * time.Millisecond, Range: 1200, BulletSpeed: 600},
	}
}

// Reload moves rounds from reserve into the magazine and returns the number
// moved. It never takes more than the reserve holds.
func Reload(w Weapon, ammo, reserve int) (newAmmo, newReserve, moved int) {
	if w.Unlimited() {
		return ammo, reserve, 0
	}
	need := w.Magazine - ammo
	if need <= 0 || reserve <= 0 {
		return ammo, reserve, 0
	}
	if need > reserve {
		need = reserve
	}
	return ammo + need, reserve - need, need
}

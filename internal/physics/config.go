package physics

// Arena describes the playing field in pixels. Y grows downward so the
// ground sits at Height and Top is the ceiling.
type Arena struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Top          float64 `json:"top"`
	NetX         float64 `json:"netX"`
	NetHalfWidth float64 `json:"netHalfWidth"`
	NetHeight    float64 `json:"netHeight"`
	// Walls turns Top and Height into reflecting walls. Only leaving past
	// the left or right edge ends the flight.
	Walls bool `json:"walls,omitempty"`
}

// HasNet reports whether the arena carries a net obstacle.
func (a Arena) HasNet() bool {
	return a.NetHeight > 0 && a.NetHalfWidth > 0
}

// Config carries the tuning constants for a projectile.
type Config struct {
	Gravity       float64 `json:"gravity"`
	Drag          float64 `json:"drag"`
	SpinThreshold float64 `json:"spinThreshold"`
	SpinCurve     float64 `json:"spinCurve"`
	SpinLaunch    float64 `json:"spinLaunch"`
	RotationRate  float64 `json:"rotationRate"`
	TrailLength   int     `json:"trailLength"`
	Arena         Arena   `json:"arena"`
}

// DefaultConfig returns the badminton court tuning.
func DefaultConfig() Config {
	return Config{
		Gravity:       980,
		Drag:          0.98,
		SpinThreshold: 10,
		SpinCurve:     0.05,
		SpinLaunch:    0.1,
		RotationRate:  0.5,
		TrailLength:   10,
		Arena: Arena{
			Width:        1200,
			Height:       800,
			Top:          -800,
			NetX:         600,
			NetHalfWidth: 20,
			NetHeight:    150,
		},
	}
}

// BulletConfig returns a drag-free, gravity-free configuration for the
// provided top-down arena.
func BulletConfig(width, height float64) Config {
	return Config{
		Drag:  1,
		Arena: Arena{Width: width, Height: height},
	}
}

// TableConfig returns a drag-free, gravity-free configuration for a ball of
// radius bouncing between the top and bottom of a width by height table.
func TableConfig(width, height, radius float64) Config {
	return Config{
		Drag: 1,
		Arena: Arena{
			Width:  width,
			Height: height - radius,
			Top:    radius,
			Walls:  true,
		},
	}
}

func (c Config) normalized() Config {
	if c.Drag <= 0 || c.Drag > 1 {
		c.Drag = 1
	}
	if c.TrailLength < 0 {
		c.TrailLength = 0
	}
	return c
}

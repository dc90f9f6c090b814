package geom

import "math"

func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func Lerp(a, b, t float64) float64 {
	return a + float64((b-a)*t)
}

// LowPass blends a new sample into the previous filtered value. Alpha is the
// weight of the previous value, so 0 passes samples through unchanged.
func LowPass(sample, previous, alpha float64) float64 {
	alpha = Clamp(alpha, 0, 1)
	return float64(previous*alpha) + float64(sample*(1-alpha))
}

// MapRange linearly maps value from [inMin, inMax] onto [outMin, outMax].
// A degenerate input range maps everything to outMin.
func MapRange(value, inMin, inMax, outMin, outMax float64) float64 {
	span := inMax - inMin
	if span == 0 {
		return outMin
	}
	return outMin + float64((value-inMin)*(outMax-outMin))/span
}

// NormalizeAngle wraps radians into (-Pi, Pi].
func NormalizeAngle(angle float64) float64 {
	wrapped := math.Mod(angle, 2*math.Pi)
	if wrapped <= -math.Pi {
		wrapped += 2 * math.Pi
	} else if wrapped > math.Pi {
		wrapped -= 2 * math.Pi
	}
	return wrapped
}

// DecayPerFrame scales value by factor once per 1/60 s across dt seconds.
func DecayPerFrame(value, factor, dt float64) float64 {
	if dt <= 0 {
		return value
	}
	return value * math.Pow(factor, dt*60)
}

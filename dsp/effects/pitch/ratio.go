package pitch

import "math"

const (
	// MinRatio and MaxRatio bound the correction ratio to one octave.
	MinRatio = 0.5
	MaxRatio = 2.0
	// DeadZone is the distance from unity within which no correction is
	// applied.
	DeadZone = 0.02
	// MinSmoothing keeps the glide moving even at zero speed.
	MinSmoothing = 0.001
)

// TargetRatio returns target/detected clamped to [MinRatio, MaxRatio],
// snapped to exactly 1 inside the dead zone. Undefined inputs yield 1.
func TargetRatio(target, detected float64) float64 {
	r := target / detected
	if math.IsNaN(r) {
		return 1
	}

	r = math.Max(MinRatio, math.Min(r, MaxRatio))
	if math.Abs(1-r) <= DeadZone {
		return 1
	}

	return r
}

// Smoothing returns the per-sample glide coefficient for a correction
// speed: max(MinSmoothing, speed*0.1), capped at 1.
func Smoothing(speed float64) float64 {
	if math.IsNaN(speed) {
		speed = 0
	}
	return math.Min(1, math.Max(MinSmoothing, speed*0.1))
}

package core

import "math"

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// EqualPowerGains returns the dry and wet gains of a constant-power
// crossfade at mix in [0, 1]: cos(mix*pi/2) and sin(mix*pi/2).
func EqualPowerGains(mix float64) (dry, wet float64) {
	mix = Clamp(mix, 0, 1)
	return math.Cos(mix * math.Pi / 2), math.Sin(mix * math.Pi / 2)
}

// SecondsToSamples converts a duration to a whole sample count, rounding to
// the nearest frame. Negative or non-finite durations map to zero.
func SecondsToSamples(seconds, sampleRate float64) int {
	if !Finite(seconds) || seconds <= 0 || sampleRate <= 0 {
		return 0
	}

	return int(math.Round(seconds * sampleRate))
}

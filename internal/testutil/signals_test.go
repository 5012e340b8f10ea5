package testutil

import (
	"math"
	"testing"
)

func TestDeterministicNoiseRepeatable(t *testing.T) {
	t.Parallel()

	a := DeterministicNoise(42, 1, 64)
	b := DeterministicNoise(42, 1, 64)
	RequireSliceNearlyEqual(t, a, b, 0)
}

func TestImpulseOutOfRange(t *testing.T) {
	t.Parallel()

	if got := Impulse(4, 9); got[0] != 0 || got[3] != 0 {
		t.Fatalf("unexpected impulse %v", got)
	}
}

func TestRMSOfSine(t *testing.T) {
	t.Parallel()

	x := DeterministicSine(100, 48000, 1, 48000)
	if got := RMS(x); math.Abs(got-1/math.Sqrt2) > 1e-6 {
		t.Fatalf("RMS=%v, want %v", got, 1/math.Sqrt2)
	}
}

func TestStereoCopies(t *testing.T) {
	t.Parallel()

	mono := []float64{1, 2}
	st := Stereo(mono)
	st[0][0] = 9
	if mono[0] != 1 || st[1][0] != 1 {
		t.Fatal("Stereo must copy each channel")
	}
}

func TestMaxDiffFindsWorstSample(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float64
		diff float64
		at   int
	}{
		{"equal", []float64{1, 2}, []float64{1, 2}, 0, 0},
		{"worst wins", []float64{0, 0.1, 0.5, 0.2}, []float64{0, 0, 0, 0}, 0.5, 2},
		{"nan is worst", []float64{0, math.NaN(), 9}, []float64{0, 0, 0}, math.NaN(), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d, at := maxDiff(tc.a, tc.b)
			if at != tc.at || (d != tc.diff && !(math.IsNaN(d) && math.IsNaN(tc.diff))) {
				t.Fatalf("maxDiff=(%v, %d), want (%v, %d)", d, at, tc.diff, tc.at)
			}
		})
	}
}

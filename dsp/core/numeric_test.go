package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		v, lo, hi, out float64
	}{
		{"inside", 0.5, 0, 1, 0.5},
		{"below", -2, 0, 1, 0},
		{"above", 3, 0, 1, 1},
		{"swapped bounds", 3, 1, 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Clamp(tc.v, tc.lo, tc.hi); got != tc.out {
				t.Fatalf("Clamp(%v,%v,%v)=%v, want %v", tc.v, tc.lo, tc.hi, got, tc.out)
			}
		})
	}
}

func TestEqualPowerGains(t *testing.T) {
	t.Parallel()

	for _, mix := range []float64{0, 0.1, 0.25, 0.5, 0.9, 1} {
		dry, wet := EqualPowerGains(mix)
		if power := dry*dry + wet*wet; math.Abs(power-1) > 1e-12 {
			t.Fatalf("mix %v: dry^2+wet^2=%v, want 1", mix, power)
		}
	}

	dry, wet := EqualPowerGains(0)
	if dry != 1 || wet != 0 {
		t.Fatalf("mix 0: got dry=%v wet=%v", dry, wet)
	}
}

func TestDBConversions(t *testing.T) {
	t.Parallel()

	if got := DBToLinear(6); math.Abs(got-1.9952623149688795) > 1e-12 {
		t.Fatalf("DBToLinear(6)=%v", got)
	}

	if got := LinearToDB(0); !math.IsInf(got, -1) {
		t.Fatalf("LinearToDB(0)=%v, want -Inf", got)
	}

	if got := LinearToDB(-1); !math.IsNaN(got) {
		t.Fatalf("LinearToDB(-1)=%v, want NaN", got)
	}
}

func TestSecondsToSamples(t *testing.T) {
	t.Parallel()

	if got := SecondsToSamples(1.5, 44100); got != 66150 {
		t.Fatalf("SecondsToSamples(1.5)=%d", got)
	}

	if got := SecondsToSamples(-1, 44100); got != 0 {
		t.Fatalf("negative duration gave %d", got)
	}

	if got := SecondsToSamples(math.NaN(), 44100); got != 0 {
		t.Fatalf("NaN duration gave %d", got)
	}
}

func TestApplyProcessorOptions(t *testing.T) {
	t.Parallel()

	cfg := ApplyProcessorOptions(WithSampleRate(48000), WithBlockSize(-1), WithChannels(1), nil)
	if cfg.SampleRate != 48000 || cfg.BlockSize != 128 || cfg.Channels != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

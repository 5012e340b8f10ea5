package loudness

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/internal/testutil"
)

func TestMeterSine(t *testing.T) {
	t.Parallel()

	const sr = 48000.0
	sig := testutil.DeterministicSine(1000, sr, 1, int(sr*4))

	// Amplitude 1 has mean square 0.5 (-3.01 dB); K-weighting adds about
	// 0.67 dB at 1 kHz.
	tests := []struct {
		name     string
		channels [][]float64
		want     float64
	}{
		{"mono", [][]float64{sig}, -3.031},
		{"stereo", [][]float64{sig, sig}, -0.021},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewMeter(WithSampleRate(sr), WithChannels(len(tt.channels)))
			m.Process(tt.channels)

			for name, got := range map[string]float64{
				"momentary":  m.Momentary(),
				"short-term": m.ShortTerm(),
				"integrated": m.Integrated(),
			} {
				if math.Abs(got-tt.want) > 0.2 {
					t.Errorf("%s = %.3f LUFS, want %.3f", name, got, tt.want)
				}
			}
		})
	}
}

func TestMeterBlocksMatchWhole(t *testing.T) {
	t.Parallel()

	const sr = 44100.0
	sig := testutil.DeterministicSine(440, sr, 0.3, int(sr*2))

	whole := Integrated([][]float64{sig}, sr)

	m := NewMeter(WithSampleRate(sr), WithChannels(1))
	for start := 0; start < len(sig); start += 128 {
		end := min(start+128, len(sig))
		m.Process([][]float64{sig[start:end]})
	}

	if got := m.Integrated(); got != whole {
		t.Errorf("block-wise = %v, whole = %v", got, whole)
	}
}

func TestMeterSilence(t *testing.T) {
	t.Parallel()

	m := NewMeter(WithChannels(1))
	m.Process([][]float64{make([]float64, 48000)})

	if got := m.Momentary(); got != Floor {
		t.Errorf("Momentary = %v, want %v", got, Floor)
	}
	if got := m.Integrated(); !math.IsInf(got, -1) {
		t.Errorf("Integrated = %v, want -Inf", got)
	}
}

func TestMeterGating(t *testing.T) {
	t.Parallel()

	const sr = 48000.0
	m := NewMeter(WithSampleRate(sr), WithChannels(1))

	m.Process([][]float64{testutil.DeterministicSine(1000, sr, 1, int(sr*10))})
	loud := m.Integrated()

	// -80 dB falls below the absolute gate.
	m.Process([][]float64{testutil.DeterministicSine(1000, sr, 0.0001, int(sr*10))})
	total := m.Integrated()

	if math.Abs(loud-total) > 0.1 {
		t.Errorf("gated loudness moved: %v -> %v", loud, total)
	}
}

func TestMeterReset(t *testing.T) {
	t.Parallel()

	m := NewMeter(WithChannels(2))
	m.Process([][]float64{testutil.DeterministicSine(1000, 44100, 1, 44100)})
	m.Reset()

	if got := m.Integrated(); !math.IsInf(got, -1) {
		t.Errorf("Integrated after Reset = %v", got)
	}
	if got := m.Momentary(); got != Floor {
		t.Errorf("Momentary after Reset = %v", got)
	}
}

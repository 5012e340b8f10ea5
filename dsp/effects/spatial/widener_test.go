package spatial

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/internal/testutil"
)

func TestWidenerWidths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		width float64
		l, r  float64
	}{
		{"unity", 1, 1, 0.5},
		{"mono", 0, 0.75, 0.75},
		{"double", 2, 1.25, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, err := NewStereoWidener(48000)
			if err != nil {
				t.Fatal(err)
			}
			w.Configure(WidenerParams{Width: tt.width})

			block := [][]float64{{1}, {0.5}}
			w.Process(block)
			if math.Abs(block[0][0]-tt.l) > 1e-12 || math.Abs(block[1][0]-tt.r) > 1e-12 {
				t.Errorf("got L=%v R=%v, want L=%v R=%v", block[0][0], block[1][0], tt.l, tt.r)
			}
		})
	}
}

func TestWidenerMonoInputUnchanged(t *testing.T) {
	t.Parallel()

	w, _ := NewStereoWidener(44100)
	w.Configure(WidenerParams{Width: 3, BassMonoHz: 120})

	in := testutil.DeterministicNoise(9, 0.5, 1024)
	block := testutil.Stereo(in)
	w.Process(block)

	testutil.RequireSliceNearlyEqual(t, block[0], in, 1e-15)
	testutil.RequireSliceNearlyEqual(t, block[1], in, 1e-15)
}

func TestWidenerBassMonoCentresLowSide(t *testing.T) {
	t.Parallel()

	const sr = 44100.0
	w, _ := NewStereoWidener(sr)
	w.Configure(WidenerParams{Width: 1, BassMonoHz: 200})

	// A 30 Hz tone in opposite polarity is pure side content.
	low := testutil.DeterministicSine(30, sr, 1, int(sr))
	neg := make([]float64, len(low))
	for i, v := range low {
		neg[i] = -v
	}
	block := [][]float64{low, neg}
	w.Process(block)

	if rms := testutil.RMS(block[0][len(low)/2:]); rms > 0.05 {
		t.Errorf("low side RMS = %v, want mostly removed", rms)
	}
}

func TestWidenerClampsAndIgnoresMono(t *testing.T) {
	t.Parallel()

	w, _ := NewStereoWidener(44100)
	w.Configure(WidenerParams{Width: 10, BassMonoHz: 5})
	if p := w.Params(); p.Width != MaxWidth || p.BassMonoHz != minBassMonoHz {
		t.Errorf("Params = %+v", p)
	}

	mono := [][]float64{{0.3, 0.4}}
	w.Process(mono)
	testutil.RequireSliceNearlyEqual(t, mono[0], []float64{0.3, 0.4}, 0)

	if _, err := NewStereoWidener(math.Inf(1)); err == nil {
		t.Error("expected error for infinite sample rate")
	}
}

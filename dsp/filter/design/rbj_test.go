package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/dsp/filter/biquad"
)

const sr = 48000

func TestRBJMagnitudes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		coeffs biquad.Coefficients
		freq   float64
		wantDB float64
		tol    float64
	}{
		{"peak center", Peak(1000, 6, 1, sr), 1000, 6, 1e-9},
		{"peak zero gain", Peak(1000, 0, 1, sr), 3000, 0, 1e-9},
		{"bandpass center", Bandpass(2000, 2, sr), 2000, 0, 1e-9},
		{"lowpass passband", Lowpass(5000, defaultQ, sr), 20, 0, 1e-3},
		{"highpass passband", Highpass(100, defaultQ, sr), 20000, 0, 1e-2},
		{"lowshelf dc", LowShelf(200, -9, defaultQ, sr), 1, -9, 1e-3},
		{"highshelf top", HighShelf(2000, 4, defaultQ, sr), 23000, 4, 5e-2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := tc.coeffs.MagnitudeDB(tc.freq, sr)
			if math.Abs(got-tc.wantDB) > tc.tol {
				t.Fatalf("|H(%v)|=%v dB, want %v", tc.freq, got, tc.wantDB)
			}
		})
	}
}

func TestNotchRejectsCenter(t *testing.T) {
	t.Parallel()

	c := Notch(1000, 4, sr)
	if got := c.MagnitudeDB(1000, sr); got > -60 {
		t.Fatalf("notch center=%v dB, want deep rejection", got)
	}
}

func TestInvalidFrequencyIsIdentity(t *testing.T) {
	t.Parallel()

	for _, c := range []biquad.Coefficients{
		Lowpass(0, 1, sr),
		Peak(-5, 3, 1, sr),
		Bandpass(1000, 1, 0),
	} {
		if c != biquad.Identity {
			t.Fatalf("got %+v, want identity", c)
		}
	}
}

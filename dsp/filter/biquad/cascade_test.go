package biquad

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/internal/testutil"
)

func TestSectionIdentityPassesSignal(t *testing.T) {
	t.Parallel()

	in := testutil.DeterministicNoise(1, 0.5, 256)
	buf := append([]float64(nil), in...)

	s := Section{Coefficients: Identity}
	s.ProcessBlock(buf)
	testutil.RequireSliceNearlyEqual(t, buf, in, 0)
}

func TestSectionBlockMatchesSample(t *testing.T) {
	t.Parallel()

	c := Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.3, A2: 0.1}
	in := testutil.DeterministicNoise(7, 1, 128)

	a := Section{Coefficients: c}
	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = a.ProcessSample(x)
	}

	b := Section{Coefficients: c}
	got := append([]float64(nil), in...)
	b.ProcessBlock(got)

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-15)
}

func TestCascadeChannelsAreIndependent(t *testing.T) {
	t.Parallel()

	c := Coefficients{B0: 0.3, B1: 0.3, A1: -0.4}
	left := testutil.DeterministicNoise(3, 1, 64)
	block := [][]float64{append([]float64(nil), left...), make([]float64, 64)}

	NewCascade(2, c, c).Process(block)

	want := append([]float64(nil), left...)
	mono := NewCascade(1, c, c)
	mono.ProcessChannel(0, want)

	testutil.RequireSliceNearlyEqual(t, block[0], want, 1e-15)
	testutil.RequireSliceNearlyEqual(t, block[1], make([]float64, 64), 0)
}

func TestCascadeSetCoefficients(t *testing.T) {
	t.Parallel()

	c := Coefficients{B0: 0.5, B1: 0.5, A1: -0.2}
	in := testutil.Ones(32)

	t.Run("same stage count keeps state", func(t *testing.T) {
		t.Parallel()

		whole := NewCascade(1, c, c)
		want := append([]float64(nil), in...)
		whole.ProcessChannel(0, want)

		split := NewCascade(1, c, c)
		got := append([]float64(nil), in...)
		split.ProcessChannel(0, got[:16])
		if !split.SetCoefficients([]Coefficients{c, c}) {
			t.Fatal("SetCoefficients reported a reset for an unchanged stage count")
		}
		split.ProcessChannel(0, got[16:])

		testutil.RequireSliceNearlyEqual(t, got, want, 1e-15)
	})

	t.Run("new stage count restarts from silence", func(t *testing.T) {
		t.Parallel()

		cs := NewCascade(1, c, c)
		cs.ProcessChannel(0, append([]float64(nil), in...))
		if cs.SetCoefficients([]Coefficients{c}) {
			t.Fatal("SetCoefficients kept state across a stage count change")
		}
		if cs.Stages() != 1 {
			t.Fatalf("Stages=%d, want 1", cs.Stages())
		}

		fresh := Section{Coefficients: c}
		if got, want := cs.ProcessSample(0, 1), fresh.ProcessSample(1); got != want {
			t.Fatalf("first sample=%v, want %v", got, want)
		}
	})
}

func TestCascadeMagnitudeDB(t *testing.T) {
	t.Parallel()

	if got := NewCascade(2, Identity).MagnitudeDB(1000, 48000); math.Abs(got) > 1e-12 {
		t.Fatalf("identity magnitude=%v dB", got)
	}

	half := Coefficients{B0: 0.5}
	if got := NewCascade(1, half, half).MagnitudeDB(1000, 48000); math.Abs(got-40*math.Log10(0.5)) > 1e-9 {
		t.Fatalf("two half-gain stages=%v dB", got)
	}
}

package window

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/internal/testutil"
)

func TestGenerateEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ        Type
		edge, peak float64
	}{
		{TypeRectangular, 1, 1},
		{TypeHann, 0, 1},
		{TypeHamming, 0.08, 1},
		{TypeBlackman, 0, 1},
		{TypeBlackmanHarris, 0.00006, 1},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			t.Parallel()

			w := Generate(tt.typ, 65)
			if math.Abs(w[0]-tt.edge) > 1e-9 || math.Abs(w[64]-tt.edge) > 1e-9 {
				t.Errorf("edges = %v, %v, want %v", w[0], w[64], tt.edge)
			}
			if math.Abs(w[32]-tt.peak) > 1e-9 {
				t.Errorf("centre = %v, want %v", w[32], tt.peak)
			}
			for i := range 32 {
				if math.Abs(w[i]-w[64-i]) > 1e-12 {
					t.Fatalf("asymmetric at %d: %v vs %v", i, w[i], w[64-i])
				}
			}
		})
	}
}

func TestPeriodicHann(t *testing.T) {
	t.Parallel()

	const n = 16
	got := Generate(TypeHann, n, WithPeriodic())
	want := make([]float64, n)
	for i := range want {
		want[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/n)
	}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)

	if cg := CoherentGain(got); math.Abs(cg-0.5) > 1e-12 {
		t.Errorf("CoherentGain = %v, want 0.5", cg)
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for typ, name := range names {
		got, err := ParseType(" " + name + " ")
		if err != nil || got != typ {
			t.Errorf("ParseType(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseType("kaiser"); err == nil {
		t.Error("expected error for unsupported window")
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	buf := []float64{1, 2, 3, 4}
	if err := Apply(buf, []float64{0, 0.5, 1, 2}); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, buf, []float64{0, 1, 3, 8}, 0)

	if err := Apply(buf, []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}
	if Generate(TypeHann, 0) != nil {
		t.Error("Generate(0) should be nil")
	}
}

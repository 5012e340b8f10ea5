package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t when got and want differ in length or
// when any sample is more than eps apart. The failure names the worst
// sample, not the first.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	if d, i := maxDiff(got, want); !(d <= eps) {
		t.Fatalf("sample %d: got %v, want %v (|diff| %v > %v)", i, got[i], want[i], d, eps)
	}
}

// RequireBlockNearlyEqual applies RequireSliceNearlyEqual to every channel
// of two planar blocks.
func RequireBlockNearlyEqual(t testing.TB, got, want [][]float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("channel mismatch: got %d, want %d", len(got), len(want))
	}
	for c := range got {
		if len(got[c]) != len(want[c]) {
			t.Fatalf("channel %d: length mismatch: got %d, want %d", c, len(got[c]), len(want[c]))
		}
		if d, i := maxDiff(got[c], want[c]); !(d <= eps) {
			t.Fatalf("channel %d sample %d: got %v, want %v (|diff| %v > %v)", c, i, got[c][i], want[c][i], d, eps)
		}
	}
}

// RequireFinite fails t when any sample is NaN or infinite.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is not finite: %v", i, v)
		}
	}
}

// maxDiff returns the largest absolute difference over the common length
// and where it occurs. NaN counts as the largest.
func maxDiff(a, b []float64) (float64, int) {
	worst, at := 0.0, 0
	for i := range min(len(a), len(b)) {
		d := math.Abs(a[i] - b[i])
		if math.IsNaN(d) {
			return d, i
		}
		if d > worst {
			worst, at = d, i
		}
	}
	return worst, at
}

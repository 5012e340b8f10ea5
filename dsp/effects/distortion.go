package effects

import (
	"math"
	"sync/atomic"
)

// DefaultCurveLength is the number of points in a generated drive curve.
const DefaultCurveLength = 44100

// DriveCurve samples the drive transfer function
//
//	y = (3+k)*x*(20*pi/180) / (pi + k*|x|)
//
// at n evenly spaced inputs spanning [-1, 1]. k == 0 yields the exact
// identity y = x.
func DriveCurve(k float64, n int) []float64 {
	if n < 2 {
		n = 2
	}

	curve := make([]float64, n)
	deg := 20 * math.Pi / 180
	for i := range curve {
		x := float64(i)*2/float64(n-1) - 1
		if k == 0 {
			curve[i] = x
			continue
		}
		curve[i] = (3 + k) * x * deg / (math.Pi + k*math.Abs(x))
	}

	return curve
}

// WaveShaper maps each sample through a transfer curve using linear
// interpolation between curve points. Inputs outside [-1, 1] are clamped
// to the curve ends.
//
// The curve is published through an atomic pointer. SetAmount may run on
// a control goroutine while Process runs on the audio goroutine.
type WaveShaper struct {
	curve  atomic.Pointer[[]float64]
	amount atomic.Uint64
	points int
}

// NewWaveShaper returns a shaper with the identity curve.
func NewWaveShaper(points int) *WaveShaper {
	if points < 2 {
		points = DefaultCurveLength
	}

	w := &WaveShaper{points: points}
	c := DriveCurve(0, points)
	w.curve.Store(&c)

	return w
}

// SetAmount regenerates the curve when the drive changes.
func (w *WaveShaper) SetAmount(k float64) {
	if math.IsNaN(k) || k < 0 {
		k = 0
	}

	if math.Float64frombits(w.amount.Load()) == k && w.curve.Load() != nil {
		return
	}

	c := DriveCurve(k, w.points)
	w.curve.Store(&c)
	w.amount.Store(math.Float64bits(k))
}

// Amount returns the current drive.
func (w *WaveShaper) Amount() float64 {
	return math.Float64frombits(w.amount.Load())
}

// Curve returns the active transfer curve. Callers must not modify it.
func (w *WaveShaper) Curve() []float64 {
	return *w.curve.Load()
}

// ProcessInPlace shapes buf.
func (w *WaveShaper) ProcessInPlace(buf []float64) {
	curve := *w.curve.Load()
	last := len(curve) - 1
	scale := float64(last) / 2

	for i, x := range buf {
		v := (x + 1) * scale
		switch {
		case v <= 0:
			buf[i] = curve[0]
		case v >= float64(last):
			buf[i] = curve[last]
		default:
			j := int(v)
			frac := v - float64(j)
			buf[i] = curve[j] + (curve[j+1]-curve[j])*frac
		}
	}
}

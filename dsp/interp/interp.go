package interp

// Linear2 interpolates between x0 and x1 at t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// At reads buf at a fractional position with Hermite4. Neighbours past
// either end are extrapolated linearly, so ramps stay exact at the edges.
// Integer positions return the stored sample unchanged. ok is false when
// pos lies outside buf.
func At(buf []float64, pos float64) (v float64, ok bool) {
	if pos < 0 {
		return 0, false
	}
	i := int(pos)
	if i >= len(buf) {
		return 0, false
	}

	t := pos - float64(i)
	x0 := buf[i]
	if t == 0 || i+1 >= len(buf) {
		return x0, true
	}

	x1 := buf[i+1]
	xm1 := 2*x0 - x1
	if i > 0 {
		xm1 = buf[i-1]
	}
	x2 := 2*x1 - x0
	if i+2 < len(buf) {
		x2 = buf[i+2]
	}

	return Hermite4(t, xm1, x0, x1, x2), true
}

// Package design computes biquad coefficients from musical filter
// parameters using the RBJ audio-EQ cookbook formulas.
package design

import (
	"math"

	"github.com/cwbudde/algo-daw/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// Lowpass designs a second-order lowpass at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity
	}

	cw, alpha := trig(w0, q)

	return normalize(
		(1-cw)/2, 1-cw, (1-cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Highpass designs a second-order highpass at freq (Hz).
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity
	}

	cw, alpha := trig(w0, q)

	return normalize(
		(1+cw)/2, -(1 + cw), (1+cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Bandpass designs a constant 0 dB peak-gain bandpass.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity
	}

	cw, alpha := trig(w0, q)

	return normalize(
		alpha, 0, -alpha,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Notch designs a notch centered at freq (Hz).
func Notch(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity
	}

	cw, alpha := trig(w0, q)

	return normalize(
		1, -2*cw, 1,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Peak designs a peaking EQ with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity
	}

	cw, alpha := trig(w0, q)
	a := math.Pow(10, gainDB/40)

	return normalize(
		1+alpha*a, -2*cw, 1-alpha*a,
		1+alpha/a, -2*cw, 1-alpha/a,
	)
}

// LowShelf designs a low shelf with gain in dB and shelf slope given as q.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity
	}

	cw, alpha := trig(w0, q)
	a := math.Pow(10, gainDB/40)
	k := 2 * math.Sqrt(a) * alpha

	return normalize(
		a*((a+1)-(a-1)*cw+k), 2*a*((a-1)-(a+1)*cw), a*((a+1)-(a-1)*cw-k),
		(a+1)+(a-1)*cw+k, -2*((a-1)+(a+1)*cw), (a+1)+(a-1)*cw-k,
	)
}

// HighShelf designs a high shelf with gain in dB.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity
	}

	cw, alpha := trig(w0, q)
	a := math.Pow(10, gainDB/40)
	k := 2 * math.Sqrt(a) * alpha

	return normalize(
		a*((a+1)+(a-1)*cw+k), -2*a*((a-1)+(a+1)*cw), a*((a+1)+(a-1)*cw-k),
		(a+1)-(a-1)*cw+k, 2*((a-1)-(a+1)*cw), (a+1)-(a-1)*cw-k,
	)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || freq <= 0 || math.IsNaN(freq) {
		return 0, false
	}

	// keep the design stable right below Nyquist
	freq = math.Min(freq, 0.499*sampleRate)

	return 2 * math.Pi * freq / sampleRate, true
}

func trig(w0, q float64) (cw, alpha float64) {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		q = defaultQ
	}
	return math.Cos(w0), math.Sin(w0) / (2 * q)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Identity
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

package mix

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// NewBlock allocates a planar block.
func NewBlock(channels, frames int) [][]float64 {
	block := make([][]float64, channels)
	for c := range block {
		block[c] = make([]float64, frames)
	}
	return block
}

// Clear zeroes every channel.
func Clear(block [][]float64) {
	for _, ch := range block {
		clear(ch)
	}
}

// Truncate returns block with every channel resliced to n frames. The
// returned headers reuse scratch when it has room.
func Truncate(scratch, block [][]float64, n int) [][]float64 {
	scratch = scratch[:0]
	for _, ch := range block {
		scratch = append(scratch, ch[:n])
	}
	return scratch
}

// Accumulate adds src into dst channel by channel.
func Accumulate(dst, src [][]float64) {
	for c := range min(len(dst), len(src)) {
		vecmath.AddBlockInPlace(dst[c], src[c])
	}
}

// Gain scales every channel in place.
func Gain(block [][]float64, g float64) {
	if g == 1 {
		return
	}
	for _, ch := range block {
		vecmath.ScaleBlockInPlace(ch, g)
	}
}

// Pan applies an equal-power stereo pan to a stereo block in place, with
// the stereo-input law of a browser StereoPannerNode: pan 0 is transparent,
// negative values fold the right channel into the left, positive values
// fold the left into the right. Non-stereo blocks are left untouched.
func Pan(block [][]float64, pan float64) {
	if len(block) != 2 || pan == 0 || math.IsNaN(pan) {
		return
	}

	pan = math.Max(-1, math.Min(pan, 1))
	l, r := block[0], block[1]

	if pan < 0 {
		x := (pan + 1) * math.Pi / 2
		gl, gr := math.Cos(x), math.Sin(x)
		for i := range l {
			l[i] += r[i] * gl
			r[i] *= gr
		}
		return
	}

	x := pan * math.Pi / 2
	gl, gr := math.Cos(x), math.Sin(x)
	for i := range l {
		r[i] += l[i] * gr
		l[i] *= gl
	}
}

// PeakAbs returns the absolute peak across channels.
func PeakAbs(block [][]float64) float64 {
	peak := 0.0
	for _, ch := range block {
		peak = math.Max(peak, vecmath.MaxAbs(ch))
	}
	return peak
}

package mix

import (
	"math"

	"github.com/cwbudde/algo-daw/dsp/interp"
)

// Voice plays one clip instance into a stereo block. Mono sources are
// copied to both channels; sources with more than two channels contribute
// their first two. When the source rate differs from the output rate the
// source is read with cubic Hermite interpolation.
type Voice struct {
	ClipID string

	channels [][]float64
	step     float64
	pos      float64

	start     int64
	remaining int64
}

// NewVoice positions a clip for playback. start is the output frame at
// which the voice becomes audible, offset and duration are in seconds:
// offset is where reading starts in the source, duration bounds the
// audible span.
func NewVoice(clipID string, channels [][]float64, sourceRate, outputRate float64, start int64, offset, duration float64) *Voice {
	if sourceRate <= 0 {
		sourceRate = outputRate
	}

	return &Voice{
		ClipID:    clipID,
		channels:  channels,
		step:      sourceRate / outputRate,
		pos:       math.Max(0, offset) * sourceRate,
		start:     start,
		remaining: int64(math.Round(math.Max(0, duration) * outputRate)),
	}
}

// Start returns the output frame at which the voice begins.
func (v *Voice) Start() int64 { return v.start }

// Done reports whether the voice has nothing left to play.
func (v *Voice) Done() bool {
	return v.remaining <= 0 || len(v.channels) == 0 || int(v.pos) >= len(v.channels[0])
}

// MixInto adds the voice's contribution to dst, which covers output frames
// [blockStart, blockStart+len(dst[0])). It reports whether the voice has
// finished.
func (v *Voice) MixInto(dst [][]float64, blockStart int64) bool {
	if v.Done() {
		return true
	}
	if len(dst) == 0 {
		return false
	}

	n := int64(len(dst[0]))
	first := max(v.start-blockStart, 0)
	if first >= n {
		return false
	}

	left := v.channels[0]
	right := left
	if len(v.channels) > 1 {
		right = v.channels[1]
	}

	for i := first; i < n && v.remaining > 0; i++ {
		l, ok := interp.At(left, v.pos)
		if !ok {
			v.remaining = 0
			break
		}
		r, _ := interp.At(right, v.pos)

		dst[0][i] += l
		if len(dst) > 1 {
			dst[1][i] += r
		}

		v.pos += v.step
		v.remaining--
	}

	return v.Done()
}

package project

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-daw/dsp/effectchain"
	"github.com/cwbudde/algo-daw/dsp/transport"
)

// ErrInvalidBuffer reports a sample buffer that cannot be played.
var ErrInvalidBuffer = errors.New("project: invalid sample buffer")

// NewID returns a fresh random id for tracks and clips.
func NewID() string { return uuid.NewString() }

// SampleBuffer is decoded audio in planar layout.
type SampleBuffer struct {
	SampleRate float64
	Channels   [][]float64
}

// Frames returns the length of the first channel.
func (b *SampleBuffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *SampleBuffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / b.SampleRate
}

// Validate checks the rate and that all channels have equal length.
func (b *SampleBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil", ErrInvalidBuffer)
	}
	if b.SampleRate <= 0 || math.IsNaN(b.SampleRate) || math.IsInf(b.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidBuffer, b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidBuffer)
	}
	for c, ch := range b.Channels {
		if len(ch) != len(b.Channels[0]) {
			return fmt.Errorf("%w: channel %d has %d frames, want %d", ErrInvalidBuffer, c, len(ch), len(b.Channels[0]))
		}
	}
	return nil
}

// Clip plays a region of a buffer on the timeline. Start and Duration are
// timeline seconds; SourceOffset is the position in Buffer playback
// begins at.
type Clip struct {
	ID           string
	Buffer       *SampleBuffer
	Start        float64
	Duration     float64
	SourceOffset float64
}

// Region returns the clip's timeline placement.
func (c Clip) Region() transport.ClipRegion {
	return transport.ClipRegion{
		ID:           c.ID,
		Start:        c.Start,
		Duration:     c.Duration,
		SourceOffset: c.SourceOffset,
	}
}

// Track is one mixer channel. Overlapping clips are summed.
type Track struct {
	ID      string
	Name    string
	Gain    float64 // linear
	Pan     float64 // [-1, 1]
	Mute    bool
	Solo    bool
	EQ      effectchain.ThreeBandEQ
	Effects []effectchain.Descriptor
	Clips   []Clip
}

// NewTrack returns an empty track at unity gain with a fresh id.
func NewTrack(name string) Track {
	return Track{ID: NewID(), Name: name, Gain: 1}
}

// Audible reports whether the track is heard given whether any track in
// the mix is soloed.
func (t *Track) Audible(anySolo bool) bool {
	if t.Mute {
		return false
	}
	return !anySolo || t.Solo
}

// Regions returns the timeline placement of every clip.
func (t *Track) Regions() []transport.ClipRegion {
	out := make([]transport.ClipRegion, len(t.Clips))
	for i, c := range t.Clips {
		out[i] = c.Region()
	}
	return out
}

// End returns the timeline time the last clip stops.
func (t *Track) End() float64 {
	var end float64
	for _, c := range t.Clips {
		end = math.Max(end, c.Start+c.Duration)
	}
	return end
}

// AnySolo reports whether any track is soloed.
func AnySolo(tracks []Track) bool {
	for i := range tracks {
		if tracks[i].Solo {
			return true
		}
	}
	return false
}

// Length returns the timeline time the last clip of any track stops.
func Length(tracks []Track) float64 {
	var end float64
	for i := range tracks {
		end = math.Max(end, tracks[i].End())
	}
	return end
}

package transport

import (
	"math"
	"sync/atomic"
)

// Clock reports the audio clock in seconds. It must be monotonic.
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() float64

// Now calls f.
func (f ClockFunc) Now() float64 { return f() }

// FrameClock derives time from the number of frames rendered. The audio
// goroutine advances it; any goroutine may read it.
type FrameClock struct {
	sampleRate float64
	frames     atomic.Int64
}

// NewFrameClock returns a clock at zero. Non-positive rates fall back to
// 44100 Hz.
func NewFrameClock(sampleRate float64) *FrameClock {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		sampleRate = 44100
	}
	return &FrameClock{sampleRate: sampleRate}
}

// Advance moves the clock forward by n frames.
func (c *FrameClock) Advance(n int) {
	if n > 0 {
		c.frames.Add(int64(n))
	}
}

// Frames returns the frames rendered so far.
func (c *FrameClock) Frames() int64 { return c.frames.Load() }

// Now returns Frames in seconds.
func (c *FrameClock) Now() float64 {
	return float64(c.frames.Load()) / c.sampleRate
}

// SampleRate returns the clock rate.
func (c *FrameClock) SampleRate() float64 { return c.sampleRate }

package effectchain

import (
	"log/slog"

	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
)

// Node is one processing stage. Process transforms a planar block in place
// on the audio goroutine; it must not block or allocate.
type Node interface {
	Process(block [][]float64)
}

// NodeFunc adapts a function to Node.
type NodeFunc func(block [][]float64)

// Process calls f.
func (f NodeFunc) Process(block [][]float64) { f(block) }

// Context describes the processing environment effects are built for.
type Context struct {
	SampleRate float64
	// BlockSize is the largest block Process will see.
	BlockSize int
	Channels  int
	// Offline marks a non-real-time render. Pitch correction is omitted
	// offline.
	Offline bool
	// Tuner receives pitch detections from pitch correction effects.
	Tuner  *pitch.TunerState
	Logger *slog.Logger
}

func (c Context) normalized() Context {
	def := core.DefaultProcessorConfig()
	if c.SampleRate <= 0 || !core.Finite(c.SampleRate) {
		c.SampleRate = def.SampleRate
	}
	if c.BlockSize <= 0 {
		c.BlockSize = def.BlockSize
	}
	if c.Channels <= 0 {
		c.Channels = def.Channels
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// applyGain scales every channel by g. Unity leaves the block untouched.
func applyGain(block [][]float64, g float64) {
	if g == 1 {
		return
	}
	for _, ch := range block {
		for i := range ch {
			ch[i] *= g
		}
	}
}

// finiteGain maps non-finite gains to silence.
func finiteGain(g float64) float64 {
	if !core.Finite(g) {
		return 0
	}
	return g
}

package pitch

import (
	"math"
	"sync/atomic"
)

// TunerState publishes the latest detection result from the audio
// goroutine. Every field is an independent atomic scalar, so a reader may
// see fields from adjacent blocks but never a torn value.
type TunerState struct {
	detected   atomic.Uint64
	target     atomic.Uint64
	detectedNo atomic.Int32
	targetNo   atomic.Int32
	silent     atomic.Bool
}

// TunerReading is a display snapshot of a TunerState.
type TunerReading struct {
	DetectedHz   float64
	TargetHz     float64
	DetectedNote string
	TargetNote   string
	Silent       bool
}

// NewTunerState returns a state that reads as silent.
func NewTunerState() *TunerState {
	s := &TunerState{}
	s.silent.Store(true)
	return s
}

// Reading loads a snapshot for display.
func (s *TunerState) Reading() TunerReading {
	if s.silent.Load() {
		return TunerReading{Silent: true}
	}

	return TunerReading{
		DetectedHz:   math.Float64frombits(s.detected.Load()),
		TargetHz:     math.Float64frombits(s.target.Load()),
		DetectedNote: NoteName(int(s.detectedNo.Load())),
		TargetNote:   NoteName(int(s.targetNo.Load())),
	}
}

func (s *TunerState) publish(detectedHz, targetHz float64, detectedNote, targetNote int) {
	s.detected.Store(math.Float64bits(detectedHz))
	s.target.Store(math.Float64bits(targetHz))
	s.detectedNo.Store(int32(detectedNote))
	s.targetNo.Store(int32(targetNote))
	s.silent.Store(false)
}

func (s *TunerState) publishSilence() {
	s.silent.Store(true)
}

package effectchain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-daw/dsp/effects/dynamics"
	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
)

// ErrInvalidSettings reports settings whose type does not fit the effect.
var ErrInvalidSettings = errors.New("effectchain: invalid settings")

// Descriptor names one active effect and its settings. Legacy kinds take
// their typed settings (value or pointer, nil for defaults); plugins take
// Params or a flat map.
type Descriptor struct {
	ID       string `json:"id"`
	Settings any    `json:"settings,omitempty"`
}

// UnmarshalJSON decodes settings into the typed value for legacy ids and
// into a flat map for everything else.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("effectchain: decode descriptor: %w", err)
	}

	d.ID = raw.ID
	d.Settings = nil

	var target any
	switch legacyKinds[raw.ID] {
	case KindEQ:
		target = &EQSettings{}
	case KindCompressor:
		s := DefaultCompressorSettings()
		target = &s
	case KindReverb:
		s := DefaultReverbSettings()
		target = &s
	case KindDelay:
		s := DefaultDelaySettings()
		target = &s
	case KindDistortion:
		target = &DistortionSettings{}
	case KindPitch:
		s := DefaultPitchSettings()
		target = &s
	default:
		target = &map[string]any{}
	}

	if len(raw.Settings) > 0 && string(raw.Settings) != "null" {
		if err := json.Unmarshal(raw.Settings, target); err != nil {
			return fmt.Errorf("effectchain: decode %q settings: %w", raw.ID, err)
		}
	}

	switch t := target.(type) {
	case *EQSettings:
		d.Settings = *t
	case *CompressorSettings:
		d.Settings = *t
	case *ReverbSettings:
		d.Settings = *t
	case *DelaySettings:
		d.Settings = *t
	case *DistortionSettings:
		d.Settings = *t
	case *PitchSettings:
		d.Settings = *t
	case *map[string]any:
		if len(*t) > 0 {
			d.Settings = *t
		}
	}

	return nil
}

// FilterType selects a parametric EQ band shape.
type FilterType string

// EQ band shapes.
const (
	FilterPeaking   FilterType = "peaking"
	FilterLowShelf  FilterType = "lowshelf"
	FilterHighShelf FilterType = "highshelf"
	FilterLowCut    FilterType = "lowcut"
	FilterHighCut   FilterType = "highcut"
	FilterNotch     FilterType = "notch"
)

// EQBand is one parametric EQ band.
type EQBand struct {
	Type      FilterType `json:"type"`
	Frequency float64    `json:"frequency"`
	Gain      float64    `json:"gain"`
	Q         float64    `json:"q"`
}

// EQSettings configures the parametric EQ. In audition mode the whole EQ
// collapses to a band-pass at the selected band's frequency and Q.
type EQSettings struct {
	Bands        []EQBand `json:"bands"`
	Audition     bool     `json:"audition,omitempty"`
	AuditionBand int      `json:"auditionBand,omitempty"`
}

func (s EQSettings) clone() EQSettings {
	s.Bands = append([]EQBand(nil), s.Bands...)
	return s
}

// stages is the node count these settings materialize.
func (s EQSettings) stages() int {
	if s.Audition {
		return min(1, len(s.Bands))
	}
	return len(s.Bands)
}

// CompressorSettings configures the compressor and its makeup gain.
type CompressorSettings struct {
	Threshold float64 `json:"threshold"` // dB
	Ratio     float64 `json:"ratio"`
	Attack    float64 `json:"attack"`  // seconds
	Release   float64 `json:"release"` // seconds
	Knee      float64 `json:"knee"`    // dB
	Makeup    float64 `json:"makeup"`  // dB
}

// DefaultCompressorSettings returns the compressor defaults.
func DefaultCompressorSettings() CompressorSettings {
	p := dynamics.DefaultCompressorParams()
	return CompressorSettings{
		Threshold: p.ThresholdDB,
		Ratio:     p.Ratio,
		Attack:    p.Attack,
		Release:   p.Release,
		Knee:      p.KneeDB,
	}
}

func (s CompressorSettings) params() dynamics.CompressorParams {
	return dynamics.CompressorParams{
		ThresholdDB: s.Threshold,
		Ratio:       s.Ratio,
		KneeDB:      s.Knee,
		Attack:      s.Attack,
		Release:     s.Release,
	}
}

// ReverbSettings configures the convolution reverb.
type ReverbSettings struct {
	Decay    float64 `json:"decay"`    // seconds
	Size     float64 `json:"size"`     // [0, 1]
	PreDelay float64 `json:"preDelay"` // seconds
	Tone     float64 `json:"tone"`     // low-pass cutoff, Hz
	Mix      float64 `json:"mix"`      // [0, 1]
}

// DefaultReverbSettings returns a medium room.
func DefaultReverbSettings() ReverbSettings {
	return ReverbSettings{Decay: 2, Size: 0.5, PreDelay: 0.01, Tone: 8000, Mix: 0.3}
}

// DelaySettings configures the feedback delay.
type DelaySettings struct {
	Time     float64 `json:"time"` // seconds
	Feedback float64 `json:"feedback"`
	Mix      float64 `json:"mix"` // wet gain
}

// DefaultDelaySettings returns a quarter-second echo.
func DefaultDelaySettings() DelaySettings {
	return DelaySettings{Time: 0.25, Feedback: 0.35, Mix: 0.3}
}

// DistortionSettings configures the waveshaper drive.
type DistortionSettings struct {
	Amount float64 `json:"amount"`
}

// PitchSettings configures pitch correction.
type PitchSettings struct {
	Scale   string  `json:"scale"`
	Speed   float64 `json:"speed"`
	Harmony bool    `json:"harmony,omitempty"`
}

// DefaultPitchSettings returns chromatic correction at moderate speed.
func DefaultPitchSettings() PitchSettings {
	p := pitch.DefaultParams()
	return PitchSettings{Scale: p.Scale, Speed: p.Speed}
}

func (s PitchSettings) params() pitch.Params {
	return pitch.Params{Scale: s.Scale, Speed: s.Speed, Harmony: s.Harmony}
}

// settingsAs unwraps a legacy settings value given by value or pointer.
// nil yields def.
func settingsAs[T any](settings any, def T) (T, error) {
	switch s := settings.(type) {
	case nil:
		return def, nil
	case T:
		return s, nil
	case *T:
		if s == nil {
			return def, nil
		}
		return *s, nil
	default:
		var zero T
		return zero, fmt.Errorf("%w: got %T, want %T", ErrInvalidSettings, settings, zero)
	}
}

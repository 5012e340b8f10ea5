package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/cwbudde/algo-daw/dsp/effectchain"
)

// FormatVersion is the arrangement format this package writes.
const FormatVersion = "1.0.0"

const supportedVersions = "^1"

// Arrangement errors.
var (
	ErrUnsupportedVersion = errors.New("project: unsupported arrangement version")
	ErrInvalidArrangement = errors.New("project: invalid arrangement")
)

// Arrangement is the on-disk description of a mix. Clip sources are file
// paths resolved by the caller's loader.
type Arrangement struct {
	Version    string      `json:"version"`
	SampleRate float64     `json:"sampleRate,omitempty"`
	BPM        float64     `json:"bpm,omitempty"`
	Tracks     []TrackFile `json:"tracks"`
}

// TrackFile is a track as stored in an arrangement. A missing gain means
// unity.
type TrackFile struct {
	ID      string                   `json:"id,omitempty"`
	Name    string                   `json:"name,omitempty"`
	Gain    *float64                 `json:"gain,omitempty"`
	Pan     float64                  `json:"pan,omitempty"`
	Mute    bool                     `json:"mute,omitempty"`
	Solo    bool                     `json:"solo,omitempty"`
	EQ      effectchain.ThreeBandEQ  `json:"eq"`
	Effects []effectchain.Descriptor `json:"effects,omitempty"`
	Clips   []ClipFile               `json:"clips,omitempty"`
}

// ClipFile is a clip as stored in an arrangement. A zero duration plays
// the source to its end.
type ClipFile struct {
	ID       string  `json:"id,omitempty"`
	Source   string  `json:"source"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration,omitempty"`
	Offset   float64 `json:"offset,omitempty"`
}

// Loader turns a clip source into audio.
type Loader func(source string) (*SampleBuffer, error)

// ParseArrangement decodes and validates an arrangement.
func ParseArrangement(r io.Reader) (*Arrangement, error) {
	var a Arrangement
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArrangement, err)
	}

	if err := checkVersion(a.Version); err != nil {
		return nil, err
	}

	return &a, nil
}

// LoadArrangement reads an arrangement file.
func LoadArrangement(path string) (*Arrangement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("project: open arrangement: %w", err)
	}
	defer f.Close()

	a, err := ParseArrangement(f)
	if err != nil {
		return nil, fmt.Errorf("project: %s: %w", path, err)
	}
	return a, nil
}

// Write encodes the arrangement as indented JSON.
func (a *Arrangement) Write(w io.Writer) error {
	out := *a
	if out.Version == "" {
		out.Version = FormatVersion
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("project: encode arrangement: %w", err)
	}
	return nil
}

// Resolve builds the track model, loading each distinct source once.
// Tracks and clips without ids get fresh ones.
func (a *Arrangement) Resolve(load Loader) ([]Track, error) {
	if load == nil {
		return nil, fmt.Errorf("%w: nil loader", ErrInvalidArrangement)
	}

	cache := make(map[string]*SampleBuffer)
	tracks := make([]Track, 0, len(a.Tracks))

	for ti, tf := range a.Tracks {
		t := Track{
			ID:      tf.ID,
			Name:    tf.Name,
			Gain:    1,
			Pan:     tf.Pan,
			Mute:    tf.Mute,
			Solo:    tf.Solo,
			EQ:      tf.EQ,
			Effects: tf.Effects,
		}
		if t.ID == "" {
			t.ID = NewID()
		}
		if tf.Gain != nil {
			t.Gain = *tf.Gain
		}

		for ci, cf := range tf.Clips {
			buf, ok := cache[cf.Source]
			if !ok {
				var err error
				buf, err = load(cf.Source)
				if err != nil {
					return nil, fmt.Errorf("project: track %d clip %d: %w", ti, ci, err)
				}
				if err := buf.Validate(); err != nil {
					return nil, fmt.Errorf("project: track %d clip %d: %w", ti, ci, err)
				}
				cache[cf.Source] = buf
			}

			c := Clip{
				ID:           cf.ID,
				Buffer:       buf,
				Start:        max(0, cf.Start),
				Duration:     cf.Duration,
				SourceOffset: max(0, cf.Offset),
			}
			if c.ID == "" {
				c.ID = NewID()
			}
			if c.Duration <= 0 {
				c.Duration = max(0, buf.Duration()-c.SourceOffset)
			}

			t.Clips = append(t.Clips, c)
		}

		tracks = append(tracks, t)
	}

	return tracks, nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("%w: missing version", ErrUnsupportedVersion)
	}

	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedVersion, v, err)
	}

	c, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(ver) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, v, supportedVersions)
	}

	return nil
}

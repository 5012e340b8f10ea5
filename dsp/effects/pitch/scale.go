package pitch

import (
	"math"
	"strconv"
	"strings"
)

// ChromaticName names the scale that admits all twelve pitch classes.
const ChromaticName = "chromatic"

var (
	noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

	majorSteps = [7]int{0, 2, 4, 5, 7, 9, 11}
	minorSteps = [7]int{0, 2, 3, 5, 7, 8, 10}

	allScales = buildScales()
)

// Scale is a named set of allowed pitch classes in canonical order:
// rooted scales list their classes from the root upward.
type Scale struct {
	Name    string
	Classes []int
}

// Scales lists every supported scale: the twelve major scales, the twelve
// natural minor scales, then chromatic.
func Scales() []Scale {
	out := make([]Scale, len(allScales))
	copy(out, allScales)
	return out
}

// LookupScale finds a scale by name, ignoring case ("C major", "f# minor",
// "chromatic").
func LookupScale(name string) (Scale, bool) {
	name = strings.TrimSpace(name)
	for _, s := range allScales {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Scale{}, false
}

// Chromatic returns the twelve-tone scale.
func Chromatic() Scale {
	return allScales[len(allScales)-1]
}

func buildScales() []Scale {
	scales := make([]Scale, 0, 25)
	for _, mode := range []struct {
		suffix string
		steps  [7]int
	}{
		{"major", majorSteps},
		{"minor", minorSteps},
	} {
		for root := range 12 {
			classes := make([]int, len(mode.steps))
			for i, step := range mode.steps {
				classes[i] = (root + step) % 12
			}
			scales = append(scales, Scale{Name: noteNames[root] + " " + mode.suffix, Classes: classes})
		}
	}

	chromatic := make([]int, 12)
	for i := range chromatic {
		chromatic[i] = i
	}

	return append(scales, Scale{Name: ChromaticName, Classes: chromatic})
}

// Contains reports whether pc is an allowed class.
func (s Scale) Contains(pc int) bool {
	pc = PitchClass(pc)
	for _, c := range s.Classes {
		if c == pc {
			return true
		}
	}
	return false
}

// Nearest returns the allowed pitch class closest to pc on the pitch-class
// circle. Equal distances resolve to the class listed first.
func (s Scale) Nearest(pc int) int {
	pc = PitchClass(pc)
	best, bestDist := pc, 13
	for _, c := range s.Classes {
		if d := CircularDistance(pc, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Correct maps a MIDI note to the nearest allowed note, staying within six
// semitones of the input.
func (s Scale) Correct(note int) int {
	pc := PitchClass(note)
	chosen := s.Nearest(pc)
	corrected := note - pc + chosen

	switch {
	case chosen-pc > 6:
		corrected -= 12
	case pc-chosen > 6:
		corrected += 12
	}

	return corrected
}

// PitchClass reduces a note number to 0..11.
func PitchClass(note int) int {
	return ((note % 12) + 12) % 12
}

// CircularDistance is the semitone distance between two pitch classes on
// the twelve-step circle, at most 6.
func CircularDistance(a, b int) int {
	d := PitchClass(a - b)
	return min(d, 12-d)
}

// FrequencyToMidi converts Hz to a fractional MIDI note (A4 = 440 Hz = 69).
func FrequencyToMidi(freq float64) float64 {
	return 12*math.Log2(freq/440) + 69
}

// MidiToFrequency converts a MIDI note to Hz.
func MidiToFrequency(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// NoteName formats a MIDI note as name and octave, e.g. 69 -> "A4".
func NoteName(note int) string {
	octave := (note - PitchClass(note)) / 12
	return noteNames[PitchClass(note)] + strconv.Itoa(octave-1)
}

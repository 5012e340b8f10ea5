// Command scaleinfo prints the pitch-correction scale table and how a
// detected frequency would be corrected in each scale.
//
// Usage:
//
//	scaleinfo [flags] [scale-name ...]
//
// Without arguments it prints every known scale.
//
// Examples:
//
//	scaleinfo "C major" "A minor"
//	scaleinfo -hz 452 "C major"
//	scaleinfo -hz 300 -all
//	scaleinfo -list
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
)

func main() {
	hz := flag.Float64("hz", math.NaN(), "detected frequency to correct in each scale")
	all := flag.Bool("all", false, "show all scales")
	list := flag.Bool("list", false, "list available scale names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scaleinfo [flags] [scale-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints allowed pitch classes per scale.\n")
		fmt.Fprintf(os.Stderr, "With -hz, also prints the corrected note and correction ratio.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  scaleinfo \"C major\" \"A minor\"\n")
		fmt.Fprintf(os.Stderr, "  scaleinfo -hz 452 \"C major\"\n")
		fmt.Fprintf(os.Stderr, "  scaleinfo -list\n")
	}
	flag.Parse()

	if *list {
		for _, s := range pitch.Scales() {
			fmt.Println(s.Name)
		}
		return
	}

	scales := pitch.Scales()
	if names := flag.Args(); len(names) > 0 && !*all {
		scales = resolveScales(names, os.Stderr)
	}
	if len(scales) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching scales\n")
		os.Exit(1)
	}

	if err := printTable(os.Stdout, scales, *hz); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func resolveScales(names []string, warn io.Writer) []pitch.Scale {
	var out []pitch.Scale
	for _, name := range names {
		s, ok := pitch.LookupScale(name)
		if !ok {
			_, _ = fmt.Fprintf(warn, "warning: unknown scale %q (use -list to see available)\n", name)
			continue
		}
		out = append(out, s)
	}
	return out
}

// correction is what the corrector does with a detected frequency in one
// scale.
type correction struct {
	detected  int
	corrected int
	targetHz  float64
	ratio     float64
}

func correct(s pitch.Scale, hz float64) correction {
	raw := int(math.Round(pitch.FrequencyToMidi(hz)))
	note := s.Correct(raw)
	target := pitch.MidiToFrequency(float64(note))

	return correction{
		detected:  raw,
		corrected: note,
		targetHz:  target,
		ratio:     pitch.TargetRatio(target, hz),
	}
}

func printTable(w io.Writer, scales []pitch.Scale, hz float64) error {
	withHz := !math.IsNaN(hz) && hz > 0

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if withHz {
		if _, err := fmt.Fprintf(tw, "Scale\tClasses\tDetected\tCorrected\tTarget [Hz]\tRatio\n"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(tw, "-----\t-------\t--------\t---------\t-----------\t-----\n"); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(tw, "Scale\tClasses\n"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(tw, "-----\t-------\n"); err != nil {
			return err
		}
	}

	for _, s := range scales {
		classes := classNames(s)
		if !withHz {
			if _, err := fmt.Fprintf(tw, "%s\t%s\n", s.Name, classes); err != nil {
				return err
			}
			continue
		}

		c := correct(s, hz)
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.4f\n",
			s.Name,
			classes,
			pitch.NoteName(c.detected),
			pitch.NoteName(c.corrected),
			c.targetHz,
			c.ratio,
		); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func classNames(s pitch.Scale) string {
	names := make([]string, len(s.Classes))
	for i, pc := range s.Classes {
		// Octave 4 puts every class in the same register; strip the digit.
		names[i] = strings.TrimSuffix(pitch.NoteName(60+pc), "4")
	}
	return strings.Join(names, " ")
}

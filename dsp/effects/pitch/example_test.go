package pitch_test

import (
	"fmt"

	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
)

func ExampleScale_Correct() {
	scale, _ := pitch.LookupScale("C major")

	for _, note := range []int{61, 66, 69} {
		fmt.Printf("%s -> %s\n", pitch.NoteName(note), pitch.NoteName(scale.Correct(note)))
	}

	// Output:
	// C#4 -> C4
	// F#4 -> F4
	// A4 -> A4
}

func ExampleTargetRatio() {
	fmt.Printf("%.3f\n", pitch.TargetRatio(440, 430))
	fmt.Printf("%.3f\n", pitch.TargetRatio(440, 439))
	fmt.Printf("%.3f\n", pitch.TargetRatio(880, 200))

	// Output:
	// 1.023
	// 1.000
	// 2.000
}

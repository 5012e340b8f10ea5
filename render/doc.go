// Package render mixes an arrangement outside real time.
//
// Every audible track is rebuilt against an offline effect context, its
// clips placed at their exact sample positions, and the tracks summed in
// track order so identical inputs give identical output. Pitch correction
// is omitted offline. Reverb impulses are reproducible when the renderer
// has an impulse seed.
package render

// Package mix holds the bus-level building blocks shared by the real-time
// engine and the offline renderer: clip voices that read decoded audio into
// a track input, the stereo panner, gain, and bus accumulation.
package mix

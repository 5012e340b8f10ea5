// Package engine is the real-time side of the workstation. An Engine owns
// one effect graph per track and renders the mix through Process, the
// pull-style callback an audio device driver calls once per buffer.
//
// Control methods (AddTrack, BuildGraph, UpdateParameters, Play, ...) run
// on any goroutine and never block Process: tracks are swapped
// copy-on-write, parameters travel as atomic snapshots and voice changes
// travel over a bounded command queue that Process drains without
// waiting.
package engine

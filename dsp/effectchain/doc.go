// Package effectchain builds and drives per-track effect chains.
//
// A track's effects are described by an ordered list of [Descriptor]
// values. [Graph.Build] materializes them into a chain of processing
// nodes on the calling (control) goroutine and publishes it with a single
// atomic pointer store, so the audio goroutine running [Graph.Process]
// only ever sees a complete chain. [Graph.Update] applies parameter edits
// in place and falls back to a rebuild when an edit changes the number of
// nodes an effect needs.
//
// Descriptor ids resolve to one of the built-in legacy kinds (EQ,
// compressor, reverb, delay, distortion, pitch correction) or to a
// [Plugin] from a [Registry]. Unknown ids are skipped with a warning.
package effectchain

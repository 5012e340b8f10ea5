// Package effects provides the per-sample effect kernels used by track
// effect chains.
//
//   - FeedbackDelay: a delay line that feeds its own output back through a
//     feedback gain.
//   - WaveShaper: a curve-driven distortion stage with the workstation's
//     drive curve.
//
// Dynamics, pitch correction and reverb live in subpackages. All kernels
// process in place with zero-allocation hot paths.
package effects

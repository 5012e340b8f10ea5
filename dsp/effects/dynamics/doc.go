// Package dynamics provides stereo-linked level processors: a soft-knee
// compressor for the track compressor effect and a noise gate used by the
// built-in gate plugin.
//
// Both processors use a peak envelope follower with separate attack and
// release time constants and compute gain in the log2 domain.
package dynamics

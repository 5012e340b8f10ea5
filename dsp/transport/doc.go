// Package transport schedules time-critical events against a monotonic
// audio clock.
//
// Metronome uses lookahead scheduling: a coarse periodic task tops up
// precisely timestamped clicks a fixed horizon ahead of the clock, so
// timer jitter never reaches the audio. ScheduleClips and Player do the
// same bookkeeping for clip playback.
package transport

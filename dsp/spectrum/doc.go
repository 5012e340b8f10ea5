// Package spectrum provides analysis taps for visualization: a lock-free
// ring that the audio goroutine feeds and a display goroutine snapshots as
// time-domain samples or a windowed magnitude spectrum.
package spectrum

// Package modulation provides LFO-driven effects for track plugins.
//
//   - Chorus: multi-voice modulated delay, one line per channel.
//   - Tremolo: LFO amplitude modulation, linked across channels.
package modulation

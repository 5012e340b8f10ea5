package transport

import "sort"

// ClipRegion places a clip on the timeline. Start and Duration are
// timeline seconds; SourceOffset is where playback begins in the source.
type ClipRegion struct {
	ID           string
	Start        float64
	Duration     float64
	SourceOffset float64
}

// End returns the timeline time the clip stops.
func (c ClipRegion) End() float64 { return c.Start + c.Duration }

// ClipStart is a scheduled clip start. When is the timeline time to start;
// Offset is the source position and Duration what is left to play.
type ClipStart struct {
	ClipID   string
	When     float64
	Offset   float64
	Duration float64
}

// ScheduleClips plans playback from cursor. Clips still ahead start at
// their own start time; a clip the cursor lies inside starts at the
// cursor, offset into its source by the time already passed. Clips that
// ended at or before cursor are dropped. Results are ordered by start
// time, ties keeping input order.
func ScheduleClips(cursor float64, clips []ClipRegion) []ClipStart {
	out := make([]ClipStart, 0, len(clips))

	for _, c := range clips {
		if c.Duration <= 0 || c.End() <= cursor {
			continue
		}

		if c.Start >= cursor {
			out = append(out, ClipStart{
				ClipID:   c.ID,
				When:     c.Start,
				Offset:   c.SourceOffset,
				Duration: c.Duration,
			})
			continue
		}

		into := cursor - c.Start
		out = append(out, ClipStart{
			ClipID:   c.ID,
			When:     cursor,
			Offset:   c.SourceOffset + into,
			Duration: c.Duration - into,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].When < out[j].When })

	return out
}

package engine

import (
	"context"
	"math"

	"github.com/cwbudde/algo-daw/dsp/mix"
	"github.com/cwbudde/algo-daw/dsp/transport"
	"github.com/cwbudde/algo-daw/project"
)

const (
	clickSeconds   = 0.05
	clickAmplitude = 0.5
	clickDecay     = 60.0 // 1/s
)

type commandKind int

const (
	cmdStartVoice commandKind = iota
	cmdStopVoice
	cmdDropTrack
	cmdClick
	cmdClearClicks
)

type command struct {
	kind   commandKind
	track  *trackState
	voice  *mix.Voice
	handle uint64
	clipID string
	click  transport.Click
}

type liveVoice struct {
	track  *trackState
	voice  *mix.Voice
	handle uint64
}

type finishedVoice struct {
	clipID string
	handle uint64
}

type clickVoice struct {
	start int64
	freq  float64
	pos   int
}

// clickSink queues metronome clicks for the audio side.
type clickSink struct{ e *Engine }

func (s clickSink) Schedule(c transport.Click) {
	s.e.send(command{kind: cmdClick, click: c})
}

// Metronome returns the engine's metronome. Its clicks are mixed into the
// master bus when enabled.
func (e *Engine) Metronome() *transport.Metronome { return e.metronome }

// RunMetronome drives the metronome's lookahead loop until ctx is done.
func (e *Engine) RunMetronome(ctx context.Context) error {
	return e.metronome.Run(ctx)
}

// Play starts every clip from timeline position cursor. Clips already
// playing restart. The metronome restarts on the same clock.
func (e *Engine) Play(cursor float64) {
	cursor = math.Max(0, cursor)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.reap()

	now := e.clock.Now()
	base := e.clock.Frames()
	sr := e.cfg.SampleRate

	e.playFrom = cursor
	e.playAt = now
	e.playing.Store(true)

	started := 0
	for _, ts := range *e.tracks.Load() {
		clips := ts.model.Clips
		for _, cs := range transport.ScheduleClips(cursor, ts.model.Regions()) {
			clip := clipByID(clips, cs.ClipID)
			if clip == nil || clip.Buffer == nil {
				continue
			}

			start := base + int64(math.Round((cs.When-cursor)*sr))
			v := mix.NewVoice(cs.ClipID, clip.Buffer.Channels, clip.Buffer.SampleRate, sr, start, cs.Offset, cs.Duration)

			var handle uint64
			handle = e.player.Start(cs.ClipID, func() {
				e.send(command{kind: cmdStopVoice, clipID: cs.ClipID, handle: handle})
			})
			e.send(command{kind: cmdStartVoice, track: ts, voice: v, handle: handle})
			started++
		}
	}

	e.metronome.Start()
	e.logger.Debug("engine: play", "cursor", cursor, "clips", started)
}

// Stop halts all clips, the metronome and queued clicks.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.playing.Load() {
		e.playFrom = e.positionLocked()
	}
	e.playing.Store(false)

	e.player.StopAll()
	e.metronome.Stop()
	e.send(command{kind: cmdClearClicks})
	e.reap()
}

// Playing reports whether the transport is running.
func (e *Engine) Playing() bool { return e.playing.Load() }

// Position returns the timeline position in seconds.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// ClipPlaying reports whether clipID has a live voice.
func (e *Engine) ClipPlaying(clipID string) bool {
	e.mu.Lock()
	e.reap()
	e.mu.Unlock()
	return e.player.Playing(clipID)
}

func (e *Engine) positionLocked() float64 {
	if !e.playing.Load() {
		return e.playFrom
	}
	return e.playFrom + e.clock.Now() - e.playAt
}

// send queues a command without blocking. A full queue drops it.
func (e *Engine) send(c command) {
	select {
	case e.cmds <- c:
	default:
		e.dropped.Add(1)
		e.logger.Warn("engine: command queue full, dropping command", "kind", int(c.kind))
	}
}

// reap releases finished voices from the player. Control side only.
func (e *Engine) reap() {
	for {
		select {
		case f := <-e.finished:
			e.player.Release(f.clipID, f.handle)
		default:
			return
		}
	}
}

// drain applies queued commands. Audio side only.
func (e *Engine) drain() {
	for {
		select {
		case c := <-e.cmds:
			e.apply(c)
		default:
			return
		}
	}
}

func (e *Engine) apply(c command) {
	switch c.kind {
	case cmdStartVoice:
		e.voices = deleteVoices(e.voices, func(v liveVoice) bool { return v.voice.ClipID == c.voice.ClipID })
		if len(e.voices) == cap(e.voices) {
			e.dropped.Add(1)
			return
		}
		e.voices = append(e.voices, liveVoice{track: c.track, voice: c.voice, handle: c.handle})

	case cmdStopVoice:
		e.voices = deleteVoices(e.voices, func(v liveVoice) bool {
			return v.voice.ClipID == c.clipID && v.handle == c.handle
		})

	case cmdDropTrack:
		e.voices = deleteVoices(e.voices, func(v liveVoice) bool { return v.track == c.track })

	case cmdClick:
		if len(e.clicks) == cap(e.clicks) {
			e.dropped.Add(1)
			return
		}
		e.clicks = append(e.clicks, clickVoice{
			start: int64(math.Round(c.click.Time * e.cfg.SampleRate)),
			freq:  c.click.Frequency,
		})

	case cmdClearClicks:
		e.clicks = e.clicks[:0]
	}
}

// reapVoices drops voices that finished this block and reports them to
// the control side.
func (e *Engine) reapVoices() {
	e.voices = deleteVoices(e.voices, func(v liveVoice) bool {
		if !v.voice.Done() {
			return false
		}
		select {
		case e.finished <- finishedVoice{clipID: v.voice.ClipID, handle: v.handle}:
		default:
		}
		return true
	})
}

// renderClicks adds decaying sine bursts for due clicks to out.
func (e *Engine) renderClicks(out [][]float64, start int64) {
	if len(e.clicks) == 0 {
		return
	}

	sr := e.cfg.SampleRate
	length := int(clickSeconds * sr)
	n := int64(len(out[0]))

	kept := e.clicks[:0]
	for _, c := range e.clicks {
		first := max(c.start-start, 0)
		for i := first; i < n && c.pos < length; i++ {
			t := float64(c.pos) / sr
			v := clickAmplitude * math.Exp(-clickDecay*t) * math.Sin(2*math.Pi*c.freq*t)
			for _, ch := range out {
				ch[i] += v
			}
			c.pos++
		}
		if c.pos < length {
			kept = append(kept, c)
		}
	}
	clear(e.clicks[len(kept):])
	e.clicks = kept
}

func deleteVoices(voices []liveVoice, del func(liveVoice) bool) []liveVoice {
	kept := voices[:0]
	for _, v := range voices {
		if !del(v) {
			kept = append(kept, v)
		}
	}
	clear(voices[len(kept):])
	return kept
}

func clipByID(clips []project.Clip, id string) *project.Clip {
	for i := range clips {
		if clips[i].ID == id {
			return &clips[i]
		}
	}
	return nil
}

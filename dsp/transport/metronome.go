package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduling defaults.
const (
	DefaultLookahead      = 25 * time.Millisecond
	DefaultScheduleWindow = 0.1  // seconds
	DefaultSafetyMargin   = 0.05 // seconds
	DefaultBPM            = 120.0
	BeatsPerBar           = 4

	AccentFrequency = 1000.0 // Hz, beat 0
	BeatFrequency   = 800.0  // Hz, other beats
)

// Errors returned by Metronome.
var (
	ErrNilClock   = errors.New("transport: clock is nil")
	ErrInvalidBPM = errors.New("transport: bpm must be positive and finite")
)

// Click is one scheduled metronome event.
type Click struct {
	Time      float64 // audio clock seconds
	Beat      int     // 0 to BeatsPerBar-1
	Accent    bool
	Frequency float64
}

// ClickSink receives clicks ahead of their time. Schedule is called from
// the metronome goroutine and should not block.
type ClickSink interface {
	Schedule(Click)
}

// ClickSinkFunc adapts a function to ClickSink.
type ClickSinkFunc func(Click)

// Schedule calls f.
func (f ClickSinkFunc) Schedule(c Click) { f(c) }

// State is a snapshot of the transport bookkeeping.
type State struct {
	Running   bool
	BPM       float64
	Beat      int
	NextClick float64
}

// MetronomeOption configures a Metronome.
type MetronomeOption func(*Metronome)

// WithLookahead sets the polling period of Run.
func WithLookahead(d time.Duration) MetronomeOption {
	return func(m *Metronome) {
		if d > 0 {
			m.lookahead = d
		}
	}
}

// WithScheduleWindow sets how far ahead of the clock clicks are queued.
func WithScheduleWindow(seconds float64) MetronomeOption {
	return func(m *Metronome) {
		if seconds > 0 {
			m.window = seconds
		}
	}
}

// WithSafetyMargin sets the delay between Start and the first click.
func WithSafetyMargin(seconds float64) MetronomeOption {
	return func(m *Metronome) {
		if seconds >= 0 {
			m.margin = seconds
		}
	}
}

// WithBPM sets the initial tempo.
func WithBPM(bpm float64) MetronomeOption {
	return func(m *Metronome) {
		if validBPM(bpm) {
			m.bpm = bpm
		}
	}
}

// WithMetronomeLogger sets the logger.
func WithMetronomeLogger(l *slog.Logger) MetronomeOption {
	return func(m *Metronome) {
		if l != nil {
			m.logger = l
		}
	}
}

// Metronome keeps the beat clock and emits clicks through a sink. The
// enable flag only gates emission; beats advance whether or not they are
// heard, so toggling it never shifts the grid.
type Metronome struct {
	clock  Clock
	sink   ClickSink
	logger *slog.Logger

	lookahead time.Duration
	window    float64
	margin    float64

	enabled atomic.Bool

	mu      sync.Mutex
	running bool
	bpm     float64
	beat    int
	next    float64
}

// NewMetronome creates a stopped metronome. sink may be nil when only the
// beat bookkeeping is needed.
func NewMetronome(clock Clock, sink ClickSink, opts ...MetronomeOption) (*Metronome, error) {
	if clock == nil {
		return nil, ErrNilClock
	}

	m := &Metronome{
		clock:     clock,
		sink:      sink,
		logger:    slog.Default(),
		lookahead: DefaultLookahead,
		window:    DefaultScheduleWindow,
		margin:    DefaultSafetyMargin,
		bpm:       DefaultBPM,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.enabled.Store(true)

	return m, nil
}

// SetEnabled turns click emission on or off.
func (m *Metronome) SetEnabled(on bool) { m.enabled.Store(on) }

// Enabled reports whether clicks are emitted.
func (m *Metronome) Enabled() bool { return m.enabled.Load() }

// SetBPM changes the tempo. The next click keeps its time; the spacing
// after it follows the new tempo.
func (m *Metronome) SetBPM(bpm float64) error {
	if !validBPM(bpm) {
		return fmt.Errorf("%w: %v", ErrInvalidBPM, bpm)
	}

	m.mu.Lock()
	m.bpm = bpm
	m.mu.Unlock()

	return nil
}

// Start resets the bar and schedules the first beat one safety margin
// from now.
func (m *Metronome) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = true
	m.beat = 0
	m.next = m.clock.Now() + m.margin

	m.logger.Debug("transport: metronome started", "bpm", m.bpm, "first", m.next)
}

// Stop halts scheduling. Clicks already handed to the sink stay queued.
func (m *Metronome) Stop() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

// Tick schedules every beat that falls inside the window ahead of the
// clock and returns how many it advanced over.
func (m *Metronome) Tick() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return 0
	}

	horizon := m.clock.Now() + m.window
	n := 0
	for m.next < horizon {
		if m.sink != nil && m.enabled.Load() {
			accent := m.beat == 0
			freq := BeatFrequency
			if accent {
				freq = AccentFrequency
			}
			m.sink.Schedule(Click{Time: m.next, Beat: m.beat, Accent: accent, Frequency: freq})
		}

		m.next += 60 / m.bpm
		m.beat = (m.beat + 1) % BeatsPerBar
		n++
	}

	return n
}

// Run ticks every lookahead period until ctx is done.
func (m *Metronome) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.lookahead)
	defer ticker.Stop()

	m.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick()
		}
	}
}

// State returns a snapshot of the bookkeeping.
func (m *Metronome) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return State{Running: m.running, BPM: m.bpm, Beat: m.beat, NextClick: m.next}
}

func validBPM(bpm float64) bool {
	return bpm > 0 && !math.IsNaN(bpm) && !math.IsInf(bpm, 0)
}

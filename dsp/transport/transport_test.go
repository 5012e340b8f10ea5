package transport

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

type manualClock struct{ now float64 }

func (c *manualClock) Now() float64 { return c.now }

// simulate polls the metronome every 25 ms of clock time.
func simulate(m *Metronome, clock *manualClock, steps int) {
	m.Start()
	for i := range steps {
		clock.now = float64(i) * DefaultLookahead.Seconds()
		m.Tick()
	}
}

func TestMetronomeTenSecondsAt120(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	var clicks []Click
	m, err := NewMetronome(clock, ClickSinkFunc(func(c Click) { clicks = append(clicks, c) }))
	if err != nil {
		t.Fatalf("NewMetronome: %v", err)
	}

	simulate(m, clock, 400)

	var inRange []Click
	for _, c := range clicks {
		if c.Time < 10 {
			inRange = append(inRange, c)
		}
	}

	if len(inRange) != 20 {
		t.Fatalf("got %d clicks before 10s, want 20", len(inRange))
	}

	for i, c := range inRange {
		if c.Beat != i%BeatsPerBar {
			t.Fatalf("click %d beat=%d, want %d", i, c.Beat, i%BeatsPerBar)
		}
		if c.Accent != (c.Beat == 0) {
			t.Fatalf("click %d accent=%v", i, c.Accent)
		}
		if i > 0 {
			if d := c.Time - inRange[i-1].Time; math.Abs(d-0.5) > 1e-9 {
				t.Fatalf("spacing %d = %v, want 0.5", i, d)
			}
		}
	}

	if inRange[0].Time != DefaultSafetyMargin || inRange[0].Frequency != AccentFrequency {
		t.Fatalf("first click %+v", inRange[0])
	}
	if inRange[1].Frequency != BeatFrequency {
		t.Fatalf("second click frequency=%v", inRange[1].Frequency)
	}
}

func TestMetronomeEnableFlagDoesNotDrift(t *testing.T) {
	t.Parallel()

	run := func(toggle bool) (State, int) {
		clock := &manualClock{}
		n := 0
		m, err := NewMetronome(clock, ClickSinkFunc(func(Click) { n++ }))
		if err != nil {
			t.Fatalf("NewMetronome: %v", err)
		}

		m.Start()
		for i := range 200 {
			if toggle {
				m.SetEnabled(i%7 < 3)
			}
			clock.now = float64(i) * 0.025
			m.Tick()
		}
		return m.State(), n
	}

	always, heard := run(false)
	toggled, heardToggled := run(true)

	if always != toggled {
		t.Fatalf("state drifted: %+v vs %+v", always, toggled)
	}
	if heardToggled >= heard {
		t.Fatalf("toggled run heard %d clicks, always-on %d", heardToggled, heard)
	}
}

func TestMetronomeStoppedDoesNothing(t *testing.T) {
	t.Parallel()

	m, err := NewMetronome(&manualClock{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := m.Tick(); n != 0 {
		t.Fatalf("Tick on stopped metronome advanced %d", n)
	}

	m.Start()
	if n := m.Tick(); n != 1 {
		t.Fatalf("first Tick advanced %d beats, want 1", n)
	}
	m.Stop()
	if m.State().Running {
		t.Fatal("still running after Stop")
	}
}

func TestMetronomeValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewMetronome(nil, nil); !errors.Is(err, ErrNilClock) {
		t.Fatalf("err=%v, want ErrNilClock", err)
	}

	m, _ := NewMetronome(&manualClock{}, nil, WithBPM(90))
	if m.State().BPM != 90 {
		t.Fatalf("BPM=%v", m.State().BPM)
	}
	for _, bpm := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := m.SetBPM(bpm); !errors.Is(err, ErrInvalidBPM) {
			t.Fatalf("SetBPM(%v) err=%v", bpm, err)
		}
	}
}

func TestMetronomeRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	clock := ClockFunc(func() float64 { return float64(ticks.Add(1)) * 0.001 })
	m, err := NewMetronome(clock, nil, WithLookahead(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	m.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := m.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err=%v", err)
	}
	if ticks.Load() < 2 {
		t.Fatalf("clock read %d times", ticks.Load())
	}
}

func TestScheduleClips(t *testing.T) {
	t.Parallel()

	clips := []ClipRegion{
		{ID: "past", Start: 0, Duration: 1},
		{ID: "inside", Start: 1, Duration: 4, SourceOffset: 0.5},
		{ID: "ahead", Start: 3, Duration: 2},
		{ID: "edge", Start: 0, Duration: 2},
	}

	got := ScheduleClips(2, clips)
	want := []ClipStart{
		{ClipID: "inside", When: 2, Offset: 1.5, Duration: 3},
		{ClipID: "ahead", When: 3, Offset: 0, Duration: 2},
	}

	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("start %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPlayerSingleInstance(t *testing.T) {
	t.Parallel()

	p := NewPlayer()
	stopped := map[string]int{}

	first := p.Start("a", func() { stopped["first"]++ })
	second := p.Start("a", func() { stopped["second"]++ })
	p.Start("b", func() { stopped["b"]++ })

	if stopped["first"] != 1 || stopped["second"] != 0 {
		t.Fatalf("restart stops: %v", stopped)
	}
	if p.Len() != 2 {
		t.Fatalf("Len=%d, want 2", p.Len())
	}

	p.Release("a", first)
	if !p.Playing("a") {
		t.Fatal("stale handle released the live instance")
	}
	p.Release("a", second)
	if p.Playing("a") {
		t.Fatal("Release did not forget the instance")
	}

	if n := p.StopAll(); n != 1 || stopped["b"] != 1 {
		t.Fatalf("StopAll=%d stops=%v", n, stopped)
	}
	if p.Stop("b") {
		t.Fatal("Stop on idle clip reported true")
	}
}

func TestFrameClock(t *testing.T) {
	t.Parallel()

	c := NewFrameClock(48000)
	c.Advance(24000)
	c.Advance(-5)
	if c.Now() != 0.5 || c.Frames() != 24000 {
		t.Fatalf("Now=%v Frames=%d", c.Now(), c.Frames())
	}
}

package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/internal/testutil"
)

func TestCompressorBelowThresholdIsTransparent(t *testing.T) {
	t.Parallel()

	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor returned unexpected error: %v", err)
	}
	c.Configure(CompressorParams{ThresholdDB: -6, Ratio: 4, KneeDB: 0, Attack: 0.001, Release: 0.1})

	in := testutil.DeterministicSine(440, 48000, 0.1, 4800)
	buf := testutil.Stereo(in)
	c.Process(buf)

	testutil.RequireSliceNearlyEqual(t, buf[0], in, 1e-12)
	testutil.RequireSliceNearlyEqual(t, buf[1], in, 1e-12)
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	t.Parallel()

	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor returned unexpected error: %v", err)
	}
	c.Configure(CompressorParams{ThresholdDB: -20, Ratio: 4, KneeDB: 0, Attack: 0.001, Release: 0.05})

	buf := testutil.Stereo(testutil.DC(1, 48000))
	c.Process(buf)

	// 20 dB over threshold at 4:1 leaves 5 dB over: -15 dB.
	want := math.Pow(10, -15.0/20)
	if got := buf[0][47999]; math.Abs(got-want) > 1e-3 {
		t.Fatalf("steady-state output=%v, want %v", got, want)
	}
	if buf[0][47999] != buf[1][47999] {
		t.Fatal("linked channels diverged")
	}
}

func TestCompressorStaticGainKnee(t *testing.T) {
	t.Parallel()

	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor returned unexpected error: %v", err)
	}
	c.Configure(CompressorParams{ThresholdDB: -20, Ratio: 8, KneeDB: 12, Attack: 0.01, Release: 0.1})

	prev := 0.0
	for db := -40.0; db <= 0; db += 0.5 {
		in := math.Pow(10, db/20)
		g := c.StaticGain(in)
		if g > 1 {
			t.Fatalf("gain above unity at %v dB", db)
		}
		out := in * g
		if out < prev-1e-12 {
			t.Fatalf("transfer curve decreases at %v dB", db)
		}
		prev = out
	}

	if g := c.StaticGain(math.Pow(10, -40.0/20)); g != 1 {
		t.Fatalf("gain below the knee=%v, want 1", g)
	}
}

func TestCompressorConfigureClamps(t *testing.T) {
	t.Parallel()

	c, err := NewCompressor(44100)
	if err != nil {
		t.Fatalf("NewCompressor returned unexpected error: %v", err)
	}

	c.Configure(CompressorParams{ThresholdDB: 12, Ratio: 0, KneeDB: math.NaN(), Attack: -1, Release: 99})
	p := c.Params()
	if p.ThresholdDB != 0 || p.Ratio != 1 || p.KneeDB != 0 || p.Attack != minTimeSec || p.Release != maxTimeSec {
		t.Fatalf("unexpected clamped params %+v", p)
	}

	if _, err := NewCompressor(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestGateAttenuatesSilence(t *testing.T) {
	t.Parallel()

	g, err := NewGate(48000)
	if err != nil {
		t.Fatalf("NewGate returned unexpected error: %v", err)
	}
	g.Configure(GateParams{ThresholdDB: -40, RangeDB: -60, Attack: 0.001, Hold: 0, Release: 0.01})

	quiet := testutil.Stereo(testutil.DC(0.001, 48000))
	g.Process(quiet)
	if got := quiet[0][47999]; got > 0.001*math.Pow(10, -50.0/20) {
		t.Fatalf("closed gate output=%v", got)
	}

	loud := testutil.Stereo(testutil.DC(0.5, 4800))
	g.Process(loud)
	if got := loud[0][4799]; math.Abs(got-0.5) > 1e-6 {
		t.Fatalf("open gate output=%v, want 0.5", got)
	}
}

package modulation

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/internal/testutil"
)

func TestChorusZeroMixIsDry(t *testing.T) {
	t.Parallel()

	c, err := NewChorus(48000)
	if err != nil {
		t.Fatal(err)
	}
	p := c.Params()
	p.Mix = 0
	c.Configure(p)

	in := testutil.DeterministicNoise(3, 0.5, 512)
	block := testutil.Stereo(in)
	c.Process(block)

	testutil.RequireSliceNearlyEqual(t, block[0], in, 0)
	testutil.RequireSliceNearlyEqual(t, block[1], in, 0)
}

func TestChorusDelaysWetSignal(t *testing.T) {
	t.Parallel()

	const sr = 10000.0
	c, err := NewChorus(sr)
	if err != nil {
		t.Fatal(err)
	}
	c.Configure(ChorusParams{RateHz: 1, Depth: 0, BaseDelay: 0.002, Mix: 1, Voices: 2})

	// With no depth every voice reads exactly BaseDelay behind.
	block := [][]float64{testutil.Impulse(64, 0)}
	c.Process(block)

	for i, v := range block[0] {
		want := 0.0
		if i == 20 {
			want = 1
		}
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestChorusBlockSplitMatches(t *testing.T) {
	t.Parallel()

	in := testutil.DeterministicSine(220, 44100, 0.7, 1000)

	whole, _ := NewChorus(44100)
	a := [][]float64{append([]float64(nil), in...)}
	whole.Process(a)

	split, _ := NewChorus(44100)
	b := [][]float64{append([]float64(nil), in...)}
	for start := 0; start < len(in); start += 128 {
		end := min(start+128, len(in))
		split.Process([][]float64{b[0][start:end]})
	}

	testutil.RequireSliceNearlyEqual(t, b[0], a[0], 1e-12)
}

func TestChorusClamps(t *testing.T) {
	t.Parallel()

	c, _ := NewChorus(44100)
	c.Configure(ChorusParams{RateHz: math.NaN(), Depth: 1, BaseDelay: 0, Mix: 2, Voices: 40})
	p := c.Params()

	if p.RateHz != DefaultChorusParams().RateHz {
		t.Errorf("RateHz = %v", p.RateHz)
	}
	if p.BaseDelay != minDelaySeconds || p.BaseDelay+p.Depth > maxDelaySeconds+1e-12 {
		t.Errorf("delay range = %v + %v", p.BaseDelay, p.Depth)
	}
	if p.Mix != 1 || p.Voices != maxVoices {
		t.Errorf("mix/voices = %v/%d", p.Mix, p.Voices)
	}

	if _, err := NewChorus(0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestTremoloGainCycle(t *testing.T) {
	t.Parallel()

	const sr = 1000.0
	tr, err := NewTremolo(sr)
	if err != nil {
		t.Fatal(err)
	}
	tr.Configure(TremoloParams{RateHz: 10, Depth: 1})

	block := [][]float64{testutil.Ones(101), testutil.Ones(101)}
	tr.Process(block)

	// Unity at each cycle start, silence half way.
	for _, i := range []int{0, 100} {
		if math.Abs(block[0][i]-1) > 1e-9 {
			t.Errorf("sample %d = %v, want 1", i, block[0][i])
		}
	}
	if math.Abs(block[0][50]) > 1e-9 {
		t.Errorf("trough = %v, want 0", block[0][50])
	}
	testutil.RequireSliceNearlyEqual(t, block[1], block[0], 0)
}

func TestTremoloResetRestoresState(t *testing.T) {
	t.Parallel()

	tr, _ := NewTremolo(48000)
	in := testutil.DeterministicSine(100, 48000, 1, 256)

	first := [][]float64{append([]float64(nil), in...)}
	tr.Process(first)
	tr.Reset()
	second := [][]float64{append([]float64(nil), in...)}
	tr.Process(second)

	testutil.RequireSliceNearlyEqual(t, second[0], first[0], 0)
}

package render

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/codec"
	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/effectchain"
	"github.com/cwbudde/algo-daw/internal/testutil"
	"github.com/cwbudde/algo-daw/project"
)

func quietLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func sineTrack(id string, freq, sr, seconds float64) project.Track {
	n := int(seconds * sr)
	return project.Track{
		ID:   id,
		Gain: 1,
		Clips: []project.Clip{{
			ID:       id + "-clip",
			Buffer:   &project.SampleBuffer{SampleRate: sr, Channels: [][]float64{testutil.DeterministicSine(freq, sr, 0.8, n)}},
			Duration: seconds,
		}},
	}
}

func TestSineRoundTripWithinQuantization(t *testing.T) {
	t.Parallel()

	r, err := New(WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	track := sineTrack("sine", 440, 44100, 1)

	var w codec.WriteSeeker
	m, err := r.RenderWAV(context.Background(), []project.Track{track}, &w)
	if err != nil {
		t.Fatalf("RenderWAV: %v", err)
	}
	if m.Frames() != 44100 {
		t.Fatalf("frames=%d, want 44100", m.Frames())
	}
	if len(w.Bytes()) != codec.WAVHeaderSize+44100*2*2 {
		t.Fatalf("wav size=%d", len(w.Bytes()))
	}

	decoded, err := codec.DecodeWAV(bytes.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}

	src := track.Clips[0].Buffer.Channels[0]
	for c := range 2 {
		testutil.RequireSliceNearlyEqual(t, decoded.Channels[c], src, 1.0/32767)
	}
}

func arrangement() []project.Track {
	vox := sineTrack("vox", 330, 8000, 0.5)
	vox.Pan = -0.3
	vox.Gain = 0.7
	vox.EQ = effectchain.ThreeBandEQ{Low: -3, Mid: 2, High: 1}
	vox.Effects = []effectchain.Descriptor{
		{ID: effectchain.IDCompressor},
		{ID: effectchain.IDDelay, Settings: effectchain.DelaySettings{Time: 0.05, Feedback: 0.4, Mix: 0.3}},
		{ID: "pitch", Settings: effectchain.PitchSettings{Scale: "C major", Speed: 1}},
	}

	bass := sineTrack("bass", 55, 8000, 0.75)
	bass.Clips[0].Start = 0.25
	bass.Clips[0].SourceOffset = 0.1
	bass.Clips[0].Duration = 0.5
	bass.Effects = []effectchain.Descriptor{
		{ID: effectchain.IDDistortion, Settings: effectchain.DistortionSettings{Amount: 20}},
		{ID: effectchain.IDEQ, Settings: effectchain.EQSettings{Bands: []effectchain.EQBand{{Type: effectchain.FilterLowCut, Frequency: 40, Q: 0.7}}}},
		{ID: effectchain.IDUtility, Settings: map[string]any{"gain": -3.0}},
	}

	muted := sineTrack("muted", 1000, 8000, 0.5)
	muted.Mute = true

	return []project.Track{vox, bass, muted}
}

func renderBytes(t *testing.T, tracks []project.Track, opts ...Option) []byte {
	t.Helper()

	opts = append([]Option{
		WithProcessorOptions(core.WithSampleRate(8000)),
		WithLogger(quietLogger()),
		WithTail(0.25),
	}, opts...)

	r, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}

	var w codec.WriteSeeker
	if _, err := r.RenderWAV(context.Background(), tracks, &w); err != nil {
		t.Fatalf("RenderWAV: %v", err)
	}
	return w.Bytes()
}

func TestRendersAreByteIdentical(t *testing.T) {
	t.Parallel()

	a := renderBytes(t, arrangement())
	b := renderBytes(t, arrangement(), WithConcurrency(1))

	if !bytes.Equal(a, b) {
		t.Fatal("renders differ")
	}
	if len(a) != codec.WAVHeaderSize+int(1.0*8000)*4 {
		t.Fatalf("wav size=%d", len(a))
	}
}

func TestSeededReverbRendersAreByteIdentical(t *testing.T) {
	t.Parallel()

	tracks := arrangement()
	tracks[0].Effects = append(tracks[0].Effects, effectchain.Descriptor{
		ID:       effectchain.IDReverb,
		Settings: effectchain.ReverbSettings{Decay: 0.3, Size: 0.8, PreDelay: 0.01, Tone: 3000, Mix: 0.5},
	})

	a := renderBytes(t, tracks, WithImpulseSeed(42))
	b := renderBytes(t, tracks, WithImpulseSeed(42))
	if !bytes.Equal(a, b) {
		t.Fatal("seeded reverb renders differ")
	}
}

func TestMutedTrackIsSilent(t *testing.T) {
	t.Parallel()

	track := sineTrack("m", 440, 8000, 0.25)
	track.Mute = true

	r, err := New(WithProcessorOptions(core.WithSampleRate(8000)), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	m, err := r.Render(context.Background(), []project.Track{track})
	if err != nil {
		t.Fatal(err)
	}
	if m.Frames() != 2000 || m.Peak != 0 {
		t.Fatalf("frames=%d peak=%v", m.Frames(), m.Peak)
	}
	if !math.IsInf(m.Loudness, -1) {
		t.Errorf("loudness of silence = %v, want -Inf", m.Loudness)
	}
}

func TestClipPlacementAndOffset(t *testing.T) {
	t.Parallel()

	ramp := make([]float64, 1000)
	for i := range ramp {
		ramp[i] = float64(i) / 2000
	}

	track := project.Track{
		ID:   "ramp",
		Gain: 1,
		Clips: []project.Clip{{
			ID:           "c",
			Buffer:       &project.SampleBuffer{SampleRate: 8000, Channels: [][]float64{ramp}},
			Start:        0.01,
			Duration:     0.05,
			SourceOffset: 0.025,
		}},
	}

	r, err := New(WithProcessorOptions(core.WithSampleRate(8000)), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	m, err := r.Render(context.Background(), []project.Track{track})
	if err != nil {
		t.Fatal(err)
	}

	left := m.Channels[0]
	if left[79] != 0 {
		t.Fatalf("sound before clip start: %v", left[79])
	}
	testutil.RequireSliceNearlyEqual(t, left[80:480], ramp[200:600], 1e-12)
}

func TestRenderCancelled(t *testing.T) {
	t.Parallel()

	r, err := New(WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Render(ctx, arrangement()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestRenderFailsOnBadSettings(t *testing.T) {
	t.Parallel()

	track := sineTrack("bad", 440, 8000, 0.1)
	track.Effects = []effectchain.Descriptor{{ID: effectchain.IDDelay, Settings: "fast"}}

	r, err := New(WithProcessorOptions(core.WithSampleRate(8000)), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Render(context.Background(), []project.Track{track}); !errors.Is(err, effectchain.ErrInvalidSettings) {
		t.Fatalf("err=%v, want ErrInvalidSettings", err)
	}
}

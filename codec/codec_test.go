package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-daw/internal/testutil"
)

func TestQuantizePCM16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{2, 32767},
		{-3, -32768},
		{0.5, 16383},
		{-0.5, -16384},
		{1.0 / 32767 * 0.99, 0},
		{math.NaN(), 0},
	}

	for _, tc := range tests {
		if got := QuantizePCM16(tc.in); got != tc.want {
			t.Fatalf("QuantizePCM16(%v)=%d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	t.Parallel()

	left := testutil.DeterministicSine(440, 8000, 0.5, 100)
	right := testutil.DeterministicSine(220, 8000, 0.5, 100)

	var w WriteSeeker
	if err := EncodeWAV(&w, [][]float64{left, right}, 8000); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	data := w.Bytes()
	if len(data) != WAVHeaderSize+100*2*2 {
		t.Fatalf("size=%d, want %d", len(data), WAVHeaderSize+400)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"riff", string(data[0:4]), "RIFF"},
		{"riff size", binary.LittleEndian.Uint32(data[4:8]), uint32(len(data) - 8)},
		{"wave", string(data[8:12]), "WAVE"},
		{"fmt", string(data[12:16]), "fmt "},
		{"fmt size", binary.LittleEndian.Uint32(data[16:20]), uint32(16)},
		{"format", binary.LittleEndian.Uint16(data[20:22]), uint16(1)},
		{"channels", binary.LittleEndian.Uint16(data[22:24]), uint16(2)},
		{"rate", binary.LittleEndian.Uint32(data[24:28]), uint32(8000)},
		{"byte rate", binary.LittleEndian.Uint32(data[28:32]), uint32(8000 * 4)},
		{"block align", binary.LittleEndian.Uint16(data[32:34]), uint16(4)},
		{"bits", binary.LittleEndian.Uint16(data[34:36]), uint16(16)},
		{"data", string(data[36:40]), "data"},
		{"data size", binary.LittleEndian.Uint32(data[40:44]), uint32(400)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s=%v, want %v", c.name, c.got, c.want)
		}
	}

	first := int16(binary.LittleEndian.Uint16(data[44:46]))
	if int(first) != QuantizePCM16(left[0]) {
		t.Fatalf("first sample %d, want %d", first, QuantizePCM16(left[0]))
	}
	second := int16(binary.LittleEndian.Uint16(data[46:48]))
	if int(second) != QuantizePCM16(right[0]) {
		t.Fatalf("interleaving broken: %d, want %d", second, QuantizePCM16(right[0]))
	}
}

func TestWAVRoundTrip(t *testing.T) {
	t.Parallel()

	src := testutil.DeterministicSine(440, 44100, 0.9, 44100)

	var w WriteSeeker
	if err := EncodeWAV(&w, [][]float64{src, src}, 44100); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	buf, err := Decode(bytes.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if buf.SampleRate != 44100 || len(buf.Channels) != 2 || buf.Frames() != len(src) {
		t.Fatalf("decoded %v Hz, %d channels, %d frames", buf.SampleRate, len(buf.Channels), buf.Frames())
	}
	testutil.RequireSliceNearlyEqual(t, buf.Channels[0], src, 1.0/32767)
	testutil.RequireSliceNearlyEqual(t, buf.Channels[1], src, 1.0/32767)
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	t.Parallel()

	var w WriteSeeker
	cases := []struct {
		name     string
		channels [][]float64
		rate     int
	}{
		{"no channels", nil, 44100},
		{"bad rate", [][]float64{{0}}, 0},
		{"ragged", [][]float64{{0, 0}, {0}}, 44100},
	}
	for _, tc := range cases {
		if err := EncodeWAV(&w, tc.channels, tc.rate); !errors.Is(err, ErrEncode) {
			t.Fatalf("%s: err=%v, want ErrEncode", tc.name, err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	inputs := map[string][]byte{
		"empty":     nil,
		"short":     []byte("RI"),
		"garbage":   []byte("this is not audio at all"),
		"bad mpeg":  append([]byte("ID3"), make([]byte, 32)...),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrDecode) {
				t.Fatalf("err=%v, want ErrDecode", err)
			}
		})
	}
}

func TestDecodeTruncatedWAV(t *testing.T) {
	t.Parallel()

	var w WriteSeeker
	if err := EncodeWAV(&w, [][]float64{testutil.Ones(64)}, 8000); err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeWAV(bytes.NewReader(w.Bytes()[:WAVHeaderSize])); !errors.Is(err, ErrDecode) {
		t.Fatalf("err=%v, want ErrDecode", err)
	}
}

func TestWriteSeeker(t *testing.T) {
	t.Parallel()

	var w WriteSeeker
	_, _ = w.Write([]byte("hello world"))
	if _, err := w.Seek(6, 0); err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("there"))
	if got := string(w.Bytes()); got != "hello there" {
		t.Fatalf("got %q", got)
	}
	if _, err := w.Seek(-1, 0); err == nil {
		t.Fatal("negative seek accepted")
	}
}

package effectchain

import (
	"errors"
	"log/slog"
	"testing"
)

type namedPlugin struct {
	utilityPlugin
	id, name string
}

func (p namedPlugin) ID() string   { return p.id }
func (p namedPlugin) Name() string { return p.name }

func TestRegistryDuplicateKeepsFirst(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(WithRegistryLogger(slog.New(slog.DiscardHandler)))
	if err := reg.Register(namedPlugin{id: "x", name: "first"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err := reg.Register(namedPlugin{id: "x", name: "second"})
	if !errors.Is(err, ErrDuplicatePlugin) {
		t.Fatalf("duplicate err=%v, want ErrDuplicatePlugin", err)
	}

	if got := reg.Lookup("x").Name(); got != "first" {
		t.Fatalf("Lookup kept %q, want first", got)
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, p := range []Plugin{nil, namedPlugin{id: ""}, namedPlugin{id: IDReverb}, namedPlugin{id: "autotune"}} {
		if err := reg.Register(p); !errors.Is(err, ErrInvalidPlugin) {
			t.Fatalf("Register(%v) err=%v, want ErrInvalidPlugin", p, err)
		}
	}
}

func TestDefaultRegistryBuiltins(t *testing.T) {
	t.Parallel()

	ids := DefaultRegistry().IDs()
	want := []string{IDChorus, IDNoiseGate, IDStereoWidth, IDTremolo, IDUtility}
	if len(ids) < len(want) {
		t.Fatalf("IDs()=%v, want at least %v", ids, want)
	}
	for _, id := range want {
		if DefaultRegistry().Lookup(id) == nil {
			t.Fatalf("built-in %q missing", id)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want Kind
	}{
		{"eq", KindEQ},
		{"parametric-eq", KindEQ},
		{"compressor", KindCompressor},
		{"reverb", KindReverb},
		{"delay", KindDelay},
		{"distortion", KindDistortion},
		{"pitch-correction", KindPitch},
		{IDUtility, KindPlugin},
		{IDChorus, KindPlugin},
		{"does-not-exist", KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			t.Parallel()
			if got, _ := Resolve(tc.id, DefaultRegistry()); got != tc.want {
				t.Fatalf("Resolve(%q)=%v, want %v", tc.id, got, tc.want)
			}
		})
	}
}

func TestToParamsFlatAndNested(t *testing.T) {
	t.Parallel()

	p, err := toParams(map[string]any{
		"gain": -6.0,
		"mono": true,
		"mode": "fast",
		"num":  map[string]any{"hold": 0.2},
	})
	if err != nil {
		t.Fatalf("toParams: %v", err)
	}

	if p.GetNum("gain", 0) != -6 || p.GetNum("mono", 0) != 1 || p.GetNum("hold", 0) != 0.2 {
		t.Fatalf("unexpected numbers: %+v", p.Num)
	}
	if p.GetStr("mode", "") != "fast" {
		t.Fatalf("mode=%q", p.GetStr("mode", ""))
	}

	if _, err := toParams(map[string]any{"bad": []int{1}}); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("err=%v, want ErrInvalidSettings", err)
	}
}

package effectchain

// Kind classifies how a descriptor is materialized.
type Kind int

// Effect kinds. The legacy kinds form a closed set; everything else goes
// through the plugin registry.
const (
	KindUnknown Kind = iota
	KindEQ
	KindCompressor
	KindReverb
	KindDelay
	KindDistortion
	KindPitch
	KindPlugin
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindEQ:         "eq",
	KindCompressor: "compressor",
	KindReverb:     "reverb",
	KindDelay:      "delay",
	KindDistortion: "distortion",
	KindPitch:      "pitch",
	KindPlugin:     "plugin",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Legacy descriptor ids, including the aliases older projects use.
const (
	IDEQ         = "eq"
	IDCompressor = "compressor"
	IDReverb     = "reverb"
	IDDelay      = "delay"
	IDDistortion = "distortion"
	IDPitch      = "pitch"
)

var legacyKinds = map[string]Kind{
	IDEQ:               KindEQ,
	"parametric-eq":    KindEQ,
	IDCompressor:       KindCompressor,
	IDReverb:           KindReverb,
	IDDelay:            KindDelay,
	IDDistortion:       KindDistortion,
	IDPitch:            KindPitch,
	"pitch-correction": KindPitch,
	"autotune":         KindPitch,
}

// Resolve maps a descriptor id to its kind. Legacy ids win over plugins;
// ids found in neither place resolve to KindUnknown.
func Resolve(id string, reg *Registry) (Kind, Plugin) {
	if k, ok := legacyKinds[id]; ok {
		return k, nil
	}

	if reg != nil {
		if p := reg.Lookup(id); p != nil {
			return KindPlugin, p
		}
	}

	return KindUnknown, nil
}

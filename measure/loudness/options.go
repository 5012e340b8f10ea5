package loudness

import "github.com/cwbudde/algo-daw/dsp/core"

// MeterConfig configures a Meter.
type MeterConfig struct {
	SampleRate float64
	Channels   int
}

// MeterOption mutates a MeterConfig.
type MeterOption func(*MeterConfig)

// DefaultMeterConfig meters stereo at the workstation's default rate.
func DefaultMeterConfig() MeterConfig {
	def := core.DefaultProcessorConfig()
	return MeterConfig{SampleRate: def.SampleRate, Channels: def.Channels}
}

// WithSampleRate sets the metered sample rate.
func WithSampleRate(sampleRate float64) MeterOption {
	return func(cfg *MeterConfig) {
		if sampleRate > 0 && core.Finite(sampleRate) {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithChannels sets the number of metered channels.
func WithChannels(channels int) MeterOption {
	return func(cfg *MeterConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// ApplyMeterOptions applies zero or more options to the default config.
func ApplyMeterOptions(opts ...MeterOption) MeterConfig {
	cfg := DefaultMeterConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

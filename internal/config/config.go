// Package config loads command-line tool settings from environment
// variables with typed fallbacks.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-daw/dsp/core"
)

// Config holds runtime settings shared by the command-line tools.
type Config struct {
	// Engine
	SampleRate float64
	BlockSize  int
	Channels   int

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	// Offline rendering
	ImpulseSeed uint64
	TailSeconds float64
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	def := core.DefaultProcessorConfig()

	return Config{
		SampleRate: envFloat("DAW_SAMPLE_RATE", def.SampleRate),
		BlockSize:  envInt("DAW_BLOCK_SIZE", def.BlockSize),
		Channels:   envInt("DAW_CHANNELS", def.Channels),

		LogLevel:  envStr("DAW_LOG_LEVEL", "info"),
		LogFormat: envStr("DAW_LOG_FORMAT", "text"),

		ImpulseSeed: envUint("DAW_IMPULSE_SEED", 1),
		TailSeconds: envFloat("DAW_TAIL_SECONDS", 0),
	}
}

// ProcessorOptions converts the engine settings to processor options.
func (c Config) ProcessorOptions() []core.ProcessorOption {
	return []core.ProcessorOption{
		core.WithSampleRate(c.SampleRate),
		core.WithBlockSize(c.BlockSize),
		core.WithChannels(c.Channels),
	}
}

// Level parses LogLevel. Unknown names fall back to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds a logger writing to w in the configured format.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: c.Level()}

	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

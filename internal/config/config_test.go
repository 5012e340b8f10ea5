package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cwbudde/algo-daw/dsp/core"
)

var envVars = []string{
	"DAW_SAMPLE_RATE", "DAW_BLOCK_SIZE", "DAW_CHANNELS",
	"DAW_LOG_LEVEL", "DAW_LOG_FORMAT", "DAW_IMPULSE_SEED", "DAW_TAIL_SECONDS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	def := core.DefaultProcessorConfig()

	if cfg.SampleRate != def.SampleRate {
		t.Errorf("SampleRate = %v, want %v", cfg.SampleRate, def.SampleRate)
	}
	if cfg.BlockSize != def.BlockSize {
		t.Errorf("BlockSize = %d, want %d", cfg.BlockSize, def.BlockSize)
	}
	if cfg.Channels != def.Channels {
		t.Errorf("Channels = %d, want %d", cfg.Channels, def.Channels)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ImpulseSeed != 1 {
		t.Errorf("ImpulseSeed = %d, want 1", cfg.ImpulseSeed)
	}
	if cfg.TailSeconds != 0 {
		t.Errorf("TailSeconds = %v, want 0", cfg.TailSeconds)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAW_SAMPLE_RATE", "48000")
	t.Setenv("DAW_BLOCK_SIZE", "256")
	t.Setenv("DAW_CHANNELS", "1")
	t.Setenv("DAW_LOG_LEVEL", "debug")
	t.Setenv("DAW_LOG_FORMAT", "json")
	t.Setenv("DAW_IMPULSE_SEED", "42")
	t.Setenv("DAW_TAIL_SECONDS", "2.5")

	cfg := Load()

	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %v, want 48000", cfg.SampleRate)
	}
	if cfg.BlockSize != 256 {
		t.Errorf("BlockSize = %d, want 256", cfg.BlockSize)
	}
	if cfg.Channels != 1 {
		t.Errorf("Channels = %d, want 1", cfg.Channels)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", cfg.Level())
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.ImpulseSeed != 42 {
		t.Errorf("ImpulseSeed = %d, want 42", cfg.ImpulseSeed)
	}
	if cfg.TailSeconds != 2.5 {
		t.Errorf("TailSeconds = %v, want 2.5", cfg.TailSeconds)
	}

	pc := core.ApplyProcessorOptions(cfg.ProcessorOptions()...)
	if pc.SampleRate != 48000 || pc.BlockSize != 256 || pc.Channels != 1 {
		t.Errorf("ProcessorOptions = %+v", pc)
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAW_SAMPLE_RATE", "fast")
	t.Setenv("DAW_BLOCK_SIZE", "1.5")
	t.Setenv("DAW_IMPULSE_SEED", "-3")

	cfg := Load()
	def := core.DefaultProcessorConfig()

	if cfg.SampleRate != def.SampleRate {
		t.Errorf("SampleRate = %v, want fallback %v", cfg.SampleRate, def.SampleRate)
	}
	if cfg.BlockSize != def.BlockSize {
		t.Errorf("BlockSize = %d, want fallback %d", cfg.BlockSize, def.BlockSize)
	}
	if cfg.ImpulseSeed != 1 {
		t.Errorf("ImpulseSeed = %d, want fallback 1", cfg.ImpulseSeed)
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := (Config{LogLevel: tt.in}).Level(); got != tt.want {
				t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := Config{LogLevel: "warn", LogFormat: "json"}.Logger(&buf)
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "track", "drums")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("info record passed warn level: %s", line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("json record: %v (%s)", err, line)
	}
	if rec["msg"] != "shown" || rec["track"] != "drums" {
		t.Errorf("record = %v", rec)
	}

	if _, err := (Config{LogFormat: "xml"}).Logger(&buf); err == nil {
		t.Error("expected error for unknown format")
	}
}

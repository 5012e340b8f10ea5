// Command dawrender mixes an arrangement file down to a 16-bit WAV file.
//
// Usage:
//
//	dawrender [flags] arrangement.json
//
// Engine and logging defaults come from DAW_* environment variables; flags
// override them.
//
// Examples:
//
//	dawrender -o mix.wav song.json
//	dawrender -sr 48000 -tail 3 -o mix.wav song.json
//	dawrender -watch -o mix.wav song.json
//	DAW_LOG_FORMAT=json dawrender -o mix.wav song.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cwbudde/algo-daw/codec"
	"github.com/cwbudde/algo-daw/internal/config"
	"github.com/cwbudde/algo-daw/project"
	"github.com/cwbudde/algo-daw/render"
)

type options struct {
	cfg         config.Config
	output      string
	watch       bool
	concurrency int
	rateSet     bool
}

func main() {
	opts, path, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	logger, err := opts.cfg.Logger(os.Stderr)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.watch {
		err = watch(ctx, opts, path, logger)
	} else {
		err = renderFile(ctx, opts, path, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("dawrender failed", "err", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, string, error) {
	opts := options{cfg: config.Load()}

	fs := flag.NewFlagSet("dawrender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.output, "o", "mix.wav", "output WAV file")
	fs.Float64Var(&opts.cfg.SampleRate, "sr", opts.cfg.SampleRate, "render sample rate in Hz (default from arrangement or DAW_SAMPLE_RATE)")
	fs.IntVar(&opts.cfg.BlockSize, "block", opts.cfg.BlockSize, "render block size in frames")
	fs.IntVar(&opts.cfg.Channels, "channels", opts.cfg.Channels, "output channel count")
	fs.Uint64Var(&opts.cfg.ImpulseSeed, "seed", opts.cfg.ImpulseSeed, "reverb impulse seed")
	fs.Float64Var(&opts.cfg.TailSeconds, "tail", opts.cfg.TailSeconds, "seconds rendered after the last clip ends")
	fs.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&opts.cfg.LogFormat, "log-format", opts.cfg.LogFormat, "log format: text or json")
	fs.IntVar(&opts.concurrency, "j", 0, "tracks rendered in parallel (0 = GOMAXPROCS)")
	fs.BoolVar(&opts.watch, "watch", false, "re-render whenever the arrangement or a clip source changes")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: dawrender [flags] arrangement.json\n\n")
		_, _ = fmt.Fprintf(stderr, "Mixes an arrangement down to a 16-bit PCM WAV file.\n\n")
		_, _ = fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(stderr, "\nExamples:\n")
		_, _ = fmt.Fprintf(stderr, "  dawrender -o mix.wav song.json\n")
		_, _ = fmt.Fprintf(stderr, "  dawrender -sr 48000 -tail 3 -o mix.wav song.json\n")
		_, _ = fmt.Fprintf(stderr, "  dawrender -watch -o mix.wav song.json\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, "", err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "sr" {
			opts.rateSet = true
		}
	})
	if os.Getenv("DAW_SAMPLE_RATE") != "" {
		opts.rateSet = true
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return opts, "", errors.New("dawrender: expected exactly one arrangement file")
	}
	return opts, fs.Arg(0), nil
}

// renderFile loads, renders and writes one arrangement. The output is
// written next to its destination and renamed into place so a watcher
// never sees a half-written file.
func renderFile(ctx context.Context, opts options, path string, logger *slog.Logger) error {
	arr, err := project.LoadArrangement(path)
	if err != nil {
		return err
	}

	tracks, err := arr.Resolve(sourceLoader(filepath.Dir(path)))
	if err != nil {
		return err
	}

	cfg := opts.cfg
	if !opts.rateSet && arr.SampleRate > 0 {
		cfg.SampleRate = arr.SampleRate
	}

	renderOpts := []render.Option{
		render.WithProcessorOptions(cfg.ProcessorOptions()...),
		render.WithLogger(logger),
		render.WithImpulseSeed(cfg.ImpulseSeed),
		render.WithTail(cfg.TailSeconds),
	}
	if opts.concurrency > 0 {
		renderOpts = append(renderOpts, render.WithConcurrency(opts.concurrency))
	}

	r, err := render.New(renderOpts...)
	if err != nil {
		return err
	}

	tmp := opts.output + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("dawrender: %w", err)
	}

	m, err := r.RenderWAV(ctx, tracks, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, opts.output); err != nil {
		return fmt.Errorf("dawrender: %w", err)
	}

	logger.Info("wrote mix",
		"file", opts.output,
		"tracks", len(tracks),
		"seconds", float64(m.Frames())/m.SampleRate,
		"peak", m.Peak,
		"lufs", m.Loudness,
	)
	if m.Peak > 1 {
		logger.Warn("mix clips", "peak", m.Peak)
	}
	return nil
}

// sourceLoader resolves relative clip sources against the arrangement's
// directory.
func sourceLoader(dir string) project.Loader {
	return func(source string) (*project.SampleBuffer, error) {
		if !filepath.IsAbs(source) {
			source = filepath.Join(dir, source)
		}
		return codec.DecodeFile(source)
	}
}

// sources lists the absolute paths an arrangement depends on.
func sources(path string) ([]string, error) {
	arr, err := project.LoadArrangement(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	seen := map[string]bool{}
	var out []string
	for _, t := range arr.Tracks {
		for _, c := range t.Clips {
			src := c.Source
			if !filepath.IsAbs(src) {
				src = filepath.Join(dir, src)
			}
			if !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
		}
	}
	return out, nil
}

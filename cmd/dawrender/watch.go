package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits for a burst of editor writes to end.
const settle = 200 * time.Millisecond

// watch renders once, then again whenever the arrangement or one of its
// clip sources changes. Directories are watched rather than files because
// most editors save by renaming a temporary file over the original.
func watch(ctx context.Context, opts options, path string, logger *slog.Logger) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("dawrender: %w", err)
	}
	output, err := filepath.Abs(opts.output)
	if err != nil {
		return fmt.Errorf("dawrender: %w", err)
	}
	opts.output = output

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dawrender: watch: %w", err)
	}
	defer w.Close()

	ws := &watchSet{w: w, dirs: map[string]bool{}, files: map[string]bool{}}

	rerender := func() {
		if err := renderFile(ctx, opts, path, logger); err != nil {
			logger.Error("render failed", "err", err)
		}
		if err := ws.refresh(path); err != nil {
			logger.Warn("watch list not updated", "err", err)
		}
	}

	if err := ws.add(path); err != nil {
		return err
	}
	rerender()
	logger.Info("watching", "arrangement", path, "files", len(ws.files))

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Clean(ev.Name)
			if name == output || !ws.files[name] {
				continue
			}
			logger.Debug("change", "file", name, "op", ev.Op.String())
			timer.Reset(settle)

		case <-timer.C:
			rerender()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}

type watchSet struct {
	w     *fsnotify.Watcher
	dirs  map[string]bool
	files map[string]bool
}

func (ws *watchSet) add(file string) error {
	file = filepath.Clean(file)
	ws.files[file] = true

	dir := filepath.Dir(file)
	if ws.dirs[dir] {
		return nil
	}
	if err := ws.w.Add(dir); err != nil {
		return fmt.Errorf("dawrender: watch %s: %w", dir, err)
	}
	ws.dirs[dir] = true
	return nil
}

// refresh re-reads the arrangement's source list so clips added by an edit
// are watched too.
func (ws *watchSet) refresh(path string) error {
	srcs, err := sources(path)
	if err != nil {
		return err
	}
	for _, s := range srcs {
		if err := ws.add(s); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce groups the burst of events editors emit for a single save.
const debounce = 150 * time.Millisecond

// watch runs the checks, then re-runs them whenever the schema or a value
// file changes, until ctx is done. It returns the exit code of the last run.
func (a *app) watch(ctx context.Context) int {
	for _, f := range a.config.Files {
		if f == "-" {
			fmt.Fprintln(a.stderr, "Error: -watch cannot read from stdin")
			return exitUsage
		}
	}

	code := a.run(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: starting watcher: %v\n", err)
		return exitUsage
	}
	defer w.Close()

	targets := a.watchTargets()
	if err := watchAll(w, targets); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitUsage
	}
	a.log.Info("watching %d file(s) for changes", len(targets))

	var rerun <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return code
		case ev, ok := <-w.Events:
			if !ok {
				return code
			}
			if relevant(ev, targets, a.config.Files) {
				a.log.With("op", ev.Op).Debug("changed: %s", ev.Name)
				rerun = time.After(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return code
			}
			a.log.Warn("watcher: %v", err)
		case <-rerun:
			rerun = nil
			fmt.Fprintln(a.stdout)
			code = a.run(ctx)

			// Globs may match new files and new directories.
			targets = a.watchTargets()
			if err := watchAll(w, targets); err != nil {
				a.log.Warn("%v", err)
			}
		}
	}
}

// watchAll watches the parent directory of every target. Directories are
// watched rather than files so that editors replacing a file by rename keep
// being observed. Adding a directory twice is harmless.
func watchAll(w *fsnotify.Watcher, targets map[string]bool) error {
	for dir := range watchDirs(targets) {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return nil
}

// watchTargets returns the cleaned paths of the schema and every file the
// value patterns currently match. Patterns matching nothing are kept as
// literal paths so that creating the file triggers a run.
func (a *app) watchTargets() map[string]bool {
	targets := make(map[string]bool)
	if a.config.Schema != "" {
		targets[filepath.Clean(a.config.Schema)] = true
	}
	for _, pattern := range a.config.Files {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			targets[filepath.Clean(pattern)] = true
			continue
		}
		for _, m := range matches {
			targets[filepath.Clean(m)] = true
		}
	}
	return targets
}

func watchDirs(targets map[string]bool) map[string]bool {
	dirs := make(map[string]bool, len(targets))
	for path := range targets {
		dirs[filepath.Dir(path)] = true
	}
	return dirs
}

// relevant reports whether ev changes the content of a watched file: a
// current target, or a new file matching one of the value patterns.
func relevant(ev fsnotify.Event, targets map[string]bool, patterns []string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if targets[name] {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(filepath.Clean(pattern), name); ok {
			return true
		}
	}
	return false
}

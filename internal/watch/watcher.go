// Package watch reports changes to the config documents and stored images,
// whether made through marquee or by editing the storage root directly.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/marquee/internal/checksum"
	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/images"
	"github.com/starford/marquee/internal/storage"
)

// Change kinds.
const (
	KindCells  = "cells"
	KindConfig = "config"
	KindImages = "images"
)

// Debounce is how long a file must stay quiet before its change is reported.
const Debounce = 100 * time.Millisecond

// Event describes one settled change.
type Event struct {
	Kind    string
	Name    string
	Removed bool
}

// Callback receives settled changes.
type Callback func(Event)

// ChecksumTracker remembers document checksums so that rewrites with
// identical content are not reported.
type ChecksumTracker interface {
	TrackChecksum(ctx context.Context, path, sum string) (bool, error)
	ForgetChecksum(ctx context.Context, path string) error
}

// Classify maps a path relative to the storage root to a change kind. It
// returns "" for paths marquee does not care about.
func Classify(rel string) string {
	dir, name := path.Split(filepath.ToSlash(rel))
	dir = strings.TrimSuffix(dir, "/")
	if name == "" || strings.HasPrefix(name, storage.TempPrefix) {
		return ""
	}
	switch dir {
	case configstore.Dir:
		if filepath.Ext(name) != ".json" {
			return ""
		}
		if name == configstore.CellsDocument {
			return KindCells
		}
		return KindConfig
	case images.Dir:
		if !images.Allowed(name) {
			return ""
		}
		return KindImages
	}
	return ""
}

// Sync records the current checksum of every config document so the first
// watcher event after startup reflects a real change.
func Sync(ctx context.Context, store storage.Provider, tracker ChecksumTracker, logger *slog.Logger) error {
	if tracker == nil {
		return nil
	}
	metas, err := store.List(configstore.Dir)
	if err != nil {
		return err
	}
	for _, m := range metas {
		rel := filepath.Join(configstore.Dir, m.Name)
		if Classify(rel) == "" {
			continue
		}
		data, err := store.Read(rel)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		if _, err := tracker.TrackChecksum(ctx, rel, checksum.Sum(data)); err != nil {
			logger.Warn("sync: track failed", slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: tracked", slog.String("path", rel))
	}
	return nil
}

// Watch watches the config and image directories under root until ctx is
// cancelled, calling cb once per settled change. Both directories are created
// when missing. tracker may be nil.
func Watch(ctx context.Context, root string, store storage.Provider, tracker ChecksumTracker, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range []string{configstore.Dir, images.Dir} {
		abs := filepath.Join(root, dir)
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return err
		}
		if err := w.Add(abs); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.String("root", root))

	deb := newDebouncer(Debounce, ctx.Done())
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case p := <-deb.out:
			if !deb.take(p) {
				continue
			}
			if ev, ok := settle(ctx, store, tracker, logger, p.rel); ok {
				logger.Debug("watcher: changed",
					slog.String("kind", ev.Kind),
					slog.String("name", ev.Name),
					slog.Bool("removed", ev.Removed))
				if cb != nil {
					cb(ev)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || Classify(rel) == "" {
				continue
			}
			deb.schedule(rel)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// pending is one scheduled settle. seq identifies the schedule that
// produced it.
type pending struct {
	rel string
	seq uint64
}

// debouncer delays settles per path. It is owned by the watch loop; only the
// timer callbacks run elsewhere, and they just send on out.
type debouncer struct {
	delay  time.Duration
	out    chan pending
	done   <-chan struct{}
	seq    uint64
	latest map[string]uint64
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration, done <-chan struct{}) *debouncer {
	return &debouncer{
		delay:  delay,
		out:    make(chan pending, 64),
		done:   done,
		latest: make(map[string]uint64),
		timers: make(map[string]*time.Timer),
	}
}

// schedule (re)starts the quiet period for rel. A send from an earlier timer
// that already fired becomes stale.
func (d *debouncer) schedule(rel string) {
	if t, ok := d.timers[rel]; ok {
		t.Stop()
	}
	d.seq++
	p := pending{rel: rel, seq: d.seq}
	d.latest[rel] = p.seq
	d.timers[rel] = time.AfterFunc(d.delay, func() {
		select {
		case d.out <- p:
		case <-d.done:
		}
	})
}

// take reports whether p is the latest schedule for its path and forgets
// the path if so.
func (d *debouncer) take(p pending) bool {
	if d.latest[p.rel] != p.seq {
		return false
	}
	delete(d.latest, p.rel)
	delete(d.timers, p.rel)
	return true
}

func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
}

// settle turns a quiet path into an Event, checking what is on disk now
// rather than trusting the last fsnotify op.
func settle(ctx context.Context, store storage.Provider, tracker ChecksumTracker, logger *slog.Logger, rel string) (Event, bool) {
	ev := Event{Kind: Classify(rel), Name: filepath.Base(rel)}

	if ev.Kind == KindImages {
		exists, err := store.Exists(rel)
		if err != nil {
			logger.Warn("watcher: stat failed", slog.String("path", rel), slog.String("error", err.Error()))
			return ev, false
		}
		ev.Removed = !exists
		return ev, true
	}

	data, err := store.Read(rel)
	if errors.Is(err, os.ErrNotExist) {
		ev.Removed = true
		if tracker != nil {
			if err := tracker.ForgetChecksum(ctx, rel); err != nil {
				logger.Warn("watcher: forget failed", slog.String("path", rel), slog.String("error", err.Error()))
			}
		}
		return ev, true
	}
	if err != nil {
		logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return ev, false
	}

	if tracker != nil {
		changed, err := tracker.TrackChecksum(ctx, rel, checksum.Sum(data))
		if err != nil {
			logger.Warn("watcher: track failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else if !changed {
			return ev, false
		}
	}
	return ev, true
}

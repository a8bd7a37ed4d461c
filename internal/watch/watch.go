// Package watch re-runs sprite generation when frames change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes the sprite base directory and each creature folder and
// calls OnChange once a burst of changes has settled for Debounce.
type Watcher struct {
	base     string
	folders  map[string]bool
	debounce time.Duration
	onChange func(context.Context) error
	logger   *zap.Logger
}

// New constructs a Watcher for the given creature folders under base.
//
// Precondition: onChange and logger must be non-nil; debounce >= 0.
func New(base string, folders []string, debounce time.Duration, onChange func(context.Context) error, logger *zap.Logger) *Watcher {
	set := make(map[string]bool, len(folders))
	for _, f := range folders {
		set[f] = true
	}
	return &Watcher{
		base:     filepath.Clean(base),
		folders:  set,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

// Run watches until ctx is done. Errors from OnChange are logged and the
// watch continues; a creature folder created after Run starts is picked up.
//
// Postcondition: Returns nil when ctx is cancelled, or an error if the base
// directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.base); err != nil {
		return fmt.Errorf("watching %s: %w", w.base, err)
	}
	for f := range w.folders {
		w.add(fw, filepath.Join(w.base, f))
	}
	w.logger.Info("watching sprites", zap.String("base_dir", w.base), zap.Int("folders", len(w.folders)))

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.Relevant(ev) {
				continue
			}
			w.logger.Debug("sprite change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == w.base {
				w.add(fw, ev.Name)
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		case <-timer.C:
			start := time.Now()
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("regeneration failed", zap.Error(err))
				continue
			}
			w.logger.Info("regenerated", zap.Duration("elapsed", time.Since(start)))
		}
	}
}

func (w *Watcher) add(fw *fsnotify.Watcher, dir string) {
	if err := fw.Add(dir); err != nil {
		w.logger.Debug("not watching creature folder", zap.String("dir", dir), zap.Error(err))
	}
}

// Relevant reports whether ev concerns frames: any change inside a
// creature folder, or a creature folder itself appearing or disappearing
// in the base directory. Chmod-only events and other files in the base
// directory, such as generated resources, are ignored.
func (w *Watcher) Relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	dir, name := filepath.Split(filepath.Clean(ev.Name))
	dir = filepath.Clean(dir)
	if dir == w.base {
		return w.folders[name]
	}
	return filepath.Dir(dir) == w.base && w.folders[filepath.Base(dir)]
}

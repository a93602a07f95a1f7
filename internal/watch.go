package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/furlinter/furlint/internal/types"
)

const (
	defaultDebounce = 100 * time.Millisecond
	minTickInterval = time.Millisecond
)

var ErrAlreadyWatching = errors.New("already watching")

// ReportFunc receives the issues of a file re-linted after a change.
type ReportFunc func(filename string, issues []tt.Issue)

// Watcher re-lints files below a set of directories when they are written.
type Watcher struct {
	engine     *Engine
	logger     *zap.Logger
	report     ReportFunc
	accept     func(path string) bool
	watchDirs  []string
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	isWatching bool
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewWatcher creates a Watcher for dirs. accept selects the files to lint.
func NewWatcher(engine *Engine, logger *zap.Logger, accept func(string) bool, report ReportFunc, dirs ...string) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		engine:    engine,
		logger:    logger,
		report:    report,
		accept:    accept,
		watchDirs: dirs,
		debounce:  defaultDebounce,
	}
}

// SetDebounce sets how long a file must stay quiet before it is linted.
// Non-positive durations restore the default.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d <= 0 {
		d = defaultDebounce
	}
	w.debounce = d
}

func (w *Watcher) StartWatching() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isWatching {
		return ErrAlreadyWatching
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	for _, dir := range w.watchDirs {
		if err := w.addTree(watcher, dir); err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.isWatching = true
	w.wg.Add(1)
	go w.watchLoop(watcher, w.done, w.debounce)
	return nil
}

func (w *Watcher) StopWatching() error {
	w.mu.Lock()
	if !w.isWatching {
		w.mu.Unlock()
		w.logger.Debug("not watching")
		return nil
	}
	w.isWatching = false
	close(w.done)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && w.engine.IsIgnoredPath(path) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) watchLoop(watcher *fsnotify.Watcher, done <-chan struct{}, debounce time.Duration) {
	defer w.wg.Done()

	// wait for a while after file change to consider multiple changes as one
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(debounce/2, minTickInterval))
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(watcher, event, pending)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		case now := <-ticker.C:
			w.flush(pending, now, debounce)
		}
	}
}

func (w *Watcher) handleFileEvent(watcher *fsnotify.Watcher, event fsnotify.Event, pending map[string]time.Time) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(watcher, event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}

	if w.accept != nil && !w.accept(event.Name) {
		return
	}
	pending[event.Name] = time.Now()
}

func (w *Watcher) flush(pending map[string]time.Time, now time.Time, debounce time.Duration) {
	var ready []string
	for name, at := range pending {
		if now.Sub(at) >= debounce {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	for _, name := range ready {
		delete(pending, name)
		issues, err := w.engine.Run(name)
		if err != nil {
			w.logger.Error("error linting changed file", zap.String("file", name), zap.Error(err))
			continue
		}
		w.reportIssues(name, issues)
	}
}

func (w *Watcher) reportIssues(filename string, issues []tt.Issue) {
	if len(issues) == 0 {
		w.logger.Info("no issues found", zap.String("file", filename))
	} else {
		w.logger.Info("issues found", zap.String("file", filename), zap.Int("count", len(issues)))
	}
	if w.report != nil {
		w.report(filename, issues)
	}
}

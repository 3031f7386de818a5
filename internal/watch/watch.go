// Package watch rebakes a site when its sources change and, optionally, on a
// fixed interval.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pagebaker/internal/logfields"
)

// RebuildFunc performs one rebake. The reason is "initial", "change" or "interval".
type RebuildFunc func(ctx context.Context, reason string) error

// Options configure a Watcher.
type Options struct {
	// Dirs are watched recursively.
	Dirs []string
	// Ignore lists directories whose events never trigger a rebuild, such as
	// the output directory when it lives inside a watched directory.
	Ignore []string
	// Debounce coalesces bursts of events; defaults to 300ms.
	Debounce time.Duration
	// Interval schedules periodic rebuilds when positive.
	Interval time.Duration
	Logger   *slog.Logger
}

// Watcher serializes rebuilds triggered by file events and the scheduler.
type Watcher struct {
	opts    Options
	rebuild RebuildFunc
	logger  *slog.Logger

	requests chan string

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending string
}

// New returns a watcher calling rebuild.
func New(opts Options, rebuild RebuildFunc) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		opts:     opts,
		rebuild:  rebuild,
		logger:   logger,
		requests: make(chan string, 1),
	}
}

// Run performs an initial rebuild, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()
	for _, dir := range w.opts.Dirs {
		w.addDirsRecursive(fw, dir)
	}

	if w.opts.Interval > 0 {
		scheduler, err := w.startScheduler()
		if err != nil {
			return err
		}
		defer func() { _ = scheduler.Shutdown() }()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.worker(ctx)
	}()
	w.request("initial")

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			<-done
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) startScheduler() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.request, "interval"),
		gocron.WithName("periodic-rebake"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebake job: %w", err)
	}
	s.Start()
	w.logger.Info("Scheduled periodic rebakes", slog.Duration("interval", w.opts.Interval))
	return s, nil
}

// handleEvent processes a filesystem event and triggers a debounced rebuild if needed.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if ShouldIgnoreEvent(ev.Name) || w.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	w.trigger()
}

// trigger requests a rebuild once no event arrived for the debounce period.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.request("change") })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// request queues a rebuild. While one runs, requests collapse into a single
// follow-up rebuild.
func (w *Watcher) request(reason string) {
	w.mu.Lock()
	if w.running {
		w.pending = reason
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	select {
	case w.requests <- reason:
	default:
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.requests:
			w.mu.Lock()
			w.running = true
			w.mu.Unlock()

			w.runRebuild(ctx, reason)

			w.mu.Lock()
			w.running = false
			next := w.pending
			w.pending = ""
			w.mu.Unlock()
			if next != "" {
				w.request(next)
			}
		}
	}
}

func (w *Watcher) runRebuild(ctx context.Context, reason string) {
	start := time.Now()
	w.logger.Info("Rebaking site", slog.String("reason", reason))
	if err := w.rebuild(ctx, reason); err != nil {
		w.logger.Warn("Rebake failed", slog.String("reason", reason), logfields.Error(err))
		return
	}
	w.logger.Info("Rebake finished", logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.logger.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.opts.Ignore {
		if rel, err := filepath.Rel(dir, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ShouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func ShouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files, including .DS_Store and editor lock files such as .#page.md
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}

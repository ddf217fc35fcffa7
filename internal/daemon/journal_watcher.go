package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/chronicle/internal/logfields"
)

// Reloadable is the slice of the series API the watcher needs.
type Reloadable interface {
	Reload(ctx context.Context) error
}

// JournalWatcher monitors a file-backed journal written by another process
// and reloads the in-memory state when it changes. Replay is idempotent, so
// a spurious reload is harmless.
type JournalWatcher struct {
	journalPath  string
	dataset      Reloadable
	watcher      *fsnotify.Watcher
	logger       *slog.Logger
	mu           sync.Mutex
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewJournalWatcher creates a new journal file watcher.
func NewJournalWatcher(journalPath string, dataset Reloadable, logger *slog.Logger) (*JournalWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(journalPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve journal path: %w", err)
	}

	return &JournalWatcher{
		journalPath:  absPath,
		dataset:      dataset,
		watcher:      watcher,
		logger:       logger,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second, // Debounce rapid file changes
	}, nil
}

// Start begins monitoring the journal file.
func (w *JournalWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Watch the directory containing the journal (more reliable than watching the file directly)
	dir := filepath.Dir(w.journalPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch journal directory %s: %w", dir, err)
	}

	w.logger.Info("starting journal watcher", logfields.Path(w.journalPath))

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)

	return nil
}

// Stop stops the journal watcher.
func (w *JournalWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Info("stopping journal watcher")
	close(w.stopChan)
	return w.watcher.Close()
}

// watchLoop monitors file system events.
func (w *JournalWatcher) watchLoop(ctx context.Context) {
	journalFile := filepath.Base(w.journalPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != journalFile {
				continue
			}

			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				w.triggerReload()
			case event.Op&fsnotify.Create == fsnotify.Create:
				// Compaction swaps the file in via rename.
				w.triggerReload()
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				w.logger.Warn("journal file removed", logfields.Path(event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("journal watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop handles debounced reloads.
func (w *JournalWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-w.stopChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-w.reloadChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(w.debounceTime, func() {
				if err := w.performReload(ctx); err != nil {
					w.logger.Error("journal reload failed", logfields.Error(err))
				}
			})
		}
	}
}

// triggerReload triggers a debounced reload.
func (w *JournalWatcher) triggerReload() {
	select {
	case w.reloadChan <- struct{}{}:
	default:
		// Reload already pending
	}
}

// performReload replays the journal into memory.
func (w *JournalWatcher) performReload(ctx context.Context) error {
	w.logger.Info("reloading journal", logfields.Path(w.journalPath))
	if err := w.dataset.Reload(ctx); err != nil {
		return fmt.Errorf("failed to reload dataset: %w", err)
	}
	w.logger.Info("journal reloaded")
	return nil
}

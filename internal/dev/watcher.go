package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/overlay/internal/config"
)

// ChangeType represents the kind of watched file that changed.
type ChangeType int

const (
	ChangeInput ChangeType = iota
	ChangeConfig
)

func (t ChangeType) String() string {
	if t == ChangeConfig {
		return "config"
	}
	return "input"
}

// Change represents a detected file change.
type Change struct {
	Path    string
	Type    ChangeType
	Removed bool
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Files are the files to watch. Missing files are picked up once they
	// appear.
	Files []string

	// Interval is the polling interval.
	Interval time.Duration
}

// Watcher polls a fixed set of files for modification.
type Watcher struct {
	config     WatcherConfig
	onChange   func(Change)
	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	timestamps map[string]time.Time
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval <= 0 {
		config.Interval = 250 * time.Millisecond
	}
	return &Watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scanInitial()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) scanInitial() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range w.config.Files {
		if info, err := os.Stat(p); err == nil {
			w.timestamps[p] = info.ModTime()
		}
	}
}

// checkForChanges reports files whose modification time moved, files that
// appeared and files that disappeared.
func (w *Watcher) checkForChanges() {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()

	if callback == nil {
		return
	}

	var changes []Change
	for _, p := range w.config.Files {
		info, err := os.Stat(p)

		w.mu.Lock()
		lastMod, exists := w.timestamps[p]
		switch {
		case err != nil:
			if exists {
				delete(w.timestamps, p)
				changes = append(changes, Change{Path: p, Type: classifyChange(p), Removed: true})
			}
		case !exists || !info.ModTime().Equal(lastMod):
			w.timestamps[p] = info.ModTime()
			changes = append(changes, Change{Path: p, Type: classifyChange(p)})
		}
		w.mu.Unlock()
	}

	for _, change := range changes {
		callback(change)
	}
}

// classifyChange tells config files from input documents by name.
func classifyChange(path string) ChangeType {
	switch strings.ToLower(filepath.Base(path)) {
	case config.JSONFileName, config.TOMLFileName:
		return ChangeConfig
	default:
		return ChangeInput
	}
}

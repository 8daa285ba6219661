// Package watcher provides file system watching with debouncing for the
// template manifest.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/templar/internal/log"
)

// Watcher monitors the manifest file for changes and sends notifications.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	manifestPath string
	debounce     time.Duration
	onChange     chan struct{}
	done         chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	ManifestPath string
	DebounceDur  time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(manifestPath string) Config {
	return Config{
		ManifestPath: manifestPath,
		DebounceDur:  500 * time.Millisecond,
	}
}

// New creates a new manifest watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:    fsw,
		manifestPath: cfg.ManifestPath,
		debounce:     cfg.DebounceDur,
		onChange:     make(chan struct{}, 1),
		done:         make(chan struct{}),
	}, nil
}

// Start begins watching the manifest's directory. Watching the directory
// rather than the file itself survives editors that replace the file on save.
// Returns a channel that receives a signal when the manifest changes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.manifestPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// Non-blocking send - drop if channel full
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "manifest watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a re-validation. Create
// counts because editors often write a temp file and rename it over the
// manifest.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.manifestPath)
}

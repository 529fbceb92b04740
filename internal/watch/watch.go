// Package watch reports changed contract documents under a directory,
// debounced so that editors saving in several steps produce one batch.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reoring/contractkit/internal/log"
)

// Watcher monitors a directory for contract document changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	debounce time.Duration
	changes  chan []string
	done     chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Dir         string
	DebounceDur time.Duration
}

// DefaultConfig returns a config with a 300ms debounce.
func DefaultConfig(dir string) Config {
	return Config{Dir: dir, DebounceDur: 300 * time.Millisecond}
}

// New creates a watcher; call Start to begin receiving changes.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsw:      fsw,
		dir:      cfg.Dir,
		debounce: cfg.DebounceDur,
		changes:  make(chan []string, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Each value on the returned channel is the sorted
// set of document paths written since the previous batch.
func (w *Watcher) Start() (<-chan []string, error) {
	if err := w.fsw.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	go w.loop()
	return w.changes, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	pending := map[string]struct{}{}

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !IsRelevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = map[string]struct{}{}
			select {
			case w.changes <- batch:
			case <-w.done:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatch, "watch error", err, "dir", w.dir)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// IsRelevant reports whether ev writes a contract document (.json, .yaml or
// .yml). Hidden files such as editor swap files are ignored.
func IsRelevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"blockeditor/internal/logger"
)

// watchDebounce coalesces the burst of events editors produce on save.
const watchDebounce = 500 * time.Millisecond

// Watcher re-imports document files in a directory whenever they change, so
// open editing sessions follow edits made outside the editor.
type Watcher struct {
	importer *Importer
	log      logger.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewWatcher(importer *Importer, log logger.Logger) *Watcher {
	return &Watcher{importer: importer, log: log, debounce: watchDebounce}
}

// Start watches dir until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context, dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return errors.New("watcher already started")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve watch dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(absDir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", absDir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.watcher = fw
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(watchCtx, fw, w.done)

	w.log.Info("watching documents", logger.String("dir", absDir))
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fw, cancel, done := w.watcher, w.cancel, w.done
	w.watcher, w.cancel, w.done = nil, nil, nil
	w.mu.Unlock()

	if fw == nil {
		return
	}
	cancel()
	fw.Close()
	<-done
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	var timersMu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		timersMu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		timersMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			path := event.Name
			timersMu.Lock()
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				w.log.Debug("document file changed", logger.String("path", path))
				if _, err := w.importer.ImportFile(ctx, path); err != nil {
					w.log.Warn("re-import failed", logger.String("path", path), logger.Error(err))
				}
			})
			timersMu.Unlock()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", logger.Error(err))
		}
	}
}

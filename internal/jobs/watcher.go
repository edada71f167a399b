package jobs

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Rebuilder triggers one index rebuild.
type Rebuilder interface {
	Build(ctx context.Context) error
}

// KBWatcher watches the KB directory and rebuilds the index after changes
// settle. Editors and sync tools fire bursts of events per file; the
// debounce window collapses a burst into one rebuild.
type KBWatcher struct {
	watcher  *fsnotify.Watcher
	builder  Rebuilder
	dir      string
	debounce time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewKBWatcher creates a watcher over the directory of the KB glob pattern.
func NewKBWatcher(glob string, builder Rebuilder, debounce time.Duration) (*KBWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &KBWatcher{
		watcher:  watcher,
		builder:  builder,
		dir:      filepath.Dir(glob),
		debounce: debounce,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start begins watching and blocks until Stop or context cancellation.
func (w *KBWatcher) Start(ctx context.Context) {
	defer close(w.doneChan)
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		log.Printf("kb watcher: cannot watch %s: %v", w.dir, err)
		return
	}

	log.Printf("kb watcher: watching %s (debounce %v)", w.dir, w.debounce)

	// The timer idles until an event arms it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("kb watcher stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("kb watcher stopped: stop signal received")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevantOp(event.Op) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("kb watcher: %v", err)
		case <-timer.C:
			if err := w.builder.Build(ctx); err != nil {
				log.Printf("kb watcher: rebuild failed: %v", err)
			}
		}
	}
}

// Stop gracefully stops the watcher
func (w *KBWatcher) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("kb watcher shutdown complete")
}

func relevantOp(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}

// Package watch notifies dashboards when the JSON data files change on disk,
// including edits made by another process.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ralph-xpert/internal/store"
	"ralph-xpert/internal/ws"
)

const DefaultDebounce = 200 * time.Millisecond

// Broadcaster is implemented by *ws.Hub.
type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{})
}

// Watcher turns writes to contacts.json and messages.json into hub events.
type Watcher struct {
	dir      string
	hub      Broadcaster
	logger   *zap.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

func New(dir string, hub Broadcaster, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		hub:      hub,
		logger:   logger,
		debounce: DefaultDebounce,
		watcher:  fw,
		pending:  make(map[string]time.Time),
	}, nil
}

// eventFor maps a data file to the hub event it triggers.
func eventFor(path string) (string, bool) {
	switch filepath.Base(path) {
	case store.ContactsFile:
		return ws.EventContactsChanged, true
	case store.MessagesFile:
		return ws.EventMessagesChanged, true
	}
	return "", false
}

// Run blocks until ctx is cancelled, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	w.logger.Info("Watching data directory", zap.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Data watcher error", zap.Error(err))

		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	eventType, ok := eventFor(event.Name)
	if !ok {
		return
	}
	w.mu.Lock()
	w.pending[eventType] = time.Now()
	w.mu.Unlock()
}

// flush broadcasts every event that has been quiet for the debounce period.
func (w *Watcher) flush(now time.Time) {
	var ready []string
	w.mu.Lock()
	for eventType, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, eventType)
			delete(w.pending, eventType)
		}
	}
	w.mu.Unlock()

	for _, eventType := range ready {
		w.logger.Debug("Data file changed", zap.String("event", eventType))
		w.hub.BroadcastEvent(eventType, nil)
	}
}

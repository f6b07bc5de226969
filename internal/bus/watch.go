package bus

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 150 * time.Millisecond

// ChangeDetector reports whether the backing store was committed to by
// someone other than this process since the last call.
type ChangeDetector interface {
	ExternalChange(ctx context.Context) (bool, error)
}

// Watcher turns writes by other processes to a database file into
// notifications with origin OriginExternal.
type Watcher struct {
	watcher  *fsnotify.Watcher
	detector ChangeDetector
	bus      *Bus
	logger   *zap.Logger
	dbPath   string
	debounce time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for a burst of file events to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher watches the directory containing dbPath.
func NewWatcher(dbPath string, detector ChangeDetector, b *Bus, opts ...WatcherOption) (*Watcher, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		detector: detector,
		bus:      b,
		logger:   zap.NewNop(),
		dbPath:   dbPath,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := fw.Add(filepath.Dir(dbPath)); err != nil {
		return nil, errors.Join(fmt.Errorf("watch %s: %w", filepath.Dir(dbPath), err), fw.Close())
	}
	return w, nil
}

// Start runs the event loop in a goroutine. Calling Start twice is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.doneCh = make(chan struct{})
	go w.loop(ctx, w.doneCh)
}

// Close stops the event loop and releases the fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	cancel := w.cancel
	done := w.doneCh
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.String("path", w.dbPath), zap.Error(err))
		case <-timer.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	// Matches the database file and its -journal / -wal siblings.
	return strings.HasPrefix(filepath.Base(event.Name), filepath.Base(w.dbPath))
}

func (w *Watcher) check(ctx context.Context) {
	changed, err := w.detector.ExternalChange(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("failed to probe for external change", zap.String("path", w.dbPath), zap.Error(err))
		}
		return
	}
	if !changed {
		return
	}
	n := w.bus.Publish(OriginExternal)
	w.logger.Debug("external progress change", zap.Uint64("revision", n.Revision))
}

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"minutes/internal/intake"
	"minutes/internal/logging"
)

// Handler processes one recording found in the watched folder.
type Handler func(ctx context.Context, path string) error

// Options tunes a Watcher.
type Options struct {
	// Settle is the polling interval used to decide a file is fully written.
	Settle time.Duration
	// ScanExisting queues recordings already present when Run starts.
	ScanExisting bool
	Logger       *slog.Logger
}

// Watcher feeds new audio files from a folder to a handler one at a time.
type Watcher struct {
	dir     string
	handler Handler
	logger  *slog.Logger
	settle  time.Duration
	scan    bool
	fs      *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	queue   chan string
}

// New starts watching dir. Call Run to begin processing and Close to release it.
func New(dir string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", dir)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logging.NewComponentLogger(opts.Logger, "watch"),
		settle:  settle,
		scan:    opts.ScanExisting,
		fs:      fsw,
		pending: make(map[string]struct{}),
		queue:   make(chan string, 64),
	}, nil
}

// Dir returns the watched folder.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run processes recordings until ctx is cancelled. The handler is never
// invoked concurrently, so only one job is in flight at a time.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("folder watcher started", logging.String("dir", w.dir))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.process(ctx)
	}()

	if w.scan {
		w.scanExisting()
	}

	err := w.loop(ctx)
	wg.Wait()
	w.logger.Info("folder watcher stopped", logging.String("dir", w.dir))
	return err
}

// Close stops the underlying notifier.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !intake.IsAudioFile(event.Name) {
				w.logger.Debug("ignoring non-audio file", logging.String("file", event.Name))
				continue
			}
			w.enqueue(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Warn("watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_error"),
			)
		}
	}
}

func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("scan watch directory failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "watch_scan_failed"),
		)
		return
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !intake.IsAudioFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		w.enqueue(filepath.Join(w.dir, name))
	}
}

// enqueue drops paths that are already waiting.
func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	if _, ok := w.pending[path]; ok {
		w.mu.Unlock()
		return
	}
	w.pending[path] = struct{}{}
	w.mu.Unlock()

	select {
	case w.queue <- path:
		w.logger.Info("recording queued", logging.String("file", filepath.Base(path)))
	default:
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Warn("watch queue full; recording skipped",
			logging.String("file", path),
			logging.String(logging.FieldEventType, "watch_queue_full"),
		)
	}
}

func (w *Watcher) process(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.mu.Lock()
			delete(w.pending, path)
			w.mu.Unlock()
			if err := w.waitStable(ctx, path); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("recording vanished before processing",
					logging.String("file", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "watch_file_missing"),
				)
				continue
			}
			if err := w.handler(ctx, path); err != nil {
				w.logger.Error("failed to process recording",
					logging.String("file", path),
					logging.Error(err),
				)
			}
		}
	}
}

// waitStable returns once two consecutive polls report the same size.
func (w *Watcher) waitStable(ctx context.Context, path string) error {
	last := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == last {
			return nil
		}
		last = info.Size()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.settle):
		}
	}
}

package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/teampulse/pkg/storage"
)

// DefaultWindow is how long the watcher waits for edits to settle.
const DefaultWindow = 300 * time.Millisecond

// Change lists the workspace files touched since the last notification.
type Change struct {
	Files []string
	At    time.Time
}

// Watcher observes the .teampulse directory of a workspace.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	window   time.Duration
	filter   *Filter
	logger   *slog.Logger
	onChange func(Change)
}

// New watches root/.teampulse. A zero window uses DefaultWindow and a nil
// filter uses DefaultFilter.
func New(root string, window time.Duration, filter *Filter, logger *slog.Logger, onChange func(Change)) (*Watcher, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	if filter == nil {
		filter = DefaultFilter()
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Join(root, storage.WorkspaceDir)
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		fs:       fw,
		dir:      dir,
		window:   window,
		filter:   filter,
		logger:   logger,
		onChange: onChange,
	}, nil
}

// Run blocks until ctx is cancelled or fsnotify reports an error.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	batcher := NewBatcher(w.window, func(paths []string) {
		w.logger.Debug("workspace changed", "files", paths)
		if w.onChange != nil {
			w.onChange(Change{Files: paths, At: time.Now()})
		}
	})
	defer batcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Op) || !w.filter.Matches(event.Name) {
				continue
			}
			batcher.Add(filepath.Base(event.Name))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// relevant ignores chmod-only events.
func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}

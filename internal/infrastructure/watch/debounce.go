// Package watch refreshes the dashboards when workspace files change.
package watch

import (
	"sort"
	"sync"
	"time"
)

// Batcher collects paths and hands them to the callback once no new path
// arrived for the window duration.
type Batcher struct {
	window   time.Duration
	callback func([]string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

func NewBatcher(window time.Duration, callback func([]string)) *Batcher {
	return &Batcher{
		window:   window,
		callback: callback,
		pending:  make(map[string]struct{}),
	}
}

// Add records path and restarts the window.
func (b *Batcher) Add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[path] = struct{}{}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.flush)
}

func (b *Batcher) flush() {
	b.mu.Lock()
	paths := make([]string, 0, len(b.pending))
	for p := range b.pending {
		paths = append(paths, p)
	}
	b.pending = make(map[string]struct{})
	b.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	b.callback(paths)
}

// Stop drops anything still pending.
func (b *Batcher) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.pending = make(map[string]struct{})
}

//go:build linux

package pi

import (
	"sync"
	"time"
)

// watcher runs an edge handler from its own goroutine. The stop flag and
// the handler call share a lock, so once stop returns no handler runs.
// Handlers must not clear their own interrupt.
type watcher struct {
	mu      sync.Mutex
	stopped bool
}

// run calls fire for every edge wait reports until stop.
func (w *watcher) run(wait func(time.Duration) bool, fire func()) {
	for !w.isStopped() {
		if !wait(edgePoll) {
			continue
		}
		w.mu.Lock()
		if !w.stopped {
			fire()
		}
		w.mu.Unlock()
	}
}

func (w *watcher) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func (w *watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
}

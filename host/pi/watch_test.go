//go:build linux

package pi

import (
	"sync/atomic"
	"testing"
	"time"
)

// edgeSource hands out one edge per send on edges and reports no edge
// otherwise.
type edgeSource struct {
	edges chan struct{}
}

func (e *edgeSource) wait(time.Duration) bool {
	select {
	case <-e.edges:
		return true
	case <-time.After(time.Millisecond):
		return false
	}
}

func TestWatcherFiresPerEdge(t *testing.T) {
	src := &edgeSource{edges: make(chan struct{})}
	w := &watcher{}
	hits := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		w.run(src.wait, func() { hits <- struct{}{} })
		close(done)
	}()

	for i := 0; i < 2; i++ {
		src.edges <- struct{}{}
		<-hits
	}
	w.stop()
	<-done
	if len(hits) != 0 {
		t.Errorf("%d extra handler calls", len(hits))
	}
}

func TestWatcherDropsEdgeInFlightAtStop(t *testing.T) {
	release := make(chan struct{})
	waiting := make(chan struct{})
	wait := func(time.Duration) bool {
		waiting <- struct{}{}
		<-release
		return true
	}

	w := &watcher{}
	var fired atomic.Int32
	done := make(chan struct{})
	go func() {
		w.run(wait, func() { fired.Add(1) })
		close(done)
	}()

	// The watcher is inside wait when the interrupt is cleared, and the
	// edge it was waiting for arrives afterwards.
	<-waiting
	w.stop()
	close(release)
	<-done
	if got := fired.Load(); got != 0 {
		t.Errorf("handler ran %d times after stop", got)
	}
}

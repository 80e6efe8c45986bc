package core

import "testing"

func TestDebugAsyncWritesDirectlyWithoutWorker(t *testing.T) {
	resetCore()
	lines := captureLog()

	DebugAsync("trim saturated")
	if len(*lines) != 1 || (*lines)[0] != "trim saturated" {
		t.Errorf("lines = %q, want the message written synchronously", *lines)
	}
}

func TestDebugAsyncDropsWhenFull(t *testing.T) {
	resetCore()
	defer resetCore()
	lines := captureLog()

	// No worker drains this queue, so a blocking send would hang the test.
	debugChan = make(chan string, 2)
	for _, msg := range []string{"a", "b", "c", "d"} {
		DebugAsync(msg)
	}
	if len(*lines) != 0 {
		t.Errorf("queued messages written early: %q", *lines)
	}
	if got := DebugDropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	ch := debugChan
	close(ch)
	drainDebug(ch)
	if len(*lines) != 2 || (*lines)[0] != "a" || (*lines)[1] != "b" {
		t.Errorf("drained = %q, want [a b]", *lines)
	}
}

func TestDumpTimingRingOldestFirst(t *testing.T) {
	resetCore()
	lines := captureLog()

	RecordTiming(EvtStart, StateStart, 10, 7, 0)
	RecordTiming(EvtShutdown, StateShutdown, 20, 0, 0)
	DumpTimingRing()

	if len(*lines) != 3 {
		t.Fatalf("lines = %q, want header and two events", *lines)
	}
	if (*lines)[1] != "timing: START state=START clock=10 v1=7 v2=0" {
		t.Errorf("first event = %q", (*lines)[1])
	}
}

package sim

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"synkino/core"
)

var quiet = Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

func TestSteadyScreeningStaysInSync(t *testing.T) {
	cases := []struct {
		name     string
		speedPPM float64
		ratePPM  float64
	}{
		{"nominal", 0, 0},
		{"fast projector", 2000, 0},
		{"slow projector, fast decoder", -3000, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := DefaultScenario()
			sc.Projector.SpeedPPM = tc.speedPPM
			sc.Decoder.RatePPM = tc.ratePPM

			rep, err := Run(context.Background(), sc, quiet)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !rep.Visited(core.StatePlaying) {
				t.Fatalf("never reached PLAYING: %+v", rep.Transitions)
			}
			if rep.Ticks < 250 {
				t.Errorf("only %d control ticks in %v", rep.Ticks, rep.Elapsed)
			}
			if rep.MaxFrameOffset != 0 {
				t.Errorf("frame offset reached %d", rep.MaxFrameOffset)
			}
			if rep.MaxDelta >= 918 {
				t.Errorf("smoothed error after settling reached %d samples", rep.MaxDelta)
			}
			if rep.Pauses != 0 {
				t.Errorf("%d pauses on a running projector", rep.Pauses)
			}
			if rep.Final.State != core.StateQuit {
				t.Errorf("final state %v", rep.Final.State)
			}
		})
	}
}

func TestProjectorStopPausesAndResumes(t *testing.T) {
	sc := DefaultScenario()
	sc.Duration = 40 * time.Second
	sc.Projector.SpeedPPM = 2000
	sc.Decoder.RatePPM = -300
	sc.Projector.Segments = []Segment{
		{Run: 10 * time.Second, Stop: 3 * time.Second},
		{Run: time.Hour},
	}

	var late int32
	opts := quiet
	opts.OnTick = func(at time.Duration, st core.Status) {
		if at > 28*time.Second {
			if d := abs32(st.Sample.Delta); d > late {
				late = d
			}
		}
	}
	rep, err := Run(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Pauses != 1 {
		t.Fatalf("pauses = %d, want 1", rep.Pauses)
	}
	for _, s := range []core.PlaybackState{core.StatePaused, core.StateResume} {
		if !rep.Visited(s) {
			t.Errorf("never entered %v", s)
		}
	}

	var pausedAt time.Duration
	for _, tr := range rep.Transitions {
		if tr.To == core.StatePause {
			pausedAt = tr.At
		}
	}
	if pausedAt < 10*time.Second || pausedAt > 10*time.Second+300*time.Millisecond {
		t.Errorf("pause detected at %v, want shortly after 10s", pausedAt)
	}
	if late >= 918 {
		t.Errorf("error %d samples long after resume", late)
	}
}

func TestLeaderStartsAfterOffset(t *testing.T) {
	sc := DefaultScenario()
	sc.Duration = 5 * time.Second
	sc.Profile.StartmarkOffset = 10
	sc.Projector.LeaderClearsAfter = 2 * time.Second

	rep, err := Run(context.Background(), sc, quiet)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var marked, started time.Duration
	for _, tr := range rep.Transitions {
		switch tr.To {
		case core.StateOfferManualStart:
			t.Fatalf("offered a manual start with leader threaded")
		case core.StateWaitForOffset:
			marked = tr.At
		case core.StateStart:
			started = tr.At
		}
	}
	if marked < 2*time.Second || marked > 2*time.Second+10*time.Millisecond {
		t.Errorf("start mark seen at %v", marked)
	}
	// 10 frames at 24 fps
	if gap := started - marked; gap < 400*time.Millisecond || gap > 440*time.Millisecond {
		t.Errorf("START %v after the mark, want about 417ms", gap)
	}
}

func TestEndOfTrack(t *testing.T) {
	sc := DefaultScenario()
	sc.Decoder.Length = 3 * time.Second

	rep, err := Run(context.Background(), sc, quiet)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Elapsed >= sc.Duration {
		t.Errorf("ran until the scenario ended instead of the track")
	}
	if rep.Final.State != core.StateQuit {
		t.Errorf("final state %v", rep.Final.State)
	}
}

func TestSyncOffsetEdit(t *testing.T) {
	sc := DefaultScenario()
	sc.Duration = 8 * time.Second
	sc.Operator.Edits = []Edit{{At: 3 * time.Second, Frames: -2}}

	rep, err := Run(context.Background(), sc, quiet)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rep.Final.SyncOffset; got != -4 {
		t.Errorf("sync offset = %d impulses, want -4", got)
	}
	if rep.Final.Editing {
		t.Errorf("still editing at the end")
	}
}

func TestDeclinedManualStart(t *testing.T) {
	sc := DefaultScenario()
	sc.Operator.DeclineManualStart = true
	sc.Operator.AnswerAfter = time.Second

	rep, err := Run(context.Background(), sc, quiet)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Visited(core.StatePlaying) {
		t.Errorf("played after the operator declined")
	}
	if rep.Elapsed < time.Second || rep.Elapsed > 2*time.Second {
		t.Errorf("session lasted %v", rep.Elapsed)
	}
}

func TestDisconnectedOutput(t *testing.T) {
	sc := DefaultScenario()
	sc.Decoder.Disconnected = true
	_, err := Run(context.Background(), sc, quiet)
	if core.Classify(err) != core.KindDeviceNotReady {
		t.Fatalf("err = %v, want device not ready", err)
	}
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, DefaultScenario(), quiet)
	if core.Classify(err) != core.KindCancelled {
		t.Fatalf("err = %v, want cancelled", err)
	}
}

package sim

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"synkino/core"
)

// Pins used by the simulated board.
const (
	ImpulsePin core.GPIOPin = 2
	LeaderPin  core.GPIOPin = 3
	LEDPin     core.GPIOPin = 25
)

// Transition is one state change seen during a run.
type Transition struct {
	At       time.Duration
	From, To core.PlaybackState
}

// Report summarizes a run.
type Report struct {
	Scenario    string
	Transitions []Transition
	Ticks       int
	Pauses      int
	Saturations int

	// Largest absolute smoothed error after Settle, in samples.
	MaxDelta int32
	// Largest absolute frame offset over the whole run.
	MaxFrameOffset int32

	Pulses    uint32 // impulses emitted by the projector
	Final     core.Status
	FinalTrim int32
	Elapsed   time.Duration
}

// Visited reports whether the run entered state.
func (r *Report) Visited(state core.PlaybackState) bool {
	for _, t := range r.Transitions {
		if t.To == state {
			return true
		}
	}
	return false
}

// Options observe a run.
type Options struct {
	Logger *slog.Logger

	// OnTick is called after every control tick with virtual time.
	OnTick func(at time.Duration, st core.Status)
}

// The engine reads a process-wide clock, so runs are serialized.
var runMu sync.Mutex

// Run plays sc in virtual time. It returns when the session reaches QUIT,
// when the scenario duration is over or when ctx is cancelled. The error is
// the session's, except that running out of scenario time is not an error.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	runMu.Lock()
	defer runMu.Unlock()

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	core.SetTimeSource(nil)
	core.SetTime(0)
	var now time.Duration
	clock := func() time.Duration { return now }

	gpio := NewGPIO()
	proj := NewProjector(gpio, ImpulsePin, LeaderPin, sc.Projector.FPS,
		sc.Profile.ShutterBladeCount, sc.Projector.SpeedPPM, sc.Projector.Segments)
	if sc.Projector.LeaderClearsAfter > 0 {
		proj.SetLeader(sc.Projector.LeaderClearsAfter)
	}
	dec := &Decoder{
		Rate:             sc.Decoder.SampleRate,
		RatePPM:          sc.Decoder.RatePPM,
		PlaceholderReads: sc.Decoder.PlaceholderReads,
		Length:           sc.Decoder.Length,
		Connected:        !sc.Decoder.Disconnected,
	}
	op := NewOperator(clock, !sc.Operator.DeclineManualStart, sc.Operator.AnswerAfter, sc.Operator.Edits)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	rep := &Report{Scenario: sc.Name}
	var playStart time.Duration
	playing := false

	yield := func() {
		if now >= sc.Duration {
			stop()
			return
		}
		now += sc.Step
		proj.Advance(uint32(now / time.Microsecond))
		dec.Advance(sc.Step)
	}

	kp, ki, kd := sc.Profile.Gains()
	sess := core.NewSession(core.SessionConfig{
		Decoder:         dec,
		Tracks:          fixedTrack{number: sc.Track, fps: sc.Projector.FPS},
		Operator:        op,
		Impulses:        core.NewImpulseCounter(gpio, gpio, ImpulsePin, LEDPin),
		Leader:          core.NewLeaderDetector(gpio, gpio, LeaderPin, LEDPin),
		Scheduler:       &core.Scheduler{},
		Blades:          sc.Profile.ShutterBladeCount,
		StartmarkOffset: sc.Profile.StartmarkOffset,
		P:               kp,
		I:               ki,
		D:               kd,
		Yield:           yield,
		OnStateChange: func(from, to core.PlaybackState) {
			rep.Transitions = append(rep.Transitions, Transition{At: now, From: from, To: to})
			log.Debug("sim: state", "at", now, "from", from.String(), "to", to.String())
			switch to {
			case core.StatePlaying:
				if !playing {
					playing = true
					playStart = now
				}
			case core.StatePause:
				rep.Pauses++
			}
		},
		OnTick: func(st core.Status) {
			rep.Ticks++
			s := st.Sample
			if s.Saturated {
				rep.Saturations++
			}
			if fo := abs32(s.FrameOffset); fo > rep.MaxFrameOffset {
				rep.MaxFrameOffset = fo
			}
			if now-playStart >= sc.Settle {
				if d := abs32(s.Delta); d > rep.MaxDelta {
					rep.MaxDelta = d
				}
			}
			if opts.OnTick != nil {
				opts.OnTick(now, st)
			}
		},
	})

	log.Info("sim: starting", "scenario", sc.Name, "fps", sc.Projector.FPS,
		"rate", sc.Decoder.SampleRate, "speed_ppm", sc.Projector.SpeedPPM)
	err := sess.SelectAndPlay(runCtx, sc.Track)
	if errors.Is(err, core.ErrCancelled) && ctx.Err() == nil {
		err = nil
	}

	rep.Pulses = proj.Pulses()
	rep.Final = sess.Status()
	rep.FinalTrim = dec.Trim()
	rep.Elapsed = now
	log.Info("sim: finished", "scenario", sc.Name, "elapsed", now,
		"ticks", rep.Ticks, "max_delta", rep.MaxDelta, "max_frame_offset", rep.MaxFrameOffset)
	return rep, err
}

// fixedTrack resolves exactly one track number.
type fixedTrack struct {
	number int
	fps    uint8
}

func (f fixedTrack) Resolve(n int) (core.Track, error) {
	if n != f.number {
		return core.Track{}, core.ErrTrackNotFound
	}
	return core.Track{Number: n, FPS: f.fps, Path: "sim"}, nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Default session timings.
const (
	DefaultCalibrationTimeoutMS = 3000
	DefaultCalibrationPollMS    = 10
	DefaultSettleMS             = 500
)

// Decoder attenuation levels used while cueing.
const (
	VolumeMuted   = 254
	VolumePlaying = 4
)

// SessionConfig wires a Session to its hardware and operator.
type SessionConfig struct {
	Decoder  Decoder
	Tracks   TrackResolver
	Operator Operator // optional
	Impulses *ImpulseCounter
	Leader   *LeaderDetector

	// Scheduler drives the control tick. Nil selects DefaultScheduler.
	Scheduler *Scheduler

	Blades          uint8
	StartmarkOffset uint8 // frames between start mark and first picture
	P, I, D         float64

	// Timings in milliseconds. Zero selects the default.
	CalibrationTimeoutMS uint32
	CalibrationPollMS    uint32
	SettleMS             uint32

	// Yield is called once per main-loop iteration and while waiting.
	// Targets use it to update the clock and service the decoder. Nil
	// sleeps for 10us.
	Yield func()

	// Observational hooks, all optional. They run on the main loop.
	OnStateChange func(from, to PlaybackState)
	OnTick        func(Status)
	OnStart       func()
}

// Status is a snapshot of a running session.
type Status struct {
	State      PlaybackState
	Track      Track
	Impulses   uint32
	SyncOffset int32 // impulses
	Editing    bool
	Elapsed    uint32 // seconds of film
	Sample     ControlSample
}

// Session owns everything that lives from cue to QUIT: the state machine,
// the PID, the control tick timer and the decoder baseline.
type Session struct {
	cfg   SessionConfig
	sched *Scheduler
	pid   *PID
	speed *SpeedControl
	pause *PauseDetector

	state      PlaybackState
	track      Track
	syncOffset atomic.Int32
	editing    bool
	haltPos    uint32
	shutDown   bool
	saturated  bool

	tickTimer   Timer
	tickPeriod  uint32
	tickPending atomic.Bool
	running     atomic.Bool

	mu     sync.Mutex
	status Status
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Scheduler == nil {
		cfg.Scheduler = DefaultScheduler()
	}
	if cfg.CalibrationTimeoutMS == 0 {
		cfg.CalibrationTimeoutMS = DefaultCalibrationTimeoutMS
	}
	if cfg.CalibrationPollMS == 0 {
		cfg.CalibrationPollMS = DefaultCalibrationPollMS
	}
	if cfg.SettleMS == 0 {
		cfg.SettleMS = DefaultSettleMS
	}
	if cfg.Blades == 0 {
		cfg.Blades = 1
	}
	if cfg.Yield == nil {
		cfg.Yield = func() { time.Sleep(10 * time.Microsecond) }
	}

	pid := NewPID(cfg.P, cfg.I, cfg.D)
	s := &Session{
		cfg:        cfg,
		sched:      cfg.Scheduler,
		pid:        pid,
		speed:      NewSpeedControl(cfg.Decoder, pid),
		pause:      NewPauseDetector(0),
		tickPeriod: TimerFromUS(DefaultSampleTimeUS),
		state:      StateQuit,
		shutDown:   true,
	}
	s.tickTimer.Handler = s.onTick
	s.status.State = StateQuit
	return s
}

// SelectAndPlay resolves the track, cues the decoder and runs the state
// machine until QUIT. It returns nil after a normal end of playback.
func (s *Session) SelectAndPlay(ctx context.Context, number int) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSessionActive
	}
	defer s.running.Store(false)

	s.reset()

	track, err := s.cfg.Tracks.Resolve(number)
	if err != nil {
		Println("session: track " + itoa(number) + " not found")
		s.setState(StateShutdown)
		s.Step()
		return err
	}
	s.track = track

	if !s.cfg.Decoder.OutputConnected() {
		Println("session: audio output not connected")
		s.setState(StateShutdown)
		s.Step()
		return ErrDeviceNotReady
	}

	if err := s.cue(ctx, track); err != nil {
		s.setState(StateShutdown)
		s.Step()
		return err
	}

	s.setState(StateCheckForLeader)
	return s.Run(ctx)
}

// Run drives the state machine until QUIT. Cancelling ctx forces SHUTDOWN.
func (s *Session) Run(ctx context.Context) error {
	cancelled := false
	for s.state != StateQuit {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			if s.state != StateShutdown {
				s.setState(StateShutdown)
			}
		}
		s.sched.Dispatch(GetTime())
		s.Step()
		if s.state != StateQuit {
			s.cfg.Yield()
		}
	}
	if cancelled {
		return ErrCancelled
	}
	return nil
}

func (s *Session) reset() {
	s.state = StateQuit
	s.track = Track{}
	s.syncOffset.Store(0)
	s.editing = false
	s.haltPos = 0
	s.shutDown = false
	s.saturated = false
	s.tickPending.Store(false)

	s.mu.Lock()
	s.status = Status{State: StateQuit}
	s.mu.Unlock()
}

// cue starts the stream muted, waits for the decoder to report the real
// sample rate, parks it paused and derives the calibration.
func (s *Session) cue(ctx context.Context, track Track) error {
	dec := s.cfg.Decoder

	Println("session: cueing track " + itoa(track.Number) + " at " + utoa(uint32(track.FPS)) + " fps")
	if err := dec.SetVolume(VolumeMuted, VolumeMuted); err != nil {
		return err
	}
	if err := dec.ResetSampleCount(); err != nil {
		return err
	}
	if err := dec.Start(track.Path); err != nil {
		return err
	}

	deadline := GetTime() + TimerFromMS(s.cfg.CalibrationTimeoutMS)
	var rate uint16
	for {
		r, err := dec.SampleRate()
		if err != nil {
			return err
		}
		if r != PlaceholderSampleRate {
			rate = r
			break
		}
		if !before(GetTime(), deadline) {
			Println("session: decoder still reports placeholder rate, giving up")
			return ErrCalibrationStall
		}
		if err := s.wait(ctx, TimerFromMS(s.cfg.CalibrationPollMS)); err != nil {
			return err
		}
	}

	if err := dec.Pause(true); err != nil {
		return err
	}
	if NeedsResampler(uint32(rate)) {
		if err := dec.EnableResampler(true); err != nil {
			return err
		}
	}
	if err := s.wait(ctx, TimerFromMS(s.cfg.SettleMS)); err != nil {
		return err
	}
	if err := dec.SetVolume(VolumePlaying, VolumePlaying); err != nil {
		return err
	}

	cal, err := NewCalibration(uint32(rate), track.FPS, s.cfg.Blades)
	if err != nil {
		return err
	}
	s.pid.Reset()
	s.pid.SetTunings(s.cfg.P, s.cfg.I, s.cfg.D)
	s.speed.Configure(cal)
	s.pause.SetThreshold(cal.PauseThreshold())
	s.syncOffset.Store(0)

	Println("session: " + utoa(cal.SampleRate) + " Hz, " +
		utoa(cal.ImpulsesPerSamplePeriod) + " samples per impulse")
	return nil
}

// wait yields until ticks have passed or ctx is cancelled.
func (s *Session) wait(ctx context.Context, ticks uint32) error {
	deadline := GetTime() + ticks
	for before(GetTime(), deadline) {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		s.cfg.Yield()
	}
	return nil
}

// Step evaluates at most one transition. Waiting states stay put.
func (s *Session) Step() {
	switch s.state {
	case StateCheckForLeader:
		if s.cfg.Leader != nil && s.cfg.Leader.Active() {
			Println("session: leader detected, waiting for start mark")
			if err := s.cfg.Leader.Arm(); err != nil {
				Println("session: leader arm failed: " + err.Error())
			}
			s.setState(StateWaitForStartmark)
		} else {
			s.setState(StateOfferManualStart)
		}

	case StateOfferManualStart:
		if s.cfg.Operator == nil {
			s.setState(StateShutdown)
			return
		}
		confirmed, answered := s.cfg.Operator.ConfirmManualStart()
		if !answered {
			return
		}
		if confirmed {
			s.setState(StateStart)
		} else {
			s.setState(StateShutdown)
		}

	case StateWaitForStartmark:
		if s.cfg.Leader.Active() {
			return
		}
		if err := s.cfg.Leader.Release(); err != nil {
			Println("session: leader release failed: " + err.Error())
		}
		s.cfg.Impulses.Reset()
		if err := s.cfg.Impulses.Arm(); err != nil {
			Println("session: impulse arm failed: " + err.Error())
		}
		RecordTiming(EvtStartmark, s.state, GetTime(), 0, 0)
		s.setState(StateWaitForOffset)

	case StateWaitForOffset:
		if s.cfg.Impulses.Count()/uint32(s.cfg.Blades) < uint32(s.cfg.StartmarkOffset) {
			return
		}
		s.setState(StateStart)

	case StateStart:
		s.start()

	case StatePlaying:
		s.playing()

	case StatePause:
		raw, err := s.cfg.Decoder.ReadSampleCount()
		if err != nil {
			Println("session: halt position read failed: " + err.Error())
			raw = s.speed.Baseline() + s.speed.Last().Actual
		}
		s.haltPos = raw
		if err := s.cfg.Decoder.Pause(true); err != nil {
			Println("session: decoder pause failed: " + err.Error())
		}
		s.pid.SetMode(PIDManual)
		s.sched.Delete(&s.tickTimer)
		s.tickPending.Store(false)
		RecordTiming(EvtPause, s.state, GetTime(), raw, s.cfg.Impulses.Count())
		Println("session: projector stopped, pausing")
		s.setState(StatePaused)

	case StatePaused:
		if s.pause.Moved(s.position(), GetTime()) {
			s.setState(StateResume)
		}

	case StateResume:
		s.pid.SetMode(PIDAutomatic)
		s.pid.Initialize(float64(s.speed.Last().Delta))
		s.scheduleTick()
		if err := s.cfg.Decoder.RestoreSampleCount(s.haltPos); err != nil {
			Println("session: restore failed: " + err.Error())
		}
		if err := s.cfg.Decoder.Pause(false); err != nil {
			Println("session: decoder unpause failed: " + err.Error())
		}
		s.clearDecodeErrors()
		s.pause.Reset(s.position(), GetTime())
		RecordTiming(EvtResume, s.state, GetTime(), s.haltPos, 0)
		Println("session: projector running, resuming")
		s.setState(StatePlaying)

	case StateShutdown:
		s.shutdown()
		s.setState(StateQuit)
	}
}

func (s *Session) start() {
	imp := s.cfg.Impulses
	imp.Reset()
	if err := imp.Arm(); err != nil {
		Println("session: impulse arm failed: " + err.Error())
	}
	if s.cfg.Leader != nil {
		if err := s.cfg.Leader.Release(); err != nil {
			Println("session: leader release failed: " + err.Error())
		}
	}
	if err := s.cfg.Decoder.Pause(false); err != nil {
		Println("session: decoder unpause failed: " + err.Error())
	}

	raw, err := s.cfg.Decoder.ReadSampleCount()
	if err != nil {
		Println("session: baseline read failed: " + err.Error())
	}
	s.speed.SetBaseline(raw)

	s.pid.SetMode(PIDAutomatic)
	s.pid.Initialize(0)
	s.scheduleTick()
	if op := s.cfg.Operator; op != nil {
		op.SetValue(0)
		// A press latched while waiting for the start mark must not open
		// offset editing on the first PLAYING step.
		for i := 0; i < 8 && op.ButtonPressed(); i++ {
		}
	}
	s.clearDecodeErrors()
	s.pause.Reset(s.position(), GetTime())
	if s.cfg.OnStart != nil {
		s.cfg.OnStart()
	}
	RecordTiming(EvtStart, s.state, GetTime(), raw, 0)
	Println("session: starting playback")
	s.setState(StatePlaying)
}

func (s *Session) playing() {
	if s.tickPending.CompareAndSwap(true, false) {
		s.controlTick()
		if s.pause.Stalled(s.position(), GetTime()) {
			s.setState(StatePause)
		}
	}
	s.serviceOperator()
	if s.state == StatePlaying && s.cfg.Decoder.Stopped() {
		Println("session: end of track")
		s.setState(StateShutdown)
	}
}

func (s *Session) controlTick() {
	impulses := s.cfg.Impulses.Count()
	offset := s.syncOffset.Load()

	sample, err := s.speed.Tick(impulses, offset)
	if err != nil {
		RecordTiming(EvtRegisterIO, s.state, GetTime(), impulses, 0)
		DebugPrintln("session: control tick skipped: " + err.Error())
		return
	}
	RecordTiming(EvtTick, s.state, GetTime(), impulses, uint32(sample.Delta))

	if sample.Saturated && !s.saturated {
		RecordTiming(EvtSaturated, s.state, GetTime(), uint32(sample.Output), 0)
		DebugAsync("session: rate trim saturated at " + itoa(int(sample.Output)))
	}
	s.saturated = sample.Saturated

	s.mu.Lock()
	s.status.Impulses = impulses
	s.status.SyncOffset = offset
	s.status.Editing = s.editing
	s.status.Elapsed = s.speed.Calibration().ElapsedSeconds(impulses, offset)
	s.status.Sample = sample
	st := s.status
	s.mu.Unlock()

	if s.cfg.OnTick != nil {
		s.cfg.OnTick(st)
	}
}

// serviceOperator toggles sync-offset editing on a button press and, while
// editing, follows the rotary value in whole frames.
func (s *Session) serviceOperator() {
	op := s.cfg.Operator
	if op == nil {
		return
	}
	blades := int32(s.cfg.Blades)
	if op.ButtonPressed() {
		s.editing = !s.editing
		if s.editing {
			op.SetValue(int(s.syncOffset.Load() / blades))
			Println("session: editing sync offset")
		} else {
			Println("session: sync offset " + itoa(int(s.syncOffset.Load()/blades)) + " frames")
		}
	}
	if s.editing {
		s.syncOffset.Store(int32(op.Value()) * blades)
	}
}

// shutdown stops playback and releases everything the session holds. It is
// safe to call more than once.
func (s *Session) shutdown() {
	if s.shutDown {
		return
	}
	s.shutDown = true

	if err := s.cfg.Decoder.Stop(); err != nil {
		Println("session: decoder stop failed: " + err.Error())
	}
	s.pid.SetMode(PIDManual)
	s.sched.Delete(&s.tickTimer)
	s.tickPending.Store(false)
	if s.cfg.Impulses != nil {
		if err := s.cfg.Impulses.Release(); err != nil {
			Println("session: impulse release failed: " + err.Error())
		}
	}
	if s.cfg.Leader != nil {
		if err := s.cfg.Leader.Release(); err != nil {
			Println("session: leader release failed: " + err.Error())
		}
	}
	var n uint32
	if s.cfg.Impulses != nil {
		n = s.cfg.Impulses.Count()
	}
	RecordTiming(EvtShutdown, s.state, GetTime(), n, 0)
	Println("session: shut down")
}

func (s *Session) clearDecodeErrors() {
	if err := s.cfg.Decoder.ClearErrorCounter(); err != nil {
		Println("session: error counter clear failed: " + err.Error())
	}
}

func (s *Session) scheduleTick() {
	s.tickPending.Store(false)
	s.tickTimer.WakeTime = GetTime() + s.tickPeriod
	s.sched.Schedule(&s.tickTimer)
}

// onTick runs from the scheduler and only flags work for the main loop.
func (s *Session) onTick(t *Timer) uint8 {
	s.tickPending.Store(true)
	t.WakeTime += s.tickPeriod
	if now := GetTime(); !before(now, t.WakeTime) {
		t.WakeTime = now + s.tickPeriod
	}
	return SF_RESCHEDULE
}

func (s *Session) position() int64 {
	return int64(s.cfg.Impulses.Count()) + int64(s.syncOffset.Load())
}

func (s *Session) setState(to PlaybackState) {
	from := s.state
	s.state = to

	s.mu.Lock()
	s.status.State = to
	s.status.Track = s.track
	s.mu.Unlock()

	if from != to {
		DebugPrintln("session: " + from.String() + " -> " + to.String())
		if s.cfg.OnStateChange != nil {
			s.cfg.OnStateChange(from, to)
		}
	}
}

// State returns the current state.
func (s *Session) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.State
}

// FrameOffset returns the last computed sync error in whole frames.
func (s *Session) FrameOffset() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Sample.FrameOffset
}

// Status returns a snapshot for displays and telemetry.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SyncOffset returns the operator offset in impulses.
func (s *Session) SyncOffset() int32 {
	return s.syncOffset.Load()
}

// Calibration returns the constants of the current cue.
func (s *Session) Calibration() Calibration {
	return s.speed.Calibration()
}

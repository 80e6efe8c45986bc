package protocol

import "synkino/core"

// Reporter turns session events into telemetry frames. Its methods match
// the core.SessionConfig hooks and core.DebugWriter; send errors are
// counted, not returned, so a missing link never stalls playback.
type Reporter struct {
	f      *Framer
	Errors int
}

// NewReporter creates a reporter sending through f.
func NewReporter(f *Framer) *Reporter {
	return &Reporter{f: f}
}

// Hello announces the firmware and the active projector profile.
func (r *Reporter) Hello(profile string) {
	r.check(SendHello(r.f, Hello{Protocol: Version, Profile: profile}))
}

// StateChange is a core.SessionConfig.OnStateChange hook.
func (r *Reporter) StateChange(from, to core.PlaybackState) {
	r.check(SendStateChange(r.f, StateChange{From: uint8(from), To: uint8(to), Clock: core.GetTime()}))
}

// Tick is a core.SessionConfig.OnTick hook.
func (r *Reporter) Tick(st core.Status) {
	r.check(SendSyncStatus(r.f, SyncStatus{
		State:       uint8(st.State),
		Impulses:    st.Impulses,
		SyncOffset:  st.SyncOffset,
		Delta:       st.Sample.Delta,
		Output:      st.Sample.Output,
		FrameOffset: st.Sample.FrameOffset,
		Elapsed:     st.Elapsed,
	}))
}

// Log forwards a firmware message. It can be installed with
// core.SetDebugWriter.
func (r *Reporter) Log(msg string) {
	r.check(SendLog(r.f, msg))
}

func (r *Reporter) check(err error) {
	if err != nil {
		r.Errors++
	}
}

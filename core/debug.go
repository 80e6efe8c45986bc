package core

// DebugWriter receives one log line at a time. Targets point it at USB
// telemetry, the host at slog.
type DebugWriter func(string)

var (
	debugPrintln DebugWriter = func(string) {}
	debugEnabled bool

	// debugChan feeds the async writer; nil until InitAsyncDebug.
	debugChan    chan string
	debugDropped uint32
)

const debugQueueSize = 16

// SetDebugWriter installs the log sink. Nil silences all output.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled switches DebugPrintln output on or off.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// Println writes an operational message regardless of the debug switch.
func Println(msg string) {
	if debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugPrintln writes msg only while debug output is enabled.
func DebugPrintln(msg string) {
	if debugEnabled {
		Println(msg)
	}
}

// InitAsyncDebug starts the goroutine that drains DebugAsync messages into
// the log sink. Call it once after SetDebugWriter.
func InitAsyncDebug() {
	if debugChan != nil {
		return
	}
	debugChan = make(chan string, debugQueueSize)
	go drainDebug(debugChan)
}

func drainDebug(ch <-chan string) {
	for msg := range ch {
		Println(msg)
	}
}

// DebugAsync queues msg for the async writer and returns at once. A full
// queue drops the message. Before InitAsyncDebug it writes directly.
func DebugAsync(msg string) {
	if debugChan == nil {
		Println(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
		debugDropped++
	}
}

// DebugDropped returns how many async messages were lost to a full queue.
func DebugDropped() uint32 {
	return debugDropped
}

// Timing event codes
const (
	EvtStartmark  = 1 // start mark passed, impulse counting armed
	EvtStart      = 2 // playback started; v1=baseline
	EvtTick       = 3 // control tick; v1=impulses, v2=delta (two's complement)
	EvtSaturated  = 4 // PID output hit a limit; v1=output
	EvtPause      = 5 // projector stopped; v1=raw sample count, v2=impulses
	EvtResume     = 6 // projector running again; v1=restored position
	EvtRegisterIO = 7 // decoder register access failed
	EvtShutdown   = 8 // session torn down; v1=impulses
)

// TimingRingSize is how many recent events survive for a post-mortem.
const TimingRingSize = 32

// TimingEvent is one entry of the timing ring.
type TimingEvent struct {
	EventType uint8
	State     uint8 // PlaybackState when recorded
	Clock     uint32
	Value1    uint32
	Value2    uint32
}

var timing struct {
	events [TimingRingSize]TimingEvent
	head   uint8
}

// RecordTiming stores an event, overwriting the oldest. Never blocks and
// never allocates, so it is safe on the control path.
func RecordTiming(eventType uint8, state PlaybackState, clock, value1, value2 uint32) {
	timing.events[timing.head] = TimingEvent{
		EventType: eventType,
		State:     uint8(state),
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timing.head = (timing.head + 1) % TimingRingSize
}

// TimingEvents returns the ring contents from oldest to newest.
func TimingEvents() []TimingEvent {
	out := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timing.events[(timing.head+i)%TimingRingSize]
		if evt.EventType != 0 {
			out = append(out, evt)
		}
	}
	return out
}

// ClearTimingRing forgets all recorded events.
func ClearTimingRing() {
	timing.events = [TimingRingSize]TimingEvent{}
	timing.head = 0
}

var eventNames = [...]string{
	EvtStartmark:  "STARTMARK",
	EvtStart:      "START",
	EvtTick:       "TICK",
	EvtSaturated:  "SATURATED",
	EvtPause:      "PAUSE",
	EvtResume:     "RESUME",
	EvtRegisterIO: "REGISTER_IO!",
	EvtShutdown:   "SHUTDOWN",
}

func eventName(t uint8) string {
	if int(t) < len(eventNames) && eventNames[t] != "" {
		return eventNames[t]
	}
	return "UNKNOWN"
}

// DumpTimingRing writes the ring through the log sink, oldest first.
func DumpTimingRing() {
	Println("timing: " + utoa(uint32(len(TimingEvents()))) + " events")
	for _, evt := range TimingEvents() {
		Println("timing: " + eventName(evt.EventType) +
			" state=" + PlaybackState(evt.State).String() +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
}

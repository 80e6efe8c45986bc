package core

// PlaybackState is a node of the session state machine.
type PlaybackState uint8

const (
	StateCheckForLeader PlaybackState = iota
	StateOfferManualStart
	StateWaitForStartmark
	StateWaitForOffset
	StateStart
	StatePlaying
	StatePause
	StatePaused
	StateResume
	StateShutdown
	StateQuit
)

var stateNames = [...]string{
	StateCheckForLeader:   "CHECK_FOR_LEADER",
	StateOfferManualStart: "OFFER_MANUAL_START",
	StateWaitForStartmark: "WAIT_FOR_STARTMARK",
	StateWaitForOffset:    "WAIT_FOR_OFFSET",
	StateStart:            "START",
	StatePlaying:          "PLAYING",
	StatePause:            "PAUSE",
	StatePaused:           "PAUSED",
	StateResume:           "RESUME",
	StateShutdown:         "SHUTDOWN",
	StateQuit:             "QUIT",
}

func (s PlaybackState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

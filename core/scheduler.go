package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler is a wake-time ordered list of timers. Handlers run inside the
// scheduler's critical section and must only record work for the main loop.
type Scheduler struct {
	timerList *Timer
}

var defaultScheduler = &Scheduler{}

// DefaultScheduler returns the scheduler sessions share when none is
// configured.
func DefaultScheduler() *Scheduler {
	return defaultScheduler
}

// Schedule adds a timer in wake-time order.
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.remove(t)
	s.insert(t)
}

// Delete removes a timer if it is scheduled. Deleting an unscheduled timer
// is a no-op.
func (s *Scheduler) Delete(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.remove(t)
}

// Pending reports whether t is currently scheduled.
func (s *Scheduler) Pending(t *Timer) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for cur := s.timerList; cur != nil; cur = cur.Next {
		if cur == t {
			return true
		}
	}
	return false
}

// insert inserts a timer in sorted order by WakeTime
func (s *Scheduler) insert(t *Timer) {
	if s.timerList == nil || before(t.WakeTime, s.timerList.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

func (s *Scheduler) remove(t *Timer) {
	if s.timerList == t {
		s.timerList = t.Next
		t.Next = nil
		return
	}
	for cur := s.timerList; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// Dispatch runs every timer whose WakeTime is at or before now.
func (s *Scheduler) Dispatch(now uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for s.timerList != nil && !before(now, s.timerList.WakeTime) {
		timer := s.timerList
		s.timerList = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		if timer.Handler(timer) == SF_RESCHEDULE {
			s.insert(timer)
		}
	}
}

// before compares tick values across counter wrap.
func before(a, b uint32) bool {
	return int32(a-b) < 0
}

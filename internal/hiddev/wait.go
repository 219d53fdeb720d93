package hiddev

import "time"

// waitPollFloor is the initial sleep between polls while waiting out a
// budget; it doubles up to waitPollCeil to keep long waits cheap.
const (
	waitPollFloor = time.Millisecond
	waitPollCeil  = 8 * time.Millisecond
)

// WaitNext polls for an event until poll reports something other than
// StatusUnderrun or the budget runs out. Backends whose underlying reads
// are non-blocking use it to honor the EventQueue.Next wait budget: a
// zero or negative budget polls exactly once, and any terminal status
// (an event, an error) returns immediately without consuming the rest of
// the budget.
func WaitNext(budget time.Duration, poll func() (Event, Status)) (Event, Status) {
	ev, st := poll()
	if st != StatusUnderrun || budget <= 0 {
		return ev, st
	}

	deadline := time.Now().Add(budget)
	wait := waitPollFloor
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Event{}, StatusUnderrun
		}
		if wait > remaining {
			wait = remaining
		}
		time.Sleep(wait)
		if wait < waitPollCeil {
			wait *= 2
		}
		if ev, st = poll(); st != StatusUnderrun {
			return ev, st
		}
	}
}

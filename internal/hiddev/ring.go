package hiddev

// EventRing is a bounded FIFO of events that drops the oldest entry when a
// push would exceed its capacity. Backends use it to emulate the
// driver-internal queue buffer; it is not safe for concurrent use.
type EventRing struct {
	buf   []Event
	head  int
	count int
}

// NewEventRing returns a ring with the given capacity. A zero or negative
// depth yields an unusable ring that drops everything.
func NewEventRing(depth int) *EventRing {
	if depth < 0 {
		depth = 0
	}
	return &EventRing{buf: make([]Event, depth)}
}

// Push appends an event, evicting the oldest entry if the ring is full.
func (r *EventRing) Push(e Event) {
	if len(r.buf) == 0 {
		return
	}
	if r.count == len(r.buf) {
		// full: overwrite the oldest
		r.buf[r.head] = e
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.count)%len(r.buf)] = e
	r.count++
}

// Pop removes and returns the oldest event, or false if the ring is empty.
func (r *EventRing) Pop() (Event, bool) {
	if r.count == 0 {
		return Event{}, false
	}
	e := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return e, true
}

// Len returns the number of buffered events.
func (r *EventRing) Len() int {
	return r.count
}

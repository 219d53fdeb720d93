package session

import (
	"fmt"

	"kbstate/internal/hiddev"
	"kbstate/internal/keytable"
	"kbstate/internal/logging"
	"kbstate/internal/metrics"
)

// createQueue walks the queue through Unallocated → Allocated → Created →
// Started. Each transition fails independently and halts progression; a
// later-stage failure leaves earlier stages' resources in place for
// release at session teardown.
func (s *Session) createQueue() bool {
	q, ok := s.iface.AllocQueue()
	if !ok {
		s.report("event queue allocation refused")
		return false
	}
	s.queue = q

	if st := s.queue.Create(s.opts.QueueDepth); st != hiddev.StatusOK {
		s.report(fmt.Sprintf("event queue create failed: %s", st))
		return false
	}

	if st := s.queue.Start(); st != hiddev.StatusOK {
		s.report(fmt.Sprintf("event queue start failed: %s", st))
		return false
	}

	s.queueReady = true
	return true
}

// addQueueElements subscribes every resolved, non-ignored key's element
// into the queue. A failing element is reported and skipped; elements
// already added stay subscribed.
func (s *Session) addQueueElements() bool {
	ok := true
	s.table.Active(func(k *keytable.Key) {
		if st := s.queue.AddElement(k.Cookie); st != hiddev.StatusOK {
			s.report(fmt.Sprintf("failed to add %s to event queue: %s", k.Name, st))
			ok = false
		}
	})
	return ok
}

// DrainEvents retrieves every currently buffered transition record, in
// order, without blocking. The drain loop terminates on the driver's
// distinguished empty status; any other non-success status aborts this
// call's drain and is reported. When queueing was disabled or never came
// up, DrainEvents returns nothing.
func (s *Session) DrainEvents() []hiddev.Event {
	if !s.ready || !s.queueReady {
		return nil
	}

	var events []hiddev.Event
	for {
		ev, st := s.queue.Next(0)
		if st == hiddev.StatusUnderrun {
			break
		}
		if st != hiddev.StatusOK {
			metrics.Default().DrainErrors.Inc()
			s.report(fmt.Sprintf("event queue drain failed: %s", st))
			break
		}

		// Keyboards deliver button transitions; anything else is
		// unexpected but harmless.
		if ev.Type != hiddev.ElementTypeButton {
			logging.Warn("unexpected element type in queue",
				"type", ev.Type.String(), "cookie", ev.Cookie)
			continue
		}

		if k := s.table.KeyByCookie(ev.Cookie); k != nil {
			action := "release"
			if ev.Value != 0 {
				action = "press"
			}
			logging.Debug("key transition", "key", k.Name, "action", action)
		}
		events = append(events, ev)
	}

	metrics.Default().EventsDrained.Add(uint64(len(events)))
	return events
}

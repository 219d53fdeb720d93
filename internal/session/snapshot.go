package session

import (
	"fmt"

	"kbstate/internal/hiddev"
	"kbstate/internal/keytable"
	"kbstate/internal/logging"
	"kbstate/internal/metrics"
)

// errorKeyUsages are the keyboard's self-reported problem indicators
// checked before each poll in debug mode.
var errorKeyUsages = []uint32{
	keytable.UsageErrorRollOver,
	keytable.UsagePOSTFail,
	keytable.UsageErrorUndefined,
	keytable.UsagePower,
}

// CountDepressedKeys returns the number of resolved, non-ignored keys
// currently held down. It returns a negative sentinel, without touching
// the driver, when the session never completed initialization. Every call
// re-queries the live driver state; nothing is cached.
func (s *Session) CountDepressedKeys() int {
	if !s.ready {
		return -1
	}

	if s.opts.Debug {
		s.checkErrorKeys()
	}

	count := 0
	s.table.Active(func(k *keytable.Key) {
		v, st := s.iface.ElementValue(k.Cookie)
		if st != hiddev.StatusOK {
			// The cookie was validated during resolution, so a retrieval
			// failure here is driver misbehavior, not a normal error path.
			logging.Error("element value retrieval failed after validation",
				"key", k.Name, "status", st.String())
			s.report(fmt.Sprintf("driver anomaly: no value for %s: %s", k.Name, st))
			return
		}
		if v != 0 {
			count++
		}
	})

	m := metrics.Default()
	m.Polls.Inc()
	m.KeysDown.Set(int64(count))
	return count
}

// checkErrorKeys polls the keyboard's error/system indicator keys and
// reports any that read nonzero.
func (s *Session) checkErrorKeys() {
	for _, usage := range errorKeyUsages {
		k := s.table.Key(usage)
		if k == nil || !k.Resolved() {
			continue
		}
		v, st := s.iface.ElementValue(k.Cookie)
		if st == hiddev.StatusOK && v != 0 {
			s.report("error key active: " + k.Name)
		}
	}
}

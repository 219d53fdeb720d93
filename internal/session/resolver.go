package session

import (
	"fmt"

	"kbstate/internal/hiddev"
	"kbstate/internal/keytable"
	"kbstate/internal/logging"
)

// resolveElements enumerates the device's input elements and binds each
// keyboard-page usage into the key table. Descriptors missing any of the
// three required numeric fields are expected noise from unrelated elements
// (LEDs, collections) and are skipped without reporting. Resolution
// succeeds only when more than the configured threshold of non-ignored
// keys end up bound.
func (s *Session) resolveElements() bool {
	records, st := s.iface.Elements()
	if st != hiddev.StatusOK {
		s.report(fmt.Sprintf("element enumeration failed: %s", st))
		return false
	}

	for _, rec := range records {
		cookie, ok := rec.Int64Field(hiddev.FieldCookie)
		if !ok || cookie <= 0 {
			continue
		}
		usage, ok := rec.Int64Field(hiddev.FieldUsage)
		if !ok || usage < 0 {
			continue
		}
		page, ok := rec.Int64Field(hiddev.FieldUsagePage)
		if !ok {
			continue
		}
		if page != hiddev.PageKeyboardOrKeypad {
			continue
		}

		// Real hardware reports plenty of usage codes beyond the table;
		// Bind silently ignores those. A duplicate usage is a conflicting
		// driver report: keep the first binding, and in debug mode treat
		// the conflict as an anomaly worth reporting.
		err := s.table.Bind(uint32(usage), hiddev.Cookie(cookie))
		if err == keytable.ErrDuplicateBinding {
			logging.Warn("duplicate element report", "usage", usage, "cookie", cookie)
			if s.opts.Debug {
				s.report(fmt.Sprintf("duplicate element report for usage %#x", usage))
			}
		}
	}

	score := s.table.ResolvedCount()
	logging.Debug("element resolution finished",
		"resolved", score, "threshold", s.opts.ResolveThreshold)

	if score <= s.opts.ResolveThreshold {
		s.report(fmt.Sprintf("resolved only %d keys (need more than %d)",
			score, s.opts.ResolveThreshold))
		return false
	}
	return true
}

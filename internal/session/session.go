// Package session drives one keyboard-reading session against a HID
// driver: match the keyboard device, negotiate the plugin/interface
// handshake, populate the key table, resolve driver elements into it, and
// optionally run a transition event queue. After initialization the
// session answers snapshot polls and queue drains until closed.
//
// A Session is single-consumer and strictly synchronous: every operation
// is a direct call into the driver layer, and the session spawns no
// goroutines. Sessions must not be copied; driver handles are owned by
// exactly one Session.
package session

import (
	"fmt"
	"strings"

	"kbstate/internal/hiddev"
	"kbstate/internal/keytable"
	"kbstate/internal/logging"
	"kbstate/internal/metrics"
)

// Defaults for tunable options.
const (
	// DefaultResolveThreshold is the minimum number of resolved,
	// non-ignored keys (exclusive) for element resolution to count as
	// success. It is a heuristic for "this really is a full keyboard", not
	// a requirement that every key resolve.
	DefaultResolveThreshold = 40

	// DefaultQueueDepth is the event queue capacity. Once full, the driver
	// drops the oldest entries.
	DefaultQueueDepth = 200
)

// Options configures a Session.
type Options struct {
	// EnableQueue requests the transition event queue subsystem. Polling
	// works without it.
	EnableQueue bool

	// ErrorLog receives a message for every reportable failure. Nil is
	// legal and suppresses reporting; it never suppresses the failure's
	// effect on control flow.
	ErrorLog func(msg string)

	// Debug gates extra validation: the error-key check before each poll
	// and escalation of duplicate element bindings.
	Debug bool

	// ResolveThreshold overrides DefaultResolveThreshold when positive.
	ResolveThreshold int

	// QueueDepth overrides DefaultQueueDepth when nonzero.
	QueueDepth uint32
}

// Session is the aggregate runtime state of one keyboard-reading session.
// It exclusively owns the matched device reference, the negotiated
// interface handle, the key table, and (optionally) the event queue
// handle.
type Session struct {
	drv  hiddev.Driver
	opts Options

	dev        hiddev.Device
	plug       hiddev.PlugIn
	iface      hiddev.DeviceInterface
	ifaceOpen  bool
	queue      hiddev.EventQueue
	queueReady bool

	table      *keytable.Table
	deviceInfo []string
	ready      bool
	closed     bool
}

// New constructs a Session and runs initialization. It never fails
// loudly: initialization errors are reported through opts.ErrorLog and
// leave the session in a state where CountDepressedKeys returns a negative
// sentinel and DrainEvents is a no-op. A failed initialization releases
// every driver resource it acquired, in reverse acquisition order.
func New(drv hiddev.Driver, opts Options) *Session {
	s := &Session{drv: drv, opts: opts, table: keytable.New()}
	if s.opts.ResolveThreshold <= 0 {
		s.opts.ResolveThreshold = DefaultResolveThreshold
	}
	if s.opts.QueueDepth == 0 {
		s.opts.QueueDepth = DefaultQueueDepth
	}
	s.initialize()
	return s
}

func (s *Session) initialize() {
	if s.findKeyboard() &&
		s.createPlugIn() &&
		s.createDeviceInterface() &&
		s.populateTable() &&
		s.resolveElements() {
		s.ready = true
		logging.Debug("keyboard session initialized",
			"resolved", s.table.ResolvedCount())
	} else {
		metrics.Default().InitFailures.Inc()
		s.reportInitFailure("failed basic keyboard initialization")
		s.teardown()
		return
	}

	if s.opts.EnableQueue {
		if s.createQueue() && s.addQueueElements() {
			logging.Debug("keyboard event queue running",
				"depth", s.opts.QueueDepth)
		} else {
			// Reduced capability: polling still works; whatever queue
			// resources were acquired are released at teardown, not here.
			metrics.Default().InitFailures.Inc()
			s.reportInitFailure("failed keyboard input queue initialization")
		}
	}
}

// Ready reports whether basic initialization completed. A session that is
// not ready polls to a negative sentinel and drains to nothing.
func (s *Session) Ready() bool {
	return s.ready
}

// QueueReady reports whether the transition queue reached its started
// state.
func (s *Session) QueueReady() bool {
	return s.queueReady
}

// DeviceInfo returns the diagnostic property lines collected from the
// matched device, if any.
func (s *Session) DeviceInfo() []string {
	return s.deviceInfo
}

// Table exposes the key table for diagnostics (naming drained events,
// listing resolved keys).
func (s *Session) Table() *keytable.Table {
	return s.table
}

// findKeyboard asks the registry for the one device matching the keyboard
// capability query. On success the session owns the device reference.
func (s *Session) findKeyboard() bool {
	dev, ok := s.drv.MatchingDevice(hiddev.KeyboardQuery())
	if !ok {
		s.report("no HID device matched the keyboard query")
		return false
	}
	s.dev = dev
	return true
}

// createPlugIn performs stage one of the interface handshake: obtain the
// intermediate factory object scoped to the matched device. The factory is
// retained for symmetric teardown; it must be destroyed, not released.
func (s *Session) createPlugIn() bool {
	plug, st := s.drv.CreatePlugIn(s.dev)
	if st != hiddev.StatusOK {
		s.report(fmt.Sprintf("plugin interface creation failed: %s", st))
		return false
	}
	s.plug = plug

	// Properties are extra diagnostic info only; collection failures do
	// not matter. They are unavailable before the plugin stage.
	s.collectDeviceInfo()
	return true
}

// createDeviceInterface performs stage two: query the factory for the
// concrete device interface, then open it for exclusive access. Opening is
// a distinct fallible step; a non-OK open is a hard failure even though
// the handle was obtained (it is released at teardown).
func (s *Session) createDeviceInterface() bool {
	iface, st := s.plug.QueryInterface(hiddev.InterfaceIDDevice)
	if st != hiddev.StatusOK {
		s.report(fmt.Sprintf("device interface query failed: %s", st))
		return false
	}
	s.iface = iface

	if st := s.iface.Open(); st != hiddev.StatusOK {
		s.report(fmt.Sprintf("device interface open failed: %s", st))
		return false
	}
	s.ifaceOpen = true
	return true
}

func (s *Session) populateTable() bool {
	if err := s.table.Populate(); err != nil {
		// Double population is a logic error, not a driver condition.
		s.report(err.Error())
		return false
	}
	return true
}

func (s *Session) collectDeviceInfo() {
	for _, key := range hiddev.DeviceProperties {
		v, ok := s.dev.Property(key)
		if !ok {
			continue
		}
		s.deviceInfo = append(s.deviceInfo, key+": "+v.String())
	}
}

// report sends a message to the injected error logger, when present.
func (s *Session) report(msg string) {
	logging.Debug("session failure", "msg", msg)
	if s.opts.ErrorLog != nil {
		s.opts.ErrorLog(msg)
	}
}

// reportInitFailure reports an initialization failure with the collected
// device description attached for context.
func (s *Session) reportInitFailure(desc string) {
	if len(s.deviceInfo) == 0 {
		s.report(desc)
		return
	}
	s.report(desc + " Keyboard description follows:\n" +
		strings.Join(s.deviceInfo, "\n"))
}

// Close tears the session down, releasing resources in reverse acquisition
// order: stop and release the queue, close and release the device
// interface, destroy the plugin factory, release the device reference.
// Close is idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.ready = false
	s.teardown()
}

func (s *Session) teardown() {
	if s.queue != nil {
		s.queue.Stop()
		s.queue.Release()
		s.queue = nil
		s.queueReady = false
	}
	if s.iface != nil {
		if s.ifaceOpen {
			s.iface.Close()
			s.ifaceOpen = false
		}
		s.iface.Release()
		s.iface = nil
	}
	if s.plug != nil {
		s.plug.Destroy()
		s.plug = nil
	}
	if s.dev != nil {
		s.dev.Release()
		s.dev = nil
	}
}

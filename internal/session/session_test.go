package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbstate/internal/hiddev"
	"kbstate/internal/hiddev/memdriver"
	"kbstate/internal/keytable"
)

// newTestSession initializes a session against a full simulated keyboard
// and registers cleanup that asserts every driver resource was returned.
func newTestSession(t *testing.T, drv *memdriver.Driver, opts Options) *Session {
	t.Helper()
	s := New(drv, opts)
	t.Cleanup(func() {
		s.Close()
		assert.Empty(t, drv.Leaked(), "driver resources leaked")
	})
	return s
}

func TestInitializeSuccess(t *testing.T) {
	drv := memdriver.NewKeyboard()
	s := newTestSession(t, drv, Options{EnableQueue: true})

	require.True(t, s.Ready())
	require.True(t, s.QueueReady())
	assert.Greater(t, s.Table().ResolvedCount(), DefaultResolveThreshold)
	assert.NotEmpty(t, s.DeviceInfo())
}

func TestNoMatchingDevice(t *testing.T) {
	var reported []string
	drv := memdriver.New()
	s := newTestSession(t, drv, Options{
		ErrorLog: func(msg string) { reported = append(reported, msg) },
	})

	assert.False(t, s.Ready())
	assert.Equal(t, -1, s.CountDepressedKeys())
	assert.Nil(t, s.DrainEvents())
	require.NotEmpty(t, reported)
	assert.Contains(t, reported[len(reported)-1], "failed basic keyboard initialization")
}

func TestFailedInitMakesNoDriverCalls(t *testing.T) {
	drv := memdriver.NewKeyboard()
	drv.Keyboard.Iface.FailOpen = hiddev.StatusExclusiveAccess

	s := newTestSession(t, drv, Options{})
	require.False(t, s.Ready())

	before := drv.Keyboard.Iface.ValueGets()
	assert.Equal(t, -1, s.CountDepressedKeys())
	assert.Equal(t, -1, s.CountDepressedKeys())
	assert.Nil(t, s.DrainEvents())
	assert.Equal(t, before, drv.Keyboard.Iface.ValueGets())
}

func TestPlugInCreationFailureReleasesDevice(t *testing.T) {
	drv := memdriver.NewKeyboard()
	drv.FailPlugIn = true

	var reported []string
	s := newTestSession(t, drv, Options{
		ErrorLog: func(msg string) { reported = append(reported, msg) },
	})

	assert.False(t, s.Ready())
	assert.Equal(t, 0, drv.Keyboard.Refs(), "matched device released on failure")
	require.NotEmpty(t, reported)
	assert.Contains(t, reported[0], "plugin interface creation failed")
}

func TestInterfaceOpenFailureReleasesHandle(t *testing.T) {
	// Open is a distinct fallible step after the query succeeds; the
	// obtained handle still has to be released.
	drv := memdriver.NewKeyboard()
	drv.Keyboard.Iface.FailOpen = hiddev.StatusExclusiveAccess

	s := New(drv, Options{})
	assert.False(t, s.Ready())
	s.Close()
	assert.Empty(t, drv.Leaked())
}

func TestResolveThreshold(t *testing.T) {
	// A device exposing exactly threshold non-ignored keys must fail;
	// one more must succeed.
	build := func(n int) *memdriver.Driver {
		dev := memdriver.NewDevice()
		added := 0
		// Alphanumerics and punctuation (0x04..0x38) are all non-ignored.
		for usage := uint32(keytable.UsageA); added < n && usage <= 0x38; usage++ {
			dev.AddElement(usage, hiddev.PageKeyboardOrKeypad)
			added++
		}
		return &memdriver.Driver{Keyboard: dev}
	}

	var reported []string
	drv := build(DefaultResolveThreshold)
	s := newTestSession(t, drv, Options{
		ErrorLog: func(msg string) { reported = append(reported, msg) },
	})
	assert.False(t, s.Ready(), "threshold is exclusive: exactly 40 keys is a failure")
	require.NotEmpty(t, reported)
	assert.Contains(t, reported[0], "resolved only 40 keys")

	drv2 := build(DefaultResolveThreshold + 1)
	s2 := newTestSession(t, drv2, Options{})
	assert.True(t, s2.Ready())
}

func TestOutOfRangeUsageIgnored(t *testing.T) {
	// NewKeyboard includes a usage beyond the table and a malformed
	// record; neither may disturb initialization or the resolved count.
	drv := memdriver.NewKeyboard()
	s := newTestSession(t, drv, Options{})

	require.True(t, s.Ready())
	assert.Nil(t, s.Table().KeyByCookie(memdriver.CookieFor(0x300)))
}

func TestDuplicateElementKeepsFirstBinding(t *testing.T) {
	drv := memdriver.NewKeyboard()
	first := resolvedCount(t, drv)

	// Re-advertise CapsLock with a different cookie.
	drv2 := memdriver.NewKeyboard()
	drv2.Keyboard.Iface.Records = append(drv2.Keyboard.Iface.Records, hiddev.ElementRecord{
		hiddev.FieldCookie:    int64(0x9999),
		hiddev.FieldUsage:     int64(keytable.UsageCapsLock),
		hiddev.FieldUsagePage: int64(hiddev.PageKeyboardOrKeypad),
	})

	var reported []string
	s := newTestSession(t, drv2, Options{
		Debug:    true,
		ErrorLog: func(msg string) { reported = append(reported, msg) },
	})
	require.True(t, s.Ready())

	k := s.Table().Key(keytable.UsageCapsLock)
	require.NotNil(t, k)
	assert.Equal(t, memdriver.CookieFor(keytable.UsageCapsLock), k.Cookie,
		"first binding must win")
	assert.Equal(t, first, s.Table().ResolvedCount(),
		"duplicate must not inflate the resolved count")

	found := false
	for _, msg := range reported {
		if strings.Contains(msg, "duplicate element report") {
			found = true
		}
	}
	assert.True(t, found, "debug mode escalates duplicates to the error log")
}

func resolvedCount(t *testing.T, drv *memdriver.Driver) int {
	t.Helper()
	s := New(drv, Options{})
	defer s.Close()
	require.True(t, s.Ready())
	return s.Table().ResolvedCount()
}

func TestCountDepressedKeys(t *testing.T) {
	drv := memdriver.NewKeyboard()
	s := newTestSession(t, drv, Options{})
	require.True(t, s.Ready())

	assert.Equal(t, 0, s.CountDepressedKeys())

	drv.Press(keytable.UsageA)
	drv.Press(keytable.UsageCapsLock)
	assert.Equal(t, 2, s.CountDepressedKeys())

	// Ignored keys (F1 is 0x3A) never count.
	drv.Press(0x3A)
	assert.Equal(t, 2, s.CountDepressedKeys())

	drv.Release(keytable.UsageA)
	assert.Equal(t, 1, s.CountDepressedKeys())
}

func TestCountReportsDriverAnomaly(t *testing.T) {
	drv := memdriver.NewKeyboard()
	drv.Keyboard.Iface.FailValue = map[hiddev.Cookie]memdriver.Status{
		memdriver.CookieFor(keytable.UsageA): hiddev.StatusError,
	}

	var reported []string
	s := newTestSession(t, drv, Options{
		ErrorLog: func(msg string) { reported = append(reported, msg) },
	})
	require.True(t, s.Ready())

	drv.Press(keytable.UsageCapsLock)
	assert.Equal(t, 1, s.CountDepressedKeys(), "failing key is skipped, not counted")

	found := false
	for _, msg := range reported {
		if strings.Contains(msg, "driver anomaly: no value for A") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDebugErrorKeyCheck(t *testing.T) {
	drv := memdriver.NewKeyboard()

	var reported []string
	s := newTestSession(t, drv, Options{
		Debug:    true,
		ErrorLog: func(msg string) { reported = append(reported, msg) },
	})
	require.True(t, s.Ready())

	drv.Press(keytable.UsageErrorRollOver)
	s.CountDepressedKeys()

	found := false
	for _, msg := range reported {
		if strings.Contains(msg, "error key active: ErrorRollOver") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDrainEventsOrdering(t *testing.T) {
	drv := memdriver.NewKeyboard()
	s := newTestSession(t, drv, Options{EnableQueue: true})
	require.True(t, s.QueueReady())

	drv.Press(keytable.UsageA)
	drv.Press(keytable.UsageCapsLock)
	drv.Release(keytable.UsageA)

	events := s.DrainEvents()
	require.Len(t, events, 3)
	assert.Equal(t, memdriver.CookieFor(keytable.UsageA), events[0].Cookie)
	assert.Equal(t, int32(1), events[0].Value)
	assert.Equal(t, memdriver.CookieFor(keytable.UsageCapsLock), events[1].Cookie)
	assert.Equal(t, memdriver.CookieFor(keytable.UsageA), events[2].Cookie)
	assert.Equal(t, int32(0), events[2].Value)

	assert.Empty(t, s.DrainEvents(), "second drain finds the queue empty")
}

func TestDrainAbortsOnDriverError(t *testing.T) {
	drv := memdriver.NewKeyboard()

	var reported []string
	s := newTestSession(t, drv, Options{
		EnableQueue: true,
		ErrorLog:    func(msg string) { reported = append(reported, msg) },
	})
	require.True(t, s.QueueReady())

	q := drv.Keyboard.Iface.Queue
	require.NotNil(t, q)
	e1 := hiddev.Event{Type: hiddev.ElementTypeButton, Cookie: memdriver.CookieFor(keytable.UsageA), Value: 1}
	e2 := hiddev.Event{Type: hiddev.ElementTypeButton, Cookie: memdriver.CookieFor(keytable.UsageA), Value: 0}
	q.Script(e1, hiddev.StatusOK)
	q.Script(e2, hiddev.StatusOK)
	q.Script(hiddev.Event{}, hiddev.StatusError)

	events := s.DrainEvents()
	require.Len(t, events, 2, "events before the failure are still delivered")
	assert.Equal(t, e1.Cookie, events[0].Cookie)
	assert.Equal(t, int32(0), events[1].Value)

	found := false
	for _, msg := range reported {
		if strings.Contains(msg, "event queue drain failed") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDrainSkipsNonButtonEvents(t *testing.T) {
	drv := memdriver.NewKeyboard()
	s := newTestSession(t, drv, Options{EnableQueue: true})
	require.True(t, s.QueueReady())

	q := drv.Keyboard.Iface.Queue
	q.Script(hiddev.Event{Type: hiddev.ElementTypeMisc, Cookie: 7, Value: 3}, hiddev.StatusOK)
	q.Script(hiddev.Event{Type: hiddev.ElementTypeButton, Cookie: memdriver.CookieFor(keytable.UsageA), Value: 1}, hiddev.StatusOK)

	events := s.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, hiddev.ElementTypeButton, events[0].Type)
}

func TestQueueDisabled(t *testing.T) {
	drv := memdriver.NewKeyboard()
	s := newTestSession(t, drv, Options{EnableQueue: false})

	require.True(t, s.Ready())
	assert.False(t, s.QueueReady())
	assert.Nil(t, s.DrainEvents())

	// Polling is unaffected.
	drv.Press(keytable.UsageA)
	assert.Equal(t, 1, s.CountDepressedKeys())
}

func TestQueueAllocationRefused(t *testing.T) {
	drv := memdriver.NewKeyboard()
	drv.Keyboard.Iface.RefuseQueue = true

	var reported []string
	s := newTestSession(t, drv, Options{
		EnableQueue: true,
		ErrorLog:    func(msg string) { reported = append(reported, msg) },
	})

	require.True(t, s.Ready(), "queue failure degrades, it does not abort")
	assert.False(t, s.QueueReady())
	assert.Nil(t, s.DrainEvents())

	found := false
	for _, msg := range reported {
		if strings.Contains(msg, "failed keyboard input queue initialization") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestQueueStartFailureReleasedAtTeardown(t *testing.T) {
	drv := memdriver.NewKeyboard()
	// Pre-allocate the queue so the failure mode can be scripted.
	q, ok := drv.Keyboard.Iface.AllocQueue()
	require.True(t, ok)
	mq := drv.Keyboard.Iface.Queue
	mq.FailStart = hiddev.StatusError
	q.Release()

	s := New(drv, Options{EnableQueue: true})
	require.True(t, s.Ready())
	assert.False(t, s.QueueReady())

	s.Close()
	assert.Empty(t, drv.Leaked(), "partially built queue must be released at teardown")
}

func TestInitFailureMessageIncludesDeviceDescription(t *testing.T) {
	drv := memdriver.NewKeyboard()
	drv.Keyboard.Iface.FailElements = hiddev.StatusError

	var reported []string
	s := newTestSession(t, drv, Options{
		ErrorLog: func(msg string) { reported = append(reported, msg) },
	})
	require.False(t, s.Ready())

	last := reported[len(reported)-1]
	assert.Contains(t, last, "failed basic keyboard initialization")
	assert.Contains(t, last, "Keyboard description follows:")
	assert.Contains(t, last, "Simulated Keyboard")
}

func TestCloseIdempotent(t *testing.T) {
	drv := memdriver.NewKeyboard()
	s := New(drv, Options{EnableQueue: true})
	require.True(t, s.Ready())

	s.Close()
	s.Close()
	assert.Empty(t, drv.Leaked())
	assert.Equal(t, -1, s.CountDepressedKeys())
}

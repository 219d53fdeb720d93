package memdriver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbstate/internal/hiddev"
)

func TestNewKeyboardElements(t *testing.T) {
	drv := NewKeyboard()
	require.NotNil(t, drv.Keyboard)

	records := drv.Keyboard.Iface.Records

	// 0xE7 well-formed keyboard-page elements, plus an LED-page element,
	// an out-of-range usage, and a malformed record.
	assert.Len(t, records, 0xE7+3)

	// Spot-check a generated record.
	rec := records[0x03] // usage 0x04, "A"
	cookie, ok := rec.Int64Field(hiddev.FieldCookie)
	require.True(t, ok)
	assert.Equal(t, int64(CookieFor(0x04)), cookie)
	usage, ok := rec.Int64Field(hiddev.FieldUsage)
	require.True(t, ok)
	assert.Equal(t, int64(0x04), usage)

	// The malformed record has a string where a number belongs.
	last := records[len(records)-1]
	_, ok = last.Int64Field(hiddev.FieldUsage)
	assert.False(t, ok)
}

func TestMatchingDevice(t *testing.T) {
	drv := NewKeyboard()

	_, ok := drv.MatchingDevice(hiddev.MatchQuery{UsagePage: 0x01, Usage: 0x02})
	assert.False(t, ok, "mouse query must not match")

	dev, ok := drv.MatchingDevice(hiddev.KeyboardQuery())
	require.True(t, ok)
	assert.Equal(t, 1, drv.Keyboard.Refs())

	dev.Release()
	assert.Equal(t, 0, drv.Keyboard.Refs())
	assert.Empty(t, drv.Leaked())
}

func TestNoDevice(t *testing.T) {
	drv := New()
	_, ok := drv.MatchingDevice(hiddev.KeyboardQuery())
	assert.False(t, ok)
}

func TestInterfaceLifecycle(t *testing.T) {
	drv := NewKeyboard()
	dev, _ := drv.MatchingDevice(hiddev.KeyboardQuery())

	plug, st := drv.CreatePlugIn(dev)
	require.Equal(t, hiddev.StatusOK, st)

	_, st = plug.QueryInterface("bogus-interface")
	assert.Equal(t, hiddev.StatusError, st)

	ifc, st := plug.QueryInterface(hiddev.InterfaceIDDevice)
	require.Equal(t, hiddev.StatusOK, st)

	// Elements before open is a protocol error.
	_, st = ifc.Elements()
	assert.Equal(t, hiddev.StatusNotOpen, st)

	require.Equal(t, hiddev.StatusOK, ifc.Open())
	_, st = ifc.Elements()
	assert.Equal(t, hiddev.StatusOK, st)

	assert.Equal(t, hiddev.StatusOK, ifc.Close())
	assert.Equal(t, hiddev.StatusNotOpen, ifc.Close())

	ifc.Release()
	plug.Destroy()
	dev.Release()
	assert.Empty(t, drv.Leaked())
}

func TestLeakedReportsHeldResources(t *testing.T) {
	drv := NewKeyboard()
	dev, _ := drv.MatchingDevice(hiddev.KeyboardQuery())
	plug, _ := drv.CreatePlugIn(dev)
	ifc, _ := plug.QueryInterface(hiddev.InterfaceIDDevice)
	require.Equal(t, hiddev.StatusOK, ifc.Open())

	leaks := drv.Leaked()
	assert.Contains(t, leaks, "device refs=1")
	assert.Contains(t, leaks, "plugin[0] not destroyed")
	assert.Contains(t, leaks, "interface still open")
}

func TestQueueTransitions(t *testing.T) {
	drv := NewKeyboard()
	ifc := drv.Keyboard.Iface

	q, ok := ifc.AllocQueue()
	require.True(t, ok)

	// Start before Create is a protocol error.
	assert.Equal(t, hiddev.StatusError, q.Start())

	require.Equal(t, hiddev.StatusOK, q.Create(8))
	require.Equal(t, hiddev.StatusOK, q.Start())

	c := CookieFor(0x04)
	require.Equal(t, hiddev.StatusOK, q.AddElement(c))

	drv.Press(0x04)
	ev, st := q.Next(0)
	require.Equal(t, hiddev.StatusOK, st)
	assert.Equal(t, c, ev.Cookie)
	assert.Equal(t, int32(1), ev.Value)
	assert.Equal(t, hiddev.ElementTypeButton, ev.Type)

	_, st = q.Next(0)
	assert.Equal(t, hiddev.StatusUnderrun, st)
}

func TestTransitionsIgnoreUnsubscribedCookies(t *testing.T) {
	drv := NewKeyboard()
	ifc := drv.Keyboard.Iface
	q, _ := ifc.AllocQueue()
	require.Equal(t, hiddev.StatusOK, q.Create(8))
	require.Equal(t, hiddev.StatusOK, q.Start())

	// Press without subscription updates the value but enqueues nothing.
	drv.Press(0x05)
	v, st := ifc.ElementValue(CookieFor(0x05))
	require.Equal(t, hiddev.StatusNotOpen, st)
	_ = v

	require.Equal(t, hiddev.StatusOK, ifc.Open())
	v, st = ifc.ElementValue(CookieFor(0x05))
	require.Equal(t, hiddev.StatusOK, st)
	assert.Equal(t, int32(1), v)

	_, st = q.Next(0)
	assert.Equal(t, hiddev.StatusUnderrun, st)
}

func TestScriptedDrainResponses(t *testing.T) {
	drv := NewKeyboard()
	ifc := drv.Keyboard.Iface
	q, _ := ifc.AllocQueue()
	mq := ifc.Queue
	require.Equal(t, hiddev.StatusOK, q.Create(8))
	require.Equal(t, hiddev.StatusOK, q.Start())

	mq.Script(hiddev.Event{Cookie: 1, Type: hiddev.ElementTypeButton, Value: 1}, hiddev.StatusOK)
	mq.Script(hiddev.Event{}, hiddev.StatusError)

	ev, st := q.Next(0)
	require.Equal(t, hiddev.StatusOK, st)
	assert.Equal(t, hiddev.Cookie(1), ev.Cookie)

	_, st = q.Next(0)
	assert.Equal(t, hiddev.StatusError, st)

	_, st = q.Next(0)
	assert.Equal(t, hiddev.StatusUnderrun, st)
}

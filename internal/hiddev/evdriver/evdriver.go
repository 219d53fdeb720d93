//go:build linux

// Package evdriver implements the hiddev driver contract on top of the
// Linux evdev interface. Device discovery walks /dev/input, the element
// set is derived from each device's EV_KEY capability list, snapshot
// values come from the kernel's key-state bitmap, and the event queue is
// fed by non-blocking reads of the device node.
package evdriver

import (
	"errors"
	"fmt"
	"os"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"kbstate/internal/hiddev"
	"kbstate/internal/logging"
)

// minKeyboardKeys is the minimum number of mappable keys a device must
// expose to be considered a keyboard rather than a button pad.
const minKeyboardKeys = 40

// Driver discovers and opens evdev keyboard devices.
type Driver struct {
	// DevicePath, when set, bypasses discovery and opens that node
	// directly.
	DevicePath string
}

// New returns an evdev driver using default discovery.
func New() *Driver {
	return &Driver{}
}

// MatchingDevice implements hiddev.Registry. Discovery opens each
// /dev/input/event* node read-only and keeps the first one whose EV_KEY
// capabilities look like a full keyboard.
func (d *Driver) MatchingDevice(q hiddev.MatchQuery) (hiddev.Device, bool) {
	if q.UsagePage != hiddev.PageGenericDesktop || q.Usage != hiddev.UsageKeyboard {
		return nil, false
	}

	if d.DevicePath != "" {
		dev, err := openKeyboard(d.DevicePath)
		if err != nil {
			logging.Warn("configured device is not usable",
				"path", d.DevicePath, "err", err)
			return nil, false
		}
		return dev, true
	}

	paths, err := evdev.ListDevicePaths()
	if err != nil {
		logging.Warn("input device enumeration failed", "err", err)
		return nil, false
	}
	for _, p := range paths {
		dev, err := openKeyboard(p.Path)
		if err != nil {
			continue
		}
		logging.Debug("matched keyboard device", "path", p.Path, "name", p.Name)
		return dev, true
	}
	return nil, false
}

// ListDevices implements hiddev.Lister over /dev/input.
func (d *Driver) ListDevices() ([]hiddev.DeviceSummary, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	var out []hiddev.DeviceSummary
	for _, p := range paths {
		s := hiddev.DeviceSummary{Path: p.Path, Name: p.Name}
		if dev, err := openKeyboard(p.Path); err == nil {
			s.Keyboard = true
			dev.Release()
		}
		out = append(out, s)
	}
	return out, nil
}

// openKeyboard opens a device node and verifies it exposes a keyboard's
// worth of mappable keys.
func openKeyboard(path string) (*Device, error) {
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, err
	}

	mappable := 0
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		if _, ok := codeToUsage[code]; ok {
			mappable++
		}
	}
	if mappable < minKeyboardKeys {
		dev.Close()
		return nil, fmt.Errorf("%s exposes only %d keyboard keys", path, mappable)
	}

	return &Device{dev: dev, path: path}, nil
}

// CreatePlugIn implements hiddev.PlugInSource.
func (d *Driver) CreatePlugIn(dev hiddev.Device) (hiddev.PlugIn, hiddev.Status) {
	ed, ok := dev.(*Device)
	if !ok {
		return nil, hiddev.StatusNoDevice
	}
	return &plugIn{dev: ed}, hiddev.StatusOK
}

// Device is an opened evdev device node.
type Device struct {
	dev  *evdev.InputDevice
	path string
}

// Property implements hiddev.Device.
func (d *Device) Property(key string) (hiddev.PropertyValue, bool) {
	switch key {
	case hiddev.PropTransport:
		return hiddev.PropertyValue{Str: "evdev", IsStr: true}, true
	case hiddev.PropProduct:
		name, err := d.dev.Name()
		if err != nil {
			return hiddev.PropertyValue{}, false
		}
		return hiddev.PropertyValue{Str: name, IsStr: true}, true
	case hiddev.PropLocationID:
		return hiddev.PropertyValue{Str: d.path, IsStr: true}, true
	case hiddev.PropVendorID, hiddev.PropProductID, hiddev.PropVersion:
		id, err := d.dev.InputID()
		if err != nil {
			return hiddev.PropertyValue{}, false
		}
		switch key {
		case hiddev.PropVendorID:
			return hiddev.PropertyValue{Number: int64(id.Vendor)}, true
		case hiddev.PropProductID:
			return hiddev.PropertyValue{Number: int64(id.Product)}, true
		default:
			return hiddev.PropertyValue{Number: int64(id.Version)}, true
		}
	}
	return hiddev.PropertyValue{}, false
}

// Release implements hiddev.Device. The underlying file descriptor stays
// open until the device interface is released; Release here only drops
// the match reference.
func (d *Device) Release() {
	if d.dev != nil {
		d.dev.Close()
		d.dev = nil
	}
}

// plugIn hands out the single interface the evdev backend supports.
type plugIn struct {
	dev *Device
}

func (p *plugIn) QueryInterface(id hiddev.InterfaceID) (hiddev.DeviceInterface, hiddev.Status) {
	if id != hiddev.InterfaceIDDevice {
		return nil, hiddev.StatusError
	}
	if p.dev.dev == nil {
		return nil, hiddev.StatusNoDevice
	}
	return &devIface{dev: p.dev.dev}, hiddev.StatusOK
}

func (p *plugIn) Destroy() {}

// devIface adapts one *evdev.InputDevice to hiddev.DeviceInterface.
// Cookies are the device's evdev key codes.
type devIface struct {
	dev   *evdev.InputDevice
	open  bool
	queue *queue
}

// Open implements hiddev.DeviceInterface. The node is switched to
// non-blocking mode so queue pumps never stall a poll.
func (i *devIface) Open() hiddev.Status {
	if err := i.dev.NonBlock(); err != nil {
		logging.Warn("nonblocking mode failed", "err", err)
		return hiddev.StatusError
	}
	i.open = true
	return hiddev.StatusOK
}

func (i *devIface) Close() hiddev.Status {
	if !i.open {
		return hiddev.StatusNotOpen
	}
	i.open = false
	return hiddev.StatusOK
}

// Elements implements hiddev.DeviceInterface. Every capable EV_KEY code
// with a known HID usage becomes one element record; other codes are
// reported without a usage page so the resolver skips them.
func (i *devIface) Elements() ([]hiddev.ElementRecord, hiddev.Status) {
	if !i.open {
		return nil, hiddev.StatusNotOpen
	}

	var records []hiddev.ElementRecord
	for _, code := range i.dev.CapableEvents(evdev.EV_KEY) {
		usage, ok := codeToUsage[code]
		if !ok {
			records = append(records, hiddev.ElementRecord{
				hiddev.FieldCookie: int64(code),
			})
			continue
		}
		records = append(records, hiddev.ElementRecord{
			hiddev.FieldCookie:    int64(code),
			hiddev.FieldUsage:     int64(usage),
			hiddev.FieldUsagePage: int64(hiddev.PageKeyboardOrKeypad),
		})
	}
	return records, hiddev.StatusOK
}

// ElementValue implements hiddev.DeviceInterface by consulting the
// kernel's current key-state bitmap.
func (i *devIface) ElementValue(c hiddev.Cookie) (int32, hiddev.Status) {
	if !i.open {
		return 0, hiddev.StatusNotOpen
	}
	state, err := i.dev.State(evdev.EV_KEY)
	if err != nil {
		return 0, hiddev.StatusError
	}
	if state[evdev.EvCode(c)] {
		return 1, hiddev.StatusOK
	}
	return 0, hiddev.StatusOK
}

// AllocQueue implements hiddev.DeviceInterface.
func (i *devIface) AllocQueue() (hiddev.EventQueue, bool) {
	if i.queue == nil {
		i.queue = &queue{iface: i, subscribed: make(map[hiddev.Cookie]bool)}
	}
	return i.queue, true
}

// Release implements hiddev.DeviceInterface. The file descriptor belongs
// to the Device and is closed by its Release.
func (i *devIface) Release() {}

// queue adapts non-blocking device reads to the hiddev queue contract.
// The kernel buffers events on the open descriptor; each Next call pumps
// whatever is pending into a bounded ring and then pops one record.
type queue struct {
	iface      *devIface
	subscribed map[hiddev.Cookie]bool
	ring       *hiddev.EventRing
	started    bool
}

func (q *queue) Create(depth uint32) hiddev.Status {
	q.ring = hiddev.NewEventRing(int(depth))
	return hiddev.StatusOK
}

func (q *queue) Start() hiddev.Status {
	if q.ring == nil {
		return hiddev.StatusError
	}
	q.started = true
	return hiddev.StatusOK
}

func (q *queue) Stop() hiddev.Status {
	q.started = false
	return hiddev.StatusOK
}

func (q *queue) AddElement(c hiddev.Cookie) hiddev.Status {
	q.subscribed[c] = true
	return hiddev.StatusOK
}

// Next implements hiddev.EventQueue. Reads are non-blocking, so a
// nonzero budget is served by re-polling the fd until the deadline.
func (q *queue) Next(budget time.Duration) (hiddev.Event, hiddev.Status) {
	if !q.started {
		return hiddev.Event{}, hiddev.StatusNotOpen
	}
	return hiddev.WaitNext(budget, q.poll)
}

func (q *queue) poll() (hiddev.Event, hiddev.Status) {
	if st := q.pump(); st != hiddev.StatusOK {
		return hiddev.Event{}, st
	}
	if ev, ok := q.ring.Pop(); ok {
		return ev, hiddev.StatusOK
	}
	return hiddev.Event{}, hiddev.StatusUnderrun
}

// pump moves every kernel-buffered event into the ring. EAGAIN means the
// kernel buffer is empty, which is the normal stopping condition.
func (q *queue) pump() hiddev.Status {
	for {
		ev, err := q.iface.dev.ReadOne()
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return hiddev.StatusOK
			}
			logging.Warn("device read failed", "err", err)
			return hiddev.StatusError
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		// Value 2 is auto-repeat; the queue carries transitions only.
		if ev.Value != 0 && ev.Value != 1 {
			continue
		}
		c := hiddev.Cookie(ev.Code)
		if !q.subscribed[c] {
			continue
		}
		q.ring.Push(hiddev.Event{
			Type:      hiddev.ElementTypeButton,
			Cookie:    c,
			Value:     ev.Value,
			Timestamp: time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000),
		})
	}
}

func (q *queue) Release() {
	q.started = false
	q.ring = nil
}

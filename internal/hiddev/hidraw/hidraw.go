// Package hidraw implements the hiddev driver contract on top of the
// hidapi raw HID interface. The element set comes from the device's
// report descriptor, and both snapshot values and queue events are
// derived from boot-protocol input reports read without blocking.
package hidraw

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"syscall"
	"time"

	hid "github.com/sstallion/go-hid"

	"kbstate/internal/hiddev"
	"kbstate/internal/logging"
)

// errStopEnum aborts enumeration once a match is found.
var errStopEnum = errors.New("stop enumeration")

var initOnce sync.Once

func hidInit() {
	initOnce.Do(func() {
		if err := hid.Init(); err != nil {
			logging.Warn("hidapi initialization failed", "err", err)
		}
	})
}

// Driver discovers raw HID keyboard interfaces.
type Driver struct {
	// DevicePath, when set, bypasses enumeration and opens that hidapi
	// path directly.
	DevicePath string
}

// New returns a hidraw driver using default enumeration.
func New() *Driver {
	return &Driver{}
}

// MatchingDevice implements hiddev.Registry by enumerating every HID
// interface and keeping the first whose application usage matches the
// query.
func (d *Driver) MatchingDevice(q hiddev.MatchQuery) (hiddev.Device, bool) {
	hidInit()

	if d.DevicePath != "" {
		return &Device{path: d.DevicePath}, true
	}

	var found *hid.DeviceInfo
	err := hid.Enumerate(0, 0, func(info *hid.DeviceInfo) error {
		if uint32(info.UsagePage) == q.UsagePage && uint32(info.Usage) == q.Usage {
			found = info
			return errStopEnum
		}
		return nil
	})
	if found == nil {
		if err != nil {
			logging.Debug("hid enumeration failed", "err", err)
		}
		return nil, false
	}
	logging.Debug("matched HID interface",
		"path", found.Path, "product", found.ProductStr)
	return &Device{path: found.Path, info: found}, true
}

// ListDevices implements hiddev.Lister over hidapi enumeration.
func (d *Driver) ListDevices() ([]hiddev.DeviceSummary, error) {
	hidInit()
	var out []hiddev.DeviceSummary
	err := hid.Enumerate(0, 0, func(info *hid.DeviceInfo) error {
		out = append(out, hiddev.DeviceSummary{
			Path: info.Path,
			Name: info.ProductStr,
			Keyboard: uint32(info.UsagePage) == hiddev.PageGenericDesktop &&
				uint32(info.Usage) == hiddev.UsageKeyboard,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePlugIn implements hiddev.PlugInSource.
func (d *Driver) CreatePlugIn(dev hiddev.Device) (hiddev.PlugIn, hiddev.Status) {
	hd, ok := dev.(*Device)
	if !ok {
		return nil, hiddev.StatusNoDevice
	}
	return &plugIn{dev: hd}, hiddev.StatusOK
}

// Device is an enumerated (not yet opened) HID interface.
type Device struct {
	path string
	info *hid.DeviceInfo
}

// Property implements hiddev.Device.
func (d *Device) Property(key string) (hiddev.PropertyValue, bool) {
	if d.info == nil {
		if key == hiddev.PropLocationID {
			return hiddev.PropertyValue{Str: d.path, IsStr: true}, true
		}
		return hiddev.PropertyValue{}, false
	}
	switch key {
	case hiddev.PropTransport:
		return hiddev.PropertyValue{Str: "hidraw", IsStr: true}, true
	case hiddev.PropVendorID:
		return hiddev.PropertyValue{Number: int64(d.info.VendorID)}, true
	case hiddev.PropProductID:
		return hiddev.PropertyValue{Number: int64(d.info.ProductID)}, true
	case hiddev.PropVersion:
		return hiddev.PropertyValue{Number: int64(d.info.ReleaseNbr)}, true
	case hiddev.PropManufacturer:
		return hiddev.PropertyValue{Str: d.info.MfrStr, IsStr: true}, true
	case hiddev.PropProduct:
		return hiddev.PropertyValue{Str: d.info.ProductStr, IsStr: true}, true
	case hiddev.PropSerialNumber:
		return hiddev.PropertyValue{Str: d.info.SerialNbr, IsStr: true}, true
	case hiddev.PropLocationID:
		return hiddev.PropertyValue{Str: d.path, IsStr: true}, true
	}
	return hiddev.PropertyValue{}, false
}

// Release implements hiddev.Device. Enumeration holds no OS resources.
func (d *Device) Release() {}

type plugIn struct {
	dev *Device
}

func (p *plugIn) QueryInterface(id hiddev.InterfaceID) (hiddev.DeviceInterface, hiddev.Status) {
	if id != hiddev.InterfaceIDDevice {
		return nil, hiddev.StatusError
	}
	return &devIface{path: p.dev.path}, hiddev.StatusOK
}

func (p *plugIn) Destroy() {}

// devIface owns the opened hidapi handle. Cookies are usage codes; the
// boot-report reader keeps a current-state map that both snapshot reads
// and the queue consume.
type devIface struct {
	path  string
	dev   *hid.Device
	state map[hiddev.Cookie]int32
	queue *queue
}

// Open implements hiddev.DeviceInterface.
func (i *devIface) Open() hiddev.Status {
	dev, err := hid.OpenPath(i.path)
	if err != nil {
		logging.Warn("hid open failed", "path", i.path, "err", err)
		return openFailureStatus(i.path, err)
	}
	if err := dev.SetNonblock(true); err != nil {
		dev.Close()
		return hiddev.StatusError
	}
	i.dev = dev
	i.state = make(map[hiddev.Cookie]int32)
	return hiddev.StatusOK
}

// openFailureStatus classifies an open failure. hidapi tends to flatten
// errno into the error text, so the path is probed directly to tell a
// vanished node apart from one another process holds.
func openFailureStatus(path string, err error) hiddev.Status {
	if errors.Is(err, fs.ErrNotExist) {
		return hiddev.StatusNoDevice
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		return hiddev.StatusNoDevice
	}
	if errors.Is(err, syscall.EBUSY) {
		return hiddev.StatusExclusiveAccess
	}
	return hiddev.StatusError
}

// Close implements hiddev.DeviceInterface.
func (i *devIface) Close() hiddev.Status {
	if i.dev == nil {
		return hiddev.StatusNotOpen
	}
	i.dev.Close()
	i.dev = nil
	return hiddev.StatusOK
}

// Elements implements hiddev.DeviceInterface by scanning the report
// descriptor for keyboard-page input usages.
func (i *devIface) Elements() ([]hiddev.ElementRecord, hiddev.Status) {
	if i.dev == nil {
		return nil, hiddev.StatusNotOpen
	}

	buf := make([]byte, hid.MaxReportDescriptorSize)
	n, err := i.dev.GetReportDescriptor(buf)
	if err != nil {
		logging.Warn("report descriptor unavailable", "err", err)
		return nil, hiddev.StatusError
	}

	var records []hiddev.ElementRecord
	for _, usage := range keyboardUsages(buf[:n], hiddev.PageKeyboardOrKeypad) {
		records = append(records, hiddev.ElementRecord{
			hiddev.FieldCookie:    int64(usage),
			hiddev.FieldUsage:     int64(usage),
			hiddev.FieldUsagePage: int64(hiddev.PageKeyboardOrKeypad),
		})
	}
	return records, hiddev.StatusOK
}

// ElementValue implements hiddev.DeviceInterface. Pending input reports
// are consumed first so the answer reflects the device's latest report.
func (i *devIface) ElementValue(c hiddev.Cookie) (int32, hiddev.Status) {
	if i.dev == nil {
		return 0, hiddev.StatusNotOpen
	}
	if st := i.pump(); st != hiddev.StatusOK {
		return 0, st
	}
	return i.state[c], hiddev.StatusOK
}

// AllocQueue implements hiddev.DeviceInterface.
func (i *devIface) AllocQueue() (hiddev.EventQueue, bool) {
	if i.queue == nil {
		i.queue = &queue{iface: i, subscribed: make(map[hiddev.Cookie]bool)}
	}
	return i.queue, true
}

// Release implements hiddev.DeviceInterface.
func (i *devIface) Release() {
	if i.dev != nil {
		i.dev.Close()
		i.dev = nil
	}
}

// pump drains pending boot-protocol input reports, updating the state
// map and emitting transitions for subscribed cookies.
func (i *devIface) pump() hiddev.Status {
	buf := make([]byte, 64)
	for {
		n, err := i.dev.Read(buf)
		if err != nil {
			logging.Warn("hid read failed", "err", err)
			return hiddev.StatusError
		}
		if n == 0 {
			return hiddev.StatusOK
		}
		i.applyReport(buf[:n])
	}
}

// applyReport diffs one boot report (modifier bitmap + up to six key
// slots) against the current state.
func (i *devIface) applyReport(report []byte) {
	if len(report) < 3 {
		return
	}

	next := make(map[hiddev.Cookie]int32, 8)

	// Byte 0: modifier bitmap, usages 0xE0..0xE7.
	for bit := uint32(0); bit < 8; bit++ {
		if report[0]&(1<<bit) != 0 {
			next[hiddev.Cookie(0xE0+bit)] = 1
		}
	}

	// Bytes 2..7: key slots. 0x01 in every slot is phantom rollover;
	// the previous state stands.
	phantom := true
	for _, b := range report[2:] {
		if b != 0x01 {
			phantom = false
		}
	}
	if phantom && len(report) >= 8 {
		return
	}
	for _, b := range report[2:] {
		if b > 0x01 {
			next[hiddev.Cookie(b)] = 1
		}
	}

	i.emitTransitions(next)
	i.state = next
}

func (i *devIface) emitTransitions(next map[hiddev.Cookie]int32) {
	q := i.queue
	if q == nil || !q.started {
		return
	}
	now := time.Now()
	for c := range i.state {
		if next[c] == 0 && q.subscribed[c] {
			q.ring.Push(hiddev.Event{
				Type: hiddev.ElementTypeButton, Cookie: c, Timestamp: now,
			})
		}
	}
	for c := range next {
		if i.state[c] == 0 && q.subscribed[c] {
			q.ring.Push(hiddev.Event{
				Type: hiddev.ElementTypeButton, Cookie: c, Value: 1, Timestamp: now,
			})
		}
	}
}

// queue exposes the report diff stream through the hiddev queue
// contract.
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

// Next honors a nonzero budget by re-reading reports until the deadline;
// the handle itself is non-blocking.
func (q *queue) Next(budget time.Duration) (hiddev.Event, hiddev.Status) {
	if !q.started || q.iface.dev == nil {
		return hiddev.Event{}, hiddev.StatusNotOpen
	}
	return hiddev.WaitNext(budget, q.poll)
}

func (q *queue) poll() (hiddev.Event, hiddev.Status) {
	if st := q.iface.pump(); st != hiddev.StatusOK {
		return hiddev.Event{}, st
	}
	if ev, ok := q.ring.Pop(); ok {
		return ev, hiddev.StatusOK
	}
	return hiddev.Event{}, hiddev.StatusUnderrun
}

func (q *queue) Release() {
	q.started = false
	q.ring = nil
}

// Package memdriver is an in-memory, scripted implementation of the hiddev
// driver contract. It backs the "memory" driver type in config and gives
// tests a keyboard whose elements, values, queue behavior, and failure
// modes are fully controlled, with reference-count tracking so teardown
// leaks are observable.
package memdriver

import (
	"fmt"
	"time"

	"kbstate/internal/hiddev"
)

// cookieBase offsets generated cookies away from raw usage codes so tests
// notice if a usage code is ever mistaken for a cookie.
const cookieBase = 0x100

// CookieFor returns the cookie a generated element carries for a usage
// code.
func CookieFor(usage uint32) hiddev.Cookie {
	return hiddev.Cookie(cookieBase + usage)
}

// Driver is a scripted hiddev.Driver.
type Driver struct {
	// Keyboard is the device MatchingDevice hands out for a keyboard
	// query. Nil means no device matches.
	Keyboard *Device

	// FailPlugIn makes CreatePlugIn refuse.
	FailPlugIn bool

	plugIns []*PlugIn
}

// New returns a driver with no devices.
func New() *Driver {
	return &Driver{}
}

// NewKeyboard returns a driver simulating a full keyboard: one element per
// usage on the keyboard/keypad page for usages 1..0xE7, plus the noise a
// real driver reports (an LED-page element, a malformed record, and an
// element with a usage beyond the key table).
func NewKeyboard() *Driver {
	dev := NewDevice()
	for usage := uint32(1); usage <= 0xE7; usage++ {
		dev.AddElement(usage, hiddev.PageKeyboardOrKeypad)
	}
	dev.AddElement(0x01, 0x08) // LED page, skipped by the resolver
	dev.AddElement(0x300, hiddev.PageKeyboardOrKeypad)
	dev.Iface.Records = append(dev.Iface.Records, hiddev.ElementRecord{
		hiddev.FieldUsage: "LED collection",
	})
	return &Driver{Keyboard: dev}
}

// ListDevices implements hiddev.Lister.
func (d *Driver) ListDevices() ([]hiddev.DeviceSummary, error) {
	if d.Keyboard == nil {
		return nil, nil
	}
	name := "simulated keyboard"
	if v, ok := d.Keyboard.Property(hiddev.PropProduct); ok {
		name = v.String()
	}
	return []hiddev.DeviceSummary{{Path: "memory:0", Name: name, Keyboard: true}}, nil
}

// MatchingDevice implements hiddev.Registry.
func (d *Driver) MatchingDevice(q hiddev.MatchQuery) (hiddev.Device, bool) {
	if d.Keyboard == nil {
		return nil, false
	}
	if q.UsagePage != hiddev.PageGenericDesktop || q.Usage != hiddev.UsageKeyboard {
		return nil, false
	}
	d.Keyboard.refs++
	return d.Keyboard, true
}

// CreatePlugIn implements hiddev.PlugInSource.
func (d *Driver) CreatePlugIn(dev hiddev.Device) (hiddev.PlugIn, Status) {
	if d.FailPlugIn {
		return nil, hiddev.StatusError
	}
	sd, ok := dev.(*Device)
	if !ok {
		return nil, hiddev.StatusNoDevice
	}
	p := &PlugIn{dev: sd}
	d.plugIns = append(d.plugIns, p)
	return p, hiddev.StatusOK
}

// Status is re-exported so scripted failure fields read naturally in tests.
type Status = hiddev.Status

// Leaked describes every resource that was acquired but not returned:
// device references still held, plugins not destroyed, interfaces open or
// unreleased, queues running or unreleased. Empty means clean teardown.
func (d *Driver) Leaked() []string {
	var leaks []string
	if d.Keyboard != nil && d.Keyboard.refs != 0 {
		leaks = append(leaks, fmt.Sprintf("device refs=%d", d.Keyboard.refs))
	}
	for i, p := range d.plugIns {
		if !p.destroyed {
			leaks = append(leaks, fmt.Sprintf("plugin[%d] not destroyed", i))
		}
	}
	if d.Keyboard != nil {
		ifc := d.Keyboard.Iface
		if ifc.open {
			leaks = append(leaks, "interface still open")
		}
		if ifc.acquired != ifc.released {
			leaks = append(leaks, fmt.Sprintf("interface acquired=%d released=%d", ifc.acquired, ifc.released))
		}
		q := ifc.Queue
		if q != nil {
			if q.started {
				leaks = append(leaks, "queue still started")
			}
			if q.allocated != q.released {
				leaks = append(leaks, fmt.Sprintf("queue allocated=%d released=%d", q.allocated, q.released))
			}
		}
	}
	return leaks
}

// Press sets a key's element value to 1 and, when the queue is live and the
// element subscribed, enqueues a press transition.
func (d *Driver) Press(usage uint32) {
	d.transition(usage, 1)
}

// Release sets a key's element value to 0 and enqueues a release
// transition when applicable.
func (d *Driver) Release(usage uint32) {
	d.transition(usage, 0)
}

func (d *Driver) transition(usage uint32, value int32) {
	if d.Keyboard == nil {
		return
	}
	c := CookieFor(usage)
	ifc := d.Keyboard.Iface
	ifc.Values[c] = value
	q := ifc.Queue
	if q == nil || !q.started || !q.subscribed[c] {
		return
	}
	q.ring.Push(hiddev.Event{
		Type:      hiddev.ElementTypeButton,
		Cookie:    c,
		Value:     value,
		Timestamp: time.Now(),
	})
}

// Device is a scripted matched device.
type Device struct {
	// Props is the diagnostic property store.
	Props map[string]hiddev.PropertyValue

	// Iface is the device interface plugins hand out for this device.
	Iface *Interface

	refs int
}

// NewDevice returns a device with typical diagnostic properties and an
// empty element set.
func NewDevice() *Device {
	return &Device{
		Props: map[string]hiddev.PropertyValue{
			hiddev.PropTransport:    {Str: "USB", IsStr: true},
			hiddev.PropVendorID:     {Number: 0x05AC},
			hiddev.PropProductID:    {Number: 0x0250},
			hiddev.PropProduct:      {Str: "Simulated Keyboard", IsStr: true},
			hiddev.PropManufacturer: {Str: "memdriver", IsStr: true},
		},
		Iface: &Interface{
			Values: make(map[hiddev.Cookie]int32),
		},
	}
}

// AddElement appends a well-formed element record for a usage on a page.
func (d *Device) AddElement(usage, page uint32) {
	d.Iface.Records = append(d.Iface.Records, hiddev.ElementRecord{
		hiddev.FieldCookie:    int64(CookieFor(usage)),
		hiddev.FieldUsage:     int64(usage),
		hiddev.FieldUsagePage: int64(page),
	})
}

// Property implements hiddev.Device.
func (d *Device) Property(key string) (hiddev.PropertyValue, bool) {
	v, ok := d.Props[key]
	return v, ok
}

// Release implements hiddev.Device.
func (d *Device) Release() {
	d.refs--
}

// Refs returns the outstanding reference count, for leak assertions.
func (d *Device) Refs() int {
	return d.refs
}

// PlugIn is a scripted factory object.
type PlugIn struct {
	// FailQuery makes QueryInterface refuse.
	FailQuery bool

	dev       *Device
	destroyed bool
}

// QueryInterface implements hiddev.PlugIn.
func (p *PlugIn) QueryInterface(id hiddev.InterfaceID) (hiddev.DeviceInterface, Status) {
	if p.FailQuery || id != hiddev.InterfaceIDDevice {
		return nil, hiddev.StatusError
	}
	p.dev.Iface.acquired++
	return p.dev.Iface, hiddev.StatusOK
}

// Destroy implements hiddev.PlugIn.
func (p *PlugIn) Destroy() {
	p.destroyed = true
}

// Destroyed reports whether Destroy ran.
func (p *PlugIn) Destroyed() bool {
	return p.destroyed
}

// Interface is a scripted device interface.
type Interface struct {
	// FailOpen, when non-OK, makes Open fail with that status.
	FailOpen Status

	// FailElements, when non-OK, makes Elements fail with that status.
	FailElements Status

	// Records is the ordered descriptor collection Elements returns.
	Records []hiddev.ElementRecord

	// Values holds the current value per cookie.
	Values map[hiddev.Cookie]int32

	// FailValue lists cookies whose ElementValue call fails.
	FailValue map[hiddev.Cookie]Status

	// RefuseQueue makes AllocQueue report refusal.
	RefuseQueue bool

	// Queue is lazily allocated by AllocQueue.
	Queue *Queue

	open      bool
	valueGets int
	acquired  int
	released  int
}

// Open implements hiddev.DeviceInterface.
func (i *Interface) Open() Status {
	if i.FailOpen != hiddev.StatusOK {
		return i.FailOpen
	}
	i.open = true
	return hiddev.StatusOK
}

// Close implements hiddev.DeviceInterface.
func (i *Interface) Close() Status {
	if !i.open {
		return hiddev.StatusNotOpen
	}
	i.open = false
	return hiddev.StatusOK
}

// Elements implements hiddev.DeviceInterface.
func (i *Interface) Elements() ([]hiddev.ElementRecord, Status) {
	if i.FailElements != hiddev.StatusOK {
		return nil, i.FailElements
	}
	if !i.open {
		return nil, hiddev.StatusNotOpen
	}
	return i.Records, hiddev.StatusOK
}

// ElementValue implements hiddev.DeviceInterface.
func (i *Interface) ElementValue(c hiddev.Cookie) (int32, Status) {
	i.valueGets++
	if !i.open {
		return 0, hiddev.StatusNotOpen
	}
	if s, ok := i.FailValue[c]; ok {
		return 0, s
	}
	return i.Values[c], hiddev.StatusOK
}

// ValueGets returns the number of ElementValue calls made, so tests can
// assert an uninitialized session performs no driver calls.
func (i *Interface) ValueGets() int {
	return i.valueGets
}

// AllocQueue implements hiddev.DeviceInterface.
func (i *Interface) AllocQueue() (hiddev.EventQueue, bool) {
	if i.RefuseQueue {
		return nil, false
	}
	if i.Queue == nil {
		i.Queue = &Queue{subscribed: make(map[hiddev.Cookie]bool)}
	}
	i.Queue.allocated++
	return i.Queue, true
}

// Release implements hiddev.DeviceInterface.
func (i *Interface) Release() {
	i.released++
}

// scriptedNext is one pre-programmed Next response.
type scriptedNext struct {
	ev     hiddev.Event
	status Status
}

// Queue is a scripted event queue backed by a bounded ring.
type Queue struct {
	// FailCreate, FailStart, when non-OK, fail those transitions.
	FailCreate Status
	FailStart  Status

	// FailAdd lists cookies whose AddElement call fails.
	FailAdd map[hiddev.Cookie]Status

	created    bool
	started    bool
	depth      uint32
	ring       *hiddev.EventRing
	subscribed map[hiddev.Cookie]bool
	script     []scriptedNext
	allocated  int
	released   int
}

// Script appends a pre-programmed Next response, consumed before the ring
// is consulted. Use it to inject mid-drain failure statuses.
func (q *Queue) Script(ev hiddev.Event, s Status) {
	q.script = append(q.script, scriptedNext{ev: ev, status: s})
}

// Subscribed reports whether a cookie was added to the queue.
func (q *Queue) Subscribed(c hiddev.Cookie) bool {
	return q.subscribed[c]
}

// Create implements hiddev.EventQueue.
func (q *Queue) Create(depth uint32) Status {
	if q.FailCreate != hiddev.StatusOK {
		return q.FailCreate
	}
	q.created = true
	q.depth = depth
	q.ring = hiddev.NewEventRing(int(depth))
	return hiddev.StatusOK
}

// Start implements hiddev.EventQueue.
func (q *Queue) Start() Status {
	if q.FailStart != hiddev.StatusOK {
		return q.FailStart
	}
	if !q.created {
		return hiddev.StatusError
	}
	q.started = true
	return hiddev.StatusOK
}

// Stop implements hiddev.EventQueue.
func (q *Queue) Stop() Status {
	q.started = false
	return hiddev.StatusOK
}

// AddElement implements hiddev.EventQueue.
func (q *Queue) AddElement(c hiddev.Cookie) Status {
	if s, ok := q.FailAdd[c]; ok {
		return s
	}
	q.subscribed[c] = true
	return hiddev.StatusOK
}

// Next implements hiddev.EventQueue.
func (q *Queue) Next(budget time.Duration) (hiddev.Event, Status) {
	_ = budget // the simulated queue never blocks
	if len(q.script) > 0 {
		s := q.script[0]
		q.script = q.script[1:]
		return s.ev, s.status
	}
	if q.ring != nil {
		if e, ok := q.ring.Pop(); ok {
			return e, hiddev.StatusOK
		}
	}
	return hiddev.Event{}, hiddev.StatusUnderrun
}

// Release implements hiddev.EventQueue.
func (q *Queue) Release() {
	q.released++
}

// Package hiddev defines the driver-facing contract for reading keyboard
// state from the HID layer.
//
// The package models the handshake a HID stack expects from a consumer:
//
//	Registry ──match──▶ Device ──plugin──▶ PlugIn ──query──▶ DeviceInterface
//	                                                              │
//	                                              Elements / ElementValue
//	                                                              │
//	                                                         EventQueue
//
// Three implementations exist: evdriver (Linux evdev), hidraw (hidapi via
// go-hid), and memdriver (in-memory, scripted; used by tests and selectable
// from config). Session logic in internal/session is written purely against
// these interfaces, so matching, element resolution, and queue handling
// behave identically on a real driver and a simulated one.
//
// Ownership rules: every Device, PlugIn, DeviceInterface, and EventQueue is
// owned by exactly one caller and must be released exactly once, in reverse
// acquisition order. PlugIn is a factory object and is destroyed rather than
// released.
package hiddev

import (
	"fmt"
	"time"
)

// Status is a driver status code. Drivers return Status rather than error so
// that distinguished non-fatal codes (notably StatusUnderrun) keep their
// identity across the interface boundary.
type Status int

const (
	// StatusOK means the operation succeeded.
	StatusOK Status = iota

	// StatusError is a generic driver failure.
	StatusError

	// StatusUnderrun means the event queue has no more data available right
	// now. It terminates a drain loop and is not an error.
	StatusUnderrun

	// StatusNotOpen means the device interface has not been opened.
	StatusNotOpen

	// StatusExclusiveAccess means another client holds the device.
	StatusExclusiveAccess

	// StatusNoDevice means the device disappeared underneath us.
	StatusNoDevice
)

// String returns a short name for the status, for log context.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusUnderrun:
		return "underrun"
	case StatusNotOpen:
		return "not-open"
	case StatusExclusiveAccess:
		return "exclusive-access"
	case StatusNoDevice:
		return "no-device"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Cookie is an opaque, driver-assigned handle for one input element. Zero is
// never a valid cookie; an unset binding is represented by Cookie(0).
type Cookie uint32

// Standard HID usage pages and usages this package cares about.
const (
	// PageGenericDesktop is the generic desktop controls usage page.
	PageGenericDesktop = 0x01

	// PageKeyboardOrKeypad is the keyboard/keypad usage page. Only elements
	// on this page are considered for key binding.
	PageKeyboardOrKeypad = 0x07

	// UsageKeyboard is the keyboard usage on the generic desktop page.
	UsageKeyboard = 0x06
)

// MatchQuery describes the device the caller wants: a HID device whose
// primary usage page and usage match.
type MatchQuery struct {
	UsagePage uint32
	Usage     uint32
}

// KeyboardQuery returns the query for a keyboard device.
func KeyboardQuery() MatchQuery {
	return MatchQuery{UsagePage: PageGenericDesktop, Usage: UsageKeyboard}
}

// Registry is the platform's device registry: it accepts a capability query
// and returns zero or one matching device. On success the caller owns the
// returned device and must Release it.
type Registry interface {
	MatchingDevice(q MatchQuery) (Device, bool)
}

// PropertyValue is an optionally-typed device property: a number or a
// string. Properties are diagnostic metadata only.
type PropertyValue struct {
	Number int64
	Str    string
	IsStr  bool
}

// String renders the value for diagnostic output.
func (v PropertyValue) String() string {
	if v.IsStr {
		return v.Str
	}
	return fmt.Sprintf("%d", v.Number)
}

// Well-known device property keys.
const (
	PropTransport    = "Transport"
	PropVendorID     = "VendorID"
	PropProductID    = "ProductID"
	PropVersion      = "VersionNumber"
	PropManufacturer = "Manufacturer"
	PropProduct      = "Product"
	PropSerialNumber = "SerialNumber"
	PropCountryCode  = "CountryCode"
	PropLocationID   = "LocationID"
)

// DeviceProperties lists the property keys collected for diagnostics, in
// report order.
var DeviceProperties = []string{
	PropTransport,
	PropVendorID,
	PropProductID,
	PropVersion,
	PropManufacturer,
	PropProduct,
	PropSerialNumber,
	PropCountryCode,
	PropLocationID,
}

// Device is a matched device reference. It is a handle on the registry
// entry, not an open device; opening happens on the DeviceInterface derived
// from it.
type Device interface {
	// Property returns a diagnostic property value, or false if the driver
	// does not report it.
	Property(key string) (PropertyValue, bool)

	// Release returns the reference to the driver.
	Release()
}

// InterfaceID identifies a concrete interface requested from a PlugIn.
type InterfaceID string

// InterfaceIDDevice is the device-interface implementation every backend
// provides.
const InterfaceIDDevice InterfaceID = "hid-device-interface"

// PlugIn is the intermediate factory object obtained for a matched device.
// It exists only to be queried for concrete interfaces, and must be
// destroyed (not released) once the session tears down.
type PlugIn interface {
	// QueryInterface asks the factory for a concrete interface
	// implementation. The returned DeviceInterface is not yet open.
	QueryInterface(id InterfaceID) (DeviceInterface, Status)

	// Destroy destroys the factory object.
	Destroy()
}

// PlugInSource creates plugin factory objects scoped to a matched device.
type PlugInSource interface {
	CreatePlugIn(dev Device) (PlugIn, Status)
}

// Driver is what a backend exposes: the registry plus the plugin factory
// service.
type Driver interface {
	Registry
	PlugInSource
}

// Element record keys. An ElementRecord is a loosely-typed property bag; the
// resolver extracts these three numeric fields and skips any record where
// one is missing or has the wrong type.
const (
	FieldCookie    = "ElementCookie"
	FieldUsage     = "Usage"
	FieldUsagePage = "UsagePage"
)

// ElementRecord is one driver-reported input element descriptor. Values are
// loosely typed on purpose: drivers report elements outside our interest
// (LEDs, collections, vendor blobs) and their records may not carry the
// fields we need.
type ElementRecord map[string]any

// Int64Field extracts a numeric field from the record. It accepts the
// integer widths drivers actually hand back.
func (r ElementRecord) Int64Field(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	default:
		return 0, false
	}
}

// DeviceInterface is a live, openable handle on the matched device.
type DeviceInterface interface {
	// Open opens the interface for exclusive access. Obtaining the interface
	// and opening it are distinct fallible steps; a non-OK open is a hard
	// failure even though the handle exists.
	Open() Status

	// Close closes an opened interface.
	Close() Status

	// Elements returns all input element descriptors the device reports, as
	// an ordered collection of loosely-typed records.
	Elements() ([]ElementRecord, Status)

	// ElementValue returns the current value of one element. For keys the
	// value is boolean-ish: nonzero means depressed.
	ElementValue(c Cookie) (int32, Status)

	// AllocQueue allocates an event queue on the device, or reports refusal.
	AllocQueue() (EventQueue, bool)

	// Release releases the interface handle.
	Release()
}

// ElementType classifies a queued event's source element.
type ElementType int

const (
	// ElementTypeMisc is an input element we do not model.
	ElementTypeMisc ElementType = 1

	// ElementTypeButton is a boolean-ish input element; key transitions are
	// button events.
	ElementTypeButton ElementType = 2
)

// String returns a short name for the element type.
func (t ElementType) String() string {
	switch t {
	case ElementTypeMisc:
		return "misc"
	case ElementTypeButton:
		return "button"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Event is one raw transition record drained from an event queue. A nonzero
// Value is a press, zero is a release.
type Event struct {
	Type      ElementType
	Cookie    Cookie
	Value     int32
	Timestamp time.Time
}

// EventQueue is a bounded, driver-managed ring buffer of input transitions.
// The driver may enqueue at any time; the session drains at its own pace.
// Lifecycle: AllocQueue → Create → Start → AddElement* → Next* → Stop →
// Release.
type EventQueue interface {
	// Create sizes the queue. Once full, the oldest entries are dropped.
	Create(depth uint32) Status

	// Start activates event delivery.
	Start() Status

	// Stop halts event delivery.
	Stop() Status

	// AddElement subscribes one element's transitions into the queue.
	AddElement(c Cookie) Status

	// Next returns the next queued event, waiting at most budget. A zero
	// budget means return immediately. StatusUnderrun means no more data is
	// available right now; it is the expected drain-loop terminator, not an
	// error.
	Next(budget time.Duration) (Event, Status)

	// Release releases the queue handle.
	Release()
}

// DeviceSummary is one enumerated device, for listings.
type DeviceSummary struct {
	// Path is the backend-specific device identifier.
	Path string

	// Name is the device's human-readable name, when known.
	Name string

	// Keyboard reports whether the device would satisfy KeyboardQuery.
	Keyboard bool
}

// Lister is implemented by drivers that can enumerate candidate devices
// without matching one.
type Lister interface {
	ListDevices() ([]DeviceSummary, error)
}

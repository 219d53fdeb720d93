package hidraw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// bootKeyboardDescriptor is the standard boot-protocol keyboard report
// descriptor from the USB HID specification appendix.
var bootKeyboardDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x06, // Usage (Keyboard)
	0xA1, 0x01, // Collection (Application)
	0x05, 0x07, //   Usage Page (Keyboard/Keypad)
	0x19, 0xE0, //   Usage Minimum (0xE0)
	0x29, 0xE7, //   Usage Maximum (0xE7)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, 0x08, //   Report Count (8)
	0x81, 0x02, //   Input (Data, Variable, Absolute)
	0x95, 0x01, //   Report Count (1)
	0x75, 0x08, //   Report Size (8)
	0x81, 0x01, //   Input (Constant)
	0x95, 0x05, //   Report Count (5)
	0x75, 0x01, //   Report Size (1)
	0x05, 0x08, //   Usage Page (LEDs)
	0x19, 0x01, //   Usage Minimum (1)
	0x29, 0x05, //   Usage Maximum (5)
	0x91, 0x02, //   Output (Data, Variable, Absolute)
	0x95, 0x01, //   Report Count (1)
	0x75, 0x03, //   Report Size (3)
	0x91, 0x01, //   Output (Constant)
	0x95, 0x06, //   Report Count (6)
	0x75, 0x08, //   Report Size (8)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x65, //   Logical Maximum (101)
	0x05, 0x07, //   Usage Page (Keyboard/Keypad)
	0x19, 0x00, //   Usage Minimum (0)
	0x29, 0x65, //   Usage Maximum (101)
	0x81, 0x00, //   Input (Data, Array)
	0xC0, // End Collection
}

func TestBootKeyboardDescriptor(t *testing.T) {
	usages := keyboardUsages(bootKeyboardDescriptor, 0x07)

	// Modifiers 0xE0..0xE7 plus the array range 0x00..0x65.
	assert.Len(t, usages, 8+0x66)
	assert.Contains(t, usages, uint32(0xE0))
	assert.Contains(t, usages, uint32(0xE7))
	assert.Contains(t, usages, uint32(0x04))
	assert.Contains(t, usages, uint32(0x65))
	assert.NotContains(t, usages, uint32(0x66))

	// Modifiers are declared first.
	assert.Equal(t, uint32(0xE0), usages[0])
}

func TestLEDPageIgnored(t *testing.T) {
	usages := keyboardUsages(bootKeyboardDescriptor, 0x07)
	// LED usages 1..5 exist on page 0x08 as Output items; the scanner
	// must not confuse them with keyboard-page input usages. Usage 0x01
	// only appears via the keyboard array range.
	led := keyboardUsages(bootKeyboardDescriptor, 0x08)
	assert.Empty(t, led, "LED usages appear only in Output items")
	assert.Contains(t, usages, uint32(0x01))
}

func TestTruncatedDescriptor(t *testing.T) {
	assert.NotPanics(t, func() {
		keyboardUsages(bootKeyboardDescriptor[:7], 0x07)
		keyboardUsages([]byte{0xFE}, 0x07)
		keyboardUsages(nil, 0x07)
	})
}

func TestRangeSpanGuard(t *testing.T) {
	// A corrupt max far beyond min must not emit a huge range.
	desc := []byte{
		0x05, 0x07, // Usage Page (Keyboard/Keypad)
		0x19, 0x00, // Usage Minimum (0)
		0x2A, 0xFF, 0xFF, // Usage Maximum (0xFFFF)
		0x81, 0x00, // Input
	}
	assert.Empty(t, keyboardUsages(desc, 0x07))
}

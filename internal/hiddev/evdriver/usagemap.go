//go:build linux

package evdriver

import (
	evdev "github.com/holoplot/go-evdev"
)

// usageToCode maps HID keyboard/keypad page usage codes to Linux input
// event codes, following the kernel's hid-input translation table.
var usageToCode = map[uint32]evdev.EvCode{
	0x04: evdev.KEY_A,
	0x05: evdev.KEY_B,
	0x06: evdev.KEY_C,
	0x07: evdev.KEY_D,
	0x08: evdev.KEY_E,
	0x09: evdev.KEY_F,
	0x0A: evdev.KEY_G,
	0x0B: evdev.KEY_H,
	0x0C: evdev.KEY_I,
	0x0D: evdev.KEY_J,
	0x0E: evdev.KEY_K,
	0x0F: evdev.KEY_L,
	0x10: evdev.KEY_M,
	0x11: evdev.KEY_N,
	0x12: evdev.KEY_O,
	0x13: evdev.KEY_P,
	0x14: evdev.KEY_Q,
	0x15: evdev.KEY_R,
	0x16: evdev.KEY_S,
	0x17: evdev.KEY_T,
	0x18: evdev.KEY_U,
	0x19: evdev.KEY_V,
	0x1A: evdev.KEY_W,
	0x1B: evdev.KEY_X,
	0x1C: evdev.KEY_Y,
	0x1D: evdev.KEY_Z,
	0x1E: evdev.KEY_1,
	0x1F: evdev.KEY_2,
	0x20: evdev.KEY_3,
	0x21: evdev.KEY_4,
	0x22: evdev.KEY_5,
	0x23: evdev.KEY_6,
	0x24: evdev.KEY_7,
	0x25: evdev.KEY_8,
	0x26: evdev.KEY_9,
	0x27: evdev.KEY_0,
	0x28: evdev.KEY_ENTER,
	0x29: evdev.KEY_ESC,
	0x2A: evdev.KEY_BACKSPACE,
	0x2B: evdev.KEY_TAB,
	0x2C: evdev.KEY_SPACE,
	0x2D: evdev.KEY_MINUS,
	0x2E: evdev.KEY_EQUAL,
	0x2F: evdev.KEY_LEFTBRACE,
	0x30: evdev.KEY_RIGHTBRACE,
	0x31: evdev.KEY_BACKSLASH,
	0x32: evdev.KEY_BACKSLASH, // non-US # shares the code
	0x33: evdev.KEY_SEMICOLON,
	0x34: evdev.KEY_APOSTROPHE,
	0x35: evdev.KEY_GRAVE,
	0x36: evdev.KEY_COMMA,
	0x37: evdev.KEY_DOT,
	0x38: evdev.KEY_SLASH,
	0x39: evdev.KEY_CAPSLOCK,
	0x3A: evdev.KEY_F1,
	0x3B: evdev.KEY_F2,
	0x3C: evdev.KEY_F3,
	0x3D: evdev.KEY_F4,
	0x3E: evdev.KEY_F5,
	0x3F: evdev.KEY_F6,
	0x40: evdev.KEY_F7,
	0x41: evdev.KEY_F8,
	0x42: evdev.KEY_F9,
	0x43: evdev.KEY_F10,
	0x44: evdev.KEY_F11,
	0x45: evdev.KEY_F12,
	0x46: evdev.KEY_SYSRQ,
	0x47: evdev.KEY_SCROLLLOCK,
	0x48: evdev.KEY_PAUSE,
	0x49: evdev.KEY_INSERT,
	0x4A: evdev.KEY_HOME,
	0x4B: evdev.KEY_PAGEUP,
	0x4C: evdev.KEY_DELETE,
	0x4D: evdev.KEY_END,
	0x4E: evdev.KEY_PAGEDOWN,
	0x4F: evdev.KEY_RIGHT,
	0x50: evdev.KEY_LEFT,
	0x51: evdev.KEY_DOWN,
	0x52: evdev.KEY_UP,
	0x53: evdev.KEY_NUMLOCK,
	0x54: evdev.KEY_KPSLASH,
	0x55: evdev.KEY_KPASTERISK,
	0x56: evdev.KEY_KPMINUS,
	0x57: evdev.KEY_KPPLUS,
	0x58: evdev.KEY_KPENTER,
	0x59: evdev.KEY_KP1,
	0x5A: evdev.KEY_KP2,
	0x5B: evdev.KEY_KP3,
	0x5C: evdev.KEY_KP4,
	0x5D: evdev.KEY_KP5,
	0x5E: evdev.KEY_KP6,
	0x5F: evdev.KEY_KP7,
	0x60: evdev.KEY_KP8,
	0x61: evdev.KEY_KP9,
	0x62: evdev.KEY_KP0,
	0x63: evdev.KEY_KPDOT,
	0x64: evdev.KEY_102ND,
	0x65: evdev.KEY_COMPOSE,
	0x66: evdev.KEY_POWER,
	0x67: evdev.KEY_KPEQUAL,
	0x68: evdev.KEY_F13,
	0x69: evdev.KEY_F14,
	0x6A: evdev.KEY_F15,
	0x6B: evdev.KEY_F16,
	0x6C: evdev.KEY_F17,
	0x6D: evdev.KEY_F18,
	0x6E: evdev.KEY_F19,
	0x6F: evdev.KEY_F20,
	0x70: evdev.KEY_F21,
	0x71: evdev.KEY_F22,
	0x72: evdev.KEY_F23,
	0x73: evdev.KEY_F24,
	0x74: evdev.KEY_OPEN,
	0x75: evdev.KEY_HELP,
	0x76: evdev.KEY_PROPS,
	0x77: evdev.KEY_FRONT,
	0x78: evdev.KEY_STOP,
	0x79: evdev.KEY_AGAIN,
	0x7A: evdev.KEY_UNDO,
	0x7B: evdev.KEY_CUT,
	0x7C: evdev.KEY_COPY,
	0x7D: evdev.KEY_PASTE,
	0x7E: evdev.KEY_FIND,
	0x7F: evdev.KEY_MUTE,
	0x80: evdev.KEY_VOLUMEUP,
	0x81: evdev.KEY_VOLUMEDOWN,
	0x85: evdev.KEY_KPCOMMA,
	0x87: evdev.KEY_RO,
	0x88: evdev.KEY_KATAKANAHIRAGANA,
	0x89: evdev.KEY_YEN,
	0x8A: evdev.KEY_HENKAN,
	0x8B: evdev.KEY_MUHENKAN,
	0x8C: evdev.KEY_KPJPCOMMA,
	0x90: evdev.KEY_HANGEUL,
	0x91: evdev.KEY_HANJA,
	0x92: evdev.KEY_KATAKANA,
	0x93: evdev.KEY_HIRAGANA,
	0x94: evdev.KEY_ZENKAKUHANKAKU,
	0x9C: evdev.KEY_CLEAR,
	0xE0: evdev.KEY_LEFTCTRL,
	0xE1: evdev.KEY_LEFTSHIFT,
	0xE2: evdev.KEY_LEFTALT,
	0xE3: evdev.KEY_LEFTMETA,
	0xE4: evdev.KEY_RIGHTCTRL,
	0xE5: evdev.KEY_RIGHTSHIFT,
	0xE6: evdev.KEY_RIGHTALT,
	0xE7: evdev.KEY_RIGHTMETA,
}

// codeToUsage is the reverse mapping, built once at init.
var codeToUsage = func() map[evdev.EvCode]uint32 {
	m := make(map[evdev.EvCode]uint32, len(usageToCode))
	for usage, code := range usageToCode {
		// On collisions (0x31/0x32 both map to backslash) the lower
		// usage wins.
		if existing, ok := m[code]; ok && existing < usage {
			continue
		}
		m[code] = usage
	}
	return m
}()

package keytable

// Usage codes the session refers to by name. The full keyboard/keypad page
// is carried as data in keyDefs below.
const (
	UsageErrorRollOver  = 0x01
	UsagePOSTFail       = 0x02
	UsageErrorUndefined = 0x03
	UsageA              = 0x04
	UsageCapsLock       = 0x39
	UsagePower          = 0x66
)

type keyDef struct {
	usage   uint32
	name    string
	ignored bool
}

// keyDefs is the keyboard/keypad usage page as this package models it:
// usage code, human-readable name, and whether the key is excluded from
// polling, queueing, and the resolution success count. Error/system keys,
// function keys, navigation, the numeric keypad, and modifiers are ignored;
// alphanumerics, punctuation, and international/LANG keys are not. Usages
// absent from this list are reserved and filled in as ignored placeholders
// at populate time.
var keyDefs = []keyDef{
	{0x01, "ErrorRollOver", true},
	{0x02, "POSTFail", true},
	{0x03, "ErrorUndefined", true},
	{0x04, "A", false},
	{0x05, "B", false},
	{0x06, "C", false},
	{0x07, "D", false},
	{0x08, "E", false},
	{0x09, "F", false},
	{0x0A, "G", false},
	{0x0B, "H", false},
	{0x0C, "I", false},
	{0x0D, "J", false},
	{0x0E, "K", false},
	{0x0F, "L", false},
	{0x10, "M", false},
	{0x11, "N", false},
	{0x12, "O", false},
	{0x13, "P", false},
	{0x14, "Q", false},
	{0x15, "R", false},
	{0x16, "S", false},
	{0x17, "T", false},
	{0x18, "U", false},
	{0x19, "V", false},
	{0x1A, "W", false},
	{0x1B, "X", false},
	{0x1C, "Y", false},
	{0x1D, "Z", false},
	{0x1E, "1", false},
	{0x1F, "2", false},
	{0x20, "3", false},
	{0x21, "4", false},
	{0x22, "5", false},
	{0x23, "6", false},
	{0x24, "7", false},
	{0x25, "8", false},
	{0x26, "9", false},
	{0x27, "0", false},
	{0x28, "ReturnOrEnter", false},
	{0x29, "Escape", false},
	{0x2A, "DeleteOrBackspace", false},
	{0x2B, "Tab", false},
	{0x2C, "Spacebar", false},
	{0x2D, "Hyphen", false},
	{0x2E, "EqualSign", false},
	{0x2F, "OpenBracket", false},
	{0x30, "CloseBracket", false},
	{0x31, "Backslash", false},
	{0x32, "NonUSPound", false},
	{0x33, "Semicolon", false},
	{0x34, "Quote", false},
	{0x35, "GraveAccentAndTilde", false},
	{0x36, "Comma", false},
	{0x37, "Period", false},
	{0x38, "Slash", false},
	{0x39, "CapsLock", false},
	{0x3A, "F1", true},
	{0x3B, "F2", true},
	{0x3C, "F3", true},
	{0x3D, "F4", true},
	{0x3E, "F5", true},
	{0x3F, "F6", true},
	{0x40, "F7", true},
	{0x41, "F8", true},
	{0x42, "F9", true},
	{0x43, "F10", true},
	{0x44, "F11", true},
	{0x45, "F12", true},
	{0x46, "PrintScreen", true},
	{0x47, "ScrollLock", true},
	{0x48, "Pause", true},
	{0x49, "Insert", true},
	{0x4A, "Home", true},
	{0x4B, "PageUp", true},
	{0x4C, "DeleteForward", true},
	{0x4D, "End", true},
	{0x4E, "PageDown", true},
	{0x4F, "RightArrow", true},
	{0x50, "LeftArrow", true},
	{0x51, "DownArrow", true},
	{0x52, "UpArrow", true},
	{0x53, "KeypadNumLock", true},
	{0x54, "KeypadSlash", true},
	{0x55, "KeypadAsterisk", true},
	{0x56, "KeypadHyphen", true},
	{0x57, "KeypadPlus", true},
	{0x58, "KeypadEnter", true},
	{0x59, "Keypad1", true},
	{0x5A, "Keypad2", true},
	{0x5B, "Keypad3", true},
	{0x5C, "Keypad4", true},
	{0x5D, "Keypad5", true},
	{0x5E, "Keypad6", true},
	{0x5F, "Keypad7", true},
	{0x60, "Keypad8", true},
	{0x61, "Keypad9", true},
	{0x62, "Keypad0", true},
	{0x63, "KeypadPeriod", true},
	{0x64, "NonUSBackslash", false},
	{0x65, "Application", false},
	{0x66, "Power", true},
	{0x67, "KeypadEqualSign", true},
	{0x68, "F13", true},
	{0x69, "F14", true},
	{0x6A, "F15", true},
	{0x6B, "F16", true},
	{0x6C, "F17", true},
	{0x6D, "F18", true},
	{0x6E, "F19", true},
	{0x6F, "F20", true},
	{0x70, "F21", true},
	{0x71, "F22", true},
	{0x72, "F23", true},
	{0x73, "F24", true},
	{0x74, "Execute", true},
	{0x75, "Help", true},
	{0x76, "Menu", true},
	{0x77, "Select", true},
	{0x78, "Stop", true},
	{0x79, "Again", true},
	{0x7A, "Undo", true},
	{0x7B, "Cut", true},
	{0x7C, "Copy", true},
	{0x7D, "Paste", true},
	{0x7E, "Find", true},
	{0x7F, "Mute", true},
	{0x80, "VolumeUp", true},
	{0x81, "VolumeDown", true},
	{0x82, "LockingCapsLock", true},
	{0x83, "LockingNumLock", true},
	{0x84, "LockingScrollLock", true},
	{0x85, "KeypadComma", true},
	{0x86, "KeypadEqualSignAS400", true},
	{0x87, "International1", false},
	{0x88, "International2", false},
	{0x89, "International3", false},
	{0x8A, "International4", false},
	{0x8B, "International5", false},
	{0x8C, "International6", false},
	{0x8D, "International7", false},
	{0x8E, "International8", false},
	{0x8F, "International9", false},
	{0x90, "LANG1", false},
	{0x91, "LANG2", false},
	{0x92, "LANG3", false},
	{0x93, "LANG4", false},
	{0x94, "LANG5", false},
	{0x95, "LANG6", false},
	{0x96, "LANG7", false},
	{0x97, "LANG8", false},
	{0x98, "LANG9", false},
	{0x99, "AlternateErase", false},
	{0x9A, "SysReqOrAttention", false},
	{0x9B, "Cancel", false},
	{0x9C, "Clear", false},
	{0x9D, "Prior", false},
	{0x9E, "Return", false},
	{0x9F, "Separator", false},
	{0xA0, "Out", false},
	{0xA1, "Oper", false},
	{0xA2, "ClearOrAgain", false},
	{0xA3, "CrSelOrProps", false},
	{0xA4, "ExSel", false},

	// 0xA5-0xDF reserved

	// Modifier keys are tracked so queue events can be named, but they are
	// excluded from polling and the resolution count.
	{0xE0, "LeftControl", true},
	{0xE1, "LeftShift", true},
	{0xE2, "LeftAlt", true},
	{0xE3, "LeftGUI", true},
	{0xE4, "RightControl", true},
	{0xE5, "RightShift", true},
	{0xE6, "RightAlt", true},
	{0xE7, "RightGUI", true},

	// 0xE8 and above reserved
}

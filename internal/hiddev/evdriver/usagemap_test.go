//go:build linux

package evdriver

import (
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
)

func TestUsageMapRoundTrip(t *testing.T) {
	for usage, code := range usageToCode {
		back, ok := codeToUsage[code]
		assert.True(t, ok, "code %d has no reverse mapping", code)
		// Shared codes resolve to the lowest usage.
		assert.LessOrEqual(t, back, usage)
	}
}

func TestUsageMapSpotChecks(t *testing.T) {
	assert.Equal(t, evdev.EvCode(evdev.KEY_A), usageToCode[0x04])
	assert.Equal(t, evdev.EvCode(evdev.KEY_CAPSLOCK), usageToCode[0x39])
	assert.Equal(t, evdev.EvCode(evdev.KEY_RIGHTMETA), usageToCode[0xE7])

	assert.Equal(t, uint32(0x04), codeToUsage[evdev.KEY_A])
	// Backslash is shared between usages 0x31 and 0x32.
	assert.Equal(t, uint32(0x31), codeToUsage[evdev.KEY_BACKSLASH])
}

//go:build !linux

package main

import (
	"fmt"

	"kbstate/internal/config"
	"kbstate/internal/hiddev"
	"kbstate/internal/hiddev/hidraw"
	"kbstate/internal/hiddev/memdriver"
)

const defaultDriverName = "hidraw"

// newDriver builds the configured HID backend. Off Linux only the hidapi
// backend talks to real hardware.
func newDriver(cfg *config.Config) (hiddev.Driver, error) {
	switch cfg.Driver.Type {
	case "", "hidraw":
		d := hidraw.New()
		d.DevicePath = cfg.Driver.DevicePath
		return d, nil
	case "evdev":
		return nil, fmt.Errorf("the evdev driver is only available on Linux")
	case "memory":
		return memdriver.NewKeyboard(), nil
	default:
		return nil, fmt.Errorf("unknown driver type %q", cfg.Driver.Type)
	}
}

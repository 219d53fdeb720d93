//go:build linux

package main

import (
	"fmt"

	"kbstate/internal/config"
	"kbstate/internal/hiddev"
	"kbstate/internal/hiddev/evdriver"
	"kbstate/internal/hiddev/hidraw"
	"kbstate/internal/hiddev/memdriver"
)

const defaultDriverName = "evdev"

// newDriver builds the configured HID backend. On Linux the default is
// evdev; hidraw is available for devices the input subsystem does not
// expose.
func newDriver(cfg *config.Config) (hiddev.Driver, error) {
	switch cfg.Driver.Type {
	case "", "evdev":
		d := evdriver.New()
		d.DevicePath = cfg.Driver.DevicePath
		return d, nil
	case "hidraw":
		d := hidraw.New()
		d.DevicePath = cfg.Driver.DevicePath
		return d, nil
	case "memory":
		return memdriver.NewKeyboard(), nil
	default:
		return nil, fmt.Errorf("unknown driver type %q", cfg.Driver.Type)
	}
}

package display

import (
	"slices"
	"strings"
)

func init() { ResetDriverList() }

// DisableDriver removes a driver from the default candidate list.
func DisableDriver(name string) {
	name = strings.TrimSpace(name)
	idx := slices.Index(driversPriorityOrdered, name)
	if idx < 0 {
		return
	}
	driversPriorityOrdered = slices.Delete(slices.Clone(driversPriorityOrdered), idx, idx+1)
}

func ResetDriverList() {
	driversPriorityOrdered = slices.Clone(driversPriorityOrderedDefault)
}

// Drivers returns the default candidate list tried after auto-detection failed.
func Drivers() []string { return slices.Clone(driversPriorityOrdered) }

var (
	driversPriorityOrdered []string

	driversPriorityOrderedDefault = []string{
		`fbcon`,
		`kmsdrm`,
		`fbdev`,
		`directfb`,
		`x11`,
		`wayland`,
		`dummy`,
	}
)

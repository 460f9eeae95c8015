package sdlvideo

// driverHint passes an explicit driver choice to SDL through the
// environment and puts the variable back to its original state for
// auto-detection.
type driverHint struct {
	key      string
	orig     string
	origSet  bool
	setenv   func(key, value string) error
	unsetenv func(key string) error
}

func newDriverHint(key string, lookupEnv func(string) (string, bool), setenv func(string, string) error, unsetenv func(string) error) *driverHint {
	orig, origSet := lookupEnv(key)
	return &driverHint{
		key:      key,
		orig:     orig,
		origSet:  origSet,
		setenv:   setenv,
		unsetenv: unsetenv,
	}
}

// apply sets the variable to driver. An empty driver restores the value
// found when the hint was created, or removes the variable if there was none.
func (h *driverHint) apply(driver string) error {
	if len(driver) > 0 {
		return h.setenv(h.key, driver)
	}
	if h.origSet {
		return h.setenv(h.key, h.orig)
	}
	return h.unsetenv(h.key)
}

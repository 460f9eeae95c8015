package consts

import (
	"errors"
)

var ErrPlatformNotSupported = errors.New(`platform not supported`)

const (
	// session indicators; absence of both means headless
	EnvX11Display     = `DISPLAY`
	EnvWaylandDisplay = `WAYLAND_DISPLAY`
	// SDL reads the explicit backend selection from this variable
	EnvSDLVideoDriver = `SDL_VIDEODRIVER`

	DefaultFramebufferDevice = `/dev/fb0`
	DefaultConsoleDevice     = `/dev/tty0`

	DefaultConfigFile = `/etc/kioskimg/config.json`
	DefaultDataDir    = `/var/lib/kioskimg`
)

//go:build linux

package linux

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/srlehn/kioskimg/internal/errors"
)

const (
	kdSetMode uint = 0x4b3a
	kdGetMode uint = 0x4b3b
)

func KDGetMode(fd uintptr) (mode KDMode, isLinuxConsole bool, _ error) {
	m, err := unix.IoctlGetInt(int(fd), kdGetMode)
	if err == nil {
		return KDMode(m), true, nil
	}
	if errors.Is(err, unix.ENOTTY) {
		return -1, false, nil
	}
	return -1, false, errors.New(err)
}

func KDSetMode(fd uintptr, mode KDMode) error {
	if err := unix.IoctlSetInt(int(fd), kdSetMode, int(mode)); err != nil {
		return errors.New(err)
	}
	return nil
}

// Console is a virtual console switched to graphics mode so the text
// cursor does not draw over framebuffer contents.
type Console struct {
	f        *os.File
	previous KDMode
}

// GraphicsConsole switches the console device to KD_GRAPHICS.
// Close restores the previous mode.
func GraphicsConsole(device string) (*Console, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.New(err)
	}
	mode, isConsole, err := KDGetMode(f.Fd())
	if err != nil || !isConsole {
		_ = f.Close()
		if err == nil {
			err = errors.New(device + ` is not a linux console`)
		}
		return nil, err
	}
	if mode != KDGraphics {
		if err := KDSetMode(f.Fd(), KDGraphics); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &Console{f: f, previous: mode}, nil
}

func (c *Console) Close() error {
	if c == nil || c.f == nil {
		return nil
	}
	var errSet error
	if c.previous != KDGraphics {
		errSet = KDSetMode(c.f.Fd(), c.previous)
	}
	errClose := c.f.Close()
	c.f = nil
	return errors.Join(errSet, errClose)
}

//go:build !linux

package linux

import (
	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
)

func KDGetMode(fd uintptr) (mode KDMode, isLinuxConsole bool, _ error) {
	return -1, false, errors.New(consts.ErrPlatformNotSupported)
}

func KDSetMode(fd uintptr, mode KDMode) error {
	return errors.New(consts.ErrPlatformNotSupported)
}

type Console struct{}

func GraphicsConsole(device string) (*Console, error) {
	return nil, errors.New(consts.ErrPlatformNotSupported)
}

func (c *Console) Close() error { return nil }

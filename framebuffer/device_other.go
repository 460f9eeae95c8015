//go:build !linux

package framebuffer

import (
	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
)

// OpenDevice opens a framebuffer device file.
func OpenDevice(path string) (Device, error) {
	return nil, errors.New(consts.ErrPlatformNotSupported)
}

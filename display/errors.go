package display

import (
	"github.com/srlehn/kioskimg/framebuffer"
	"github.com/srlehn/kioskimg/internal/errors"
)

// Error kinds, matched with errors.Is.
const (
	// ErrBackendInit: no graphics backend could be brought up.
	ErrBackendInit errors.Kind = `graphics backend initialization failed`
	// ErrImageDecode: the image file is missing, corrupt or of an unsupported format.
	ErrImageDecode errors.Kind = `image decoding failed`
	ErrTextureUpload errors.Kind = `texture upload failed`
	ErrBlit          errors.Kind = `surface blit failed`
	// ErrFramebufferOpen: the framebuffer device is unavailable.
	ErrFramebufferOpen = framebuffer.ErrOpen
)

package internal

import (
	"image"
	"io"
)

// ImageEncoder encodes img in the format named by a file extension or file name.
type ImageEncoder interface {
	Encode(w io.Writer, img image.Image, fileExt string) error
}

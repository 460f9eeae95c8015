package nfnt

import (
	"image"

	"github.com/nfnt/resize"

	kresize "github.com/srlehn/kioskimg/resize"
)

func init() { kresize.Register(`nfnt`, &Resizer{}) }

// Resizer uses "github.com/nfnt/resize"
type Resizer struct{}

var _ kresize.Resizer = (*Resizer)(nil)

func (r *Resizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	return resize.Resize(uint(size.X), uint(size.Y), img, resize.Bilinear), nil
}

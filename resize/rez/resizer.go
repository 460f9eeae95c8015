package rez

import (
	"image"

	"github.com/bamiaux/rez"

	"github.com/srlehn/kioskimg/resize"
)

func init() { resize.Register(`rez`, Resizer{}) }

// Resizer uses "github.com/bamiaux/rez".
// Only *image.YCbCr, *image.RGBA, *image.NRGBA and *image.Gray sources are supported.
type Resizer struct{}

var _ resize.Resizer = Resizer{}

func (r Resizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	var dst image.Image
	switch img.(type) {
	case *image.NRGBA:
		dst = image.NewNRGBA(image.Rectangle{Max: size})
	case *image.Gray:
		dst = image.NewGray(image.Rectangle{Max: size})
	default:
		dst = image.NewRGBA(image.Rectangle{Max: size})
	}
	if err := rez.Convert(dst, img, rez.NewBilinearFilter()); err != nil {
		return nil, err
	}
	return dst, nil
}

// Package rdefault provides the resizer used when none is configured.
// Importing it registers all bundled resizers.
package rdefault

import (
	"image"
	"runtime"

	"github.com/srlehn/kioskimg/resize"
	_ "github.com/srlehn/kioskimg/resize/bild"
	_ "github.com/srlehn/kioskimg/resize/gift"
	_ "github.com/srlehn/kioskimg/resize/imaging"
	_ "github.com/srlehn/kioskimg/resize/nfnt"
	"github.com/srlehn/kioskimg/resize/rez"
	"github.com/srlehn/kioskimg/resize/xdraw"
	"github.com/srlehn/kioskimg/surface"
)

func init() { resize.Register(`default`, &Resizer{}) }

type Resizer struct{}

var _ resize.Resizer = (*Resizer)(nil)

func (r *Resizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	if runtime.GOARCH != `amd64` {
		return xdraw.ApproxBiLinear().Resize(img, size)
	}
	im := img
	if s, ok := im.(*surface.Surface); ok && s.Format == surface.RGBA32 && !s.Released() {
		im = &image.RGBA{Pix: s.Pix, Stride: s.Stride, Rect: s.Bounds()}
	}
	switch im.(type) {
	case *image.YCbCr, *image.RGBA, *image.NRGBA, *image.Gray:
		// use SIMD assembly if possible
		imgRet, err := rez.Resizer{}.Resize(im, size)
		if err == nil {
			return imgRet, nil
		}
	}
	return xdraw.ApproxBiLinear().Resize(img, size)
}

// Get returns the named resizer or the default one for an empty or unknown name.
func Get(name string) resize.Resizer {
	if r := resize.Get(name); r != nil {
		return r
	}
	return &Resizer{}
}

// Package xdraw provides a resizer implementation using golang.org/x/image/draw.
// ApproxBiLinear is recommended for balanced speed/quality scaling.
package xdraw

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/srlehn/kioskimg/resize"
)

func init() {
	resize.Register(`xdraw`, ApproxBiLinear())
	resize.Register(`xdraw-bilinear`, BiLinear())
	resize.Register(`xdraw-catmullrom`, CatmullRom())
	resize.Register(`nearest`, NearestNeighbor())
}

type resizer struct {
	scaler draw.Scaler
}

var _ resize.Resizer = (*resizer)(nil)

// ApproxBiLinear creates a new resizer with ApproxBiLinear scaling (balanced speed/quality).
func ApproxBiLinear() resize.Resizer {
	return &resizer{scaler: draw.ApproxBiLinear}
}

// BiLinear creates a new resizer with BiLinear scaling (higher quality, slower).
func BiLinear() resize.Resizer {
	return &resizer{scaler: draw.BiLinear}
}

// CatmullRom creates a new resizer with CatmullRom scaling (highest quality, slowest).
func CatmullRom() resize.Resizer {
	return &resizer{scaler: draw.CatmullRom}
}

// NearestNeighbor is the fastest scaler and keeps hard pixel edges.
func NearestNeighbor() resize.Resizer {
	return &resizer{scaler: draw.NearestNeighbor}
}

func (r *resizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	r.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

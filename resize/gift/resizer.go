package gift

import (
	"image"

	"github.com/disintegration/gift"

	"github.com/srlehn/kioskimg/resize"
)

func init() { resize.Register(`gift`, &Resizer{}) }

// Resizer uses "github.com/disintegration/gift"
type Resizer struct{}

var _ resize.Resizer = (*Resizer)(nil)

func (r *Resizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	g := gift.New(gift.Resize(size.X, size.Y, gift.LanczosResampling))
	m := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(m, img)
	return m, nil
}

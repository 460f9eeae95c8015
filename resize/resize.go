// Package resize scales decoded images to the output size.
// Implementations live in the sub packages and register themselves by name.
package resize

import (
	"image"
	"slices"
	"strings"
	"sync"

	"github.com/srlehn/kioskimg/internal/errors"
)

type Resizer interface {
	Resize(img image.Image, size image.Point) (image.Image, error)
}

// Fit describes how an image is placed on an output of a different size.
type Fit int

const (
	// FitNone draws the image unscaled at the origin.
	FitNone Fit = iota
	// FitStretch scales to the output size ignoring the aspect ratio.
	FitStretch
	// FitContain scales preserving the aspect ratio and centers the result on black.
	FitContain
)

func (f Fit) String() string {
	switch f {
	case FitStretch:
		return `stretch`
	case FitContain:
		return `contain`
	default:
		return `none`
	}
}

func ParseFit(s string) (Fit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ``, `none`:
		return FitNone, nil
	case `stretch`:
		return FitStretch, nil
	case `contain`:
		return FitContain, nil
	}
	return FitNone, errors.New(`unknown fit mode "` + s + `"`)
}

var (
	registryMu sync.RWMutex
	resizers   = make(map[string]Resizer)
)

// Register makes a resizer selectable by name.
func Register(name string, r Resizer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	resizers[name] = r
}

// Get returns a registered resizer or nil.
func Get(name string) Resizer {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return resizers[name]
}

// Available lists registered resizer names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(resizers))
	for name := range resizers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply scales img for an output of the given size according to fit.
// FitNone and a nil resizer return img unchanged.
func Apply(img image.Image, output image.Point, fit Fit, rsz Resizer) (image.Image, error) {
	if img == nil {
		return nil, errors.NilParam()
	}
	if fit == FitNone || rsz == nil || output.X <= 0 || output.Y <= 0 {
		return img, nil
	}
	b := img.Bounds()
	if b.Dx() == output.X && b.Dy() == output.Y {
		return img, nil
	}
	if fit == FitStretch {
		m, err := rsz.Resize(img, output)
		if err != nil {
			return nil, errors.New(err)
		}
		return m, nil
	}
	size := Contain(b.Size(), output)
	scaled, err := rsz.Resize(img, size)
	if err != nil {
		return nil, errors.New(err)
	}
	canvas := image.NewRGBA(image.Rectangle{Max: output})
	for i := 3; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = 0xff
	}
	offset := image.Pt((output.X-size.X)/2, (output.Y-size.Y)/2)
	sb := scaled.Bounds()
	for y := 0; y < sb.Dy(); y++ {
		for x := 0; x < sb.Dx(); x++ {
			canvas.Set(offset.X+x, offset.Y+y, scaled.At(sb.Min.X+x, sb.Min.Y+y))
		}
	}
	return canvas, nil
}

// Contain returns the largest size with the aspect ratio of src fitting into dst.
func Contain(src, dst image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 {
		return image.Point{}
	}
	if src.X*dst.Y > src.Y*dst.X {
		h := max(src.Y*dst.X/src.X, 1)
		return image.Pt(dst.X, h)
	}
	w := max(src.X*dst.Y/src.Y, 1)
	return image.Pt(w, dst.Y)
}

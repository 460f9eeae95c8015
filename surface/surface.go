// Package surface provides the in-memory pixel buffers handed to the
// display strategies and the framebuffer writer.
//
// A Surface has an explicit pixel format, so its bit depth and
// channel byte order are known when it is copied to a device.
package surface

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
	"sync"

	"github.com/srlehn/kioskimg/internal/errors"
)

// Order is the channel byte order expected by an output.
type Order int

const (
	RGB Order = 0
	BGR Order = 1
)

func (o Order) String() string {
	switch o {
	case RGB:
		return `rgb`
	case BGR:
		return `bgr`
	}
	return `order(` + strconv.Itoa(int(o)) + `)`
}

// ParseOrder accepts "rgb", "bgr" or the numeric codes 0 and 1.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case `rgb`, `0`:
		return RGB, nil
	case `bgr`, `1`:
		return BGR, nil
	}
	return RGB, errors.New(`unknown rgb order "` + s + `"`)
}

// Format is a pixel format.
type Format int

const (
	// RGBA32 stores R, G, B, A bytes per pixel.
	RGBA32 Format = iota
	// BGRA32 stores B, G, R, A bytes per pixel.
	BGRA32
	// RGB565 stores 16 bit little endian pixels with red in the high bits.
	RGB565
	// BGR565 stores 16 bit little endian pixels with blue in the high bits.
	BGR565
)

func (f Format) BitsPerPixel() int {
	switch f {
	case RGB565, BGR565:
		return 16
	default:
		return 32
	}
}

func (f Format) BytesPerPixel() int { return f.BitsPerPixel() / 8 }

func (f Format) Order() Order {
	switch f {
	case BGRA32, BGR565:
		return BGR
	default:
		return RGB
	}
}

func (f Format) String() string {
	switch f {
	case RGBA32:
		return `RGBA32`
	case BGRA32:
		return `BGRA32`
	case RGB565:
		return `RGB565`
	case BGR565:
		return `BGR565`
	}
	return `format(` + strconv.Itoa(int(f)) + `)`
}

// Surface is a pixel buffer with rows Stride bytes apart.
// Stride may exceed Width*BytesPerPixel.
type Surface struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
	Format Format

	released bool
}

var bufPool sync.Pool

func getBuf(n int) []byte {
	if p, ok := bufPool.Get().(*[]byte); ok && p != nil && cap(*p) >= n {
		b := (*p)[:n]
		clear(b)
		return b
	}
	return make([]byte, n)
}

// New allocates a surface with tightly packed rows.
func New(width, height int, f Format) (*Surface, error) {
	return NewWithStride(width, height, width*f.BytesPerPixel(), f)
}

// NewWithStride allocates a surface with the given row pitch.
func NewWithStride(width, height, stride int, f Format) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(`surface dimensions must be positive: ` + strconv.Itoa(width) + `x` + strconv.Itoa(height))
	}
	if stride < width*f.BytesPerPixel() {
		return nil, errors.New(`surface stride ` + strconv.Itoa(stride) + ` smaller than row size`)
	}
	return &Surface{
		Pix:    getBuf(stride * height),
		Stride: stride,
		Width:  width,
		Height: height,
		Format: f,
	}, nil
}

// FromImage converts img into a new RGBA32 surface.
func FromImage(img image.Image) (*Surface, error) {
	if img == nil {
		return nil, errors.NilParam()
	}
	if s, ok := img.(*Surface); ok && s.Format == RGBA32 && !s.released {
		return s.Clone()
	}
	b := img.Bounds()
	s, err := New(b.Dx(), b.Dy(), RGBA32)
	if err != nil {
		return nil, err
	}
	if m, ok := img.(*image.RGBA); ok {
		for y := 0; y < s.Height; y++ {
			off := m.PixOffset(b.Min.X, b.Min.Y+y)
			copy(s.Pix[y*s.Stride:y*s.Stride+s.Width*4], m.Pix[off:off+s.Width*4])
		}
		return s, nil
	}
	dst := &image.RGBA{Pix: s.Pix, Stride: s.Stride, Rect: image.Rect(0, 0, s.Width, s.Height)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return s, nil
}

// Clone returns a copy in a freshly allocated buffer.
func (s *Surface) Clone() (*Surface, error) {
	if s == nil || s.released {
		return nil, errors.NilReceiver()
	}
	c, err := NewWithStride(s.Width, s.Height, s.Stride, s.Format)
	if err != nil {
		return nil, err
	}
	copy(c.Pix, s.Pix)
	return c, nil
}

// Row returns the pixel bytes of row y without stride padding.
func (s *Surface) Row(y int) []byte {
	off := y * s.Stride
	return s.Pix[off : off+s.Width*s.Format.BytesPerPixel()]
}

// Release hands the buffer back for reuse. The surface must not be used afterwards.
// Releasing twice is a no-op.
func (s *Surface) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	if s.Pix != nil {
		p := s.Pix[:0]
		bufPool.Put(&p)
	}
	s.Pix = nil
}

// Released reports whether Release was called.
func (s *Surface) Released() bool { return s == nil || s.released }

// Destroy is Release for callers treating a surface as a display resource.
func (s *Surface) Destroy() error { s.Release(); return nil }

var _ image.Image = (*Surface)(nil)

func (s *Surface) ColorModel() color.Model { return color.RGBAModel }

func (s *Surface) Bounds() image.Rectangle {
	if s == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, s.Width, s.Height)
}

func (s *Surface) At(x, y int) color.Color {
	if s == nil || s.released || !(image.Point{x, y}.In(s.Bounds())) {
		return color.RGBA{}
	}
	off := y*s.Stride + x*s.Format.BytesPerPixel()
	p := s.Pix[off:]
	switch s.Format {
	case RGBA32:
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	case BGRA32:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	case RGB565, BGR565:
		hi, mid, lo := unpack565(uint16(p[0]) | uint16(p[1])<<8)
		if s.Format == RGB565 {
			return color.RGBA{R: hi, G: mid, B: lo, A: 0xff}
		}
		return color.RGBA{R: lo, G: mid, B: hi, A: 0xff}
	}
	return color.RGBA{}
}

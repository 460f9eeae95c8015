package surface

import (
	"github.com/srlehn/kioskimg/internal/errors"
)

// Convert returns a new surface in format f. The caller releases it.
// Converting to the same format clones the surface.
func (s *Surface) Convert(f Format) (*Surface, error) {
	if s == nil || s.released {
		return nil, errors.NilReceiver()
	}
	if f == s.Format {
		return s.Clone()
	}
	dst, err := New(s.Width, s.Height, f)
	if err != nil {
		return nil, err
	}
	for y := 0; y < s.Height; y++ {
		src := s.Row(y)
		out := dst.Row(y)
		for x := 0; x < s.Width; x++ {
			r, g, b, a := s.rgbaAt(src, x)
			putPixel(out, x, f, r, g, b, a)
		}
	}
	return dst, nil
}

// To16Bit converts to a packed 5-6-5 surface in the given channel order.
func (s *Surface) To16Bit(order Order) (*Surface, error) {
	if order == BGR {
		return s.Convert(BGR565)
	}
	return s.Convert(RGB565)
}

// WithOrder converts to the format of the same depth using the given channel order.
// It returns the receiver unchanged if the order already matches.
func (s *Surface) WithOrder(order Order) (_ *Surface, converted bool, _ error) {
	if s == nil || s.released {
		return nil, false, errors.NilReceiver()
	}
	if s.Format.Order() == order {
		return s, false, nil
	}
	var f Format
	switch s.Format {
	case RGBA32, BGRA32:
		f = RGBA32
		if order == BGR {
			f = BGRA32
		}
	default:
		f = RGB565
		if order == BGR {
			f = BGR565
		}
	}
	c, err := s.Convert(f)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *Surface) rgbaAt(row []byte, x int) (r, g, b, a uint8) {
	switch s.Format {
	case RGBA32:
		p := row[x*4:]
		return p[0], p[1], p[2], p[3]
	case BGRA32:
		p := row[x*4:]
		return p[2], p[1], p[0], p[3]
	case RGB565:
		p := row[x*2:]
		r, g, b = unpack565(uint16(p[0]) | uint16(p[1])<<8)
		return r, g, b, 0xff
	case BGR565:
		p := row[x*2:]
		b, g, r = unpack565(uint16(p[0]) | uint16(p[1])<<8)
		return r, g, b, 0xff
	}
	return 0, 0, 0, 0
}

func putPixel(row []byte, x int, f Format, r, g, b, a uint8) {
	switch f {
	case RGBA32:
		p := row[x*4:]
		p[0], p[1], p[2], p[3] = r, g, b, a
	case BGRA32:
		p := row[x*4:]
		p[0], p[1], p[2], p[3] = b, g, r, a
	case RGB565:
		v := pack565(r, g, b)
		p := row[x*2:]
		p[0], p[1] = uint8(v), uint8(v>>8)
	case BGR565:
		v := pack565(b, g, r)
		p := row[x*2:]
		p[0], p[1] = uint8(v), uint8(v>>8)
	}
}

// pack565 puts hi in bits 11-15, mid in 5-10 and lo in 0-4.
func pack565(hi, mid, lo uint8) uint16 {
	return uint16(hi>>3)<<11 | uint16(mid>>2)<<5 | uint16(lo>>3)
}

// unpack565 expands the channels back to 8 bit, replicating the high bits.
func unpack565(v uint16) (hi, mid, lo uint8) {
	h := uint8(v>>11) & 0x1f
	m := uint8(v>>5) & 0x3f
	l := uint8(v) & 0x1f
	return h<<3 | h>>2, m<<2 | m>>4, l<<3 | l>>2
}

// Package framebuffer writes surfaces directly into a linux framebuffer device.
package framebuffer

import (
	"image"
	"log/slog"
	"strconv"

	"github.com/srlehn/kioskimg/internal"
	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/resize"
	"github.com/srlehn/kioskimg/surface"
)

// ErrOpen classifies failures to bring up the framebuffer device.
const ErrOpen errors.Kind = `framebuffer device unavailable`

// Geometry is the part of the variable and fixed screen information used for writing.
type Geometry struct {
	ID           string
	Xres         uint32
	Yres         uint32
	XresVirtual  uint32
	YresVirtual  uint32
	BitsPerPixel uint32
	LineLength   uint32
	SmemLen      uint32
	// bit offsets of the color channels within a pixel
	RedOffset  uint32
	BlueOffset uint32
}

// MapSize is the number of bytes mapped for writing.
func (g Geometry) MapSize() int { return int(g.YresVirtual) * int(g.LineLength) }

// Size is the visible resolution.
func (g Geometry) Size() image.Point { return image.Pt(int(g.Xres), int(g.Yres)) }

func (g Geometry) String() string {
	return strconv.FormatUint(uint64(g.Xres), 10) + `x` + strconv.FormatUint(uint64(g.Yres), 10) +
		` (virtual ` + strconv.FormatUint(uint64(g.XresVirtual), 10) + `x` + strconv.FormatUint(uint64(g.YresVirtual), 10) +
		`), ` + strconv.FormatUint(uint64(g.BitsPerPixel), 10) + ` bpp, line length ` + strconv.FormatUint(uint64(g.LineLength), 10)
}

// Device is an opened framebuffer device.
type Device interface {
	Geometry() (Geometry, error)
	// Map maps size bytes of device memory read-write and shared.
	Map(size int) ([]byte, error)
	Unmap(mem []byte) error
	Close() error
}

// OpenFunc opens the device at path for reading and writing.
type OpenFunc func(path string) (Device, error)

// Writer copies surfaces into a framebuffer device.
// Each Write opens, maps and releases the device again.
type Writer struct {
	// Device defaults to /dev/fb0.
	Device string
	// Open defaults to OpenDevice.
	Open OpenFunc
	// Strict makes geometry and mapping failures errors.
	// By default a Write succeeds once the device is opened and later failures are only logged.
	Strict  bool
	Fit     resize.Fit
	Resizer resize.Resizer
	Log     *slog.Logger
}

var _ logx.LoggerProvider = (*Writer)(nil)

func (w *Writer) Logger() *slog.Logger {
	if w == nil || w.Log == nil {
		return logx.Nop()
	}
	return w.Log
}

func (w *Writer) device() string {
	if w == nil || len(w.Device) == 0 {
		return consts.DefaultFramebufferDevice
	}
	return w.Device
}

// Write copies s into the framebuffer using the channel order of the device.
// The returned error is only non-nil if the device could not be opened, unless Strict is set.
func (w *Writer) Write(s *surface.Surface, order surface.Order) (errRet error) {
	if w == nil {
		return errors.NilReceiver()
	}
	if s == nil || s.Released() {
		return errors.NilParam()
	}
	open := w.Open
	if open == nil {
		open = OpenDevice
	}
	path := w.device()
	dev, err := open(path)
	if err != nil {
		err = errors.WithKind(ErrOpen, `open `+path, err)
		logx.IsErr(err, w, slog.LevelError)
		return err
	}
	closer := internal.NewCloser()
	closer.AddClosers(dev)
	defer func() {
		if err := closer.Close(); err != nil {
			logx.IsErr(err, w, slog.LevelWarn, `device`, path)
		}
	}()

	// lenient: past this point failures are logged and the write still counts as done
	fail := func(err error) error {
		logx.IsErr(err, w, slog.LevelError, `device`, path)
		if w.Strict {
			return err
		}
		return nil
	}

	geom, err := dev.Geometry()
	if err != nil {
		return fail(errors.WithKind(ErrOpen, `query screen info`, err))
	}
	size := geom.MapSize()
	if size <= 0 {
		return fail(errors.WithKind(ErrOpen, `query screen info`, errors.New(`empty framebuffer geometry: `+geom.String())))
	}
	mem, err := dev.Map(size)
	if err != nil {
		return fail(errors.WithKind(ErrOpen, `map `+strconv.Itoa(size)+` bytes`, err))
	}
	closer.OnClose(func() error { return dev.Unmap(mem) })

	src := s
	if w.Fit != resize.FitNone {
		scaled, err := resize.Apply(s, geom.Size(), w.Fit, w.Resizer)
		if err != nil {
			return fail(err)
		}
		if scaled != image.Image(s) {
			sc, err := surface.FromImage(scaled)
			if err != nil {
				return fail(err)
			}
			closer.OnClose(sc.Destroy)
			src = sc
		}
	}
	if src.Format.BitsPerPixel() != int(geom.BitsPerPixel) {
		conv, err := src.To16Bit(order)
		if err != nil {
			return fail(err)
		}
		closer.OnClose(conv.Destroy)
		logx.Debug(`converted surface for framebuffer`, w, `from`, src.Format, `to`, conv.Format, `device-bpp`, geom.BitsPerPixel)
		src = conv
	} else if src.Format.Order() != order {
		conv, converted, err := src.WithOrder(order)
		if err != nil {
			return fail(err)
		}
		if converted {
			closer.OnClose(conv.Destroy)
			src = conv
		}
	}

	rows := CopyRows(mem, int(geom.LineLength), int(geom.Yres), src)
	logx.Debug(`wrote framebuffer`, w, `device`, path, `rows`, rows, `geometry`, geom.String())
	return nil
}

// CopyRows copies the rows of s into dst laid out with lineLength bytes per row.
// At most min(s.Height, maxRows) rows and min(s.Stride, lineLength) bytes per row are copied,
// so a wider source never spills into the following device row.
// It returns the number of rows copied.
func CopyRows(dst []byte, lineLength, maxRows int, s *surface.Surface) int {
	if s == nil || lineLength <= 0 {
		return 0
	}
	rows := min(s.Height, maxRows)
	n := min(s.Stride, lineLength)
	var copied int
	for row := 0; row < rows; row++ {
		off := row * lineLength
		if off+n > len(dst) {
			break
		}
		copy(dst[off:off+n], s.Pix[row*s.Stride:row*s.Stride+n])
		copied++
	}
	return copied
}

// Info opens the device and returns its geometry.
func Info(path string) (Geometry, error) {
	if len(path) == 0 {
		path = consts.DefaultFramebufferDevice
	}
	dev, err := OpenDevice(path)
	if err != nil {
		return Geometry{}, errors.WithKind(ErrOpen, `open `+path, err)
	}
	geom, errGeom := dev.Geometry()
	if err := errors.Join(errGeom, dev.Close()); err != nil {
		return Geometry{}, err
	}
	return geom, nil
}

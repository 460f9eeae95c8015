// Package dummyvideo is a pure Go video platform drawing into memory.
//
// It serves headless systems without a display and tests. Presented frames can
// be written to an image file for inspection.
package dummyvideo

import (
	"image"
	"image/draw"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/srlehn/kioskimg/internal/encoder/encmulti"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/surface"
	"github.com/srlehn/kioskimg/video"
)

// Name is the platform and driver name.
const Name = `dummy`

func init() { video.Register(Name, func() video.Video { return New() }) }

// Stats counts live resources.
type Stats struct {
	Windows   int64
	Renderers int64
	Textures  int64
	Presents  int64
}

// Video is the in-memory platform.
type Video struct {
	// Drivers are the driver names accepted by Init. Empty accepts every name.
	Drivers []string
	// FailAuto makes Init without a driver fail.
	FailAuto bool
	// FailWindow makes window creation fail.
	FailWindow bool
	// FailAccelerated makes accelerated renderer creation fail.
	FailAccelerated bool
	// Snapshot is a file each presented frame is written to. The extension picks the format.
	Snapshot string
	Log      *slog.Logger

	mu          sync.Mutex
	initialized bool
	imgInit     bool
	driver      string
	quit        atomic.Bool
	frame       *image.RGBA
	fullscreen  bool

	windows, renderers, textures, presents atomic.Int64
}

var _ video.Video = (*Video)(nil)

func New() *Video { return &Video{} }

func (v *Video) Logger() *slog.Logger {
	if v == nil || v.Log == nil {
		return logx.Nop()
	}
	return v.Log
}

func (v *Video) Name() string { return Name }

func (v *Video) Init(driver string) error {
	if v == nil {
		return errors.NilReceiver()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(driver) == 0 {
		if v.FailAuto {
			return errors.New(`no available video device`)
		}
		driver = Name
	} else if len(v.Drivers) > 0 && !slices.Contains(v.Drivers, driver) {
		return errors.New(driver + ` not available`)
	}
	v.initialized = true
	v.driver = driver
	return nil
}

func (v *Video) Quit() {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.initialized = false
	v.driver = ``
}

func (v *Video) CurrentDriver() string {
	if v == nil {
		return ``
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.driver
}

func (v *Video) InitImage() error {
	if v == nil {
		return errors.NilReceiver()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.imgInit = true
	return nil
}

func (v *Video) QuitImage() {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.imgInit = false
}

// Initialized reports whether Init succeeded without a following Quit.
func (v *Video) Initialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.initialized
}

// Fullscreen reports the placement of the last created window.
func (v *Video) Fullscreen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fullscreen
}

func (v *Video) CreateWindow(title string, width, height int, fullscreen bool) (video.Window, error) {
	if v == nil {
		return nil, errors.NilReceiver()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return nil, errors.New(`video subsystem not initialized`)
	}
	if v.FailWindow {
		return nil, errors.New(`could not create window`)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New(`invalid window size`)
	}
	v.fullscreen = fullscreen
	v.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	v.windows.Add(1)
	logx.Debug(`created window`, v, `title`, title, `width`, width, `height`, height, `fullscreen`, fullscreen)
	return &window{v: v, frame: v.frame}, nil
}

// RequestQuit queues a close request returned by the next PollQuit.
func (v *Video) RequestQuit() { v.quit.Store(true) }

func (v *Video) PollQuit() bool { return v != nil && v.quit.Swap(false) }

// Stats returns the current resource counters.
func (v *Video) Stats() Stats {
	return Stats{
		Windows:   v.windows.Load(),
		Renderers: v.renderers.Load(),
		Textures:  v.textures.Load(),
		Presents:  v.presents.Load(),
	}
}

// Frame returns a copy of the window contents as last presented.
func (v *Video) Frame() *image.RGBA {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.frame == nil {
		return nil
	}
	c := image.NewRGBA(v.frame.Rect)
	copy(c.Pix, v.frame.Pix)
	return c
}

func (v *Video) present(frame *image.RGBA) error {
	v.presents.Add(1)
	if len(v.Snapshot) == 0 {
		return nil
	}
	return (&encmulti.MultiEncoder{}).WriteFile(v.Snapshot, frame)
}

type window struct {
	v         *Video
	frame     *image.RGBA
	back      *image.RGBA
	destroyed bool
}

func (w *window) CreateRenderer(accelerated bool) (video.Renderer, error) {
	if w == nil || w.destroyed {
		return nil, errors.NilReceiver()
	}
	if accelerated && w.v.FailAccelerated {
		return nil, errors.New(`no accelerated renderer`)
	}
	w.v.renderers.Add(1)
	return &renderer{w: w, accelerated: accelerated}, nil
}

func (w *window) BlitSurface(s *surface.Surface) error {
	if w == nil || w.destroyed {
		return errors.NilReceiver()
	}
	if s == nil || s.Released() {
		return errors.NilParam()
	}
	if w.back == nil {
		w.back = image.NewRGBA(w.frame.Rect)
	}
	draw.Draw(w.back, w.back.Rect, s, image.Point{}, draw.Src)
	return nil
}

func (w *window) UpdateSurface() error {
	if w == nil || w.destroyed {
		return errors.NilReceiver()
	}
	if w.back == nil {
		w.back = image.NewRGBA(w.frame.Rect)
	}
	w.v.mu.Lock()
	copy(w.frame.Pix, w.back.Pix)
	w.v.mu.Unlock()
	return w.v.present(w.frame)
}

func (w *window) Size() image.Point {
	if w == nil {
		return image.Point{}
	}
	return w.frame.Rect.Size()
}

func (w *window) Destroy() error {
	if w == nil || w.destroyed {
		return nil
	}
	w.destroyed = true
	w.v.windows.Add(-1)
	return nil
}

type renderer struct {
	w           *window
	accelerated bool
	target      *image.RGBA
	destroyed   bool
}

func (r *renderer) CreateTexture(s *surface.Surface) (video.Texture, error) {
	if r == nil || r.destroyed {
		return nil, errors.NilReceiver()
	}
	if s == nil || s.Released() {
		return nil, errors.NilParam()
	}
	img := image.NewRGBA(s.Bounds())
	draw.Draw(img, img.Rect, s, image.Point{}, draw.Src)
	r.w.v.textures.Add(1)
	return &texture{v: r.w.v, img: img}, nil
}

func (r *renderer) Clear() error {
	if r == nil || r.destroyed {
		return errors.NilReceiver()
	}
	r.target = image.NewRGBA(r.w.frame.Rect)
	return nil
}

func (r *renderer) Copy(t video.Texture) error {
	if r == nil || r.destroyed {
		return errors.NilReceiver()
	}
	tex, ok := t.(*texture)
	if !ok || tex == nil || tex.destroyed {
		return errors.New(`invalid texture`)
	}
	if r.target == nil {
		r.target = image.NewRGBA(r.w.frame.Rect)
	}
	xdraw.ApproxBiLinear.Scale(r.target, r.target.Rect, tex.img, tex.img.Rect, xdraw.Src, nil)
	return nil
}

func (r *renderer) Present() {
	if r == nil || r.destroyed || r.target == nil {
		return
	}
	r.w.v.mu.Lock()
	copy(r.w.frame.Pix, r.target.Pix)
	r.w.v.mu.Unlock()
	if err := r.w.v.present(r.w.frame); err != nil {
		logx.IsErr(err, r.w.v, slog.LevelWarn)
	}
}

func (r *renderer) Destroy() error {
	if r == nil || r.destroyed {
		return nil
	}
	r.destroyed = true
	r.w.v.renderers.Add(-1)
	return nil
}

type texture struct {
	v         *Video
	img       *image.RGBA
	destroyed bool
}

func (t *texture) Destroy() error {
	if t == nil || t.destroyed {
		return nil
	}
	t.destroyed = true
	t.v.textures.Add(-1)
	return nil
}

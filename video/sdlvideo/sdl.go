//go:build sdl

// Package sdlvideo is the SDL2 video platform.
// It requires cgo and is built with the "sdl" build tag.
package sdlvideo

import (
	"image"
	"os"
	"unsafe"

	"github.com/veandco/go-sdl2/img"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/surface"
	"github.com/srlehn/kioskimg/video"
)

const Name = `sdl`

func init() { video.Register(Name, func() video.Video { return New() }) }

// Available reports whether the platform was compiled in.
func Available() bool { return true }

type Video struct {
	driver string
}

var _ video.Video = (*Video)(nil)

// hint remembers SDL_VIDEODRIVER as found at program start.
var hint = newDriverHint(consts.EnvSDLVideoDriver, os.LookupEnv, os.Setenv, os.Unsetenv)

func New() *Video { return &Video{} }

func (v *Video) Name() string { return Name }

// Init initializes the SDL video subsystem.
// A non-empty driver is passed on through SDL_VIDEODRIVER, an empty one
// restores the variable to its state at program start.
func (v *Video) Init(driver string) error {
	if err := hint.apply(driver); err != nil {
		return errors.New(err)
	}
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.New(err)
	}
	name, err := sdl.GetCurrentVideoDriver()
	if err != nil {
		name = driver
	}
	v.driver = name
	return nil
}

func (v *Video) Quit() {
	sdl.Quit()
	v.driver = ``
}

func (v *Video) CurrentDriver() string { return v.driver }

func (v *Video) InitImage() error {
	if err := img.Init(img.INIT_PNG | img.INIT_JPG); err != nil {
		return errors.New(err)
	}
	return nil
}

func (v *Video) QuitImage() { img.Quit() }

func (v *Video) CreateWindow(title string, width, height int, fullscreen bool) (video.Window, error) {
	var flags uint32 = sdl.WINDOW_SHOWN
	if fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}
	w, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), flags)
	if err != nil {
		return nil, errors.New(err)
	}
	return &window{w: w}, nil
}

func (v *Video) PollQuit() bool {
	var quit bool
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
				quit = true
			}
		}
	}
	return quit
}

type window struct {
	w *sdl.Window
}

func (w *window) CreateRenderer(accelerated bool) (video.Renderer, error) {
	var flags uint32 = sdl.RENDERER_SOFTWARE
	if accelerated {
		flags = sdl.RENDERER_ACCELERATED
	}
	r, err := sdl.CreateRenderer(w.w, -1, flags)
	if err != nil {
		return nil, errors.New(err)
	}
	return &renderer{r: r}, nil
}

func (w *window) BlitSurface(s *surface.Surface) error {
	src, err := fromSurface(s)
	if err != nil {
		return err
	}
	defer src.Free()
	dst, err := w.w.GetSurface()
	if err != nil {
		return errors.New(err)
	}
	if err := src.Blit(nil, dst, nil); err != nil {
		return errors.New(err)
	}
	return nil
}

func (w *window) UpdateSurface() error {
	if err := w.w.UpdateSurface(); err != nil {
		return errors.New(err)
	}
	return nil
}

func (w *window) Size() image.Point {
	width, height := w.w.GetSize()
	return image.Pt(int(width), int(height))
}

func (w *window) Destroy() error {
	if w.w == nil {
		return nil
	}
	err := w.w.Destroy()
	w.w = nil
	if err != nil {
		return errors.New(err)
	}
	return nil
}

type renderer struct {
	r *sdl.Renderer
}

func (r *renderer) CreateTexture(s *surface.Surface) (video.Texture, error) {
	src, err := fromSurface(s)
	if err != nil {
		return nil, err
	}
	defer src.Free()
	t, err := r.r.CreateTextureFromSurface(src)
	if err != nil {
		return nil, errors.New(err)
	}
	return &texture{t: t}, nil
}

func (r *renderer) Clear() error {
	if err := r.r.Clear(); err != nil {
		return errors.New(err)
	}
	return nil
}

func (r *renderer) Copy(t video.Texture) error {
	tex, ok := t.(*texture)
	if !ok || tex == nil || tex.t == nil {
		return errors.New(`invalid texture`)
	}
	if err := r.r.Copy(tex.t, nil, nil); err != nil {
		return errors.New(err)
	}
	return nil
}

func (r *renderer) Present() { r.r.Present() }

func (r *renderer) Destroy() error {
	if r.r == nil {
		return nil
	}
	err := r.r.Destroy()
	r.r = nil
	if err != nil {
		return errors.New(err)
	}
	return nil
}

type texture struct {
	t *sdl.Texture
}

func (t *texture) Destroy() error {
	if t.t == nil {
		return nil
	}
	err := t.t.Destroy()
	t.t = nil
	if err != nil {
		return errors.New(err)
	}
	return nil
}

// fromSurface wraps the pixels of s without copying. s must outlive the returned surface.
func fromSurface(s *surface.Surface) (*sdl.Surface, error) {
	if s == nil || s.Released() || len(s.Pix) == 0 {
		return nil, errors.NilParam()
	}
	var format uint32
	switch s.Format {
	case surface.RGBA32:
		format = sdl.PIXELFORMAT_ABGR8888
	case surface.BGRA32:
		format = sdl.PIXELFORMAT_ARGB8888
	case surface.RGB565:
		format = sdl.PIXELFORMAT_RGB565
	case surface.BGR565:
		format = sdl.PIXELFORMAT_BGR565
	default:
		return nil, errors.New(`unsupported surface format ` + s.Format.String())
	}
	sf, err := sdl.CreateRGBSurfaceWithFormatFrom(unsafe.Pointer(&s.Pix[0]), int32(s.Width), int32(s.Height),
		int32(s.Format.BitsPerPixel()), int32(s.Stride), format)
	if err != nil {
		return nil, errors.New(err)
	}
	return sf, nil
}

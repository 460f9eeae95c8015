package display

import (
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/surface"
	"github.com/srlehn/kioskimg/video"
)

// resource is a handle released with Destroy.
type resource interface{ Destroy() error }

// resources is the set brought up by one successful driver selection.
// It is published as a whole and never modified afterwards.
type resources struct {
	driver     string
	window     video.Window
	renderer   video.Renderer // AcceleratedTexture only
	imageInit  bool
	fullscreen bool
}

// strategy is one of the rendering paths, chosen once from the draw mode.
type strategy interface {
	Mode() DrawMode
	// needsBackend reports whether show requires a live window.
	needsBackend() bool
	// prepare creates the per-backend resources of the strategy on win.
	prepare(b *Backend, win video.Window) (video.Renderer, error)
	// show presents s and returns the per-image resource that stays current.
	// It takes ownership of s.
	show(b *Backend, res *resources, s *surface.Surface) (resource, error)
}

func newStrategy(mode DrawMode) (strategy, error) {
	switch mode {
	case AcceleratedTexture:
		return textureStrategy{}, nil
	case SurfaceBlit:
		return blitStrategy{}, nil
	case RawFramebuffer:
		return framebufferStrategy{}, nil
	}
	return nil, errors.New(`invalid draw mode ` + mode.String())
}

type textureStrategy struct{}

func (textureStrategy) Mode() DrawMode     { return AcceleratedTexture }
func (textureStrategy) needsBackend() bool { return true }

func (textureStrategy) prepare(b *Backend, win video.Window) (video.Renderer, error) {
	r, err := win.CreateRenderer(true)
	if err == nil {
		return r, nil
	}
	logx.Warn(`accelerated renderer unavailable, trying software renderer`, b, `err`, err.Error())
	r, err = win.CreateRenderer(false)
	if err != nil {
		return nil, errors.WithKind(ErrBackendInit, `create renderer`, err)
	}
	return r, nil
}

func (textureStrategy) show(b *Backend, res *resources, s *surface.Surface) (resource, error) {
	defer s.Release()
	if res == nil || res.renderer == nil {
		return nil, errors.WithKind(ErrBackendInit, `upload texture`, errors.New(`no renderer`))
	}
	tex, err := res.renderer.CreateTexture(s)
	if err != nil {
		return nil, errors.WithKind(ErrTextureUpload, `create texture`, err)
	}
	if err := res.renderer.Clear(); err != nil {
		return nil, errors.WithKind(ErrTextureUpload, `clear`, errors.Join(err, tex.Destroy()))
	}
	if err := res.renderer.Copy(tex); err != nil {
		return nil, errors.WithKind(ErrTextureUpload, `copy texture`, errors.Join(err, tex.Destroy()))
	}
	res.renderer.Present()
	return tex, nil
}

type blitStrategy struct{}

func (blitStrategy) Mode() DrawMode     { return SurfaceBlit }
func (blitStrategy) needsBackend() bool { return true }

func (blitStrategy) prepare(*Backend, video.Window) (video.Renderer, error) { return nil, nil }

func (blitStrategy) show(b *Backend, res *resources, s *surface.Surface) (resource, error) {
	if res == nil || res.window == nil {
		s.Release()
		return nil, errors.WithKind(ErrBackendInit, `blit`, errors.New(`no window`))
	}
	if err := res.window.BlitSurface(s); err != nil {
		s.Release()
		return nil, errors.WithKind(ErrBlit, `blit surface`, err)
	}
	if err := res.window.UpdateSurface(); err != nil {
		s.Release()
		return nil, errors.WithKind(ErrBlit, `update window surface`, err)
	}
	return s, nil
}

type framebufferStrategy struct{}

func (framebufferStrategy) Mode() DrawMode     { return RawFramebuffer }
func (framebufferStrategy) needsBackend() bool { return false }

func (framebufferStrategy) prepare(*Backend, video.Window) (video.Renderer, error) { return nil, nil }

func (framebufferStrategy) show(b *Backend, _ *resources, s *surface.Surface) (resource, error) {
	if err := b.framebufferWriter().Write(s, b.cfg.RGBOrder); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

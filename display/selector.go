package display

import (
	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
)

// selectBackend brings up the video platform, creates the window and
// the per-backend resources of the rendering strategy.
// On failure everything acquired on the way is released again.
func (b *Backend) selectBackend() (*resources, error) {
	v := b.video
	imageInit := true
	if err := v.InitImage(); err != nil {
		imageInit = false
		logx.Warn(`image decoder initialization failed`, b, `err`, err.Error())
	}
	quit := func() {
		if imageInit {
			v.QuitImage()
		}
		v.Quit()
	}

	driver, err := b.initVideo()
	if err != nil {
		if imageInit {
			v.QuitImage()
		}
		return nil, err
	}

	fullscreen := b.headless()
	win, err := v.CreateWindow(b.cfg.Title, b.cfg.Width, b.cfg.Height, fullscreen)
	if err != nil {
		quit()
		return nil, errors.WithKind(ErrBackendInit, `create window`, err)
	}
	renderer, err := b.strategy.prepare(b, win)
	if err != nil {
		if errDestroy := win.Destroy(); errDestroy != nil {
			err = errors.Join(err, errDestroy)
		}
		quit()
		return nil, err
	}
	logx.Info(`graphics backend ready`, b, `driver`, driver, `fullscreen`, fullscreen, `draw-mode`, b.strategy.Mode())
	return &resources{
		driver:     driver,
		window:     win,
		renderer:   renderer,
		imageInit:  imageInit,
		fullscreen: fullscreen,
	}, nil
}

// initVideo tries auto-detection first and then each candidate driver in order.
func (b *Backend) initVideo() (string, error) {
	v := b.video
	err := v.Init(``)
	if err == nil {
		driver := v.CurrentDriver()
		logx.Info(`video initialized with auto-detected driver`, b, `driver`, driver)
		return driver, nil
	}
	logx.Info(`video driver auto-detection failed`, b, `err`, err.Error())

	for _, name := range b.driverCandidates() {
		logx.Info(`trying video driver`, b, `driver`, name)
		if err := v.Init(name); err != nil {
			logx.Warn(`video driver failed`, b, `driver`, name, `err`, err.Error())
			v.Quit()
			continue
		}
		logx.Info(`video driver succeeded`, b, `driver`, name)
		return name, nil
	}
	logx.Error(`all video drivers failed`, b)
	return ``, errors.WithKind(ErrBackendInit, `select video driver`, errors.New(`no usable video driver`))
}

func (b *Backend) driverCandidates() []string {
	if b.candidates != nil {
		return b.candidates
	}
	return Drivers()
}

// headless reports whether neither an X11 nor a Wayland session is present.
func (b *Backend) headless() bool {
	for _, name := range []string{consts.EnvX11Display, consts.EnvWaylandDisplay} {
		if val, ok := b.lookupEnv(name); ok && len(val) > 0 {
			return false
		}
	}
	return true
}

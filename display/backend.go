// Package display is the hardware display backend.
//
// A Backend brings up a graphics platform with driver auto-detection and an
// ordered fallback, shows images with one of three rendering strategies and
// optionally keeps retrying the initialization in the background.
//
// Initialise, DisplayImage and Shutdown must be called from one goroutine,
// usually the main goroutine locked to the main OS thread.
package display

import (
	"context"
	"image"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/srlehn/kioskimg/framebuffer"
	"github.com/srlehn/kioskimg/internal"
	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/linux"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/resize"
	"github.com/srlehn/kioskimg/resize/rdefault"
	"github.com/srlehn/kioskimg/surface"
	"github.com/srlehn/kioskimg/video"
)

type Backend struct {
	cfg         Config
	video       video.Video
	logger      *slog.Logger
	candidates  []string
	scheduler   Scheduler
	fbWriter    *framebuffer.Writer
	resizer     resize.Resizer
	lookupEnv   func(string) (string, bool)
	hideConsole func() (interface{ Close() error }, error)

	strategy strategy
	// non-nil once a graphics backend is live
	res      atomic.Pointer[resources]
	recovery recoveryTask

	// owned by the calling goroutine
	current resource
	console interface{ Close() error }

	errMu   sync.Mutex
	lastErr error
}

var _ logx.LoggerProvider = (*Backend)(nil)

// New creates a backend drawing with v. A nil v selects the registered
// video platform with the highest priority.
func New(cfg Config, v video.Video, opts ...Option) (*Backend, error) {
	if v == nil {
		v = video.Default()
		if v == nil {
			return nil, errors.New(`no video platform available`)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := newStrategy(cfg.DrawMode)
	if err != nil {
		return nil, err
	}
	b := &Backend{
		cfg:         cfg,
		video:       v,
		strategy:    st,
		lookupEnv:   os.LookupEnv,
		hideConsole: switchConsole,
		resizer:     rdefault.Get(cfg.Resizer),
	}
	if err := b.SetOptions(opts...); err != nil {
		return nil, err
	}
	if b.fbWriter == nil {
		b.fbWriter = &framebuffer.Writer{
			Device:  cfg.FramebufferDevice,
			Fit:     cfg.Fit,
			Resizer: b.resizer,
		}
	}
	if b.fbWriter.Log == nil {
		b.fbWriter.Log = b.logger
	}
	return b, nil
}

func switchConsole() (interface{ Close() error }, error) {
	c, err := linux.GraphicsConsole(consts.DefaultConsoleDevice)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (b *Backend) Logger() *slog.Logger {
	if b == nil || b.logger == nil {
		return logx.Nop()
	}
	return b.logger
}

func (b *Backend) Config() Config { return b.cfg }

func (b *Backend) framebufferWriter() *framebuffer.Writer { return b.fbWriter }

// Initialise brings up the graphics backend with the current configuration.
// A live backend is shut down and brought up again.
// If it fails and auto recovery is enabled, retrying continues in the background.
func (b *Backend) Initialise() bool {
	if b == nil {
		return false
	}
	b.stopRecovery()
	if b.res.Load() != nil || b.current != nil {
		logx.Info(`reinitializing display backend`, b)
		b.release()
	}
	logx.Info(`initializing display backend`, b,
		`title`, b.cfg.Title,
		`draw-mode`, b.cfg.DrawMode,
		`rgb-order`, b.cfg.RGBOrder,
		`auto-recovery`, b.cfg.AutoRecovery)

	if b.cfg.DrawMode == RawFramebuffer && b.cfg.HideConsole && b.console == nil && b.hideConsole != nil {
		c, err := b.hideConsole()
		if err != nil {
			logx.Warn(`could not switch console to graphics mode`, b, `err`, err.Error())
		} else {
			b.console = c
		}
	}

	res, err := b.selectBackend()
	if err == nil {
		b.res.Store(res)
		return true
	}
	b.setErr(err)
	logx.IsErr(err, b, slog.LevelError)
	if b.cfg.AutoRecovery {
		b.recovery.Start(b.cfg.Recovery, b.scheduler, b, b.recoverOnce)
	}
	return false
}

// InitialiseWith replaces title, draw mode, color order and the auto recovery flag and initialises.
func (b *Backend) InitialiseWith(title string, mode DrawMode, order surface.Order, autoRecovery bool) bool {
	if b == nil {
		return false
	}
	b.stopRecovery()
	cfg := b.cfg
	cfg.Title = title
	cfg.DrawMode = mode
	cfg.RGBOrder = order
	cfg.AutoRecovery = autoRecovery
	if err := cfg.Validate(); err != nil {
		b.setErr(err)
		logx.IsErr(err, b, slog.LevelError)
		return false
	}
	st, err := newStrategy(mode)
	if err != nil {
		b.setErr(err)
		logx.IsErr(err, b, slog.LevelError)
		return false
	}
	if b.res.Load() != nil || b.current != nil {
		// resources of the previous strategy must not outlive it
		b.release()
	}
	b.cfg = cfg
	b.strategy = st
	return b.Initialise()
}

func (b *Backend) recoverOnce(context.Context) error {
	if b.res.Load() != nil {
		return nil
	}
	res, err := b.selectBackend()
	if err != nil {
		b.setErr(err)
		return err
	}
	b.res.Store(res)
	return nil
}

// DisplayImage decodes the image file at path and shows it.
// The previously shown image is released first, so a failure leaves the screen blank.
func (b *Backend) DisplayImage(path string) bool {
	if b == nil {
		return false
	}
	b.releaseCurrent()

	res := b.res.Load()
	if b.strategy.needsBackend() && res == nil {
		err := errors.WithKind(ErrBackendInit, `display `+path, errors.New(`display backend not initialized`))
		b.setErr(err)
		logx.IsErr(err, b, slog.LevelError)
		return false
	}

	s, format, err := decodeFile(path)
	if err != nil {
		b.setErr(err)
		logx.IsErr(err, b, slog.LevelError, `path`, path)
		return false
	}
	logx.Debug(`decoded image`, b, `path`, path, `format`, format, `width`, s.Width, `height`, s.Height)

	if b.cfg.Fit != resize.FitNone && res != nil && b.strategy.needsBackend() {
		s = b.fit(s, res.window.Size())
	}

	cur, err := b.strategy.show(b, res, s)
	if err != nil {
		b.setErr(err)
		logx.IsErr(err, b, slog.LevelError, `path`, path)
		return false
	}
	b.current = cur
	logx.Info(`displayed image`, b, `path`, path, `draw-mode`, b.strategy.Mode())
	return true
}

// fit scales s to size. It returns s unchanged if nothing is to be done or scaling fails.
func (b *Backend) fit(s *surface.Surface, size image.Point) *surface.Surface {
	m, err := resize.Apply(s, size, b.cfg.Fit, b.resizer)
	if err != nil {
		logx.IsErr(err, b, slog.LevelWarn)
		return s
	}
	if m == image.Image(s) {
		return s
	}
	scaled, err := surface.FromImage(m)
	if err != nil {
		logx.IsErr(err, b, slog.LevelWarn)
		return s
	}
	s.Release()
	return scaled
}

// Shutdown stops a running recovery and releases all resources held.
// It is safe to call repeatedly and on a backend never initialised.
func (b *Backend) Shutdown() {
	if b == nil {
		return
	}
	b.stopRecovery()
	b.release()
}

func (b *Backend) IsInitialized() bool { return b != nil && b.res.Load() != nil }

// PollEvents drains platform events and reports whether the window should close.
func (b *Backend) PollEvents() (quit bool) {
	if b == nil || b.res.Load() == nil {
		return false
	}
	return b.video.PollQuit()
}

// Driver names the video driver in use, empty if not initialized.
func (b *Backend) Driver() string {
	if b == nil {
		return ``
	}
	if res := b.res.Load(); res != nil {
		return res.driver
	}
	return ``
}

// Fullscreen reports whether the window was created fullscreen.
func (b *Backend) Fullscreen() bool {
	if b == nil {
		return false
	}
	res := b.res.Load()
	return res != nil && res.fullscreen
}

func (b *Backend) RecoveryState() (RecoveryState, RecoveryOutcome) { return b.recovery.State() }

// RecoveryAttempts is the number of attempts of the current or last recovery run.
func (b *Backend) RecoveryAttempts() int { return b.recovery.Attempts() }

// LastError returns the most recent failure.
func (b *Backend) LastError() error {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.lastErr
}

func (b *Backend) setErr(err error) {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	b.lastErr = err
}

func (b *Backend) stopRecovery() {
	b.recovery.RequestCancel()
	b.recovery.Join()
}

func (b *Backend) releaseCurrent() {
	if b.current == nil {
		return
	}
	cur := b.current
	b.current = nil
	if err := cur.Destroy(); err != nil {
		logx.IsErr(errors.New(err), b, slog.LevelWarn)
	}
}

// release destroys the current image, the published resource set and the platform.
// The recovery task must not be running.
func (b *Backend) release() {
	b.releaseCurrent()
	if res := b.res.Swap(nil); res != nil {
		closer := internal.NewCloser()
		v := b.video
		closer.OnClose(func() error { v.Quit(); return nil })
		if res.imageInit {
			closer.OnClose(func() error { v.QuitImage(); return nil })
		}
		if res.window != nil {
			closer.OnClose(res.window.Destroy)
		}
		if res.renderer != nil {
			closer.OnClose(res.renderer.Destroy)
		}
		if err := closer.Close(); err != nil {
			logx.IsErr(err, b, slog.LevelWarn)
		}
		logx.Info(`display backend shut down`, b, `driver`, res.driver)
	}
	if b.console != nil {
		if err := b.console.Close(); err != nil {
			logx.IsErr(errors.New(err), b, slog.LevelWarn)
		}
		b.console = nil
	}
}

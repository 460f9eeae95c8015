package display

import (
	"strconv"
	"strings"
	"time"

	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/resize"
	"github.com/srlehn/kioskimg/surface"
)

// DrawMode selects the rendering strategy.
type DrawMode int

const (
	AcceleratedTexture DrawMode = 0
	SurfaceBlit        DrawMode = 1
	RawFramebuffer     DrawMode = 2
)

func (m DrawMode) String() string {
	switch m {
	case AcceleratedTexture:
		return `texture`
	case SurfaceBlit:
		return `blit`
	case RawFramebuffer:
		return `framebuffer`
	}
	return `drawmode(` + strconv.Itoa(int(m)) + `)`
}

func (m DrawMode) Valid() bool { return m >= AcceleratedTexture && m <= RawFramebuffer }

// ParseDrawMode accepts the numeric codes 0, 1, 2 and the names
// "texture", "blit" and "framebuffer" (or "fb").
func ParseDrawMode(s string) (DrawMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case `0`, `texture`, `accelerated`:
		return AcceleratedTexture, nil
	case `1`, `blit`, `surface`:
		return SurfaceBlit, nil
	case `2`, `framebuffer`, `fb`:
		return RawFramebuffer, nil
	}
	return AcceleratedTexture, errors.New(`unknown draw mode "` + s + `"`)
}

// RecoveryConfig paces the auto recovery task.
type RecoveryConfig struct {
	MaxAttempts int
	// Interval is the pause between two attempts.
	Interval time.Duration
	// Tick is the granularity in which a pause can be cancelled.
	Tick time.Duration
}

const (
	DefaultRecoveryAttempts = 10
	DefaultRecoveryInterval = 5 * time.Second
	DefaultRecoveryTick     = 100 * time.Millisecond
)

func (c RecoveryConfig) withDefaults() RecoveryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultRecoveryAttempts
	}
	if c.Interval <= 0 {
		c.Interval = DefaultRecoveryInterval
	}
	if c.Tick <= 0 {
		c.Tick = DefaultRecoveryTick
	}
	if c.Tick > c.Interval {
		c.Tick = c.Interval
	}
	return c
}

// Config is the configuration record of the display backend.
type Config struct {
	Title        string
	Width        int
	Height       int
	DrawMode     DrawMode
	RGBOrder     surface.Order
	AutoRecovery bool
	Recovery     RecoveryConfig

	// Fit scales decoded images to the output size.
	Fit resize.Fit
	// Resizer names the scaler used if Fit is set.
	Resizer string
	// FramebufferDevice defaults to /dev/fb0.
	FramebufferDevice string
	// HideConsole switches the virtual console to graphics mode while drawing to the framebuffer.
	HideConsole bool
}

func DefaultConfig() Config {
	return Config{
		Title:             `Redis Image Viewer`,
		Width:             800,
		Height:            600,
		DrawMode:          AcceleratedTexture,
		RGBOrder:          surface.RGB,
		FramebufferDevice: consts.DefaultFramebufferDevice,
		Recovery: RecoveryConfig{
			MaxAttempts: DefaultRecoveryAttempts,
			Interval:    DefaultRecoveryInterval,
			Tick:        DefaultRecoveryTick,
		},
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, errors.New(`window dimensions must be positive: `+strconv.Itoa(c.Width)+`x`+strconv.Itoa(c.Height)))
	}
	if !c.DrawMode.Valid() {
		errs = append(errs, errors.New(`invalid draw mode `+strconv.Itoa(int(c.DrawMode))))
	}
	if c.RGBOrder != surface.RGB && c.RGBOrder != surface.BGR {
		errs = append(errs, errors.New(`invalid rgb order `+strconv.Itoa(int(c.RGBOrder))))
	}
	return errors.Join(errs...)
}

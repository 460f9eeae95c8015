// Package kioskimg shows images named by a key-value store on a kiosk display.
//
// The package level functions drive a single display backend with the
// default configuration:
//
//	defer kioskimg.CleanUp()
//	if err := kioskimg.ShowFile(`/srv/images/img0.png`); err != nil {
//		// ...
//	}
package kioskimg

import (
	"io"
	"log/slog"
	"os"

	"github.com/srlehn/kioskimg/config"
	"github.com/srlehn/kioskimg/display"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/video"
	"github.com/srlehn/kioskimg/video/sdlvideo"

	_ "github.com/srlehn/kioskimg/video/dummyvideo"
)

var (
	// chosen defaults
	DefaultConfig = config.Default()

	displayActive *display.Backend
)

// NewLogger creates the logger described by the LogFile and LogLevel settings.
// An empty LogFile logs to stdout. The closer flushes the log file.
func NewLogger(cfg *config.Config, stdout io.Writer) (*slog.Logger, io.Closer) {
	if cfg == nil {
		cfg = DefaultConfig
	}
	return logx.NewLogger(logx.SinkOptions{
		File:   cfg.LogFile,
		Level:  logx.Level(cfg.LogLevel),
		Stdout: stdout,
	})
}

// NewDisplay creates a display backend for cfg on the registered video
// platform with the highest priority.
func NewDisplay(cfg *config.Config, logger *slog.Logger, opts ...display.Option) (*display.Backend, error) {
	if cfg == nil {
		return nil, errors.NilParam()
	}
	dc, err := cfg.Display()
	if err != nil {
		return nil, err
	}
	v := video.Default()
	if v == nil {
		return nil, errors.New(`no video platform registered`)
	}
	if !sdlvideo.Available() && dc.DrawMode != display.RawFramebuffer {
		logx.Warn(`built without SDL2 support, drawing to the in-memory platform`, logx.Prov(logger), `platform`, v.Name())
	}
	o := []display.Option{display.SetLogger(logger)}
	if len(cfg.VideoDrivers) > 0 {
		o = append(o, display.SetCandidates(cfg.VideoDrivers...))
	}
	return display.New(dc, v, append(o, opts...)...)
}

// Display returns the shared backend, initialising it on first use.
func Display() (*display.Backend, error) {
	return displayActive, initDisplay()
}

func initDisplay() error {
	if displayActive != nil {
		return nil
	}
	logger, _ := NewLogger(&config.Config{LogLevel: DefaultConfig.LogLevel}, os.Stderr)
	b, err := NewDisplay(DefaultConfig, logger)
	if err != nil {
		return err
	}
	if !b.Initialise() && DefaultConfig.AutoInit != 1 {
		return errors.Join(errors.New(`display initialization failed`), b.LastError())
	}
	displayActive = b
	return nil
}

// ShowFile shows the image file on the shared backend.
func ShowFile(path string) error {
	b, err := Display()
	if err != nil {
		return err
	}
	if !b.DisplayImage(path) {
		return errors.Join(errors.New(`could not display `+path), b.LastError())
	}
	return nil
}

// CleanUp shuts the shared backend down.
func CleanUp() error {
	if displayActive == nil {
		return nil
	}
	displayActive.Shutdown()
	displayActive = nil
	return nil
}

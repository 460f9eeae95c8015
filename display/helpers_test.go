package display

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srlehn/kioskimg/framebuffer"
	"github.com/srlehn/kioskimg/video/dummyvideo"
)

// recordingVideo records the driver requests made to the in-memory platform.
type recordingVideo struct {
	*dummyvideo.Video

	mu            sync.Mutex
	inits         []string
	quits         int
	failImage     bool
	failAutoTimes int // auto-detection fails this many times, -1 always
}

func newRecordingVideo() *recordingVideo { return &recordingVideo{Video: dummyvideo.New()} }

func (v *recordingVideo) Init(driver string) error {
	v.mu.Lock()
	v.inits = append(v.inits, driver)
	autoCalls := 0
	for _, d := range v.inits {
		if d == `` {
			autoCalls++
		}
	}
	fail := driver == `` && (v.failAutoTimes < 0 || autoCalls <= v.failAutoTimes)
	v.mu.Unlock()
	if fail {
		return os.ErrNotExist
	}
	return v.Video.Init(driver)
}

func (v *recordingVideo) Quit() {
	v.mu.Lock()
	v.quits++
	v.mu.Unlock()
	v.Video.Quit()
}

func (v *recordingVideo) InitImage() error {
	if v.failImage {
		return os.ErrPermission
	}
	return v.Video.InitImage()
}

func (v *recordingVideo) Inits() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string{}, v.inits...)
}

func (v *recordingVideo) Quits() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.quits
}

// syncBuffer is a log sink safe for use by the recovery goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger(buf *syncBuffer) Option {
	return SetLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func noEnv(string) (string, bool) { return ``, false }

// instantScheduler never waits but still honors cancellation.
type instantScheduler struct{}

func (instantScheduler) Wait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func testConfig(mode DrawMode) Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 8, 6
	cfg.DrawMode = mode
	cfg.Title = `test`
	return cfg
}

func writePNG(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), `img.png`)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
	return path
}

func writeJPEG(t *testing.T, w, h int) string {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	path := filepath.Join(t.TempDir(), `img.jpg`)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, m, nil))
	return path
}

// memDevice is a framebuffer device backed by a byte slice.
type memDevice struct {
	mu     sync.Mutex
	geom   framebuffer.Geometry
	mem    []byte
	closed int
}

func newMemDevice(w, h uint32) *memDevice {
	return &memDevice{geom: framebuffer.Geometry{
		Xres: w, Yres: h, XresVirtual: w, YresVirtual: h, BitsPerPixel: 32, LineLength: w * 4,
	}}
}

func (d *memDevice) Geometry() (framebuffer.Geometry, error) { return d.geom, nil }

func (d *memDevice) Map(size int) ([]byte, error) {
	if len(d.mem) < size {
		d.mem = make([]byte, size)
	}
	return d.mem[:size], nil
}

func (d *memDevice) Unmap([]byte) error { return nil }

func (d *memDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *memDevice) writer() *framebuffer.Writer {
	return &framebuffer.Writer{Open: func(string) (framebuffer.Device, error) { return d, nil }}
}

package display

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/kioskimg/framebuffer"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/resize"
	"github.com/srlehn/kioskimg/surface"
	"github.com/srlehn/kioskimg/video/dummyvideo"
)

func TestSelectStopsAtFirstWorkingCandidate(t *testing.T) {
	var buf syncBuffer
	v := newRecordingVideo()
	v.failAutoTimes = -1
	v.Drivers = []string{`c`, `d`}
	b, err := New(testConfig(AcceleratedTexture), v, testLogger(&buf), SetLookupEnv(noEnv), SetCandidates(`a`, `b`, `c`, `d`))
	require.NoError(t, err)

	require.True(t, b.Initialise())
	defer b.Shutdown()
	assert.Equal(t, []string{``, `a`, `b`, `c`}, v.Inits())
	assert.Equal(t, 2, v.Quits())
	assert.Equal(t, `c`, b.Driver())
	logs := buf.String()
	assert.Contains(t, logs, `driver=a`)
	assert.Contains(t, logs, `driver=b`)
	assert.Contains(t, logs, `video driver succeeded`)
}

func TestSelectAutoDetectUsesNoHint(t *testing.T) {
	v := newRecordingVideo()
	b, err := New(testConfig(AcceleratedTexture), v, SetLookupEnv(noEnv))
	require.NoError(t, err)
	require.True(t, b.Initialise())
	defer b.Shutdown()
	assert.Equal(t, []string{``}, v.Inits())
	assert.Equal(t, dummyvideo.Name, b.Driver())
}

func TestSelectAllCandidatesFail(t *testing.T) {
	var buf syncBuffer
	v := newRecordingVideo()
	v.failAutoTimes = -1
	v.Drivers = []string{`none`}
	b, err := New(testConfig(AcceleratedTexture), v, testLogger(&buf), SetCandidates(`a`, `b`))
	require.NoError(t, err)

	assert.False(t, b.Initialise())
	assert.False(t, b.IsInitialized())
	assert.True(t, errors.Is(b.LastError(), ErrBackendInit))
	assert.Contains(t, buf.String(), `all video drivers failed`)
	assert.False(t, v.Initialized())
	state, _ := b.RecoveryState()
	assert.Equal(t, RecoveryIdle, state)
	assert.NotPanics(t, b.Shutdown)
}

func TestSelectDefaultCandidates(t *testing.T) {
	defer ResetDriverList()
	DisableDriver(`fbcon`)
	DisableDriver(`unknown`)
	v := newRecordingVideo()
	v.failAutoTimes = -1
	v.Drivers = []string{`dummy`}
	b, err := New(testConfig(SurfaceBlit), v)
	require.NoError(t, err)
	require.True(t, b.Initialise())
	defer b.Shutdown()
	assert.Equal(t, []string{``, `kmsdrm`, `fbdev`, `directfb`, `x11`, `wayland`, `dummy`}, v.Inits())

	ResetDriverList()
	assert.Equal(t, `fbcon`, Drivers()[0])
}

func TestHeadlessSelectsFullscreen(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		fullscreen bool
	}{
		{`no session`, nil, true},
		{`empty session variables`, map[string]string{`DISPLAY`: ``, `WAYLAND_DISPLAY`: ``}, true},
		{`x11`, map[string]string{`DISPLAY`: `:0`}, false},
		{`wayland`, map[string]string{`WAYLAND_DISPLAY`: `wayland-0`}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newRecordingVideo()
			lookup := func(k string) (string, bool) { val, ok := tt.env[k]; return val, ok }
			b, err := New(testConfig(AcceleratedTexture), v, SetLookupEnv(lookup))
			require.NoError(t, err)
			require.True(t, b.Initialise())
			defer b.Shutdown()
			assert.Equal(t, tt.fullscreen, b.Fullscreen())
			assert.Equal(t, tt.fullscreen, v.Fullscreen())
		})
	}
}

func TestImageSubsystemFailureIsNotFatal(t *testing.T) {
	var buf syncBuffer
	v := newRecordingVideo()
	v.failImage = true
	b, err := New(testConfig(AcceleratedTexture), v, testLogger(&buf))
	require.NoError(t, err)
	require.True(t, b.Initialise())
	b.Shutdown()
	assert.Contains(t, buf.String(), `image decoder initialization failed`)
}

func TestWindowFailureFailsSelection(t *testing.T) {
	v := newRecordingVideo()
	v.FailWindow = true
	b, err := New(testConfig(AcceleratedTexture), v)
	require.NoError(t, err)
	assert.False(t, b.Initialise())
	assert.True(t, errors.Is(b.LastError(), ErrBackendInit))
	assert.False(t, v.Initialized())
}

func TestSoftwareRendererFallback(t *testing.T) {
	var buf syncBuffer
	v := newRecordingVideo()
	v.FailAccelerated = true
	b, err := New(testConfig(AcceleratedTexture), v, testLogger(&buf))
	require.NoError(t, err)
	require.True(t, b.Initialise())
	defer b.Shutdown()
	assert.Contains(t, buf.String(), `trying software renderer`)
	assert.Equal(t, int64(1), v.Stats().Renderers)
}

func TestRendererOnlyInTextureMode(t *testing.T) {
	for _, mode := range []DrawMode{SurfaceBlit, RawFramebuffer} {
		v := newRecordingVideo()
		b, err := New(testConfig(mode), v)
		require.NoError(t, err)
		require.True(t, b.Initialise())
		assert.Equal(t, int64(0), v.Stats().Renderers, mode.String())
		assert.Equal(t, int64(1), v.Stats().Windows, mode.String())
		b.Shutdown()
	}
}

func TestDisplayImageKeepsOneResource(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	for _, mode := range []DrawMode{AcceleratedTexture, SurfaceBlit, RawFramebuffer} {
		t.Run(mode.String(), func(t *testing.T) {
			v := newRecordingVideo()
			dev := newMemDevice(8, 6)
			b, err := New(testConfig(mode), v, SetFramebufferWriter(dev.writer()))
			require.NoError(t, err)
			require.True(t, b.Initialise())
			defer b.Shutdown()

			path := writePNG(t, 8, 6, red)
			var previous []resource
			for i := 0; i < 5; i++ {
				require.True(t, b.DisplayImage(path))
				require.NotNil(t, b.current)
				previous = append(previous, b.current)
			}
			live := 0
			for _, r := range previous {
				switch r := r.(type) {
				case *surface.Surface:
					if !r.Released() {
						live++
					}
				default:
					live = int(v.Stats().Textures)
				}
			}
			assert.Equal(t, 1, live)

			switch mode {
			case RawFramebuffer:
				assert.Equal(t, []byte{255, 0, 0, 255}, dev.mem[:4])
				assert.Equal(t, 5, dev.closed)
			default:
				assert.Equal(t, red, v.Frame().RGBAAt(7, 5))
			}
		})
	}
}

func TestDisplayImageTextureCount(t *testing.T) {
	v := newRecordingVideo()
	b, err := New(testConfig(AcceleratedTexture), v)
	require.NoError(t, err)
	require.True(t, b.Initialise())
	path := writeJPEG(t, 4, 4)
	for i := 0; i < 3; i++ {
		require.True(t, b.DisplayImage(path))
		assert.Equal(t, int64(1), v.Stats().Textures)
	}
	b.Shutdown()
	assert.Equal(t, dummyvideo.Stats{Presents: 3}, v.Stats())
}

func TestDisplayImageRecoversFromMissingFile(t *testing.T) {
	for _, mode := range []DrawMode{AcceleratedTexture, SurfaceBlit, RawFramebuffer} {
		t.Run(mode.String(), func(t *testing.T) {
			var buf syncBuffer
			v := newRecordingVideo()
			dev := newMemDevice(4, 4)
			b, err := New(testConfig(mode), v, testLogger(&buf), SetFramebufferWriter(dev.writer()))
			require.NoError(t, err)
			require.True(t, b.Initialise())
			defer b.Shutdown()

			valid := writePNG(t, 2, 2, color.RGBA{G: 255, A: 255})
			require.True(t, b.DisplayImage(valid))
			assert.False(t, b.DisplayImage(filepath.Join(t.TempDir(), `missing.png`)))
			assert.True(t, errors.Is(b.LastError(), ErrImageDecode))
			assert.Nil(t, b.current, `previous image is released before loading`)
			assert.Contains(t, buf.String(), `missing.png`)
			assert.True(t, b.IsInitialized())
			assert.True(t, b.DisplayImage(valid))
		})
	}
}

func TestDisplayImageCorruptFile(t *testing.T) {
	v := newRecordingVideo()
	b, err := New(testConfig(SurfaceBlit), v)
	require.NoError(t, err)
	require.True(t, b.Initialise())
	defer b.Shutdown()
	path := filepath.Join(t.TempDir(), `broken.png`)
	require.NoError(t, os.WriteFile(path, []byte(`not an image`), 0o644))
	assert.False(t, b.DisplayImage(path))
	assert.True(t, errors.Is(b.LastError(), ErrImageDecode))
}

func TestDisplayImageWithoutBackend(t *testing.T) {
	v := newRecordingVideo()
	b, err := New(testConfig(AcceleratedTexture), v)
	require.NoError(t, err)
	assert.False(t, b.DisplayImage(writePNG(t, 1, 1, color.RGBA{})))
	assert.True(t, errors.Is(b.LastError(), ErrBackendInit))

	// the raw framebuffer does not need a window
	dev := newMemDevice(1, 1)
	b, err = New(testConfig(RawFramebuffer), v, SetFramebufferWriter(dev.writer()))
	require.NoError(t, err)
	assert.True(t, b.DisplayImage(writePNG(t, 1, 1, color.RGBA{B: 9, A: 255})))
	assert.Equal(t, []byte{0, 0, 9, 255}, dev.mem)
	b.Shutdown()
}

func TestFramebufferOpenFailure(t *testing.T) {
	v := newRecordingVideo()
	w := newMemDevice(1, 1).writer()
	w.Open = func(string) (framebuffer.Device, error) { return nil, errors.New(`busy`) }
	b, err := New(testConfig(RawFramebuffer), v, SetFramebufferWriter(w))
	require.NoError(t, err)
	require.True(t, b.Initialise())
	defer b.Shutdown()
	assert.False(t, b.DisplayImage(writePNG(t, 1, 1, color.RGBA{})))
	assert.True(t, errors.Is(b.LastError(), ErrFramebufferOpen))
	assert.True(t, b.IsInitialized(), `a failed write keeps the backend`)
}

func TestFramebufferBGR(t *testing.T) {
	v := newRecordingVideo()
	dev := newMemDevice(1, 1)
	cfg := testConfig(RawFramebuffer)
	cfg.RGBOrder = surface.BGR
	b, err := New(cfg, v, SetFramebufferWriter(dev.writer()))
	require.NoError(t, err)
	require.True(t, b.DisplayImage(writePNG(t, 1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})))
	assert.Equal(t, []byte{3, 2, 1, 255}, dev.mem)
	b.Shutdown()
}

func TestFitStretch(t *testing.T) {
	v := newRecordingVideo()
	cfg := testConfig(SurfaceBlit)
	cfg.Fit = resize.FitStretch
	cfg.Resizer = `nearest`
	b, err := New(cfg, v)
	require.NoError(t, err)
	require.True(t, b.Initialise())
	defer b.Shutdown()
	require.True(t, b.DisplayImage(writePNG(t, 1, 1, color.RGBA{R: 255, A: 255})))
	frame := v.Frame()
	assert.Equal(t, color.RGBA{R: 255, A: 255}, frame.RGBAAt(7, 5))
}

func TestShutdownIdempotent(t *testing.T) {
	v := newRecordingVideo()
	b, err := New(testConfig(AcceleratedTexture), v)
	require.NoError(t, err)
	assert.NotPanics(t, b.Shutdown, `never initialized`)

	require.True(t, b.Initialise())
	require.True(t, b.DisplayImage(writePNG(t, 2, 2, color.RGBA{A: 255})))
	b.Shutdown()
	quits := v.Quits()
	assert.NotPanics(t, b.Shutdown)
	assert.False(t, b.IsInitialized())
	assert.Equal(t, quits, v.Quits(), `second shutdown releases nothing`)
	assert.Equal(t, dummyvideo.Stats{Presents: 1}, v.Stats())
	assert.False(t, v.Initialized())
}

func TestReinitialise(t *testing.T) {
	v := newRecordingVideo()
	b, err := New(testConfig(AcceleratedTexture), v)
	require.NoError(t, err)
	require.True(t, b.Initialise())
	require.True(t, b.DisplayImage(writePNG(t, 2, 2, color.RGBA{A: 255})))

	require.True(t, b.InitialiseWith(`blit`, SurfaceBlit, surface.RGB, false))
	assert.Equal(t, SurfaceBlit, b.Config().DrawMode)
	assert.Equal(t, `blit`, b.Config().Title)
	stats := v.Stats()
	assert.Equal(t, int64(1), stats.Windows)
	assert.Equal(t, int64(0), stats.Renderers)
	assert.Equal(t, int64(0), stats.Textures)
	require.True(t, b.DisplayImage(writePNG(t, 2, 2, color.RGBA{A: 255})))
	b.Shutdown()
	assert.Equal(t, int64(0), v.Stats().Windows)

	assert.False(t, b.InitialiseWith(`bad`, DrawMode(7), surface.RGB, false))
}

func TestPollEvents(t *testing.T) {
	v := newRecordingVideo()
	b, err := New(testConfig(SurfaceBlit), v)
	require.NoError(t, err)
	v.RequestQuit()
	assert.False(t, b.PollEvents(), `not initialized`)
	require.True(t, b.Initialise())
	defer b.Shutdown()
	assert.True(t, b.PollEvents())
	assert.False(t, b.PollEvents())
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error { c.closed++; return nil }

func TestHideConsole(t *testing.T) {
	v := newRecordingVideo()
	cfg := testConfig(RawFramebuffer)
	cfg.HideConsole = true
	c := &countingCloser{}
	b, err := New(cfg, v, SetFramebufferWriter(newMemDevice(1, 1).writer()),
		SetConsoleSwitcher(func() (interface{ Close() error }, error) { return c, nil }))
	require.NoError(t, err)
	require.True(t, b.Initialise())
	b.Shutdown()
	b.Shutdown()
	assert.Equal(t, 1, c.closed)
}

func TestRecoveryExhausts(t *testing.T) {
	var buf syncBuffer
	v := newRecordingVideo()
	v.failAutoTimes = -1
	v.Drivers = []string{`none`}
	cfg := testConfig(AcceleratedTexture)
	cfg.AutoRecovery = true
	cfg.Recovery.MaxAttempts = 3
	b, err := New(cfg, v, testLogger(&buf), SetCandidates(), SetScheduler(instantScheduler{}))
	require.NoError(t, err)

	assert.False(t, b.Initialise())
	b.recovery.Join()
	state, outcome := b.RecoveryState()
	assert.Equal(t, RecoveryStopped, state)
	assert.Equal(t, OutcomeExhausted, outcome)
	assert.Equal(t, 3, b.RecoveryAttempts())
	// one initial selection plus three attempts
	assert.Equal(t, []string{``, ``, ``, ``}, v.Inits())
	assert.False(t, b.IsInitialized())
	assert.Contains(t, buf.String(), `auto recovery gave up`)
	b.Shutdown()
}

func TestRecoverySucceeds(t *testing.T) {
	v := newRecordingVideo()
	v.failAutoTimes = 2
	cfg := testConfig(AcceleratedTexture)
	cfg.AutoRecovery = true
	b, err := New(cfg, v, SetCandidates(), SetScheduler(instantScheduler{}))
	require.NoError(t, err)

	assert.False(t, b.Initialise())
	b.recovery.Join()
	_, outcome := b.RecoveryState()
	assert.Equal(t, OutcomeSucceeded, outcome)
	assert.Equal(t, 2, b.RecoveryAttempts())
	assert.True(t, b.IsInitialized())
	assert.True(t, b.DisplayImage(writePNG(t, 1, 1, color.RGBA{A: 255})))
	b.Shutdown()
	assert.False(t, b.IsInitialized())
	assert.Equal(t, int64(0), v.Stats().Windows)
}

func TestRecoveryCancelledWithinTick(t *testing.T) {
	var buf syncBuffer
	v := newRecordingVideo()
	v.failAutoTimes = -1
	cfg := testConfig(AcceleratedTexture)
	cfg.AutoRecovery = true
	cfg.Recovery = RecoveryConfig{MaxAttempts: 10, Interval: 5 * time.Second, Tick: 20 * time.Millisecond}
	b, err := New(cfg, v, testLogger(&buf), SetCandidates())
	require.NoError(t, err)

	assert.False(t, b.Initialise())
	require.Eventually(t, func() bool { return b.RecoveryAttempts() == 1 }, time.Second, 5*time.Millisecond)
	state, _ := b.RecoveryState()
	assert.Equal(t, RecoveryRetrying, state)

	start := time.Now()
	b.Shutdown()
	assert.Less(t, time.Since(start), time.Second)
	_, outcome := b.RecoveryState()
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, 1, b.RecoveryAttempts())
	assert.Contains(t, buf.String(), `auto recovery cancelled`)
}

func TestInitialiseRestartsRecovery(t *testing.T) {
	v := newRecordingVideo()
	v.failAutoTimes = -1
	cfg := testConfig(AcceleratedTexture)
	cfg.AutoRecovery = true
	cfg.Recovery = RecoveryConfig{MaxAttempts: 10, Interval: 5 * time.Second, Tick: 10 * time.Millisecond}
	b, err := New(cfg, v, SetCandidates())
	require.NoError(t, err)

	assert.False(t, b.Initialise())
	require.Eventually(t, func() bool { return b.RecoveryAttempts() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, b.Initialise())
	state, outcome := b.RecoveryState()
	assert.Equal(t, RecoveryRetrying, state)
	assert.Equal(t, OutcomeNone, outcome)
	b.Shutdown()
	_, outcome = b.RecoveryState()
	assert.Equal(t, OutcomeCancelled, outcome)
}

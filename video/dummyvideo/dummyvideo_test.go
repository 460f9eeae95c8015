package dummyvideo_test

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/kioskimg/surface"
	"github.com/srlehn/kioskimg/video"
	"github.com/srlehn/kioskimg/video/dummyvideo"
)

func redSurface(t *testing.T, w, h int) *surface.Surface {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i], m.Pix[i+3] = 255, 255
	}
	s, err := surface.FromImage(m)
	require.NoError(t, err)
	return s
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, video.Available(), dummyvideo.Name)
	v := video.Get(dummyvideo.Name)
	require.NotNil(t, v)
	assert.Equal(t, dummyvideo.Name, v.Name())
}

func TestInitDrivers(t *testing.T) {
	v := dummyvideo.New()
	v.Drivers = []string{`x11`}
	v.FailAuto = true

	assert.Error(t, v.Init(``))
	assert.Error(t, v.Init(`kmsdrm`))
	require.NoError(t, v.Init(`x11`))
	assert.Equal(t, `x11`, v.CurrentDriver())
	assert.True(t, v.Initialized())
	v.Quit()
	assert.False(t, v.Initialized())
	assert.Empty(t, v.CurrentDriver())
}

func TestWindowRequiresInit(t *testing.T) {
	v := dummyvideo.New()
	_, err := v.CreateWindow(`t`, 4, 4, false)
	assert.Error(t, err)
}

func TestRendererTexture(t *testing.T) {
	v := dummyvideo.New()
	require.NoError(t, v.Init(``))
	win, err := v.CreateWindow(`t`, 4, 2, true)
	require.NoError(t, err)
	assert.True(t, v.Fullscreen())
	assert.Equal(t, image.Pt(4, 2), win.Size())

	r, err := win.CreateRenderer(true)
	require.NoError(t, err)
	tex, err := r.CreateTexture(redSurface(t, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Stats().Textures)

	require.NoError(t, r.Clear())
	require.NoError(t, r.Copy(tex))
	r.Present()
	frame := v.Frame()
	// the texture is stretched over the whole window
	assert.Equal(t, color.RGBA{R: 255, A: 255}, frame.RGBAAt(3, 1))
	assert.Equal(t, int64(1), v.Stats().Presents)

	require.NoError(t, tex.Destroy())
	require.NoError(t, tex.Destroy())
	assert.Equal(t, int64(0), v.Stats().Textures)
	require.NoError(t, r.Destroy())
	require.NoError(t, win.Destroy())
	assert.Equal(t, dummyvideo.Stats{Presents: 1}, v.Stats())
}

func TestFailAccelerated(t *testing.T) {
	v := dummyvideo.New()
	v.FailAccelerated = true
	require.NoError(t, v.Init(``))
	win, err := v.CreateWindow(`t`, 2, 2, false)
	require.NoError(t, err)
	_, err = win.CreateRenderer(true)
	assert.Error(t, err)
	r, err := win.CreateRenderer(false)
	require.NoError(t, err)
	assert.NoError(t, r.Destroy())
}

func TestBlitSnapshot(t *testing.T) {
	v := dummyvideo.New()
	v.Snapshot = filepath.Join(t.TempDir(), `frame.png`)
	require.NoError(t, v.Init(``))
	win, err := v.CreateWindow(`t`, 4, 4, false)
	require.NoError(t, err)

	require.NoError(t, win.BlitSurface(redSurface(t, 2, 2)))
	require.NoError(t, win.UpdateSurface())
	frame := v.Frame()
	// unscaled at the origin
	assert.Equal(t, color.RGBA{R: 255, A: 255}, frame.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, frame.RGBAAt(3, 3))

	_, err = os.Stat(v.Snapshot)
	assert.NoError(t, err)
}

func TestPollQuit(t *testing.T) {
	v := dummyvideo.New()
	assert.False(t, v.PollQuit())
	v.RequestQuit()
	assert.True(t, v.PollQuit())
	assert.False(t, v.PollQuit())
}

package encmulti_test

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/kioskimg/internal/encoder/encmulti"
)

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	enc := &encmulti.MultiEncoder{}
	for _, ext := range encmulti.Formats() {
		var buf bytes.Buffer
		assert.NoError(t, enc.Encode(&buf, img, `frame.`+ext), ext)
		assert.NotZero(t, buf.Len(), ext)
	}
	var buf bytes.Buffer
	assert.Error(t, enc.Encode(&buf, img, `frame.xcf`))
	assert.Error(t, enc.Encode(&buf, img, ``))
	assert.Error(t, enc.Encode(&buf, nil, `png`))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), `frame.png`)
	img := image.NewRGBA(image.Rect(0, 0, 5, 4))
	require.NoError(t, (&encmulti.MultiEncoder{}).WriteFile(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Width)
	assert.Equal(t, 4, cfg.Height)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

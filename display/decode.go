package display

import (
	"bufio"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/surface"
)

// decodeFile decodes the image at path into a new RGBA32 surface.
// GIF files yield their first frame.
func decodeFile(path string) (*surface.Surface, string, error) {
	if len(path) == 0 {
		return nil, ``, errors.WithKind(ErrImageDecode, `decode`, errors.New(`empty image path`))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, ``, errors.WithKind(ErrImageDecode, `open `+path, err)
	}
	defer f.Close()
	img, format, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, ``, errors.WithKind(ErrImageDecode, `decode `+path, err)
	}
	s, err := surface.FromImage(img)
	if err != nil {
		return nil, format, errors.WithKind(ErrImageDecode, `convert `+path, err)
	}
	return s, format, nil
}

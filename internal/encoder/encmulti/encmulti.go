// Package encmulti encodes images by file extension.
package encmulti

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/srlehn/kioskimg/internal"
	"github.com/srlehn/kioskimg/internal/errors"
)

var _ internal.ImageEncoder = (*MultiEncoder)(nil)

type MultiEncoder struct{}

// Formats lists the accepted extensions.
func Formats() []string { return []string{`bmp`, `gif`, `jpeg`, `jpg`, `png`, `tiff`} }

func (e *MultiEncoder) Encode(w io.Writer, img image.Image, fileExt string) error {
	if w == nil || img == nil {
		return errors.NilParam()
	}
	// allow passing whole filename
	fileExtParts := strings.Split(fileExt, `.`)
	fileExt = fileExtParts[len(fileExtParts)-1]
	fmtStr := strings.ToLower(strings.TrimPrefix(fileExt, `.`))

	if len(fmtStr) == 0 {
		return errors.New(`no file format specified`)
	}
	var err error
	switch fmtStr {
	case `bmp`:
		err = bmp.Encode(w, img)
	case `gif`:
		err = gif.Encode(w, img, nil)
	case `png`:
		err = png.Encode(w, img)
	case `tiff`, `tif`:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.LZW, Predictor: true})
	case `jpg`, `jpeg`:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	default:
		err = errors.New(`unsupported file format: "` + fmtStr + `"`)
	}
	if err != nil {
		return errors.New(err)
	}
	return nil
}

// WriteFile encodes img into the file at path, choosing the format by extension.
// The file is written next to its destination first and renamed into place.
func (e *MultiEncoder) WriteFile(path string, img image.Image) error {
	if len(path) == 0 || img == nil {
		return errors.NilParam()
	}
	f, err := os.CreateTemp(filepath.Dir(path), `.`+filepath.Base(path)+`.*`)
	if err != nil {
		return errors.New(err)
	}
	tmp := f.Name()
	if err := e.Encode(f, img, filepath.Ext(path)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.New(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.New(err)
	}
	return nil
}

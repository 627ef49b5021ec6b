// Package imageio decodes input images and encodes intermediate PNGs.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// Decode reads a JPEG, PNG or BMP image
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(io.LimitReader(r, constants.MaxImageSize+1))
	if err != nil {
		return nil, "", utils.NewConversionError("failed to decode image", err)
	}
	switch format {
	case "jpeg", "png", "bmp":
		return img, format, nil
	default:
		return nil, format, utils.NewUnsupportedError(fmt.Sprintf("%s: %s", constants.ErrUnsupportedFormat, format), nil)
	}
}

// Load opens and decodes an image file
func Load(path string) (image.Image, error) {
	if !utils.IsImageFile(filepath.Ext(path)) {
		return nil, utils.NewUnsupportedError(fmt.Sprintf("%s: %s", constants.ErrUnsupportedFormat, strings.TrimPrefix(filepath.Ext(path), ".")), nil).
			WithContext("path", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, utils.WrapError(err, "", "failed to stat image").WithContext("path", path)
	}
	if info.Size() > constants.MaxImageSize {
		return nil, utils.NewValidationError(fmt.Sprintf("image exceeds %d bytes", constants.MaxImageSize), nil).
			WithContext("path", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapError(err, "", "failed to open image").WithContext("path", path)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, utils.NewConversionError("failed to encode PNG", err)
	}
	return buf.Bytes(), nil
}

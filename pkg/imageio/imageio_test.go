package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/nodewee/img-to-doc/pkg/utils"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	return img
}

func TestDecodeFormats(t *testing.T) {
	var pngBuf, jpegBuf, bmpBuf bytes.Buffer
	data, err := EncodePNG(sample())
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	pngBuf.Write(data)
	if err := jpeg.Encode(&jpegBuf, sample(), nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	if err := bmp.Encode(&bmpBuf, sample()); err != nil {
		t.Fatalf("bmp.Encode: %v", err)
	}

	for _, tc := range []struct {
		want string
		buf  *bytes.Buffer
	}{
		{"png", &pngBuf},
		{"jpeg", &jpegBuf},
		{"bmp", &bmpBuf},
	} {
		img, format, err := Decode(tc.buf)
		if err != nil {
			t.Fatalf("Decode(%s): %v", tc.want, err)
		}
		if format != tc.want {
			t.Fatalf("format = %q, want %q", format, tc.want)
		}
		if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
			t.Fatalf("%s bounds = %v", tc.want, img.Bounds())
		}
	}
}

func TestDecodeRejectsGIF(t *testing.T) {
	var buf bytes.Buffer
	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	if err := gif.Encode(&buf, pal, nil); err != nil {
		t.Fatalf("gif.Encode: %v", err)
	}
	if _, _, err := Decode(&buf); utils.GetErrorType(err) != utils.ErrorTypeUnsupported {
		t.Fatalf("Decode(gif) error = %v, want unsupported", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	data, err := EncodePNG(sample())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "note.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 6, 4) {
		t.Fatalf("bounds = %v", img.Bounds())
	}

	if _, err := Load(filepath.Join(dir, "note.tiff")); utils.GetErrorType(err) != utils.ErrorTypeUnsupported {
		t.Fatalf("Load(tiff) error = %v, want unsupported", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.png")); utils.GetErrorType(err) != utils.ErrorTypeNotFound {
		t.Fatalf("Load(missing) error = %v, want not_found", err)
	}
}

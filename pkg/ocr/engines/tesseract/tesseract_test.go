package tesseract

import (
	"context"
	"image"
	"image/draw"
	"reflect"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func TestMapLanguages(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{"eng"}},
		{[]string{"en"}, []string{"eng"}},
		{[]string{"EN", " fr ", "en"}, []string{"eng", "fra"}},
		{[]string{"ch", "chinese"}, []string{"chi_sim"}},
		{[]string{"vie"}, []string{"vie"}},
		{[]string{"", " "}, []string{"eng"}},
	}
	for _, tt := range tests {
		if got := MapLanguages(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("MapLanguages(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCapabilities(t *testing.T) {
	if !Capabilities.ReportsConfidence || !Capabilities.ReportsLayout || Capabilities.SupportsGPU {
		t.Fatalf("unexpected capabilities %+v", Capabilities)
	}
}

// renderText draws text with the basic bitmap font and scales it up so
// tesseract has something legible to work with.
func renderText(lines ...string) *image.NRGBA {
	face := basicfont.Face7x13
	img := image.NewNRGBA(image.Rect(0, 0, 200, 20*len(lines)+20))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	for i, line := range lines {
		d.Dot = fixed.P(10, 20+i*20)
		d.DrawString(line)
	}
	return imaging.Resize(img, img.Bounds().Dx()*4, 0, imaging.Lanczos)
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Options{Languages: []string{"en"}}, nil)
	if err != nil {
		t.Skipf("tesseract not usable here: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineRecognize(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	spans, err := e.Recognize(ctx, renderText("HELLO WORLD", "FOO"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	for _, s := range spans {
		if s.Text == "" || !s.Quad.Valid() || s.Layout == nil {
			t.Fatalf("malformed span %+v", s)
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", s.Confidence)
		}
	}

	if _, err := e.DetectRegions(ctx, renderText("HELLO")); err != nil {
		t.Fatalf("DetectRegions: %v", err)
	}

	blank := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
	spans, err = e.Recognize(ctx, blank)
	if err != nil {
		t.Fatalf("Recognize(blank): %v", err)
	}
	if len(spans) != 0 {
		t.Fatalf("blank image produced %d spans", len(spans))
	}
}

func TestEngineHonorsCancelledContext(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recognize(ctx, renderText("X")); err == nil {
		t.Fatal("expected context error")
	}
}

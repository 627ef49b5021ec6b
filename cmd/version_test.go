package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nodewee/img-to-doc/pkg/ocr"
)

func TestWriteVersionListsEngines(t *testing.T) {
	reg := ocr.NewRegistry(nil)
	reg.Register(ocr.Registration{ID: "tesseract", Available: func() bool { return true }})
	reg.Register(ocr.Registration{ID: "surya_ocr", Available: func() bool { return false }})
	reg.Register(ocr.Registration{ID: "handwriting", Available: func() bool { return false }})

	var buf bytes.Buffer
	writeVersion(&buf, reg)
	out := buf.String()

	for _, want := range []string{
		"img-to-doc dev (none)",
		"Engines:     tesseract\n",
		"Unavailable: handwriting, surya_ocr\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteVersionWithoutEngines(t *testing.T) {
	var buf bytes.Buffer
	writeVersion(&buf, ocr.NewRegistry(nil))
	if !strings.Contains(buf.String(), "Engines:     none\n") || strings.Contains(buf.String(), "Unavailable") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

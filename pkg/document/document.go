// Package document renders extracted text into output files.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// ForFormat returns the generator for a format name ("txt" or "html")
func ForFormat(format string) (interfaces.DocumentGenerator, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "txt", "text", "":
		return TextGenerator{}, nil
	case "html", "htm":
		return HTMLGenerator{}, nil
	default:
		return nil, utils.NewUnsupportedError(fmt.Sprintf("unsupported output format: %s", format), nil)
	}
}

// paragraphs returns the request's paragraphs, or its non-empty text lines
func paragraphs(req types.DocumentRequest) []string {
	if len(req.Paragraphs) > 0 {
		return req.Paragraphs
	}
	var out []string
	for _, line := range strings.Split(req.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func confidenceLine(req types.DocumentRequest) string {
	if req.Confidence == nil {
		return ""
	}
	return fmt.Sprintf("OCR confidence: %.1f%%", *req.Confidence*100)
}

// NewRequest builds the generator input for one extraction result. The
// confidence line is omitted when the engine does not report confidence.
func NewRequest(title string, res *types.ExtractionResult) types.DocumentRequest {
	if title == "" {
		title = constants.DefaultDocumentTitle
	}
	req := types.DocumentRequest{
		Title:      title,
		Text:       res.Text,
		Paragraphs: res.Paragraphs,
		Engine:     res.Engine,
		CreatedAt:  time.Now(),
	}
	if res.Confidence.Reported {
		v := res.Confidence.Value
		req.Confidence = &v
	}
	return req
}

// WriteFile renders req with gen into path, creating parent directories
func WriteFile(gen interfaces.DocumentGenerator, path string, req types.DocumentRequest) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePermission)
	if err != nil {
		return utils.NewIOError("failed to create output file", err).WithContext("path", path)
	}
	if err := gen.Generate(f, req); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return utils.NewIOError("failed to close output file", err).WithContext("path", path)
	}
	return nil
}

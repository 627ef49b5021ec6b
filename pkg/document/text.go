package document

import (
	"bufio"
	"io"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// TextGenerator writes a plain text document: title, optional confidence
// line, then one paragraph per block separated by blank lines
type TextGenerator struct{}

func (TextGenerator) Name() string      { return "text" }
func (TextGenerator) Extension() string { return ".txt" }

// Generate implements interfaces.DocumentGenerator
func (TextGenerator) Generate(w io.Writer, req types.DocumentRequest) error {
	bw := bufio.NewWriter(w)
	if req.Title != "" {
		bw.WriteString(req.Title + "\n")
		bw.WriteString(strings.Repeat("=", len([]rune(req.Title))) + "\n")
	}
	if line := confidenceLine(req); line != "" {
		bw.WriteString(line + "\n")
	}
	if req.Title != "" || req.Confidence != nil {
		bw.WriteString("\n")
	}
	if len(req.Paragraphs) > 0 {
		bw.WriteString(strings.Join(req.Paragraphs, "\n\n"))
	} else {
		bw.WriteString(req.Text)
	}
	bw.WriteString("\n")
	if err := bw.Flush(); err != nil {
		return utils.NewIOError("failed to write text document", err)
	}
	return nil
}

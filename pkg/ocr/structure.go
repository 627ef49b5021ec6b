package ocr

import (
	"sort"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/types"
)

// Reconstructor rebuilds reading order and line structure from span geometry.
//
// Spans are visited top to bottom. A span joins the open line when its
// vertical center lies strictly within Tolerance of the line's anchor, the
// center of the line's first span. The anchor never moves, so a slowly
// drifting baseline eventually starts a new line. When both spans carry a
// layout, a change of block or paragraph always starts a new line.
type Reconstructor struct {
	Tolerance float64
}

// NewReconstructor returns a reconstructor with the default line tolerance
func NewReconstructor() *Reconstructor {
	return &Reconstructor{Tolerance: constants.DefaultLineTolerance}
}

// Reconstruct returns the text of all lines joined by newlines
func (r *Reconstructor) Reconstruct(spans []types.Span) string {
	lines := r.Lines(spans)
	if len(lines) == 0 {
		return ""
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text())
	}
	return strings.Join(out, "\n")
}

// Lines groups spans into lines ordered top to bottom, spans left to right
func (r *Reconstructor) Lines(spans []types.Span) []types.Line {
	work := usable(spans)
	if len(work) == 0 {
		return nil
	}

	sort.SliceStable(work, func(i, j int) bool {
		return work[i].Quad.TopLeft().Y < work[j].Quad.TopLeft().Y
	})

	tolerance := r.Tolerance
	if tolerance <= 0 {
		tolerance = constants.DefaultLineTolerance
	}

	var lines []types.Line
	current := types.Line{Spans: []types.Span{work[0]}, AnchorY: work[0].Quad.CenterY()}

	for _, s := range work[1:] {
		center := s.Quad.CenterY()
		if abs(center-current.AnchorY) < tolerance && !paragraphBreak(current.Spans[len(current.Spans)-1], s) {
			current.Spans = append(current.Spans, s)
			continue
		}
		lines = append(lines, current)
		current = types.Line{Spans: []types.Span{s}, AnchorY: center}
	}
	lines = append(lines, current)

	for i := range lines {
		sortByX(lines[i].Spans)
	}
	return lines
}

// Paragraphs groups consecutive lines sharing a block and paragraph number.
// Lines without layout each form their own paragraph.
func (r *Reconstructor) Paragraphs(spans []types.Span) []types.Paragraph {
	var paragraphs []types.Paragraph
	for _, line := range r.Lines(spans) {
		layout := line.Layout()
		if n := len(paragraphs); n > 0 && layout != nil {
			last := &paragraphs[n-1]
			if last.Layout != nil && last.Layout.SameParagraph(*layout) {
				last.Lines = append(last.Lines, line)
				continue
			}
		}
		paragraphs = append(paragraphs, types.Paragraph{Lines: []types.Line{line}, Layout: layout})
	}
	return paragraphs
}

// JoinPlain joins span texts with newlines in the order the engine returned them
func JoinPlain(spans []types.Span) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// usable copies the spans that have text and finite geometry
func usable(spans []types.Span) []types.Span {
	out := make([]types.Span, 0, len(spans))
	for _, s := range spans {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" || !s.Quad.Valid() {
			continue
		}
		out = append(out, s)
	}
	return out
}

func paragraphBreak(prev, next types.Span) bool {
	if prev.Layout == nil || next.Layout == nil {
		return false
	}
	return !prev.Layout.SameParagraph(*next.Layout)
}

func sortByX(spans []types.Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Quad.TopLeft().X < spans[j].Quad.TopLeft().X
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

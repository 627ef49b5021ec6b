package types

import "strings"

// Layout carries page-structure numbers reported by engines that know them
type Layout struct {
	Block     int `json:"block"`
	Paragraph int `json:"paragraph"`
	Line      int `json:"line"`
}

// SameParagraph reports whether both layouts belong to the same block and paragraph
func (l Layout) SameParagraph(other Layout) bool {
	return l.Block == other.Block && l.Paragraph == other.Paragraph
}

// Span is one recognized text fragment. Confidence is in [0,1].
type Span struct {
	Text       string  `json:"text"`
	Quad       Quad    `json:"quad"`
	Confidence float64 `json:"confidence"`
	Layout     *Layout `json:"layout,omitempty"`
}

// Line is a group of spans ordered left to right
type Line struct {
	Spans []Span
	// AnchorY is the center y of the first span assigned to the line.
	AnchorY float64
}

// Text joins the span texts with single spaces
func (l Line) Text() string {
	words := make([]string, 0, len(l.Spans))
	for _, s := range l.Spans {
		words = append(words, s.Text)
	}
	return strings.Join(words, " ")
}

// Layout returns the layout of the first span, if any
func (l Line) Layout() *Layout {
	if len(l.Spans) == 0 {
		return nil
	}
	return l.Spans[0].Layout
}

// Paragraph is a run of consecutive lines sharing one layout key
type Paragraph struct {
	Lines  []Line
	Layout *Layout
}

// Text joins the paragraph's lines into one run of text
func (p Paragraph) Text() string {
	parts := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		parts = append(parts, l.Text())
	}
	return strings.Join(parts, " ")
}

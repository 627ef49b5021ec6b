package engines

import (
	"math"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/types"
)

// NormalizeConfidence divides v by scale and clamps the result to [0,1].
// NaN and infinities become 0.
func NormalizeConfidence(v, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	v /= scale
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// QuadFromPolygon converts a [[x,y] x4] polygon. It reports false when the
// polygon does not have four two-coordinate points.
func QuadFromPolygon(poly [][]float64) (types.Quad, bool) {
	var q types.Quad
	if len(poly) != 4 {
		return q, false
	}
	for i, p := range poly {
		if len(p) < 2 {
			return q, false
		}
		q[i] = types.Point{X: p[0], Y: p[1]}
	}
	return q, true
}

// QuadFromBBox converts an [x0, y0, x1, y1] box
func QuadFromBBox(b []float64) (types.Quad, bool) {
	if len(b) != 4 {
		return types.Quad{}, false
	}
	x0, y0, x1, y1 := b[0], b[1], b[2], b[3]
	return types.Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}, true
}

// SyntheticLineSpacing returns the distance between fabricated line centers
// for a reconstruction tolerance. It is at least twice the tolerance, so no two
// synthetic lines are ever merged.
func SyntheticLineSpacing(tolerance float64) float64 {
	if tolerance <= 0 {
		tolerance = constants.DefaultLineTolerance
	}
	return math.Max(constants.SyntheticLineSpacing, 2*tolerance)
}

// SyntheticLineQuad fabricates geometry for the index-th line of a line-only
// engine, spacing apart from its neighbours.
func SyntheticLineQuad(index int, text string, spacing float64) types.Quad {
	top := float64(index) * spacing
	bottom := top + constants.SyntheticLineHeight
	right := float64(len([]rune(text))) * constants.SyntheticCharWidth
	return types.Quad{{X: 0, Y: top}, {X: right, Y: top}, {X: right, Y: bottom}, {X: 0, Y: bottom}}
}

// LineSpans turns flat text into one span per non-empty line with synthetic
// geometry that reconstruction with the given line tolerance keeps apart
func LineSpans(text string, tolerance float64) []types.Span {
	spacing := SyntheticLineSpacing(tolerance)
	var spans []types.Span
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		spans = append(spans, types.Span{Text: line, Quad: SyntheticLineQuad(len(spans), line, spacing)})
	}
	return spans
}

// NewSpan trims text and rejects spans that end up empty or have unusable geometry
func NewSpan(text string, q types.Quad, confidence float64, layout *types.Layout) (types.Span, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !q.Valid() {
		return types.Span{}, false
	}
	return types.Span{Text: text, Quad: q, Confidence: confidence, Layout: layout}, true
}

package ocr

import (
	"math"

	"github.com/nodewee/img-to-doc/pkg/types"
)

// Score returns the mean span confidence, or 0.0 when there are no spans.
// Non-finite values count as zero so the result is never NaN.
func Score(spans []types.Span) float64 {
	if len(spans) == 0 {
		return 0.0
	}
	var sum float64
	for _, s := range spans {
		if math.IsNaN(s.Confidence) || math.IsInf(s.Confidence, 0) {
			continue
		}
		sum += s.Confidence
	}
	return sum / float64(len(spans))
}

// Aggregate wraps Score with the engine's ability to report confidence.
// Engines that cannot report keep Value at 0.0.
func Aggregate(spans []types.Span, reported bool) types.ConfidenceScore {
	if !reported {
		return types.ConfidenceScore{Value: 0.0, Reported: false}
	}
	return types.ConfidenceScore{Value: Score(spans), Reported: true}
}

package types

import "time"

// ConfidenceScore separates "engine reported 0" from "engine cannot report".
// Value stays 0.0 when Reported is false.
type ConfidenceScore struct {
	Value    float64 `json:"value"`
	Reported bool    `json:"reported"`
}

// ExtractionResult holds the result of one image extraction
type ExtractionResult struct {
	Text             string          `json:"text"`
	Paragraphs       []string        `json:"paragraphs,omitempty"`
	Confidence       ConfidenceScore `json:"confidence"`
	Engine           EngineID        `json:"engine"`
	SpanCount        int             `json:"span_count"`
	Duration         time.Duration   `json:"duration"`
	FallbackUsed     bool            `json:"fallback_used,omitempty"`
	AttemptedEngines []EngineID      `json:"attempted_engines,omitempty"`
	Warnings         []string        `json:"warnings,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// DocumentRequest is what document generators consume
type DocumentRequest struct {
	Title      string
	Text       string
	Paragraphs []string
	// Confidence is nil when the engine does not report one.
	Confidence *float64
	Engine     EngineID
	CreatedAt  time.Time
}

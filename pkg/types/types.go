package types

import "strings"

// EngineID identifies an OCR backend
type EngineID string

const (
	EngineTesseract   EngineID = "tesseract"
	EngineSuryaOCR    EngineID = "surya_ocr"
	EngineLLMCaller   EngineID = "llm-caller"
	EngineHandwriting EngineID = "handwriting"
)

// ParseEngineID normalizes user input such as "Surya-OCR" or "LLM_CALLER"
func ParseEngineID(s string) EngineID {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "surya", "surya-ocr", "surya_ocr":
		return EngineSuryaOCR
	case "llm", "llm-caller", "llm_caller":
		return EngineLLMCaller
	case "trocr", "handwriting", "handwritten":
		return EngineHandwriting
	case "tess", "tesseract":
		return EngineTesseract
	default:
		return EngineID(s)
	}
}

// EngineKind groups engines by the shape of output they produce
type EngineKind string

const (
	// KindDetectRecognize engines return text, geometry and confidence per span.
	KindDetectRecognize EngineKind = "detect-recognize"
	// KindLineText engines return flat, ordered lines without geometry.
	KindLineText EngineKind = "line-text"
	// KindDetectHandwriting engines pair a region detector with a handwriting recognizer.
	KindDetectHandwriting EngineKind = "detect-handwriting"
)

// EngineCapabilities is resolved once per engine and never changes afterwards
type EngineCapabilities struct {
	Kind              EngineKind `json:"kind"`
	ReportsConfidence bool       `json:"reports_confidence"`
	ReportsLayout     bool       `json:"reports_layout"`
	SupportsGPU       bool       `json:"supports_gpu"`
}

// SessionOptions are the parameters an engine session is initialized with
type SessionOptions struct {
	Engine    EngineID
	Languages []string
	GPU       bool
}

// Equal reports whether two option sets would load the same engine session
func (o SessionOptions) Equal(other SessionOptions) bool {
	if o.Engine != other.Engine || o.GPU != other.GPU || len(o.Languages) != len(other.Languages) {
		return false
	}
	for i := range o.Languages {
		if o.Languages[i] != other.Languages[i] {
			return false
		}
	}
	return true
}

package constants

import "time"

// Application constants
const (
	AppName = "img-to-doc"
)

// File processing constants
const (
	DefaultFilePermission = 0644
	DefaultDirPermission  = 0755

	DefaultTextFileExtension = ".txt"
	DefaultDocumentTitle     = "Extracted Text"
	ReportFileName           = "img-to-doc-report.xlsx"
)

// Retry, timeout and concurrency settings
const (
	DefaultOCRRetries      = 2
	DefaultRetryDelay      = 500 * time.Millisecond
	DefaultTimeoutDuration = 30 * time.Minute
	DefaultWorkerPoolSize  = 2
	MaxWorkerPoolSize      = 16

	// DefaultRecognizerRPS bounds requests per second to the handwriting model server.
	DefaultRecognizerRPS         = 8.0
	DefaultRecognizerConcurrency = 4
	DefaultRecognizerTimeout     = 60 * time.Second
)

// Image limits
const (
	MaxImageSize = 50 * 1024 * 1024 // 50MB
)

// Preprocessing factors
const (
	ContrastFactor  = 1.5
	SharpnessFactor = 1.3

	BlurSigma          = 1.0
	AdaptiveBlockSize  = 11
	AdaptiveConstant   = 2
	MedianFilterRadius = 1
)

// Structure reconstruction
const (
	// DefaultLineTolerance is the vertical distance in pixels below which two
	// span centers belong to the same line.
	DefaultLineTolerance = 20.0

	// SyntheticLineSpacing is the minimum distance between the fabricated
	// quads of line-only engines. Larger tolerances widen it.
	SyntheticLineSpacing = 40.0
	SyntheticLineHeight  = 20.0
	SyntheticCharWidth   = 10.0
)

// Subprocess engines
const (
	SuryaOCRCommand      = "surya_ocr"
	SuryaResultsFile     = "results.json"
	LLMCallerCommand     = "llm-caller"
	DefaultLLMTemplate   = "extract-text-from-image"
	DefaultTesseractLang = "eng"
)

// Error messages
const (
	ErrUnsupportedFormat = "unsupported image format"
	ErrOCRFailed         = "OCR processing failed"
	ErrNoTextFound       = "no text content found"
)

// ImageExtensions lists the input formats the decoder accepts
var ImageExtensions = []string{"jpg", "jpeg", "png", "bmp"}

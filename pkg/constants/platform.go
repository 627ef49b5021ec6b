package constants

import (
	"runtime"
)

// PlatformConfig lists where external recognizers are usually installed
type PlatformConfig struct {
	SuryaOCRPaths  []string
	LLMCallerPaths []string
	TessdataDirs   []string
	TempDirPrefix  string
}

// GetPlatformConfig returns platform-specific configuration
func GetPlatformConfig() *PlatformConfig {
	switch runtime.GOOS {
	case "windows":
		return &PlatformConfig{
			SuryaOCRPaths:  []string{"surya_ocr.exe"},
			LLMCallerPaths: []string{"llm-caller.exe"},
			TessdataDirs: []string{
				"C:\\Program Files\\Tesseract-OCR\\tessdata",
				"C:\\Program Files (x86)\\Tesseract-OCR\\tessdata",
			},
			TempDirPrefix: "img-to-doc-",
		}
	case "darwin":
		return &PlatformConfig{
			SuryaOCRPaths:  []string{"surya_ocr", "/opt/homebrew/bin/surya_ocr", "/usr/local/bin/surya_ocr"},
			LLMCallerPaths: []string{"llm-caller", "/opt/homebrew/bin/llm-caller", "/usr/local/bin/llm-caller"},
			TessdataDirs: []string{
				"/opt/homebrew/share/tessdata",
				"/usr/local/share/tessdata",
			},
			TempDirPrefix: "img-to-doc-",
		}
	default:
		return &PlatformConfig{
			SuryaOCRPaths:  []string{"surya_ocr", "/usr/local/bin/surya_ocr", "/usr/bin/surya_ocr"},
			LLMCallerPaths: []string{"llm-caller", "/usr/local/bin/llm-caller", "/usr/bin/llm-caller"},
			TessdataDirs: []string{
				"/usr/share/tesseract-ocr/5/tessdata",
				"/usr/share/tesseract-ocr/4.00/tessdata",
				"/usr/share/tessdata",
				"/usr/local/share/tessdata",
			},
			TempDirPrefix: "img-to-doc-",
		}
	}
}

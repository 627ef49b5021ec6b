package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/types"
)

// Default values
const (
	DefaultLogLevel          = "info"
	DefaultTimeoutMinutes    = 30
	DefaultMaxConcurrency    = constants.DefaultWorkerPoolSize
	DefaultEnableVerbose     = false
	DefaultEngine            = types.EngineTesseract
	DefaultFallbackEngine    = types.EngineTesseract
	DefaultOutputFormat      = "txt"
	DefaultPreserveStructure = true

	DefaultLLMCallerPath = constants.LLMCallerCommand
	DefaultSuryaOCRPath  = constants.SuryaOCRCommand
)

// DefaultLanguages is used when no language is configured
var DefaultLanguages = []string{"en"}

// Config holds application configuration
type Config struct {
	// External tool locations, persisted to the config file
	LLMCallerPath  string `json:"llm_caller_path"`
	LLMModel       string `json:"llm_model"`
	SuryaOCRPath   string `json:"surya_ocr_path"`
	TessdataPrefix string `json:"tessdata_prefix"`
	HandwritingURL string `json:"handwriting_url"`

	// Runtime settings (not persisted to file)
	Engine                types.EngineID `json:"-"`
	Languages             []string       `json:"-"`
	UseGPU                bool           `json:"-"`
	AdvancedPreprocess    bool           `json:"-"`
	PreserveStructure     bool           `json:"-"`
	EnableFallback        bool           `json:"-"`
	FallbackEngine        types.EngineID `json:"-"`
	LLMTemplate           string         `json:"-"`
	OutputFormat          string         `json:"-"`
	LineTolerance         float64        `json:"-"`
	MaxConcurrency        int            `json:"-"`
	MaxRetries            int            `json:"-"`
	TimeoutMinutes        int            `json:"-"`
	RecognizerRPS         float64        `json:"-"`
	RecognizerConcurrency int            `json:"-"`
	LogLevel              string         `json:"-"`
	EnableVerbose         bool           `json:"-"`
}

// NewDefaultConfig returns a configuration with built-in defaults and no tool paths
func NewDefaultConfig() *Config {
	return &Config{
		Engine:                DefaultEngine,
		Languages:             append([]string(nil), DefaultLanguages...),
		PreserveStructure:     DefaultPreserveStructure,
		FallbackEngine:        DefaultFallbackEngine,
		LLMTemplate:           constants.DefaultLLMTemplate,
		OutputFormat:          DefaultOutputFormat,
		LineTolerance:         constants.DefaultLineTolerance,
		MaxConcurrency:        DefaultMaxConcurrency,
		MaxRetries:            constants.DefaultOCRRetries,
		TimeoutMinutes:        DefaultTimeoutMinutes,
		RecognizerRPS:         constants.DefaultRecognizerRPS,
		RecognizerConcurrency: constants.DefaultRecognizerConcurrency,
		LogLevel:              DefaultLogLevel,
		EnableVerbose:         DefaultEnableVerbose,
	}
}

// DefaultConfig returns the configuration loaded from the config file,
// falling back to built-in defaults when the file cannot be read
func DefaultConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config file, using basic defaults: %v\n", err)
		return NewDefaultConfig()
	}
	return config
}

// LoadConfigWithEnvOverrides loads .env files, the config file, then applies
// environment variable overrides
func LoadConfigWithEnvOverrides() *Config {
	_ = LoadDotEnv()
	config := DefaultConfig()
	ApplyEnvOverrides(config, os.Getenv)
	return config
}

// ApplyEnvOverrides overrides config values from environment variables read through getenv
func ApplyEnvOverrides(config *Config, getenv func(string) string) {
	// Tool paths
	if value := getenv("LLM_CALLER_PATH"); value != "" {
		config.LLMCallerPath = value
	}
	if value := getenv("SURYA_OCR_PATH"); value != "" {
		config.SuryaOCRPath = value
	}
	if value := getenv("IMG2DOC_TESSDATA_PREFIX"); value != "" {
		config.TessdataPrefix = value
	}
	if value := getenv("IMG2DOC_HANDWRITING_URL"); value != "" {
		config.HandwritingURL = value
	}
	if value := getenv("IMG2DOC_LLM_MODEL"); value != "" {
		config.LLMModel = value
	}

	// Runtime settings
	if value := getenv("IMG2DOC_ENGINE"); value != "" {
		config.Engine = types.ParseEngineID(value)
	}
	if value := getenv("IMG2DOC_LANGUAGES"); value != "" {
		config.Languages = ParseLanguages(value)
	}
	if value := getenv("IMG2DOC_GPU"); value != "" {
		config.UseGPU = parseBool(value)
	}
	if value := getenv("IMG2DOC_ADVANCED"); value != "" {
		config.AdvancedPreprocess = parseBool(value)
	}
	if value := getenv("IMG2DOC_STRUCTURE"); value != "" {
		config.PreserveStructure = parseBool(value)
	}
	if value := getenv("IMG2DOC_FALLBACK"); value != "" {
		config.EnableFallback = parseBool(value)
	}
	if value := getenv("IMG2DOC_FALLBACK_ENGINE"); value != "" {
		config.FallbackEngine = types.ParseEngineID(value)
	}
	if value := getenv("IMG2DOC_LLM_TEMPLATE"); value != "" {
		config.LLMTemplate = value
	}
	if value := getenv("IMG2DOC_FORMAT"); value != "" {
		config.OutputFormat = strings.ToLower(value)
	}
	if value := getenv("IMG2DOC_LINE_TOLERANCE"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			config.LineTolerance = f
		}
	}
	if value := getenv("IMG2DOC_MAX_CONCURRENCY"); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			config.MaxConcurrency = intVal
		}
	}
	if value := getenv("IMG2DOC_MAX_RETRIES"); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			config.MaxRetries = intVal
		}
	}
	if value := getenv("IMG2DOC_TIMEOUT_MINUTES"); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			config.TimeoutMinutes = intVal
		}
	}
	if value := getenv("IMG2DOC_RECOGNIZER_RPS"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			config.RecognizerRPS = f
		}
	}
	if value := getenv("IMG2DOC_LOG_LEVEL"); value != "" {
		config.LogLevel = value
	}
	if value := getenv("IMG2DOC_VERBOSE"); value != "" {
		config.EnableVerbose = parseBool(value)
	}
}

// ParseLanguages splits a comma or plus separated language list
func ParseLanguages(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '+' || r == ' ' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// SessionOptions returns the engine session parameters of the configuration
func (c *Config) SessionOptions() types.SessionOptions {
	langs := c.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	return types.SessionOptions{
		Engine:    c.Engine,
		Languages: append([]string(nil), langs...),
		GPU:       c.UseGPU,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return NewConfigValidator().Validate(c)
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.Languages = append([]string(nil), c.Languages...)
	return &clone
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Engine: %s, Languages: %v, GPU: %v, LogLevel: %s, Verbose: %v}",
		c.Engine, c.Languages, c.UseGPU, c.LogLevel, c.EnableVerbose)
}

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// ConfigValidator validates a Config
type ConfigValidator struct{}

// NewConfigValidator creates a config validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

var validEngines = []types.EngineID{
	types.EngineTesseract,
	types.EngineSuryaOCR,
	types.EngineLLMCaller,
	types.EngineHandwriting,
}

var validFormats = []string{"txt", "html"}

// Validate collects every problem and reports them as one validation error
func (v *ConfigValidator) Validate(c *Config) error {
	var problems []string

	if err := v.validateEngine("engine", c.Engine, true); err != nil {
		problems = append(problems, err.Error())
	}
	if c.EnableFallback {
		if err := v.validateEngine("fallback engine", c.FallbackEngine, false); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if err := v.validateFormat(c.OutputFormat); err != nil {
		problems = append(problems, err.Error())
	}
	if err := v.validateNumericValues(c); err != nil {
		problems = append(problems, err.Error())
	}
	if err := v.validateLogLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.HandwritingURL != "" {
		if u, err := url.Parse(c.HandwritingURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid handwriting URL: %s", c.HandwritingURL))
		}
	}

	if len(problems) > 0 {
		return utils.NewValidationError("configuration validation failed",
			fmt.Errorf("validation errors: %s", strings.Join(problems, "; ")))
	}
	return nil
}

func (v *ConfigValidator) validateEngine(label string, id types.EngineID, allowAuto bool) error {
	if allowAuto && id == "auto" {
		return nil
	}
	for _, valid := range validEngines {
		if id == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s", label, id)
}

func (v *ConfigValidator) validateFormat(format string) error {
	for _, valid := range validFormats {
		if strings.ToLower(format) == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid output format: %s", format)
}

func (v *ConfigValidator) validateNumericValues(c *Config) error {
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1")
	}
	if c.MaxConcurrency > constants.MaxWorkerPoolSize {
		return fmt.Errorf("max concurrency should not exceed %d", constants.MaxWorkerPoolSize)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.TimeoutMinutes < 1 {
		return fmt.Errorf("timeout must be at least 1 minute")
	}
	if c.LineTolerance <= 0 {
		return fmt.Errorf("line tolerance must be positive")
	}
	if c.RecognizerRPS < 0 {
		return fmt.Errorf("recognizer rate must be non-negative")
	}
	return nil
}

func (v *ConfigValidator) validateLogLevel(level string) error {
	for _, valid := range []string{"debug", "info", "warn", "error"} {
		if strings.ToLower(level) == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s", level)
}

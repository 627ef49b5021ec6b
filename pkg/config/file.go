package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

const (
	ConfigFileName = "config.json"
	AppDirName     = ".img-to-doc"
)

// ConfigFile represents the JSON configuration file structure
type ConfigFile struct {
	LLMCallerPath  string `json:"llm_caller_path"`
	LLMModel       string `json:"llm_model"`
	SuryaOCRPath   string `json:"surya_ocr_path"`
	TessdataPrefix string `json:"tessdata_prefix"`
	HandwritingURL string `json:"handwriting_url"`
}

// configKeys maps file keys to accessors on ConfigFile
var configKeys = map[string]func(cf *ConfigFile) *string{
	"llm_caller_path": func(cf *ConfigFile) *string { return &cf.LLMCallerPath },
	"llm_model":       func(cf *ConfigFile) *string { return &cf.LLMModel },
	"surya_ocr_path":  func(cf *ConfigFile) *string { return &cf.SuryaOCRPath },
	"tessdata_prefix": func(cf *ConfigFile) *string { return &cf.TessdataPrefix },
	"handwriting_url": func(cf *ConfigFile) *string { return &cf.HandwritingURL },
}

// GetConfigDir returns the user configuration directory (~/.img-to-doc)
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeIO, "failed to get user home directory")
	}
	return filepath.Join(homeDir, AppDirName), nil
}

// GetConfigFilePath returns the full path to the configuration file
func GetConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig loads configuration from the user config file, creating it on first run
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to get config file path")
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom loads configuration from configPath, creating a default file
// with auto-detected tool locations when it does not exist
func LoadConfigFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfigFile(configPath)
	}
	return loadConfigFromFile(configPath)
}

func createDefaultConfigFile(configPath string) (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), constants.DefaultDirPermission); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to create config directory")
	}

	configFile := &ConfigFile{}
	detectToolPaths(configFile)

	if err := saveConfigFile(configPath, configFile); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to save default config file")
	}

	fmt.Fprintf(os.Stderr, "✅ Created default configuration file: %s\n", configPath)
	if hasDetectedTools(configFile) {
		fmt.Fprintf(os.Stderr, "🔍 Auto-detected available tools\n")
	}
	return configFileToConfig(configFile), nil
}

func loadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to read config file")
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeConversion, "failed to parse config file")
	}
	return configFileToConfig(&configFile), nil
}

// SaveConfig saves the persisted part of config to the user config file
func SaveConfig(config *Config) error {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return err
	}
	return SaveConfigTo(configPath, config)
}

// SaveConfigTo saves the persisted part of config to configPath
func SaveConfigTo(configPath string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), constants.DefaultDirPermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to create config directory")
	}
	return saveConfigFile(configPath, configToConfigFile(config))
}

func saveConfigFile(configPath string, configFile *ConfigFile) error {
	data, err := json.MarshalIndent(configFile, "", "  ")
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeConversion, "failed to marshal config")
	}
	if err := os.WriteFile(configPath, data, constants.DefaultFilePermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to write config file")
	}
	return nil
}

// detectToolPaths fills empty tool locations from PATH and the usual install directories
func detectToolPaths(configFile *ConfigFile) {
	platform := constants.GetPlatformConfig()
	if configFile.SuryaOCRPath == "" {
		configFile.SuryaOCRPath = resolveCommand(platform.SuryaOCRPaths)
	}
	if configFile.LLMCallerPath == "" {
		configFile.LLMCallerPath = resolveCommand(platform.LLMCallerPaths)
	}
	if configFile.TessdataPrefix == "" && os.Getenv("TESSDATA_PREFIX") == "" {
		configFile.TessdataPrefix = utils.FirstExistingDir(platform.TessdataDirs)
	}
}

func resolveCommand(candidates []string) string {
	found := utils.FirstAvailableCommand(candidates)
	if found == "" {
		return ""
	}
	if resolved, err := exec.LookPath(found); err == nil {
		return utils.NormalizePath(resolved)
	}
	return found
}

func hasDetectedTools(configFile *ConfigFile) bool {
	return configFile.LLMCallerPath != "" ||
		configFile.SuryaOCRPath != "" ||
		configFile.TessdataPrefix != ""
}

func configFileToConfig(cf *ConfigFile) *Config {
	c := NewDefaultConfig()
	c.LLMCallerPath = cf.LLMCallerPath
	c.LLMModel = cf.LLMModel
	c.SuryaOCRPath = cf.SuryaOCRPath
	c.TessdataPrefix = cf.TessdataPrefix
	c.HandwritingURL = cf.HandwritingURL
	return c
}

func configToConfigFile(c *Config) *ConfigFile {
	return &ConfigFile{
		LLMCallerPath:  c.LLMCallerPath,
		LLMModel:       c.LLMModel,
		SuryaOCRPath:   c.SuryaOCRPath,
		TessdataPrefix: c.TessdataPrefix,
		HandwritingURL: c.HandwritingURL,
	}
}

// GetConfigValue gets a persisted configuration value by key
func GetConfigValue(config *Config, key string) (string, error) {
	accessor, ok := configKeys[key]
	if !ok {
		return "", utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}
	return *accessor(configToConfigFile(config)), nil
}

// SetConfigValue sets a persisted configuration value by key
func SetConfigValue(config *Config, key, value string) error {
	accessor, ok := configKeys[key]
	if !ok {
		return utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}
	cf := configToConfigFile(config)
	*accessor(cf) = value
	updated := configFileToConfig(cf)
	config.LLMCallerPath = updated.LLMCallerPath
	config.LLMModel = updated.LLMModel
	config.SuryaOCRPath = updated.SuryaOCRPath
	config.TessdataPrefix = updated.TessdataPrefix
	config.HandwritingURL = updated.HandwritingURL
	return nil
}

// ListConfigKeys returns all persisted configuration keys, sorted
func ListConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodewee/img-to-doc/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tool path configuration",
	Long: `Manage persisted settings: external tool paths, the llm-caller model,
the tessdata directory and the handwriting recognizer URL.

Configuration is stored in ~/.img-to-doc/config.json. Tool paths are detected
on first run. Runtime settings (engine, languages, GPU, fallback) come from
flags, a .env file or IMG2DOC_* environment variables.

Examples:
  img-to-doc config list                                   # List all settings
  img-to-doc config get surya_ocr_path                     # Get the Surya OCR path
  img-to-doc config set tessdata_prefix /usr/share/tessdata  # Set the tessdata directory
  img-to-doc config set handwriting_url http://localhost:8700  # Enable the handwriting engine`,
}

// listConfig lists all persisted configuration settings
func listConfig() error {
	fmt.Println("🛠️  Configuration")
	fmt.Println("=================")

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	configPath, _ := config.GetConfigFilePath()
	fmt.Printf("📁 Config file: %s\n\n", configPath)

	for _, key := range config.ListConfigKeys() {
		value, _ := config.GetConfigValue(cfg, key)
		fmt.Printf("  %-18s = %s\n", key, getDisplayValue(value))
	}

	fmt.Println("\n💡 Tip: Use 'img-to-doc config set <key> <value>' to change a setting")
	fmt.Println("💡 Note: Engine, languages and other options are runtime-only")
	return nil
}

// getConfig prints one configuration value
func getConfig(key string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	value, err := config.GetConfigValue(cfg, key)
	if err != nil {
		return err
	}
	fmt.Printf("📝 %s = %s\n", key, getDisplayValue(value))
	return nil
}

// setConfig updates one configuration value and saves the file
func setConfig(key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := config.SetConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("✅ Successfully set %s = %s\n", key, value)
	return nil
}

// getDisplayValue returns a display-friendly value for empty strings
func getDisplayValue(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listConfig()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getConfig(args[0])
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConfig(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodewee/img-to-doc/pkg/config"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines/builtin"
	"github.com/nodewee/img-to-doc/pkg/types"
)

// enginesCmd lists the registered OCR engines
var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List OCR engines and whether they are available",
	Long: `List every OCR engine img-to-doc knows about, whether it can run on this
system, and what it reports (geometry kind, confidence, layout, GPU support).

Availability is checked the same way conversion does: tesseract is linked in,
surya_ocr and llm-caller must resolve on PATH or at the configured path, and
handwriting needs a recognizer server URL.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listEngines()
	},
}

func listEngines() {
	cfg := config.LoadConfigWithEnvOverrides()
	reg := builtin.NewRegistry(cfg, logger.NewLogger(cfg.LogLevel, false))

	fmt.Println("🔍 OCR Engines")
	fmt.Println("==============")
	for _, info := range reg.List() {
		status := "❌ not available"
		if info.Available {
			status = "✅ available"
		}
		fmt.Printf("\n%s  %s\n", info.ID, status)
		fmt.Printf("  %s\n", info.Description)
		fmt.Printf("  kind: %s, confidence: %s, layout: %s, gpu: %s\n",
			info.Capabilities.Kind,
			yesNo(info.Capabilities.ReportsConfidence),
			yesNo(info.Capabilities.ReportsLayout),
			yesNo(info.Capabilities.SupportsGPU))
	}

	if auto, err := reg.SelectEngine("auto", preferredEngines...); err == nil {
		fmt.Printf("\n💡 --engine auto selects: %s\n", auto)
	} else {
		fmt.Printf("\n⚠️  No engine is available: %v\n", err)
	}
	if cfg.HandwritingURL == "" {
		fmt.Printf("💡 Set %s or 'config set handwriting_url' to enable %s\n",
			"IMG2DOC_HANDWRITING_URL", types.EngineHandwriting)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}

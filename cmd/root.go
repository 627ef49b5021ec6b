package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodewee/img-to-doc/pkg/config"
	"github.com/nodewee/img-to-doc/pkg/document"
	"github.com/nodewee/img-to-doc/pkg/imageio"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines/builtin"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

var (
	outputPath     string
	engineName     string
	languages      string
	useGPU         bool
	advanced       bool
	plainText      bool
	enableFallback bool
	fallbackEngine string
	outputFormat   string
	llmTemplate    string
	lineTolerance  float64
	logLevel       string
	verbose        bool
	showVersion    bool
)

// AppHandler encapsulates application main processing logic
type AppHandler struct {
	config    *config.Config
	logger    *logger.Logger
	registry  *ocr.Registry
	processor *ocr.FallbackProcessor
}

// NewAppHandler creates an application handler
func NewAppHandler() *AppHandler {
	return &AppHandler{}
}

// ProcessFile converts one image into a document
func (h *AppHandler) ProcessFile(cmd *cobra.Command, inputFile string) error {
	if err := h.initialize(cmd); err != nil {
		return err
	}
	defer h.close()

	result, output, err := h.processFile(inputFile)
	if err != nil {
		return err
	}

	h.displayResults(result, output)
	return nil
}

// initialize loads configuration, applies flags and builds the processor
func (h *AppHandler) initialize(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	h.config = cfg
	h.logger = logger.NewLogger(cfg.LogLevel, cfg.EnableVerbose)
	h.registry = builtin.NewRegistry(cfg, h.logger)

	engine, err := h.registry.SelectEngine(cfg.Engine, preferredEngines...)
	if err != nil {
		return err
	}
	cfg.Engine = engine

	primary := ocr.NewProcessor(h.registry, builtin.ProcessorOptions(cfg, h.logger)...)
	h.processor = ocr.NewFallbackProcessor(primary, builtin.FallbackPolicy(cfg), h.logger)
	return nil
}

// loadConfig layers flags over file, .env and environment configuration
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.LoadConfigWithEnvOverrides()
	applyCommandLineOverrides(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeValidation, "configuration validation failed")
	}
	config.ApplyProcessEnvironment(cfg)
	return cfg, nil
}

// applyCommandLineOverrides applies flags the user actually set
func applyCommandLineOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine = types.ParseEngineID(engineName)
	}
	if flags.Changed("lang") {
		cfg.Languages = config.ParseLanguages(languages)
	}
	if flags.Changed("gpu") {
		cfg.UseGPU = useGPU
	}
	if flags.Changed("advanced") {
		cfg.AdvancedPreprocess = advanced
	}
	if flags.Changed("plain") {
		cfg.PreserveStructure = !plainText
	}
	if flags.Changed("fallback") {
		cfg.EnableFallback = enableFallback
	}
	if flags.Changed("fallback-engine") {
		cfg.FallbackEngine = types.ParseEngineID(fallbackEngine)
		cfg.EnableFallback = true
	}
	if flags.Changed("format") {
		cfg.OutputFormat = outputFormat
	}
	if flags.Changed("llm-template") {
		cfg.LLMTemplate = llmTemplate
	}
	if flags.Changed("line-tolerance") {
		cfg.LineTolerance = lineTolerance
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.EnableVerbose = true
	}
}

// processFile runs OCR on inputFile and writes the document
func (h *AppHandler) processFile(inputFile string) (*types.ExtractionResult, string, error) {
	absPath, err := filepath.Abs(inputFile)
	if err != nil {
		return nil, "", utils.WrapError(err, utils.ErrorTypeValidation, "error resolving file path")
	}

	gen, err := document.ForFormat(h.config.OutputFormat)
	if err != nil {
		return nil, "", err
	}
	output, err := h.determineOutputPath(absPath, gen.Extension())
	if err != nil {
		return nil, "", err
	}

	img, err := imageio.Load(absPath)
	if err != nil {
		return nil, "", err
	}
	h.logger.Progress("🖼️", "Loaded %s (%dx%d)", filepath.Base(absPath), img.Bounds().Dx(), img.Bounds().Dy())

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(h.config.TimeoutMinutes)*time.Minute)
	defer cancel()

	result, err := h.processor.Process(ctx, img, ocr.ProcessOptions{
		AdvancedPreprocess: h.config.AdvancedPreprocess,
		PreserveStructure:  h.config.PreserveStructure,
	})
	if err != nil {
		return result, "", err
	}
	if strings.TrimSpace(result.Text) == "" {
		h.logger.Warn("No text found in %s", filepath.Base(absPath))
	}

	req := document.NewRequest(filepath.Base(absPath), result)
	if err := document.WriteFile(gen, output, req); err != nil {
		return result, "", err
	}
	return result, output, nil
}

// determineOutputPath uses -o when given, otherwise the input path with the format's extension
func (h *AppHandler) determineOutputPath(inputPath, ext string) (string, error) {
	if outputPath != "" {
		return filepath.Abs(outputPath)
	}
	return filepath.Join(filepath.Dir(inputPath), utils.ReplaceExt(inputPath, ext)), nil
}

// displayResults displays processing results
func (h *AppHandler) displayResults(result *types.ExtractionResult, output string) {
	fmt.Printf("✅ Text extracted successfully\n")
	fmt.Printf("📊 Engine used: %s\n", result.Engine)
	fmt.Printf("⏱️  Processing time: %dms\n", result.Duration.Milliseconds())
	if result.Confidence.Reported {
		fmt.Printf("🎯 Confidence: %.1f%%\n", result.Confidence.Value*100)
	} else {
		fmt.Printf("🎯 Confidence: not reported by %s\n", result.Engine)
	}

	if result.FallbackUsed {
		fmt.Printf("⚠️  Fallback engine was used\n")
		fmt.Printf("🔄 Attempted engines: %v\n", result.AttemptedEngines)
	}

	fmt.Printf("📝 Extracted %d characters, %d words, %d lines\n",
		len([]rune(result.Text)), len(strings.Fields(result.Text)), countLines(result.Text))
	fmt.Printf("📁 Output: %s\n", output)
	showTextPreview(result.Text)
}

func (h *AppHandler) close() {
	if h.processor == nil {
		return
	}
	if err := h.processor.Close(); err != nil {
		h.logger.Warn("Failed to release OCR engine: %v", err)
	}
}

func countLines(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return strings.Count(strings.TrimRight(text, "\n"), "\n") + 1
}

// showTextPreview displays the first part of long texts
func showTextPreview(text string) {
	runes := []rune(text)
	if len(runes) <= 200 {
		return
	}
	preview := string(runes[:200])
	if lastNewline := strings.LastIndex(preview, "\n"); lastNewline > 0 {
		preview = preview[:lastNewline]
	}
	fmt.Printf("📄 Preview:---\n%s...\n---\n", preview)
}

// preferredEngines is the auto-selection order
var preferredEngines = []types.EngineID{
	types.EngineTesseract,
	types.EngineSuryaOCR,
	types.EngineLLMCaller,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "img-to-doc [image]",
	Short: "Extract text from images into text or HTML documents",
	Long: `img-to-doc extracts text from JPEG, PNG and BMP images with a choice of OCR engines
and writes it to a text or HTML document.

Engines:
- tesseract:   in-process Tesseract, word geometry, layout and confidence (default)
- surya_ocr:   Surya OCR command line tool, line geometry and confidence, GPU capable
- llm-caller:  vision language model through llm-caller, plain lines, no confidence
- handwriting: line detection plus a handwriting recognizer server (IMG2DOC_HANDWRITING_URL)
- auto:        first available of tesseract, surya_ocr, llm-caller

Examples:
  img-to-doc scan.png                                  # Extract with tesseract to scan.txt
  img-to-doc scan.png --engine surya_ocr --gpu         # Use Surya OCR on the GPU
  img-to-doc scan.jpg --lang en,fr --advanced          # Two languages with binarization and denoising
  img-to-doc scan.png --format html -o out/scan.html   # Write an HTML document
  img-to-doc note.jpg --engine handwriting --fallback  # Fall back to tesseract if the server fails
  img-to-doc batch ./scans -o ./out                    # Convert a folder and write an XLSX report
  img-to-doc engines                                   # List engines available on this system`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("img-to-doc %s\n", version)
			return nil
		}
		if len(args) == 0 {
			return cmd.Help()
		}
		return NewAppHandler().ProcessFile(cmd, args[0])
	},
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints AppErrors with their type, as the user sees it
func reportError(err error) {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(os.Stderr, "❌ Error (%s): %s\n", appErr.Type, appErr.Message)
		if appErr.Type == utils.ErrorTypeUnavailable {
			fmt.Fprintln(os.Stderr, "💡 Tip: run 'img-to-doc engines' to see which engines are installed")
		}
		return
	}
	fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
}

// addOCRFlags registers the flags shared by the root and batch commands
func addOCRFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&engineName, "engine", "e", "",
		"OCR engine (tesseract, surya_ocr, llm-caller, handwriting, auto)")
	f.StringVarP(&languages, "lang", "l", "", "Comma separated language codes (default: en)")
	f.BoolVar(&useGPU, "gpu", false, "Prefer the GPU when the engine supports it")
	f.BoolVar(&advanced, "advanced", false, "Binarize and denoise before recognition")
	f.BoolVar(&plainText, "plain", false, "Join recognized lines in engine order instead of rebuilding layout")
	f.BoolVar(&enableFallback, "fallback", false, "Retry with the fallback engine when the chosen engine fails")
	f.StringVar(&fallbackEngine, "fallback-engine", "", "Fallback engine (default: tesseract); implies --fallback")
	f.StringVarP(&outputFormat, "format", "f", "", "Output format (txt, html)")
	f.StringVar(&llmTemplate, "llm-template", "", "Template passed to llm-caller")
	f.Float64Var(&lineTolerance, "line-tolerance", 0, "Vertical distance in pixels below which spans share a line")
	f.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output to show progress information")
}

func init() {
	addOCRFlags(rootCmd)
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Output file path (default: next to the input with the format's extension)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false,
		"Show version information")
}

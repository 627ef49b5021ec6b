package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodewee/img-to-doc/pkg/batch"
	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines/builtin"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

var (
	batchOutputDir string
	batchWorkers   int
	batchReport    string
	batchNoReport  bool
)

// batchCmd converts every image in one or more directories
var batchCmd = &cobra.Command{
	Use:   "batch <dir|image>...",
	Short: "Convert many images and write an XLSX summary",
	Long: `Convert every JPEG, PNG and BMP image in the given directories (and any
image files given directly). Each worker owns its own engine session.

One document is written per image. A workbook with one row per image
(engine, confidence, characters, words, duration, fallback, error) is written
to the output directory unless --no-report is given.

Examples:
  img-to-doc batch ./scans                          # Documents next to the images
  img-to-doc batch ./scans -o ./out -w 4            # Four workers, output in ./out
  img-to-doc batch ./scans --engine auto --fallback # Best available engine with fallback`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args)
	},
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.MaxConcurrency = batchWorkers
		if err := cfg.Validate(); err != nil {
			return utils.WrapError(err, utils.ErrorTypeValidation, "configuration validation failed")
		}
	}
	log := logger.NewLogger(cfg.LogLevel, cfg.EnableVerbose)

	inputs, err := batch.Inputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return utils.NewNotFoundError("no images found (jpg, jpeg, png, bmp)", nil)
	}

	reg := builtin.NewRegistry(cfg, log)
	engine, err := reg.SelectEngine(cfg.Engine, preferredEngines...)
	if err != nil {
		return err
	}
	cfg.Engine = engine

	runner, err := batch.NewRunner(reg, batch.Options{
		Workers:   cfg.MaxConcurrency,
		OutputDir: batchOutputDir,
		Format:    cfg.OutputFormat,
		Process: ocr.ProcessOptions{
			AdvancedPreprocess: cfg.AdvancedPreprocess,
			PreserveStructure:  cfg.PreserveStructure,
		},
		Fallback:         builtin.FallbackPolicy(cfg),
		ProcessorOptions: builtin.ProcessorOptions(cfg, log),
	}, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutMinutes)*time.Minute)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	result, runErr := runner.Run(ctx, inputs)
	if runErr != nil {
		log.Warn("Batch interrupted: %v", runErr)
	}

	if !batchNoReport && len(result.Rows) > 0 {
		path := batchReport
		if path == "" {
			dir := batchOutputDir
			if dir == "" {
				dir = filepath.Dir(inputs[0])
			}
			path = filepath.Join(dir, constants.ReportFileName)
		}
		if err := batch.WriteReport(path, result); err != nil {
			return err
		}
		fmt.Printf("📊 Report: %s\n", path)
	}

	failed := 0
	for _, row := range result.Rows {
		if row.Result != nil && row.Result.Error != "" {
			failed++
		}
	}
	fmt.Printf("✅ %d of %d images converted (run %s)\n", len(result.Rows)-failed, len(inputs), result.RunID)
	if runErr != nil {
		return runErr
	}
	if failed > 0 {
		return utils.NewOCRError(fmt.Sprintf("%d images failed", failed), nil)
	}
	return nil
}

func init() {
	addOCRFlags(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "",
		"Output directory (default: next to each image)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", constants.DefaultWorkerPoolSize,
		"Number of images processed in parallel")
	batchCmd.Flags().StringVar(&batchReport, "report", "",
		"Report path (default: <output>/"+constants.ReportFileName+")")
	batchCmd.Flags().BoolVar(&batchNoReport, "no-report", false, "Do not write the XLSX report")
	rootCmd.AddCommand(batchCmd)
}

// Package batch converts many images with a fixed pool of OCR processors.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/document"
	"github.com/nodewee/img-to-doc/pkg/imageio"
	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/report"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// Options configures a batch run
type Options struct {
	Workers int
	// OutputDir receives one document per image; empty writes next to each input.
	OutputDir string
	Format    string
	Title     string
	Process   ocr.ProcessOptions
	// Fallback is applied per worker; nil disables fallback.
	Fallback         *ocr.FallbackPolicy
	ProcessorOptions []ocr.Option
}

// Runner owns one processor per worker. Processors are not shared between
// goroutines; a worker takes one from the pool for the duration of an image.
type Runner struct {
	registry *ocr.Registry
	opts     Options
	gen      interfaces.DocumentGenerator
	logger   *logger.Logger
}

// NewRunner validates opts and creates a runner
func NewRunner(registry *ocr.Registry, opts Options, log *logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.Discard()
	}
	if opts.Workers < 1 {
		opts.Workers = constants.DefaultWorkerPoolSize
	}
	if opts.Workers > constants.MaxWorkerPoolSize {
		opts.Workers = constants.MaxWorkerPoolSize
	}
	gen, err := document.ForFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	return &Runner{registry: registry, opts: opts, gen: gen, logger: log}, nil
}

// Inputs expands directories to the images they contain and keeps plain files as given
func Inputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, utils.NewNotFoundError(fmt.Sprintf("input not found: %s", p), err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		images, err := utils.FindImages(p)
		if err != nil {
			return nil, utils.NewIOError("failed to list images", err).WithContext("dir", p)
		}
		out = append(out, images...)
	}
	return out, nil
}

// Run converts every input. Per-image failures are recorded in the returned
// rows; only cancellation of ctx makes Run return an error.
func (r *Runner) Run(ctx context.Context, inputs []string) (*report.Batch, error) {
	b := &report.Batch{
		RunID:   uuid.New(),
		Started: time.Now(),
		Rows:    make([]report.Row, len(inputs)),
	}
	r.logger.ProgressAlways("📚", "Batch %s: %d images, %d workers", b.RunID, len(inputs), r.opts.Workers)

	workers := min(r.opts.Workers, max(1, len(inputs)))
	pool := make(chan *ocr.FallbackProcessor, workers)
	all := make([]*ocr.FallbackProcessor, 0, workers)
	for i := 0; i < workers; i++ {
		p := ocr.NewProcessor(r.registry, r.opts.ProcessorOptions...)
		fp := ocr.NewFallbackProcessor(p, r.opts.Fallback, r.logger)
		all = append(all, fp)
		pool <- fp
	}
	defer func() {
		for _, fp := range all {
			if err := fp.Close(); err != nil {
				r.logger.Warn("Failed to close OCR processor: %v", err)
			}
		}
	}()

	outputs := r.outputPaths(inputs)
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var runErr error
	for i, input := range inputs {
		if err := sem.Acquire(ctx, 1); err != nil {
			runErr = err
			break
		}
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			defer sem.Release(1)
			fp := <-pool
			defer func() { pool <- fp }()

			b.Rows[i] = r.processOne(ctx, fp, input, outputs[i])
		}(i, input)
	}
	wg.Wait()

	if runErr != nil {
		// drop rows that were never started
		done := b.Rows[:0]
		for _, row := range b.Rows {
			if row.Input != "" {
				done = append(done, row)
			}
		}
		b.Rows = done
	}
	b.Finished = time.Now()

	failed := 0
	for _, row := range b.Rows {
		if row.Result != nil && row.Result.Error != "" {
			failed++
		}
	}
	r.logger.ProgressAlways("✅", "Batch finished: %d succeeded, %d failed in %v",
		len(b.Rows)-failed, failed, b.Finished.Sub(b.Started).Round(time.Millisecond))
	return b, runErr
}

// outputPaths names the document of every input. Inputs that would land on
// the same file get a -2, -3, ... suffix in input order.
func (r *Runner) outputPaths(inputs []string) []string {
	ext := r.gen.Extension()
	taken := make(map[string]bool, len(inputs))
	paths := make([]string, len(inputs))
	for i, input := range inputs {
		dir := r.opts.OutputDir
		if dir == "" {
			dir = filepath.Dir(input)
		}
		stem := strings.TrimSuffix(utils.SanitizeFileName(utils.ReplaceExt(input, ext)), ext)
		path := filepath.Join(dir, stem+ext)
		for n := 2; taken[strings.ToLower(path)]; n++ {
			path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
		}
		taken[strings.ToLower(path)] = true
		paths[i] = path
	}
	return paths
}

func (r *Runner) processOne(ctx context.Context, fp *ocr.FallbackProcessor, input, out string) report.Row {
	row := report.Row{Input: input}
	r.logger.Progress("🖼️", "Processing %s", filepath.Base(input))

	img, err := imageio.Load(input)
	if err != nil {
		r.logger.Warn("Skipping %s: %v", input, err)
		row.Result = &types.ExtractionResult{Engine: fp.Primary().EngineID(), Error: err.Error()}
		return row
	}

	res, err := fp.Process(ctx, img, r.opts.Process)
	if res == nil {
		res = &types.ExtractionResult{Engine: fp.Primary().EngineID()}
	}
	row.Result = res
	if err != nil {
		r.logger.Warn("OCR failed for %s: %v", input, err)
		if res.Error == "" {
			res.Error = err.Error()
		}
		return row
	}
	for _, w := range res.Warnings {
		r.logger.Warn("%s: %s", filepath.Base(input), w)
	}

	title := r.opts.Title
	if title == "" {
		title = filepath.Base(input)
	}
	if err := document.WriteFile(r.gen, out, document.NewRequest(title, res)); err != nil {
		r.logger.Warn("Failed to write %s: %v", out, err)
		res.Error = err.Error()
		return row
	}
	row.Output = out
	r.logger.Progress("📝", "Wrote %s (%d chars)", out, len([]rune(res.Text)))
	return row
}

// WriteReport saves the batch summary workbook to path
func WriteReport(path string, b *report.Batch) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return utils.NewIOError("failed to create report", err).WithContext("path", path)
	}
	if err := report.WriteXLSX(f, *b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

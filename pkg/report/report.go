// Package report writes batch extraction summaries as XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nodewee/img-to-doc/pkg/types"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// Row is one processed image
type Row struct {
	Input  string
	Output string
	Result *types.ExtractionResult
}

// Batch is a finished batch run
type Batch struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time
	Rows     []Row
}

var headers = []string{
	"File",
	"Engine",
	"Confidence",
	"Confidence Reported",
	"Characters",
	"Words",
	"Spans",
	"Duration (ms)",
	"Fallback Used",
	"Output",
	"Error",
}

// WriteXLSX writes the batch as a workbook with a results sheet and a summary sheet
func WriteXLSX(w io.Writer, b Batch) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the results sheet
	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}

	var succeeded, fallbacks int
	var confSum float64
	var confCount int
	for i, r := range b.Rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(resultsSheet, cell, v)
		}
		res := r.Result
		if res == nil {
			res = &types.ExtractionResult{}
		}

		write(1, filepath.Base(r.Input))
		write(2, string(res.Engine))
		if res.Confidence.Reported {
			write(3, round(res.Confidence.Value, 4))
			confSum += res.Confidence.Value
			confCount++
		} else {
			write(3, "")
		}
		write(4, res.Confidence.Reported)
		write(5, len([]rune(res.Text)))
		write(6, len(strings.Fields(res.Text)))
		write(7, res.SpanCount)
		write(8, res.Duration.Milliseconds())
		write(9, res.FallbackUsed)
		write(10, r.Output)
		write(11, res.Error)

		if res.Error == "" {
			succeeded++
		}
		if res.FallbackUsed {
			fallbacks++
		}
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 32)
	_ = f.SetColWidth(resultsSheet, "B", "B", 14)
	_ = f.SetColWidth(resultsSheet, "C", "I", 12)
	_ = f.SetColWidth(resultsSheet, "J", "J", 48)
	_ = f.SetColWidth(resultsSheet, "K", "K", 60)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	mean := ""
	if confCount > 0 {
		mean = fmt.Sprintf("%.4f", confSum/float64(confCount))
	}
	summary := [][2]any{
		{"Run ID", b.RunID.String()},
		{"Started", b.Started.Format(time.RFC3339)},
		{"Finished", b.Finished.Format(time.RFC3339)},
		{"Images", len(b.Rows)},
		{"Succeeded", succeeded},
		{"Failed", len(b.Rows) - succeeded},
		{"Fallbacks", fallbacks},
		{"Mean Confidence", mean},
	}
	for i, kv := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 40)

	if index, err := f.GetSheetIndex(resultsSheet); err == nil && index >= 0 {
		f.SetActiveSheet(index)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func round(v float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}

package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nodewee/img-to-doc/pkg/types"
)

func TestWriteXLSX(t *testing.T) {
	runID := uuid.MustParse("5f0c6a52-7c1d-4c59-8d0b-4b8f0b6f3a11")
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := Batch{
		RunID:    runID,
		Started:  start,
		Finished: start.Add(3 * time.Second),
		Rows: []Row{
			{
				Input:  "/in/page1.png",
				Output: "/out/page1.txt",
				Result: &types.ExtractionResult{
					Text:       "Hello World\nFoo",
					Engine:     types.EngineTesseract,
					Confidence: types.ConfidenceScore{Value: 0.9, Reported: true},
					SpanCount:  3,
					Duration:   1500 * time.Millisecond,
				},
			},
			{
				Input: "/in/page2.jpg",
				Result: &types.ExtractionResult{
					Engine:       types.EngineTesseract,
					FallbackUsed: true,
					Error:        "ocr: failed",
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, b); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if diff := cmp.Diff(headers, rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	want := []string{"page1.png", "tesseract", "0.9", "TRUE", "15", "3", "3", "1500", "FALSE", "/out/page1.txt"}
	if diff := cmp.Diff(want, rows[1]); diff != "" {
		t.Fatalf("first row mismatch (-want +got):\n%s", diff)
	}
	if got := rows[2][len(rows[2])-1]; got != "ocr: failed" {
		t.Fatalf("error column = %q", got)
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("GetRows(summary): %v", err)
	}
	got := map[string]string{}
	for _, r := range summary {
		if len(r) == 2 {
			got[r[0]] = r[1]
		}
	}
	for k, v := range map[string]string{
		"Run ID":          runID.String(),
		"Images":          "2",
		"Succeeded":       "1",
		"Failed":          "1",
		"Fallbacks":       "1",
		"Mean Confidence": "0.9000",
	} {
		if got[k] != v {
			t.Fatalf("summary %q = %q, want %q", k, got[k], v)
		}
	}
}

package ocr_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines"
	"github.com/nodewee/img-to-doc/pkg/ocr/ocrtest"
	"github.com/nodewee/img-to-doc/pkg/types"
)

func TestReconstructHelloWorld(t *testing.T) {
	spans := []types.Span{
		ocrtest.Word("Foo", 10, 50, 30, 20, 0.7),
		ocrtest.Word("World", 60, 12, 40, 20, 0.9),
		ocrtest.Word("Hello", 10, 10, 40, 20, 0.95),
	}
	got := ocr.NewReconstructor().Reconstruct(spans)
	if want := "Hello World\nFoo"; got != want {
		t.Fatalf("Reconstruct = %q, want %q", got, want)
	}
}

func TestReconstructToleranceBoundary(t *testing.T) {
	// first span center is 10; the second span's center sits 19, 20 and 21 below it
	tests := []struct {
		name string
		y    float64
		want string
	}{
		{"inside tolerance merges", 19, "a b"},
		{"exactly tolerance splits", 20, "a\nb"},
		{"beyond tolerance splits", 21, "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := []types.Span{
				ocrtest.Word("a", 0, 0, 10, 20, 1),
				ocrtest.Word("b", 50, tt.y, 10, 20, 1),
			}
			if got := ocr.NewReconstructor().Reconstruct(spans); got != tt.want {
				t.Fatalf("Reconstruct = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReconstructAnchorDoesNotDrift(t *testing.T) {
	spans := []types.Span{
		ocrtest.Word("one", 0, 0, 10, 20, 1),
		ocrtest.Word("two", 20, 15, 10, 20, 1),
		ocrtest.Word("three", 40, 30, 10, 20, 1),
	}
	got := ocr.NewReconstructor().Reconstruct(spans)
	if want := "one two\nthree"; got != want {
		t.Fatalf("Reconstruct = %q, want %q", got, want)
	}
}

func TestReconstructCustomTolerance(t *testing.T) {
	spans := []types.Span{
		ocrtest.Word("a", 0, 0, 10, 20, 1),
		ocrtest.Word("b", 50, 8, 10, 20, 1),
	}
	r := &ocr.Reconstructor{Tolerance: 5}
	if got := r.Reconstruct(spans); got != "a\nb" {
		t.Fatalf("Reconstruct = %q", got)
	}
}

func TestReconstructKeepsSyntheticLinesApart(t *testing.T) {
	text := "first line\nsecond line\nthird line"
	for _, tolerance := range []float64{20, 40, 50, 120} {
		r := &ocr.Reconstructor{Tolerance: tolerance}
		if got := r.Reconstruct(engines.LineSpans(text, tolerance)); got != text {
			t.Fatalf("tolerance %v: Reconstruct = %q, want %q", tolerance, got, text)
		}
	}
}

func TestReconstructOrderIndependent(t *testing.T) {
	a := ocrtest.Word("Hello", 10, 10, 40, 20, 1)
	b := ocrtest.Word("World", 60, 12, 40, 20, 1)
	c := ocrtest.Word("Foo", 10, 50, 30, 20, 1)
	perms := [][]types.Span{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	r := ocr.NewReconstructor()
	want := r.Reconstruct(perms[0])
	for i, p := range perms {
		if got := r.Reconstruct(p); got != want {
			t.Fatalf("permutation %d: got %q, want %q", i, got, want)
		}
	}
}

func TestReconstructDoesNotMutateInput(t *testing.T) {
	spans := []types.Span{
		ocrtest.Word("  Foo ", 10, 50, 30, 20, 1),
		ocrtest.Word("Hello", 10, 10, 40, 20, 1),
	}
	orig := append([]types.Span(nil), spans...)
	r := ocr.NewReconstructor()
	first := r.Reconstruct(spans)
	second := r.Reconstruct(spans)
	if first != second {
		t.Fatalf("not idempotent: %q vs %q", first, second)
	}
	if !reflect.DeepEqual(spans, orig) {
		t.Fatalf("input spans were modified")
	}
	if first != "Hello\nFoo" {
		t.Fatalf("Reconstruct = %q", first)
	}
}

func TestReconstructDropsUnusableSpans(t *testing.T) {
	bad := ocrtest.Word("nan", 0, 0, 10, 10, 1)
	bad.Quad[2].Y = math.NaN()
	spans := []types.Span{
		ocrtest.Word("   ", 0, 0, 10, 10, 1),
		bad,
		ocrtest.Word("kept", 0, 40, 10, 10, 1),
	}
	if got := ocr.NewReconstructor().Reconstruct(spans); got != "kept" {
		t.Fatalf("Reconstruct = %q", got)
	}
	if got := ocr.NewReconstructor().Reconstruct(nil); got != "" {
		t.Fatalf("Reconstruct(nil) = %q", got)
	}
	if got := ocr.NewReconstructor().Reconstruct(spans[:2]); got != "" {
		t.Fatalf("Reconstruct(unusable) = %q", got)
	}
}

func TestReconstructLayoutBreaksLine(t *testing.T) {
	left := ocrtest.Word("left", 0, 0, 40, 20, 1)
	left.Layout = &types.Layout{Block: 1, Paragraph: 1, Line: 1}
	right := ocrtest.Word("right", 300, 2, 40, 20, 1)
	right.Layout = &types.Layout{Block: 2, Paragraph: 1, Line: 1}

	r := ocr.NewReconstructor()
	if got := r.Reconstruct([]types.Span{left, right}); got != "left\nright" {
		t.Fatalf("Reconstruct = %q", got)
	}

	// without layout the same geometry is one line
	left.Layout, right.Layout = nil, nil
	if got := r.Reconstruct([]types.Span{left, right}); got != "left right" {
		t.Fatalf("Reconstruct = %q", got)
	}
}

func TestParagraphs(t *testing.T) {
	word := func(text string, y float64, block, para int) types.Span {
		s := ocrtest.Word(text, 0, y, 40, 20, 1)
		s.Layout = &types.Layout{Block: block, Paragraph: para}
		return s
	}
	spans := []types.Span{
		word("first", 0, 1, 1),
		word("line", 40, 1, 1),
		word("second", 100, 1, 2),
		word("third", 140, 2, 1),
	}
	paras := ocr.NewReconstructor().Paragraphs(spans)
	var got []string
	for _, p := range paras {
		got = append(got, p.Text())
	}
	want := []string{"first line", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Paragraphs = %q, want %q", got, want)
	}
}

func TestJoinPlainKeepsEngineOrder(t *testing.T) {
	spans := []types.Span{
		ocrtest.Word("Foo", 10, 50, 30, 20, 1),
		ocrtest.Word(" ", 0, 0, 1, 1, 1),
		ocrtest.Word("Hello", 10, 10, 40, 20, 1),
	}
	if got := ocr.JoinPlain(spans); got != "Foo\nHello" {
		t.Fatalf("JoinPlain = %q", got)
	}
}

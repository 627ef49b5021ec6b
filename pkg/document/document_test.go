package document

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/nodewee/img-to-doc/pkg/types"
)

func TestTextGenerator(t *testing.T) {
	conf := 0.875
	var buf bytes.Buffer
	err := TextGenerator{}.Generate(&buf, types.DocumentRequest{
		Title:      "Notes",
		Text:       "Hello World\nFoo",
		Confidence: &conf,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := "Notes\n=====\nOCR confidence: 87.5%\n\nHello World\nFoo\n"
	if got := buf.String(); got != want {
		t.Fatalf("text document =\n%q\nwant\n%q", got, want)
	}
}

func TestTextGeneratorParagraphsWithoutConfidence(t *testing.T) {
	var buf bytes.Buffer
	err := TextGenerator{}.Generate(&buf, types.DocumentRequest{
		Text:       "ignored",
		Paragraphs: []string{"first paragraph", "second paragraph"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := buf.String(), "first paragraph\n\nsecond paragraph\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHTMLGeneratorEscapesAndParses(t *testing.T) {
	var buf bytes.Buffer
	err := HTMLGenerator{}.Generate(&buf, types.DocumentRequest{
		Title: "Receipt <draft>",
		Text:  "Total & tax\n\n<b>not bold</b>",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Fatalf("missing doctype: %q", out)
	}
	if strings.Contains(out, "<b>") {
		t.Fatalf("text was not escaped: %q", out)
	}
	if strings.Contains(out, "confidence") {
		t.Fatalf("confidence line rendered without a score: %q", out)
	}

	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	var paras []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" && n.FirstChild != nil {
			paras = append(paras, n.FirstChild.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(paras) != 2 || paras[0] != "Total & tax" || paras[1] != "<b>not bold</b>" {
		t.Fatalf("paragraphs = %q", paras)
	}
}

func TestForFormat(t *testing.T) {
	for format, want := range map[string]string{"txt": ".txt", ".html": ".html", "HTM": ".html", "": ".txt"} {
		g, err := ForFormat(format)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", format, err)
		}
		if g.Extension() != want {
			t.Fatalf("ForFormat(%q).Extension() = %q, want %q", format, g.Extension(), want)
		}
	}
	if _, err := ForFormat("docx"); err == nil {
		t.Fatal("expected error for docx")
	}
}

func TestNewRequestAndWriteFile(t *testing.T) {
	res := &types.ExtractionResult{
		Text:       "Hello World\nFoo",
		Engine:     types.EngineLLMCaller,
		Confidence: types.ConfidenceScore{Value: 0, Reported: false},
	}
	req := NewRequest("", res)
	if req.Confidence != nil {
		t.Fatalf("unreported confidence should be omitted, got %v", *req.Confidence)
	}
	if req.Title == "" {
		t.Fatalf("expected default title")
	}

	path := filepath.Join(t.TempDir(), "nested", "page.txt")
	if err := WriteFile(TextGenerator{}, path, req); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "confidence") {
		t.Fatalf("unexpected confidence line:\n%s", data)
	}
	if !strings.HasSuffix(string(data), "Hello World\nFoo\n") {
		t.Fatalf("unexpected body:\n%s", data)
	}

	res.Confidence = types.ConfidenceScore{Value: 0.5, Reported: true}
	req = NewRequest("Scan", res)
	if req.Confidence == nil || *req.Confidence != 0.5 {
		t.Fatalf("reported confidence lost: %+v", req.Confidence)
	}
}

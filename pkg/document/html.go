package document

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

// HTMLGenerator writes a standalone HTML document with one <p> per paragraph
type HTMLGenerator struct{}

func (HTMLGenerator) Name() string      { return "html" }
func (HTMLGenerator) Extension() string { return ".html" }

// Generate implements interfaces.DocumentGenerator
func (HTMLGenerator) Generate(w io.Writer, req types.DocumentRequest) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, html.Attribute{Key: "lang", Val: "en"})
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	if req.Title != "" {
		head.AppendChild(withText(element(atom.Title), req.Title))
	}
	root.AppendChild(head)

	body := element(atom.Body)
	root.AppendChild(body)
	if req.Title != "" {
		body.AppendChild(withText(element(atom.H1), req.Title))
	}
	if line := confidenceLine(req); line != "" {
		body.AppendChild(withText(element(atom.P, html.Attribute{Key: "class", Val: "confidence"}), line))
	}
	for _, para := range paragraphs(req) {
		body.AppendChild(withText(element(atom.P), para))
	}

	if err := html.Render(w, doc); err != nil {
		return utils.NewIOError("failed to write HTML document", err)
	}
	return nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

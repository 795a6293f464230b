package layout

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"annotlib/annotation"
	"annotlib/document"
	"annotlib/history"
	"annotlib/raster"
)

// Markdown import defaults.
const (
	mdBaseFontSize = 18.0
	mdLineHeight   = 1.3
	mdMargin       = 24.0
	mdBlockGap     = 12.0
)

// MarkdownImporter converts markdown into stacked text boxes on the active
// page: headings become larger bold boxes, list items are bulleted, and each
// block's height is pre-computed with the shared layout engine so the box
// fits its wrapped text.
type MarkdownImporter struct {
	eng *Engine
	m   Measurer
}

// NewMarkdownImporter builds an importer measuring through m.
func NewMarkdownImporter(m Measurer) *MarkdownImporter {
	return &MarkdownImporter{eng: NewEngine(m), m: m}
}

// Import parses the markdown source and inserts the resulting boxes as one
// history action. Returns the number of boxes created.
func (i *MarkdownImporter) Import(s *document.Store, source string) (int, error) {
	page, err := s.Page(s.ActiveIndex())
	if err != nil {
		return 0, fmt.Errorf("import markdown: %w", err)
	}
	width := float64(page.Width) - 2*mdMargin
	if width < annotation.MinBoxWidth {
		width = annotation.MinBoxWidth
	}

	md := goldmark.New()
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	w := &mdWalker{imp: i, src: src, width: width, y: mdMargin}
	w.walk(doc)

	s.InsertTextBoxes(w.boxes, history.KindImport)
	return len(w.boxes), nil
}

type mdWalker struct {
	imp   *MarkdownImporter
	src   []byte
	width float64
	y     float64
	boxes []annotation.TextBox
}

func (w *mdWalker) walk(node ast.Node) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			w.emit(string(n.Text(w.src)), headingSize(n.Level), true)
		case *ast.Paragraph:
			w.emit(string(n.Text(w.src)), mdBaseFontSize, false)
		case *ast.List:
			w.walk(n)
		case *ast.ListItem:
			w.emit("• "+listItemText(n, w.src), mdBaseFontSize, false)
		}
	}
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return mdBaseFontSize * 2
	case 2:
		return mdBaseFontSize * 1.5
	default:
		return mdBaseFontSize * 1.25
	}
}

// listItemText extracts the text of a list item's first block child.
func listItemText(n *ast.ListItem, src []byte) string {
	child := n.FirstChild()
	if child == nil {
		return ""
	}
	if t, ok := child.(*ast.Text); ok {
		return string(t.Segment.Value(src))
	}
	return string(child.Text(src))
}

// emit appends one block as a text box sized to its wrapped line count.
func (w *mdWalker) emit(content string, fontSize float64, bold bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	style := annotation.DefaultStyle()
	style.FontSize = fontSize
	style.LineHeight = mdLineHeight
	style.Bold = bold
	style.StrokeWidth = 0
	style.TextColor = annotation.Color{A: 255}

	spec := raster.FontSpec{Family: style.FontFamily, Size: fontSize, Bold: bold}
	lines := w.imp.eng.Layout(content, w.width, annotation.MinBoxHeight, spec, mdLineHeight)
	height := 2*PaddingX + float64(len(lines))*mdLineHeight*fontSize

	b := annotation.NewTextBox(mdMargin, w.y)
	b.Text = content
	b.Style = style
	b.Geometry.Width = w.width
	b.Geometry.Height = height
	b.Geometry = b.Geometry.ClampMin()

	w.boxes = append(w.boxes, b)
	w.y += b.Geometry.Height + mdBlockGap
}

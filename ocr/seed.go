package ocr

import (
	"context"
	"fmt"

	"annotlib/annotation"
	"annotlib/document"
	"annotlib/history"
)

// SeedTextBoxes recognizes the active page's base image and inserts one text
// box per recognized line, positioned over the source text. The whole seeding
// is a single history action. Lines below minConfidence (0..100) are skipped;
// pass 0 to keep everything. Returns the number of boxes created.
func SeedTextBoxes(ctx context.Context, s *document.Store, engine Engine, minConfidence float64, opts ...InputOption) (int, error) {
	idx := s.ActiveIndex()
	page, err := s.Page(idx)
	if err != nil {
		return 0, fmt.Errorf("seed text boxes: %w", err)
	}
	in, err := InputFromImage(page.Base, idx, opts...)
	if err != nil {
		return 0, fmt.Errorf("seed text boxes: %w", err)
	}
	if engine == nil {
		engine = DefaultEngine()
	}
	res, err := engine.Recognize(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("seed text boxes: %w", err)
	}

	var boxes []annotation.TextBox
	for _, line := range res.Lines {
		if line.Text == "" || line.Confidence < minConfidence {
			continue
		}
		boxes = append(boxes, boxForLine(line))
	}
	s.InsertTextBoxes(boxes, history.KindOCR)
	return len(boxes), nil
}

// boxForLine sizes a text box to cover a recognized line, with the font
// scaled to the line height.
func boxForLine(line Line) annotation.TextBox {
	b := annotation.NewTextBox(line.Bounds.X, line.Bounds.Y)
	b.Text = line.Text
	b.Geometry.Width = line.Bounds.Width
	b.Geometry.Height = line.Bounds.Height
	b.Geometry = b.Geometry.ClampMin()
	if line.Bounds.Height > 0 {
		b.Style.FontSize = line.Bounds.Height * 0.8
	}
	return b
}

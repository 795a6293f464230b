// Package layout implements the text layout engine shared by the interactive
// preview and the export rasterizer. Layout is a pure function of the text,
// the box geometry and the measured word widths; both renderers consume the
// same engine so line breaking can never drift between them.
package layout

import (
	"strings"

	"annotlib/raster"
)

// Horizontal padding inside a box. Lines wrap against width−2×PaddingX and
// are anchored PaddingX from the left edge.
const PaddingX = 6

// Vertical inset from the top edge to the first baseline, before the
// font-size-proportional baseline offset is added.
const topInset = 6

// baselineFactor approximates the ascent as a fraction of the font size.
const baselineFactor = 0.8

// Line is one laid-out line of text. YOffset is the baseline position
// relative to the box center; X is fixed at −width/2 + PaddingX for every
// line (left alignment within the padded box).
type Line struct {
	Text    string
	YOffset float64
}

// Measurer reports the rendered advance width of a string. raster.FontRegistry
// implements it; tests substitute deterministic fakes.
type Measurer interface {
	MeasureText(text string, spec raster.FontSpec) float64
}

// Engine performs greedy word wrapping against a Measurer.
type Engine struct {
	m Measurer
}

// NewEngine returns a layout engine measuring through m.
func NewEngine(m Measurer) *Engine {
	return &Engine{m: m}
}

// LineX returns the fixed horizontal anchor for every line of a box of the
// given width, relative to the box center.
func LineX(boxWidth float64) float64 {
	return -boxWidth/2 + PaddingX
}

// Layout breaks text into lines for a box of the given size.
//
// Paragraphs are split on explicit line breaks; empty paragraphs advance the
// cursor without emitting a line. Within a paragraph, whitespace-delimited
// words are packed greedily: a word joins the current line if the measured
// width of line-plus-word stays within boxWidth−2×PaddingX, otherwise the
// line is committed and the word starts the next one. A single word wider
// than the limit is placed alone and allowed to overflow; there is no
// mid-word breaking and no truncation. Lines past the nominal box height are
// not clipped.
func (e *Engine) Layout(text string, boxWidth, boxHeight float64, spec raster.FontSpec, lineHeightFactor float64) []Line {
	limit := boxWidth - 2*PaddingX
	advance := lineHeightFactor * spec.Size
	y := -boxHeight/2 + topInset + spec.Size*baselineFactor

	var lines []Line
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			// Empty paragraph: advance once, emit nothing.
			y += advance
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			if e.m.MeasureText(candidate, spec) <= limit {
				current = candidate
				continue
			}
			lines = append(lines, Line{Text: current, YOffset: y})
			y += advance
			current = word
		}
		lines = append(lines, Line{Text: current, YOffset: y})
		y += advance
	}
	return lines
}

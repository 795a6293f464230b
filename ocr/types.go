// Package ocr recognizes text on page base images so annotations can be
// seeded from what the image already shows. Engines are pluggable; the
// tesseract subpackage supplies the default.
package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Region describes a rectangular area in pixel coordinates with the origin in
// the upper-left corner of the image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input encapsulates a single image submitted for OCR.
type Input struct {
	// ID is an optional caller-provided identifier echoed back in the result.
	ID string
	// Image is the encoded payload in the format specified by Format.
	Image []byte
	// Format declares the image content type.
	Format ImageFormat
	// PageIndex links the input back to the zero-based page it came from.
	PageIndex int
	// DPI carries the effective dots-per-inch; zero means unknown.
	DPI int
	// Languages lists trained-data hints (e.g., "eng", "deu").
	Languages []string
	// Region restricts recognition to a subsection; nil means full image.
	Region *Region
	// Metadata passes engine-specific knobs (e.g. "psm" for Tesseract)
	// without hard-coding them into the API surface.
	Metadata map[string]string
}

// Line is one recognized text line with its bounding box.
type Line struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// Result captures OCR output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Lines carries per-line geometry, used to place seeded text boxes.
	Lines []Line
	// Engine names the engine that produced the result.
	Engine string
}

// Engine performs OCR on a single input.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine is implemented by engines that can amortize setup across
// multiple inputs.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}

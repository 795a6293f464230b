// Package export flattens page records into PNG blobs and packages
// multi-page documents into a ZIP archive with deterministic page names.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image/png"
	"io"

	"annotlib/document"
	"annotlib/observability"
	"annotlib/render"
	"annotlib/raster"
)

// PageFileName returns the archive entry name for the page at index
// (0-based): 1-indexed, zero-padded to three digits.
func PageFileName(index int) string {
	return fmt.Sprintf("page-%03d.png", index+1)
}

// Packager is the consumed archive capability: it accepts named byte blobs
// and combines them into one archive stream.
type Packager interface {
	Add(name string, data []byte) error
	Close() error
}

// zipPackager implements Packager on archive/zip.
type zipPackager struct {
	zw *zip.Writer
}

// NewZipPackager wraps w in the default ZIP packager.
func NewZipPackager(w io.Writer) Packager {
	return &zipPackager{zw: zip.NewWriter(w)}
}

func (p *zipPackager) Add(name string, data []byte) error {
	f, err := p.zw.Create(name)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

func (p *zipPackager) Close() error { return p.zw.Close() }

// Exporter renders stored pages and encodes them. A failed export leaves the
// document untouched and usable.
type Exporter struct {
	ras    *render.Rasterizer
	logger observability.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter's logger.
func WithLogger(l observability.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// NewExporter returns an exporter rendering through the given font registry.
func NewExporter(fonts *raster.FontRegistry, opts ...Option) *Exporter {
	e := &Exporter{
		ras:    render.NewRasterizer(fonts),
		logger: observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportPNG flattens one page and writes it as PNG. The store's live buffers
// are flushed first so the record is current.
func (e *Exporter) ExportPNG(s *document.Store, index int, w io.Writer) error {
	s.Flush()
	page, err := s.Page(index)
	if err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	img, err := e.ras.RenderPage(page)
	if err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("export png: encode page %d: %w", index+1, err)
	}
	return nil
}

// ExportArchive flattens every page and writes a ZIP of page-NNN.png entries
// to w. Pass nil as pack to use the default ZIP packager; a custom Packager
// takes over naming-preserving archive assembly.
func (e *Exporter) ExportArchive(s *document.Store, w io.Writer, pack Packager) error {
	s.Flush()
	if pack == nil {
		pack = NewZipPackager(w)
	}
	n := s.PageCount()
	for i := 0; i < n; i++ {
		page, err := s.Page(i)
		if err != nil {
			return fmt.Errorf("export archive: %w", err)
		}
		img, err := e.ras.RenderPage(page)
		if err != nil {
			return fmt.Errorf("export archive: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("export archive: encode %s: %w", PageFileName(i), err)
		}
		if err := pack.Add(PageFileName(i), buf.Bytes()); err != nil {
			return fmt.Errorf("export archive: add %s: %w", PageFileName(i), err)
		}
	}
	if err := pack.Close(); err != nil {
		return fmt.Errorf("export archive: finalize: %w", err)
	}
	e.logger.Info("archive exported", observability.Int("pages", n))
	return nil
}

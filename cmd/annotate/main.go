// Command annotate loads one or more images, applies annotations from flags,
// a markdown file or a script, and exports the result as a PNG (single page)
// or a ZIP archive (multi page).
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"annotlib/document"
	"annotlib/export"
	"annotlib/layout"
	"annotlib/observability"
	"annotlib/ocr"
	_ "annotlib/ocr/tesseract"
	"annotlib/raster"
	"annotlib/scripting"
)

type options struct {
	inputs   []string
	out      string
	text     string
	at       string
	markdown string
	script   string
	fonts    []string
	runOCR   bool
	verbose  bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "annotate: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "annotate: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: annotate -in img.png[,img2.png...] [flags]\n")
		flag.PrintDefaults()
	}
	in := flag.String("in", "", "Comma-separated input images (png/jpeg/gif)")
	out := flag.String("out", "annotated.png", "Output file (.png or .zip)")
	text := flag.String("text", "", "Add a text box with this content to the first page")
	at := flag.String("at", "40,40", "Position for -text as x,y")
	markdown := flag.String("markdown", "", "Markdown file imported as text boxes on the first page")
	script := flag.String("script", "", "JavaScript file run against the document")
	fontFiles := flag.String("fonts", "", "Comma-separated TTF/OTF files to register")
	runOCR := flag.Bool("ocr", false, "Seed text boxes from recognized text on the first page")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if *in == "" {
		return opts, fmt.Errorf("-in is required")
	}
	opts.inputs = splitList(*in)
	opts.out = *out
	opts.text = *text
	opts.at = *at
	opts.markdown = *markdown
	opts.script = *script
	opts.fonts = splitList(*fontFiles)
	opts.runOCR = *runOCR
	opts.verbose = *verbose
	return opts, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func run(opts options) error {
	var logger observability.Logger = observability.NopLogger{}
	if opts.verbose {
		logger = stdLogger{}
	}

	fonts, err := raster.NewFontRegistry(raster.WithRegistryLogger(logger))
	if err != nil {
		return err
	}
	for _, path := range opts.fonts {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read font %s: %w", path, err)
		}
		family, err := fonts.Register(data)
		if err != nil {
			return fmt.Errorf("register font %s: %w", path, err)
		}
		log.Printf("registered font family %q", family)
	}

	store := document.NewStore(document.WithLogger(logger))
	for _, path := range opts.inputs {
		img, err := loadImage(path)
		if err != nil {
			return err
		}
		if _, err := store.CreatePage(img); err != nil {
			return fmt.Errorf("create page from %s: %w", path, err)
		}
	}
	if err := store.SwitchPage(0); err != nil {
		return err
	}

	if opts.text != "" {
		x, y, err := parsePoint(opts.at)
		if err != nil {
			return err
		}
		b := store.AddTextBox(x, y)
		if err := store.SetTextBoxText(b.ID, opts.text); err != nil {
			return err
		}
	}

	if opts.markdown != "" {
		src, err := os.ReadFile(opts.markdown)
		if err != nil {
			return fmt.Errorf("read markdown: %w", err)
		}
		imp := layout.NewMarkdownImporter(fonts)
		n, err := imp.Import(store, string(src))
		if err != nil {
			return err
		}
		log.Printf("imported %d markdown blocks", n)
	}

	if opts.runOCR {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		n, err := ocr.SeedTextBoxes(ctx, store, ocr.DefaultEngine(), 50)
		if err != nil {
			return fmt.Errorf("ocr: %w", err)
		}
		log.Printf("seeded %d text boxes from OCR", n)
	}

	if opts.script != "" {
		src, err := os.ReadFile(opts.script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		engine := scripting.NewEngine()
		if err := engine.RegisterDOM(scripting.NewStoreDOM(store, logger)); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := engine.Execute(ctx, string(src)); err != nil {
			return fmt.Errorf("script: %w", err)
		}
	}

	return writeOutput(store, fonts, opts.out)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func parsePoint(s string) (float64, float64, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid -at %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -at %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -at %q: %w", s, err)
	}
	return x, y, nil
}

func writeOutput(store *document.Store, fonts *raster.FontRegistry, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	exp := export.NewExporter(fonts)
	if store.PageCount() > 1 || strings.HasSuffix(strings.ToLower(out), ".zip") {
		if err := exp.ExportArchive(store, f, nil); err != nil {
			return err
		}
		log.Printf("wrote %d pages to %s", store.PageCount(), out)
		return nil
	}
	if err := exp.ExportPNG(store, 0, f); err != nil {
		return err
	}
	log.Printf("wrote %s", out)
	return nil
}

// stdLogger adapts the standard log package to observability.Logger for -v.
type stdLogger struct {
	fields []observability.Field
}

func (l stdLogger) log(level, msg string, fields []observability.Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", level, msg)
	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	log.Print(b.String())
}

func (l stdLogger) Debug(msg string, fields ...observability.Field) { l.log("DEBUG", msg, fields) }
func (l stdLogger) Info(msg string, fields ...observability.Field)  { l.log("INFO", msg, fields) }
func (l stdLogger) Warn(msg string, fields ...observability.Field)  { l.log("WARN", msg, fields) }
func (l stdLogger) Error(msg string, fields ...observability.Field) { l.log("ERROR", msg, fields) }
func (l stdLogger) With(fields ...observability.Field) observability.Logger {
	return stdLogger{fields: append(append([]observability.Field{}, l.fields...), fields...)}
}

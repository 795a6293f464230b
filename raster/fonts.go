package raster

import (
	"bytes"
	"fmt"

	tsfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"annotlib/observability"
)

// DefaultFamily is the built-in font family, always available and used as
// the fallback for unknown families.
const DefaultFamily = "Go"

// FontSpec selects a face for measuring and drawing.
type FontSpec struct {
	Family string
	Size   float64 // pixels
	Bold   bool
	Italic bool
}

type variant struct {
	bold   bool
	italic bool
}

type faceKey struct {
	family string
	v      variant
	size   float64
}

// FontRegistry resolves font specs to concrete faces. Registered fonts are
// keyed by the family name and style aspect read from the font file itself.
type FontRegistry struct {
	families map[string]map[variant]*sfnt.Font
	faces    map[faceKey]font.Face
	logger   observability.Logger
}

// RegistryOption configures a FontRegistry.
type RegistryOption func(*FontRegistry)

// WithRegistryLogger sets the logger used for fallback warnings.
func WithRegistryLogger(l observability.Logger) RegistryOption {
	return func(r *FontRegistry) { r.logger = l }
}

// NewFontRegistry builds a registry seeded with the four Go font variants
// under the "Go" family.
func NewFontRegistry(opts ...RegistryOption) (*FontRegistry, error) {
	r := &FontRegistry{
		families: make(map[string]map[variant]*sfnt.Font),
		faces:    make(map[faceKey]font.Face),
		logger:   observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	seed := []struct {
		data []byte
		v    variant
	}{
		{goregular.TTF, variant{}},
		{gobold.TTF, variant{bold: true}},
		{goitalic.TTF, variant{italic: true}},
		{gobolditalic.TTF, variant{bold: true, italic: true}},
	}
	for _, s := range seed {
		f, err := opentype.Parse(s.data)
		if err != nil {
			return nil, fmt.Errorf("parse built-in font: %w", err)
		}
		r.put(DefaultFamily, s.v, f)
	}
	return r, nil
}

func (r *FontRegistry) put(family string, v variant, f *sfnt.Font) {
	m := r.families[family]
	if m == nil {
		m = make(map[variant]*sfnt.Font)
		r.families[family] = m
	}
	m[v] = f
}

// Register adds a TTF/OTF font. The family name and bold/italic aspect are
// read from the font's own metadata; the detected family is returned so
// callers can reference it in styles.
func (r *FontRegistry) Register(data []byte) (string, error) {
	face, err := tsfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse font metadata: %w", err)
	}
	desc := face.Describe()
	family := desc.Family
	if family == "" {
		return "", fmt.Errorf("font has no family name")
	}
	v := variant{
		bold:   desc.Aspect.Weight >= tsfont.WeightBold,
		italic: desc.Aspect.Style == tsfont.StyleItalic,
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse font %q: %w", family, err)
	}
	r.put(family, v, f)
	r.logger.Info("font registered",
		observability.String("family", family),
		observability.Int("variants", len(r.families[family])))
	return family, nil
}

// Families lists the registered family names.
func (r *FontRegistry) Families() []string {
	out := make([]string, 0, len(r.families))
	for name := range r.families {
		out = append(out, name)
	}
	return out
}

// resolve picks the sfnt font for a spec, degrading from the exact variant to
// the family's regular cut, then to the default family.
func (r *FontRegistry) resolve(spec FontSpec) *sfnt.Font {
	want := variant{bold: spec.Bold, italic: spec.Italic}
	fam := r.families[spec.Family]
	if fam == nil && spec.Family != DefaultFamily {
		r.logger.Warn("unknown font family, using default",
			observability.String("family", spec.Family))
		fam = r.families[DefaultFamily]
	}
	if f, ok := fam[want]; ok {
		return f
	}
	if f, ok := fam[variant{}]; ok {
		return f
	}
	return r.families[DefaultFamily][want]
}

// Face returns a sized face for the spec, cached per family/variant/size.
func (r *FontRegistry) Face(spec FontSpec) (font.Face, error) {
	if spec.Size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", spec.Size)
	}
	key := faceKey{family: spec.Family, v: variant{spec.Bold, spec.Italic}, size: spec.Size}
	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	f := r.resolve(spec)
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    spec.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face %q: %w", spec.Family, err)
	}
	r.faces[key] = face
	return face, nil
}

// MeasureText returns the advance width of the string in pixels. Both
// renderers must measure through the same registry so line breaking can never
// diverge between preview and export.
func (r *FontRegistry) MeasureText(text string, spec FontSpec) float64 {
	face, err := r.Face(spec)
	if err != nil {
		return 0
	}
	return float64(font.MeasureString(face, text)) / 64
}

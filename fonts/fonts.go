// Package fonts holds the glyph table used for measuring and drawing: the
// Go font family, plus a face synthesized from strokes and Go glyph
// components for the mathematical symbols the Go fonts do not carry.
//
// The table is loaded eagerly and never changes afterwards, so it can be
// shared by concurrent renders. All dimensions are in font units of 1/1000
// em with y increasing downwards.
package fonts

import (
	"bytes"
	"fmt"
	"sync"
	"unicode"

	gotext "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/texsvg/ir"
)

// UnitsPerEm is the scale of every dimension in this package.
const UnitsPerEm = 1000

// Face identifies one face of the table.
type Face int

const (
	FaceRegular Face = iota
	FaceItalic
	FaceBold
	FaceBoldItalic
	FaceSans
	FaceMono
	FaceMonoBold
	FaceSmallCaps
	FaceSmallCapsItalic
	FaceSymbols
	numFaces
)

var faceNames = [numFaces]string{
	FaceRegular:         "regular",
	FaceItalic:          "italic",
	FaceBold:            "bold",
	FaceBoldItalic:      "bolditalic",
	FaceSans:            "sans",
	FaceMono:            "mono",
	FaceMonoBold:        "monobold",
	FaceSmallCaps:       "smallcaps",
	FaceSmallCapsItalic: "smallcapsitalic",
	FaceSymbols:         "symbols",
}

func (f Face) String() string {
	if f >= 0 && f < numFaces {
		return faceNames[f]
	}
	return fmt.Sprintf("Face(%d)", int(f))
}

var faceData = [FaceSymbols][]byte{
	FaceRegular:         goregular.TTF,
	FaceItalic:          goitalic.TTF,
	FaceBold:            gobold.TTF,
	FaceBoldItalic:      gobolditalic.TTF,
	FaceSans:            gomedium.TTF,
	FaceMono:            gomono.TTF,
	FaceMonoBold:        gomonobold.TTF,
	FaceSmallCaps:       gosmallcaps.TTF,
	FaceSmallCapsItalic: gosmallcapsitalic.TTF,
}

// coverage lists the code point ranges scanned when mapping runes to glyphs.
var coverage = [][2]rune{
	{0x0020, 0x007E},
	{0x00A0, 0x02FF},
	{0x0370, 0x03FF},
	{0x0400, 0x04FF},
	{0x2000, 0x2BFF},
	{0xFB00, 0xFB06},
}

// Rect is an axis-aligned box.
type Rect struct{ MinX, MinY, MaxX, MaxY float64 }

// Glyph is one outline of the table.
type Glyph struct {
	Face    Face
	ID      int
	Rune    rune // first rune mapped to the glyph, 0 if none
	Advance float64
	Bounds  Rect
	Outline Outline
	Path    string // SVG path data of Outline
}

// Height is the extent of the glyph above the baseline.
func (g *Glyph) Height() float64 { return max(0, -g.Bounds.MinY) }

// Depth is the extent of the glyph below the baseline.
func (g *Glyph) Depth() float64 { return max(0, g.Bounds.MaxY) }

// Key names the glyph uniquely within the table.
func (g *Glyph) Key() string { return fmt.Sprintf("%s-%d", g.Face, g.ID) }

// Metrics are the vertical metrics of the regular face.
type Metrics struct {
	Ascent    float64
	Descent   float64
	XHeight   float64
	CapHeight float64
}

type faceTable struct {
	name   string
	face   Face
	glyphs []*Glyph
	runes  map[rune]int
	font   *gotext.Font // nil for the synthesized face
}

func (f *faceTable) lookup(r rune) *Glyph {
	if id, ok := f.runes[r]; ok {
		return f.glyphs[id]
	}
	if a, ok := aliases[r]; ok {
		if id, ok := f.runes[a]; ok {
			return f.glyphs[id]
		}
	}
	return nil
}

// Table is a loaded set of faces.
type Table struct {
	faces   [numFaces]*faceTable
	metrics Metrics
	shapers sync.Pool
}

// MetricsMissingError reports a character that no face can draw.
type MetricsMissingError struct {
	Variant ir.Variant
	Rune    rune
}

func (e *MetricsMissingError) Error() string {
	return fmt.Sprintf("fonts: no glyph for U+%04X %q in variant %s", e.Rune, e.Rune, e.Variant)
}

var defaultTable = sync.OnceValues(Load)

// Default returns the process-wide table, loading it on first use.
func Default() (*Table, error) { return defaultTable() }

// Load parses the Go fonts and synthesizes the symbols face.
func Load() (*Table, error) {
	t := &Table{}
	for f := FaceRegular; f < FaceSymbols; f++ {
		ft, err := loadFace(f, faceData[f])
		if err != nil {
			return nil, err
		}
		t.faces[f] = ft
	}
	m, err := loadMetrics(faceData[FaceRegular])
	if err != nil {
		return nil, err
	}
	t.metrics = m
	sym, err := buildSymbols(t.faces[FaceRegular])
	if err != nil {
		return nil, err
	}
	t.faces[FaceSymbols] = sym
	return t, nil
}

func loadFace(face Face, data []byte) (*faceTable, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: parse %s: %w", face, err)
	}
	var (
		buf  sfnt.Buffer
		ppem = fixed.I(UnitsPerEm)
		n    = f.NumGlyphs()
	)
	ft := &faceTable{name: face.String(), face: face, glyphs: make([]*Glyph, n), runes: make(map[rune]int)}
	for id := 0; id < n; id++ {
		gi := sfnt.GlyphIndex(id)
		segs, err := f.LoadGlyph(&buf, gi, ppem, nil)
		if err != nil {
			return nil, fmt.Errorf("fonts: load glyph %d of %s: %w", id, face, err)
		}
		o := outlineFromSegments(segs)
		adv, err := f.GlyphAdvance(&buf, gi, ppem, xfont.HintingNone)
		if err != nil {
			return nil, fmt.Errorf("fonts: advance of glyph %d of %s: %w", id, face, err)
		}
		ft.glyphs[id] = &Glyph{
			Face:    face,
			ID:      id,
			Advance: float64(adv) / 64,
			Bounds:  o.Bounds(),
			Outline: o,
			Path:    o.Path(),
		}
	}
	for _, rg := range coverage {
		for r := rg[0]; r <= rg[1]; r++ {
			gi, err := f.GlyphIndex(&buf, r)
			if err != nil || gi == 0 || int(gi) >= n {
				continue
			}
			ft.runes[r] = int(gi)
			if g := ft.glyphs[gi]; g.Rune == 0 {
				g.Rune = r
			}
		}
	}
	shaped, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fonts: parse %s for shaping: %w", face, err)
	}
	ft.font = shaped.Font
	return ft, nil
}

func loadMetrics(data []byte) (Metrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return Metrics{}, err
	}
	var buf sfnt.Buffer
	m, err := f.Metrics(&buf, fixed.I(UnitsPerEm), xfont.HintingNone)
	if err != nil {
		return Metrics{}, fmt.Errorf("fonts: metrics: %w", err)
	}
	return Metrics{
		Ascent:    float64(m.Ascent) / 64,
		Descent:   float64(m.Descent) / 64,
		XHeight:   float64(m.XHeight) / 64,
		CapHeight: float64(m.CapHeight) / 64,
	}, nil
}

// Metrics returns the vertical metrics of the regular face.
func (t *Table) Metrics() Metrics { return t.metrics }

// FaceFor returns the face a variant draws r with before any fallback.
// The Go family has no blackboard, script or fraktur faces: double-struck
// letters use Go Mono Bold, script and calligraphic letters Go Smallcaps
// Italic, and fraktur letters Go Smallcaps.
func FaceFor(v ir.Variant, r rune) Face {
	switch v {
	case ir.VariantDefault:
		if isMathLetter(r) {
			return FaceItalic
		}
		return FaceRegular
	case ir.VariantItalic:
		return FaceItalic
	case ir.VariantBold:
		return FaceBold
	case ir.VariantBoldItalic:
		return FaceBoldItalic
	case ir.VariantSansSerif:
		return FaceSans
	case ir.VariantMonospace:
		return FaceMono
	case ir.VariantDoubleStruck:
		return FaceMonoBold
	case ir.VariantScript, ir.VariantCalligraphic:
		return FaceSmallCapsItalic
	case ir.VariantFraktur:
		return FaceSmallCaps
	}
	return FaceRegular
}

// isMathLetter reports whether r is set in italic by default: Latin
// letters and lowercase Greek.
func isMathLetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == 'ı' || r == 'ȷ':
		return true
	case unicode.Is(unicode.Greek, r):
		return unicode.IsLower(r)
	}
	return false
}

// Glyph returns the glyph drawing r in variant v. The variant's face is
// tried first, then the regular face, then the symbols face.
func (t *Table) Glyph(v ir.Variant, r rune) (*Glyph, error) {
	if g := t.find(FaceFor(v, r), r); g != nil {
		return g, nil
	}
	return nil, &MetricsMissingError{Variant: v, Rune: r}
}

func (t *Table) find(first Face, r rune) *Glyph {
	for _, f := range [...]Face{first, FaceRegular, FaceSymbols} {
		if g := t.faces[f].lookup(r); g != nil {
			return g
		}
	}
	return nil
}

// GlyphByID returns glyph id of face f.
func (t *Table) GlyphByID(f Face, id int) (*Glyph, bool) {
	if f < 0 || f >= numFaces {
		return nil, false
	}
	ft := t.faces[f]
	if id < 0 || id >= len(ft.glyphs) {
		return nil, false
	}
	return ft.glyphs[id], true
}

// Covers reports whether some face can draw r.
func (t *Table) Covers(r rune) bool { return t.find(FaceRegular, r) != nil }

package fonts

import (
	"unicode"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/texsvg/ir"
)

// Placed is a glyph positioned within a shaped run. X and Y locate the
// glyph origin relative to the start of the run on its baseline.
type Placed struct {
	Glyph *Glyph
	X, Y  float64
}

// Run is a shaped string.
type Run struct {
	Glyphs  []Placed
	Advance float64
}

// shaperState is not safe for concurrent use; Shape takes one from a pool.
type shaperState struct {
	shaper shaping.HarfbuzzShaper
	faces  [numFaces]*gotext.Face
}

func (t *Table) state() *shaperState {
	if s, ok := t.shapers.Get().(*shaperState); ok {
		return s
	}
	return &shaperState{}
}

// Shape lays out text in variant v. Text variants do not use the math
// italic default, so VariantDefault draws upright. Runs of characters drawn
// from one Go face are shaped with HarfBuzz, which applies kerning and
// ligatures; synthesized symbols are placed by their advance.
func (t *Table) Shape(v ir.Variant, text string) (Run, error) {
	if v == ir.VariantDefault {
		v = ir.VariantNormal
	}
	runes := []rune(text)
	var (
		run  Run
		face Face = -1
		seg  []rune
	)
	flush := func() {
		if len(seg) > 0 {
			t.shapeSegment(&run, face, seg)
		}
		seg = seg[:0]
	}
	for _, r := range runes {
		f, c, ok := t.resolve(FaceFor(v, r), r)
		if !ok {
			return Run{}, &MetricsMissingError{Variant: v, Rune: r}
		}
		if f != face {
			flush()
			face = f
		}
		seg = append(seg, c)
	}
	flush()
	return run, nil
}

// resolve picks the face drawing r and the rune to draw it with.
func (t *Table) resolve(first Face, r rune) (Face, rune, bool) {
	for _, f := range [...]Face{first, FaceRegular, FaceSymbols} {
		ft := t.faces[f]
		if _, ok := ft.runes[r]; ok {
			return f, r, true
		}
		if a, ok := aliases[r]; ok {
			if _, ok := ft.runes[a]; ok {
				return f, a, true
			}
		}
	}
	return 0, 0, false
}

func (t *Table) shapeSegment(run *Run, face Face, seg []rune) {
	ft := t.faces[face]
	if ft.font == nil {
		for _, r := range seg {
			g := ft.glyphs[ft.runes[r]]
			run.Glyphs = append(run.Glyphs, Placed{Glyph: g, X: run.Advance})
			run.Advance += g.Advance
		}
		return
	}

	s := t.state()
	defer t.shapers.Put(s)
	if s.faces[face] == nil {
		s.faces[face] = gotext.NewFace(ft.font)
	}
	script := DetectScript(seg)
	out := s.shaper.Shape(shaping.Input{
		Text:      seg,
		RunStart:  0,
		RunEnd:    len(seg),
		Direction: scriptDirection(script),
		Face:      s.faces[face],
		Size:      fixed.I(UnitsPerEm),
		Script:    script,
		Language:  language.DefaultLanguage(),
	})
	for _, g := range out.Glyphs {
		id := int(g.GlyphID)
		if id < 0 || id >= len(ft.glyphs) {
			continue
		}
		run.Glyphs = append(run.Glyphs, Placed{
			Glyph: ft.glyphs[id],
			X:     run.Advance + float64(g.XOffset)/64,
			Y:     -float64(g.YOffset) / 64,
		})
		run.Advance += float64(g.XAdvance) / 64
	}
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// DetectScript returns the script most of runes belong to, Latin when none
// is recognized. Ties keep the script counted first.
func DetectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	bestScript := language.Latin

	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			bestScript = script
		}
	}
	return bestScript
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	}
	return language.Unknown
}

package layout

import (
	"strings"

	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/ir"
)

// glyphBox sizes g drawn at sc em.
func glyphBox(g *fonts.Glyph, sc float64) *Box {
	k := sc / fonts.UnitsPerEm
	return &Box{
		Kind:   KindGlyph,
		Glyph:  g,
		Scale:  sc,
		Width:  g.Advance * k,
		Height: g.Height() * k,
		Depth:  g.Depth() * k,
	}
}

// italicCorrection is how far the ink of b leans past its advance.
func italicCorrection(b *Box) float64 {
	if len(b.Children) == 0 {
		return 0
	}
	last := b.Children[len(b.Children)-1]
	if last.Glyph == nil || last.Glyph.Face != fonts.FaceItalic && last.Glyph.Face != fonts.FaceBoldItalic {
		return 0
	}
	k := last.Scale / fonts.UnitsPerEm
	return max(0, last.X+last.Glyph.Bounds.MaxX*k-b.Width)
}

func (e *engine) atom(a *ir.Atom, st state) (*Box, error) {
	if a.Large {
		return e.largeOp(a, st)
	}
	b := &Box{left: a.Class, right: a.Class, spaced: true}
	sc := st.scale()
	for _, r := range a.Text {
		g, err := e.fonts.Glyph(a.Variant, r)
		if err != nil {
			return nil, err
		}
		gb := glyphBox(g, sc)
		b.Add(gb, b.Width, 0)
		b.Width += gb.Width
	}
	b.fit()
	return b, nil
}

const integrals = "∫∬∭∮"

// largeOp draws \sum-like operators centred on the math axis, bigger in
// display style.
func (e *engine) largeOp(a *ir.Atom, st state) (*Box, error) {
	grow := 1.0
	if st.style == ir.StyleDisplay {
		grow = 1.4
		if strings.ContainsAny(a.Text, integrals) {
			grow = 1.8
		}
	}
	sc := st.scale()
	row := &Box{}
	for _, r := range a.Text {
		g, err := e.fonts.Glyph(a.Variant, r)
		if err != nil {
			return nil, err
		}
		gb := glyphBox(g, sc*grow)
		row.Add(gb, row.Width, 0)
		row.Width += gb.Width
	}
	row.fit()
	dy := -axisHeight*sc - (row.Depth-row.Height)/2
	b := &Box{Width: row.Width, left: ir.ClassOp, right: ir.ClassOp, spaced: true}
	for _, c := range row.Children {
		b.Add(c, c.X, dy)
	}
	b.fit()
	return b, nil
}

// text shapes s as a text run.
func (e *engine) text(s string, v ir.Variant, st state) (*Box, error) {
	b := &Box{left: ir.ClassOrd, right: ir.ClassOrd, spaced: true}
	if s == "" {
		return b, nil
	}
	run, err := e.fonts.Shape(v, s)
	if err != nil {
		return nil, err
	}
	sc := st.scale()
	k := sc / fonts.UnitsPerEm
	for _, p := range run.Glyphs {
		b.Add(glyphBox(p.Glyph, sc), p.X*k, p.Y*k)
	}
	b.Width = run.Advance * k
	b.fit()
	return b, nil
}

// glyphOf returns the upright glyph for s, or nil when s is not a single
// character.
func (e *engine) glyphOf(s string) (*fonts.Glyph, error) {
	rs := []rune(s)
	if len(rs) != 1 {
		return nil, nil
	}
	return e.fonts.Glyph(ir.VariantNormal, rs[0])
}

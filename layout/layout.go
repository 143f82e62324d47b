// Package layout turns an expression tree into a tree of positioned boxes.
//
// All lengths are in em of the surrounding text with y increasing
// downwards: a box extends Height above its baseline and Depth below it.
// Children are positioned by the offset of their baseline origin from the
// origin of their parent.
package layout

import (
	"fmt"

	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/ir"
)

// Box kinds created by layout itself rather than for an expression node.
const (
	KindGlyph = "glyph"
	KindRule  = "rule"
	KindPath  = "path"
	KindLine  = "line"
	KindSpace = "space"
	KindGroup = "group"
)

// Box is a positioned rectangle.
type Box struct {
	// Node is the expression the box was built for; nil for boxes that only
	// draw part of one (a fraction bar, a glyph).
	Node ir.Node
	Kind string

	X, Y                 float64
	Width, Height, Depth float64

	// Glyph boxes draw Glyph at Scale em per 1000 font units.
	Glyph *fonts.Glyph
	Scale float64
	// Path boxes fill Path, given in 1/1000 em relative to the box origin.
	Path string
	// Color fills the box contents; empty inherits.
	Color string
	// Hidden boxes take up space but draw nothing.
	Hidden bool
	Attrs  Attrs

	Children []*Box

	left, right ir.Class
	// spaced reports whether the box takes part in inter-atom spacing.
	spaced bool
}

// Attrs are presentation attributes passed through to the output.
type Attrs struct {
	Class string
	ID    string
	CSS   string
	Href  string
	Title string
	// Package names the extension that produced the box.
	Package string
}

// Add positions c at (x, y) inside b.
func (b *Box) Add(c *Box, x, y float64) *Box {
	c.X, c.Y = x, y
	b.Children = append(b.Children, c)
	return c
}

// fit grows Height and Depth to cover every child.
func (b *Box) fit() {
	for _, c := range b.Children {
		b.Height = max(b.Height, c.Height-c.Y)
		b.Depth = max(b.Depth, c.Depth+c.Y)
	}
}

// Total is Height plus Depth.
func (b *Box) Total() float64 { return b.Height + b.Depth }

// Walk visits b and its descendants depth first.
func (b *Box) Walk(fn func(*Box)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Glyphs counts the glyph boxes under b.
func (b *Box) Glyphs() int {
	n := 0
	b.Walk(func(c *Box) {
		if c.Glyph != nil {
			n++
		}
	})
	return n
}

// Config controls a layout run.
type Config struct {
	// Display lays the root out in display style; otherwise text style.
	Display bool
	// MaxWidth in em breaks the top-level row at relations and binary
	// operators so no line exceeds it. Zero means unbounded.
	MaxWidth float64
	// Fonts defaults to fonts.Default().
	Fonts *fonts.Table
}

// Layout computes the box tree of n.
func Layout(n ir.Node, cfg Config) (*Box, error) {
	tab := cfg.Fonts
	if tab == nil {
		var err error
		if tab, err = fonts.Default(); err != nil {
			return nil, fmt.Errorf("layout: load fonts: %w", err)
		}
	}
	m := tab.Metrics()
	e := &engine{
		fonts:   tab,
		cfg:     cfg,
		xHeight: m.XHeight / fonts.UnitsPerEm,
	}
	st := state{style: ir.StyleText, size: 1}
	if cfg.Display {
		st.style = ir.StyleDisplay
	}
	if n == nil {
		n = &ir.Row{}
	}
	if row, ok := n.(*ir.Row); ok && !row.Group {
		return e.root(row, st)
	}
	b, err := e.node(n, st)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type engine struct {
	fonts   *fonts.Table
	cfg     Config
	xHeight float64
}

// state is what a node inherits from its ancestors.
type state struct {
	style   ir.Style
	cramped bool
	// size is the user size (\large) relative to normal text.
	size float64
	// middle is the size \middle delimiters stretch to; zero before the
	// enclosing \left..\right has been measured.
	middle float64
}

var styleScales = map[ir.Style]float64{
	ir.StyleDisplay:      1,
	ir.StyleText:         1,
	ir.StyleScript:       0.7,
	ir.StyleScriptScript: 0.5,
}

// scale is the font size of the state in em.
func (s state) scale() float64 { return s.size * styleScales[s.style] }

func (s state) script() bool { return s.style >= ir.StyleScript }

func (s state) with(style ir.Style) state {
	s.style = style
	return s
}

func (s state) crampedState() state {
	s.cramped = true
	return s
}

// sup is the style of superscripts and numerators.
func (s state) sup() state {
	switch s.style {
	case ir.StyleDisplay, ir.StyleText:
		return s.with(ir.StyleScript)
	}
	return s.with(ir.StyleScriptScript)
}

// sub is the style of subscripts and denominators.
func (s state) sub() state { return s.sup().crampedState() }

func (s state) fracNum() state {
	if s.style == ir.StyleDisplay {
		return s.with(ir.StyleText)
	}
	return s.sup()
}

func (s state) fracDen() state { return s.fracNum().crampedState() }

// Font parameters in em at text size. They scale with the style.
const (
	axisHeight    = 0.25
	ruleThickness = 0.04
	sup1          = 0.413
	sup2          = 0.363
	sup3          = 0.289
	sub1          = 0.15
	sub2          = 0.247
	supDrop       = 0.386
	subDrop       = 0.05
	num1          = 0.677
	num2          = 0.394
	num3          = 0.444
	denom1        = 0.686
	denom2        = 0.345
	bigOpSpacing1 = 0.111
	bigOpSpacing2 = 0.167
	bigOpSpacing3 = 0.2
	bigOpSpacing4 = 0.6
	bigOpSpacing5 = 0.1
	scriptSpace   = 0.05
	nullDelimiter = 0.12
	mu            = 1.0 / 18
	quad          = 1.0
)

func (e *engine) node(n ir.Node, st state) (*Box, error) {
	var (
		b   *Box
		err error
	)
	switch v := n.(type) {
	case *ir.Atom:
		b, err = e.atom(v, st)
	case *ir.Row:
		b, err = e.row(v, st)
	case *ir.Fraction:
		b, err = e.fraction(v, st)
	case *ir.Radical:
		b, err = e.radical(v, st)
	case *ir.Scripts:
		b, err = e.scripts(v, st)
	case *ir.Array:
		b, err = e.array(v, st)
	case *ir.Space:
		b = &Box{Kind: KindSpace, Width: v.Width * st.scale()}
	case *ir.Rule:
		sc := st.scale()
		b = ruleBox(v.Width*sc, v.Height*sc, v.Depth*sc)
		b.spaced = true
	case *ir.Styled:
		b, err = e.styled(v, st)
	case *ir.Text:
		b, err = e.text(v.Text, v.Variant, st)
	case *ir.Delimited:
		b, err = e.delimited(v, st)
	case *ir.Delimiter:
		b, err = e.standaloneDelimiter(v, st)
	case *ir.Accent:
		b, err = e.accent(v, st)
	case *ir.OverUnder:
		b, err = e.overUnder(v, st)
	case *ir.Arrow:
		b, err = e.arrow(v, st)
	case *ir.Enclose:
		b, err = e.enclose(v, st)
	case *ir.Phantom:
		b, err = e.phantom(v, st)
	case *ir.Extension:
		b, err = e.node(v.Body, st)
		if err == nil {
			b = wrap(b)
			b.Attrs.Package = v.Package
		}
	case *ir.Placeholder:
		b, err = e.placeholder(v, st)
	case *ir.Break:
		b = &Box{Kind: KindSpace}
	default:
		return nil, fmt.Errorf("layout: unsupported node %T", n)
	}
	if err != nil {
		return nil, err
	}
	if b.Node == nil {
		b.Node = n
		if b.Kind == "" || b.Kind == KindGroup {
			b.Kind = n.Kind()
		}
	}
	return b, nil
}

// wrap returns a group box holding c at its origin, so that c can carry its
// own node while the group carries another.
func wrap(c *Box) *Box {
	b := &Box{Kind: KindGroup, Width: c.Width, Height: c.Height, Depth: c.Depth, left: c.left, right: c.right, spaced: c.spaced}
	b.Add(c, 0, 0)
	return b
}

func ruleBox(w, h, d float64) *Box {
	return &Box{Kind: KindRule, Width: w, Height: h, Depth: d}
}

func (e *engine) styled(v *ir.Styled, st state) (*Box, error) {
	inner := st
	if v.Style != ir.StyleInherit {
		inner.style = v.Style
	}
	if v.Scale > 0 {
		inner.size = v.Scale
	}
	body, err := e.node(v.Body, inner)
	if err != nil {
		return nil, err
	}
	b := &Box{Kind: KindGroup, left: body.left, right: body.right, spaced: body.spaced}
	b.Color = v.Color
	b.Attrs = Attrs{Class: v.Class, ID: v.ID, CSS: v.CSS, Href: v.Href, Title: v.Tip}
	pad := v.Padding * inner.scale()
	if v.Background == "" && v.Border == "" {
		pad = 0
	}
	b.Width = body.Width + 2*pad
	b.Height = body.Height + pad
	b.Depth = body.Depth + pad
	if v.Background != "" {
		bg := ruleBox(b.Width, b.Height, b.Depth)
		bg.Color = v.Background
		b.Add(bg, 0, 0)
	}
	if v.Border != "" {
		p := fonts.NewPen(ruleThickness * inner.size * 1000)
		frame(p, 0, b.Width, b.Height, b.Depth)
		fb := pathBox(p, b.Width)
		fb.Color = v.Border
		b.Add(fb, 0, 0)
	}
	b.Add(body, pad, 0)
	return b, nil
}

func (e *engine) phantom(v *ir.Phantom, st state) (*Box, error) {
	body, err := e.node(v.Body, st)
	if err != nil {
		return nil, err
	}
	b := &Box{Kind: KindGroup, Height: body.Height, Depth: body.Depth, Width: body.Width, left: body.left, right: body.right, spaced: body.spaced}
	b.Hidden = v.Hidden
	x := 0.0
	if v.ZeroWidth {
		b.Width = 0
		switch v.Lap {
		case -1:
			x = -body.Width
		case 0:
			x = -body.Width / 2
		}
	}
	if v.ZeroHeight {
		b.Height = 0
	}
	if v.ZeroDepth {
		b.Depth = 0
	}
	b.Add(body, x, 0)
	return b, nil
}

func (e *engine) placeholder(v *ir.Placeholder, st state) (*Box, error) {
	b, err := e.text(v.Name, ir.VariantMonospace, st)
	if err != nil {
		return nil, err
	}
	b.Color = v.Color
	b.left, b.right, b.spaced = ir.ClassOrd, ir.ClassOrd, true
	return b, nil
}

package layout

import (
	"math"
	"slices"

	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/ir"
)

type pt = fonts.Point

// pathBox wraps the strokes of p as a box of width w em; its height and
// depth are the extent of the ink.
func pathBox(p *fonts.Pen, w float64) *Box { return outlineBox(p.Outline(), w) }

// shifted moves b down by dy inside a group of the same width.
func shifted(b *Box, dy float64) *Box {
	g := &Box{Kind: KindGroup, Width: b.Width}
	g.Add(b, 0, dy)
	g.fit()
	return g
}

// frame strokes a rectangle from x0 to x0+w spanning h above and d below
// the baseline, with p's line inside those bounds.
func frame(p *fonts.Pen, x0, w, h, d float64) {
	t := p.Width / 2
	x0, x1 := x0*1000+t, (x0+w)*1000-t
	y0, y1 := -h*1000+t, d*1000-t
	p.Closed(pt{X: x0, Y: y0}, pt{X: x1, Y: y0}, pt{X: x1, Y: y1}, pt{X: x0, Y: y1})
}

// delimiterTarget is the total size a delimiter needs to cover body
// symmetrically about the math axis.
func delimiterTarget(body *Box, st state) float64 {
	sc := st.scale()
	a := axisHeight * sc
	delta := max(body.Height-a, body.Depth+a)
	return max(delta*1.802, 2*delta-0.5*sc)
}

func (e *engine) delimited(d *ir.Delimited, st state) (*Box, error) {
	inner := st
	inner.middle = 0
	body, err := e.node(d.Body, inner)
	if err != nil {
		return nil, err
	}
	if hasMiddle(d.Body) {
		inner.middle = max(delimiterTarget(body, st), 1.2*st.scale())
		if body, err = e.node(d.Body, inner); err != nil {
			return nil, err
		}
	}
	return e.fence(body, d.Open, d.Close, st)
}

// hasMiddle reports whether n holds a \middle delimiter of its own, not
// one belonging to a nested \left..\right.
func hasMiddle(n ir.Node) bool {
	found := false
	ir.Walk(n, func(c ir.Node) bool {
		switch v := c.(type) {
		case *ir.Delimited:
			return false
		case *ir.Delimiter:
			if v.Size == 0 {
				found = true
			}
		}
		return !found
	})
	return found
}

func (e *engine) standaloneDelimiter(v *ir.Delimiter, st state) (*Box, error) {
	size := v.Size * st.size
	if v.Size == 0 {
		size = st.middle
	}
	b, err := e.delimiter(v.Char, size, st)
	if err != nil {
		return nil, err
	}
	b.left, b.right, b.spaced = v.Class, v.Class, true
	return b, nil
}

// delimiter draws char with a total height of at least size em. The
// font glyph serves while it is large enough; beyond that the shape is
// drawn, centred on the math axis.
func (e *engine) delimiter(char string, size float64, st state) (*Box, error) {
	sc := st.scale()
	if char == "" || char == "." {
		return &Box{Kind: KindSpace, Width: nullDelimiter * sc}, nil
	}
	g, err := e.glyphOf(char)
	if err != nil {
		return nil, err
	}
	if g != nil {
		gb := glyphBox(g, sc)
		if size <= gb.Total()*1.05 {
			b := &Box{Kind: KindGroup, Width: gb.Width}
			b.Add(gb, 0, 0)
			b.fit()
			return b, nil
		}
	}
	if b := stretchy(char, size, sc); b != nil {
		return b, nil
	}
	if g == nil {
		return e.text(char, ir.VariantNormal, st)
	}
	// No drawn form: magnify the glyph about the axis.
	gb := glyphBox(g, sc)
	k := size / max(gb.Total(), 0.01)
	big := glyphBox(g, sc*k)
	b := &Box{Kind: KindGroup, Width: big.Width}
	b.Add(big, 0, -axisHeight*sc-(big.Depth-big.Height)/2)
	b.fit()
	return b, nil
}

// stretchy draws the delimiters with a known extensible shape, or
// returns nil.
func stretchy(char string, size, sc float64) *Box {
	H := size * 1000
	mid := -axisHeight * sc * 1000
	top, bot := mid-H/2, mid+H/2
	grow := min(size/sc, 4)
	pad := 0.08 * sc * 1000
	thin := 0.05 * sc * 1000

	w := (0.3 + 0.05*grow) * sc
	W := w * 1000
	p := fonts.NewPen(thin)
	mirror := false
	switch char {
	case "(", ")":
		p.Width = 0.07 * sc * 1000
		rx := (W - 2*pad) / (1 - math.Cos(70*math.Pi/180))
		ry := (H/2 - p.Width/2) / math.Sin(70*math.Pi/180)
		p.Arc(pad+rx, mid, rx, ry, 110, 250)
		mirror = char == ")"
	case "[", "]":
		w = (0.28 + 0.02*grow) * sc
		W = w * 1000
		x := pad + thin/2
		p.Polyline(pt{X: W - pad, Y: top + thin/2}, pt{X: x, Y: top + thin/2}, pt{X: x, Y: bot - thin/2}, pt{X: W - pad, Y: bot - thin/2})
		mirror = char == "]"
	case "⌈", "⌉":
		x := pad + thin/2
		p.Polyline(pt{X: W - pad, Y: top + thin/2}, pt{X: x, Y: top + thin/2}, pt{X: x, Y: bot})
		mirror = char == "⌉"
	case "⌊", "⌋":
		x := pad + thin/2
		p.Polyline(pt{X: x, Y: top}, pt{X: x, Y: bot - thin/2}, pt{X: W - pad, Y: bot - thin/2})
		mirror = char == "⌋"
	case "{", "}":
		w = (0.4 + 0.05*grow) * sc
		W = w * 1000
		xs := W / 2
		c := min(0.15*sc*1000, H/8)
		p.Width = 0.06 * sc * 1000
		p.Polyline(
			pt{X: W - pad, Y: top + p.Width/2}, pt{X: xs, Y: top + c}, pt{X: xs, Y: mid - c},
			pt{X: pad, Y: mid},
			pt{X: xs, Y: mid + c}, pt{X: xs, Y: bot - c}, pt{X: W - pad, Y: bot - p.Width/2},
		)
		mirror = char == "}"
	case "⟨", "⟩", "<", ">":
		p.Polyline(pt{X: W - pad, Y: top}, pt{X: pad, Y: mid}, pt{X: W - pad, Y: bot})
		mirror = char == "⟩" || char == ">"
	case "|", "∣":
		w = 0.28 * sc
		W = w * 1000
		p.Line(W/2, top, W/2, bot)
	case "‖", "∥":
		w = 0.45 * sc
		W = w * 1000
		p.Line(W/2-0.08*sc*1000, top, W/2-0.08*sc*1000, bot)
		p.Line(W/2+0.08*sc*1000, top, W/2+0.08*sc*1000, bot)
	case "/", "\\":
		w = max(0.5*sc, size*0.35)
		W = w * 1000
		p.Line(pad, bot, W-pad, top)
		mirror = char == "\\"
	case "↑", "↓", "↕", "⇑", "⇓", "⇕":
		w = 0.6 * sc
		W = w * 1000
		o := fonts.ArrowStyle{
			Left:   char != "↓" && char != "⇓",
			Right:  char != "↑" && char != "⇑",
			Double: char == "⇑" || char == "⇓" || char == "⇕",
			Scale:  sc,
		}
		q := fonts.NewPen(thin)
		fonts.DrawArrow(q, top, bot, 0, o)
		out := q.Outline().Transformed(fonts.Rotate(90, 0, 0).Then(fonts.Translate(W/2, 0)))
		return outlineBox(out, w)
	default:
		return nil
	}
	out := p.Outline()
	if mirror {
		out = out.Transformed(fonts.Scale(-1, 1, W/2, 0))
	}
	return outlineBox(out, w)
}

func outlineBox(o fonts.Outline, w float64) *Box {
	r := o.Bounds()
	return &Box{
		Kind:   KindPath,
		Path:   o.Path(),
		Width:  w,
		Height: max(0, -r.MinY/fonts.UnitsPerEm),
		Depth:  max(0, r.MaxY/fonts.UnitsPerEm),
	}
}

// arrowStyles maps extensible arrows to the shapes drawn for them.
var arrowStyles = map[ir.ArrowKind]fonts.ArrowStyle{
	ir.ArrowRight:        {Right: true},
	ir.ArrowLeft:         {Left: true},
	ir.ArrowLeftRight:    {Left: true, Right: true},
	ir.ArrowMapsTo:       {Right: true, Bar: true},
	ir.ArrowTwoHeadRight: {Right: true, TwoHead: true},
	ir.ArrowTwoHeadLeft:  {Left: true, TwoHead: true},
	ir.ArrowUp:           {Left: true},
	ir.ArrowDown:         {Right: true},
}

// arrow lays out an extensible arrow with its labels. Horizontal arrows
// sit on the math axis with labels above and below; vertical ones span
// the axis with labels left and right.
func (e *engine) arrow(a *ir.Arrow, st state) (*Box, error) {
	sc := st.scale()
	var over, under *Box
	var err error
	if a.Over != nil {
		if over, err = e.node(a.Over, st.sup()); err != nil {
			return nil, err
		}
	}
	if a.Under != nil {
		if under, err = e.node(a.Under, st.sub()); err != nil {
			return nil, err
		}
	}
	width := func(b *Box) float64 {
		if b == nil {
			return 0
		}
		return b.Width
	}
	theta := ruleThickness * sc * 1000
	gap := 0.08 * sc

	switch a.Arrow {
	case ir.ArrowUp, ir.ArrowDown, ir.ArrowVertEqual:
		L := max(a.MinWidth*sc, 1.5*sc)
		if over != nil {
			L = max(L, over.Total()+0.4*sc)
		}
		if under != nil {
			L = max(L, under.Total()+0.4*sc)
		}
		aw := 0.6 * sc
		mid := -axisHeight * sc
		top, bot := (mid-L/2)*1000, (mid+L/2)*1000
		q := fonts.NewPen(theta)
		if a.Arrow == ir.ArrowVertEqual {
			q.Line(top, -0.08*sc*1000, bot, -0.08*sc*1000)
			q.Line(top, 0.08*sc*1000, bot, 0.08*sc*1000)
		} else {
			fonts.DrawArrow(q, top, bot, 0, withScale(arrowStyles[a.Arrow], sc))
		}
		x := 0.0
		b := &Box{left: ir.ClassOrd, right: ir.ClassOrd, spaced: true}
		if over != nil {
			b.Add(over, 0, mid+(over.Height-over.Depth)/2)
			x = over.Width + gap
		}
		out := q.Outline().Transformed(fonts.Rotate(90, 0, 0).Then(fonts.Translate((x+aw/2)*1000, 0)))
		ab := outlineBox(out, 0)
		b.Add(ab, 0, 0)
		x += aw
		if under != nil {
			b.Add(under, x+gap, mid+(under.Height-under.Depth)/2)
			x += gap + under.Width
		}
		b.Width = x
		b.fit()
		return b, nil
	}

	L := max(a.MinWidth*sc, width(over)+0.8*sc, width(under)+0.8*sc, sc)
	y := -axisHeight * sc * 1000
	q := fonts.NewPen(theta)
	x0, x1 := 0.06*sc*1000, (L-0.06*sc)*1000
	switch a.Arrow {
	case ir.ArrowEqual:
		q.Line(x0, y-0.08*sc*1000, x1, y-0.08*sc*1000)
		q.Line(x0, y+0.08*sc*1000, x1, y+0.08*sc*1000)
	case ir.ArrowToFrom:
		fonts.DrawArrow(q, x0, x1, y-0.1*sc*1000, fonts.ArrowStyle{Right: true, Scale: 0.8 * sc})
		fonts.DrawArrow(q, x0, x1, y+0.1*sc*1000, fonts.ArrowStyle{Left: true, Scale: 0.8 * sc})
	default:
		fonts.DrawArrow(q, x0, x1, y, withScale(arrowStyles[a.Arrow], sc))
	}
	ab := pathBox(q, L)
	b := &Box{Width: L, left: ir.ClassRel, right: ir.ClassRel, spaced: true}
	b.Add(ab, 0, 0)
	if over != nil {
		b.Add(over, (L-over.Width)/2, -ab.Height-gap-over.Depth)
	}
	if under != nil {
		b.Add(under, (L-under.Width)/2, ab.Depth+gap+under.Height)
	}
	b.fit()
	return b, nil
}

func withScale(o fonts.ArrowStyle, sc float64) fonts.ArrowStyle {
	o.Scale = sc
	return o
}

// framed lists notations that add padding around the body.
var framed = map[string]bool{
	"box": true, "roundedbox": true, "circle": true, "left": true, "right": true,
	"top": true, "bottom": true, "madruwb": true, "radical": true, "longdiv": true,
	"actuarial": true, "updiagonalarrow": true,
}

// enclose draws the notations of v around its body.
func (e *engine) enclose(v *ir.Enclose, st state) (*Box, error) {
	sc := st.scale()
	body, err := e.node(v.Body, st)
	if err != nil {
		return nil, err
	}
	pad := 0.0
	for _, n := range v.Notations {
		if framed[n] {
			pad = 0.2 * sc
		}
	}
	theta := 0.05 * sc
	W, H, D := body.Width+2*pad, body.Height+pad, body.Depth+pad
	bx := pad
	if slices.Contains(v.Notations, "circle") {
		// The ellipse through the corners of the padded body.
		W2, T2 := W*math.Sqrt2, (H+D)*math.Sqrt2
		bx += (W2 - W) / 2
		H += (T2 - H - D) / 2
		D = T2 - H
		W = W2
	}
	left := 0.0
	if slices.Contains(v.Notations, "longdiv") || slices.Contains(v.Notations, "radical") {
		left = 0.3 * sc
		bx += left
		W += left
	}
	T := theta * 1000
	x0, x1 := 0.0, W*1000
	top, bot := -H*1000+T/2, D*1000-T/2
	p := fonts.NewPen(T)
	b := &Box{left: ir.ClassOrd, right: ir.ClassOrd, spaced: true, Width: W}
	var target *Box
	for _, n := range v.Notations {
		switch n {
		case "box":
			frame(p, 0, W, H, D)
		case "roundedbox":
			r := min(0.25*sc*1000, (H+D)*250, W*250)
			l, rr := x0+T/2, x1-T/2
			p.Line(l+r, top, rr-r, top)
			p.Line(l+r, bot, rr-r, bot)
			p.Line(l, top+r, l, bot-r)
			p.Line(rr, top+r, rr, bot-r)
			p.Arc(l+r, top+r, r, r, 180, 270)
			p.Arc(rr-r, top+r, r, r, 270, 360)
			p.Arc(rr-r, bot-r, r, r, 0, 90)
			p.Arc(l+r, bot-r, r, r, 90, 180)
		case "circle":
			p.Circle(x1/2, (top+bot)/2, x1/2-T/2, (bot-top)/2)
		case "left":
			p.Line(x0+T/2, top-T/2, x0+T/2, bot+T/2)
		case "right":
			p.Line(x1-T/2, top-T/2, x1-T/2, bot+T/2)
		case "top":
			p.Line(x0, top, x1, top)
		case "bottom":
			p.Line(x0, bot, x1, bot)
		case "updiagonalstrike":
			p.Line(x0, bot, x1, top)
		case "downdiagonalstrike":
			p.Line(x0, top, x1, bot)
		case "verticalstrike":
			p.Line(x1/2, top, x1/2, bot)
		case "horizontalstrike":
			p.Line(x0, (top+bot)/2, x1, (top+bot)/2)
		case "madruwb":
			p.Polyline(pt{X: x1 - T/2, Y: top}, pt{X: x1 - T/2, Y: bot}, pt{X: x0, Y: bot})
		case "actuarial":
			p.Polyline(pt{X: x0, Y: top}, pt{X: x1 - T/2, Y: top}, pt{X: x1 - T/2, Y: bot})
		case "longdiv":
			l := left * 1000
			p.Arc(-l*0.4, (top+bot)/2, l*0.4+l*0.6, (bot-top)/2, -60, 60)
			p.Line(l*0.45, top, x1, top)
		case "radical":
			l := left * 1000
			p.Polyline(
				pt{X: 0, Y: (top + bot) / 2}, pt{X: l * 0.3, Y: (top + bot) / 2 - T},
				pt{X: l * 0.6, Y: bot}, pt{X: l, Y: top}, pt{X: x1, Y: top},
			)
		case "updiagonalarrow":
			L := math.Hypot(x1, bot-top)
			q := fonts.NewPen(T)
			fonts.DrawArrow(q, 0, L, 0, fonts.ArrowStyle{Right: true, Scale: sc})
			deg := math.Atan2(bot-top, x1) * 180 / math.Pi
			b.Add(outlineBox(q.Outline().Transformed(fonts.Rotate(-deg, 0, 0).Then(fonts.Translate(0, bot))), 0), 0, 0)
			if v.Target != nil {
				if target, err = e.node(v.Target, st.sup()); err != nil {
					return nil, err
				}
			}
		}
	}
	pb := pathBox(p, W)
	pb.Color = v.Color
	for _, c := range b.Children {
		c.Color = v.Color
	}
	b.Add(pb, 0, 0)
	b.Add(body, bx, 0)
	if target != nil {
		b.Add(target, W+0.05*sc, -H-0.05*sc-target.Depth)
		b.Width = W + 0.05*sc + target.Width
	}
	b.fit()
	b.Height = max(b.Height, H)
	b.Depth = max(b.Depth, D)
	return b, nil
}

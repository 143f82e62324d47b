package layout

import (
	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/ir"
)

func (e *engine) fraction(f *ir.Fraction, st state) (*Box, error) {
	if f.Style != ir.StyleInherit {
		st.style = f.Style
	}
	sc := st.scale()
	num, err := e.node(f.Num, st.fracNum())
	if err != nil {
		return nil, err
	}
	den, err := e.node(f.Den, st.fracDen())
	if err != nil {
		return nil, err
	}

	theta := ruleThickness * sc
	if f.Thickness >= 0 {
		theta = f.Thickness * sc
	}
	axis := axisHeight * sc
	var u, v, phi float64
	if st.style == ir.StyleDisplay {
		u, v, phi = num1*sc, denom1*sc, 3*theta
	} else {
		u, v, phi = num2*sc, denom2*sc, theta
		if theta == 0 {
			u = num3 * sc
		}
	}
	if theta == 0 {
		clr := 3 * ruleThickness * sc
		if st.style == ir.StyleDisplay {
			clr = 7 * ruleThickness * sc
		}
		if gap := (u - num.Depth) - (den.Height - v); gap < clr {
			u += (clr - gap) / 2
			v += (clr - gap) / 2
		}
	} else {
		if gap := (u - num.Depth) - (axis + theta/2); gap < phi {
			u += phi - gap
		}
		if gap := (axis - theta/2) - (den.Height - v); gap < phi {
			v += phi - gap
		}
	}

	pad := nullDelimiter * sc
	inner := max(num.Width, den.Width)
	b := &Box{Width: inner + 2*pad, left: ir.ClassInner, right: ir.ClassInner, spaced: true}
	b.Add(num, pad+(inner-num.Width)/2, -u)
	b.Add(den, pad+(inner-den.Width)/2, v)
	if theta > 0 {
		b.Add(ruleBox(inner, theta/2, theta/2), pad, -axis)
	}
	b.fit()

	if f.Open == "" && f.Close == "" {
		return b, nil
	}
	return e.fence(b, f.Open, f.Close, st)
}

// fence surrounds body with delimiters stretched to cover it.
func (e *engine) fence(body *Box, open, close string, st state) (*Box, error) {
	size := delimiterTarget(body, st)
	l, err := e.delimiter(open, size, st)
	if err != nil {
		return nil, err
	}
	r, err := e.delimiter(close, size, st)
	if err != nil {
		return nil, err
	}
	b := &Box{Kind: KindGroup, left: ir.ClassInner, right: ir.ClassInner, spaced: true}
	b.Add(l, 0, 0)
	b.Add(body, l.Width, 0)
	b.Add(r, l.Width+body.Width, 0)
	b.Width = l.Width + body.Width + r.Width
	b.fit()
	return b, nil
}

func (e *engine) radical(r *ir.Radical, st state) (*Box, error) {
	sc := st.scale()
	body, err := e.node(r.Body, st.crampedState())
	if err != nil {
		return nil, err
	}
	theta := ruleThickness * sc
	phi := theta
	if st.style == ir.StyleDisplay {
		phi = e.xHeight * sc
	}
	psi := theta + phi/4
	top := body.Height + psi + theta
	bottom := max(body.Depth, 0.1*sc)
	h := top + bottom

	surd := e.surd(h, theta, sc)
	b := &Box{left: ir.ClassOrd, right: ir.ClassOrd, spaced: true}
	x := 0.0
	if r.Index != nil {
		idx, err := e.node(r.Index, st.with(ir.StyleScriptScript))
		if err != nil {
			return nil, err
		}
		x = 5 * mu * sc
		lift := 0.6*h - bottom
		b.Add(idx, x, -lift-idx.Depth)
		x = max(x+idx.Width-10*mu*sc, 0.05*sc)
	}
	b.Add(surd, x, -top)
	x += surd.Width
	b.Add(body, x, 0)
	x += body.Width
	b.Add(ruleBox(body.Width+0.05*sc, theta, 0), x-body.Width, -(top - theta))
	b.Width = x + 0.05*sc
	b.fit()
	return b, nil
}

// surd draws the root sign for a radicand of total height h. The returned
// box has its origin at the top of the sign.
func (e *engine) surd(h, theta, sc float64) *Box {
	w := (0.55 + 0.08*min(h/sc, 4)) * sc
	p := fonts.NewPen(theta * 1000)
	u := func(x, y float64) fonts.Point { return fonts.Point{X: x * 1000, Y: y * 1000} }
	tick := 0.5 * h
	p.Polyline(u(0.05*sc, tick+0.05*sc), u(0.18*sc, tick-0.02*sc))
	thick := fonts.NewPen(2 * theta * 1000)
	thick.Line(0.18*sc*1000, (tick-0.02*sc)*1000, 0.4*sc*1000, h*1000)
	p.Polyline(u(0.4*sc, h), u(w, theta/2))
	out := p.Outline()
	out.Add(thick.Outline())
	return &Box{Kind: KindPath, Path: out.Path(), Width: w, Depth: h}
}

func (e *engine) scripts(s *ir.Scripts, st state) (*Box, error) {
	if a, ok := s.Nucleus.(*ir.Atom); ok && a.Large {
		limits := s.Limits
		if limits == ir.LimitsAuto {
			limits = a.Limits
		}
		if limits == ir.LimitsAlways || limits == ir.LimitsAuto && st.style == ir.StyleDisplay {
			nuc, err := e.node(s.Nucleus, st)
			if err != nil {
				return nil, err
			}
			return e.limits(nuc, s.Sup, s.Sub, st)
		}
	}

	var (
		nuc *Box
		err error
	)
	if s.Nucleus != nil {
		if nuc, err = e.node(s.Nucleus, st); err != nil {
			return nil, err
		}
	} else {
		nuc = &Box{Kind: KindGroup}
	}
	sc := st.scale()
	supSt, subSt := st.sup(), st.sub()
	char := isCharBox(nuc)
	var u, v float64
	if !char {
		u = nuc.Height - supDrop*supSt.scale()
		v = nuc.Depth + subDrop*subSt.scale()
	}

	var sup, sub *Box
	if s.Sup != nil {
		if sup, err = e.node(s.Sup, supSt); err != nil {
			return nil, err
		}
		p := sup2 * sc
		switch {
		case st.style == ir.StyleDisplay && !st.cramped:
			p = sup1 * sc
		case st.cramped:
			p = sup3 * sc
		}
		u = max(u, p, sup.Depth+e.xHeight*sc/4)
	}
	if s.Sub != nil {
		if sub, err = e.node(s.Sub, subSt); err != nil {
			return nil, err
		}
		if sup == nil {
			v = max(v, sub1*sc, sub.Height-e.xHeight*sc*4/5)
		} else {
			v = max(v, sub2*sc)
			// The gap correction fixes u+v, so styles only differ in height
			// through the minimum gap; text style packs scripts tighter.
			minGap := 4 * ruleThickness * sc
			if st.style != ir.StyleDisplay {
				minGap = 3 * ruleThickness * sc
			}
			if gap := (u - sup.Depth) - (sub.Height - v); gap < minGap {
				v += minGap - gap
				if psi := e.xHeight*sc*4/5 - (u - sup.Depth); psi > 0 {
					u += psi
					v -= psi
				}
			}
		}
	}

	b := &Box{left: nuc.left, right: nuc.right, spaced: nuc.spaced}
	if !b.spaced {
		b.left, b.right, b.spaced = ir.ClassOrd, ir.ClassOrd, true
	}
	b.Add(nuc, 0, 0)
	x := nuc.Width
	w := x
	if sup != nil {
		b.Add(sup, x+italicCorrection(nuc), -u)
		w = max(w, x+italicCorrection(nuc)+sup.Width)
	}
	if sub != nil {
		b.Add(sub, x, v)
		w = max(w, x+sub.Width)
	}
	b.Width = w + scriptSpace*sc
	b.fit()
	return b, nil
}

// isCharBox reports whether b is a single glyph, whose scripts TeX places
// by the font parameters alone.
func isCharBox(b *Box) bool {
	return b.Kind != KindGroup && len(b.Children) == 1 && b.Children[0].Glyph != nil
}

// limits stacks sup above and sub below an operator.
func (e *engine) limits(nuc *Box, supN, subN ir.Node, st state) (*Box, error) {
	sc := st.scale()
	var sup, sub *Box
	var err error
	if supN != nil {
		if sup, err = e.node(supN, st.sup()); err != nil {
			return nil, err
		}
	}
	if subN != nil {
		if sub, err = e.node(subN, st.sub()); err != nil {
			return nil, err
		}
	}
	w := nuc.Width
	if sup != nil {
		w = max(w, sup.Width)
	}
	if sub != nil {
		w = max(w, sub.Width)
	}
	b := &Box{Width: w, left: nuc.left, right: nuc.right, spaced: true}
	b.Add(nuc, (w-nuc.Width)/2, 0)
	b.fit()
	if sup != nil {
		gap := max(bigOpSpacing1*sc, bigOpSpacing3*sc-sup.Depth)
		b.Add(sup, (w-sup.Width)/2, -(nuc.Height + gap + sup.Depth))
		b.Height = nuc.Height + gap + sup.Total() + bigOpSpacing5*sc
	}
	if sub != nil {
		gap := max(bigOpSpacing2*sc, bigOpSpacing4*sc-sub.Height)
		b.Add(sub, (w-sub.Width)/2, nuc.Depth+gap+sub.Height)
		b.Depth = nuc.Depth + gap + sub.Total() + bigOpSpacing5*sc
	}
	return b, nil
}

func (e *engine) overUnder(o *ir.OverUnder, st state) (*Box, error) {
	if a, ok := o.Nucleus.(*ir.Atom); ok && a.Large && o.OverDecor == ir.DecorNone && o.UnderDecor == ir.DecorNone {
		nuc, err := e.node(o.Nucleus, st)
		if err != nil {
			return nil, err
		}
		return e.limits(nuc, o.Over, o.Under, st)
	}
	sc := st.scale()
	nuc, err := e.node(o.Nucleus, st)
	if err != nil {
		return nil, err
	}
	var over, under *Box
	if o.Over != nil {
		if over, err = e.node(o.Over, st.sup()); err != nil {
			return nil, err
		}
	}
	if o.Under != nil {
		if under, err = e.node(o.Under, st.sub()); err != nil {
			return nil, err
		}
	}
	w := nuc.Width
	for _, c := range []*Box{over, under} {
		if c != nil {
			w = max(w, c.Width)
		}
	}
	b := &Box{Width: w, left: nuc.left, right: nuc.right, spaced: nuc.spaced}
	if !b.spaced {
		b.left, b.right, b.spaced = ir.ClassOrd, ir.ClassOrd, true
	}
	b.Add(nuc, (w-nuc.Width)/2, 0)
	theta := ruleThickness * sc
	top := nuc.Height
	if o.OverDecor != ir.DecorNone {
		d := e.decoration(o.OverDecor, nuc.Width, theta, sc, false)
		top += 3 * theta
		b.Add(d, (w-nuc.Width)/2, -(top + d.Depth))
		top += d.Total()
	}
	if over != nil {
		top += bigOpSpacing1 * sc
		b.Add(over, (w-over.Width)/2, -(top + over.Depth))
		top += over.Total()
	}
	bottom := nuc.Depth
	if o.UnderDecor != ir.DecorNone {
		d := e.decoration(o.UnderDecor, nuc.Width, theta, sc, true)
		bottom += 3 * theta
		b.Add(d, (w-nuc.Width)/2, bottom+d.Height)
		bottom += d.Total()
	}
	if under != nil {
		bottom += bigOpSpacing2 * sc
		b.Add(under, (w-under.Width)/2, bottom+under.Height)
		bottom += under.Total()
	}
	b.fit()
	b.Height = max(b.Height, top)
	b.Depth = max(b.Depth, bottom)
	return b, nil
}

// decoration draws a line, brace or arrow of width w. Boxes have their
// origin on the bottom edge of the shape, or the top edge when under.
func (e *engine) decoration(d ir.Decoration, w, theta, sc float64, under bool) *Box {
	var pb *Box
	switch d {
	case ir.DecorLine:
		if under {
			return ruleBox(w, 0, theta)
		}
		return ruleBox(w, theta, 0)
	case ir.DecorBrace:
		p := fonts.NewPen(theta * 1.5 * 1000)
		horizontalBrace(p, w*1000, 0.22*sc*1000, under)
		pb = pathBox(p, w)
	default:
		p := fonts.NewPen(theta * 1000)
		fonts.DrawArrow(p, 0, w*1000, 0, arrowEnds(d, sc))
		pb = pathBox(p, w)
	}
	if under {
		return shifted(pb, pb.Height)
	}
	return shifted(pb, -pb.Depth)
}

func arrowEnds(d ir.Decoration, sc float64) fonts.ArrowStyle {
	switch d {
	case ir.DecorArrowLeft:
		return fonts.ArrowStyle{Left: true, Scale: sc}
	case ir.DecorArrowBoth:
		return fonts.ArrowStyle{Left: true, Right: true, Scale: sc}
	}
	return fonts.ArrowStyle{Right: true, Scale: sc}
}

// horizontalBrace draws a brace spanning w units, opening downwards (over
// material) unless under.
func horizontalBrace(p *fonts.Pen, w, h float64, under bool) {
	y0, y1 := h, 0.0 // tips and spine when the brace sits over material
	if under {
		y0, y1 = 0, h
	}
	ym := (y0 + y1) / 2
	pt := func(x, y float64) fonts.Point { return fonts.Point{X: x, Y: y} }
	c := min(h, w/4)
	p.Polyline(
		pt(0, y0), pt(c/2, ym), pt(c, y1*0.5+ym*0.5),
		pt(w/2-c, y1*0.5+ym*0.5), pt(w/2, y1),
		pt(w/2+c, y1*0.5+ym*0.5), pt(w-c, y1*0.5+ym*0.5), pt(w-c/2, ym), pt(w, y0),
	)
}

// accentMarks are the spacing accent characters of the Go fonts.
var accentMarks = map[string]rune{
	"hat": 'ˆ', "check": 'ˇ', "tilde": '˜', "acute": '´', "grave": '`',
	"dot": '˙', "ddot": '¨', "breve": '˘', "bar": '¯', "ring": '˚',
}

func (e *engine) accent(a *ir.Accent, st state) (*Box, error) {
	sc := st.scale()
	base, err := e.node(a.Base, st.crampedState())
	if err != nil {
		return nil, err
	}
	var mark *Box
	switch {
	case a.Wide && (a.Mark == "hat" || a.Mark == "tilde") && base.Width > 0.6*sc:
		mark = wideMark(a.Mark, base.Width, sc)
	case a.Mark == "vec":
		p := fonts.NewPen(ruleThickness * sc * 1000)
		y := -(e.xHeight*sc + 0.18*sc)
		fonts.DrawArrow(p, 0, 0.45*sc*1000, y*1000, fonts.ArrowStyle{Right: true, Scale: 0.6 * sc})
		mark = pathBox(p, 0.45*sc)
	default:
		r, ok := accentMarks[a.Mark]
		if !ok {
			r = '^'
		}
		g, err := e.fonts.Glyph(ir.VariantNormal, r)
		if err != nil {
			return nil, err
		}
		// Centre the ink, not the advance.
		k := sc / fonts.UnitsPerEm
		inner := glyphBox(g, sc)
		mark = &Box{Kind: KindGroup, Width: (g.Bounds.MaxX - g.Bounds.MinX) * k, Height: inner.Height, Depth: inner.Depth}
		mark.Add(inner, -g.Bounds.MinX*k, 0)
	}

	b := &Box{Width: base.Width, left: base.left, right: base.right, spaced: base.spaced}
	if !b.spaced {
		b.left, b.right, b.spaced = ir.ClassOrd, ir.ClassOrd, true
	}
	b.Add(base, 0, 0)
	skew := 0.0
	if isCharBox(base) {
		skew = italicCorrection(base) / 2
	}
	x := (base.Width-mark.Width)/2 + skew
	if a.Under {
		b.Add(mark, x, base.Depth+mark.Height+0.05*sc)
	} else {
		// Accents sit at x-height in the font; raise them over taller bases.
		lift := max(0, base.Height-e.xHeight*sc)
		if mark.Kind == KindPath && a.Wide {
			lift = base.Height + 0.08*sc
		}
		b.Add(mark, x, -lift)
	}
	b.fit()
	return b, nil
}

// wideMark draws a hat or tilde spanning w em.
func wideMark(name string, w, sc float64) *Box {
	h := min(0.12+0.03*w/sc, 0.3) * sc
	p := fonts.NewPen(ruleThickness * sc * 1000)
	W, H := w*1000, h*1000
	if name == "hat" {
		p.Polyline(fonts.Point{X: 0, Y: 0}, fonts.Point{X: W / 2, Y: -H}, fonts.Point{X: W, Y: 0})
	} else {
		p.Arc(W/4, -H/2, W/4, H/2, 180, 360)
		p.Arc(3*W/4, -H/2, W/4, H/2, 0, 180)
	}
	return pathBox(p, w)
}

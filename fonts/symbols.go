package fonts

import (
	"fmt"
	"math"
)

// Geometry of the synthesized symbols, in font units with y down.
const (
	axis   = -250.0 // math axis
	stroke = 66.0   // stem width, close to the rules of Go Regular
	relTop = axis - 270
	relBot = axis + 270
)

// aliases draws a rune with the glyph of a close relative when a face
// lacks it: variant letterforms and operator forms of ASCII characters.
var aliases = map[rune]rune{
	'ϑ': 'θ', 'ϕ': 'φ', 'ϖ': 'π', 'ϱ': 'ρ', 'ϵ': 'ε', 'ȷ': 'j',
	'ℏ': 'ħ', 'ℑ': 'I', 'ℜ': 'R', '℘': 'p',
	'∗': '*', '∖': '\\', '∣': '|', '∼': '~', '◯': '○', '⨿': '∐',
}

type draft struct {
	b   *symbolBuilder
	pen *Pen
	out Outline
}

// use adds the glyph of r moved by t.
func (d *draft) use(r rune, t Transform) {
	if g := d.b.glyph(r); g != nil {
		d.out.Add(g.Outline.Transformed(t))
	}
}

// place adds the glyph of r scaled by s with its box centred on (cx, cy),
// and returns the resulting box.
func (d *draft) place(r rune, cx, cy, s float64) Rect {
	g := d.b.glyph(r)
	if g == nil {
		return Rect{}
	}
	bb := g.Bounds
	t := Scale(s, s, (bb.MinX+bb.MaxX)/2, (bb.MinY+bb.MaxY)/2).
		Then(Translate(cx-(bb.MinX+bb.MaxX)/2, cy-(bb.MinY+bb.MaxY)/2))
	o := g.Outline.Transformed(t)
	d.out.Add(o)
	return o.Bounds()
}

func (d *draft) outline() Outline {
	var o Outline
	o.Add(d.out)
	o.Add(d.pen.Outline())
	return o
}

type symbolDef struct {
	r    rune
	adv  float64
	draw func(d *draft)
}

func pt(x, y float64) Point { return Point{x, y} }

// mirrored draws r flipped left to right within advance adv.
func mirrored(r rune, adv float64) func(*draft) {
	return func(d *draft) { d.use(r, Scale(-1, 1, adv/2, 0)) }
}

// flipped draws r upside down about the math axis.
func flipped(r rune) func(*draft) {
	return func(d *draft) {
		d.use(r, Scale(1, -1, 0, axis))
		d.b.widths[d.current()] = d.b.advance(r)
	}
}

// slashed draws r with the negation stroke through it.
func slashed(r rune, adv float64) func(*draft) {
	return func(d *draft) {
		d.use(r, Identity)
		cx := adv / 2
		d.pen.Line(cx+140, axis-390, cx-140, axis+390)
	}
}

func mark(draw func(p *Pen)) func(*draft) {
	return func(d *draft) { draw(d.pen) }
}

// ArrowStyle selects the ends of an arrow drawn by DrawArrow.
type ArrowStyle struct {
	Double    bool // two rails (⇒)
	Left      bool // head at x0
	Right     bool // head at x1
	TwoHead   bool // second head behind the first (↠)
	Bar       bool // bar at x0 (↦)
	Harpoon   int  // -1 upper barb only, 1 lower barb only
	HookLeft  bool
	HookRight bool
	// Scale sizes the heads relative to text size; zero means 1.
	Scale float64
}

// DrawArrow strokes a horizontal arrow from x0 to x1 on the line y.
func DrawArrow(p *Pen, x0, x1, y float64, o ArrowStyle) {
	s := o.Scale
	if s == 0 {
		s = 1
	}
	if o.Double {
		gap, hl, hh := 110*s, 260*s, 280*s
		s0, s1 := x0, x1
		if o.Left {
			s0 += 150 * s
			p.Polyline(pt(x0+hl, y-hh), pt(x0, y), pt(x0+hl, y+hh))
		}
		if o.Right {
			s1 -= 150 * s
			p.Polyline(pt(x1-hl, y-hh), pt(x1, y), pt(x1-hl, y+hh))
		}
		p.Line(s0, y-gap, s1, y-gap)
		p.Line(s0, y+gap, s1, y+gap)
		return
	}
	hl, hh := 210*s, 170*s
	p.Line(x0, y, x1, y)
	head := func(tip, dir float64) {
		switch o.Harpoon {
		case -1:
			p.Polyline(pt(tip-dir*hl, y-hh), pt(tip, y))
		case 1:
			p.Polyline(pt(tip, y), pt(tip-dir*hl, y+hh))
		default:
			p.Polyline(pt(tip-dir*hl, y-hh), pt(tip, y), pt(tip-dir*hl, y+hh))
		}
	}
	if o.Left {
		head(x0, -1)
		if o.TwoHead {
			head(x0+150*s, -1)
		}
	}
	if o.Right {
		head(x1, 1)
		if o.TwoHead {
			head(x1-150*s, 1)
		}
	}
	if o.Bar {
		p.Line(x0, y-200*s, x0, y+200*s)
	}
	if o.HookRight {
		p.Arc(x1, y-110*s, 110*s, 110*s, -90, 90)
	}
	if o.HookLeft {
		p.Arc(x0, y-110*s, 110*s, 110*s, 90, 270)
	}
}

func arrow(x0, x1 float64, o ArrowStyle) func(*draft) {
	return func(d *draft) { DrawArrow(d.pen, x0, x1, axis, o) }
}

// rotatedArrow draws a 900 unit arrow centred on (cx, axis), turned by deg.
func rotatedArrow(deg, cx float64, o ArrowStyle) func(*draft) {
	return func(d *draft) {
		p := NewPen(stroke)
		DrawArrow(p, cx-450, cx+450, axis, o)
		d.out.Add(p.Outline().Transformed(Rotate(deg, cx, axis)))
	}
}

func circled(cx, r float64, inner func(p *Pen, cx, r float64)) func(*draft) {
	return func(d *draft) {
		d.pen.Circle(cx, axis, r, r)
		if inner != nil {
			inner(d.pen, cx, r)
		}
	}
}

func plus(p *Pen, cx, r float64) {
	p.Line(cx-r, axis, cx+r, axis)
	p.Line(cx, axis-r, cx, axis+r)
}

func minus(p *Pen, cx, r float64) { p.Line(cx-r, axis, cx+r, axis) }

func times(p *Pen, cx, r float64) {
	d := r * math.Sqrt2 / 2
	p.Line(cx-d, axis-d, cx+d, axis+d)
	p.Line(cx-d, axis+d, cx+d, axis-d)
}

func divide(p *Pen, cx, r float64) {
	d := r * math.Sqrt2 / 2
	p.Line(cx-d, axis+d, cx+d, axis-d)
}

func dot(p *Pen, cx, r float64) { p.Disc(cx, axis, r/5) }

// symbolDefs is ordered; a definition may use any glyph defined before it.
var symbolDefs = []symbolDef{
	// Spaces.
	{' ', 500, nil},
	{' ', 1000, nil},
	{' ', 333, nil},
	{' ', 250, nil},
	{' ', 167, nil},
	{' ', 83, nil},
	{' ', 222, nil},

	// Combining accents for text, drawn over the preceding letter.
	{'̀', 0, mark(func(p *Pen) { p.Line(-330, -720, -230, -600) })},
	{'́', 0, mark(func(p *Pen) { p.Line(-310, -600, -210, -720) })},
	{'̈', 0, mark(func(p *Pen) {
		p.Disc(-350, -660, 50)
		p.Disc(-190, -660, 50)
	})},
	{'̂', 0, mark(func(p *Pen) { p.Polyline(pt(-420, -590), pt(-270, -720), pt(-120, -590)) })},
	{'̃', 0, mark(func(p *Pen) {
		p.Arc(-345, -650, 75, 50, 180, 360)
		p.Arc(-195, -650, 75, 50, 0, 180)
	})},
	{'̄', 0, mark(func(p *Pen) { p.Line(-420, -650, -120, -650) })},
	{'̆', 0, mark(func(p *Pen) { p.Arc(-270, -700, 140, 90, 0, 180) })},
	{'̇', 0, mark(func(p *Pen) { p.Disc(-270, -660, 55) })},
	{'̊', 0, mark(func(p *Pen) { p.Circle(-270, -680, 70, 70) })},
	{'̋', 0, mark(func(p *Pen) {
		p.Line(-330, -600, -260, -730)
		p.Line(-190, -600, -120, -730)
	})},
	{'̌', 0, mark(func(p *Pen) { p.Polyline(pt(-420, -720), pt(-270, -590), pt(-120, -720)) })},
	{'̧', 0, mark(func(p *Pen) {
		p.Line(-270, 0, -250, 60)
		p.Arc(-250, 130, 70, 70, -90, 135)
	})},

	// Letterlike.
	{'ℵ', 700, mark(func(p *Pen) {
		p.Line(150, -700, 560, 0)
		p.Polyline(pt(170, 0), pt(170, -260), pt(300, -330))
		p.Polyline(pt(540, -700), pt(540, -440), pt(410, -370))
	})},
	{'∀', 700, mark(func(p *Pen) {
		p.Polyline(pt(90, -700), pt(350, 0), pt(610, -700))
		p.Line(190, -400, 510, -400)
	})},
	{'∃', 650, mark(func(p *Pen) {
		p.Polyline(pt(110, -700), pt(540, -700), pt(540, 0), pt(110, 0))
		p.Line(130, -350, 540, -350)
	})},
	{'∅', 800, mark(func(p *Pen) {
		p.Circle(400, -350, 260, 260)
		p.Line(170, 40, 630, -740)
	})},
	{'∇', 800, mark(func(p *Pen) { p.Closed(pt(80, -700), pt(720, -700), pt(400, 0)) })},
	{'∠', 800, mark(func(p *Pen) { p.Polyline(pt(620, axis-330), pt(130, axis+270), pt(700, axis+270)) })},

	// Set relations.
	{'∈', 780, mark(func(p *Pen) {
		p.Arc(480, axis, 260, 260, 90, 270)
		p.Line(480, axis-260, 670, axis-260)
		p.Line(480, axis+260, 670, axis+260)
		p.Line(220, axis, 670, axis)
	})},
	{'∋', 780, mirrored('∈', 780)},
	{'⊂', 780, mark(func(p *Pen) {
		p.Arc(440, axis, 250, 250, 90, 270)
		p.Line(440, axis-250, 670, axis-250)
		p.Line(440, axis+250, 670, axis+250)
	})},
	{'⊃', 780, mirrored('⊂', 780)},
	{'⊆', 780, mark(func(p *Pen) {
		p.Arc(440, axis-90, 210, 210, 90, 270)
		p.Line(440, axis-300, 670, axis-300)
		p.Line(440, axis+120, 670, axis+120)
		p.Line(200, axis+300, 670, axis+300)
	})},
	{'⊇', 780, mirrored('⊆', 780)},
	{'⊑', 780, mark(func(p *Pen) {
		p.Polyline(pt(670, axis-300), pt(180, axis-300), pt(180, axis+120), pt(670, axis+120))
		p.Line(180, axis+300, 670, axis+300)
	})},
	{'⊒', 780, mirrored('⊑', 780)},
	{'⊓', 780, mark(func(p *Pen) { p.Polyline(pt(150, relBot), pt(150, relTop), pt(630, relTop), pt(630, relBot)) })},
	{'⊔', 780, flipped('⊓')},
	{'⊎', 780, func(d *draft) {
		bb := d.place('∪', 390, axis, 1)
		d.pen.Line(390-110, (bb.MinY+bb.MaxY)/2, 390+110, (bb.MinY+bb.MaxY)/2)
		d.pen.Line(390, (bb.MinY+bb.MaxY)/2-110, 390, (bb.MinY+bb.MaxY)/2+110)
	}},

	// Logic and binary operators.
	{'∧', 780, mark(func(p *Pen) { p.Polyline(pt(130, axis+290), pt(390, axis-320), pt(650, axis+290)) })},
	{'∨', 780, flipped('∧')},
	{'∘', 560, mark(func(p *Pen) { p.Circle(280, axis, 130, 130) })},
	{'⋄', 640, mark(func(p *Pen) { p.Closed(pt(320, axis-200), pt(480, axis), pt(320, axis+200), pt(160, axis)) })},
	{'⋆', 700, func(d *draft) {
		pts := make([]Point, 10)
		for i := range pts {
			r := 250.0
			if i%2 == 1 {
				r = 100
			}
			s, c := math.Sincos(math.Pi * (float64(i)/5 - 0.5))
			pts[i] = pt(350+r*c, axis+r*s)
		}
		d.pen.Fill(pts...)
	}},
	{'∓', 780, flipped('±')},
	{'∝', 780, mark(func(p *Pen) {
		p.Arc(300, axis, 150, 150, 90, 270)
		p.Line(300, axis-150, 680, axis+170)
		p.Line(300, axis+150, 680, axis-170)
	})},
	{'⊕', 780, circled(390, 290, plus)},
	{'⊖', 780, circled(390, 290, minus)},
	{'⊗', 780, circled(390, 290, times)},
	{'⊘', 780, circled(390, 290, divide)},
	{'⊙', 780, circled(390, 290, dot)},
	{'⋉', 780, mark(func(p *Pen) {
		times(p, 390, 330)
		p.Line(157, axis-233, 157, axis+233)
	})},
	{'⋊', 780, mirrored('⋉', 780)},
	{'⋈', 780, mark(func(p *Pen) {
		times(p, 390, 330)
		p.Line(157, axis-233, 157, axis+233)
		p.Line(623, axis-233, 623, axis+233)
	})},
	{'△', 800, mark(func(p *Pen) { p.Closed(pt(400, -700), pt(720, 0), pt(80, 0)) })},
	{'▽', 800, mark(func(p *Pen) { p.Closed(pt(80, -700), pt(720, -700), pt(400, 0)) })},
	{'▷', 780, mark(func(p *Pen) { p.Closed(pt(140, axis-300), pt(660, axis), pt(140, axis+300)) })},
	{'◁', 780, mirrored('▷', 780)},

	// Large operators, centred on the axis.
	{'⋀', 1000, mark(func(p *Pen) { p.Polyline(pt(120, 250), pt(500, -750), pt(880, 250)) })},
	{'⋁', 1000, flipped('⋀')},
	{'⋂', 1000, func(d *draft) { d.place('∩', 500, axis, 1.6) }},
	{'⋃', 1000, func(d *draft) { d.place('∪', 500, axis, 1.6) }},
	{'⨄', 1000, func(d *draft) {
		bb := d.place('∪', 500, axis, 1.6)
		cy := (bb.MinY + bb.MaxY) / 2
		d.pen.Line(500-160, cy, 500+160, cy)
		d.pen.Line(500, cy-160, 500, cy+160)
	}},
	{'⨆', 1000, mark(func(p *Pen) { p.Polyline(pt(150, -750), pt(150, 250), pt(850, 250), pt(850, -750)) })},
	{'⨁', 1100, circled(550, 480, plus)},
	{'⨂', 1100, circled(550, 480, times)},
	{'⨀', 1100, circled(550, 480, dot)},
	{'∐', 0, func(d *draft) {
		g := d.b.glyph('∏')
		if g != nil {
			d.use('∏', Scale(1, -1, 0, (g.Bounds.MinY+g.Bounds.MaxY)/2))
			d.b.widths['∐'] = g.Advance
		}
	}},
	{'∬', 0, func(d *draft) { d.b.repeat(d, '∫', 2) }},
	{'∭', 0, func(d *draft) { d.b.repeat(d, '∫', 3) }},
	{'∮', 0, func(d *draft) {
		g := d.b.glyph('∫')
		if g == nil {
			return
		}
		d.use('∫', Identity)
		bb := g.Bounds
		d.pen.Circle((bb.MinX+bb.MaxX)/2, (bb.MinY+bb.MaxY)/2, 120, 120)
		d.b.widths['∮'] = g.Advance
	}},

	// Dots.
	{'∴', 600, mark(func(p *Pen) {
		p.Disc(300, -480, 55)
		p.Disc(130, -55, 55)
		p.Disc(470, -55, 55)
	})},
	{'∵', 600, mark(func(p *Pen) {
		p.Disc(130, -480, 55)
		p.Disc(470, -480, 55)
		p.Disc(300, -55, 55)
	})},
	{'⋮', 300, mark(func(p *Pen) {
		for _, y := range []float64{-680, -400, -120} {
			p.Disc(150, y, 55)
		}
	})},
	{'⋯', 1000, mark(func(p *Pen) {
		for _, x := range []float64{170, 500, 830} {
			p.Disc(x, axis, 55)
		}
	})},
	{'⋱', 1000, mark(func(p *Pen) {
		p.Disc(170, -680, 55)
		p.Disc(500, -400, 55)
		p.Disc(830, -120, 55)
	})},

	// Relations built on Go glyphs.
	{'≀', 300, func(d *draft) {
		g := d.b.glyph('~')
		if g == nil {
			return
		}
		cx, cy := (g.Bounds.MinX+g.Bounds.MaxX)/2, (g.Bounds.MinY+g.Bounds.MaxY)/2
		d.use('~', Rotate(90, cx, cy).Then(Translate(150-cx, axis-cy)))
	}},
	{'≃', 780, func(d *draft) {
		d.place('~', 390, axis-110, 1)
		d.pen.Line(110, axis+130, 670, axis+130)
	}},
	{'≅', 780, func(d *draft) {
		d.place('~', 390, axis-210, 1)
		d.pen.Line(110, axis, 670, axis)
		d.pen.Line(110, axis+190, 670, axis+190)
	}},
	{'≍', 780, mark(func(p *Pen) {
		p.Arc(390, axis-330, 270, 140, 20, 160)
		p.Arc(390, axis+330, 270, 140, 200, 340)
	})},
	{'≐', 780, func(d *draft) {
		d.place('=', 390, axis, 1)
		d.pen.Disc(390, axis-290, 55)
	}},
	{'≜', 780, func(d *draft) {
		d.place('=', 390, axis+40, 1)
		d.pen.Closed(pt(390, axis-420), pt(480, axis-240), pt(300, axis-240))
	}},
	{'≪', 1000, func(d *draft) {
		d.place('<', 380, axis, 1)
		d.place('<', 620, axis, 1)
	}},
	{'≫', 1000, func(d *draft) {
		d.place('>', 380, axis, 1)
		d.place('>', 620, axis, 1)
	}},
	{'≲', 780, func(d *draft) {
		d.place('<', 390, axis-150, 0.8)
		d.place('~', 390, axis+260, 0.8)
	}},
	{'≳', 780, func(d *draft) {
		d.place('>', 390, axis-150, 0.8)
		d.place('~', 390, axis+260, 0.8)
	}},
	{'≺', 780, mark(func(p *Pen) {
		p.Polyline(pt(650, axis-290), pt(420, axis-200), pt(250, axis-100), pt(130, axis))
		p.Polyline(pt(130, axis), pt(250, axis+100), pt(420, axis+200), pt(650, axis+290))
	})},
	{'≻', 780, mirrored('≺', 780)},
	{'⪯', 780, func(d *draft) {
		d.use('≺', Translate(0, -110))
		d.pen.Line(130, axis+300, 650, axis+300)
	}},
	{'⪰', 780, mirrored('⪯', 780)},
	{'⩽', 780, func(d *draft) {
		bb := d.place('<', 390, axis-70, 0.85)
		tip := (bb.MinY + bb.MaxY) / 2
		d.pen.Line(bb.MinX, tip+170, bb.MaxX, bb.MaxY+170)
	}},
	{'⩾', 780, func(d *draft) {
		bb := d.place('>', 390, axis-70, 0.85)
		tip := (bb.MinY + bb.MaxY) / 2
		d.pen.Line(bb.MinX, bb.MaxY+170, bb.MaxX, tip+170)
	}},
	{'⊢', 700, mark(func(p *Pen) {
		p.Line(150, -690, 150, 0)
		p.Line(150, -345, 600, -345)
	})},
	{'⊣', 700, mirrored('⊢', 700)},
	{'⊤', 740, mark(func(p *Pen) {
		p.Line(100, -690, 640, -690)
		p.Line(370, -690, 370, 0)
	})},
	{'⊥', 740, mark(func(p *Pen) {
		p.Line(100, 0, 640, 0)
		p.Line(370, -690, 370, 0)
	})},
	{'⊨', 700, mark(func(p *Pen) {
		p.Line(150, -690, 150, 0)
		p.Line(150, -450, 620, -450)
		p.Line(150, -240, 620, -240)
	})},
	{'∥', 500, mark(func(p *Pen) {
		p.Line(180, -750, 180, 250)
		p.Line(320, -750, 320, 250)
	})},
	{'‖', 500, mark(func(p *Pen) {
		p.Line(180, -750, 180, 250)
		p.Line(320, -750, 320, 250)
	})},
	{'⌢', 900, mark(func(p *Pen) { p.Arc(450, axis+200, 350, 250, 200, 340) })},
	{'⌣', 900, mark(func(p *Pen) { p.Arc(450, axis-200, 350, 250, 20, 160) })},

	// Delimiters.
	{'⟨', 400, mark(func(p *Pen) { p.Polyline(pt(330, -750), pt(90, axis), pt(330, 250)) })},
	{'⟩', 400, mirrored('⟨', 400)},
	{'⌈', 450, mark(func(p *Pen) { p.Polyline(pt(370, -750), pt(130, -750), pt(130, 250)) })},
	{'⌉', 450, mirrored('⌈', 450)},
	{'⌊', 450, mark(func(p *Pen) { p.Polyline(pt(130, -750), pt(130, 250), pt(370, 250)) })},
	{'⌋', 450, mirrored('⌊', 450)},

	// Music.
	{'♭', 450, mark(func(p *Pen) {
		p.Line(130, -750, 130, 0)
		p.Arc(130, -170, 200, 170, -90, 90)
	})},
	{'♮', 450, mark(func(p *Pen) {
		p.Line(130, -750, 130, -80)
		p.Line(330, -420, 330, 250)
		p.Line(130, -420, 330, -480)
		p.Line(130, -80, 330, -140)
	})},
	{'♯', 550, mark(func(p *Pen) {
		p.Line(180, -750, 180, 250)
		p.Line(370, -800, 370, 200)
		p.Line(100, -380, 450, -470)
		p.Line(100, -70, 450, -160)
	})},

	// Arrows.
	{'↦', 1000, arrow(100, 900, ArrowStyle{Right: true, Bar: true})},
	{'↞', 1000, arrow(100, 900, ArrowStyle{Left: true, TwoHead: true})},
	{'↠', 1000, arrow(100, 900, ArrowStyle{Right: true, TwoHead: true})},
	{'↩', 1000, arrow(100, 780, ArrowStyle{Left: true, HookRight: true})},
	{'↪', 1000, arrow(220, 900, ArrowStyle{Right: true, HookLeft: true})},
	{'↼', 1000, arrow(100, 900, ArrowStyle{Left: true, Harpoon: -1})},
	{'↽', 1000, arrow(100, 900, ArrowStyle{Left: true, Harpoon: 1})},
	{'⇀', 1000, arrow(100, 900, ArrowStyle{Right: true, Harpoon: -1})},
	{'⇁', 1000, arrow(100, 900, ArrowStyle{Right: true, Harpoon: 1})},
	{'⇌', 1000, func(d *draft) {
		DrawArrow(d.pen, 100, 900, axis-110, ArrowStyle{Right: true, Harpoon: -1})
		DrawArrow(d.pen, 100, 900, axis+110, ArrowStyle{Left: true, Harpoon: 1})
	}},
	{'⇐', 1000, arrow(100, 900, ArrowStyle{Double: true, Left: true})},
	{'⇒', 1000, arrow(100, 900, ArrowStyle{Double: true, Right: true})},
	{'⇔', 1000, arrow(100, 900, ArrowStyle{Double: true, Left: true, Right: true})},
	{'⇑', 700, rotatedArrow(-90, 350, ArrowStyle{Double: true, Right: true})},
	{'⇓', 700, rotatedArrow(90, 350, ArrowStyle{Double: true, Right: true})},
	{'⇕', 700, rotatedArrow(90, 350, ArrowStyle{Double: true, Left: true, Right: true})},
	{'↗', 1000, rotatedArrow(-45, 500, ArrowStyle{Right: true})},
	{'↘', 1000, rotatedArrow(45, 500, ArrowStyle{Right: true})},
	{'↙', 1000, rotatedArrow(135, 500, ArrowStyle{Right: true})},
	{'↖', 1000, rotatedArrow(-135, 500, ArrowStyle{Right: true})},
	{'⟵', 1600, arrow(100, 1500, ArrowStyle{Left: true})},
	{'⟶', 1600, arrow(100, 1500, ArrowStyle{Right: true})},
	{'⟷', 1600, arrow(100, 1500, ArrowStyle{Left: true, Right: true})},
	{'⟸', 1600, arrow(100, 1500, ArrowStyle{Double: true, Left: true})},
	{'⟹', 1600, arrow(100, 1500, ArrowStyle{Double: true, Right: true})},
	{'⟺', 1600, arrow(100, 1500, ArrowStyle{Double: true, Left: true, Right: true})},
	{'⟼', 1600, arrow(100, 1500, ArrowStyle{Right: true, Bar: true})},

	// Negations. Each follows the glyph it strikes through.
	{'∉', 780, slashed('∈', 780)},
	{'∌', 780, slashed('∋', 780)},
	{'∄', 650, slashed('∃', 650)},
	{'⊄', 780, slashed('⊂', 780)},
	{'⊅', 780, slashed('⊃', 780)},
	{'⊈', 780, slashed('⊆', 780)},
	{'⊉', 780, slashed('⊇', 780)},
	{'⊀', 780, slashed('≺', 780)},
	{'⊁', 780, slashed('≻', 780)},
	{'≄', 780, slashed('≃', 780)},
	{'≇', 780, slashed('≅', 780)},
	{'∦', 500, slashed('∥', 500)},
	{'≁', 0, func(d *draft) { d.b.negate(d, '~') }},
	{'≉', 0, func(d *draft) { d.b.negate(d, '≈') }},
	{'≢', 0, func(d *draft) { d.b.negate(d, '≡') }},
	{'≮', 0, func(d *draft) { d.b.negate(d, '<') }},
	{'≯', 0, func(d *draft) { d.b.negate(d, '>') }},
	{'≰', 0, func(d *draft) { d.b.negate(d, '≤') }},
	{'≱', 0, func(d *draft) { d.b.negate(d, '≥') }},
	{'∤', 0, func(d *draft) {
		g := d.b.glyph('|')
		if g == nil {
			return
		}
		d.use('|', Identity)
		d.b.widths['∤'] = g.Advance
		cx := g.Advance / 2
		d.pen.Line(cx+110, axis-180, cx-110, axis+180)
	}},
}

// symbolBuilder synthesizes the symbols face on top of Go Regular.
type symbolBuilder struct {
	regular *faceTable
	face    *faceTable
	err     error
	// rune of the definition being drawn
	building rune
	// advances of glyphs whose definition takes the width of a component
	widths map[rune]float64
}

// glyph returns the synthesized or Go Regular glyph for r.
func (b *symbolBuilder) glyph(r rune) *Glyph {
	for _, c := range []rune{r, aliases[r]} {
		if c == 0 {
			continue
		}
		if id, ok := b.face.runes[c]; ok {
			return b.face.glyphs[id]
		}
		if id, ok := b.regular.runes[c]; ok {
			return b.regular.glyphs[id]
		}
	}
	if b.err == nil {
		b.err = fmt.Errorf("fonts: symbol face needs %q, which no face provides", r)
	}
	return nil
}

func (b *symbolBuilder) advance(r rune) float64 {
	if g := b.glyph(r); g != nil {
		return g.Advance
	}
	return 0
}

// repeat sets n copies of r side by side, overlapping like \iint.
func (b *symbolBuilder) repeat(d *draft, r rune, n int) {
	adv := b.advance(r)
	step := adv * 0.55
	for i := 0; i < n; i++ {
		d.use(r, Translate(float64(i)*step, 0))
	}
	b.widths[d.current()] = adv + float64(n-1)*step
}

// negate draws r with a slash and takes its width.
func (b *symbolBuilder) negate(d *draft, r rune) {
	adv := b.advance(r)
	slashed(r, adv)(d)
	b.widths[d.current()] = adv
}

func (d *draft) current() rune { return d.b.building }

func buildSymbols(regular *faceTable) (*faceTable, error) {
	b := &symbolBuilder{
		regular: regular,
		face:    &faceTable{name: "symbols", face: FaceSymbols, runes: make(map[rune]int, len(symbolDefs))},
		widths:  make(map[rune]float64),
	}
	for _, def := range symbolDefs {
		b.building = def.r
		d := &draft{b: b, pen: NewPen(stroke)}
		if def.draw != nil {
			def.draw(d)
		}
		if b.err != nil {
			return nil, b.err
		}
		o := d.outline()
		adv := def.adv
		if w, ok := b.widths[def.r]; ok {
			adv = w
		}
		id := len(b.face.glyphs)
		b.face.glyphs = append(b.face.glyphs, &Glyph{
			Face:    FaceSymbols,
			ID:      id,
			Rune:    def.r,
			Advance: adv,
			Bounds:  o.Bounds(),
			Outline: o,
			Path:    o.Path(),
		})
		b.face.runes[def.r] = id
	}
	return b.face, nil
}

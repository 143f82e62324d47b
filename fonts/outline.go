package fonts

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Point is a position in font units (1/1000 em), y increasing down.
type Point struct{ X, Y float64 }

type segOp uint8

const (
	opLine segOp = iota
	opQuad
	opCube
)

type segment struct {
	op  segOp
	pts []Point // control points followed by the end point
}

func (s segment) end() Point { return s.pts[len(s.pts)-1] }

type contour struct {
	start Point
	segs  []segment
}

// Outline is a set of closed contours in font units. The zero value is an
// empty outline.
type Outline struct {
	contours []contour
}

// Empty reports whether o has no contours.
func (o *Outline) Empty() bool { return len(o.contours) == 0 }

func outlineFromSegments(segs sfnt.Segments) Outline {
	var (
		o   Outline
		cur *contour
	)
	pt := func(p fixed.Point26_6) Point {
		return Point{X: float64(p.X) / 64, Y: float64(p.Y) / 64}
	}
	for _, s := range segs {
		if s.Op == sfnt.SegmentOpMoveTo {
			o.contours = append(o.contours, contour{start: pt(s.Args[0])})
			cur = &o.contours[len(o.contours)-1]
			continue
		}
		if cur == nil {
			continue
		}
		switch s.Op {
		case sfnt.SegmentOpLineTo:
			cur.segs = append(cur.segs, segment{op: opLine, pts: []Point{pt(s.Args[0])}})
		case sfnt.SegmentOpQuadTo:
			cur.segs = append(cur.segs, segment{op: opQuad, pts: []Point{pt(s.Args[0]), pt(s.Args[1])}})
		case sfnt.SegmentOpCubeTo:
			cur.segs = append(cur.segs, segment{op: opCube, pts: []Point{pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2])}})
		}
	}
	return o
}

// Transform maps points with the affine matrix [a c e; b d f].
type Transform struct{ A, B, C, D, E, F float64 }

// Identity is the transform that leaves points unchanged.
var Identity = Transform{A: 1, D: 1}

// Translate returns a translation by (dx, dy).
func Translate(dx, dy float64) Transform { return Transform{A: 1, D: 1, E: dx, F: dy} }

// Scale returns a scaling about (cx, cy).
func Scale(sx, sy, cx, cy float64) Transform {
	return Transform{A: sx, D: sy, E: cx - sx*cx, F: cy - sy*cy}
}

// Rotate returns a rotation by deg degrees about (cx, cy). Positive angles
// turn clockwise on screen.
func Rotate(deg, cx, cy float64) Transform {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Transform{A: c, B: s, C: -s, D: c, E: cx - c*cx + s*cy, F: cy - s*cx - c*cy}
}

// Then returns the transform applying t first and u second.
func (t Transform) Then(u Transform) Transform {
	return Transform{
		A: u.A*t.A + u.C*t.B,
		B: u.B*t.A + u.D*t.B,
		C: u.A*t.C + u.C*t.D,
		D: u.B*t.C + u.D*t.D,
		E: u.A*t.E + u.C*t.F + u.E,
		F: u.B*t.E + u.D*t.F + u.F,
	}
}

func (t Transform) apply(p Point) Point {
	return Point{X: t.A*p.X + t.C*p.Y + t.E, Y: t.B*p.X + t.D*p.Y + t.F}
}

func (t Transform) mirrors() bool { return t.A*t.D-t.B*t.C < 0 }

// Transformed returns o mapped by t. Mirroring transforms reverse the
// contours so the fill orientation is kept.
func (o Outline) Transformed(t Transform) Outline {
	out := Outline{contours: make([]contour, len(o.contours))}
	for i, c := range o.contours {
		nc := contour{start: t.apply(c.start), segs: make([]segment, len(c.segs))}
		for j, s := range c.segs {
			pts := make([]Point, len(s.pts))
			for k, p := range s.pts {
				pts[k] = t.apply(p)
			}
			nc.segs[j] = segment{op: s.op, pts: pts}
		}
		if t.mirrors() {
			nc = nc.reversed()
		}
		out.contours[i] = nc
	}
	return out
}

func (c contour) reversed() contour {
	if len(c.segs) == 0 {
		return c
	}
	out := contour{start: c.segs[len(c.segs)-1].end()}
	for i := len(c.segs) - 1; i >= 0; i-- {
		s := c.segs[i]
		from := c.start
		if i > 0 {
			from = c.segs[i-1].end()
		}
		pts := make([]Point, 0, len(s.pts))
		for k := len(s.pts) - 2; k >= 0; k-- {
			pts = append(pts, s.pts[k])
		}
		out.segs = append(out.segs, segment{op: s.op, pts: append(pts, from)})
	}
	return out
}

// area is the signed shoelace area of the contour's control polygon.
func (c contour) area() float64 {
	a := 0.0
	prev := c.start
	for _, s := range c.segs {
		for _, p := range s.pts {
			a += prev.X*p.Y - p.X*prev.Y
			prev = p
		}
	}
	a += prev.X*c.start.Y - c.start.X*prev.Y
	return a / 2
}

// Add appends the contours of other to o.
func (o *Outline) Add(other Outline) { o.contours = append(o.contours, other.contours...) }

// Bounds returns the box of all points of o, control points included.
func (o Outline) Bounds() Rect {
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	add := func(p Point) {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	for _, c := range o.contours {
		add(c.start)
		for _, s := range c.segs {
			for _, p := range s.pts {
				add(p)
			}
		}
	}
	if math.IsInf(r.MinX, 1) {
		return Rect{}
	}
	return r
}

// Path serializes o as SVG path data with coordinates rounded to a tenth
// of a unit.
func (o Outline) Path() string {
	var sb strings.Builder
	for _, c := range o.contours {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("M")
		writePoint(&sb, c.start)
		for _, s := range c.segs {
			switch s.op {
			case opLine:
				sb.WriteString("L")
			case opQuad:
				sb.WriteString("Q")
			case opCube:
				sb.WriteString("C")
			}
			for i, p := range s.pts {
				if i > 0 {
					sb.WriteByte(' ')
				}
				writePoint(&sb, p)
			}
		}
		sb.WriteString("Z")
	}
	return sb.String()
}

func writePoint(sb *strings.Builder, p Point) {
	sb.WriteString(FormatUnit(p.X))
	sb.WriteByte(' ')
	sb.WriteString(FormatUnit(p.Y))
}

// FormatUnit formats v rounded to one decimal, without a trailing ".0".
func FormatUnit(v float64) string {
	v = math.Round(v*10) / 10
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Pen builds outlines from strokes of a fixed width. Every contour it
// emits turns clockwise on screen, like the outer contours of TrueType
// glyphs, so strokes overlapping each other or a glyph fill as a union.
type Pen struct {
	Width float64
	out   Outline
}

func NewPen(w float64) *Pen { return &Pen{Width: w} }

func (p *Pen) polygon(pts ...Point) {
	if len(pts) < 3 {
		return
	}
	c := contour{start: pts[0]}
	for _, q := range pts[1:] {
		c.segs = append(c.segs, segment{op: opLine, pts: []Point{q}})
	}
	if c.area() < 0 {
		c = c.reversed()
	}
	p.out.contours = append(p.out.contours, c)
}

// Fill adds the closed polygon through pts.
func (p *Pen) Fill(pts ...Point) *Pen {
	p.polygon(pts...)
	return p
}

// Line strokes the segment from a to b with butt caps.
func (p *Pen) Line(x0, y0, x1, y1 float64) *Pen {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return p
	}
	nx, ny := -dy/l*p.Width/2, dx/l*p.Width/2
	p.polygon(
		Point{x0 + nx, y0 + ny},
		Point{x1 + nx, y1 + ny},
		Point{x1 - nx, y1 - ny},
		Point{x0 - nx, y0 - ny},
	)
	return p
}

// Polyline strokes the path through pts, rounding the joints.
func (p *Pen) Polyline(pts ...Point) *Pen {
	for i := 1; i < len(pts); i++ {
		p.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y)
		if i < len(pts)-1 {
			p.Disc(pts[i].X, pts[i].Y, p.Width/2)
		}
	}
	return p
}

// Closed strokes the closed polygon through pts.
func (p *Pen) Closed(pts ...Point) *Pen {
	return p.Polyline(append(append([]Point(nil), pts...), pts[0], pts[1])...)
}

// Disc fills a circle.
func (p *Pen) Disc(cx, cy, r float64) *Pen {
	const n = 16
	pts := make([]Point, n)
	for i := range pts {
		s, c := math.Sincos(2 * math.Pi * float64(i) / n)
		pts[i] = Point{cx + r*c, cy + r*s}
	}
	p.polygon(pts...)
	return p
}

// Arc strokes the elliptical arc centred on (cx, cy) from angle a0 to a1 in
// degrees, measured clockwise on screen from the positive x axis.
func (p *Pen) Arc(cx, cy, rx, ry, a0, a1 float64) *Pen {
	steps := int(math.Ceil(math.Abs(a1-a0) / 10))
	if steps < 2 {
		steps = 2
	}
	h := p.Width / 2
	outer := make([]Point, 0, steps+1)
	inner := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := (a0 + (a1-a0)*float64(i)/float64(steps)) * math.Pi / 180
		s, c := math.Sincos(a)
		outer = append(outer, Point{cx + (rx+h)*c, cy + (ry+h)*s})
		inner = append(inner, Point{cx + (rx-h)*c, cy + (ry-h)*s})
	}
	for i, j := 0, len(inner)-1; i < j; i, j = i+1, j-1 {
		inner[i], inner[j] = inner[j], inner[i]
	}
	p.polygon(append(outer, inner...)...)
	return p
}

// Circle strokes a full ellipse.
func (p *Pen) Circle(cx, cy, rx, ry float64) *Pen {
	p.Arc(cx, cy, rx, ry, 0, 180)
	return p.Arc(cx, cy, rx, ry, 180, 360)
}

// Outline returns the strokes drawn so far.
func (p *Pen) Outline() Outline { return p.out }

// Path returns the strokes drawn so far as SVG path data.
func (p *Pen) Path() string { return p.out.Path() }

package layout

import "github.com/wudi/texsvg/ir"

// spacing between adjacent atoms by class, in TeX's table: 1 thin, 2
// medium, 3 thick. Negative entries apply in display and text style only.
var spacing = [8][8]int8{
	ir.ClassOrd:   {0, 1, -2, -3, 0, 0, 0, -1},
	ir.ClassOp:    {1, 1, 0, -3, 0, 0, 0, -1},
	ir.ClassBin:   {-2, -2, 0, 0, -2, 0, 0, -2},
	ir.ClassRel:   {-3, -3, 0, 0, -3, 0, 0, -3},
	ir.ClassOpen:  {0, 0, 0, 0, 0, 0, 0, 0},
	ir.ClassClose: {0, 1, -2, -3, 0, 0, 0, -1},
	ir.ClassPunct: {-1, -1, 0, -1, -1, -1, -1, -1},
	ir.ClassInner: {-1, 1, -2, -3, -1, 0, -1, -1},
}

var spaceWidths = [4]float64{0, 3 * mu, 4 * mu, 5 * mu}

func atomSpace(left, right ir.Class, st state) float64 {
	s := spacing[left][right]
	if s < 0 {
		if st.script() {
			return 0
		}
		s = -s
	}
	return spaceWidths[s] * st.scale()
}

func (e *engine) row(r *ir.Row, st state) (*Box, error) {
	boxes, err := e.nodes(r.Children, st)
	if err != nil {
		return nil, err
	}
	b := hlist(boxes, st)
	if r.Group {
		b.left, b.right, b.spaced = r.Class, r.Class, true
	}
	return b, nil
}

func (e *engine) nodes(ns []ir.Node, st state) ([]*Box, error) {
	boxes := make([]*Box, 0, len(ns))
	for _, n := range ns {
		b, err := e.node(n, st)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// hlist sets boxes side by side with inter-atom spacing.
func hlist(boxes []*Box, st state) *Box {
	var atoms []*Box
	for _, b := range boxes {
		if b.spaced {
			atoms = append(atoms, b)
		}
	}
	demoteBinaries(atoms)

	row := &Box{Kind: KindGroup, left: ir.ClassOrd, right: ir.ClassOrd}
	if len(atoms) > 0 {
		row.left, row.right, row.spaced = atoms[0].left, atoms[len(atoms)-1].right, true
	}
	var prev *Box
	for _, b := range boxes {
		if b.spaced {
			if prev != nil {
				row.Width += atomSpace(prev.right, b.left, st)
			}
			prev = b
		}
		row.Add(b, row.Width, 0)
		row.Width += b.Width
	}
	row.fit()
	return row
}

// demoteBinaries turns binary operators without two operands into
// ordinary atoms: at the start of a list, after another operator or an
// opening, and before a relation, closing or punctuation.
func demoteBinaries(atoms []*Box) {
	demote := func(b *Box) {
		if b.left == ir.ClassBin {
			b.left = ir.ClassOrd
		}
		if b.right == ir.ClassBin {
			b.right = ir.ClassOrd
		}
	}
	for i, b := range atoms {
		if b.left != ir.ClassBin {
			continue
		}
		if i == 0 {
			demote(b)
			continue
		}
		switch atoms[i-1].right {
		case ir.ClassBin, ir.ClassOp, ir.ClassRel, ir.ClassOpen, ir.ClassPunct:
			demote(b)
		}
	}
	for i, b := range atoms {
		if b.right != ir.ClassBin {
			continue
		}
		if i == len(atoms)-1 {
			demote(b)
			continue
		}
		switch atoms[i+1].left {
		case ir.ClassRel, ir.ClassClose, ir.ClassPunct:
			demote(b)
		}
	}
}

// root lays out the top-level list, splitting it into lines at forced
// breaks and, when a maximum width is set, after relations and binary
// operators.
func (e *engine) root(r *ir.Row, st state) (*Box, error) {
	children := r.Children
	if e.cfg.MaxWidth > 0 {
		children = flatten(children)
	}
	var (
		segments [][]*Box
		cur      []*Box
		forced   bool
	)
	for _, n := range children {
		if _, ok := n.(*ir.Break); ok {
			segments = append(segments, cur)
			cur, forced = nil, true
			continue
		}
		b, err := e.node(n, st)
		if err != nil {
			return nil, err
		}
		cur = append(cur, b)
	}
	segments = append(segments, cur)

	var lines []*Box
	for _, seg := range segments {
		for _, part := range e.breakLine(seg, st) {
			lines = append(lines, hlist(part, st))
		}
	}
	if len(lines) == 1 && !forced {
		b := lines[0]
		b.Node, b.Kind = r, r.Kind()
		return b, nil
	}
	return stack(r, lines, e.cfg.Display), nil
}

// flatten splices ungrouped rows into their parent so their breakpoints
// become top-level ones.
func flatten(ns []ir.Node) []ir.Node {
	var out []ir.Node
	for _, n := range ns {
		if r, ok := n.(*ir.Row); ok && !r.Group {
			out = append(out, flatten(r.Children)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// breakLine splits boxes greedily so each part fits the maximum width,
// breaking after relations first-fit and after binary operators. A part
// with no breakpoint stays over-wide.
func (e *engine) breakLine(boxes []*Box, st state) [][]*Box {
	if e.cfg.MaxWidth <= 0 || len(boxes) == 0 {
		return [][]*Box{boxes}
	}
	full := hlist(boxes, st)
	if full.Width <= e.cfg.MaxWidth {
		return [][]*Box{boxes}
	}
	var (
		parts [][]*Box
		start = 0
		cand  = -1
	)
	for i := 0; i < len(boxes); i++ {
		b := boxes[i]
		if i > start && b.X+b.Width-boxes[start].X > e.cfg.MaxWidth && cand >= start {
			parts = append(parts, boxes[start:cand+1])
			start, cand = cand+1, -1
			i = start - 1
			continue
		}
		if b.spaced && (b.right == ir.ClassRel || b.right == ir.ClassBin) && i < len(boxes)-1 {
			cand = i
		}
	}
	parts = append(parts, boxes[start:])
	return parts
}

// stack sets lines below each other, left aligned inline and centred in
// display mode.
func stack(n ir.Node, lines []*Box, center bool) *Box {
	b := &Box{Node: n, Kind: n.Kind(), left: ir.ClassOrd, right: ir.ClassOrd, spaced: true}
	for _, l := range lines {
		b.Width = max(b.Width, l.Width)
	}
	y := 0.0
	for i, l := range lines {
		l.Kind = KindLine
		if i > 0 {
			prev := lines[i-1]
			y += max(1.2, prev.Depth+l.Height+0.1)
		}
		x := 0.0
		if center {
			x = (b.Width - l.Width) / 2
		}
		b.Add(l, x, y)
	}
	b.fit()
	return b
}

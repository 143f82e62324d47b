package layout

import "github.com/wudi/texsvg/ir"

// Strut of an array row at unit stretch, in em.
const (
	strutHeight = 0.84
	strutDepth  = 0.36
	// tagGap separates an equation tag from the material it labels.
	tagGap = quad
)

// array lays out a table. Rows keep their baselines apart by at least
// the row strut; the whole table is centred on the math axis unless it
// has a single row, which keeps its baseline.
func (e *engine) array(a *ir.Array, st state) (*Box, error) {
	cst := st
	if a.Style != ir.StyleInherit {
		cst = st.with(a.Style)
	}
	sc := cst.scale()
	stretch := a.RowStretch
	if stretch <= 0 {
		stretch = 1
	}
	cols := a.Cols()
	cells := make([][]*Box, len(a.Cells))
	widths := make([]float64, cols)
	heights := make([]float64, len(a.Cells))
	depths := make([]float64, len(a.Cells))
	for i, row := range a.Cells {
		heights[i] = strutHeight * stretch * sc
		depths[i] = strutDepth * stretch * sc
		cells[i] = make([]*Box, len(row))
		for j, n := range row {
			if n == nil {
				continue
			}
			c, err := e.node(n, cst)
			if err != nil {
				return nil, err
			}
			cells[i][j] = c
			widths[j] = max(widths[j], c.Width)
			heights[i] = max(heights[i], c.Height)
			depths[i] = max(depths[i], c.Depth)
		}
	}

	gap := func(j int) float64 {
		if j < len(a.Gaps) {
			return a.Gaps[j] * sc
		}
		return a.ColSep * sc
	}
	line := func(lines []bool, i int) bool { return i < len(lines) && lines[i] }
	theta := ruleThickness * sc
	lineGap := 0.1 * sc

	// Column positions.
	xs := make([]float64, cols)
	var vrules []float64
	x := 0.0
	for j := 0; j < cols; j++ {
		if j == 0 {
			if line(a.ColLines, 0) {
				x += theta / 2
				vrules = append(vrules, x)
				x += a.ColSep * sc / 2
			}
		} else {
			g := gap(j - 1)
			if line(a.ColLines, j) {
				vrules = append(vrules, x+g/2)
			}
			x += g
		}
		xs[j] = x
		x += widths[j]
	}
	if cols > 0 && line(a.ColLines, cols) {
		x += a.ColSep * sc / 2
		vrules = append(vrules, x)
		x += theta / 2
	}
	width := x

	// Row baselines, measured from the top edge.
	ys := make([]float64, len(a.Cells))
	var hrules []float64
	y := 0.0
	for i := range a.Cells {
		if line(a.RowLines, i) {
			hrules = append(hrules, y+theta/2)
			y += theta + lineGap
		}
		y += heights[i]
		ys[i] = y
		y += depths[i]
	}
	if line(a.RowLines, len(a.Cells)) {
		y += lineGap
		hrules = append(hrules, y+theta/2)
		y += theta
	}
	total := y

	shift := 0.0 // baseline of the table relative to the top edge
	if len(a.Cells) == 1 {
		shift = ys[0]
	} else {
		shift = total/2 + axisHeight*st.scale()
	}
	b := &Box{Width: width, left: ir.ClassOrd, right: ir.ClassOrd, spaced: true}
	for i, row := range cells {
		for j, c := range row {
			if c == nil {
				continue
			}
			al := ir.AlignCenter
			if j < len(a.Align) {
				al = a.Align[j]
			}
			cx := xs[j]
			switch al {
			case ir.AlignCenter:
				cx += (widths[j] - c.Width) / 2
			case ir.AlignRight:
				cx += widths[j] - c.Width
			}
			b.Add(c, cx, ys[i]-shift)
		}
	}
	for _, ry := range hrules {
		b.Add(ruleBox(width, theta/2, theta/2), 0, ry-shift)
	}
	for _, rx := range vrules {
		b.Add(ruleBox(theta, shift, total-shift), rx-theta/2, 0)
	}
	b.fit()
	b.Height = max(b.Height, shift)
	b.Depth = max(b.Depth, total-shift)

	out := b
	if a.Open != "" || a.Close != "" {
		f, err := e.fence(b, a.Open, a.Close, st)
		if err != nil {
			return nil, err
		}
		out = f
	}
	if a.Tag == nil {
		return out, nil
	}
	tag, err := e.node(a.Tag, st)
	if err != nil {
		return nil, err
	}
	g := &Box{Kind: KindGroup, Width: out.Width + tagGap*st.scale() + tag.Width, left: ir.ClassOrd, right: ir.ClassOrd, spaced: true}
	g.Add(out, 0, 0)
	ty := 0.0
	if len(a.Cells) > 1 {
		ty = -axisHeight*st.scale() + (tag.Height-tag.Depth)/2
	}
	tb := wrap(tag)
	tb.Attrs.Class = "tag"
	g.Add(tb, out.Width+tagGap*st.scale(), ty)
	g.fit()
	return g, nil
}

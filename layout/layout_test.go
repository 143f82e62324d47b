package layout_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/wudi/texsvg/extensions"
	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/layout"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

const eps = 1e-6

var defaultSet = extensions.MustBuild(extensions.DefaultPackages...)

func parse(t *testing.T, src string) ir.Node {
	t.Helper()
	toks, err := scanner.Tokenize(src, scanner.Config{})
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	toks, err = macro.NewExpander(macro.NewNamespace(defaultSet.Macros), macro.Config{}).Expand(toks)
	if err != nil {
		t.Fatalf("expand %q: %v", src, err)
	}
	n, err := parser.Parse(context.Background(), defaultSet.Grammar, parser.Config{}, toks)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return n
}

func lay(t *testing.T, src string, cfg layout.Config) *layout.Box {
	t.Helper()
	b, err := layout.Layout(parse(t, src), cfg)
	if err != nil {
		t.Fatalf("Layout(%q): %v", src, err)
	}
	return b
}

// first returns the first box of the given kind in depth-first order.
func first(b *layout.Box, kind string) *layout.Box {
	var found *layout.Box
	b.Walk(func(c *layout.Box) {
		if found == nil && c.Kind == kind {
			found = c
		}
	})
	return found
}

func TestInlineIsShorterThanDisplay(t *testing.T) {
	inline := lay(t, "a_{i}^{j}", layout.Config{})
	display := lay(t, "a_{i}^{j}", layout.Config{Display: true})
	if inline.Total() >= display.Total() {
		t.Errorf("inline total %v, display total %v", inline.Total(), display.Total())
	}
}

func TestFractionCentred(t *testing.T) {
	root := lay(t, `\frac{1}{2}`, layout.Config{Display: true})
	frac := first(root, "mfrac")
	if frac == nil {
		t.Fatal("no fraction box")
	}
	var bar, num, den *layout.Box
	for _, c := range frac.Children {
		switch {
		case c.Kind == layout.KindRule:
			bar = c
		case num == nil:
			num = c
		default:
			den = c
		}
	}
	if bar == nil || num == nil || den == nil {
		t.Fatalf("fraction children = %+v", frac.Children)
	}
	if math.Abs(bar.Y+0.25) > eps {
		t.Errorf("bar at y=%v, want the math axis", bar.Y)
	}
	mid := bar.X + bar.Width/2
	for name, c := range map[string]*layout.Box{"numerator": num, "denominator": den} {
		if math.Abs(c.X+c.Width/2-mid) > eps {
			t.Errorf("%s centred at %v, bar at %v", name, c.X+c.Width/2, mid)
		}
	}
	if num.Y+num.Depth > bar.Y-bar.Height {
		t.Errorf("numerator reaches below the bar")
	}
	if den.Y-den.Height < bar.Y+bar.Depth {
		t.Errorf("denominator reaches above the bar")
	}
}

func TestBinarySpacing(t *testing.T) {
	tests := []struct {
		a, b string
		wider bool
	}{
		// a+b has medium spaces around the operator; +b has none.
		{"a+b", "ab+", true},
		// Relations get thick spaces, binaries medium ones.
		{"a=b", "a+b", true},
	}
	for _, tt := range tests {
		wa := lay(t, tt.a, layout.Config{}).Width
		wb := lay(t, tt.b, layout.Config{}).Width
		if (wa > wb) != tt.wider {
			t.Errorf("width(%q)=%v width(%q)=%v", tt.a, wa, tt.b, wb)
		}
	}
	// No spacing in scripts.
	sup := lay(t, "x^{a+b}", layout.Config{})
	plain := lay(t, "x^{ab+}", layout.Config{})
	if math.Abs(sup.Width-plain.Width) > 0.05 {
		t.Errorf("script spacing applied: %v vs %v", sup.Width, plain.Width)
	}
}

func TestLineBreaking(t *testing.T) {
	src := "a+b+c+d+e+f+g+h+i+j=k+l+m+n+o+p"
	wide := lay(t, src, layout.Config{})
	narrow := lay(t, src, layout.Config{MaxWidth: 3})
	lines := 0
	for _, c := range narrow.Children {
		if c.Kind == layout.KindLine {
			lines++
			if c.Width > 3+eps {
				t.Errorf("line of width %v exceeds the maximum", c.Width)
			}
		}
	}
	if lines < 2 {
		t.Fatalf("got %d lines, want at least 2 (full width %v)", lines, wide.Width)
	}
	if narrow.Glyphs() != wide.Glyphs() {
		t.Errorf("breaking lost glyphs: %d vs %d", narrow.Glyphs(), wide.Glyphs())
	}
}

func TestForcedBreak(t *testing.T) {
	b := lay(t, `a \\ b`, layout.Config{Display: true})
	lines := 0
	for _, c := range b.Children {
		if c.Kind == layout.KindLine {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
}

func TestDelimitersCoverBody(t *testing.T) {
	b := lay(t, `\left(\frac{a}{\frac{b}{\frac{c}{d}}}\right)`, layout.Config{Display: true})
	frac := first(b, "mfrac")
	paren := first(b, layout.KindPath)
	if paren == nil {
		t.Fatal("tall delimiter was not drawn as a path")
	}
	if paren.Total() < 0.9*frac.Total() {
		t.Errorf("delimiter %v does not cover body %v", paren.Total(), frac.Total())
	}
	small := lay(t, `\left(x\right)`, layout.Config{})
	if first(small, layout.KindPath) != nil {
		t.Errorf("small delimiter should use the font glyph")
	}
}

func TestMiddleMatchesFence(t *testing.T) {
	b := lay(t, `\left\{ x \,\middle|\, \frac{x}{\frac{y}{z}} \right\}`, layout.Config{Display: true})
	var paths []*layout.Box
	b.Walk(func(c *layout.Box) {
		if c.Kind == layout.KindPath {
			paths = append(paths, c)
		}
	})
	if len(paths) != 3 {
		t.Fatalf("got %d drawn delimiters, want 3", len(paths))
	}
	if paths[1].Total() < 0.8*paths[0].Total() {
		t.Errorf("middle %v much shorter than fence %v", paths[1].Total(), paths[0].Total())
	}
}

func TestMatrixCentredOnAxis(t *testing.T) {
	b := lay(t, `\begin{pmatrix} a & b \\ c & d \end{pmatrix}`, layout.Config{Display: true})
	table := first(b, "mtable")
	if table == nil {
		t.Fatal("no table box")
	}
	mid := (table.Depth - table.Height) / 2
	if math.Abs(mid+0.25) > 0.05 {
		t.Errorf("table centred at %v, want the axis", mid)
	}
	if got := table.Glyphs(); got < 4 {
		t.Errorf("table glyphs = %d", got)
	}
}

func TestArrayRules(t *testing.T) {
	b := lay(t, `\begin{array}{|c|c|}\hline a & b \\ \hline c & d \\ \hline\end{array}`, layout.Config{})
	rules := 0
	b.Walk(func(c *layout.Box) {
		if c.Kind == layout.KindRule {
			rules++
		}
	})
	if rules != 6 {
		t.Errorf("got %d rules, want 3 horizontal and 3 vertical", rules)
	}
}

func TestConstructs(t *testing.T) {
	srcs := []string{
		`\sqrt[3]{x^2+1}`,
		`\sum_{i=0}^{n} i^2`,
		`\int_0^1 f(x)\,dx`,
		`\overbrace{a+b}^{n}`,
		`\underbrace{a+b}_{m}`,
		`\widehat{xyz} \vec{v} \hat{a} \dot{x} \ddot{y}`,
		`\xrightarrow[below]{above}`,
		`\cancel{x} \bcancel{y} \xcancel{z} \cancelto{0}{w}`,
		`\enclose{circle,box,roundedbox,longdiv,radical,actuarial,madruwb}{x}`,
		`\boxed{E=mc^2}`,
		`\bbox[yellow,5px,border:1px solid red]{x}`,
		`\begin{cases} 1 & x>0 \\ 0 & \text{otherwise} \end{cases}`,
		`\begin{CD} A @>f>> B \\ @VgVV @AAhA \\ C @= D \end{CD}`,
		`\ce{H2O + CO2 -> H2CO3}`,
		`\big( \Big[ \bigg\{ \Bigg\langle x \Bigg\rangle \bigg\} \Big] \big)`,
		`\phantom{x} \hphantom{y} \vphantom{z} \mathrlap{w}`,
		`\text{if } x \textcolor{red}{\geq} 0`,
		`{\tiny a} {\Huge b}`,
		`\binom{n}{k} \tbinom{n}{k}`,
		`x = 1 \tag{1}`,
		``,
	}
	for _, src := range srcs {
		for _, display := range []bool{false, true} {
			b := lay(t, src, layout.Config{Display: display})
			b.Walk(func(c *layout.Box) {
				for _, v := range []float64{c.X, c.Y, c.Width, c.Height, c.Depth} {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Fatalf("%q: non-finite geometry in %s box", src, c.Kind)
					}
				}
			})
		}
	}
}

func TestMissingGlyph(t *testing.T) {
	_, err := layout.Layout(&ir.Atom{Text: "\U0001F600"}, layout.Config{})
	var miss *fonts.MetricsMissingError
	if !errors.As(err, &miss) {
		t.Fatalf("expected MetricsMissingError, got %v", err)
	}
}

func TestDeterministic(t *testing.T) {
	src := `\left[\int_0^\infty e^{-x^2}\,dx\right] = \frac{\sqrt{\pi}}{2}`
	a := lay(t, src, layout.Config{Display: true})
	b := lay(t, src, layout.Config{Display: true})
	var ka, kb []float64
	a.Walk(func(c *layout.Box) { ka = append(ka, c.X, c.Y, c.Width) })
	b.Walk(func(c *layout.Box) { kb = append(kb, c.X, c.Y, c.Width) })
	if len(ka) != len(kb) {
		t.Fatalf("trees differ in size: %d vs %d", len(ka), len(kb))
	}
	for i := range ka {
		if ka[i] != kb[i] {
			t.Fatalf("geometry differs at %d: %v vs %v", i, ka[i], kb[i])
		}
	}
}

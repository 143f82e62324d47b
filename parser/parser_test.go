package parser_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wudi/texsvg/extensions"
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/recovery"
	"github.com/wudi/texsvg/scanner"
)

var defaultSet = extensions.MustBuild(extensions.DefaultPackages...)

func parse(t *testing.T, src string, cfg parser.Config) (ir.Node, error) {
	t.Helper()
	toks, err := scanner.Tokenize(src, scanner.Config{})
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	toks, err = macro.NewExpander(macro.NewNamespace(defaultSet.Macros), macro.Config{}).Expand(toks)
	if err != nil {
		return nil, err
	}
	return parser.Parse(context.Background(), defaultSet.Grammar, cfg, toks)
}

func mustParse(t *testing.T, src string) *ir.Row {
	t.Helper()
	n, err := parse(t, src, parser.Config{})
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	root, ok := n.(*ir.Row)
	if !ok {
		t.Fatalf("Parse(%q) root = %T, want *ir.Row", src, n)
	}
	return root
}

// only returns the single child of root.
func only(t *testing.T, root *ir.Row) ir.Node {
	t.Helper()
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	return root.Children[0]
}

func find[T ir.Node](n ir.Node) (T, bool) {
	var found T
	ok := false
	ir.Walk(n, func(c ir.Node) bool {
		if ok {
			return false
		}
		if v, is := c.(T); is {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}

func TestParse_Fraction(t *testing.T) {
	f, ok := only(t, mustParse(t, `\frac{a}{b}`)).(*ir.Fraction)
	if !ok {
		t.Fatalf("expected *ir.Fraction")
	}
	num, ok := find[*ir.Atom](f.Num)
	if !ok || num.Text != "a" {
		t.Fatalf("numerator = %+v", f.Num)
	}
	if f.Thickness >= 0 {
		t.Errorf("Thickness = %v, want default rule", f.Thickness)
	}
}

func TestParse_InfixFraction(t *testing.T) {
	f, ok := only(t, mustParse(t, `a+b \over c`)).(*ir.Fraction)
	if !ok {
		t.Fatalf("expected *ir.Fraction")
	}
	if got := ir.Count(f.Num); got != 4 {
		t.Errorf("numerator has %d nodes, want 4", got)
	}
	if _, err := parse(t, `a \over b \over c`, parser.Config{}); err == nil {
		t.Fatalf("expected ambiguous fraction error")
	}
}

func TestParse_Scripts(t *testing.T) {
	s, ok := only(t, mustParse(t, `x^2_i`)).(*ir.Scripts)
	if !ok {
		t.Fatalf("expected *ir.Scripts")
	}
	if s.Sub == nil || s.Sup == nil {
		t.Fatalf("scripts missing: %+v", s)
	}
	if a := s.Nucleus.(*ir.Atom); a.Text != "x" || a.Variant != ir.VariantDefault {
		t.Errorf("nucleus = %+v", a)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`x^2^3`, "double superscript"},
		{`x_1_2`, "double subscript"},
		{`\left( x`, `missing \right`},
		{`x \right)`, `\right without matching \left`},
		{`{x`, "missing '}'"},
		{`x}`, "unbalanced '}'"},
		{`\frac{a}`, `missing argument for \frac`},
		{`\begin{matrix}a\end{pmatrix}`, `ended by \end{pmatrix}`},
		{`\sqrt`, `missing argument for \sqrt`},
		{`a & b`, "misplaced alignment tab"},
		{`\middle|`, `\middle without \left`},
	}
	for _, tt := range tests {
		_, err := parse(t, tt.src, parser.Config{})
		if err == nil {
			t.Errorf("Parse(%q): expected error", tt.src)
			continue
		}
		var se *parser.SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Parse(%q) error %T, want *SyntaxError", tt.src, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Parse(%q) error %q, want it to contain %q", tt.src, err, tt.want)
		}
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := parse(t, "a+\n  \\frac{b}", parser.Config{})
	var se *parser.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if se.Pos.Line != 2 || se.Pos.Column != 3 {
		t.Errorf("position = %s, want line 2 column 3", se.Pos)
	}
}

func TestParse_LeftRight(t *testing.T) {
	d, ok := only(t, mustParse(t, `\left( \frac{a}{b} \middle| c \right.`)).(*ir.Delimited)
	if !ok {
		t.Fatalf("expected *ir.Delimited")
	}
	if d.Open != "(" || d.Close != "" {
		t.Errorf("delimiters = %q %q", d.Open, d.Close)
	}
	mid, ok := find[*ir.Delimiter](d.Body)
	if !ok || mid.Char != "|" || mid.Size != 0 {
		t.Errorf("middle = %+v", mid)
	}
}

func TestParse_UndefinedStrict(t *testing.T) {
	_, err := parse(t, `a + \foo`, parser.Config{})
	var ue *parser.UndefinedControlSequenceError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UndefinedControlSequenceError, got %v", err)
	}
	if ue.Name != `\foo` || ue.Pos.Column != 5 {
		t.Errorf("error = %+v", ue)
	}

	_, err = parse(t, `\begin{foo}x\end{foo}`, parser.Config{})
	if !errors.As(err, &ue) || !ue.Environment || ue.Name != "foo" {
		t.Fatalf("expected undefined environment error, got %v", err)
	}
}

func TestParse_UndefinedPermissive(t *testing.T) {
	lenient := &recovery.LenientStrategy{}
	n, err := parse(t, `a + \foo + \begin{bar}x\end{bar}`, parser.Config{Recovery: lenient})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var names []string
	ir.Walk(n, func(c ir.Node) bool {
		if ph, ok := c.(*ir.Placeholder); ok {
			names = append(names, ph.Name)
			if ph.Color != "red" {
				t.Errorf("placeholder color = %q", ph.Color)
			}
		}
		return true
	})
	if strings.Join(names, ",") != `\foo,\begin{bar}` {
		t.Errorf("placeholders = %v", names)
	}
	if len(lenient.Collected()) != 2 {
		t.Errorf("collected %d errors, want 2", len(lenient.Collected()))
	}
}

func TestParse_Matrix(t *testing.T) {
	a, ok := only(t, mustParse(t, `\begin{pmatrix} 1 & 2 \\ 3 & 4 \\ \end{pmatrix}`)).(*ir.Array)
	if !ok {
		t.Fatalf("expected *ir.Array")
	}
	if len(a.Cells) != 2 || a.Cols() != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", len(a.Cells), a.Cols())
	}
	if a.Open != "(" || a.Close != ")" {
		t.Errorf("delimiters = %q %q", a.Open, a.Close)
	}
	if len(a.RowLines) != 3 || len(a.ColLines) != 3 {
		t.Errorf("rule slices = %d, %d", len(a.RowLines), len(a.ColLines))
	}
}

func TestParse_ArrayColumns(t *testing.T) {
	a, ok := only(t, mustParse(t, `\begin{array}{l|r} \hline a & b \\ c & d \end{array}`)).(*ir.Array)
	if !ok {
		t.Fatalf("expected *ir.Array")
	}
	if a.Align[0] != ir.AlignLeft || a.Align[1] != ir.AlignRight {
		t.Errorf("align = %q", a.Align)
	}
	if !a.ColLines[1] || a.ColLines[0] || a.ColLines[2] {
		t.Errorf("column rules = %v", a.ColLines)
	}
	if !a.RowLines[0] || a.RowLines[1] {
		t.Errorf("row rules = %v", a.RowLines)
	}
}

func TestParse_Limits(t *testing.T) {
	_, err := parse(t, `\begin{matrix}1\\2\\3\\4\end{matrix}`, parser.Config{MaxRows: 2})
	if err == nil || !strings.Contains(err.Error(), "exceeds 2 rows") {
		t.Errorf("MaxRows: got %v", err)
	}
	_, err = parse(t, `\begin{matrix}1&2&3\end{matrix}`, parser.Config{MaxCols: 2})
	if err == nil || !strings.Contains(err.Error(), "exceeds 2 columns") {
		t.Errorf("MaxCols: got %v", err)
	}
	_, err = parse(t, `{{{{{{{x}}}}}}}`, parser.Config{MaxDepth: 5})
	if err == nil || !strings.Contains(err.Error(), "nesting deeper than 5") {
		t.Errorf("MaxDepth: got %v", err)
	}
}

func TestParse_Tag(t *testing.T) {
	n, err := parse(t, `E = mc^2 \tag{1}`, parser.Config{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a, ok := n.(*ir.Array)
	if !ok || a.Tag == nil {
		t.Fatalf("root = %T, want tagged *ir.Array", n)
	}
	if _, err := parse(t, `x \tag{1} \tag{2}`, parser.Config{}); err == nil {
		t.Errorf("expected error for two tags")
	}
}

func TestParse_Operators(t *testing.T) {
	s, ok := only(t, mustParse(t, `\sum_{i=1}^n`)).(*ir.Scripts)
	if !ok {
		t.Fatalf("expected *ir.Scripts")
	}
	if a := s.Nucleus.(*ir.Atom); !a.Large || a.Class != ir.ClassOp || s.Limits != ir.LimitsAuto {
		t.Errorf("sum = %+v limits %v", a, s.Limits)
	}
	s, ok = only(t, mustParse(t, `\int\limits_0^1`)).(*ir.Scripts)
	if !ok || s.Limits != ir.LimitsAlways {
		t.Errorf(`\int\limits: %+v`, s)
	}
	s, ok = only(t, mustParse(t, `\operatorname*{argmax}_x`)).(*ir.Scripts)
	if !ok {
		t.Fatalf("expected *ir.Scripts")
	}
	if a := s.Nucleus.(*ir.Atom); a.Text != "argmax" || a.Limits != ir.LimitsAuto || a.Variant != ir.VariantNormal {
		t.Errorf("operatorname = %+v", a)
	}
	if a := only(t, mustParse(t, `\sin`)).(*ir.Atom); a.Limits != ir.LimitsNever {
		t.Errorf(`\sin limits = %v`, a.Limits)
	}
}

func TestParse_Text(t *testing.T) {
	r, ok := only(t, mustParse(t, `\text{if $x>0$}`)).(*ir.Row)
	if !ok || len(r.Children) != 2 {
		t.Fatalf("expected text row with 2 parts")
	}
	if txt := r.Children[0].(*ir.Text); txt.Text != "if " {
		t.Errorf("text = %q", txt.Text)
	}
	if st := r.Children[1].(*ir.Styled); st.Style != ir.StyleText {
		t.Errorf("embedded math style = %v", st.Style)
	}
	txt := only(t, mustParse(t, `\textbf{a--b}`)).(*ir.Text)
	if txt.Text != "a–b" || txt.Variant != ir.VariantBold {
		t.Errorf("textbf = %+v", txt)
	}
}

func TestParse_Colors(t *testing.T) {
	st := only(t, mustParse(t, `\color{red} x + y`)).(*ir.Styled)
	if st.Color != "red" || ir.Count(st.Body) != 4 {
		t.Errorf("color switch = %+v", st)
	}
	st = only(t, mustParse(t, `\textcolor{Red}{x}`)).(*ir.Styled)
	if st.Color != "#ED1B23" {
		t.Errorf("named color = %q", st.Color)
	}
	st = only(t, mustParse(t, `\definecolor{mine}{rgb}{1,0.5,0}\textcolor{mine}{x}`)).(*ir.Styled)
	if st.Color != "#FF8000" {
		t.Errorf("defined color = %q", st.Color)
	}
}

func TestParse_FontVariants(t *testing.T) {
	root := mustParse(t, `\newcommand{\R}{\mathbb{R}} \R \mathbf{x1} \boldsymbol{\alpha}`)
	var atoms []*ir.Atom
	ir.Walk(root, func(n ir.Node) bool {
		if a, ok := n.(*ir.Atom); ok {
			atoms = append(atoms, a)
		}
		return true
	})
	want := []ir.Variant{ir.VariantDoubleStruck, ir.VariantBold, ir.VariantBold, ir.VariantBoldItalic}
	if len(atoms) != len(want) {
		t.Fatalf("got %d atoms, want %d", len(atoms), len(want))
	}
	for i, a := range atoms {
		if a.Variant != want[i] {
			t.Errorf("atom %q variant = %v, want %v", a.Text, a.Variant, want[i])
		}
	}
}

func TestParse_Negation(t *testing.T) {
	a := only(t, mustParse(t, `\not=`)).(*ir.Atom)
	if a.Text != "≠" || a.Class != ir.ClassRel {
		t.Errorf(`\not= = %+v`, a)
	}
	r := only(t, mustParse(t, `\not\prec`)).(*ir.Atom)
	if r.Text != "⊀" {
		t.Errorf(`\not\prec = %q`, r.Text)
	}
}

func TestParse_LineBreak(t *testing.T) {
	root := mustParse(t, `a \\ b`)
	if len(root.Children) != 3 {
		t.Fatalf("got %d children", len(root.Children))
	}
	if _, ok := root.Children[1].(*ir.Break); !ok {
		t.Errorf("middle child = %T, want *ir.Break", root.Children[1])
	}
}

func TestParse_Chemistry(t *testing.T) {
	ext := only(t, mustParse(t, `\ce{2H2 + O2 -> 2H2O}`)).(*ir.Extension)
	if ext.Package != "mhchem" || ext.Source != "2H2 + O2 -> 2H2O" {
		t.Fatalf("extension = %+v", ext)
	}
	if _, ok := find[*ir.Arrow](ext.Body); !ok {
		t.Errorf("reaction arrow missing")
	}
	ion := only(t, mustParse(t, `\ce{SO4^2-}`)).(*ir.Extension)
	s, ok := find[*ir.Scripts](ion.Body)
	if !ok {
		t.Fatalf("no scripts in %s", ion.Source)
	}
	if sup, ok := s.Sup.(*ir.Atom); !ok || sup.Text != "2−" {
		t.Errorf("charge = %+v", s.Sup)
	}
}

func TestParse_CommutativeDiagram(t *testing.T) {
	a := only(t, mustParse(t, `\begin{CD} A @>f>> B \\ @VgVV @VVhV \\ C @>>k> D \end{CD}`)).(*ir.Array)
	if len(a.Cells) != 3 {
		t.Fatalf("rows = %d, want 3", len(a.Cells))
	}
	for i, want := range []int{3, 3, 3} {
		if len(a.Cells[i]) != want {
			t.Errorf("row %d has %d cells, want %d", i, len(a.Cells[i]), want)
		}
	}
	if arrow, ok := a.Cells[1][0].(*ir.Arrow); !ok || arrow.Arrow != ir.ArrowDown || arrow.Over == nil {
		t.Errorf("left vertical arrow = %+v", a.Cells[1][0])
	}
}

func TestParse_Cancelled(t *testing.T) {
	toks, err := scanner.Tokenize(`\frac{a}{b} + \sqrt{x}`, scanner.Config{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := parser.Parse(ctx, defaultSet.Grammar, parser.Config{}, toks); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

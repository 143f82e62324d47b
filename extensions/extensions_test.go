package extensions

import (
	"context"
	"strings"
	"testing"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

func render(t *testing.T, set *Set, src string) ir.Node {
	t.Helper()
	toks, err := scanner.Tokenize(src, scanner.Config{})
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	toks, err = macro.NewExpander(macro.NewNamespace(set.Macros), macro.Config{}).Expand(toks)
	if err != nil {
		t.Fatalf("expand %q: %v", src, err)
	}
	n, err := parser.Parse(context.Background(), set.Grammar, parser.Config{}, toks)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return n
}

func TestBuild_Order(t *testing.T) {
	set, err := Build("cases", "color", "base", "color")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := "base,ams,cases,color"
	if got := strings.Join(set.Names, ","); got != want {
		t.Errorf("install order = %s, want %s", got, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build("nosuchpackage"); err == nil || !strings.Contains(err.Error(), "unknown package") {
		t.Errorf("unknown package: got %v", err)
	}

	catalog := append(Standard(),
		newPackage("test-cycle-a", []string{"test-cycle-b"}, func(*Builder) error { return nil }),
		newPackage("test-cycle-b", []string{"test-cycle-a"}, func(*Builder) error { return nil }),
	)
	if _, err := BuildFrom(catalog, "test-cycle-a"); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("cycle: got %v", err)
	}
}

func TestBuildFrom_LaterPackageWins(t *testing.T) {
	catalog := append(Standard(), newPackage("test-override", nil, func(b *Builder) error {
		b.Symbol(`\alpha`, "A", ir.ClassOrd)
		return nil
	}))
	set, err := BuildFrom(catalog, "test-override")
	if err != nil {
		t.Fatal(err)
	}
	if got := set.Grammar.Symbols[`\alpha`].Text; got != "A" {
		t.Errorf(`\alpha = %q, want "A"`, got)
	}
	if got := MustBuild().Grammar.Symbols[`\alpha`].Text; got != "α" {
		t.Errorf("base set modified: \\alpha = %q", got)
	}
	if _, err := Build("test-override"); err == nil {
		t.Error("a package outside the standard list leaked into Build")
	}
}

func TestAvailable(t *testing.T) {
	names := Available()
	if len(names) != len(Standard()) {
		t.Fatalf("Available lists %d packages, want %d", len(names), len(Standard()))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted and unique at %d: %v", i, names)
		}
	}
}

func TestDefaultPackages(t *testing.T) {
	set, err := Build(DefaultPackages...)
	if err != nil {
		t.Fatalf("Build(DefaultPackages) failed: %v", err)
	}
	for _, name := range DefaultPackages {
		if _, ok := Lookup(name); !ok {
			t.Errorf("default package %s is not registered", name)
		}
	}
	if len(set.Names) != len(DefaultPackages) {
		t.Errorf("installed %d packages, want %d", len(set.Names), len(DefaultPackages))
	}
	for _, name := range []string{`\frac`, `\mathbb`, `\ce`, `\cancel`, `\qty`, `\boxed`} {
		if !set.Grammar.Defined(name) {
			t.Errorf("%s not defined by default packages", name)
		}
	}
	if _, ok := set.Macros.Command(`\newcommand`); !ok {
		t.Errorf(`\newcommand not defined in macro table`)
	}
	if _, ok := set.Macros.Macro(`\bra`); !ok {
		t.Errorf(`\bra not defined in macro table`)
	}
}

func TestColorValue(t *testing.T) {
	tests := []struct {
		model, spec string
		want        string
		wantErr     bool
	}{
		{"rgb", "1, 0, 0.5", "#FF0080", false},
		{"RGB", "0,128,255", "#0080FF", false},
		{"gray", "0.5", "#808080", false},
		{"HTML", "a0b1c2", "#A0B1C2", false},
		{"named", "OliveGreen", namedColors["OliveGreen"], false},
		{"named", "teal", "teal", false},
		{"rgb", "1,0", "", true},
		{"rgb", "2,0,0", "", true},
		{"HTML", "xyz123", "", true},
		{"cmyk", "0,0,0,1", "", true},
	}
	for _, tt := range tests {
		got, err := ColorValue(tt.model, tt.spec)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ColorValue(%s, %q): expected error, got %q", tt.model, tt.spec, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ColorValue(%s, %q) = %q, %v; want %q", tt.model, tt.spec, got, err, tt.want)
		}
	}
}

func TestParseCodePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"x263A", '☺', false},
		{"0x1D400", '𝐀', false},
		{"65", 'A', false},
		{"0", 0, true},
		{"xD800", 0, true},
		{"x110000", 0, true},
		{"zz", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCodePoint(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseCodePoint(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTextAccents(t *testing.T) {
	set := MustBuild("textmacros")
	var sb strings.Builder
	ir.Walk(render(t, set, `\text{caf\'e na\"ive \~x}`), func(n ir.Node) bool {
		if txt, ok := n.(*ir.Text); ok {
			sb.WriteString(txt.Text)
		}
		return true
	})
	if got, want := sb.String(), "caf\u00e9 na\u00efve x\u0303"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestPhysics(t *testing.T) {
	set := MustBuild("physics")
	d, ok := render(t, set, `\abs{x}`).(*ir.Row).Children[0].(*ir.Delimited)
	if !ok || d.Open != "|" || d.Close != "|" {
		t.Fatalf(`\abs = %+v`, d)
	}
	fixed, ok := render(t, set, `\abs*{x}`).(*ir.Row).Children[0].(*ir.Row)
	if !ok || len(fixed.Children) != 3 {
		t.Fatalf(`\abs* = %+v`, fixed)
	}
	f, ok := render(t, set, `\dv[2]{f}{x}`).(*ir.Row).Children[0].(*ir.Fraction)
	if !ok {
		t.Fatalf(`\dv did not produce a fraction`)
	}
	if _, ok := f.Num.(*ir.Row); !ok {
		t.Errorf("numerator = %T", f.Num)
	}
}

func TestBraket(t *testing.T) {
	set := MustBuild("braket")
	d, ok := render(t, set, `\Braket{\phi | A | \psi}`).(*ir.Row).Children[0].(*ir.Delimited)
	if !ok || d.Open != "⟨" || d.Close != "⟩" {
		t.Fatalf(`\Braket = %+v`, d)
	}
	bars := 0
	ir.Walk(d.Body, func(n ir.Node) bool {
		if m, ok := n.(*ir.Delimiter); ok && m.Char == "|" {
			bars++
		}
		return true
	})
	if bars != 2 {
		t.Errorf("found %d middle bars, want 2", bars)
	}
}

func TestCancel(t *testing.T) {
	set := MustBuild("cancel")
	e, ok := render(t, set, `\cancelto{0}{x}`).(*ir.Row).Children[0].(*ir.Enclose)
	if !ok || e.Target == nil || len(e.Notations) != 1 {
		t.Fatalf(`\cancelto = %+v`, e)
	}
	e = render(t, set, `\xcancel{y}`).(*ir.Row).Children[0].(*ir.Enclose)
	if got := strings.Join(e.Notations, " "); got != "updiagonalstrike downdiagonalstrike" {
		t.Errorf(`\xcancel notations = %q`, got)
	}
}

func TestMhchem(t *testing.T) {
	set := MustBuild("mhchem")
	tests := []struct {
		src   string
		atoms string
	}{
		{`\ce{H2O}`, "H 2 O"},
		{`\ce{Na+}`, "Na +"},
		{`\ce{A <=> B}`, "A B"},
		{`\pu{123 kJ/mol}`, "123 kJ / mol"},
	}
	for _, tt := range tests {
		ext, ok := render(t, set, tt.src).(*ir.Row).Children[0].(*ir.Extension)
		if !ok {
			t.Fatalf("%s: expected *ir.Extension", tt.src)
		}
		var texts []string
		ir.Walk(ext.Body, func(n ir.Node) bool {
			switch v := n.(type) {
			case *ir.Atom:
				texts = append(texts, v.Text)
			case *ir.Text:
				texts = append(texts, v.Text)
			}
			return true
		})
		if got := strings.Join(texts, " "); got != tt.atoms {
			t.Errorf("%s atoms = %q, want %q", tt.src, got, tt.atoms)
		}
	}
}

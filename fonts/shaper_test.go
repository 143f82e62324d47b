package fonts_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/wudi/texsvg/extensions"
	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/ir"
)

func table(t *testing.T) *fonts.Table {
	t.Helper()
	tab, err := fonts.Default()
	if err != nil {
		t.Fatalf("fonts.Default: %v", err)
	}
	return tab
}

func TestDetectScript(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect language.Script
	}{
		{"Latin", "Hello World", language.Latin},
		{"Arabic", "مرحبا بالعالم", language.Arabic},
		{"Hebrew", "שלום עולם", language.Hebrew},
		{"Cyrillic", "Привет мир", language.Cyrillic},
		{"Greek", "Γειά σου Κόσμε", language.Greek},
		{"Mixed Latin/Arabic (Latin dominant)", "Hello World مرحبا", language.Latin},
		{"Mixed Latin/Arabic (Arabic dominant)", "مرحبا بالعالم Hello", language.Arabic},
		{"CJK (Han)", "你好世界", language.Han},
		{"Symbols only", "∑∫", language.Latin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := fonts.DetectScript([]rune(tc.input))
			if got != tc.expect {
				t.Errorf("Expected %v, got %v", tc.expect, got)
			}
		})
	}
}

// Every character the default packages can put into an atom, delimiter or
// text run must have a glyph.
func TestDefaultGrammarCovered(t *testing.T) {
	tab := table(t)
	set := extensions.MustBuild(extensions.DefaultPackages...)
	check := func(where, s string) {
		for _, r := range s {
			if !tab.Covers(r) {
				t.Errorf("%s: no glyph for U+%04X %q", where, r, r)
			}
		}
	}
	for name, sym := range set.Grammar.Symbols {
		check(name, sym.Text)
	}
	for name, d := range set.Grammar.Delimiters {
		check(name, d)
	}
	for name, s := range set.Grammar.TextSymbols {
		check(name, s)
	}
}

func TestGlyphFaces(t *testing.T) {
	tab := table(t)
	tests := []struct {
		v    ir.Variant
		r    rune
		want fonts.Face
	}{
		{ir.VariantDefault, 'x', fonts.FaceItalic},
		{ir.VariantDefault, 'α', fonts.FaceItalic},
		{ir.VariantDefault, 'Γ', fonts.FaceRegular},
		{ir.VariantDefault, '2', fonts.FaceRegular},
		{ir.VariantNormal, 'x', fonts.FaceRegular},
		{ir.VariantBold, 'x', fonts.FaceBold},
		{ir.VariantDoubleStruck, 'R', fonts.FaceMonoBold},
		{ir.VariantFraktur, 'g', fonts.FaceSmallCaps},
		{ir.VariantDefault, '∈', fonts.FaceSymbols},
		{ir.VariantBold, '∈', fonts.FaceSymbols},
		{ir.VariantDefault, '∑', fonts.FaceRegular},
	}
	for _, tt := range tests {
		g, err := tab.Glyph(tt.v, tt.r)
		if err != nil {
			t.Errorf("Glyph(%s, %q): %v", tt.v, tt.r, err)
			continue
		}
		if g.Face != tt.want {
			t.Errorf("Glyph(%s, %q) face = %s, want %s", tt.v, tt.r, g.Face, tt.want)
		}
	}
}

func TestGlyphAlias(t *testing.T) {
	tab := table(t)
	phi, err := tab.Glyph(ir.VariantDefault, 'ϕ')
	if err != nil {
		t.Fatalf("ϕ: %v", err)
	}
	if phi.Rune != 'φ' {
		t.Errorf("ϕ drawn with %q, want φ", phi.Rune)
	}
}

func TestGlyphMissing(t *testing.T) {
	tab := table(t)
	_, err := tab.Glyph(ir.VariantBold, '\U0001F600')
	var miss *fonts.MetricsMissingError
	if !errors.As(err, &miss) {
		t.Fatalf("expected MetricsMissingError, got %v", err)
	}
	if miss.Rune != '\U0001F600' || miss.Variant != ir.VariantBold {
		t.Errorf("error fields = %+v", miss)
	}
	if _, err := tab.Shape(ir.VariantNormal, "ok \U0001F600"); !errors.As(err, &miss) {
		t.Errorf("Shape: expected MetricsMissingError, got %v", err)
	}
}

func TestSymbolGeometry(t *testing.T) {
	tab := table(t)
	for _, r := range "∈⊂⇒⟶⊕≤" {
		g, err := tab.Glyph(ir.VariantDefault, r)
		if err != nil {
			t.Fatalf("%q: %v", r, err)
		}
		if g.Advance <= 0 {
			t.Errorf("%q advance = %v", r, g.Advance)
		}
		if g.Path == "" || !strings.HasPrefix(g.Path, "M") {
			t.Errorf("%q path = %q", r, g.Path)
		}
		mid := (g.Bounds.MinY + g.Bounds.MaxY) / 2
		if mid > -100 || mid < -400 {
			t.Errorf("%q is not centred near the math axis: %+v", r, g.Bounds)
		}
	}
	acute, err := tab.Glyph(ir.VariantNormal, '́')
	if err != nil {
		t.Fatal(err)
	}
	if acute.Advance != 0 || acute.Bounds.MaxX >= 0 {
		t.Errorf("combining acute should sit left of the origin with no advance: %+v", acute)
	}
}

func TestShape(t *testing.T) {
	tab := table(t)
	run, err := tab.Shape(ir.VariantNormal, "AV x")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(run.Glyphs) != 4 {
		t.Fatalf("got %d glyphs, want 4", len(run.Glyphs))
	}
	for i := 1; i < len(run.Glyphs); i++ {
		if run.Glyphs[i].X <= run.Glyphs[i-1].X {
			t.Errorf("glyph %d at %v does not follow glyph %d at %v", i, run.Glyphs[i].X, i-1, run.Glyphs[i-1].X)
		}
	}
	if run.Advance <= run.Glyphs[3].X {
		t.Errorf("advance %v ends before the last glyph", run.Advance)
	}

	mixed, err := tab.Shape(ir.VariantDefault, "a∈b")
	if err != nil {
		t.Fatalf("Shape mixed: %v", err)
	}
	if len(mixed.Glyphs) != 3 || mixed.Glyphs[1].Glyph.Face != fonts.FaceSymbols {
		t.Errorf("mixed run = %+v", mixed.Glyphs)
	}
	if mixed.Glyphs[0].Glyph.Face != fonts.FaceRegular {
		t.Errorf("text default face = %s, want regular", mixed.Glyphs[0].Glyph.Face)
	}
}

func TestLoadDeterministic(t *testing.T) {
	a, err := fonts.Load()
	if err != nil {
		t.Fatal(err)
	}
	b := table(t)
	for _, r := range "x∮⨁≇⟺" {
		ga, _ := a.Glyph(ir.VariantDefault, r)
		gb, _ := b.Glyph(ir.VariantDefault, r)
		if ga.Key() != gb.Key() || ga.Path != gb.Path {
			t.Errorf("%q differs between loads: %s vs %s", r, ga.Key(), gb.Key())
		}
	}
}

func TestConcurrentShape(t *testing.T) {
	tab := table(t)
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := tab.Shape(ir.VariantItalic, "concurrent shaping")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}

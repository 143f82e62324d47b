package mathml

import (
	"encoding/xml"
	"slices"
	"strings"
	"testing"
)

func TestFromLaTeX(t *testing.T) {
	tests := []struct {
		latex   string
		display bool
		want    string
	}{
		{"x^2", false, "msup"},
		{`\frac{a}{b}`, true, "mfrac"},
		{`\sqrt{2}`, true, "msqrt"},
		{"a_i", false, "msub"},
	}
	for _, tt := range tests {
		t.Run(tt.latex, func(t *testing.T) {
			out, err := FromLaTeX(tt.latex, tt.display)
			if err != nil {
				t.Fatalf("FromLaTeX: %v", err)
			}
			if err := xml.Unmarshal([]byte(out), new(struct{})); err != nil {
				t.Fatalf("not well-formed XML: %v\n%s", err, out)
			}
			names, err := Elements(out)
			if err != nil {
				t.Fatal(err)
			}
			if names[0] != "math" || !slices.Contains(names, tt.want) {
				t.Errorf("elements = %v, want %s", names, tt.want)
			}
			mode := `display="inline"`
			if tt.display {
				mode = `display="block"`
			}
			if !strings.Contains(out, mode) || !strings.Contains(out, `xmlns="`+Namespace+`"`) {
				t.Errorf("root attributes missing in %s", out)
			}
		})
	}
}

func TestFromLaTeXRejectsDollar(t *testing.T) {
	if _, err := FromLaTeX(`a$b`, false); err == nil {
		t.Error("expected an error for a source containing $")
	}
}

func TestFromLaTeXEmpty(t *testing.T) {
	out, err := FromLaTeX("  \n ", true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "<math") {
		t.Errorf("got %q", out)
	}
}

func TestExtractNoMath(t *testing.T) {
	if _, err := Extract("<p>plain</p>"); err != ErrNoMath {
		t.Errorf("got %v, want ErrNoMath", err)
	}
}

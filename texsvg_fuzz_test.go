package texsvg

import (
	"testing"
)

var fuzzSeeds = []string{
	`x^2`, `\frac{a}{b}`, `\left(\right.`, `\begin{matrix}a&b\\c\end{matrix}`,
	`\text{<&>}`, `\def\a#1{#1#1}\a{x}`, `{{{`, `a_b_c`, `\sqrt`, `\\`, `%`,
	"\\class{a\x01b}{x}", "\\href{a\x02}{x}", "\\texttip{x}{\x03}",
	"x % \x01 comment", "x % \xff\xfe", "\\cssId{\x1f}{y}",
}

func fuzzRender(f *testing.F, opts ...Option) {
	for _, seed := range fuzzSeeds {
		f.Add(seed, true)
		f.Add(seed, false)
	}
	r, err := New(append([]Option{WithPermissive(true)}, opts...)...)
	if err != nil {
		f.Fatal(err)
	}
	f.Fuzz(func(t *testing.T, src string, display bool) {
		svg, err := r.Convert(t.Context(), src, display)
		if err != nil {
			return
		}
		wellFormed(t, svg)
	})
}

func FuzzRender(f *testing.F) { fuzzRender(f) }

func FuzzRenderTitled(f *testing.F) { fuzzRender(f, WithTitle(true)) }

package scanner

import (
	"testing"
)

func FuzzScanner(f *testing.F) {
	f.Add(`\frac{1}{2}`)
	f.Add(`x^2 + y_{i,j}`)
	f.Add(`\verb|raw|`)
	f.Add(`% comment only`)
	f.Add(`\begin{pmatrix} a & b \\ c & d \end{pmatrix}`)

	f.Fuzz(func(t *testing.T, src string) {
		toks, err := Tokenize(src, Config{MaxTokens: 4096})
		if err != nil {
			return
		}
		for _, tok := range toks {
			if tok.Pos.Offset < 0 || tok.Pos.Offset > len(src) {
				t.Fatalf("token %+v has out of range offset", tok)
			}
		}
	})
}

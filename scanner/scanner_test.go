package scanner

import (
	"errors"
	"io"
	"testing"
)

func nextToken(t *testing.T, s Scanner) Token {
	t.Helper()
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tok
}

func TestScanner_BasicTokens(t *testing.T) {
	s := New(`\frac{a_1}{2}^x & y`, Config{})

	want := []struct {
		typ  TokenType
		text string
	}{
		{TokenControlWord, `\frac`},
		{TokenBeginGroup, "{"},
		{TokenLetter, "a"},
		{TokenSubscript, "_"},
		{TokenDigit, "1"},
		{TokenEndGroup, "}"},
		{TokenBeginGroup, "{"},
		{TokenDigit, "2"},
		{TokenEndGroup, "}"},
		{TokenSuperscript, "^"},
		{TokenLetter, "x"},
		{TokenSpace, " "},
		{TokenAlign, "&"},
		{TokenSpace, " "},
		{TokenLetter, "y"},
	}
	for i, w := range want {
		tok := nextToken(t, s)
		if tok.Type != w.typ || tok.Text != w.text {
			t.Fatalf("token %d: expected %s %q, got %+v", i, w.typ, w.text, tok)
		}
	}
	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestScanner_ControlSequences(t *testing.T) {
	toks, err := Tokenize(`\alpha   b\,\\\{`, Config{})
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(toks) != 5 {
		t.Fatalf("expected 5 tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Type != TokenControlWord || toks[0].Text != `\alpha` {
		t.Fatalf("expected \\alpha, got %+v", toks[0])
	}
	// Spaces after a control word are swallowed.
	if toks[1].Type != TokenLetter || toks[1].Text != "b" {
		t.Fatalf("expected letter b, got %+v", toks[1])
	}
	for i, text := range []string{`\,`, `\\`, `\{`} {
		if toks[i+2].Type != TokenControlSymbol || toks[i+2].Text != text {
			t.Fatalf("expected control symbol %s, got %+v", text, toks[i+2])
		}
	}
}

func TestScanner_CommentsAndPositions(t *testing.T) {
	toks, err := Tokenize("a % ignored\nb", Config{})
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	last := toks[len(toks)-1]
	if last.Text != "b" || last.Pos.Line != 2 || last.Pos.Column != 1 {
		t.Fatalf("expected b at line 2 column 1, got %+v", last)
	}
	for _, tok := range toks {
		if tok.Text == "i" {
			t.Fatalf("comment text leaked into token stream: %v", toks)
		}
	}
}

func TestScanner_Verbatim(t *testing.T) {
	toks, err := Tokenize(`\verb|a{b}%c| x`, Config{})
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Type != TokenVerbatim || toks[0].Text != "a{b}%c" {
		t.Fatalf("expected verbatim body, got %+v", toks[0])
	}

	_, err = Tokenize(`\verb|abc`, Config{})
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError for unterminated verb, got %v", err)
	}
}

func TestScanner_MaxTokens(t *testing.T) {
	_, err := Tokenize("abcdef", Config{MaxTokens: 3})
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected token limit error, got %v", err)
	}
}

func TestScanner_TrailingBackslash(t *testing.T) {
	_, err := Tokenize(`x\`, Config{})
	var se *SyntaxError
	if !errors.As(err, &se) || se.Pos.Column != 2 {
		t.Fatalf("expected SyntaxError at column 2, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	toks, err := Tokenize(`\alpha x+\beta`, Config{})
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if got := Join(toks); got != `\alpha x+\beta` {
		t.Fatalf("Join = %q", got)
	}
}

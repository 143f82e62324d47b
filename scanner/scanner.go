package scanner

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	TokenControlWord   TokenType = iota // '\alpha'
	TokenControlSymbol                  // '\,' '\{' '\\'
	TokenBeginGroup                     // '{'
	TokenEndGroup                       // '}'
	TokenMathShift                      // '$'
	TokenAlign                          // '&'
	TokenParam                          // '#'
	TokenSuperscript                    // '^'
	TokenSubscript                      // '_'
	TokenLetter                         // a-z, A-Z and other unicode letters
	TokenDigit                          // 0-9
	TokenOther                          // operators, punctuation
	TokenSpace                          // collapsed run of white space
	TokenActive                         // '~'
	TokenVerbatim                       // body of \verb|...|
)

var tokenNames = [...]string{
	"control word", "control symbol", "begin-group", "end-group", "math shift", "alignment tab",
	"parameter", "superscript", "subscript", "letter", "digit", "other", "space", "active", "verbatim",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Position locates a token in the source string. Line and Column are 1-based,
// Offset is a byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token is a single lexical unit. Control sequences keep their backslash in
// Text ("\frac"); verbatim tokens carry the body without delimiters.
type Token struct {
	Type TokenType
	Text string
	Pos  Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %s", t.Type, t.Text, t.Pos)
}

// Is reports whether the token is the given control sequence or character.
func (t Token) Is(text string) bool { return t.Text == text && t.Type != TokenVerbatim }

// IsControl reports whether the token is a control word or control symbol.
func (t Token) IsControl() bool {
	return t.Type == TokenControlWord || t.Type == TokenControlSymbol
}

// SyntaxError reports malformed input together with the offending position.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
}

type Scanner interface {
	Next() (Token, error)
	Position() Position
}

type Config struct {
	// MaxTokens bounds the number of tokens produced; zero means unlimited.
	MaxTokens int
}

type texScanner struct {
	src   string
	pos   Position
	cfg   Config
	count int
}

// New returns a scanner over src.
func New(src string, cfg Config) Scanner {
	return &texScanner{src: src, cfg: cfg, pos: Position{Line: 1, Column: 1}}
}

// Tokenize scans the whole source.
func Tokenize(src string, cfg Config) ([]Token, error) {
	s := New(src, cfg)
	var toks []Token
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return toks, nil
		}
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
}

func (s *texScanner) Position() Position { return s.pos }

func (s *texScanner) peek() (rune, int) {
	if s.pos.Offset >= len(s.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s.src[s.pos.Offset:])
}

func (s *texScanner) advance(r rune, size int) {
	s.pos.Offset += size
	if r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
}

func (s *texScanner) skipComment() {
	for {
		r, size := s.peek()
		if size == 0 {
			return
		}
		s.advance(r, size)
		if r == '\n' {
			return
		}
	}
}

func (s *texScanner) Next() (Token, error) {
	for {
		r, size := s.peek()
		if size == 0 {
			return Token{}, io.EOF
		}
		if r == '%' {
			s.skipComment()
			continue
		}
		if s.cfg.MaxTokens > 0 && s.count >= s.cfg.MaxTokens {
			return Token{}, &SyntaxError{Pos: s.pos, Msg: fmt.Sprintf("input exceeds %d tokens", s.cfg.MaxTokens)}
		}
		s.count++
		start := s.pos
		if unicode.IsSpace(r) {
			for unicode.IsSpace(r) && size > 0 {
				s.advance(r, size)
				r, size = s.peek()
			}
			return Token{Type: TokenSpace, Text: " ", Pos: start}, nil
		}
		s.advance(r, size)
		switch r {
		case '\\':
			return s.scanControl(start)
		case '{':
			return Token{Type: TokenBeginGroup, Text: "{", Pos: start}, nil
		case '}':
			return Token{Type: TokenEndGroup, Text: "}", Pos: start}, nil
		case '$':
			return Token{Type: TokenMathShift, Text: "$", Pos: start}, nil
		case '&':
			return Token{Type: TokenAlign, Text: "&", Pos: start}, nil
		case '#':
			return Token{Type: TokenParam, Text: "#", Pos: start}, nil
		case '^':
			return Token{Type: TokenSuperscript, Text: "^", Pos: start}, nil
		case '_':
			return Token{Type: TokenSubscript, Text: "_", Pos: start}, nil
		case '~':
			return Token{Type: TokenActive, Text: "~", Pos: start}, nil
		}
		text := string(r)
		switch {
		case r >= '0' && r <= '9':
			return Token{Type: TokenDigit, Text: text, Pos: start}, nil
		case unicode.IsLetter(r):
			return Token{Type: TokenLetter, Text: text, Pos: start}, nil
		default:
			return Token{Type: TokenOther, Text: text, Pos: start}, nil
		}
	}
}

func (s *texScanner) scanControl(start Position) (Token, error) {
	r, size := s.peek()
	if size == 0 {
		return Token{}, &SyntaxError{Pos: start, Msg: "unexpected end of input after '\\'"}
	}
	if !isASCIILetter(r) {
		s.advance(r, size)
		return Token{Type: TokenControlSymbol, Text: "\\" + string(r), Pos: start}, nil
	}
	begin := s.pos.Offset
	for isASCIILetter(r) && size > 0 {
		s.advance(r, size)
		r, size = s.peek()
	}
	name := "\\" + s.src[begin:s.pos.Offset]
	if name == `\verb` {
		return s.scanVerb(start)
	}
	// Spaces after a control word are not significant.
	for unicode.IsSpace(r) && size > 0 {
		s.advance(r, size)
		r, size = s.peek()
	}
	return Token{Type: TokenControlWord, Text: name, Pos: start}, nil
}

func (s *texScanner) scanVerb(start Position) (Token, error) {
	r, size := s.peek()
	if r == '*' {
		s.advance(r, size)
		r, size = s.peek()
	}
	if size == 0 || unicode.IsSpace(r) || isASCIILetter(r) {
		return Token{}, &SyntaxError{Pos: start, Msg: `missing delimiter for \verb`}
	}
	delim := r
	s.advance(r, size)
	begin := s.pos.Offset
	for {
		r, size = s.peek()
		if size == 0 {
			return Token{}, &SyntaxError{Pos: start, Msg: fmt.Sprintf(`no closing delimiter %q for \verb`, delim)}
		}
		if r == delim {
			body := s.src[begin:s.pos.Offset]
			s.advance(r, size)
			return Token{Type: TokenVerbatim, Text: body, Pos: start}, nil
		}
		s.advance(r, size)
	}
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Join reassembles tokens into source text. A space is re-inserted after a
// control word that would otherwise run into a following letter.
func Join(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		switch t.Type {
		case TokenVerbatim:
			sb.WriteString(`\verb|`)
			sb.WriteString(t.Text)
			sb.WriteString("|")
			continue
		}
		sb.WriteString(t.Text)
		if t.Type == TokenControlWord && i+1 < len(toks) && toks[i+1].Type == TokenLetter {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

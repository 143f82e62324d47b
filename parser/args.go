package parser

import (
	"strconv"
	"strings"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/scanner"
)

// ParseArgument parses a required math argument: a braced group or a
// single nucleus.
func (p *Parser) ParseArgument(cs scanner.Token) (ir.Node, error) {
	p.SkipSpaces()
	tok, ok := p.Peek()
	if !ok || p.isStop(tok, stopCell) || tok.Type == scanner.TokenSuperscript || tok.Type == scanner.TokenSubscript {
		return nil, Errorf(cs.Pos, "missing argument for %s", cs.Text)
	}
	n, err := p.parsePrimary(true)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return &ir.Row{Loc: ir.Loc{P: tok.Pos}, Group: true}, nil
	}
	return n, nil
}

// ParseOptional parses a bracketed math argument if one follows.
func (p *Parser) ParseOptional(cs scanner.Token) (ir.Node, bool, error) {
	p.SkipSpaces()
	open, ok := p.Peek()
	if !ok || open.Type != scanner.TokenOther || open.Text != "[" {
		return nil, false, nil
	}
	p.pos++
	if err := p.enter(open); err != nil {
		return nil, false, err
	}
	nodes, err := p.parseList(stopBracket)
	p.leave()
	if err != nil {
		return nil, false, err
	}
	if tok, ok := p.Peek(); !ok || !tok.Is("]") {
		return nil, false, Errorf(open.Pos, "missing ']' in optional argument of %s", cs.Text)
	}
	p.pos++
	return row(open.Pos, nodes), true, nil
}

// ReadRaw reads an argument without parsing it: a single token or the
// contents of a balanced group.
func (p *Parser) ReadRaw(cs scanner.Token) ([]scanner.Token, error) {
	p.SkipSpaces()
	tok, ok := p.Peek()
	if !ok || tok.Type == scanner.TokenEndGroup {
		return nil, Errorf(cs.Pos, "missing argument for %s", cs.Text)
	}
	p.pos++
	if tok.Type != scanner.TokenBeginGroup {
		return []scanner.Token{tok}, nil
	}
	start := p.pos
	level := 1
	for ; p.pos < len(p.toks); p.pos++ {
		switch p.toks[p.pos].Type {
		case scanner.TokenBeginGroup:
			level++
		case scanner.TokenEndGroup:
			level--
			if level == 0 {
				body := p.toks[start:p.pos]
				p.pos++
				return body, nil
			}
		}
	}
	return nil, Errorf(tok.Pos, "missing '}' in argument of %s", cs.Text)
}

// ReadRawOptional reads a bracketed argument without parsing it.
func (p *Parser) ReadRawOptional(cs scanner.Token) ([]scanner.Token, bool, error) {
	p.SkipSpaces()
	open, ok := p.Peek()
	if !ok || open.Type != scanner.TokenOther || open.Text != "[" {
		return nil, false, nil
	}
	p.pos++
	start := p.pos
	level := 0
	for ; p.pos < len(p.toks); p.pos++ {
		tok := p.toks[p.pos]
		switch {
		case tok.Type == scanner.TokenBeginGroup:
			level++
		case tok.Type == scanner.TokenEndGroup:
			level--
		case level == 0 && tok.Type == scanner.TokenOther && tok.Text == "]":
			body := p.toks[start:p.pos]
			p.pos++
			return body, true, nil
		}
	}
	return nil, false, Errorf(open.Pos, "missing ']' in optional argument of %s", cs.Text)
}

// ReadString reads a raw argument and returns its source text.
func (p *Parser) ReadString(cs scanner.Token) (string, error) {
	toks, err := p.ReadRaw(cs)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(scanner.Join(toks)), nil
}

// ReadOptionalString reads a bracketed argument as source text.
func (p *Parser) ReadOptionalString(cs scanner.Token) (string, bool, error) {
	toks, ok, err := p.ReadRawOptional(cs)
	if err != nil || !ok {
		return "", ok, err
	}
	return strings.TrimSpace(scanner.Join(toks)), true, nil
}

// ParseDelimiter reads the delimiter after \left, \right, \middle or \big.
// The null delimiter "." yields "".
func (p *Parser) ParseDelimiter(cs scanner.Token) (string, error) {
	p.SkipSpaces()
	tok, ok := p.Next()
	if !ok {
		return "", Errorf(cs.Pos, "missing delimiter after %s", cs.Text)
	}
	if tok.Type == scanner.TokenBeginGroup {
		// \left{(} style: a group holding one delimiter.
		p.SkipSpaces()
		inner, ok := p.Next()
		if !ok {
			return "", Errorf(cs.Pos, "missing delimiter after %s", cs.Text)
		}
		p.SkipSpaces()
		if end, ok := p.Next(); !ok || end.Type != scanner.TokenEndGroup {
			return "", Errorf(tok.Pos, "expected a single delimiter after %s", cs.Text)
		}
		tok = inner
	}
	if d, ok := p.g.Delimiters[tok.Text]; ok {
		return d, nil
	}
	if tok.Text == "." {
		return "", nil
	}
	return "", Errorf(tok.Pos, "missing or unrecognized delimiter %s after %s", tok.Text, cs.Text)
}

// ReadDimension reads a TeX dimension such as 2pt, -0.5em or 3mu, braced or
// not, and returns it in em.
func (p *Parser) ReadDimension(cs scanner.Token) (float64, error) {
	p.SkipSpaces()
	tok, ok := p.Peek()
	if !ok {
		return 0, Errorf(cs.Pos, "missing dimension for %s", cs.Text)
	}
	if tok.Type == scanner.TokenBeginGroup {
		s, err := p.ReadString(cs)
		if err != nil {
			return 0, err
		}
		return ParseDimension(cs.Pos, s)
	}
	var sb strings.Builder
	letters := 0
	for p.pos < len(p.toks) && letters < 2 {
		t := p.toks[p.pos]
		switch {
		case t.Type == scanner.TokenDigit, t.Is("."), t.Is(","), t.Is("-"), t.Is("+"):
			if letters > 0 {
				return ParseDimension(cs.Pos, sb.String())
			}
			sb.WriteString(t.Text)
		case t.Type == scanner.TokenLetter:
			letters++
			sb.WriteString(t.Text)
		case t.Type == scanner.TokenSpace && letters == 0:
		default:
			return ParseDimension(tok.Pos, sb.String())
		}
		p.pos++
	}
	return ParseDimension(tok.Pos, sb.String())
}

var units = map[string]float64{
	"em": 1,
	"ex": 0.431,
	"pt": 0.1,
	"pc": 1.2,
	"bp": 0.1004,
	"mu": 1.0 / 18,
	"px": 1.0 / 16,
	"in": 7.227,
	"cm": 2.845,
	"mm": 0.2845,
}

// ParseDimension converts text such as "1.5em" to em, taking 10pt as the
// em size.
func ParseDimension(pos scanner.Position, s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	i := 0
	for i < len(s) && strings.IndexByte("+-.0123456789", s[i]) >= 0 {
		i++
	}
	numText, unit := s[:i], s[i:]
	v, err := strconv.ParseFloat(numText, 64)
	if err != nil {
		return 0, Errorf(pos, "illegal dimension %q", s)
	}
	scale, ok := units[unit]
	if !ok {
		return 0, Errorf(pos, "illegal unit %q in dimension %q", unit, s)
	}
	return v * scale, nil
}

// SkipRowSpacing consumes the optional [dim] after \\ and returns it.
func (p *Parser) SkipRowSpacing() (float64, error) {
	save := p.pos
	p.SkipSpaces()
	tok, ok := p.Peek()
	if !ok || tok.Type != scanner.TokenOther || tok.Text != "[" {
		p.pos = save
		return 0, nil
	}
	s, _, err := p.ReadOptionalString(tok)
	if err != nil {
		return 0, err
	}
	return ParseDimension(tok.Pos, s)
}

// Variant returns the math font variant in effect.
func (p *Parser) Variant() ir.Variant { return p.variant }

// SetVariant changes the variant until the end of the enclosing group.
func (p *Parser) SetVariant(v ir.Variant) { p.variant = v }

// SetBoldSymbols makes every following symbol bold, as \boldsymbol does.
func (p *Parser) SetBoldSymbols(b bool) { p.bold = b }

// WithVariant runs fn with the variant set to v and restores it afterwards.
func (p *Parser) WithVariant(v ir.Variant, fn func() (ir.Node, error)) (ir.Node, error) {
	saved, bold := p.variant, p.bold
	p.variant, p.bold = v, false
	defer func() { p.variant, p.bold = saved, bold }()
	return fn()
}

// DefineColor adds a named color for the rest of the session.
func (p *Parser) DefineColor(name, value string) { p.colors[name] = value }

// Color resolves a color name to the value written to the output.
func (p *Parser) Color(spec string) string {
	spec = strings.TrimSpace(spec)
	if v, ok := p.colors[spec]; ok {
		return v
	}
	if v, ok := p.g.Colors[spec]; ok {
		return v
	}
	return spec
}

// SetTag records the equation tag of the innermost alignment, or of the
// whole formula outside one.
func (p *Parser) SetTag(tok scanner.Token, n ir.Node) error {
	if p.tag != nil {
		return Errorf(tok.Pos, "multiple %s", tok.Text)
	}
	p.tag = n
	return nil
}

// InArray reports whether an alignment body is being parsed.
func (p *Parser) InArray() bool { return p.arrays > 0 }

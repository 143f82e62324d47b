package parser

import (
	"strings"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/scanner"
)

// ParseText parses the text-mode argument of cs (\text, \mbox, \textbf...).
// The result is an *ir.Text, or an *ir.Row when the text embeds math or
// styled runs.
func (p *Parser) ParseText(cs scanner.Token, v ir.Variant) (ir.Node, error) {
	p.SkipSpaces()
	tok, ok := p.Next()
	if !ok || tok.Type == scanner.TokenEndGroup {
		return nil, Errorf(cs.Pos, "missing argument for %s", cs.Text)
	}
	if tok.Type != scanner.TokenBeginGroup {
		return &ir.Text{Loc: ir.Loc{P: tok.Pos}, Text: tok.Text, Variant: v}, nil
	}
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer p.leave()
	mode := p.mode
	p.mode = ModeText
	defer func() { p.mode = mode }()
	return p.parseTextBody(tok, v)
}

func (p *Parser) parseTextBody(open scanner.Token, v ir.Variant) (ir.Node, error) {
	var (
		parts []ir.Node
		sb    strings.Builder
		start scanner.Position
	)
	flush := func() {
		if sb.Len() > 0 {
			parts = append(parts, &ir.Text{Loc: ir.Loc{P: start}, Text: sb.String(), Variant: v})
			sb.Reset()
		}
	}
	write := func(pos scanner.Position, s string) {
		if sb.Len() == 0 {
			start = pos
		}
		sb.WriteString(s)
	}
	for {
		tok, ok := p.Next()
		if !ok {
			return nil, Errorf(open.Pos, "missing '}'")
		}
		switch tok.Type {
		case scanner.TokenEndGroup:
			flush()
			return textResult(open.Pos, parts, v), nil
		case scanner.TokenBeginGroup:
			flush()
			if err := p.enter(tok); err != nil {
				return nil, err
			}
			inner, err := p.parseTextBody(tok, v)
			p.leave()
			if err != nil {
				return nil, err
			}
			parts = append(parts, inner)
		case scanner.TokenMathShift:
			if !p.g.TextMacros {
				write(tok.Pos, "$")
				continue
			}
			flush()
			math, err := p.parseInlineMath(tok)
			if err != nil {
				return nil, err
			}
			parts = append(parts, math)
		case scanner.TokenSpace:
			write(tok.Pos, " ")
		case scanner.TokenActive:
			write(tok.Pos, " ")
		case scanner.TokenVerbatim:
			flush()
			n, err := p.parsePrimaryToken(tok)
			if err != nil {
				return nil, err
			}
			parts = append(parts, n)
		case scanner.TokenControlWord, scanner.TokenControlSymbol:
			if !p.g.TextMacros {
				write(tok.Pos, tok.Text)
				continue
			}
			if s, ok := p.g.TextSymbols[tok.Text]; ok {
				write(tok.Pos, s)
				continue
			}
			flush()
			if cmd, ok := p.g.TextCommands[tok.Text]; ok {
				n, err := cmd(p, tok)
				if err != nil {
					return nil, err
				}
				if n != nil {
					parts = append(parts, n)
				}
				continue
			}
			n, err := p.Undefined(tok)
			if err != nil {
				return nil, err
			}
			parts = append(parts, n)
		case scanner.TokenOther:
			if p.g.TextMacros {
				write(tok.Pos, p.ligature(tok))
				continue
			}
			write(tok.Pos, tok.Text)
		default:
			write(tok.Pos, tok.Text)
		}
	}
}

// ligature applies the text-mode quote and dash ligatures.
func (p *Parser) ligature(tok scanner.Token) string {
	follows := func(s string) bool {
		if t, ok := p.Peek(); ok && t.Type == scanner.TokenOther && t.Text == s {
			p.pos++
			return true
		}
		return false
	}
	switch tok.Text {
	case "`":
		if follows("`") {
			return "“"
		}
		return "‘"
	case "'":
		if follows("'") {
			return "”"
		}
		return "’"
	case "-":
		if follows("-") {
			if follows("-") {
				return "—"
			}
			return "–"
		}
	}
	return tok.Text
}

func (p *Parser) parseInlineMath(open scanner.Token) (ir.Node, error) {
	mode, variant, bold := p.mode, p.variant, p.bold
	p.mode, p.variant, p.bold = ModeMath, ir.VariantDefault, false
	defer func() { p.mode, p.variant, p.bold = mode, variant, bold }()
	nodes, err := p.parseList(stopDollar)
	if err != nil {
		return nil, err
	}
	tok, ok := p.Next()
	if !ok || tok.Type != scanner.TokenMathShift {
		return nil, Errorf(open.Pos, "missing closing '$'")
	}
	return &ir.Styled{Loc: ir.Loc{P: open.Pos}, Body: row(open.Pos, nodes), Style: ir.StyleText}, nil
}

func (p *Parser) parsePrimaryToken(tok scanner.Token) (ir.Node, error) {
	p.pos--
	return p.parsePrimary(true)
}

func textResult(pos scanner.Position, parts []ir.Node, v ir.Variant) ir.Node {
	switch len(parts) {
	case 0:
		return &ir.Text{Loc: ir.Loc{P: pos}, Variant: v}
	case 1:
		return parts[0]
	}
	return &ir.Row{Loc: ir.Loc{P: pos}, Children: parts}
}

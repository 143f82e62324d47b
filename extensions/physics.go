package extensions

import (
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

var physicsOperators = []string{"tr", "Tr", "rank", "erf", "Res", "sgn", "diag", "Pf"}

func installPhysics(b *Builder) error {
	b.Primitive(`\abs`, pairedDelimiters("|", "|"))
	b.Primitive(`\norm`, pairedDelimiters("‖", "‖"))
	b.Primitive(`\pqty`, pairedDelimiters("(", ")"))
	b.Primitive(`\bqty`, pairedDelimiters("[", "]"))
	b.Primitive(`\Bqty`, pairedDelimiters("{", "}"))
	b.Primitive(`\vqty`, pairedDelimiters("|", "|"))
	b.Primitive(`\expval`, pairedDelimiters("⟨", "⟩"))
	b.Primitive(`\ev`, pairedDelimiters("⟨", "⟩"))
	b.Primitive(`\qty`, quantity)
	b.Primitive(`\order`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		n, err := quantity(p, tok)
		if err != nil {
			return nil, err
		}
		o := &ir.Atom{Loc: loc(tok), Text: "O", Variant: ir.VariantCalligraphic}
		return group(tok, o, n), nil
	})
	b.Primitive(`\comm`, bracketPair("[", "]"))
	b.Primitive(`\acomm`, bracketPair("{", "}"))
	b.Primitive(`\pb`, bracketPair("{", "}"))
	b.Primitive(`\mel`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		var parts []ir.Node
		for range 3 {
			n, err := p.ParseArgument(tok)
			if err != nil {
				return nil, err
			}
			parts = append(parts, n)
		}
		bar := func() ir.Node { return &ir.Delimiter{Loc: loc(tok), Char: "|", Class: ir.ClassRel} }
		body := &ir.Row{Loc: loc(tok), Children: []ir.Node{parts[0], bar(), parts[1], bar(), parts[2]}}
		return &ir.Delimited{Loc: loc(tok), Open: "⟨", Close: "⟩", Body: body}, nil
	})

	b.Primitive(`\vb`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		star := readStar(p)
		v := ir.VariantBold
		if star {
			v = ir.VariantBoldItalic
		}
		return p.WithVariant(v, func() (ir.Node, error) { return p.ParseArgument(tok) })
	})
	b.Primitive(`\va`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		readStar(p)
		base, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Accent{Loc: loc(tok), Base: base, Mark: "vec"}, nil
	})
	b.Primitive(`\vu`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		star := readStar(p)
		v := ir.VariantBold
		if star {
			v = ir.VariantBoldItalic
		}
		base, err := p.WithVariant(v, func() (ir.Node, error) { return p.ParseArgument(tok) })
		if err != nil {
			return nil, err
		}
		return &ir.Accent{Loc: loc(tok), Base: base, Mark: "hat"}, nil
	})
	b.Macro(`\grad`, 0, `{\nabla}`)
	b.Macro(`\gradient`, 0, `{\nabla}`)
	b.Macro(`\divergence`, 0, `{\nabla\cdot}`)
	b.Macro(`\curl`, 0, `{\nabla\times}`)
	b.Macro(`\laplacian`, 0, `{\nabla^2}`)
	b.Macro(`\cross`, 0, `\times`)
	b.Macro(`\vdot`, 0, `\cdot`)

	b.Primitive(`\dd`, differential("d"))
	b.Primitive(`\dv`, derivative("d"))
	b.Primitive(`\pdv`, derivative("∂"))
	b.Primitive(`\eval`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Delimited{Loc: loc(tok), Close: "|", Body: body}, nil
	})
	for _, name := range physicsOperators {
		b.SymbolEntry(`\`+name, parser.Symbol{Text: name, Class: ir.ClassOp, Limits: ir.LimitsNever, Variant: ir.VariantNormal})
	}
	return nil
}

func readStar(p *parser.Parser) bool {
	if t, ok := p.Peek(); ok && t.Is("*") {
		p.Next()
		return true
	}
	return false
}

// pairedDelimiters wraps the argument in stretchy delimiters, or in fixed
// ones for the starred form.
func pairedDelimiters(open, close string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		star := readStar(p)
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		if star {
			return group(tok,
				&ir.Atom{Loc: loc(tok), Class: ir.ClassOpen, Text: open, Variant: ir.VariantNormal},
				body,
				&ir.Atom{Loc: loc(tok), Class: ir.ClassClose, Text: close, Variant: ir.VariantNormal},
			), nil
		}
		return &ir.Delimited{Loc: loc(tok), Open: open, Close: close, Body: body}, nil
	}
}

var quantityClose = map[string]string{"(": ")", "[": "]", "|": "|"}

// quantity handles \qty(..), \qty[..], \qty|..| and \qty{..}, always with
// stretchy delimiters.
func quantity(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	p.SkipSpaces()
	open, ok := p.Peek()
	if !ok {
		return nil, parser.Errorf(tok.Pos, "missing argument for %s", tok.Text)
	}
	if open.Type == scanner.TokenBeginGroup {
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Delimited{Loc: loc(tok), Open: "{", Close: "}", Body: body}, nil
	}
	closing, ok := quantityClose[open.Text]
	if !ok || open.Type != scanner.TokenOther {
		return pairedDelimiters("(", ")")(p, tok)
	}
	p.Next()
	var toks []scanner.Token
	depth := 0
	for {
		t, ok := p.Next()
		if !ok {
			return nil, parser.Errorf(open.Pos, "missing %s for %s%s", closing, tok.Text, open.Text)
		}
		if t.Type == scanner.TokenOther {
			if t.Text == closing && depth == 0 {
				break
			}
			if t.Text == open.Text && open.Text != closing {
				depth++
			} else if t.Text == closing {
				depth--
			}
		}
		toks = append(toks, t)
	}
	body, err := p.ParseTokens(toks)
	if err != nil {
		return nil, err
	}
	return &ir.Delimited{Loc: loc(tok), Open: open.Text, Close: closing, Body: body}, nil
}

func bracketPair(open, close string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		a, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		b, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		comma := &ir.Atom{Loc: loc(tok), Class: ir.ClassPunct, Text: ",", Variant: ir.VariantNormal}
		return &ir.Delimited{Loc: loc(tok), Open: open, Close: close, Body: &ir.Row{Loc: loc(tok), Children: []ir.Node{a, comma, b}}}, nil
	}
}

// differential renders \dd, \dd{x} and \dd[n]{x}.
func differential(d string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		order, _, err := p.ParseOptional(tok)
		if err != nil {
			return nil, err
		}
		var mark ir.Node = &ir.Atom{Loc: loc(tok), Text: d, Variant: ir.VariantNormal}
		if order != nil {
			mark = &ir.Scripts{Loc: loc(tok), Nucleus: mark, Sup: order}
		}
		thin := &ir.Space{Loc: loc(tok), Width: 3.0 / 18}
		p.SkipSpaces()
		if next, ok := p.Peek(); ok && next.Type == scanner.TokenBeginGroup {
			arg, err := p.ParseArgument(tok)
			if err != nil {
				return nil, err
			}
			return group(tok, thin, mark, arg), nil
		}
		return group(tok, thin, mark), nil
	}
}

// derivative renders \dv{f}{x}, \dv[n]{f}{x} and the one-argument \dv{x}
// as an operator d/dx. A third argument to \pdv gives a mixed partial.
func derivative(d string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		order, _, err := p.ParseOptional(tok)
		if err != nil {
			return nil, err
		}
		var args []ir.Node
		for len(args) < 3 {
			p.SkipSpaces()
			next, ok := p.Peek()
			if !ok || next.Type != scanner.TokenBeginGroup {
				break
			}
			arg, err := p.ParseArgument(tok)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if len(args) == 0 {
			return nil, parser.Errorf(tok.Pos, "missing argument for %s", tok.Text)
		}
		mark := func() ir.Node { return &ir.Atom{Loc: loc(tok), Text: d, Variant: ir.VariantNormal} }
		power := func(n ir.Node, exp ir.Node) ir.Node {
			if exp == nil {
				return n
			}
			return &ir.Scripts{Loc: loc(tok), Nucleus: n, Sup: exp}
		}
		var num, den ir.Node
		switch len(args) {
		case 1:
			num = power(mark(), order)
			den = group(tok, mark(), power(args[0], order))
		case 2:
			num = group(tok, power(mark(), order), args[0])
			den = group(tok, mark(), power(args[1], order))
		default:
			two := &ir.Atom{Loc: loc(tok), Text: "2", Variant: ir.VariantNormal, Number: true}
			num = group(tok, power(mark(), two), args[0])
			den = group(tok, mark(), args[1], mark(), args[2])
		}
		return &ir.Fraction{Loc: loc(tok), Num: num, Den: den, Thickness: -1}, nil
	}
}

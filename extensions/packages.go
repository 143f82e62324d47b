package extensions

import (
	"strconv"
	"strings"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

func installNewcommand(b *Builder) error {
	b.Command(`\newcommand`, macro.NewCommand)
	b.Command(`\renewcommand`, macro.NewCommand)
	b.Command(`\providecommand`, macro.NewCommand)
	b.Command(`\def`, macro.Def)
	b.Command(`\let`, macro.Let)
	b.Command(`\newenvironment`, macro.NewEnvironment)
	b.Command(`\renewenvironment`, macro.NewEnvironment)
	return nil
}

func installBoldsymbol(b *Builder) error {
	bold := func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		return p.WithVariant(ir.VariantBoldItalic, func() (ir.Node, error) {
			p.SetBoldSymbols(true)
			return p.ParseArgument(tok)
		})
	}
	b.Primitive(`\boldsymbol`, bold)
	b.Primitive(`\pmb`, bold)
	return nil
}

func installBraket(b *Builder) error {
	b.Macro(`\bra`, 1, `\mathinner{\langle{#1}|}`)
	b.Macro(`\ket`, 1, `\mathinner{|{#1}\rangle}`)
	b.Macro(`\braket`, 1, `\mathinner{\langle{#1}\rangle}`)
	b.Macro(`\set`, 1, `\mathinner{\{{#1}\}}`)
	b.Primitive(`\Bra`, braket("⟨", "|"))
	b.Primitive(`\Ket`, braket("|", "⟩"))
	b.Primitive(`\Braket`, braket("⟨", "⟩"))
	b.Primitive(`\Set`, braket("{", "}"))
	return nil
}

// braket builds the stretchy forms: a bar at the top level of the argument
// becomes a \middle bar.
func braket(open, close string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		toks, err := p.ReadRaw(tok)
		if err != nil {
			return nil, err
		}
		var (
			parts [][]scanner.Token
			bars  []string
		)
		start, level := 0, 0
		for i, t := range toks {
			switch {
			case t.Type == scanner.TokenBeginGroup:
				level++
			case t.Type == scanner.TokenEndGroup:
				level--
			case level == 0 && (t.Is("|") || t.Is(`\|`)):
				parts = append(parts, toks[start:i])
				bars = append(bars, p.Grammar().Delimiters[t.Text])
				start = i + 1
			}
		}
		parts = append(parts, toks[start:])
		body := make([]ir.Node, 0, 2*len(parts))
		for i, part := range parts {
			if i > 0 {
				body = append(body, &ir.Delimiter{Loc: loc(tok), Char: bars[i-1], Class: ir.ClassRel})
			}
			n, err := p.ParseTokens(part)
			if err != nil {
				return nil, err
			}
			body = append(body, n)
		}
		return &ir.Delimited{Loc: loc(tok), Open: open, Close: close, Body: &ir.Row{Loc: loc(tok), Children: body}}, nil
	}
}

func installCancel(b *Builder) error {
	b.Primitive(`\cancel`, enclose("updiagonalstrike"))
	b.Primitive(`\bcancel`, enclose("downdiagonalstrike"))
	b.Primitive(`\xcancel`, enclose("updiagonalstrike", "downdiagonalstrike"))
	b.Primitive(`\cancelto`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		target, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Enclose{Loc: loc(tok), Body: body, Notations: []string{"updiagonalarrow"}, Target: target}, nil
	})
	return nil
}

func enclose(notations ...string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Enclose{Loc: loc(tok), Body: body, Notations: notations}, nil
	}
}

// Notations understood by \enclose.
var Notations = map[string]bool{
	"box": true, "roundedbox": true, "circle": true, "left": true, "right": true,
	"top": true, "bottom": true, "updiagonalstrike": true, "downdiagonalstrike": true,
	"verticalstrike": true, "horizontalstrike": true, "updiagonalarrow": true,
	"madruwb": true, "radical": true, "longdiv": true, "actuarial": true,
}

func installEnclose(b *Builder) error {
	b.Primitive(`\enclose`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		spec, err := p.ReadString(tok)
		if err != nil {
			return nil, err
		}
		attrs, _, err := p.ReadOptionalString(tok)
		if err != nil {
			return nil, err
		}
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		var notations []string
		for _, n := range strings.FieldsFunc(spec, func(r rune) bool { return r == ',' || r == ' ' }) {
			if !Notations[n] {
				return nil, parser.Errorf(tok.Pos, "unknown notation %q for %s", n, tok.Text)
			}
			notations = append(notations, n)
		}
		e := &ir.Enclose{Loc: loc(tok), Body: body, Notations: notations}
		for _, kv := range strings.Split(attrs, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if ok && strings.TrimSpace(k) == "mathcolor" {
				e.Color = p.Color(strings.Trim(strings.TrimSpace(v), `"'`))
			}
		}
		return e, nil
	})
	return nil
}

func installExtpfeil(b *Builder) error {
	b.Primitive(`\xtwoheadrightarrow`, extensibleArrow(ir.ArrowTwoHeadRight))
	b.Primitive(`\xtwoheadleftarrow`, extensibleArrow(ir.ArrowTwoHeadLeft))
	b.Primitive(`\xmapsto`, extensibleArrow(ir.ArrowMapsTo))
	b.Primitive(`\xlongequal`, extensibleArrow(ir.ArrowEqual))
	b.Primitive(`\xtofrom`, extensibleArrow(ir.ArrowToFrom))
	return nil
}

func installHTML(b *Builder) error {
	attr := func(set func(s *ir.Styled, v string)) parser.Primitive {
		return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
			v, err := p.ReadString(tok)
			if err != nil {
				return nil, err
			}
			body, err := p.ParseArgument(tok)
			if err != nil {
				return nil, err
			}
			s := &ir.Styled{Loc: loc(tok), Body: body}
			set(s, v)
			return s, nil
		}
	}
	b.Primitive(`\href`, attr(func(s *ir.Styled, v string) { s.Href = v }))
	b.Primitive(`\class`, attr(func(s *ir.Styled, v string) { s.Class = v }))
	b.Primitive(`\cssId`, attr(func(s *ir.Styled, v string) { s.ID = v }))
	b.Primitive(`\style`, attr(func(s *ir.Styled, v string) { s.CSS = v }))
	return nil
}

func installNoundefined(b *Builder) error {
	b.Grammar().PlaceholderColor = "red"
	return nil
}

func installAction(b *Builder) error {
	b.Primitive(`\toggle`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		var first ir.Node
		for {
			p.SkipSpaces()
			next, ok := p.Peek()
			if !ok {
				return nil, parser.Errorf(tok.Pos, `missing \endtoggle`)
			}
			if next.Is(`\endtoggle`) {
				p.Next()
				break
			}
			n, err := p.ParseArgument(tok)
			if err != nil {
				return nil, err
			}
			if first == nil {
				first = n
			}
		}
		if first == nil {
			return nil, parser.Errorf(tok.Pos, `missing argument for %s`, tok.Text)
		}
		return first, nil
	})
	tip := func(text bool) parser.Primitive {
		return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
			body, err := p.ParseArgument(tok)
			if err != nil {
				return nil, err
			}
			raw, err := p.ReadString(tok)
			if err != nil {
				return nil, err
			}
			if !text {
				raw = strings.NewReplacer("{", "", "}", "").Replace(raw)
			}
			return &ir.Styled{Loc: loc(tok), Body: body, Tip: raw}, nil
		}
	}
	b.Primitive(`\mathtip`, tip(false))
	b.Primitive(`\texttip`, tip(true))
	return nil
}

// installBbox adds \bbox[options]{math}. Options are comma separated: a
// color sets the background, a dimension the padding, and
// border:<css> or style:<css> pass through.
func installBbox(b *Builder) error {
	b.Primitive(`\bbox`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		opts, _, err := p.ReadOptionalString(tok)
		if err != nil {
			return nil, err
		}
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		s := &ir.Styled{Loc: loc(tok), Body: body}
		for _, opt := range strings.Split(opts, ",") {
			opt = strings.TrimSpace(opt)
			switch {
			case opt == "":
			case strings.HasPrefix(opt, "border:"):
				s.Border = strings.TrimSpace(strings.TrimPrefix(opt, "border:"))
			case strings.HasPrefix(opt, "style:"):
				s.CSS = strings.TrimSpace(strings.TrimPrefix(opt, "style:"))
			default:
				if d, err := parser.ParseDimension(tok.Pos, opt); err == nil {
					s.Padding = d
					continue
				}
				if s.Background != "" {
					return nil, parser.Errorf(tok.Pos, "background specified twice in %s", tok.Text)
				}
				s.Background = p.Color(opt)
			}
		}
		return s, nil
	})
	return nil
}

func installUnicode(b *Builder) error {
	b.Primitive(`\unicode`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		if _, _, err := p.ReadRawOptional(tok); err != nil {
			return nil, err
		}
		s, err := p.ReadString(tok)
		if err != nil {
			return nil, err
		}
		code, err := parseCodePoint(s)
		if err != nil {
			return nil, parser.Errorf(tok.Pos, "invalid code point %q for %s", s, tok.Text)
		}
		return &ir.Atom{Loc: loc(tok), Text: string(code), Variant: ir.VariantNormal}, nil
	})
	return nil
}

// parseCodePoint reads "x2A01", "0x2A01" or decimal "10753".
func parseCodePoint(s string) (rune, error) {
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		s, base = s[1:], 16
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	r := rune(n)
	if r == 0 || r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
		return 0, strconv.ErrRange
	}
	return r, nil
}

func installVerb(b *Builder) error {
	b.Primitive(`\verb`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		return &ir.Text{Loc: loc(tok), Text: tok.Text, Variant: ir.VariantMonospace}, nil
	})
	return nil
}

// installCases adds numcases and subnumcases: the first argument is set
// before the brace.
func installCases(b *Builder) error {
	env := func(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
		lhs, err := p.ParseArgument(begin)
		if err != nil {
			return nil, err
		}
		cases, err := casesEnv("{", "", ir.StyleText)(p, name, begin)
		if err != nil {
			return nil, err
		}
		return group(begin, lhs, cases), nil
	}
	b.Environment("numcases", env)
	b.Environment("subnumcases", env)
	return nil
}

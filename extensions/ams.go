package extensions

import (
	"strconv"
	"strings"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

var amsSymbols = map[string]parser.Symbol{
	`\iint`:              {Text: "∬", Class: ir.ClassOp, Large: true, Limits: ir.LimitsNever, Variant: ir.VariantNormal},
	`\iiint`:             {Text: "∭", Class: ir.ClassOp, Large: true, Limits: ir.LimitsNever, Variant: ir.VariantNormal},
	`\lvert`:             {Text: "|", Class: ir.ClassOpen},
	`\rvert`:             {Text: "|", Class: ir.ClassClose},
	`\lVert`:             {Text: "‖", Class: ir.ClassOpen},
	`\rVert`:             {Text: "‖", Class: ir.ClassClose},
	`\leqslant`:          {Text: "⩽", Class: ir.ClassRel},
	`\geqslant`:          {Text: "⩾", Class: ir.ClassRel},
	`\lesssim`:           {Text: "≲", Class: ir.ClassRel},
	`\gtrsim`:            {Text: "≳", Class: ir.ClassRel},
	`\triangleq`:         {Text: "≜", Class: ir.ClassRel},
	`\nleq`:              {Text: "≰", Class: ir.ClassRel},
	`\ngeq`:              {Text: "≱", Class: ir.ClassRel},
	`\nless`:             {Text: "≮", Class: ir.ClassRel},
	`\ngtr`:              {Text: "≯", Class: ir.ClassRel},
	`\nsubseteq`:         {Text: "⊈", Class: ir.ClassRel},
	`\nsupseteq`:         {Text: "⊉", Class: ir.ClassRel},
	`\nmid`:              {Text: "∤", Class: ir.ClassRel},
	`\nparallel`:         {Text: "∦", Class: ir.ClassRel},
	`\ncong`:             {Text: "≇", Class: ir.ClassRel},
	`\nsim`:              {Text: "≁", Class: ir.ClassRel},
	`\therefore`:         {Text: "∴", Class: ir.ClassRel},
	`\because`:           {Text: "∵", Class: ir.ClassRel},
	`\twoheadrightarrow`: {Text: "↠", Class: ir.ClassRel},
	`\twoheadleftarrow`:  {Text: "↞", Class: ir.ClassRel},
	`\ltimes`:            {Text: "⋉", Class: ir.ClassBin},
	`\rtimes`:            {Text: "⋊", Class: ir.ClassBin},
	`\nexists`:           {Text: "∄", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\varnothing`:        {Text: "∅", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\square`:            {Text: "□", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\Box`:               {Text: "□", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\blacksquare`:       {Text: "■", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\lozenge`:           {Text: "◊", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\hslash`:            {Text: "ℏ", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\dotsb`:             {Text: "⋯", Class: ir.ClassInner, Variant: ir.VariantNormal},
	`\dotsi`:             {Text: "⋯", Class: ir.ClassInner, Variant: ir.VariantNormal},
	`\dotsm`:             {Text: "⋯", Class: ir.ClassInner, Variant: ir.VariantNormal},
	`\dotsc`:             {Text: "…", Class: ir.ClassInner, Variant: ir.VariantNormal},
	`\dotso`:             {Text: "…", Class: ir.ClassInner, Variant: ir.VariantNormal},
}

var amsDelimiters = map[string]string{
	`\lvert`: "|", `\rvert`: "|", `\lVert`: "‖", `\rVert`: "‖",
}

var amsMacros = map[string]string{
	`\implies`:   `\;\Longrightarrow\;`,
	`\impliedby`: `\;\Longleftarrow\;`,
	`\iff`:       `\;\Longleftrightarrow\;`,
	`\Bbb`:       `\mathbb`,
	`\varliminf`: `\mathop{\underline{\mathrm{lim}}}`,
	`\varlimsup`: `\mathop{\overline{\mathrm{lim}}}`,
	`\injlim`:    `\operatorname*{inj\,lim}`,
	`\projlim`:   `\operatorname*{proj\,lim}`,
}

// matrixDelims are the delimiters around the amsmath matrix family.
var matrixDelims = map[string][2]string{
	"matrix":  {"", ""},
	"pmatrix": {"(", ")"},
	"bmatrix": {"[", "]"},
	"Bmatrix": {"{", "}"},
	"vmatrix": {"|", "|"},
	"Vmatrix": {"‖", "‖"},
}

func installAMS(b *Builder) error {
	for name, sym := range amsSymbols {
		b.SymbolEntry(name, sym)
	}
	for name, glyph := range amsDelimiters {
		b.Delimiter(name, glyph)
	}
	for name, body := range amsMacros {
		b.Macro(name, 0, body)
	}
	b.Command(`\DeclareMathOperator`, macro.DeclareMathOperator)

	b.Primitive(`\mathbb`, fontCommand(ir.VariantDoubleStruck))
	b.Primitive(`\mathfrak`, fontCommand(ir.VariantFraktur))
	b.Primitive(`\operatorname`, operatorName)

	b.Primitive(`\dfrac`, fraction(ir.StyleDisplay, -1, "", ""))
	b.Primitive(`\tfrac`, fraction(ir.StyleText, -1, "", ""))
	b.Primitive(`\binom`, fraction(ir.StyleInherit, 0, "(", ")"))
	b.Primitive(`\dbinom`, fraction(ir.StyleDisplay, 0, "(", ")"))
	b.Primitive(`\tbinom`, fraction(ir.StyleText, 0, "(", ")"))
	b.Primitive(`\cfrac`, cfrac)
	b.Primitive(`\genfrac`, genfrac)

	b.Primitive(`\xrightarrow`, extensibleArrow(ir.ArrowRight))
	b.Primitive(`\xleftarrow`, extensibleArrow(ir.ArrowLeft))
	b.Primitive(`\boxed`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Enclose{Loc: loc(tok), Body: &ir.Styled{Loc: loc(tok), Body: body, Style: ir.StyleDisplay}, Notations: []string{"box"}}, nil
	})
	b.Primitive(`\substack`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		toks, err := p.ReadRaw(tok)
		if err != nil {
			return nil, err
		}
		rows, err := p.ParseRowsFrom("substack", tok, toks)
		if err != nil {
			return nil, err
		}
		a := arrayOf(tok, rows, ir.AlignCenter)
		a.Style, a.ColSep, a.RowStretch = ir.StyleScript, 0, 0.8
		return a, nil
	})

	b.Primitive(`\tag`, tag)
	b.Primitive(`\label`, discard)
	b.Primitive(`\nonumber`, nothing)
	b.Primitive(`\notag`, nothing)
	b.Primitive(`\eqref`, reference(true))
	b.Primitive(`\ref`, reference(false))

	for name, d := range matrixDelims {
		b.Environment(name, matrixEnv(d[0], d[1], ir.StyleInherit, 1))
	}
	b.Environment("smallmatrix", matrixEnv("", "", ir.StyleScript, 1.0/3))
	b.Environment("subarray", func(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
		spec, err := p.ReadString(begin)
		if err != nil {
			return nil, err
		}
		aligns, _, err := parser.ParseColumns(begin.Pos, spec)
		if err != nil {
			return nil, err
		}
		rows, err := p.ParseRows(name, begin)
		if err != nil {
			return nil, err
		}
		a := arrayOf(begin, rows, ir.AlignCenter)
		for i := range a.Align {
			if i < len(aligns) {
				a.Align[i] = aligns[i]
			}
		}
		a.Style, a.ColSep, a.RowStretch = ir.StyleScript, 0, 0.8
		return a, nil
	})
	b.Environment("cases", casesEnv("{", "", ir.StyleText))

	pairs := alignEnv(nil, ir.StyleDisplay, true)
	for _, name := range []string{"aligned", "align", "align*", "split", "flalign", "flalign*", "alignat", "alignat*", "alignedat"} {
		if strings.HasPrefix(name, "alignat") || name == "alignedat" {
			b.Environment(name, skipColumnCount(pairs))
			continue
		}
		b.Environment(name, pairs)
	}
	center := alignEnv([]ir.Align{ir.AlignCenter}, ir.StyleDisplay, false)
	for _, name := range []string{"gathered", "gather", "gather*", "equation", "equation*", "multline", "multline*"} {
		b.Environment(name, center)
	}
	return nil
}

// operatorName handles \operatorname{name} and \operatorname*{name}, the
// starred form taking limits in display style.
func operatorName(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	limits := ir.LimitsNever
	if t, ok := p.Peek(); ok && t.Is("*") {
		p.Next()
		limits = ir.LimitsAuto
	}
	toks, err := p.ReadRaw(tok)
	if err != nil {
		return nil, err
	}
	plain := true
	var sb strings.Builder
	for _, t := range toks {
		switch t.Type {
		case scanner.TokenLetter, scanner.TokenDigit:
			sb.WriteString(t.Text)
		case scanner.TokenControlSymbol:
			switch t.Text {
			case `\,`, `\:`, `\;`, `\ `:
				sb.WriteString(" ")
			case `\!`:
			default:
				plain = false
			}
		case scanner.TokenOther:
			if t.Text == "-" || t.Text == "*" || t.Text == "." {
				sb.WriteString(t.Text)
				continue
			}
			plain = false
		case scanner.TokenSpace:
		default:
			plain = false
		}
	}
	if plain && sb.Len() > 0 {
		return &ir.Atom{Loc: loc(tok), Class: ir.ClassOp, Text: sb.String(), Variant: ir.VariantNormal, Limits: limits}, nil
	}
	// Markup inside the name: an operator row, which takes limits like
	// \mathop.
	body, err := p.WithVariant(ir.VariantNormal, func() (ir.Node, error) { return p.ParseTokens(toks) })
	if err != nil {
		return nil, err
	}
	return withClass(tok, body, ir.ClassOp), nil
}

func cfrac(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	align, _, err := p.ReadOptionalString(tok)
	if err != nil {
		return nil, err
	}
	num, err := p.ParseArgument(tok)
	if err != nil {
		return nil, err
	}
	den, err := p.ParseArgument(tok)
	if err != nil {
		return nil, err
	}
	switch align {
	case "", "l", "c", "r":
	default:
		return nil, parser.Errorf(tok.Pos, "illegal alignment %q for %s", align, tok.Text)
	}
	num = &ir.Styled{Loc: loc(tok), Body: num, Style: ir.StyleDisplay}
	return &ir.Fraction{Loc: loc(tok), Num: num, Den: den, Thickness: -1, Style: ir.StyleDisplay}, nil
}

// genfrac handles \genfrac{left}{right}{thickness}{style}{num}{den}.
func genfrac(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	readDelim := func() (string, error) {
		s, err := p.ReadString(tok)
		if err != nil || s == "" || s == "." {
			return "", err
		}
		if d, ok := p.Grammar().Delimiters[s]; ok {
			return d, nil
		}
		return "", parser.Errorf(tok.Pos, "missing or unrecognized delimiter %s after %s", s, tok.Text)
	}
	open, err := readDelim()
	if err != nil {
		return nil, err
	}
	close, err := readDelim()
	if err != nil {
		return nil, err
	}
	thickText, err := p.ReadString(tok)
	if err != nil {
		return nil, err
	}
	thickness := -1.0
	if thickText != "" {
		if thickness, err = parser.ParseDimension(tok.Pos, thickText); err != nil {
			return nil, err
		}
	}
	styleText, err := p.ReadString(tok)
	if err != nil {
		return nil, err
	}
	style := ir.StyleInherit
	if styleText != "" {
		n, err := strconv.Atoi(styleText)
		if err != nil || n < 0 || n > 3 {
			return nil, parser.Errorf(tok.Pos, "bad math style %q for %s", styleText, tok.Text)
		}
		style = ir.StyleDisplay + ir.Style(n)
	}
	return fraction(style, thickness, open, close)(p, tok)
}

func extensibleArrow(kind ir.ArrowKind) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		under, _, err := p.ParseOptional(tok)
		if err != nil {
			return nil, err
		}
		over, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Arrow{Loc: loc(tok), Arrow: kind, Over: over, Under: under}, nil
	}
}

func tag(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	star := false
	if t, ok := p.Peek(); ok && t.Is("*") {
		p.Next()
		star = true
	}
	body, err := p.ParseText(tok, ir.VariantNormal)
	if err != nil {
		return nil, err
	}
	label := body
	if !star {
		label = &ir.Row{Loc: loc(tok), Children: []ir.Node{
			&ir.Text{Loc: loc(tok), Text: "(", Variant: ir.VariantNormal},
			body,
			&ir.Text{Loc: loc(tok), Text: ")", Variant: ir.VariantNormal},
		}}
	}
	return nil, p.SetTag(tok, label)
}

func discard(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	_, err := p.ReadRaw(tok)
	return nil, err
}

func nothing(*parser.Parser, scanner.Token) (ir.Node, error) { return nil, nil }

// reference renders \ref and \eqref as the label text; cross references
// are not resolved inside a single formula.
func reference(parens bool) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		name, err := p.ReadString(tok)
		if err != nil {
			return nil, err
		}
		if parens {
			name = "(" + name + ")"
		}
		return &ir.Text{Loc: loc(tok), Text: name, Variant: ir.VariantNormal}, nil
	}
}

func matrixEnv(open, close string, style ir.Style, colsep float64) parser.Environment {
	return func(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
		align := ir.AlignCenter
		// mathtools' starred forms take the column alignment as [l|c|r].
		if strings.HasSuffix(name, "*") {
			s, _, err := p.ReadOptionalString(begin)
			if err != nil {
				return nil, err
			}
			switch s {
			case "l", "r", "c":
				align = ir.Align(s[0])
			case "":
			default:
				return nil, parser.Errorf(begin.Pos, "illegal alignment %q for %s", s, name)
			}
		}
		rows, err := p.ParseRows(name, begin)
		if err != nil {
			return nil, err
		}
		a := arrayOf(begin, rows, align)
		a.Open, a.Close, a.Style, a.ColSep = open, close, style, colsep
		return a, nil
	}
}

func casesEnv(open, close string, style ir.Style) parser.Environment {
	return func(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
		rows, err := p.ParseRows(name, begin)
		if err != nil {
			return nil, err
		}
		return casesArray(begin, rows, open, close, style), nil
	}
}

// skipColumnCount drops the {n} argument of alignat.
func skipColumnCount(env parser.Environment) parser.Environment {
	return func(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
		if _, err := p.ReadRaw(begin); err != nil {
			return nil, err
		}
		return env(p, name, begin)
	}
}

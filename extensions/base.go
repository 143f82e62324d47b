package extensions

import (
	"strings"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

func loc(tok scanner.Token) ir.Loc { return ir.Loc{P: tok.Pos} }

// group wraps nodes in a braced row.
func group(tok scanner.Token, nodes ...ir.Node) *ir.Row {
	return &ir.Row{Loc: loc(tok), Children: nodes, Group: true}
}

// withClass gives n the spacing class c, reusing a braced row when it can.
func withClass(tok scanner.Token, n ir.Node, c ir.Class) ir.Node {
	if r, ok := n.(*ir.Row); ok && r.Group && r.Class == ir.ClassOrd {
		r.Class = c
		return r
	}
	r := group(tok, n)
	r.Class = c
	return r
}

func installBase(b *Builder) error {
	installSymbols(b)

	b.Primitive(`\frac`, fraction(ir.StyleInherit, -1, "", ""))
	b.Infix(`\over`, infix(-1, "", ""))
	b.Infix(`\atop`, infix(0, "", ""))
	b.Infix(`\choose`, infix(0, "(", ")"))
	b.Infix(`\brace`, infix(0, "{", "}"))
	b.Infix(`\brack`, infix(0, "[", "]"))
	b.Infix(`\above`, func(p *parser.Parser, tok scanner.Token) (func(num, den ir.Node) ir.Node, error) {
		t, err := p.ReadDimension(tok)
		if err != nil {
			return nil, err
		}
		return infixBuild(tok, t, "", ""), nil
	})
	b.Primitive(`\sqrt`, sqrt)
	b.Primitive(`\root`, root)

	for name, mark := range accents {
		b.Primitive(name, accent(mark, false))
	}
	for name, mark := range wideAccents {
		b.Primitive(name, accent(mark, true))
	}
	b.Primitive(`\overline`, decorate(ir.DecorLine, ir.DecorNone))
	b.Primitive(`\underline`, decorate(ir.DecorNone, ir.DecorLine))
	b.Primitive(`\overbrace`, decorate(ir.DecorBrace, ir.DecorNone))
	b.Primitive(`\underbrace`, decorate(ir.DecorNone, ir.DecorBrace))
	b.Primitive(`\overrightarrow`, decorate(ir.DecorArrowRight, ir.DecorNone))
	b.Primitive(`\overleftarrow`, decorate(ir.DecorArrowLeft, ir.DecorNone))
	b.Primitive(`\overleftrightarrow`, decorate(ir.DecorArrowBoth, ir.DecorNone))
	b.Primitive(`\underrightarrow`, decorate(ir.DecorNone, ir.DecorArrowRight))
	b.Primitive(`\underleftarrow`, decorate(ir.DecorNone, ir.DecorArrowLeft))
	b.Primitive(`\underleftrightarrow`, decorate(ir.DecorNone, ir.DecorArrowBoth))
	b.Primitive(`\overset`, overset(false))
	b.Primitive(`\underset`, overset(true))
	b.Primitive(`\stackrel`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		n, err := overset(false)(p, tok)
		if err != nil {
			return nil, err
		}
		return withClass(tok, n, ir.ClassRel), nil
	})

	for name, w := range spaces {
		b.Primitive(name, space(w))
	}
	b.Primitive("~", space(1.0/3))
	for _, name := range []string{`\hspace`, `\kern`, `\mkern`, `\hskip`, `\mskip`, `\mspace`} {
		b.Primitive(name, explicitSpace)
	}
	b.Primitive(`\phantom`, phantom(ir.Phantom{Hidden: true}))
	b.Primitive(`\hphantom`, phantom(ir.Phantom{Hidden: true, ZeroHeight: true, ZeroDepth: true}))
	b.Primitive(`\vphantom`, phantom(ir.Phantom{Hidden: true, ZeroWidth: true}))
	b.Primitive(`\llap`, phantom(ir.Phantom{ZeroWidth: true, Lap: -1}))
	b.Primitive(`\rlap`, phantom(ir.Phantom{ZeroWidth: true, Lap: 1}))
	b.Primitive(`\smash`, smash)
	b.Primitive(`\mathstrut`, strut)
	b.Primitive(`\strut`, strut)

	for name, st := range styles {
		b.Switch(name, styleSwitch(st))
	}
	for name, scale := range sizes {
		b.Switch(name, sizeSwitch(scale))
	}
	for name, v := range mathFonts {
		b.Primitive(name, fontCommand(v))
	}
	for name, v := range fontSwitches {
		v := v
		b.Switch(name, func(p *parser.Parser, tok scanner.Token) (func(ir.Node) ir.Node, error) {
			p.SetVariant(v)
			return nil, nil
		})
	}
	for name, v := range textFonts {
		b.Primitive(name, textCommand(v))
		b.TextCommand(name, textCommand(v))
	}
	b.Primitive(`\fbox`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		body, err := p.ParseText(tok, ir.VariantNormal)
		if err != nil {
			return nil, err
		}
		return &ir.Enclose{Loc: loc(tok), Body: body, Notations: []string{"box"}}, nil
	})

	for name, c := range classCommands {
		c := c
		b.Primitive(name, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
			body, err := p.ParseArgument(tok)
			if err != nil {
				return nil, err
			}
			return withClass(tok, body, c), nil
		})
	}
	for name, big := range bigDelimiters {
		b.Primitive(name, bigDelimiter(big.size, big.class))
	}
	b.Primitive(`\not`, negate)
	b.Primitive(`\rule`, rule)

	b.SymbolEntry(`\bmod`, parser.Symbol{Text: "mod", Class: ir.ClassBin, Variant: ir.VariantNormal})
	b.Primitive(`\pmod`, modulo(true, true))
	b.Primitive(`\mod`, modulo(true, false))
	b.Primitive(`\pod`, modulo(false, true))

	b.Environment("array", arrayEnv)
	b.Environment("eqnarray", alignEnv([]ir.Align{ir.AlignRight, ir.AlignCenter, ir.AlignLeft}, ir.StyleDisplay, false))
	b.Environment("eqnarray*", alignEnv([]ir.Align{ir.AlignRight, ir.AlignCenter, ir.AlignLeft}, ir.StyleDisplay, false))
	b.Primitive(`\matrix`, matrixCommand("", ""))
	b.Primitive(`\pmatrix`, matrixCommand("(", ")"))
	b.Primitive(`\cases`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		toks, err := p.ReadRaw(tok)
		if err != nil {
			return nil, err
		}
		rows, err := p.ParseRowsFrom(tok.Text, tok, toks)
		if err != nil {
			return nil, err
		}
		return casesArray(tok, rows, "{", "", ir.StyleText), nil
	})
	return nil
}

func fraction(style ir.Style, thickness float64, open, close string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		num, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		den, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Fraction{Loc: loc(tok), Num: num, Den: den, Thickness: thickness, Open: open, Close: close, Style: style}, nil
	}
}

func infixBuild(tok scanner.Token, thickness float64, open, close string) func(num, den ir.Node) ir.Node {
	return func(num, den ir.Node) ir.Node {
		return &ir.Fraction{Loc: loc(tok), Num: num, Den: den, Thickness: thickness, Open: open, Close: close}
	}
}

func infix(thickness float64, open, close string) parser.Infix {
	return func(p *parser.Parser, tok scanner.Token) (func(num, den ir.Node) ir.Node, error) {
		return infixBuild(tok, thickness, open, close), nil
	}
}

func sqrt(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	index, _, err := p.ParseOptional(tok)
	if err != nil {
		return nil, err
	}
	body, err := p.ParseArgument(tok)
	if err != nil {
		return nil, err
	}
	return &ir.Radical{Loc: loc(tok), Body: body, Index: index}, nil
}

// root handles the plain TeX form \root n \of {x}.
func root(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	var idx []scanner.Token
	for {
		t, ok := p.Next()
		if !ok {
			return nil, parser.Errorf(tok.Pos, `missing \of after \root`)
		}
		if t.Is(`\of`) {
			break
		}
		idx = append(idx, t)
	}
	index, err := p.ParseTokens(idx)
	if err != nil {
		return nil, err
	}
	body, err := p.ParseArgument(tok)
	if err != nil {
		return nil, err
	}
	return &ir.Radical{Loc: loc(tok), Body: body, Index: index}, nil
}

var accents = map[string]string{
	`\hat`: "hat", `\check`: "check", `\tilde`: "tilde", `\acute`: "acute",
	`\grave`: "grave", `\dot`: "dot", `\ddot`: "ddot", `\breve`: "breve",
	`\bar`: "bar", `\vec`: "vec", `\mathring`: "ring",
}

var wideAccents = map[string]string{`\widehat`: "hat", `\widetilde`: "tilde"}

func accent(mark string, wide bool) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		base, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Accent{Loc: loc(tok), Base: base, Mark: mark, Wide: wide}, nil
	}
}

// decorate builds \overline, \underbrace and friends. A brace takes the
// script on its side as its label.
func decorate(over, under ir.Decoration) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		n := &ir.OverUnder{Loc: loc(tok), Nucleus: body, OverDecor: over, UnderDecor: under}
		label := func(want scanner.TokenType) (ir.Node, error) {
			p.SkipSpaces()
			next, ok := p.Peek()
			if !ok || next.Type != want {
				return nil, nil
			}
			p.Next()
			return p.ParseArgument(next)
		}
		if over == ir.DecorBrace {
			if n.Over, err = label(scanner.TokenSuperscript); err != nil {
				return nil, err
			}
		}
		if under == ir.DecorBrace {
			if n.Under, err = label(scanner.TokenSubscript); err != nil {
				return nil, err
			}
		}
		return n, nil
	}
}

func overset(under bool) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		script, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		base, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		if under {
			return &ir.OverUnder{Loc: loc(tok), Nucleus: base, Under: script}, nil
		}
		return &ir.OverUnder{Loc: loc(tok), Nucleus: base, Over: script}, nil
	}
}

var spaces = map[string]float64{
	`\,`: 3.0 / 18, `\thinspace`: 3.0 / 18, `\:`: 4.0 / 18, `\>`: 4.0 / 18,
	`\medspace`: 4.0 / 18, `\;`: 5.0 / 18, `\thickspace`: 5.0 / 18,
	`\!`: -3.0 / 18, `\negthinspace`: -3.0 / 18, `\negmedspace`: -4.0 / 18,
	`\negthickspace`: -5.0 / 18, `\ `: 1.0 / 3, `\space`: 1.0 / 3,
	`\enspace`: 0.5, `\enskip`: 0.5, `\quad`: 1, `\qquad`: 2,
}

func space(w float64) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		return &ir.Space{Loc: loc(tok), Width: w}, nil
	}
}

func explicitSpace(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	if t, ok := p.Peek(); ok && t.Is("*") {
		p.Next()
	}
	w, err := p.ReadDimension(tok)
	if err != nil {
		return nil, err
	}
	return &ir.Space{Loc: loc(tok), Width: w}, nil
}

func phantom(proto ir.Phantom) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		n := proto
		n.Loc = loc(tok)
		n.Body = body
		return &n, nil
	}
}

func smash(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	opt, _, err := p.ReadOptionalString(tok)
	if err != nil {
		return nil, err
	}
	body, err := p.ParseArgument(tok)
	if err != nil {
		return nil, err
	}
	n := &ir.Phantom{Loc: loc(tok), Body: body}
	switch opt {
	case "t":
		n.ZeroHeight = true
	case "b":
		n.ZeroDepth = true
	default:
		n.ZeroHeight, n.ZeroDepth = true, true
	}
	return n, nil
}

func strut(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	paren := &ir.Atom{Loc: loc(tok), Class: ir.ClassOpen, Text: "(", Variant: ir.VariantNormal}
	return &ir.Phantom{Loc: loc(tok), Body: paren, Hidden: true, ZeroWidth: true}, nil
}

var styles = map[string]ir.Style{
	`\displaystyle`:      ir.StyleDisplay,
	`\textstyle`:         ir.StyleText,
	`\scriptstyle`:       ir.StyleScript,
	`\scriptscriptstyle`: ir.StyleScriptScript,
}

func styleSwitch(st ir.Style) parser.Switch {
	return func(p *parser.Parser, tok scanner.Token) (func(ir.Node) ir.Node, error) {
		return func(body ir.Node) ir.Node {
			return &ir.Styled{Loc: loc(tok), Body: body, Style: st}
		}, nil
	}
}

var sizes = map[string]float64{
	`\tiny`: 0.5, `\Tiny`: 0.6, `\scriptsize`: 0.7, `\footnotesize`: 0.85,
	`\small`: 0.9, `\normalsize`: 1, `\large`: 1.2, `\Large`: 1.44,
	`\LARGE`: 1.728, `\huge`: 2.074, `\Huge`: 2.488,
}

func sizeSwitch(scale float64) parser.Switch {
	return func(p *parser.Parser, tok scanner.Token) (func(ir.Node) ir.Node, error) {
		return func(body ir.Node) ir.Node {
			return &ir.Styled{Loc: loc(tok), Body: body, Scale: scale}
		}, nil
	}
}

var mathFonts = map[string]ir.Variant{
	`\mathrm`: ir.VariantNormal, `\mathit`: ir.VariantItalic, `\mathbf`: ir.VariantBold,
	`\mathsf`: ir.VariantSansSerif, `\mathtt`: ir.VariantMonospace,
	`\mathcal`: ir.VariantCalligraphic, `\mathscr`: ir.VariantScript,
	`\mathnormal`: ir.VariantDefault,
}

var fontSwitches = map[string]ir.Variant{
	`\rm`: ir.VariantNormal, `\it`: ir.VariantItalic, `\bf`: ir.VariantBold,
	`\sf`: ir.VariantSansSerif, `\tt`: ir.VariantMonospace, `\cal`: ir.VariantCalligraphic,
	`\mit`: ir.VariantDefault,
}

func fontCommand(v ir.Variant) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		return p.WithVariant(v, func() (ir.Node, error) { return p.ParseArgument(tok) })
	}
}

var textFonts = map[string]ir.Variant{
	`\text`: ir.VariantNormal, `\mbox`: ir.VariantNormal, `\hbox`: ir.VariantNormal,
	`\textrm`: ir.VariantNormal, `\textnormal`: ir.VariantNormal, `\textup`: ir.VariantNormal,
	`\textit`: ir.VariantItalic, `\textsl`: ir.VariantItalic, `\emph`: ir.VariantItalic,
	`\textbf`: ir.VariantBold, `\textsf`: ir.VariantSansSerif, `\texttt`: ir.VariantMonospace,
}

func textCommand(v ir.Variant) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		return p.ParseText(tok, v)
	}
}

var classCommands = map[string]ir.Class{
	`\mathord`: ir.ClassOrd, `\mathop`: ir.ClassOp, `\mathbin`: ir.ClassBin,
	`\mathrel`: ir.ClassRel, `\mathopen`: ir.ClassOpen, `\mathclose`: ir.ClassClose,
	`\mathpunct`: ir.ClassPunct, `\mathinner`: ir.ClassInner,
}

type bigSize struct {
	size  float64
	class ir.Class
}

var bigDelimiters = map[string]bigSize{}

func init() {
	for i, name := range []string{"big", "Big", "bigg", "Bigg"} {
		size := []float64{1.2, 1.623, 2.047, 2.470}[i]
		bigDelimiters[`\`+name] = bigSize{size, ir.ClassOrd}
		bigDelimiters[`\`+name+"l"] = bigSize{size, ir.ClassOpen}
		bigDelimiters[`\`+name+"r"] = bigSize{size, ir.ClassClose}
		bigDelimiters[`\`+name+"m"] = bigSize{size, ir.ClassRel}
	}
}

func bigDelimiter(size float64, class ir.Class) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		d, err := p.ParseDelimiter(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Delimiter{Loc: loc(tok), Char: d, Class: class, Size: size}, nil
	}
}

// negations maps what may follow \not to its precomposed negated form.
var negations = map[string]string{
	"=": "≠", "<": "≮", ">": "≯", `\in`: "∉", `\ni`: "∌", `\equiv`: "≢",
	`\subset`: "⊄", `\supset`: "⊅", `\subseteq`: "⊈", `\supseteq`: "⊉",
	`\sim`: "≁", `\simeq`: "≄", `\approx`: "≉", `\cong`: "≇", `\leq`: "≰",
	`\le`: "≰", `\geq`: "≱", `\ge`: "≱", `\mid`: "∤", `\parallel`: "∦",
	`\exists`: "∄", `\prec`: "⊀", `\succ`: "⊁",
}

func negate(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	p.SkipSpaces()
	if next, ok := p.Peek(); ok {
		if neg, ok := negations[next.Text]; ok && next.Type != scanner.TokenVerbatim {
			p.Next()
			class := ir.ClassRel
			if next.Is(`\exists`) {
				class = ir.ClassOrd
			}
			return &ir.Atom{Loc: loc(tok), Class: class, Text: neg, Variant: ir.VariantNormal}, nil
		}
	}
	body, err := p.ParseArgument(tok)
	if err != nil {
		return nil, err
	}
	class := ir.ClassRel
	if a, ok := body.(*ir.Atom); ok {
		class = a.Class
	}
	strike := &ir.Enclose{Loc: loc(tok), Body: body, Notations: []string{"updiagonalstrike"}}
	return withClass(tok, strike, class), nil
}

// rule draws \rule[raise]{width}{height}.
func rule(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	raise := 0.0
	if s, ok, err := p.ReadOptionalString(tok); err != nil {
		return nil, err
	} else if ok {
		if raise, err = parser.ParseDimension(tok.Pos, s); err != nil {
			return nil, err
		}
	}
	w, err := p.ReadDimension(tok)
	if err != nil {
		return nil, err
	}
	h, err := p.ReadDimension(tok)
	if err != nil {
		return nil, err
	}
	return &ir.Rule{Loc: loc(tok), Width: w, Height: h + raise, Depth: -raise}, nil
}

// modulo builds \pmod, \mod and \pod.
func modulo(word, parens bool) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		arg, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		nodes := []ir.Node{&ir.Space{Loc: loc(tok), Width: 8.0 / 18}}
		if parens {
			nodes = append(nodes, &ir.Atom{Loc: loc(tok), Class: ir.ClassOpen, Text: "(", Variant: ir.VariantNormal})
		}
		if word {
			nodes = append(nodes,
				&ir.Atom{Loc: loc(tok), Text: "mod", Variant: ir.VariantNormal},
				&ir.Space{Loc: loc(tok), Width: 6.0 / 18})
		}
		nodes = append(nodes, arg)
		if parens {
			nodes = append(nodes, &ir.Atom{Loc: loc(tok), Class: ir.ClassClose, Text: ")", Variant: ir.VariantNormal})
		}
		return group(tok, nodes...), nil
	}
}

func arrayEnv(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
	if _, _, err := p.ReadRawOptional(begin); err != nil {
		return nil, err
	}
	spec, err := p.ReadString(begin)
	if err != nil {
		return nil, err
	}
	aligns, lines, err := parser.ParseColumns(begin.Pos, spec)
	if err != nil {
		return nil, err
	}
	rows, err := p.ParseRows(name, begin)
	if err != nil {
		return nil, err
	}
	return &ir.Array{
		Loc:        loc(begin),
		Cells:      rows.Cells,
		Align:      aligns,
		ColLines:   fitLines(lines, rows.Cells),
		RowLines:   rows.Lines,
		ColSep:     1,
		RowStretch: 1,
		Tag:        rows.Tag,
	}, nil
}

// fitLines pads or trims column rules to the widest row.
func fitLines(lines []bool, cells [][]ir.Node) []bool {
	cols := 0
	for _, r := range cells {
		cols = max(cols, len(r))
	}
	out := make([]bool, cols+1)
	copy(out, lines)
	if len(lines) > cols+1 && lines[len(lines)-1] {
		out[cols] = true
	}
	return out
}

func arrayOf(tok scanner.Token, rows *parser.Rows, align ir.Align) *ir.Array {
	cols := 0
	for _, r := range rows.Cells {
		cols = max(cols, len(r))
	}
	aligns := make([]ir.Align, cols)
	for i := range aligns {
		aligns[i] = align
	}
	return &ir.Array{
		Loc:        loc(tok),
		Cells:      rows.Cells,
		Align:      aligns,
		ColLines:   make([]bool, cols+1),
		RowLines:   rows.Lines,
		ColSep:     1,
		RowStretch: 1,
		Tag:        rows.Tag,
	}
}

func matrixCommand(open, close string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		toks, err := p.ReadRaw(tok)
		if err != nil {
			return nil, err
		}
		rows, err := p.ParseRowsFrom(strings.TrimPrefix(tok.Text, `\`), tok, toks)
		if err != nil {
			return nil, err
		}
		a := arrayOf(tok, rows, ir.AlignCenter)
		a.Open, a.Close = open, close
		return a, nil
	}
}

func casesArray(tok scanner.Token, rows *parser.Rows, open, close string, style ir.Style) *ir.Array {
	a := arrayOf(tok, rows, ir.AlignLeft)
	a.Open, a.Close, a.Style = open, close, style
	return a
}

// alignEnv builds eqnarray and the amsmath alignments. With pairs set the
// columns alternate right and left, with no gap inside a pair.
func alignEnv(aligns []ir.Align, style ir.Style, pairs bool) parser.Environment {
	return func(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
		rows, err := p.ParseRows(name, begin)
		if err != nil {
			return nil, err
		}
		a := arrayOf(begin, rows, ir.AlignCenter)
		a.Style = style
		a.RowStretch = 1.3
		cols := len(a.Align)
		if pairs {
			a.Gaps = make([]float64, max(cols-1, 0))
			for i := range a.Align {
				a.Align[i] = ir.AlignRight
				if i%2 == 1 {
					a.Align[i] = ir.AlignLeft
				}
				if i < len(a.Gaps) && i%2 == 1 {
					a.Gaps[i] = 2
				}
			}
			return a, nil
		}
		for i := range a.Align {
			if i < len(aligns) {
				a.Align[i] = aligns[i]
			}
		}
		a.ColSep = 0.3
		return a, nil
	}
}

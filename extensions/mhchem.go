package extensions

import (
	"strings"
	"unicode"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

func installMhchem(b *Builder) error {
	b.Primitive(`\ce`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		return chemExtension(p, tok, false)
	})
	b.Primitive(`\pu`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		return chemExtension(p, tok, true)
	})
	return nil
}

func chemExtension(p *parser.Parser, tok scanner.Token, units bool) (ir.Node, error) {
	toks, err := p.ReadRaw(tok)
	if err != nil {
		return nil, err
	}
	src := scanner.Join(toks)
	c := &chem{p: p, tok: tok, src: []rune(src)}
	var nodes []ir.Node
	if units {
		nodes, err = c.units()
	} else {
		nodes, err = c.formula()
	}
	if err != nil {
		return nil, err
	}
	return &ir.Extension{
		Loc:     loc(tok),
		Package: "mhchem",
		Name:    tok.Text,
		Source:  src,
		Body:    &ir.Row{Loc: loc(tok), Children: nodes},
	}, nil
}

// chem reads the mhchem notation: formulas such as "2H2 + O2 -> 2H2O",
// charges ("SO4^2-", "Na+"), bonds, states and reaction arrows.
type chem struct {
	p     *parser.Parser
	tok   scanner.Token
	src   []rune
	i     int
	nodes []ir.Node
}

type chemArrow struct {
	text string
	kind ir.ArrowKind
}

// chemArrows is ordered longest first.
var chemArrows = []chemArrow{
	{"<=>>", ir.ArrowToFrom}, {"<<=>", ir.ArrowToFrom}, {"<=>", ir.ArrowToFrom},
	{"<->", ir.ArrowLeftRight}, {"->", ir.ArrowRight}, {"<-", ir.ArrowLeft},
}

func (c *chem) errorf(format string, args ...any) error {
	return parser.Errorf(c.tok.Pos, "%s: "+format, append([]any{c.tok.Text}, args...)...)
}

func (c *chem) peek(off int) rune {
	if c.i+off < len(c.src) {
		return c.src[c.i+off]
	}
	return 0
}

func (c *chem) hasPrefix(s string) bool {
	r := []rune(s)
	if c.i+len(r) > len(c.src) {
		return false
	}
	return string(c.src[c.i:c.i+len(r)]) == s
}

// wordEnd reports whether position i ends a word.
func (c *chem) wordEnd(i int) bool {
	return i >= len(c.src) || unicode.IsSpace(c.src[i])
}

func (c *chem) emit(n ir.Node) { c.nodes = append(c.nodes, n) }

func (c *chem) atom(text string, class ir.Class) *ir.Atom {
	return &ir.Atom{Loc: loc(c.tok), Class: class, Text: text, Variant: ir.VariantNormal}
}

// attach puts scripts on the last node, merging with existing ones.
func (c *chem) attach(sub, sup ir.Node) {
	if len(c.nodes) == 0 {
		c.emit(group(c.tok))
	}
	last := c.nodes[len(c.nodes)-1]
	if s, ok := last.(*ir.Scripts); ok && (sub == nil || s.Sub == nil) && (sup == nil || s.Sup == nil) {
		if sub != nil {
			s.Sub = sub
		}
		if sup != nil {
			s.Sup = sup
		}
		return
	}
	c.nodes[len(c.nodes)-1] = &ir.Scripts{Loc: loc(c.tok), Nucleus: last, Sub: sub, Sup: sup}
}

// braced returns the text up to the brace matching the one at c.i.
func (c *chem) braced(open, close rune) (string, error) {
	depth := 0
	for j := c.i; j < len(c.src); j++ {
		switch c.src[j] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				s := string(c.src[c.i+1 : j])
				c.i = j + 1
				return s, nil
			}
		}
	}
	return "", c.errorf("missing %c", close)
}

func (c *chem) sub(src string) ([]ir.Node, error) {
	inner := &chem{p: c.p, tok: c.tok, src: []rune(src)}
	return inner.formula()
}

func (c *chem) row(nodes []ir.Node) ir.Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &ir.Row{Loc: loc(c.tok), Children: nodes}
}

// charge converts "2-" to "2−".
func (c *chem) charge(s string) ir.Node {
	return c.atom(strings.ReplaceAll(s, "-", "−"), ir.ClassOrd)
}

func (c *chem) formula() ([]ir.Node, error) {
	start := true
	for c.i < len(c.src) {
		r := c.src[c.i]
		if unicode.IsSpace(r) {
			c.i++
			start = true
			continue
		}
		if arrow, ok := c.arrow(); ok {
			n, err := c.arrowLabels(arrow)
			if err != nil {
				return nil, err
			}
			c.emit(n)
			start = true
			continue
		}
		wasStart := start
		start = false
		switch {
		case wasStart && unicode.IsDigit(r):
			j := c.i
			for j < len(c.src) && (unicode.IsDigit(c.src[j]) || c.src[j] == '/' || c.src[j] == '.') {
				j++
			}
			c.emit(&ir.Atom{Loc: loc(c.tok), Text: string(c.src[c.i:j]), Variant: ir.VariantNormal, Number: true})
			c.i = j
			start = false
		case unicode.IsDigit(r):
			j := c.i
			for j < len(c.src) && unicode.IsDigit(c.src[j]) {
				j++
			}
			digits := string(c.src[c.i:j])
			if j < len(c.src) && (c.src[j] == '+' || c.src[j] == '-') && c.wordEnd(j+1) {
				c.attach(nil, c.charge(digits+string(c.src[j])))
				c.i = j + 1
				continue
			}
			c.attach(c.atom(digits, ir.ClassOrd), nil)
			c.i = j
		case unicode.IsUpper(r):
			j := c.i + 1
			for j < len(c.src) && unicode.IsLower(c.src[j]) && unicode.IsLetter(c.src[j]) {
				j++
			}
			c.emit(c.atom(string(c.src[c.i:j]), ir.ClassOrd))
			c.i = j
		case r == '+' || r == '-':
			switch {
			case wasStart && c.wordEnd(c.i+1):
				c.emit(c.atom(map[rune]string{'+': "+", '-': "−"}[r], ir.ClassBin))
			case r == '-' && !c.wordEnd(c.i+1) && c.peek(1) != ')':
				c.emit(c.atom("−", ir.ClassOrd))
			default:
				c.attach(nil, c.charge(string(r)))
			}
			c.i++
		case r == '=' || r == '#':
			text := "="
			if r == '#' {
				text = "≡"
			}
			class := ir.ClassOrd
			if wasStart && c.wordEnd(c.i+1) {
				class = ir.ClassRel
			}
			c.emit(c.atom(text, class))
			c.i++
		case r == '^':
			if wasStart && c.wordEnd(c.i+1) {
				c.emit(c.atom("↑", ir.ClassOrd))
				c.i++
				continue
			}
			c.i++
			n, err := c.script()
			if err != nil {
				return nil, err
			}
			c.attach(nil, n)
		case r == '_':
			c.i++
			n, err := c.script()
			if err != nil {
				return nil, err
			}
			c.attach(n, nil)
		case r == 'v' && wasStart && c.wordEnd(c.i+1):
			c.emit(c.atom("↓", ir.ClassOrd))
			c.i++
		case r == '*' || (r == '.' && !c.wordEnd(c.i+1)):
			c.emit(c.atom("·", ir.ClassBin))
			c.i++
			start = true
		case r == '(' || r == '[':
			c.emit(c.atom(string(r), ir.ClassOpen))
			c.i++
		case r == ')' || r == ']':
			c.emit(c.atom(string(r), ir.ClassClose))
			c.i++
		case r == '{':
			inner, err := c.braced('{', '}')
			if err != nil {
				return nil, err
			}
			nodes, err := c.sub(inner)
			if err != nil {
				return nil, err
			}
			c.emit(group(c.tok, nodes...))
		case r == '$':
			j := c.i + 1
			for j < len(c.src) && c.src[j] != '$' {
				j++
			}
			if j >= len(c.src) {
				return nil, c.errorf("missing closing $")
			}
			n, err := c.p.ParseSource(c.tok.Pos, string(c.src[c.i+1:j]))
			if err != nil {
				return nil, err
			}
			c.emit(n)
			c.i = j + 1
		case r == '\\':
			n, err := c.control()
			if err != nil {
				return nil, err
			}
			c.emit(n)
		default:
			c.emit(c.atom(string(r), ir.ClassOrd))
			c.i++
		}
	}
	return c.nodes, nil
}

func (c *chem) arrow() (ir.ArrowKind, bool) {
	for _, a := range chemArrows {
		if c.hasPrefix(a.text) {
			c.i += len([]rune(a.text))
			return a.kind, true
		}
	}
	return 0, false
}

// arrowLabels reads the optional [above][below] texts of an arrow.
func (c *chem) arrowLabels(kind ir.ArrowKind) (ir.Node, error) {
	a := &ir.Arrow{Loc: loc(c.tok), Arrow: kind, MinWidth: 1.5}
	for k := 0; k < 2 && c.peek(0) == '['; k++ {
		inner, err := c.braced('[', ']')
		if err != nil {
			return nil, err
		}
		nodes, err := c.sub(inner)
		if err != nil {
			return nil, err
		}
		label := &ir.Styled{Loc: loc(c.tok), Body: &ir.Row{Loc: loc(c.tok), Children: nodes}, Style: ir.StyleScript}
		if k == 0 {
			a.Over = label
		} else {
			a.Under = label
		}
	}
	return a, nil
}

// script reads the text after ^ or _: a braced group or a run of digits
// and charge signs.
func (c *chem) script() (ir.Node, error) {
	if c.peek(0) == '{' {
		inner, err := c.braced('{', '}')
		if err != nil {
			return nil, err
		}
		if isChargeText(inner) {
			return c.charge(inner), nil
		}
		nodes, err := c.sub(inner)
		if err != nil {
			return nil, err
		}
		return c.row(nodes), nil
	}
	j := c.i
	for j < len(c.src) && (unicode.IsDigit(c.src[j]) || unicode.IsLetter(c.src[j]) || c.src[j] == '+' || c.src[j] == '-') {
		j++
	}
	if j == c.i {
		return nil, c.errorf("missing script")
	}
	s := string(c.src[c.i:j])
	c.i = j
	return c.charge(s), nil
}

func isChargeText(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '+' && r != '-' {
			return false
		}
	}
	return s != ""
}

// control passes a TeX control word such as \alpha through to the math
// parser, with a braced argument when one follows.
func (c *chem) control() (ir.Node, error) {
	j := c.i + 1
	for j < len(c.src) && unicode.IsLetter(c.src[j]) {
		j++
	}
	if j == c.i+1 && j < len(c.src) {
		j++
	}
	text := string(c.src[c.i:j])
	c.i = j
	if c.peek(0) == '{' {
		start := c.i
		if _, err := c.braced('{', '}'); err != nil {
			return nil, err
		}
		text += string(c.src[start:c.i])
	}
	return c.p.ParseSource(c.tok.Pos, text)
}

// units reads \pu notation: a number, possibly in e-notation, followed by
// units with exponents.
func (c *chem) units() ([]ir.Node, error) {
	thin := func() ir.Node { return &ir.Space{Loc: loc(c.tok), Width: 3.0 / 18} }
	j := c.i
	for j < len(c.src) && (unicode.IsDigit(c.src[j]) || strings.ContainsRune(".,-+", c.src[j])) {
		j++
	}
	if j > c.i {
		c.emit(&ir.Atom{Loc: loc(c.tok), Text: strings.ReplaceAll(string(c.src[c.i:j]), "-", "−"), Variant: ir.VariantNormal, Number: true})
		c.i = j
		if c.peek(0) == 'e' || c.peek(0) == 'E' {
			k := c.i + 1
			for k < len(c.src) && (unicode.IsDigit(c.src[k]) || c.src[k] == '-' || c.src[k] == '+') {
				k++
			}
			if k > c.i+1 {
				c.emit(c.atom("·", ir.ClassBin))
				c.emit(&ir.Atom{Loc: loc(c.tok), Text: "10", Variant: ir.VariantNormal, Number: true})
				c.attach(nil, c.charge(string(c.src[c.i+1:k])))
				c.i = k
			}
		}
	}
	spaced := false
	for c.i < len(c.src) {
		r := c.src[c.i]
		switch {
		case unicode.IsSpace(r):
			c.i++
			spaced = true
			continue
		case r == '^':
			c.i++
			n, err := c.script()
			if err != nil {
				return nil, err
			}
			c.attach(nil, n)
		case r == '*' || r == '.':
			c.emit(c.atom("·", ir.ClassBin))
			c.i++
		case r == '/':
			c.emit(c.atom("/", ir.ClassOrd))
			c.i++
		case r == '\\':
			if spaced && len(c.nodes) > 0 {
				c.emit(thin())
			}
			n, err := c.control()
			if err != nil {
				return nil, err
			}
			c.emit(n)
		default:
			if spaced && len(c.nodes) > 0 {
				c.emit(thin())
			}
			k := c.i
			for k < len(c.src) && (unicode.IsLetter(c.src[k]) || c.src[k] == '°' || c.src[k] == 'µ') {
				k++
			}
			if k == c.i {
				k++
			}
			c.emit(c.atom(string(c.src[c.i:k]), ir.ClassOrd))
			c.i = k
		}
		spaced = false
	}
	return c.nodes, nil
}

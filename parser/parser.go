// Package parser turns an expanded token stream into an expression tree.
// What each control sequence means comes from a Grammar; the parser itself
// only knows groups, scripts, generalized fractions, \left..\right and
// environments.
package parser

import (
	"context"
	"fmt"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/recovery"
	"github.com/wudi/texsvg/scanner"
)

// Config controls one parse.
type Config struct {
	// Recovery decides what happens to undefined control sequences. Nil or
	// a strategy answering ActionFail makes them errors; anything else turns
	// them into placeholders.
	Recovery recovery.Strategy
	MaxRows  int
	MaxCols  int
	// MaxDepth bounds group and primitive nesting.
	MaxDepth int
}

const (
	DefaultMaxRows  = 1000
	DefaultMaxCols  = 100
	DefaultMaxDepth = 500
)

// Mode is the current input mode.
type Mode int

const (
	ModeMath Mode = iota
	ModeText
)

type stops uint8

const (
	stopCell    stops = 1 << iota // \\ and \cr end the list
	stopBracket                   // ] ends the list
	stopDollar                    // $ ends the list
)

// Parser holds the state of one parse session. It is not safe for
// concurrent use.
type Parser struct {
	g   *Grammar
	cfg Config
	ctx context.Context

	toks []scanner.Token
	pos  int

	depth   int
	variant ir.Variant
	bold    bool
	mode    Mode
	arrays  int
	lefts   int
	tag     ir.Node
	colors  map[string]string
}

func New(g *Grammar, cfg Config) *Parser {
	if g == nil {
		g = NewGrammar()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	if cfg.MaxCols <= 0 {
		cfg.MaxCols = DefaultMaxCols
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Parser{g: g, cfg: cfg, ctx: context.Background(), colors: make(map[string]string)}
}

// Parse builds the tree for a whole formula. The root is always an
// *ir.Row, or an *ir.Array when the formula carries a \tag.
func Parse(ctx context.Context, g *Grammar, cfg Config, toks []scanner.Token) (ir.Node, error) {
	return New(g, cfg).Parse(ctx, toks)
}

func (p *Parser) Parse(ctx context.Context, toks []scanner.Token) (ir.Node, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.ctx = ctx
	p.toks = toks
	p.pos = 0
	nodes, err := p.parseList(0)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.Peek(); ok {
		return nil, p.unexpected(tok)
	}
	root := &ir.Row{Children: nodes}
	if len(toks) > 0 {
		root.P = toks[0].Pos
	}
	if p.tag != nil {
		return &ir.Array{
			Loc:        root.Loc,
			Cells:      [][]ir.Node{{root}},
			Align:      []ir.Align{ir.AlignCenter},
			RowStretch: 1,
			Style:      ir.StyleInherit,
			Tag:        p.tag,
		}, nil
	}
	return root, nil
}

func (p *Parser) unexpected(tok scanner.Token) error {
	switch {
	case tok.Type == scanner.TokenEndGroup:
		return Errorf(tok.Pos, "unbalanced '}'")
	case tok.Type == scanner.TokenAlign:
		return Errorf(tok.Pos, "misplaced alignment tab '&'")
	case tok.Is(`\end`):
		return Errorf(tok.Pos, `\end without matching \begin`)
	case tok.Is(`\right`):
		return Errorf(tok.Pos, `\right without matching \left`)
	}
	return Errorf(tok.Pos, "unexpected %s", tok.Text)
}

// Grammar returns the grammar the parser was built with.
func (p *Parser) Grammar() *Grammar { return p.g }

func (p *Parser) Context() context.Context { return p.ctx }

func (p *Parser) Mode() Mode { return p.mode }

// Peek returns the next token without consuming it.
func (p *Parser) Peek() (scanner.Token, bool) {
	if p.pos >= len(p.toks) {
		return scanner.Token{}, false
	}
	return p.toks[p.pos], true
}

// Next consumes and returns the next token.
func (p *Parser) Next() (scanner.Token, bool) {
	tok, ok := p.Peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *Parser) SkipSpaces() {
	for p.pos < len(p.toks) && p.toks[p.pos].Type == scanner.TokenSpace {
		p.pos++
	}
}

// eof returns the position used for errors at the end of input.
func (p *Parser) eof() scanner.Position {
	if len(p.toks) == 0 {
		return scanner.Position{Line: 1, Column: 1}
	}
	last := p.toks[len(p.toks)-1]
	pos := last.Pos
	pos.Offset += len(last.Text)
	pos.Column += len(last.Text)
	return pos
}

func (p *Parser) enter(tok scanner.Token) error {
	p.depth++
	if p.depth > p.cfg.MaxDepth {
		return Errorf(tok.Pos, "nesting deeper than %d", p.cfg.MaxDepth)
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

// isStop reports whether tok ends the current list.
func (p *Parser) isStop(tok scanner.Token, s stops) bool {
	switch tok.Type {
	case scanner.TokenEndGroup, scanner.TokenAlign:
		return true
	case scanner.TokenMathShift:
		return s&stopDollar != 0
	case scanner.TokenOther:
		return s&stopBracket != 0 && tok.Text == "]"
	case scanner.TokenControlWord, scanner.TokenControlSymbol:
		switch tok.Text {
		case `\end`, `\right`:
			return true
		case `\\`, `\cr`:
			return s&stopCell != 0
		}
	}
	return false
}

// parseList parses math material up to, not including, a stop token.
func (p *Parser) parseList(s stops) ([]ir.Node, error) {
	var (
		nodes    []ir.Node
		num      []ir.Node
		build    func(num, den ir.Node) ir.Node
		infixTok scanner.Token
	)
	finish := func() []ir.Node {
		if build == nil {
			return nodes
		}
		return []ir.Node{build(row(infixTok.Pos, num), row(infixTok.Pos, nodes))}
	}
	for {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		tok, ok := p.Peek()
		if !ok || p.isStop(tok, s) {
			return finish(), nil
		}
		if tok.Type == scanner.TokenSpace {
			p.pos++
			continue
		}
		if tok.IsControl() {
			if tok.Is(`\\`) || tok.Is(`\cr`) {
				p.pos++
				if _, err := p.SkipRowSpacing(); err != nil {
					return nil, err
				}
				nodes = append(nodes, &ir.Break{Loc: ir.Loc{P: tok.Pos}})
				continue
			}
			if in, ok := p.g.Infix[tok.Text]; ok {
				if build != nil {
					return nil, Errorf(tok.Pos, "ambiguous use of %s after %s", tok.Text, infixTok.Text)
				}
				p.pos++
				b, err := in(p, tok)
				if err != nil {
					return nil, err
				}
				build, infixTok, num, nodes = b, tok, nodes, nil
				continue
			}
			if sw, ok := p.g.Switches[tok.Text]; ok {
				p.pos++
				wrap, err := sw(p, tok)
				if err != nil {
					return nil, err
				}
				if wrap == nil {
					continue
				}
				if err := p.enter(tok); err != nil {
					return nil, err
				}
				rest, err := p.parseList(s)
				p.leave()
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, wrap(row(tok.Pos, rest)))
				return finish(), nil
			}
		}
		n, err := p.parseScripted()
		if err != nil {
			return nil, err
		}
		if n != nil {
			nodes = append(nodes, n)
		}
	}
}

func row(pos scanner.Position, nodes []ir.Node) *ir.Row {
	if len(nodes) > 0 {
		pos = nodes[0].Pos()
	}
	return &ir.Row{Loc: ir.Loc{P: pos}, Children: nodes}
}

func (p *Parser) parseScripted() (ir.Node, error) {
	tok, _ := p.Peek()
	var nuc ir.Node
	if tok.Type == scanner.TokenSuperscript || tok.Type == scanner.TokenSubscript || (tok.Type == scanner.TokenOther && tok.Text == "'") {
		nuc = &ir.Row{Loc: ir.Loc{P: tok.Pos}, Group: true}
	} else {
		n, err := p.parsePrimary(false)
		if err != nil || n == nil {
			return n, err
		}
		nuc = n
	}
	return p.parseScripts(nuc)
}

func (p *Parser) parseScripts(nuc ir.Node) (ir.Node, error) {
	var (
		sub, sup ir.Node
		primes   []ir.Node
		limits   = ir.LimitsAuto
		explicit bool
	)
loop:
	for {
		p.SkipSpaces()
		tok, ok := p.Peek()
		if !ok {
			break
		}
		switch {
		case tok.Is(`\limits`):
			p.pos++
			limits, explicit = ir.LimitsAlways, true
		case tok.Is(`\nolimits`):
			p.pos++
			limits, explicit = ir.LimitsNever, true
		case tok.Type == scanner.TokenOther && tok.Text == "'":
			if sup != nil {
				return nil, Errorf(tok.Pos, "double superscript")
			}
			for {
				t, ok := p.Peek()
				if !ok || t.Type != scanner.TokenOther || t.Text != "'" {
					break
				}
				p.pos++
				primes = append(primes, &ir.Atom{Loc: ir.Loc{P: t.Pos}, Text: "′"})
			}
		case tok.Type == scanner.TokenSuperscript:
			if sup != nil {
				return nil, Errorf(tok.Pos, "double superscript")
			}
			p.pos++
			arg, err := p.parseScriptArg(tok, "superscript")
			if err != nil {
				return nil, err
			}
			if primes != nil {
				sup = row(tok.Pos, append(primes, arg))
				primes = nil
			} else {
				sup = arg
			}
		case tok.Type == scanner.TokenSubscript:
			if sub != nil {
				return nil, Errorf(tok.Pos, "double subscript")
			}
			p.pos++
			arg, err := p.parseScriptArg(tok, "subscript")
			if err != nil {
				return nil, err
			}
			sub = arg
		default:
			break loop
		}
	}
	if primes != nil {
		if len(primes) == 1 {
			sup = primes[0]
		} else {
			sup = row(primes[0].Pos(), primes)
		}
	}
	atom, isAtom := nuc.(*ir.Atom)
	if sub == nil && sup == nil {
		if explicit && isAtom {
			atom.Limits = limits
		}
		return nuc, nil
	}
	if !explicit && isAtom {
		limits = atom.Limits
	}
	return &ir.Scripts{Loc: ir.Loc{P: nuc.Pos()}, Nucleus: nuc, Sub: sub, Sup: sup, Limits: limits}, nil
}

func (p *Parser) parseScriptArg(op scanner.Token, what string) (ir.Node, error) {
	p.SkipSpaces()
	tok, ok := p.Peek()
	if !ok || p.isStop(tok, stopCell) || tok.Type == scanner.TokenSuperscript || tok.Type == scanner.TokenSubscript {
		return nil, Errorf(op.Pos, "missing %s", what)
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

// parsePrimary parses one nucleus. With single set a digit run is not
// merged into one number, as for \frac12 and x^12.
func (p *Parser) parsePrimary(single bool) (ir.Node, error) {
	tok, ok := p.Next()
	if !ok {
		return nil, Errorf(p.eof(), "unexpected end of input")
	}
	loc := ir.Loc{P: tok.Pos}
	switch tok.Type {
	case scanner.TokenBeginGroup:
		return p.parseGroupRest(tok)
	case scanner.TokenLetter:
		return p.letter(tok), nil
	case scanner.TokenDigit:
		text := tok.Text
		for !single {
			t, ok := p.Peek()
			if ok && t.Type == scanner.TokenDigit {
				text += t.Text
				p.pos++
				continue
			}
			if ok && t.Is(".") && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Type == scanner.TokenDigit {
				text += "."
				p.pos++
				continue
			}
			break
		}
		v := p.variant
		switch {
		case p.bold || v == ir.VariantBoldItalic:
			v = ir.VariantBold
		case v == ir.VariantDefault || v == ir.VariantItalic:
			v = ir.VariantNormal
		}
		return &ir.Atom{Loc: loc, Text: text, Variant: v, Number: true}, nil
	case scanner.TokenOther:
		if sym, ok := p.g.Symbols[tok.Text]; ok {
			return p.SymbolAtom(tok, sym), nil
		}
		return &ir.Atom{Loc: loc, Text: tok.Text, Variant: ir.VariantNormal}, nil
	case scanner.TokenActive:
		if prim, ok := p.g.Primitives[tok.Text]; ok {
			return prim(p, tok)
		}
		return &ir.Space{Loc: loc, Width: 1.0 / 3}, nil
	case scanner.TokenVerbatim:
		if prim, ok := p.g.Primitives[`\verb`]; ok {
			return prim(p, tok)
		}
		return p.Undefined(scanner.Token{Type: scanner.TokenControlWord, Text: `\verb`, Pos: tok.Pos})
	case scanner.TokenControlWord, scanner.TokenControlSymbol:
		return p.parseControl(tok)
	case scanner.TokenMathShift:
		return nil, Errorf(tok.Pos, "unexpected '$' in math mode")
	case scanner.TokenParam:
		return nil, Errorf(tok.Pos, "macro parameter character '#' in math mode")
	case scanner.TokenSpace:
		return nil, nil
	}
	return nil, p.unexpected(tok)
}

func (p *Parser) letter(tok scanner.Token) *ir.Atom {
	v := p.variant
	if p.bold {
		v = ir.VariantBoldItalic
	}
	return &ir.Atom{Loc: ir.Loc{P: tok.Pos}, Text: tok.Text, Variant: v}
}

// SymbolAtom builds the atom for a symbol table entry, applying the current
// font switches.
func (p *Parser) SymbolAtom(tok scanner.Token, sym Symbol) *ir.Atom {
	v := sym.Variant
	if p.bold {
		if v == ir.VariantDefault || v == ir.VariantItalic {
			v = ir.VariantBoldItalic
		} else {
			v = ir.VariantBold
		}
	} else if v == ir.VariantDefault && p.variant != ir.VariantDefault && sym.Class == ir.ClassOrd && !sym.Large {
		v = p.variant
	}
	return &ir.Atom{
		Loc:     ir.Loc{P: tok.Pos},
		Class:   sym.Class,
		Text:    sym.Text,
		Variant: v,
		Large:   sym.Large,
		Limits:  sym.Limits,
	}
}

func (p *Parser) parseControl(tok scanner.Token) (ir.Node, error) {
	switch tok.Text {
	case `\left`:
		return p.parseLeft(tok)
	case `\middle`:
		if p.lefts == 0 {
			return nil, Errorf(tok.Pos, `\middle without \left`)
		}
		d, err := p.ParseDelimiter(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Delimiter{Loc: ir.Loc{P: tok.Pos}, Char: d, Class: ir.ClassRel}, nil
	case `\begin`:
		return p.parseBegin(tok)
	case `\right`, `\end`, `\\`, `\cr`:
		return nil, p.unexpected(tok)
	case `\hline`, `\hdashline`:
		return nil, Errorf(tok.Pos, "misplaced %s", tok.Text)
	}
	if prim, ok := p.g.Primitives[tok.Text]; ok {
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		defer p.leave()
		return prim(p, tok)
	}
	if sym, ok := p.g.Symbols[tok.Text]; ok {
		return p.SymbolAtom(tok, sym), nil
	}
	if _, ok := p.g.Switches[tok.Text]; ok {
		return nil, Errorf(tok.Pos, "misplaced %s", tok.Text)
	}
	if _, ok := p.g.Infix[tok.Text]; ok {
		return nil, Errorf(tok.Pos, "misplaced %s", tok.Text)
	}
	return p.Undefined(tok)
}

func (p *Parser) parseGroupRest(open scanner.Token) (ir.Node, error) {
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()
	variant, bold := p.variant, p.bold
	nodes, err := p.parseList(0)
	p.variant, p.bold = variant, bold
	if err != nil {
		return nil, err
	}
	tok, ok := p.Peek()
	if !ok {
		return nil, Errorf(open.Pos, "missing '}'")
	}
	if tok.Type != scanner.TokenEndGroup {
		return nil, Errorf(tok.Pos, "unexpected %s inside group opened at %s", tok.Text, open.Pos)
	}
	p.pos++
	return &ir.Row{Loc: ir.Loc{P: open.Pos}, Children: nodes, Group: true}, nil
}

func (p *Parser) parseLeft(tok scanner.Token) (ir.Node, error) {
	open, err := p.ParseDelimiter(tok)
	if err != nil {
		return nil, err
	}
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	p.lefts++
	nodes, err := p.parseList(0)
	p.lefts--
	p.leave()
	if err != nil {
		return nil, err
	}
	next, ok := p.Peek()
	if !ok || !next.Is(`\right`) {
		return nil, Errorf(tok.Pos, `missing \right for \left`)
	}
	p.pos++
	closing, err := p.ParseDelimiter(next)
	if err != nil {
		return nil, err
	}
	return &ir.Delimited{Loc: ir.Loc{P: tok.Pos}, Open: open, Close: closing, Body: row(tok.Pos, nodes)}, nil
}

func (p *Parser) parseBegin(tok scanner.Token) (ir.Node, error) {
	name, err := p.ReadString(tok)
	if err != nil {
		return nil, err
	}
	env, ok := p.g.Environments[name]
	if !ok {
		uerr := &UndefinedControlSequenceError{Name: name, Pos: tok.Pos, Environment: true}
		if !p.recoverable(uerr, tok) {
			return nil, uerr
		}
		if err := p.skipEnvironment(tok, name); err != nil {
			return nil, err
		}
		return &ir.Placeholder{Loc: ir.Loc{P: tok.Pos}, Name: `\begin{` + name + `}`, Color: p.g.PlaceholderColor}, nil
	}
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer p.leave()
	return env(p, name, tok)
}

func (p *Parser) skipEnvironment(begin scanner.Token, name string) error {
	level := 1
	for {
		tok, ok := p.Next()
		if !ok {
			return Errorf(begin.Pos, `missing \end{%s}`, name)
		}
		switch {
		case tok.Is(`\begin`):
			level++
		case tok.Is(`\end`):
			level--
			if level == 0 {
				_, err := p.ReadRaw(tok)
				return err
			}
		}
	}
}

// Undefined handles a control sequence nothing defines: an error in strict
// mode, a placeholder when the recovery strategy lets parsing continue.
func (p *Parser) Undefined(tok scanner.Token) (ir.Node, error) {
	err := &UndefinedControlSequenceError{Name: tok.Text, Pos: tok.Pos}
	if !p.recoverable(err, tok) {
		return nil, err
	}
	return &ir.Placeholder{Loc: ir.Loc{P: tok.Pos}, Name: tok.Text, Color: p.g.PlaceholderColor}, nil
}

func (p *Parser) recoverable(err error, tok scanner.Token) bool {
	if p.cfg.Recovery == nil {
		return false
	}
	loc := recovery.Location{
		Offset:    tok.Pos.Offset,
		Line:      tok.Pos.Line,
		Column:    tok.Pos.Column,
		Component: "parser",
		Name:      tok.Text,
	}
	return p.cfg.Recovery.OnError(p.ctx, err, loc) != recovery.ActionFail
}

// ParseTokens parses toks as a math list with the current session state,
// as if they appeared in a group. Packages that rewrite their arguments
// into LaTeX use it.
func (p *Parser) ParseTokens(toks []scanner.Token) (ir.Node, error) {
	savedToks, savedPos := p.toks, p.pos
	p.toks, p.pos = toks, 0
	defer func() { p.toks, p.pos = savedToks, savedPos }()
	nodes, err := p.parseList(0)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.Peek(); ok {
		return nil, p.unexpected(tok)
	}
	var at scanner.Position
	if len(toks) > 0 {
		at = toks[0].Pos
	}
	return row(at, nodes), nil
}

// ParseSource tokenizes src and parses it with ParseTokens. Every token is
// reported at pos, the position of the command that produced src.
func (p *Parser) ParseSource(pos scanner.Position, src string) (ir.Node, error) {
	toks, err := scanner.Tokenize(src, scanner.Config{})
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	for i := range toks {
		toks[i].Pos = pos
	}
	return p.ParseTokens(toks)
}

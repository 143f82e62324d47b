package parser

import (
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/scanner"
)

// Primitive parses a control sequence whose token has already been consumed.
// It may return a nil node for commands that only change parser state.
type Primitive func(p *Parser, tok scanner.Token) (ir.Node, error)

// Switch is a declaration such as \displaystyle or \color{red} that affects
// the rest of the enclosing group. When wrap is non-nil the remaining
// material is parsed and passed to it.
type Switch func(p *Parser, tok scanner.Token) (wrap func(body ir.Node) ir.Node, err error)

// Infix is a generalized fraction such as \over. It is called when the
// operator is met; build receives the material before and after it.
type Infix func(p *Parser, tok scanner.Token) (build func(num, den ir.Node) ir.Node, err error)

// Environment parses the body of \begin{name}. It must consume the
// matching \end, usually through ParseRows.
type Environment func(p *Parser, name string, begin scanner.Token) (ir.Node, error)

// Symbol describes what a control sequence or character stands for.
type Symbol struct {
	Text    string
	Class   ir.Class
	Variant ir.Variant
	Large   bool
	Limits  ir.Limits
}

// Grammar is the immutable set of primitives a parser understands. It is
// assembled once from the enabled extension packages and shared between
// sessions.
type Grammar struct {
	Primitives   map[string]Primitive
	Switches     map[string]Switch
	Infix        map[string]Infix
	Environments map[string]Environment
	// Symbols maps control sequences and single characters to atoms.
	Symbols map[string]Symbol
	// Delimiters maps what may follow \left, \right and \big to the glyph
	// drawn. The null delimiter "." maps to "".
	Delimiters map[string]string
	Colors     map[string]string

	// TextMacros enables control sequences and math inside \text{}. Without
	// it text arguments are taken literally.
	TextMacros   bool
	TextCommands map[string]Primitive
	TextSymbols  map[string]string

	// PlaceholderColor is used for undefined control sequences in
	// permissive mode.
	PlaceholderColor string
}

func NewGrammar() *Grammar {
	return &Grammar{
		Primitives:   make(map[string]Primitive),
		Switches:     make(map[string]Switch),
		Infix:        make(map[string]Infix),
		Environments: make(map[string]Environment),
		Symbols:      make(map[string]Symbol),
		Delimiters:   make(map[string]string),
		Colors:       make(map[string]string),
		TextCommands: make(map[string]Primitive),
		TextSymbols:  make(map[string]string),
	}
}

// Merge copies o into g. Entries in o replace entries of g with the same
// name; a name moves between primitive kinds when it is redefined.
func (g *Grammar) Merge(o *Grammar) {
	for k, v := range o.Primitives {
		g.Forget(k)
		g.Primitives[k] = v
	}
	for k, v := range o.Switches {
		g.Forget(k)
		g.Switches[k] = v
	}
	for k, v := range o.Infix {
		g.Forget(k)
		g.Infix[k] = v
	}
	for k, v := range o.Symbols {
		g.Forget(k)
		g.Symbols[k] = v
	}
	for k, v := range o.Environments {
		g.Environments[k] = v
	}
	for k, v := range o.Delimiters {
		g.Delimiters[k] = v
	}
	for k, v := range o.Colors {
		g.Colors[k] = v
	}
	for k, v := range o.TextCommands {
		delete(g.TextSymbols, k)
		g.TextCommands[k] = v
	}
	for k, v := range o.TextSymbols {
		delete(g.TextCommands, k)
		g.TextSymbols[k] = v
	}
	if o.TextMacros {
		g.TextMacros = true
	}
	if o.PlaceholderColor != "" {
		g.PlaceholderColor = o.PlaceholderColor
	}
}

// Forget removes name from every math-mode table.
func (g *Grammar) Forget(name string) {
	delete(g.Primitives, name)
	delete(g.Switches, name)
	delete(g.Infix, name)
	delete(g.Symbols, name)
}

// Defined reports whether name is known in math mode.
func (g *Grammar) Defined(name string) bool {
	if _, ok := g.Primitives[name]; ok {
		return true
	}
	if _, ok := g.Switches[name]; ok {
		return true
	}
	if _, ok := g.Infix[name]; ok {
		return true
	}
	_, ok := g.Symbols[name]
	return ok
}

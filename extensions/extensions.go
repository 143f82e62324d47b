// Package extensions provides the TeX packages a renderer can enable. Each
// package contributes macros to the expander and primitives, environments
// and symbols to the parser. Build combines an explicit list of packages
// into an immutable Set.
package extensions

import (
	"fmt"
	"sort"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/parser"
)

type Package interface {
	Name() string
	// Requires lists packages that must be installed first.
	Requires() []string
	Install(b *Builder) error
}

type pkg struct {
	name     string
	requires []string
	install  func(b *Builder) error
}

func (p *pkg) Name() string             { return p.name }
func (p *pkg) Requires() []string       { return p.requires }
func (p *pkg) Install(b *Builder) error { return p.install(b) }

func newPackage(name string, requires []string, install func(b *Builder) error) Package {
	return &pkg{name: name, requires: requires, install: install}
}

// Builder accumulates what packages register. A later registration of a
// name replaces every earlier one, whatever its kind.
type Builder struct {
	macros  *macro.Builder
	grammar *parser.Grammar
}

func NewBuilder() *Builder {
	return &Builder{macros: macro.NewBuilder(), grammar: parser.NewGrammar()}
}

// Macro defines a source-level macro, e.g. Macro(`\ket`, 1, `\left|#1\right\rangle`).
func (b *Builder) Macro(name string, params int, body string) {
	b.grammar.Forget(name)
	b.macros.Define(macro.MustNew(name, params, body))
}

// MacroWithDefault defines a macro whose first parameter is optional.
func (b *Builder) MacroWithDefault(name string, params int, def, body string) {
	b.grammar.Forget(name)
	b.macros.Define(macro.MustNewWithDefault(name, params, def, body))
}

// Command defines an expansion-time primitive such as \newcommand.
func (b *Builder) Command(name string, cmd macro.Command) {
	b.grammar.Forget(name)
	b.macros.DefineCommand(name, cmd)
}

func (b *Builder) Primitive(name string, fn parser.Primitive) {
	b.macros.Undefine(name)
	b.grammar.Forget(name)
	b.grammar.Primitives[name] = fn
}

func (b *Builder) Switch(name string, fn parser.Switch) {
	b.macros.Undefine(name)
	b.grammar.Forget(name)
	b.grammar.Switches[name] = fn
}

func (b *Builder) Infix(name string, fn parser.Infix) {
	b.macros.Undefine(name)
	b.grammar.Forget(name)
	b.grammar.Infix[name] = fn
}

func (b *Builder) Environment(name string, fn parser.Environment) {
	b.grammar.Environments[name] = fn
}

// Symbol binds a control sequence or character to an atom.
func (b *Builder) Symbol(name, text string, class ir.Class) {
	b.SymbolEntry(name, parser.Symbol{Text: text, Class: class})
}

func (b *Builder) SymbolEntry(name string, sym parser.Symbol) {
	b.macros.Undefine(name)
	b.grammar.Forget(name)
	b.grammar.Symbols[name] = sym
}

func (b *Builder) Delimiter(name, glyph string) { b.grammar.Delimiters[name] = glyph }

func (b *Builder) Color(name, value string) { b.grammar.Colors[name] = value }

func (b *Builder) TextCommand(name string, fn parser.Primitive) {
	delete(b.grammar.TextSymbols, name)
	b.grammar.TextCommands[name] = fn
}

func (b *Builder) TextSymbol(name, text string) {
	delete(b.grammar.TextCommands, name)
	b.grammar.TextSymbols[name] = text
}

// Grammar exposes the grammar under construction for settings that have no
// dedicated method.
func (b *Builder) Grammar() *parser.Grammar { return b.grammar }

// Set is the immutable result of Build, shared by every render session.
type Set struct {
	Names   []string
	Macros  *macro.Table
	Grammar *parser.Grammar
}

// Standard returns the packages shipped with the renderer. Every call
// builds a fresh list; nothing registers itself at init time.
func Standard() []Package {
	return []Package{
		newPackage("base", nil, installBase),
		newPackage("ams", nil, installAMS),
		newPackage("newcommand", nil, installNewcommand),
		newPackage("boldsymbol", nil, installBoldsymbol),
		newPackage("braket", nil, installBraket),
		newPackage("cancel", nil, installCancel),
		newPackage("color", nil, installColor),
		newPackage("enclose", nil, installEnclose),
		newPackage("extpfeil", []string{"ams"}, installExtpfeil),
		newPackage("html", nil, installHTML),
		newPackage("mhchem", nil, installMhchem),
		newPackage("noundefined", nil, installNoundefined),
		newPackage("physics", nil, installPhysics),
		newPackage("mathtools", []string{"ams"}, installMathtools),
		newPackage("amscd", nil, installAMSCD),
		newPackage("action", nil, installAction),
		newPackage("bbox", nil, installBbox),
		newPackage("unicode", nil, installUnicode),
		newPackage("verb", nil, installVerb),
		newPackage("textmacros", nil, installTextmacros),
		newPackage("textcomp", nil, installTextcomp),
		newPackage("cases", []string{"ams"}, installCases),
	}
}

// Lookup returns the standard package with the given name.
func Lookup(name string) (Package, bool) {
	for _, p := range Standard() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Available returns the names of the standard packages, sorted.
func Available() []string {
	var names []string
	for _, p := range Standard() {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

// DefaultPackages is the package list used when none is configured.
var DefaultPackages = []string{
	"base", "ams", "newcommand", "boldsymbol", "braket", "cancel", "color", "enclose",
	"extpfeil", "html", "mhchem", "noundefined", "physics", "mathtools", "amscd",
	"action", "bbox", "unicode", "verb", "textmacros", "textcomp", "cases",
}

// Build installs the named standard packages. See BuildFrom.
func Build(names ...string) (*Set, error) { return BuildFrom(Standard(), names...) }

// BuildFrom installs the named packages of catalog in order. "base" is
// always installed first. Packages named twice are installed once, at their
// first position; required packages are installed just before the first
// package needing them. A later package in catalog shadows an earlier one
// of the same name.
func BuildFrom(catalog []Package, names ...string) (*Set, error) {
	byName := make(map[string]Package, len(catalog))
	for _, p := range catalog {
		byName[p.Name()] = p
	}
	b := NewBuilder()
	installed := map[string]bool{}
	var order []string
	var install func(name string, chain []string) error
	install = func(name string, chain []string) error {
		if installed[name] {
			return nil
		}
		for _, c := range chain {
			if c == name {
				return fmt.Errorf("extensions: dependency cycle through %s", name)
			}
		}
		p, ok := byName[name]
		if !ok {
			return fmt.Errorf("extensions: unknown package %q", name)
		}
		for _, r := range p.Requires() {
			if err := install(r, append(chain, name)); err != nil {
				return err
			}
		}
		if err := p.Install(b); err != nil {
			return fmt.Errorf("extensions: install %s: %w", name, err)
		}
		installed[name] = true
		order = append(order, name)
		return nil
	}
	for _, name := range append([]string{"base"}, names...) {
		if err := install(name, nil); err != nil {
			return nil, err
		}
	}
	return &Set{Names: order, Macros: b.macros.Build(), Grammar: b.grammar}, nil
}

// MustBuild is like Build but panics on error.
func MustBuild(names ...string) *Set {
	s, err := Build(names...)
	if err != nil {
		panic(err)
	}
	return s
}

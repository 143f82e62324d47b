package macro

import (
	"fmt"

	"github.com/wudi/texsvg/scanner"
)

// NewCommand implements \newcommand, \renewcommand and \providecommand:
//
//	\newcommand{\name}[n][default]{body}
func NewCommand(e *Expander, tok scanner.Token) error {
	e.ReadStar()
	name, err := e.ReadControlName(tok)
	if err != nil {
		return err
	}
	params, _, err := e.ReadNumber(tok)
	if err != nil {
		return err
	}
	def, hasDefault, err := e.ReadOptional(tok)
	if err != nil {
		return err
	}
	body, err := e.ReadArgument(tok)
	if err != nil {
		return err
	}
	if hasDefault && params == 0 {
		return &Error{Kind: ErrBadDefinition, Name: name.Text, Pos: tok.Pos,
			Msg: "default argument given for a macro without parameters"}
	}
	if err := checkParams(name.Text, params, body); err != nil {
		return err
	}
	if tok.Text == `\providecommand` && e.ns.Defined(name.Text) {
		return nil
	}
	e.ns.Define(&Definition{Name: name.Text, Params: params, HasDefault: hasDefault, Default: def, Body: body})
	return nil
}

// Def implements the plain TeX form \def\name#1#2{body}. Delimited
// parameters are not supported.
func Def(e *Expander, tok scanner.Token) error {
	e.skipSpaces()
	it, ok := e.pop()
	if !ok || !it.tok.IsControl() {
		return &Error{Kind: ErrBadDefinition, Name: tok.Text, Pos: tok.Pos, Msg: `\def expects a control sequence name`}
	}
	name := it.tok
	params := 0
	for {
		next, ok := e.peek()
		if !ok {
			return &Error{Kind: ErrMissingArgument, Name: name.Text, Pos: tok.Pos, Msg: "missing body for " + name.Text}
		}
		if next.Type == scanner.TokenBeginGroup {
			break
		}
		e.pop()
		if next.Type != scanner.TokenParam {
			return &Error{Kind: ErrBadDefinition, Name: name.Text, Pos: next.Pos, Msg: "delimited parameters are not supported"}
		}
		digit, ok := e.pop()
		if !ok || digit.tok.Type != scanner.TokenDigit || int(digit.tok.Text[0]-'0') != params+1 {
			return &Error{Kind: ErrBadDefinition, Name: name.Text, Pos: next.Pos, Msg: "parameters must be numbered consecutively"}
		}
		params++
	}
	body, err := e.ReadArgument(tok)
	if err != nil {
		return err
	}
	if err := checkParams(name.Text, params, body); err != nil {
		return err
	}
	e.ns.Define(&Definition{Name: name.Text, Params: params, Body: body})
	return nil
}

// Let implements \let\a\b and \let\a=\b. When \b is a macro its current
// definition is copied, otherwise \a becomes an alias for the token.
func Let(e *Expander, tok scanner.Token) error {
	e.skipSpaces()
	it, ok := e.pop()
	if !ok || !it.tok.IsControl() {
		return &Error{Kind: ErrBadDefinition, Name: tok.Text, Pos: tok.Pos, Msg: `\let expects a control sequence name`}
	}
	name := it.tok
	e.skipSpaces()
	if next, ok := e.peek(); ok && next.Is("=") {
		e.pop()
		e.skipSpaces()
	}
	target, ok := e.pop()
	if !ok {
		return &Error{Kind: ErrMissingArgument, Name: name.Text, Pos: tok.Pos, Msg: `missing target for \let`}
	}
	if d, ok := e.ns.Macro(target.tok.Text); ok && target.tok.IsControl() {
		cp := *d
		cp.Name = name.Text
		e.ns.Define(&cp)
		return nil
	}
	e.ns.Define(&Definition{Name: name.Text, Body: []scanner.Token{target.tok}})
	return nil
}

// NewEnvironment implements \newenvironment{name}[n][default]{begin}{end}.
func NewEnvironment(e *Expander, tok scanner.Token) error {
	nameToks, err := e.ReadArgument(tok)
	if err != nil {
		return err
	}
	name := tokenText(nameToks)
	if name == "" {
		return &Error{Kind: ErrBadDefinition, Name: tok.Text, Pos: tok.Pos, Msg: "empty environment name"}
	}
	params, _, err := e.ReadNumber(tok)
	if err != nil {
		return err
	}
	def, hasDefault, err := e.ReadOptional(tok)
	if err != nil {
		return err
	}
	begin, err := e.ReadArgument(tok)
	if err != nil {
		return err
	}
	end, err := e.ReadArgument(tok)
	if err != nil {
		return err
	}
	if err := checkParams(name, params, begin); err != nil {
		return err
	}
	if err := checkParams(name, 0, end); err != nil {
		return err
	}
	e.ns.DefineEnvironment(&Environment{Name: name, Params: params, HasDefault: hasDefault, Default: def, Begin: begin, End: end})
	return nil
}

// DeclareMathOperator implements \DeclareMathOperator{\name}{text} and the
// starred form, which places limits above and below in display style.
func DeclareMathOperator(e *Expander, tok scanner.Token) error {
	star := e.ReadStar()
	name, err := e.ReadControlName(tok)
	if err != nil {
		return err
	}
	text, err := e.ReadArgument(tok)
	if err != nil {
		return err
	}
	op := `\operatorname`
	if star {
		op += "*"
	}
	body, err := scanner.Tokenize(fmt.Sprintf("%s{%s}", op, scanner.Join(text)), scanner.Config{})
	if err != nil {
		return err
	}
	e.ns.Define(&Definition{Name: name.Text, Body: body})
	return nil
}

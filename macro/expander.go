package macro

import (
	"fmt"

	"github.com/wudi/texsvg/scanner"
)

type Config struct {
	// MaxDepth bounds nested macro expansion; self-referential macros hit it.
	MaxDepth int
	// MaxExpansions bounds the total number of expansions in one session.
	MaxExpansions int
	// MaxTokens bounds the expanded token stream, output and pending input
	// together, so short definitions cannot blow up into huge formulas.
	MaxTokens int
}

const (
	DefaultMaxDepth      = 100
	DefaultMaxExpansions = 10000
	DefaultMaxTokens     = 50000
)

type item struct {
	tok   scanner.Token
	depth int
}

// Expander rewrites a token stream until no user or package macro remains.
// It is single use: one Expander per render session.
type Expander struct {
	ns    *Namespace
	cfg   Config
	stack []item // reversed: the next token is last
	cur   int    // depth of the token being processed
	count int
}

func NewExpander(ns *Namespace, cfg Config) *Expander {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxExpansions <= 0 {
		cfg.MaxExpansions = DefaultMaxExpansions
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Expander{ns: ns, cfg: cfg}
}

// Namespace returns the session scope the expander defines into.
func (e *Expander) Namespace() *Namespace { return e.ns }

// Expand returns toks with every macro expanded.
func (e *Expander) Expand(toks []scanner.Token) ([]scanner.Token, error) {
	e.push(toks, 0)
	out := make([]scanner.Token, 0, len(toks))
	for {
		it, ok := e.pop()
		if !ok {
			return out, nil
		}
		e.cur = it.depth
		tok := it.tok
		if n := len(out) + len(e.stack) + 1; n > e.cfg.MaxTokens {
			return nil, &Error{Kind: ErrTooManyTokens, Name: tok.Text, Pos: tok.Pos,
				Msg: fmt.Sprintf("expansion exceeds %d tokens", e.cfg.MaxTokens)}
		}
		if !tok.IsControl() {
			out = append(out, tok)
			continue
		}
		if tok.Text == `\begin` || tok.Text == `\end` {
			expanded, err := e.expandEnvironment(tok)
			if err != nil {
				return nil, err
			}
			if !expanded {
				out = append(out, tok)
			}
			continue
		}
		if d, ok := e.ns.Macro(tok.Text); ok {
			if err := e.expandMacro(d, tok); err != nil {
				return nil, err
			}
			continue
		}
		if cmd, ok := e.ns.Command(tok.Text); ok {
			if err := cmd(e, tok); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, tok)
	}
}

func (e *Expander) push(toks []scanner.Token, depth int) {
	for i := len(toks) - 1; i >= 0; i-- {
		e.stack = append(e.stack, item{tok: toks[i], depth: depth})
	}
}

// Push places toks in front of the remaining input at the next depth.
func (e *Expander) Push(toks []scanner.Token) { e.push(toks, e.cur+1) }

func (e *Expander) pop() (item, bool) {
	if len(e.stack) == 0 {
		return item{}, false
	}
	it := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return it, true
}

func (e *Expander) peek() (scanner.Token, bool) {
	if len(e.stack) == 0 {
		return scanner.Token{}, false
	}
	return e.stack[len(e.stack)-1].tok, true
}

func (e *Expander) skipSpaces() {
	for {
		tok, ok := e.peek()
		if !ok || tok.Type != scanner.TokenSpace {
			return
		}
		e.pop()
	}
}

func (e *Expander) bump(tok scanner.Token) error {
	e.count++
	if e.count > e.cfg.MaxExpansions {
		return &Error{Kind: ErrTooManyExpansions, Name: tok.Text, Pos: tok.Pos,
			Msg: fmt.Sprintf("more than %d macro expansions", e.cfg.MaxExpansions)}
	}
	if e.cur+1 > e.cfg.MaxDepth {
		return &Error{Kind: ErrRecursion, Name: tok.Text, Pos: tok.Pos,
			Msg: fmt.Sprintf("expansion nested deeper than %d", e.cfg.MaxDepth)}
	}
	return nil
}

func (e *Expander) expandMacro(d *Definition, tok scanner.Token) error {
	if err := e.bump(tok); err != nil {
		return err
	}
	args, err := e.readArgs(tok, d.Params, d.HasDefault, d.Default)
	if err != nil {
		return err
	}
	e.Push(substitute(d.Body, args))
	return nil
}

func (e *Expander) readArgs(tok scanner.Token, params int, hasDefault bool, def []scanner.Token) ([][]scanner.Token, error) {
	args := make([][]scanner.Token, 0, params)
	for i := 0; i < params; i++ {
		if i == 0 && hasDefault {
			opt, ok, err := e.ReadOptional(tok)
			if err != nil {
				return nil, err
			}
			if !ok {
				opt = def
			}
			args = append(args, opt)
			continue
		}
		arg, err := e.ReadArgument(tok)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func substitute(body []scanner.Token, args [][]scanner.Token) []scanner.Token {
	out := make([]scanner.Token, 0, len(body))
	for i := 0; i < len(body); i++ {
		t := body[i]
		if t.Type == scanner.TokenParam && i+1 < len(body) {
			next := body[i+1]
			if next.Type == scanner.TokenParam {
				out = append(out, next)
				i++
				continue
			}
			if next.Type == scanner.TokenDigit {
				n := int(next.Text[0] - '1')
				if n >= 0 && n < len(args) {
					out = append(out, args[n]...)
				}
				i++
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// ReadArgument reads one undelimited argument: a single token or a balanced
// brace group with the outer braces removed.
func (e *Expander) ReadArgument(cs scanner.Token) ([]scanner.Token, error) {
	e.skipSpaces()
	it, ok := e.pop()
	if !ok || it.tok.Type == scanner.TokenEndGroup {
		if ok {
			e.stack = append(e.stack, it)
		}
		return nil, &Error{Kind: ErrMissingArgument, Name: cs.Text, Pos: cs.Pos,
			Msg: fmt.Sprintf("missing argument for %s", cs.Text)}
	}
	if it.tok.Type != scanner.TokenBeginGroup {
		return []scanner.Token{it.tok}, nil
	}
	var body []scanner.Token
	level := 1
	for {
		next, ok := e.pop()
		if !ok {
			return nil, &Error{Kind: ErrMissingArgument, Name: cs.Text, Pos: it.tok.Pos,
				Msg: fmt.Sprintf("unbalanced braces in argument of %s", cs.Text)}
		}
		switch next.tok.Type {
		case scanner.TokenBeginGroup:
			level++
		case scanner.TokenEndGroup:
			level--
			if level == 0 {
				return body, nil
			}
		}
		body = append(body, next.tok)
	}
}

// ReadOptional reads a bracketed argument if one follows.
func (e *Expander) ReadOptional(cs scanner.Token) ([]scanner.Token, bool, error) {
	e.skipSpaces()
	tok, ok := e.peek()
	if !ok || !tok.Is("[") {
		return nil, false, nil
	}
	open, _ := e.pop()
	var body []scanner.Token
	level := 0
	for {
		next, ok := e.pop()
		if !ok {
			return nil, false, &Error{Kind: ErrMissingArgument, Name: cs.Text, Pos: open.tok.Pos,
				Msg: fmt.Sprintf("missing ']' for optional argument of %s", cs.Text)}
		}
		switch {
		case next.tok.Type == scanner.TokenBeginGroup:
			level++
		case next.tok.Type == scanner.TokenEndGroup:
			level--
		case level == 0 && next.tok.Is("]"):
			return body, true, nil
		}
		body = append(body, next.tok)
	}
}

// ReadControlName reads the name argument of a defining command: either a
// bare control sequence or one wrapped in braces.
func (e *Expander) ReadControlName(cs scanner.Token) (scanner.Token, error) {
	arg, err := e.ReadArgument(cs)
	if err != nil {
		return scanner.Token{}, err
	}
	arg = trimSpaces(arg)
	if len(arg) != 1 || !arg[0].IsControl() {
		return scanner.Token{}, &Error{Kind: ErrBadDefinition, Name: cs.Text, Pos: cs.Pos,
			Msg: fmt.Sprintf("%s expects a control sequence name", cs.Text)}
	}
	return arg[0], nil
}

// ReadStar consumes a following '*' and reports whether it was present.
func (e *Expander) ReadStar() bool {
	tok, ok := e.peek()
	if ok && tok.Is("*") {
		e.pop()
		return true
	}
	return false
}

// ReadNumber reads an optional bracketed parameter count such as [2].
func (e *Expander) ReadNumber(cs scanner.Token) (int, bool, error) {
	opt, ok, err := e.ReadOptional(cs)
	if err != nil || !ok {
		return 0, ok, err
	}
	opt = trimSpaces(opt)
	if len(opt) != 1 || opt[0].Type != scanner.TokenDigit {
		return 0, false, &Error{Kind: ErrBadDefinition, Name: cs.Text, Pos: cs.Pos,
			Msg: "parameter count must be a single digit"}
	}
	return int(opt[0].Text[0] - '0'), true, nil
}

func (e *Expander) expandEnvironment(tok scanner.Token) (bool, error) {
	e.skipSpaces()
	next, ok := e.peek()
	if !ok || next.Type != scanner.TokenBeginGroup {
		return false, nil
	}
	saved := append([]item(nil), e.stack...)
	nameToks, err := e.ReadArgument(tok)
	if err != nil {
		return false, err
	}
	env, ok := e.ns.Environment(tokenText(nameToks))
	if !ok {
		e.stack = saved
		return false, nil
	}
	if err := e.bump(tok); err != nil {
		return false, err
	}
	if tok.Text == `\end` {
		e.Push(env.End)
		return true, nil
	}
	args, err := e.readArgs(tok, env.Params, env.HasDefault, env.Default)
	if err != nil {
		return false, err
	}
	e.Push(substitute(env.Begin, args))
	return true, nil
}

func tokenText(toks []scanner.Token) string {
	s := ""
	for _, t := range toks {
		if t.Type != scanner.TokenSpace {
			s += t.Text
		}
	}
	return s
}

func trimSpaces(toks []scanner.Token) []scanner.Token {
	for len(toks) > 0 && toks[0].Type == scanner.TokenSpace {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].Type == scanner.TokenSpace {
		toks = toks[:len(toks)-1]
	}
	return toks
}

package macro

import (
	"fmt"

	"github.com/wudi/texsvg/scanner"
)

// Definition is a parameterised replacement rule. When HasDefault is set the
// first parameter is optional and delimited by brackets.
type Definition struct {
	Name       string
	Params     int
	HasDefault bool
	Default    []scanner.Token
	Body       []scanner.Token
}

// Environment is a user environment created by \newenvironment.
type Environment struct {
	Name       string
	Params     int
	HasDefault bool
	Default    []scanner.Token
	Begin      []scanner.Token
	End        []scanner.Token
}

// Command is an expansion-time primitive such as \newcommand. It reads its own
// arguments from the expander.
type Command func(e *Expander, tok scanner.Token) error

// New compiles a macro from source text.
func New(name string, params int, body string) (*Definition, error) {
	toks, err := scanner.Tokenize(body, scanner.Config{})
	if err != nil {
		return nil, fmt.Errorf("macro %s: %w", name, err)
	}
	if err := checkParams(name, params, toks); err != nil {
		return nil, err
	}
	return &Definition{Name: name, Params: params, Body: toks}, nil
}

// NewWithDefault compiles a macro whose first argument is optional.
func NewWithDefault(name string, params int, def, body string) (*Definition, error) {
	d, err := New(name, params, body)
	if err != nil {
		return nil, err
	}
	dt, err := scanner.Tokenize(def, scanner.Config{})
	if err != nil {
		return nil, fmt.Errorf("macro %s default: %w", name, err)
	}
	d.HasDefault = true
	d.Default = dt
	return d, nil
}

// MustNew is like New but panics on error. It is meant for package tables.
func MustNew(name string, params int, body string) *Definition {
	d, err := New(name, params, body)
	if err != nil {
		panic(err)
	}
	return d
}

// MustNewWithDefault is like NewWithDefault but panics on error.
func MustNewWithDefault(name string, params int, def, body string) *Definition {
	d, err := NewWithDefault(name, params, def, body)
	if err != nil {
		panic(err)
	}
	return d
}

func checkParams(name string, params int, body []scanner.Token) error {
	if params < 0 || params > 9 {
		return &Error{Kind: ErrBadDefinition, Name: name, Msg: fmt.Sprintf("illegal parameter count %d", params)}
	}
	for i := 0; i < len(body); i++ {
		if body[i].Type != scanner.TokenParam {
			continue
		}
		if i+1 >= len(body) {
			return &Error{Kind: ErrBadDefinition, Name: name, Pos: body[i].Pos, Msg: "'#' at end of body"}
		}
		next := body[i+1]
		if next.Type == scanner.TokenParam {
			i++
			continue
		}
		if next.Type != scanner.TokenDigit {
			return &Error{Kind: ErrBadDefinition, Name: name, Pos: next.Pos, Msg: "'#' must be followed by a digit"}
		}
		if n := int(next.Text[0] - '0'); n < 1 || n > params {
			return &Error{Kind: ErrBadDefinition, Name: name, Pos: next.Pos, Msg: fmt.Sprintf("illegal parameter #%d", n)}
		}
		i++
	}
	return nil
}

type ErrorKind int

const (
	ErrMissingArgument ErrorKind = iota
	ErrRecursion
	ErrBadDefinition
	ErrTooManyExpansions
	ErrTooManyTokens
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMissingArgument:
		return "missing argument"
	case ErrRecursion:
		return "recursion too deep"
	case ErrBadDefinition:
		return "bad definition"
	case ErrTooManyExpansions:
		return "too many expansions"
	case ErrTooManyTokens:
		return "too many tokens"
	}
	return "unknown"
}

// Error reports a failure during macro expansion.
type Error struct {
	Kind ErrorKind
	Name string
	Pos  scanner.Position
	Msg  string
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Name == "" {
		return fmt.Sprintf("macro error at %s: %s", e.Pos, msg)
	}
	return fmt.Sprintf("macro error in %s at %s: %s", e.Name, e.Pos, msg)
}

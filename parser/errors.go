package parser

import (
	"fmt"

	"github.com/wudi/texsvg/scanner"
)

// SyntaxError reports a grammar violation at a source position.
type SyntaxError = scanner.SyntaxError

// UndefinedControlSequenceError is returned for a control sequence or
// environment that no enabled package defines.
type UndefinedControlSequenceError struct {
	Name string
	Pos  scanner.Position
	// Environment is set when Name is an environment name.
	Environment bool
}

func (e *UndefinedControlSequenceError) Error() string {
	if e.Environment {
		return fmt.Sprintf("undefined environment %s at %s", e.Name, e.Pos)
	}
	return fmt.Sprintf("undefined control sequence %s at %s", e.Name, e.Pos)
}

// Errorf builds a SyntaxError at pos.
func Errorf(pos scanner.Position, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

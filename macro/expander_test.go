package macro

import (
	"errors"
	"strings"
	"testing"

	"github.com/wudi/texsvg/scanner"
)

func expand(t *testing.T, tbl *Table, cfg Config, src string) (string, error) {
	t.Helper()
	toks, err := scanner.Tokenize(src, scanner.Config{})
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	out, err := NewExpander(NewNamespace(tbl), cfg).Expand(toks)
	if err != nil {
		return "", err
	}
	return scanner.Join(out), nil
}

func newcommandTable() *Table {
	b := NewBuilder()
	b.DefineCommand(`\newcommand`, NewCommand)
	b.DefineCommand(`\renewcommand`, NewCommand)
	b.DefineCommand(`\providecommand`, NewCommand)
	b.DefineCommand(`\def`, Def)
	b.DefineCommand(`\let`, Let)
	b.DefineCommand(`\newenvironment`, NewEnvironment)
	b.DefineCommand(`\DeclareMathOperator`, DeclareMathOperator)
	return b.Build()
}

func TestExpand_PackageMacro(t *testing.T) {
	b := NewBuilder()
	b.Define(MustNew(`\ket`, 1, `\left|#1\right\rangle`))
	got, err := expand(t, b.Build(), Config{}, `\ket{\psi}+\ket x`)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if want := `\left|\psi\right\rangle+\left|x\right\rangle`; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExpand_NewCommand(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"NoArgs", `\newcommand{\R}{\mathbb{R}}\R^n`, `\mathbb{R}^n`},
		{"TwoArgs", `\newcommand\pair[2]{(#1,#2)}\pair{a}{b}`, `(a,b)`},
		{"DefaultUsed", `\newcommand{\e}[2][x]{#1_#2}\e{1}`, `x_1`},
		{"DefaultOverridden", `\newcommand{\e}[2][x]{#1_#2}\e[y]{1}`, `y_1`},
		{"Renew", `\newcommand{\a}{1}\renewcommand{\a}{2}\a`, `2`},
		{"ProvideKeeps", `\newcommand{\a}{1}\providecommand{\a}{2}\a`, `1`},
		{"Def", `\def\sq#1{#1^2}\sq{y}`, `y^2`},
		{"Let", `\newcommand{\a}{A}\let\b=\a\renewcommand{\a}{Z}\b\a`, `AZ`},
		{"Operator", `\DeclareMathOperator{\sgn}{sgn}\sgn x`, `\operatorname{sgn}x`},
		{"Environment", `\newenvironment{pm}{\left(}{\right)}\begin{pm}x\end{pm}`, `\left(x\right)`},
		{"Nested", `\newcommand{\a}{\b\b}\newcommand{\b}{c}\a`, `cc`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := expand(t, newcommandTable(), Config{}, tc.src)
			if err != nil {
				t.Fatalf("Expand(%q) failed: %v", tc.src, err)
			}
			if got != tc.want {
				t.Fatalf("Expand(%q) = %q, want %q", tc.src, got, tc.want)
			}
		})
	}
}

func TestExpand_UnknownEnvironmentPassesThrough(t *testing.T) {
	got, err := expand(t, newcommandTable(), Config{}, `\begin{matrix}a\end{matrix}`)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if got != `\begin{matrix}a\end{matrix}` {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestExpand_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{"SelfReference", `\newcommand{\a}{\a}\a`, ErrRecursion},
		{"GrowingRecursion", `\def\a{x\a}\a`, ErrRecursion},
		{"MissingArgument", `\newcommand{\f}[2]{#1#2}{\f{a}}`, ErrMissingArgument},
		{"MissingArgumentAtEnd", `\newcommand{\f}[1]{#1}\f`, ErrMissingArgument},
		{"IllegalParameter", `\newcommand{\f}[1]{#2}`, ErrBadDefinition},
		{"BadName", `\newcommand{ab}{x}`, ErrBadDefinition},
		{"DelimitedDef", `\def\a#1.{#1}`, ErrBadDefinition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := expand(t, newcommandTable(), Config{}, tc.src)
			var me *Error
			if !errors.As(err, &me) {
				t.Fatalf("expected macro error, got %v", err)
			}
			if me.Kind != tc.kind {
				t.Fatalf("expected %v, got %v (%v)", tc.kind, me.Kind, err)
			}
		})
	}
}

func TestExpand_MaxExpansions(t *testing.T) {
	src := `\def\a{\b\b}\def\b{\c\c}\def\c{\d\d}\def\d{xx}\a\a\a`
	_, err := expand(t, newcommandTable(), Config{MaxExpansions: 10}, src)
	var me *Error
	if !errors.As(err, &me) || me.Kind != ErrTooManyExpansions {
		t.Fatalf("expected ErrTooManyExpansions, got %v", err)
	}
}

func TestExpand_MaxTokens(t *testing.T) {
	src := `\def\x{` + strings.Repeat("x", 500) + `}` + strings.Repeat(`\x`, 400)
	_, err := expand(t, newcommandTable(), Config{}, src)
	var me *Error
	if !errors.As(err, &me) || me.Kind != ErrTooManyTokens {
		t.Fatalf("expected ErrTooManyTokens, got %v", err)
	}

	small := `\def\x{xxxx}\x\x\x`
	if _, err := expand(t, newcommandTable(), Config{MaxTokens: 8}, small); err == nil {
		t.Fatal("expected a 12 token expansion to exceed a budget of 8")
	}
	if _, err := expand(t, newcommandTable(), Config{MaxTokens: 64}, small); err != nil {
		t.Fatalf("budget of 64: %v", err)
	}
}

func TestExpand_SessionIsolation(t *testing.T) {
	tbl := newcommandTable()
	if _, err := expand(t, tbl, Config{}, `\newcommand{\x}{y}`); err != nil {
		t.Fatalf("first session failed: %v", err)
	}
	got, err := expand(t, tbl, Config{}, `\x`)
	if err != nil {
		t.Fatalf("second session failed: %v", err)
	}
	if got != `\x` {
		t.Fatalf("definition leaked between sessions: %q", got)
	}
}

func TestBuilder_LastRegisteredWins(t *testing.T) {
	b := NewBuilder()
	b.Define(MustNew(`\x`, 0, "first"))
	b.Define(MustNew(`\x`, 0, "second"))
	got, err := expand(t, b.Build(), Config{}, `\x`)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if got != "second" {
		t.Fatalf("expected later definition to win, got %q", got)
	}
}

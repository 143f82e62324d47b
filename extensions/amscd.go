package extensions

import (
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

// cdArrowLength is the minimum length of commutative diagram arrows in em.
const cdArrowLength = 2.5

func installAMSCD(b *Builder) error {
	b.Environment("CD", commutativeDiagram)
	return nil
}

// commutativeDiagram parses \begin{CD}..\end{CD}. Rows alternate between
// objects joined by @>>> style arrows and rows of @VVV style arrows.
func commutativeDiagram(p *parser.Parser, name string, begin scanner.Token) (ir.Node, error) {
	body, err := readEnvironmentBody(p, name, begin)
	if err != nil {
		return nil, err
	}
	var cells [][]ir.Node
	for _, line := range splitRows(body) {
		row, err := cdRow(p, line)
		if err != nil {
			return nil, err
		}
		if len(row) > 0 {
			cells = append(cells, row)
		}
	}
	a := arrayOf(begin, &parser.Rows{Cells: cells, Lines: make([]bool, len(cells)+1)}, ir.AlignCenter)
	a.ColSep = 0.25
	a.RowStretch = 1.2
	return a, nil
}

// readEnvironmentBody returns the raw tokens up to the matching \end{name}.
func readEnvironmentBody(p *parser.Parser, name string, begin scanner.Token) ([]scanner.Token, error) {
	var toks []scanner.Token
	level := 0
	for {
		tok, ok := p.Next()
		if !ok {
			return nil, parser.Errorf(begin.Pos, `missing \end{%s}`, name)
		}
		switch {
		case tok.Is(`\begin`):
			level++
		case tok.Is(`\end`):
			if level == 0 {
				end, err := p.ReadString(tok)
				if err != nil {
					return nil, err
				}
				if end != name {
					return nil, parser.Errorf(tok.Pos, `\begin{%s} ended by \end{%s}`, name, end)
				}
				return toks, nil
			}
			level--
		}
		toks = append(toks, tok)
	}
}

// splitRows splits toks at top-level \\.
func splitRows(toks []scanner.Token) [][]scanner.Token {
	var rows [][]scanner.Token
	start, level := 0, 0
	for i, t := range toks {
		switch {
		case t.Type == scanner.TokenBeginGroup:
			level++
		case t.Type == scanner.TokenEndGroup:
			level--
		case level == 0 && (t.Is(`\\`) || t.Is(`\cr`)):
			rows = append(rows, toks[start:i])
			start = i + 1
		}
	}
	return append(rows, toks[start:])
}

func cdRow(p *parser.Parser, toks []scanner.Token) ([]ir.Node, error) {
	blank := true
	for _, t := range toks {
		blank = blank && t.Type == scanner.TokenSpace
	}
	if blank {
		return nil, nil
	}
	var (
		cells    []ir.Node
		obj      []scanner.Token
		vertical = isArrowRow(toks)
	)
	flushObject := func() error {
		n, err := p.ParseTokens(obj)
		if err != nil {
			return err
		}
		cells = append(cells, n)
		obj = nil
		return nil
	}
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !(t.Type == scanner.TokenOther && t.Text == "@") {
			obj = append(obj, t)
			continue
		}
		if i+1 >= len(toks) {
			return nil, parser.Errorf(t.Pos, "missing arrow after @ in CD")
		}
		i++
		kind := toks[i]
		var labels [2][]scanner.Token
		switch kind.Text {
		case ">", "<", "V", "A":
			for j := range labels {
				end := indexTopLevel(toks, i+1, kind.Text)
				if end < 0 {
					return nil, parser.Errorf(kind.Pos, "unterminated @%s arrow in CD", kind.Text)
				}
				labels[j] = toks[i+1 : end]
				i = end
			}
		case "=", "|", ".":
		default:
			return nil, parser.Errorf(kind.Pos, "illegal arrow @%s in CD", kind.Text)
		}
		arrow, err := cdArrow(p, kind, labels)
		if err != nil {
			return nil, err
		}
		if vertical {
			// Vertical arrows sit under the objects, so a blank cell
			// separates them where the row above has a horizontal arrow.
			if len(cells) > 0 {
				cells = append(cells, group(kind))
			}
			cells = append(cells, arrow)
			continue
		}
		if err := flushObject(); err != nil {
			return nil, err
		}
		cells = append(cells, arrow)
	}
	if !vertical {
		if err := flushObject(); err != nil {
			return nil, err
		}
	}
	return cells, nil
}

// isArrowRow reports whether a row holds vertical arrows only.
func isArrowRow(toks []scanner.Token) bool {
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Is("@") {
			switch toks[i+1].Text {
			case "V", "A", "|":
				return true
			case ">", "<", "=":
				return false
			}
		}
	}
	return false
}

func indexTopLevel(toks []scanner.Token, from int, text string) int {
	level := 0
	for i := from; i < len(toks); i++ {
		switch t := toks[i]; {
		case t.Type == scanner.TokenBeginGroup:
			level++
		case t.Type == scanner.TokenEndGroup:
			level--
		case level == 0 && t.Type != scanner.TokenVerbatim && t.Text == text:
			return i
		}
	}
	return -1
}

func cdArrow(p *parser.Parser, kind scanner.Token, labels [2][]scanner.Token) (ir.Node, error) {
	var nodes [2]ir.Node
	for i, l := range labels {
		if len(l) == 0 {
			continue
		}
		n, err := p.ParseTokens(l)
		if err != nil {
			return nil, err
		}
		nodes[i] = &ir.Styled{Loc: loc(kind), Body: n, Style: ir.StyleScript}
	}
	a := &ir.Arrow{Loc: loc(kind), Over: nodes[0], Under: nodes[1], MinWidth: cdArrowLength}
	switch kind.Text {
	case ">":
		a.Arrow = ir.ArrowRight
	case "<":
		a.Arrow = ir.ArrowLeft
	case "=":
		a.Arrow = ir.ArrowEqual
	case "V":
		a.Arrow = ir.ArrowDown
	case "A":
		a.Arrow = ir.ArrowUp
	case "|":
		a.Arrow = ir.ArrowVertEqual
	case ".":
		return group(kind), nil
	}
	return a, nil
}

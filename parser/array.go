package parser

import (
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/scanner"
)

// Rows is the body of an alignment environment.
type Rows struct {
	Cells [][]ir.Node
	// Lines[i] is set when an \hline precedes row i; len(Cells)+1 entries.
	Lines []bool
	Tag   ir.Node
}

// ParseRows parses cells separated by & and \\ up to and including
// \end{name}. A trailing \\ does not open an empty row.
func (p *Parser) ParseRows(name string, begin scanner.Token) (*Rows, error) {
	p.arrays++
	savedTag := p.tag
	p.tag = nil
	defer func() {
		p.arrays--
		p.tag = savedTag
	}()

	rows := &Rows{}
	lines := []bool{p.readHLines()}
	var cur []ir.Node
	for {
		cellStart := p.pos
		nodes, err := p.parseList(stopCell)
		if err != nil {
			return nil, err
		}
		tok, ok := p.Peek()
		if !ok {
			return nil, Errorf(begin.Pos, `missing \end{%s}`, name)
		}
		at := tok.Pos
		if cellStart < len(p.toks) {
			at = p.toks[cellStart].Pos
		}
		cur = append(cur, row(at, nodes))
		if len(cur) > p.cfg.MaxCols {
			return nil, Errorf(tok.Pos, "%s environment exceeds %d columns", name, p.cfg.MaxCols)
		}
		switch {
		case tok.Type == scanner.TokenAlign:
			p.pos++
		case tok.Is(`\\`), tok.Is(`\cr`):
			p.pos++
			if _, err := p.SkipRowSpacing(); err != nil {
				return nil, err
			}
			rows.Cells = append(rows.Cells, cur)
			cur = nil
			if len(rows.Cells) > p.cfg.MaxRows {
				return nil, Errorf(tok.Pos, "%s environment exceeds %d rows", name, p.cfg.MaxRows)
			}
			lines = append(lines, p.readHLines())
		case tok.Is(`\end`):
			p.pos++
			endName, err := p.ReadString(tok)
			if err != nil {
				return nil, err
			}
			if endName != name {
				return nil, Errorf(tok.Pos, `\begin{%s} ended by \end{%s}`, name, endName)
			}
			if !(len(cur) == 1 && emptyRow(cur[0]) && len(rows.Cells) > 0) {
				rows.Cells = append(rows.Cells, cur)
				lines = append(lines, false)
			}
			rows.Lines = lines
			rows.Tag = p.tag
			return rows, nil
		default:
			return nil, Errorf(tok.Pos, "unexpected %s in %s environment", tok.Text, name)
		}
	}
}

func emptyRow(n ir.Node) bool {
	r, ok := n.(*ir.Row)
	return ok && len(r.Children) == 0
}

// readHLines consumes \hline and \hdashline at the start of a row.
func (p *Parser) readHLines() bool {
	seen := false
	for {
		p.SkipSpaces()
		tok, ok := p.Peek()
		if !ok || !(tok.Is(`\hline`) || tok.Is(`\hdashline`)) {
			return seen
		}
		p.pos++
		seen = true
	}
}

// ParseColumns parses an array column specification such as "l|cr".
// The returned lines slice has one entry per column boundary.
func ParseColumns(pos scanner.Position, spec string) ([]ir.Align, []bool, error) {
	var aligns []ir.Align
	lines := []bool{false}
	for _, r := range spec {
		switch r {
		case 'l', 'c', 'r':
			aligns = append(aligns, ir.Align(r))
			lines = append(lines, false)
		case '|':
			lines[len(lines)-1] = true
		case ' ':
		default:
			return nil, nil, Errorf(pos, "illegal column specification %q", spec)
		}
	}
	return aligns, lines, nil
}

// ParseRowsFrom parses toks as the body of an alignment. Commands such as
// \matrix{..} and \substack{..} take their rows as an argument rather than
// between \begin and \end.
func (p *Parser) ParseRowsFrom(name string, cs scanner.Token, toks []scanner.Token) (*Rows, error) {
	at := cs.Pos
	if len(toks) > 0 {
		at = toks[len(toks)-1].Pos
	}
	body := make([]scanner.Token, 0, len(toks)+4)
	body = append(body, toks...)
	body = append(body,
		scanner.Token{Type: scanner.TokenControlWord, Text: `\end`, Pos: at},
		scanner.Token{Type: scanner.TokenBeginGroup, Text: "{", Pos: at},
		scanner.Token{Type: scanner.TokenLetter, Text: name, Pos: at},
		scanner.Token{Type: scanner.TokenEndGroup, Text: "}", Pos: at},
	)
	savedToks, savedPos := p.toks, p.pos
	p.toks, p.pos = body, 0
	defer func() { p.toks, p.pos = savedToks, savedPos }()
	rows, err := p.ParseRows(name, cs)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.Peek(); ok {
		return nil, p.unexpected(tok)
	}
	return rows, nil
}

// Package markdown is a goldmark extension that replaces $..$ and $$..$$
// math spans with rendered SVG.
package markdown

import (
	"bytes"
	"context"
	"strconv"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Converter renders LaTeX to an SVG document. *texsvg.Renderer satisfies
// it.
type Converter interface {
	Convert(ctx context.Context, latex string, display bool) (string, error)
}

// Math is an inline math span.
type Math struct {
	gast.BaseInline
	Display bool
	Source  string
}

// KindMath is the NodeKind of Math.
var KindMath = gast.NewNodeKind("TeXMath")

func (n *Math) Kind() gast.NodeKind { return KindMath }

func (n *Math) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Display": strconv.FormatBool(n.Display),
		"Source":  n.Source,
	}, nil)
}

type mathParser struct{}

func (mathParser) Trigger() []byte { return []byte{'$'} }

func (mathParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, _ := block.PeekLine()
	fence := 1
	if len(line) > 1 && line[1] == '$' {
		fence = 2
	}
	rest := line[fence:]
	var end int
	if fence == 2 {
		end = bytes.Index(rest, []byte("$$"))
	} else {
		end = closingDollar(rest)
	}
	if end <= 0 {
		return nil
	}
	src := rest[:end]
	// "$5 and $6" is not math: inline spans may not start or end with a space.
	if fence == 1 && (src[0] == ' ' || src[len(src)-1] == ' ') {
		return nil
	}
	block.Advance(fence + end + fence)
	return &Math{Display: fence == 2, Source: string(bytes.TrimSpace(src))}
}

// closingDollar finds the next unescaped $ in b.
func closingDollar(b []byte) int {
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '$':
			return i
		}
	}
	return -1
}

type mathRenderer struct{ conv Converter }

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMath, r.render)
}

func (r *mathRenderer) render(w util.BufWriter, source []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	m := n.(*Math)
	svg, err := r.conv.Convert(context.Background(), m.Source, m.Display)
	if err != nil {
		_, _ = w.WriteString(`<code class="texsvg-error" title="`)
		_, _ = w.Write(util.EscapeHTML([]byte(err.Error())))
		_, _ = w.WriteString(`">`)
		_, _ = w.Write(util.EscapeHTML([]byte(m.Source)))
		_, _ = w.WriteString(`</code>`)
		return gast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(svg)
	return gast.WalkSkipChildren, nil
}

type extension struct{ conv Converter }

// New returns an extension rendering math spans with conv.
func New(conv Converter) goldmark.Extender { return &extension{conv: conv} }

func (e *extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(mathParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathRenderer{conv: e.conv}, 150),
	))
}

// Convert renders a Markdown document with math to HTML.
func Convert(conv Converter, source []byte) ([]byte, error) {
	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(New(conv)))
	if err := md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

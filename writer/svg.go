package writer

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/layout"
)

type impl struct{ interceptors []Interceptor }

func (w *impl) Write(ctx Context, root *layout.Box, out io.Writer, cfg Config) error {
	if root == nil {
		root = &layout.Box{}
	}
	for _, ic := range w.interceptors {
		if err := ic.BeforeWrite(ctx, root); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("writer: %w", err)
	}

	e := &emitter{cfg: cfg, defined: make(map[string]bool)}
	if e.cfg.IDPrefix == "" {
		e.cfg.IDPrefix = "TXS"
	}
	if e.cfg.XHeight <= 0 {
		e.cfg.XHeight = DefaultXHeight
	}
	top := *root
	top.X, top.Y = 0, 0
	e.box(&top)
	doc := e.document(root)

	n, err := io.WriteString(out, doc)
	if err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	for _, ic := range w.interceptors {
		if err := ic.AfterWrite(ctx, root, int64(n)); err != nil {
			return err
		}
	}
	return nil
}

type emitter struct {
	cfg     Config
	defs    strings.Builder
	body    strings.Builder
	defined map[string]bool
}

// num formats a length in em as 1/1000 em user units.
func num(v float64) string { return fonts.FormatUnit(v * 1000) }

// ex formats a length in em as ex to three decimals.
func ex(v, xh float64) string {
	r := math.Round(v/xh*1000) / 1000
	if r == 0 {
		r = 0 // no "-0ex"
	}
	return strconv.FormatFloat(r, 'f', -1, 64) + "ex"
}

// escape makes s safe as XML character data or an attribute value.
func escape(s string) string { return html.EscapeString(xmlChars(s)) }

// xmlChars replaces invalid UTF-8 and drops runes outside the XML 1.0 Char
// production, such as C0 controls other than tab, newline and return.
func xmlChars(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r < 0x20, r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}

func attr(sb *strings.Builder, name, value string) {
	sb.WriteByte(' ')
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(escape(value))
	sb.WriteByte('"')
}

func translate(x, y float64) string {
	if x == 0 && y == 0 {
		return ""
	}
	return "translate(" + num(x) + "," + num(y) + ")"
}

func (e *emitter) document(root *layout.Box) string {
	x0, y0, x1, y1 := extent(root)
	w, h := max(x1-x0, 0.001), max(y1-y0, 0.001)
	xh := e.cfg.XHeight

	var sb strings.Builder
	sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"`)
	attr(&sb, "width", ex(w, xh))
	attr(&sb, "height", ex(h, xh))
	attr(&sb, "role", "img")
	attr(&sb, "focusable", "false")
	attr(&sb, "viewBox", num(x0)+" "+num(y0)+" "+num(w)+" "+num(h))
	if e.cfg.Display {
		attr(&sb, "style", "display: block; margin: auto")
	} else {
		attr(&sb, "style", "vertical-align: "+ex(-y1, xh))
	}
	sb.WriteByte('>')
	if e.cfg.Title != "" {
		sb.WriteString("<title>")
		sb.WriteString(escape(e.cfg.Title))
		sb.WriteString("</title>")
	}
	if e.cfg.Metadata != "" {
		sb.WriteString("<metadata>")
		sb.WriteString(xmlChars(e.cfg.Metadata))
		sb.WriteString("</metadata>")
	}
	if e.defs.Len() > 0 {
		sb.WriteString("<defs>")
		sb.WriteString(e.defs.String())
		sb.WriteString("</defs>")
	}
	sb.WriteString(`<g stroke="currentColor" fill="currentColor" stroke-width="0">`)
	sb.WriteString(e.body.String())
	sb.WriteString("</g></svg>")
	return sb.String()
}

// extent is the union of every box rectangle under root, in root
// coordinates.
func extent(root *layout.Box) (x0, y0, x1, y1 float64) {
	x1, y0, y1 = root.Width, -root.Height, root.Depth
	var visit func(b *layout.Box, ox, oy float64)
	visit = func(b *layout.Box, ox, oy float64) {
		for _, c := range b.Children {
			x, y := ox+c.X, oy+c.Y
			x0, x1 = min(x0, x), max(x1, x+c.Width)
			y0, y1 = min(y0, y-c.Height), max(y1, y+c.Depth)
			visit(c, x, y)
		}
	}
	visit(root, 0, 0)
	return x0, y0, x1, y1
}

func (e *emitter) children(b *layout.Box) {
	for _, c := range b.Children {
		e.box(c)
	}
}

func (e *emitter) box(b *layout.Box) {
	if b.Hidden {
		return
	}
	sb := &e.body
	switch {
	case b.Glyph != nil:
		e.glyph(b)
	case b.Kind == layout.KindRule:
		if b.Width <= 0 || b.Total() <= 0 {
			return
		}
		sb.WriteString("<rect")
		attr(sb, "x", num(b.X))
		attr(sb, "y", num(b.Y-b.Height))
		attr(sb, "width", num(b.Width))
		attr(sb, "height", num(b.Total()))
		e.paint(b.Color)
		sb.WriteString("/>")
	case b.Kind == layout.KindPath:
		if b.Path == "" {
			return
		}
		sb.WriteString("<path")
		attr(sb, "d", b.Path)
		if t := translate(b.X, b.Y); t != "" {
			attr(sb, "transform", t)
		}
		e.paint(b.Color)
		sb.WriteString("/>")
	case b.Kind == layout.KindSpace && len(b.Children) == 0:
	default:
		e.group(b)
	}
}

func (e *emitter) paint(color string) {
	if color == "" {
		return
	}
	attr(&e.body, "fill", color)
	attr(&e.body, "stroke", color)
}

func (e *emitter) group(b *layout.Box) {
	a := b.Attrs
	link := safeHref(a.Href)
	sb := &e.body
	if link != "" {
		sb.WriteString("<a")
		attr(sb, "href", link)
		attr(sb, "xlink:href", link)
		sb.WriteByte('>')
	}
	sb.WriteString("<g")
	if b.Node != nil {
		attr(sb, "data-mml-node", b.Kind)
	}
	if a.Package != "" {
		attr(sb, "data-package", a.Package)
	}
	if a.Class != "" {
		attr(sb, "class", a.Class)
	}
	if a.ID != "" {
		attr(sb, "id", a.ID)
	}
	if a.CSS != "" {
		attr(sb, "style", a.CSS)
	}
	if t := translate(b.X, b.Y); t != "" {
		attr(sb, "transform", t)
	}
	e.paint(b.Color)
	sb.WriteByte('>')
	if a.Title != "" {
		sb.WriteString("<title>")
		sb.WriteString(escape(a.Title))
		sb.WriteString("</title>")
	}
	e.children(b)
	sb.WriteString("</g>")
	if link != "" {
		sb.WriteString("</a>")
	}
}

func (e *emitter) glyph(b *layout.Box) {
	g := b.Glyph
	if g.Path == "" {
		return
	}
	t := translate(b.X, b.Y)
	if b.Scale != 1 {
		t = strings.TrimSpace(t + " scale(" + strconv.FormatFloat(round4(b.Scale), 'f', -1, 64) + ")")
	}
	sb := &e.body
	if !e.cfg.FontCache {
		sb.WriteString("<path")
		attr(sb, "data-c", strconv.FormatInt(int64(g.Rune), 16))
		attr(sb, "d", g.Path)
	} else {
		id := e.cfg.IDPrefix + "-" + g.Key()
		if !e.defined[id] {
			e.defined[id] = true
			e.defs.WriteString("<path")
			attr(&e.defs, "id", id)
			attr(&e.defs, "d", g.Path)
			e.defs.WriteString("/>")
		}
		sb.WriteString("<use")
		attr(sb, "data-c", strconv.FormatInt(int64(g.Rune), 16))
		attr(sb, "xlink:href", "#"+id)
	}
	if t != "" {
		attr(sb, "transform", t)
	}
	e.paint(b.Color)
	sb.WriteString("/>")
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

// safeHref drops links whose scheme could run script.
func safeHref(href string) string {
	s := strings.ToLower(strings.TrimSpace(href))
	s = strings.Map(func(r rune) rune {
		if r < ' ' {
			return -1
		}
		return r
	}, s)
	for _, bad := range []string{"javascript:", "vbscript:", "data:"} {
		if strings.HasPrefix(s, bad) {
			return ""
		}
	}
	return strings.TrimSpace(href)
}

package writer_test

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/layout"
	"github.com/wudi/texsvg/writer"
)

func wellFormed(t *testing.T, doc string) {
	t.Helper()
	d := xml.NewDecoder(strings.NewReader(doc))
	roots := 0
	depth := 0
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("malformed SVG: %v\n%s", err, doc)
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if roots != 1 {
		t.Fatalf("got %d root elements", roots)
	}
}

func boxes(t *testing.T, n ir.Node) *layout.Box {
	t.Helper()
	b, err := layout.Layout(n, layout.Config{})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return b
}

func TestWriteEmpty(t *testing.T) {
	doc, err := writer.Write(nil, writer.Config{})
	if err != nil {
		t.Fatal(err)
	}
	wellFormed(t, doc)
	if strings.Contains(doc, `viewBox="0 0 0 0"`) {
		t.Errorf("degenerate viewBox: %s", doc)
	}
}

func TestWriteEscapes(t *testing.T) {
	root := boxes(t, &ir.Styled{
		Body:  &ir.Text{Text: `a<b & "c"`},
		Class: `x" onload="alert(1)`,
		Tip:   "<tip>",
		Href:  "https://example.com/?a=1&b=2",
	})
	doc, err := writer.Write(root, writer.Config{Title: `</title><script>`, FontCache: true})
	if err != nil {
		t.Fatal(err)
	}
	wellFormed(t, doc)
	for _, bad := range []string{"<script>", `onload="`, "<tip>"} {
		if strings.Contains(doc, bad) {
			t.Errorf("unescaped %q in output", bad)
		}
	}
	if !strings.Contains(doc, "a=1&amp;b=2") {
		t.Errorf("href not escaped: %s", doc)
	}
}

func TestWriteControlCharacters(t *testing.T) {
	tests := []struct {
		name  string
		node  *ir.Styled
		title string
	}{
		{"class", &ir.Styled{Body: &ir.Atom{Text: "x"}, Class: "a\x01b"}, ""},
		{"id", &ir.Styled{Body: &ir.Atom{Text: "x"}, ID: "a\x1fb"}, ""},
		{"href", &ir.Styled{Body: &ir.Atom{Text: "x"}, Href: "https://a\x02"}, ""},
		{"tip", &ir.Styled{Body: &ir.Atom{Text: "x"}, Tip: "\x03"}, ""},
		{"title control", &ir.Styled{Body: &ir.Atom{Text: "x"}}, "x % \x01 comment"},
		{"title invalid utf8", &ir.Styled{Body: &ir.Atom{Text: "x"}}, "x % \xff\xfe"},
		{"title surrogate bytes", &ir.Styled{Body: &ir.Atom{Text: "x"}}, "\xed\xa0\x80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := writer.Write(boxes(t, tt.node), writer.Config{Title: tt.title})
			if err != nil {
				t.Fatal(err)
			}
			wellFormed(t, doc)
		})
	}
}

func TestWriteDropsScriptLinks(t *testing.T) {
	for _, href := range []string{"javascript:alert(1)", " JaVaScRiPt:x", "java\tscript:x", "data:text/html,x"} {
		root := boxes(t, &ir.Styled{Body: &ir.Atom{Text: "x"}, Href: href})
		doc, err := writer.Write(root, writer.Config{})
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(doc, "<a") {
			t.Errorf("link %q kept", href)
		}
	}
}

func TestWriteFontCache(t *testing.T) {
	root := boxes(t, &ir.Atom{Text: "xxx"})
	cached, err := writer.Write(root, writer.Config{FontCache: true})
	if err != nil {
		t.Fatal(err)
	}
	wellFormed(t, cached)
	if got := strings.Count(cached, `<path id="TXS-italic-`); got != 1 {
		t.Errorf("got %d definitions of x, want 1", got)
	}
	if got := strings.Count(cached, "<use "); got != 3 {
		t.Errorf("got %d references, want 3", got)
	}

	inline, err := writer.Write(root, writer.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(inline, "<defs>") || strings.Count(inline, "<path ") != 3 {
		t.Errorf("inlined output = %s", inline)
	}
}

func TestWriteRootAttributes(t *testing.T) {
	root := boxes(t, &ir.Row{Children: []ir.Node{&ir.Atom{Text: "y"}}})
	inline, _ := writer.Write(root, writer.Config{})
	display, _ := writer.Write(root, writer.Config{Display: true})
	if !strings.Contains(inline, `style="vertical-align: -`) {
		t.Errorf("inline style missing: %s", inline)
	}
	if !strings.Contains(display, `style="display: block; margin: auto"`) {
		t.Errorf("display style missing: %s", display)
	}
	for _, want := range []string{`role="img"`, `focusable="false"`, `xmlns="http://www.w3.org/2000/svg"`} {
		if !strings.Contains(inline, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestWriteDeterministic(t *testing.T) {
	n := &ir.Fraction{Num: &ir.Atom{Text: "1"}, Den: &ir.Atom{Text: "2"}, Thickness: -1}
	a, _ := writer.Write(boxes(t, n), writer.Config{FontCache: true})
	b, _ := writer.Write(boxes(t, n), writer.Config{FontCache: true})
	if a != b {
		t.Errorf("output differs between runs")
	}
	if !strings.Contains(a, "<rect") {
		t.Errorf("fraction bar missing: %s", a)
	}
}

type countingInterceptor struct{ before, after int }

func (c *countingInterceptor) BeforeWrite(writer.Context, *layout.Box) error {
	c.before++
	return nil
}

func (c *countingInterceptor) AfterWrite(_ writer.Context, _ *layout.Box, n int64) error {
	if n > 0 {
		c.after++
	}
	return nil
}

func TestWriterBuilder(t *testing.T) {
	ic := &countingInterceptor{}
	w := (&writer.WriterBuilder{}).WithInterceptor(ic).Build()
	var sb strings.Builder
	if err := w.Write(context.Background(), boxes(t, &ir.Atom{Text: "z"}), &sb, writer.Config{}); err != nil {
		t.Fatal(err)
	}
	if ic.before != 1 || ic.after != 1 {
		t.Errorf("interceptor calls = %+v", ic)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Write(ctx, boxes(t, &ir.Atom{Text: "z"}), io.Discard, writer.Config{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled write returned %v", err)
	}
}

// Package mathml produces MathML for LaTeX sources. The renderer embeds it
// in the SVG metadata so assistive technology can read the formula.
package mathml

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Namespace is the MathML namespace URI.
const Namespace = "http://www.w3.org/1998/Math/MathML"

// ErrNoMath is returned when the converter produced no <math> element.
var ErrNoMath = errors.New("mathml: no math element produced")

var converter = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(treeblood.MathML()))
})

// FromLaTeX converts latex to a single <math> element, serialized as XML.
func FromLaTeX(latex string, display bool) (string, error) {
	if strings.Contains(latex, "$") {
		return "", fmt.Errorf("mathml: cannot convert source containing %q", "$")
	}
	// Math spans end at blank lines; collapse line breaks.
	latex = strings.Join(strings.Fields(latex), " ")
	if latex == "" {
		return `<math xmlns="` + Namespace + `"/>`, nil
	}
	source := "$" + latex + "$"
	if display {
		source = "$$" + latex + "$$"
	}
	var buf bytes.Buffer
	if err := converter().Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("mathml: convert: %w", err)
	}
	m, err := Extract(buf.String())
	if err != nil {
		return "", err
	}
	setAttr(m, "xmlns", Namespace)
	if display {
		setAttr(m, "display", "block")
	} else {
		setAttr(m, "display", "inline")
	}
	var out bytes.Buffer
	if err := html.Render(&out, m); err != nil {
		return "", fmt.Errorf("mathml: render: %w", err)
	}
	return out.String(), nil
}

// Extract parses an HTML fragment and returns its first <math> element,
// detached from the document.
func Extract(markup string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("mathml: parse: %w", err)
	}
	m := find(doc)
	if m == nil {
		return nil, ErrNoMath
	}
	m.Parent.RemoveChild(m)
	return m, nil
}

func find(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Math || n.Data == "math") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := find(c); m != nil {
			return m
		}
	}
	return nil
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Elements lists the element names under the first <math> element of
// markup in document order, the root included.
func Elements(markup string) ([]string, error) {
	m, err := Extract(markup)
	if err != nil {
		return nil, err
	}
	var names []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			names = append(names, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(m)
	return names, nil
}

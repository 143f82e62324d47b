// Package ir defines the expression tree produced by the parser and consumed
// by layout. Nodes own their children exclusively and are not modified after
// the parser returns them.
package ir

import "github.com/wudi/texsvg/scanner"

// Node is implemented by every expression variant.
type Node interface {
	Pos() scanner.Position
	// Kind names the node for output attributes, using MathML element names
	// where one fits ("mi", "mfrac", "msubsup").
	Kind() string
}

// Loc carries the source position of the token that opened a node.
type Loc struct {
	P scanner.Position
}

func (l Loc) Pos() scanner.Position { return l.P }

// Class is the TeX atom class, which drives inter-atom spacing.
type Class int

const (
	ClassOrd Class = iota
	ClassOp
	ClassBin
	ClassRel
	ClassOpen
	ClassClose
	ClassPunct
	ClassInner
)

var classNames = [...]string{"ord", "op", "bin", "rel", "open", "close", "punct", "inner"}

func (c Class) String() string {
	if c >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return "ord"
}

// Variant selects a font face for an atom or text run.
type Variant int

const (
	// VariantDefault is math italic for single letters and upright otherwise.
	VariantDefault Variant = iota
	VariantNormal
	VariantItalic
	VariantBold
	VariantBoldItalic
	VariantSansSerif
	VariantMonospace
	VariantDoubleStruck
	VariantScript
	VariantCalligraphic
	VariantFraktur
)

var variantNames = [...]string{
	"default", "normal", "italic", "bold", "bold-italic", "sans-serif", "monospace",
	"double-struck", "script", "calligraphic", "fraktur",
}

func (v Variant) String() string {
	if v >= 0 && int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "default"
}

// Style is the TeX math style.
type Style int

const (
	StyleInherit Style = iota
	StyleDisplay
	StyleText
	StyleScript
	StyleScriptScript
)

// Limits controls where the scripts of a large operator go.
type Limits int

const (
	LimitsAuto Limits = iota // above/below in display style only
	LimitsAlways
	LimitsNever
)

// Atom is a single symbol, number, identifier or operator name.
type Atom struct {
	Loc
	Class   Class
	Text    string
	Variant Variant
	// Large marks operators drawn bigger in display style (\sum, \int).
	Large  bool
	Limits Limits
	// Number marks digit runs so the writer can tag them "mn".
	Number bool
}

func (a *Atom) Kind() string {
	switch {
	case a.Number:
		return "mn"
	case a.Class == ClassOrd:
		return "mi"
	}
	return "mo"
}

// Row is a horizontal list. Braced groups produce a Row with Group set;
// TeX treats them as a single ordinary atom for spacing.
type Row struct {
	Loc
	Children []Node
	Group    bool
	// Class is the atom class of a group (\mathrel{...}); ignored otherwise.
	Class Class
}

func (*Row) Kind() string { return "mrow" }

// Fraction covers \frac, \over, \binom and friends.
type Fraction struct {
	Loc
	Num, Den Node
	// Thickness is the bar thickness in em; negative means the default rule.
	Thickness float64
	// Open and Close are delimiters drawn around the fraction (\binom).
	Open, Close string
	Style       Style
}

func (*Fraction) Kind() string { return "mfrac" }

type Radical struct {
	Loc
	Body  Node
	Index Node // nil for a square root
}

func (r *Radical) Kind() string {
	if r.Index != nil {
		return "mroot"
	}
	return "msqrt"
}

// Scripts attaches a subscript and/or superscript to a nucleus.
type Scripts struct {
	Loc
	Nucleus Node
	Sub     Node
	Sup     Node
	Limits  Limits
}

func (s *Scripts) Kind() string {
	switch {
	case s.Sub != nil && s.Sup != nil:
		return "msubsup"
	case s.Sub != nil:
		return "msub"
	}
	return "msup"
}

// Align is the horizontal alignment of an array column.
type Align byte

const (
	AlignCenter Align = 'c'
	AlignLeft   Align = 'l'
	AlignRight  Align = 'r'
)

// Array is a matrix or alignment environment. Cells are stored row-major;
// short rows are padded by layout.
type Array struct {
	Loc
	Cells [][]Node
	Align []Align
	// ColLines[i] draws a vertical rule before column i; Cols()+1 entries.
	ColLines []bool
	// RowLines[i] draws a horizontal rule before row i; len(Cells)+1 entries.
	RowLines []bool
	// ColSep is the gap between columns in em.
	ColSep float64
	// Gaps overrides ColSep per column boundary when non-nil.
	Gaps []float64
	// RowStretch scales the baseline distance (\arraystretch).
	RowStretch float64
	Style      Style
	Open       string
	Close      string
	// Tag is the equation label of a \tag, drawn at the right edge.
	Tag Node
}

func (*Array) Kind() string { return "mtable" }

// Cols returns the widest row length.
func (a *Array) Cols() int {
	n := 0
	for _, row := range a.Cells {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Space is horizontal white space measured in em; negative values kern.
type Space struct {
	Loc
	Width float64
}

func (*Space) Kind() string { return "mspace" }

// Rule is a filled rectangle (\rule). Height and Depth are in em.
type Rule struct {
	Loc
	Width, Height, Depth float64
}

func (*Rule) Kind() string { return "mspace" }

// Styled applies presentation changes to its body. Zero values mean
// "unchanged".
type Styled struct {
	Loc
	Body       Node
	Style      Style
	Scale      float64
	Color      string
	Background string
	Border     string  // stroke color of a \bbox or \fcolorbox frame
	Padding    float64 // em
	Class      string
	ID         string
	CSS        string
	Href       string
	Tip        string
}

func (*Styled) Kind() string { return "mstyle" }

// Text is a run of text-mode characters.
type Text struct {
	Loc
	Text    string
	Variant Variant
}

func (*Text) Kind() string { return "mtext" }

// Delimited is a \left ... \right group. Middle delimiters are Delimiter
// nodes inside Body with a zero Size.
type Delimited struct {
	Loc
	Open, Close string // "." or "" for none
	Body        Node
}

func (*Delimited) Kind() string { return "mrow" }

// Delimiter is a standalone delimiter: a \big-sized one or a \middle.
type Delimiter struct {
	Loc
	Char  string
	Class Class
	// Size is the target height+depth in em; zero stretches to the
	// enclosing Delimited body.
	Size float64
}

func (*Delimiter) Kind() string { return "mo" }

// Accent places a mark over (or under) its base.
type Accent struct {
	Loc
	Base  Node
	Mark  string // accent name without backslash: "hat", "vec", "widetilde"
	Wide  bool
	Under bool
}

func (*Accent) Kind() string { return "mover" }

// Decoration is a stretchy mark drawn above or below a nucleus.
type Decoration int

const (
	DecorNone Decoration = iota
	DecorLine
	DecorBrace
	DecorArrowRight
	DecorArrowLeft
	DecorArrowBoth
)

// OverUnder stacks material over and under a nucleus: \overset, \underbrace,
// \overline and limits on operators that are not Scripts.
type OverUnder struct {
	Loc
	Nucleus    Node
	Over       Node
	Under      Node
	OverDecor  Decoration
	UnderDecor Decoration
}

func (o *OverUnder) Kind() string {
	switch {
	case o.Over != nil || o.OverDecor != DecorNone:
		if o.Under != nil || o.UnderDecor != DecorNone {
			return "munderover"
		}
		return "mover"
	}
	return "munder"
}

// ArrowKind selects the shape of an extensible arrow.
type ArrowKind int

const (
	ArrowRight ArrowKind = iota
	ArrowLeft
	ArrowLeftRight
	ArrowMapsTo
	ArrowTwoHeadRight
	ArrowTwoHeadLeft
	ArrowEqual
	ArrowToFrom
	ArrowUp
	ArrowDown
	ArrowVertEqual
)

// Arrow is an extensible arrow with optional labels, stretched to fit them.
// Vertical arrows draw Over on their left and Under on their right.
type Arrow struct {
	Loc
	Arrow ArrowKind
	Over  Node
	Under Node
	// MinWidth is the shortest length in em (amscd arrows are fixed length).
	MinWidth float64
}

func (*Arrow) Kind() string { return "mover" }

// Enclose draws notations such as boxes and strikes around a body.
type Enclose struct {
	Loc
	Body      Node
	Notations []string
	Color     string
	// Target is the value of \cancelto, drawn at the arrow head.
	Target Node
}

func (*Enclose) Kind() string { return "menclose" }

// Phantom hides or flattens its body: \phantom, \hphantom, \vphantom,
// \smash and the laps.
type Phantom struct {
	Loc
	Body       Node
	Hidden     bool
	ZeroWidth  bool
	ZeroHeight bool
	ZeroDepth  bool
	// Lap positions a zero-width body: -1 extends left, 1 right, 0 centres.
	Lap int
}

func (p *Phantom) Kind() string {
	if p.Hidden {
		return "mphantom"
	}
	return "mpadded"
}

// Extension is a node contributed by an extension package, such as a
// chemical formula. Body holds its rendering in core nodes.
type Extension struct {
	Loc
	Package string
	Name    string
	Source  string
	Body    Node
}

func (*Extension) Kind() string { return "mrow" }

// Placeholder stands in for an undefined control sequence in permissive
// mode.
type Placeholder struct {
	Loc
	Name  string
	Color string
}

func (*Placeholder) Kind() string { return "merror" }

// Break is a forced line break (\\ outside an environment).
type Break struct {
	Loc
}

func (*Break) Kind() string { return "mspace" }

// Children returns the direct children of n in layout order. Nil children
// are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	switch v := n.(type) {
	case *Row:
		for _, c := range v.Children {
			add(c)
		}
	case *Fraction:
		add(v.Num)
		add(v.Den)
	case *Radical:
		add(v.Body)
		add(v.Index)
	case *Scripts:
		add(v.Nucleus)
		add(v.Sub)
		add(v.Sup)
	case *Array:
		for _, row := range v.Cells {
			for _, c := range row {
				add(c)
			}
		}
		add(v.Tag)
	case *Styled:
		add(v.Body)
	case *Delimited:
		add(v.Body)
	case *Accent:
		add(v.Base)
	case *OverUnder:
		add(v.Nucleus)
		add(v.Over)
		add(v.Under)
	case *Arrow:
		add(v.Over)
		add(v.Under)
	case *Enclose:
		add(v.Body)
		add(v.Target)
	case *Phantom:
		add(v.Body)
	case *Extension:
		add(v.Body)
	}
	return out
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n Node) int {
	total := 0
	Walk(n, func(Node) bool { total++; return true })
	return total
}

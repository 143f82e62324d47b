package extensions

import (
	"golang.org/x/text/unicode/norm"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

var textSymbols = map[string]string{
	`\$`: "$", `\%`: "%", `\&`: "&", `\#`: "#", `\_`: "_", `\{`: "{", `\}`: "}",
	`\ `: " ", `\,`: " ", `\:`: " ", `\;`: " ", `\!`: "",
	`\quad`: " ", `\qquad`: "  ", `\enspace`: " ",
	`\textbackslash`: `\`, `\ldots`: "…", `\dots`: "…",
	`\textasciitilde`: "~", `\textasciicircum`: "^", `\i`: "ı", `\j`: "ȷ",
	`\ss`: "ß", `\ae`: "æ", `\AE`: "Æ", `\oe`: "œ", `\OE`: "Œ", `\o`: "ø", `\O`: "Ø",
	`\aa`: "å", `\AA`: "Å", `\l`: "ł", `\L`: "Ł",
}

// textAccents maps text-mode accent commands to combining marks.
var textAccents = map[string]string{
	"\\'": "́", "\\`": "̀", `\^`: "̂", `\"`: "̈", `\~`: "̃",
	`\=`: "̄", `\.`: "̇", `\u`: "̆", `\v`: "̌", `\H`: "̋",
	`\c`: "̧", `\r`: "̊",
}

func installTextmacros(b *Builder) error {
	b.Grammar().TextMacros = true
	for name, s := range textSymbols {
		b.TextSymbol(name, s)
	}
	for name, mark := range textAccents {
		b.TextCommand(name, textAccent(mark))
	}
	return nil
}

// textAccent composes the accent with the following letter, falling back
// to the combining mark when no precomposed character exists.
func textAccent(mark string) parser.Primitive {
	return func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		toks, err := p.ReadRaw(tok)
		if err != nil {
			return nil, err
		}
		base := scanner.Join(toks)
		switch base {
		case `\i`:
			base = "ı"
		case `\j`:
			base = "ȷ"
		}
		return &ir.Text{Loc: loc(tok), Text: norm.NFC.String(base + mark), Variant: p.Variant()}, nil
	}
}

var textcompSymbols = map[string]string{
	`\textdegree`: "°", `\textcelsius`: "°C", `\texteuro`: "€", `\textcopyright`: "©",
	`\textregistered`: "®", `\texttrademark`: "™", `\textpm`: "±", `\textmu`: "µ",
	`\textsection`: "§", `\textparagraph`: "¶", `\textdagger`: "†", `\textdaggerdbl`: "‡",
	`\textbullet`: "•", `\textperiodcentered`: "·", `\textellipsis`: "…",
	`\textemdash`: "—", `\textendash`: "–", `\textquoteleft`: "‘", `\textquoteright`: "’",
	`\textquotedblleft`: "“", `\textquotedblright`: "”", `\texttimes`: "×",
	`\textdiv`: "÷", `\textonehalf`: "½", `\textonequarter`: "¼",
	`\textthreequarters`: "¾", `\textcent`: "¢", `\textsterling`: "£", `\textyen`: "¥",
	`\textexclamdown`: "¡", `\textquestiondown`: "¿", `\textordfeminine`: "ª",
	`\textordmasculine`: "º", `\textlnot`: "¬", `\textbar`: "|", `\textless`: "<",
	`\textgreater`: ">",
}

// installTextcomp makes the textcomp symbols available in text and, as
// upright text, in math.
func installTextcomp(b *Builder) error {
	for name, s := range textcompSymbols {
		s := s
		b.TextSymbol(name, s)
		b.Primitive(name, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
			return &ir.Text{Loc: loc(tok), Text: s, Variant: ir.VariantNormal}, nil
		})
	}
	return nil
}

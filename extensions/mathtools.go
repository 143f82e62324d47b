package extensions

import (
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

var mathtoolsMacros = map[string]string{
	`\coloneqq`:    `\mathrel{\vcentcolon\mkern-1.2mu=}`,
	`\Coloneqq`:    `\mathrel{\vcentcolon\vcentcolon\mkern-1.2mu=}`,
	`\coloneq`:     `\mathrel{\vcentcolon\mkern-1.2mu\mathrel{-}}`,
	`\eqqcolon`:    `\mathrel{=\mkern-1.2mu\vcentcolon}`,
	`\eqcolon`:     `\mathrel{\mathrel{-}\mkern-1.2mu\vcentcolon}`,
	`\dblcolon`:    `\mathrel{\vcentcolon\vcentcolon}`,
	`\approxcolon`: `\mathrel{\approx\mkern-1.2mu\vcentcolon}`,
	`\colonapprox`: `\mathrel{\vcentcolon\mkern-1.2mu\approx}`,
}

func installMathtools(b *Builder) error {
	b.SymbolEntry(`\vcentcolon`, parser.Symbol{Text: ":", Class: ir.ClassRel, Variant: ir.VariantNormal})
	b.SymbolEntry(`\lparen`, parser.Symbol{Text: "(", Class: ir.ClassOpen})
	b.SymbolEntry(`\rparen`, parser.Symbol{Text: ")", Class: ir.ClassClose})
	b.Delimiter(`\lparen`, "(")
	b.Delimiter(`\rparen`, ")")
	for name, body := range mathtoolsMacros {
		b.Macro(name, 0, body)
	}
	b.Primitive(`\mathllap`, phantom(ir.Phantom{ZeroWidth: true, Lap: -1}))
	b.Primitive(`\mathrlap`, phantom(ir.Phantom{ZeroWidth: true, Lap: 1}))
	b.Primitive(`\mathclap`, phantom(ir.Phantom{ZeroWidth: true}))
	b.Primitive(`\clap`, phantom(ir.Phantom{ZeroWidth: true}))
	b.Primitive(`\prescript`, prescript)
	b.Primitive(`\xleftrightarrow`, extensibleArrow(ir.ArrowLeftRight))

	for name, d := range matrixDelims {
		b.Environment(name+"*", matrixEnv(d[0], d[1], ir.StyleInherit, 1))
	}
	b.Environment("dcases", casesEnv("{", "", ir.StyleDisplay))
	b.Environment("dcases*", casesEnv("{", "", ir.StyleDisplay))
	b.Environment("rcases", casesEnv("", "}", ir.StyleText))
	b.Environment("drcases", casesEnv("", "}", ir.StyleDisplay))
	return nil
}

// prescript handles \prescript{sup}{sub}{base}: scripts on the left.
func prescript(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
	var args [3]ir.Node
	for i := range args {
		n, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	pre := &ir.Scripts{Loc: loc(tok), Nucleus: group(tok), Sup: args[0], Sub: args[1]}
	return group(tok, pre, args[2]), nil
}

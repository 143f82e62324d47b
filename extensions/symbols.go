package extensions

import (
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
)

var greekLower = map[string]string{
	`\alpha`:      "α", `\beta`: "β", `\gamma`: "γ", `\delta`: "δ", `\epsilon`: "ϵ",
	`\varepsilon`: "ε", `\zeta`: "ζ", `\eta`: "η", `\theta`: "θ", `\vartheta`: "ϑ",
	`\iota`:       "ι", `\kappa`: "κ", `\lambda`: "λ", `\mu`: "μ", `\nu`: "ν", `\xi`: "ξ",
	`\omicron`:    "ο", `\pi`: "π", `\varpi`: "ϖ", `\rho`: "ρ", `\varrho`: "ϱ",
	`\sigma`:      "σ", `\varsigma`: "ς", `\tau`: "τ", `\upsilon`: "υ", `\phi`: "ϕ",
	`\varphi`:     "φ", `\chi`: "χ", `\psi`: "ψ", `\omega`: "ω",
}

var greekUpper = map[string]string{
	`\Gamma`: "Γ", `\Delta`: "Δ", `\Theta`: "Θ", `\Lambda`: "Λ", `\Xi`: "Ξ", `\Pi`: "Π",
	`\Sigma`: "Σ", `\Upsilon`: "Υ", `\Phi`: "Φ", `\Psi`: "Ψ", `\Omega`: "Ω",
}

var ordinary = map[string]string{
	`\infty`:     "∞", `\partial`: "∂", `\nabla`: "∇", `\forall`: "∀", `\exists`: "∃",
	`\emptyset`:  "∅", `\neg`: "¬", `\lnot`: "¬", `\prime`: "′", `\hbar`: "ℏ",
	`\ell`:       "ℓ", `\wp`: "℘", `\Re`: "ℜ", `\Im`: "ℑ", `\aleph`: "ℵ", `\angle`: "∠",
	`\top`:       "⊤", `\bot`: "⊥", `\triangle`: "△", `\backslash`: "\\", `\surd`: "√",
	`\flat`:      "♭", `\natural`: "♮", `\sharp`: "♯", `\clubsuit`: "♣", `\spadesuit`: "♠",
	`\heartsuit`: "♥", `\diamondsuit`: "♦", `\ldots`: "…", `\dots`: "…", `\cdots`: "⋯",
	`\vdots`:     "⋮", `\ddots`: "⋱", `\imath`: "ı", `\vert`: "|", `\|`: "‖", `\Vert`: "‖",
	`\S`:         "§", `\P`: "¶", `\#`: "#", `\$`: "$", `\%`: "%", `\&`: "&", `\_`: "_",
}

var binary = map[string]string{
	`\pm`:              "±", `\mp`: "∓", `\times`: "×", `\div`: "÷", `\cdot`: "·", `\ast`: "∗",
	`\star`:            "⋆", `\circ`: "∘", `\bullet`: "∙", `\cap`: "∩", `\cup`: "∪", `\uplus`: "⊎",
	`\sqcap`:           "⊓", `\sqcup`: "⊔", `\vee`: "∨", `\lor`: "∨", `\wedge`: "∧", `\land`: "∧",
	`\setminus`:        "∖", `\wr`: "≀", `\diamond`: "⋄", `\bigtriangleup`: "△",
	`\bigtriangledown`: "▽", `\triangleleft`: "◁", `\triangleright`: "▷", `\oplus`: "⊕",
	`\ominus`:          "⊖", `\otimes`: "⊗", `\oslash`: "⊘", `\odot`: "⊙", `\bigcirc`: "◯",
	`\dagger`:          "†", `\ddagger`: "‡", `\amalg`: "⨿",
}

var relations = map[string]string{
	`\leq`:                "≤", `\le`: "≤", `\geq`: "≥", `\ge`: "≥", `\neq`: "≠", `\ne`: "≠",
	`\equiv`:              "≡", `\approx`: "≈", `\sim`: "∼", `\simeq`: "≃", `\cong`: "≅",
	`\asymp`:              "≍", `\doteq`: "≐", `\propto`: "∝", `\prec`: "≺", `\succ`: "≻",
	`\preceq`:             "⪯", `\succeq`: "⪰", `\ll`: "≪", `\gg`: "≫", `\subset`: "⊂",
	`\supset`:             "⊃", `\subseteq`: "⊆", `\supseteq`: "⊇", `\sqsubseteq`: "⊑",
	`\sqsupseteq`:         "⊒", `\in`: "∈", `\ni`: "∋", `\owns`: "∋", `\notin`: "∉",
	`\vdash`:              "⊢", `\dashv`: "⊣", `\models`: "⊨", `\perp`: "⊥", `\mid`: "∣",
	`\parallel`:           "∥", `\smile`: "⌣", `\frown`: "⌢", `\bowtie`: "⋈", `\Join`: "⋈",
	`\to`:                 "→", `\gets`: "←", `\rightarrow`: "→", `\leftarrow`: "←",
	`\leftrightarrow`:     "↔", `\Rightarrow`: "⇒", `\Leftarrow`: "⇐",
	`\Leftrightarrow`:     "⇔", `\longrightarrow`: "⟶", `\longleftarrow`: "⟵",
	`\longleftrightarrow`: "⟷", `\Longrightarrow`: "⟹", `\Longleftarrow`: "⟸",
	`\Longleftrightarrow`: "⟺", `\mapsto`: "↦", `\longmapsto`: "⟼",
	`\hookrightarrow`:     "↪", `\hookleftarrow`: "↩", `\uparrow`: "↑", `\downarrow`: "↓",
	`\updownarrow`:        "↕", `\Uparrow`: "⇑", `\Downarrow`: "⇓", `\Updownarrow`: "⇕",
	`\nearrow`:            "↗", `\searrow`: "↘", `\swarrow`: "↙", `\nwarrow`: "↖",
	`\rightharpoonup`:     "⇀", `\rightharpoondown`: "⇁", `\leftharpoonup`: "↼",
	`\leftharpoondown`:    "↽", `\rightleftharpoons`: "⇌",
}

var largeOps = map[string]string{
	`\sum`:     "∑", `\prod`: "∏", `\coprod`: "∐", `\bigcup`: "⋃", `\bigcap`: "⋂",
	`\bigvee`:  "⋁", `\bigwedge`: "⋀", `\bigoplus`: "⨁", `\bigotimes`: "⨂",
	`\bigodot`: "⨀", `\biguplus`: "⨄", `\bigsqcup`: "⨆",
}

var integrals = map[string]string{`\int`: "∫", `\oint`: "∮"}

// Function names set upright; those in limitFunctions take limits in
// display style.
var functions = []string{
	"arccos", "arcsin", "arctan", "arg", "cos", "cosh", "cot", "coth", "csc", "deg",
	"dim", "exp", "hom", "ker", "lg", "ln", "log", "sec", "sin", "sinh", "tan", "tanh",
}

var limitFunctions = map[string]string{
	`\lim`: "lim", `\liminf`: "lim inf", `\limsup`: "lim sup", `\max`: "max", `\min`: "min",
	`\sup`: "sup", `\inf`: "inf", `\det`: "det", `\Pr`: "Pr", `\gcd`: "gcd",
}

var charClasses = map[string]parser.Symbol{
	"+":       {Text: "+", Class: ir.ClassBin},
	"-":       {Text: "−", Class: ir.ClassBin},
	"*":       {Text: "∗", Class: ir.ClassBin},
	"=":       {Text: "=", Class: ir.ClassRel},
	"<":       {Text: "<", Class: ir.ClassRel},
	">":       {Text: ">", Class: ir.ClassRel},
	":":       {Text: ":", Class: ir.ClassRel},
	",":       {Text: ",", Class: ir.ClassPunct},
	";":       {Text: ";", Class: ir.ClassPunct},
	"(":       {Text: "(", Class: ir.ClassOpen},
	")":       {Text: ")", Class: ir.ClassClose},
	"[":       {Text: "[", Class: ir.ClassOpen},
	"]":       {Text: "]", Class: ir.ClassClose},
	"!":       {Text: "!", Class: ir.ClassClose},
	"?":       {Text: "?", Class: ir.ClassClose},
	"'":       {Text: "′", Class: ir.ClassOrd},
	"/":       {Text: "/", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	"|":       {Text: "|", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	".":       {Text: ".", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	"@":       {Text: "@", Class: ir.ClassOrd, Variant: ir.VariantNormal},
	`\{`:      {Text: "{", Class: ir.ClassOpen},
	`\}`:      {Text: "}", Class: ir.ClassClose},
	`\lbrace`: {Text: "{", Class: ir.ClassOpen},
	`\rbrace`: {Text: "}", Class: ir.ClassClose},
	`\langle`: {Text: "⟨", Class: ir.ClassOpen},
	`\rangle`: {Text: "⟩", Class: ir.ClassClose},
	`\lfloor`: {Text: "⌊", Class: ir.ClassOpen},
	`\rfloor`: {Text: "⌋", Class: ir.ClassClose},
	`\lceil`:  {Text: "⌈", Class: ir.ClassOpen},
	`\rceil`:  {Text: "⌉", Class: ir.ClassClose},
	`\lbrack`: {Text: "[", Class: ir.ClassOpen},
	`\rbrack`: {Text: "]", Class: ir.ClassClose},
	`\colon`:  {Text: ":", Class: ir.ClassPunct},
	`\ldotp`:  {Text: ".", Class: ir.ClassPunct},
	`\cdotp`:  {Text: "·", Class: ir.ClassPunct},
}

var delimiters = map[string]string{
	"(":          "(", ")": ")", "[": "[", "]": "]", "|": "|", "/": "/", "<": "⟨", ">": "⟩",
	`\{`:         "{", `\}`: "}", `\lbrace`: "{", `\rbrace`: "}", `\lbrack`: "[", `\rbrack`: "]",
	`\vert`:      "|", `\|`: "‖", `\Vert`: "‖", `\langle`: "⟨", `\rangle`: "⟩",
	`\lfloor`:    "⌊", `\rfloor`: "⌋", `\lceil`: "⌈", `\rceil`: "⌉", `\backslash`: "\\",
	`\uparrow`:   "↑", `\downarrow`: "↓", `\updownarrow`: "↕", `\Uparrow`: "⇑",
	`\Downarrow`: "⇓", `\Updownarrow`: "⇕", ".": "",
}

func installSymbols(b *Builder) {
	for name, text := range greekLower {
		b.Symbol(name, text, ir.ClassOrd)
	}
	for name, text := range greekUpper {
		b.SymbolEntry(name, parser.Symbol{Text: text, Class: ir.ClassOrd, Variant: ir.VariantNormal})
	}
	for name, text := range ordinary {
		b.SymbolEntry(name, parser.Symbol{Text: text, Class: ir.ClassOrd, Variant: ir.VariantNormal})
	}
	for name, text := range binary {
		b.Symbol(name, text, ir.ClassBin)
	}
	for name, text := range relations {
		b.Symbol(name, text, ir.ClassRel)
	}
	for name, text := range largeOps {
		b.SymbolEntry(name, parser.Symbol{Text: text, Class: ir.ClassOp, Large: true, Variant: ir.VariantNormal})
	}
	for name, text := range integrals {
		b.SymbolEntry(name, parser.Symbol{Text: text, Class: ir.ClassOp, Large: true, Limits: ir.LimitsNever, Variant: ir.VariantNormal})
	}
	b.SymbolEntry(`\intop`, parser.Symbol{Text: "∫", Class: ir.ClassOp, Large: true, Variant: ir.VariantNormal})
	for _, fn := range functions {
		b.SymbolEntry(`\`+fn, parser.Symbol{Text: fn, Class: ir.ClassOp, Limits: ir.LimitsNever, Variant: ir.VariantNormal})
	}
	for name, text := range limitFunctions {
		b.SymbolEntry(name, parser.Symbol{Text: text, Class: ir.ClassOp, Variant: ir.VariantNormal})
	}
	for name, sym := range charClasses {
		b.SymbolEntry(name, sym)
	}
	for name, glyph := range delimiters {
		b.Delimiter(name, glyph)
	}
}

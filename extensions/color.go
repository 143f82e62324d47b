package extensions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/scanner"
)

// namedColors are the dvips names of the LaTeX color package. Other names
// are passed to the output unchanged, so CSS names such as "red" work too.
var namedColors = map[string]string{
	"Apricot": "#FBB982", "Aquamarine": "#00B5BE", "Bittersweet": "#C04F17",
	"Black": "#221E1F", "Blue": "#2D2F92", "BlueGreen": "#00B3B8",
	"BlueViolet": "#473992", "BrickRed": "#B6321C", "Brown": "#792500",
	"BurntOrange": "#F7921D", "CadetBlue": "#74729A", "CarnationPink": "#F282B4",
	"Cerulean": "#00A2E3", "CornflowerBlue": "#41B0E4", "Cyan": "#00AEEF",
	"Dandelion": "#FDBC42", "DarkOrchid": "#A4538A", "Emerald": "#00A99D",
	"ForestGreen": "#009B55", "Fuchsia": "#8C368C", "Goldenrod": "#FFDF42",
	"Gray": "#949698", "Green": "#00A64F", "GreenYellow": "#DFE674",
	"JungleGreen": "#00A99A", "Lavender": "#F49EC4", "LimeGreen": "#8DC73E",
	"Magenta": "#EC008C", "Mahogany": "#A9341F", "Maroon": "#AF3235",
	"Melon": "#F89E7B", "MidnightBlue": "#006795", "Mulberry": "#A93C93",
	"NavyBlue": "#006EB8", "OliveGreen": "#3C8031", "Orange": "#F58137",
	"OrangeRed": "#ED135A", "Orchid": "#AF72B0", "Peach": "#F7965A",
	"Periwinkle": "#7977B8", "PineGreen": "#008B72", "Plum": "#92268F",
	"ProcessBlue": "#00B0F0", "Purple": "#99479B", "RawSienna": "#974006",
	"Red": "#ED1B23", "RedOrange": "#F26035", "RedViolet": "#A1246B",
	"Rhodamine": "#EF559F", "RoyalBlue": "#0071BC", "RoyalPurple": "#613F99",
	"RubineRed": "#ED017D", "Salmon": "#F69289", "SeaGreen": "#3FBC9D",
	"Sepia": "#671800", "SkyBlue": "#46C5DD", "SpringGreen": "#C6DC67",
	"Tan": "#DA9D76", "TealBlue": "#00AEB3", "Thistle": "#D883B7",
	"Turquoise": "#00B4CE", "Violet": "#58429B", "VioletRed": "#EF58A0",
	"White": "#FFFFFF", "WildStrawberry": "#EE2967", "Yellow": "#FFF200",
	"YellowGreen": "#98CC70", "YellowOrange": "#FAA21A",
}

func installColor(b *Builder) error {
	for name, v := range namedColors {
		b.Color(name, v)
	}
	b.Switch(`\color`, func(p *parser.Parser, tok scanner.Token) (func(ir.Node) ir.Node, error) {
		c, err := readColor(p, tok)
		if err != nil {
			return nil, err
		}
		return func(body ir.Node) ir.Node {
			return &ir.Styled{Loc: loc(tok), Body: body, Color: c}
		}, nil
	})
	b.Primitive(`\textcolor`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		c, err := readColor(p, tok)
		if err != nil {
			return nil, err
		}
		body, err := p.ParseArgument(tok)
		if err != nil {
			return nil, err
		}
		return &ir.Styled{Loc: loc(tok), Body: body, Color: c}, nil
	})
	b.Primitive(`\colorbox`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		bg, err := readColor(p, tok)
		if err != nil {
			return nil, err
		}
		body, err := p.ParseText(tok, ir.VariantNormal)
		if err != nil {
			return nil, err
		}
		return &ir.Styled{Loc: loc(tok), Body: body, Background: bg, Padding: 0.3}, nil
	})
	b.Primitive(`\fcolorbox`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		frame, err := readColor(p, tok)
		if err != nil {
			return nil, err
		}
		bg, err := readColor(p, tok)
		if err != nil {
			return nil, err
		}
		body, err := p.ParseText(tok, ir.VariantNormal)
		if err != nil {
			return nil, err
		}
		return &ir.Styled{Loc: loc(tok), Body: body, Background: bg, Border: frame, Padding: 0.3}, nil
	})
	b.Primitive(`\definecolor`, func(p *parser.Parser, tok scanner.Token) (ir.Node, error) {
		name, err := p.ReadString(tok)
		if err != nil {
			return nil, err
		}
		model, err := p.ReadString(tok)
		if err != nil {
			return nil, err
		}
		spec, err := p.ReadString(tok)
		if err != nil {
			return nil, err
		}
		v, err := ColorValue(model, spec)
		if err != nil {
			return nil, parser.Errorf(tok.Pos, "%s: %v", tok.Text, err)
		}
		p.DefineColor(name, v)
		return nil, nil
	})
	return nil
}

// readColor reads {name} or [model]{spec}.
func readColor(p *parser.Parser, tok scanner.Token) (string, error) {
	model, hasModel, err := p.ReadOptionalString(tok)
	if err != nil {
		return "", err
	}
	spec, err := p.ReadString(tok)
	if err != nil {
		return "", err
	}
	if !hasModel {
		return p.Color(spec), nil
	}
	v, err := ColorValue(model, spec)
	if err != nil {
		return "", parser.Errorf(tok.Pos, "%s: %v", tok.Text, err)
	}
	return v, nil
}

// ColorValue converts a color in one of the xcolor models (rgb, RGB, gray,
// HTML, named) to a CSS color.
func ColorValue(model, spec string) (string, error) {
	parts := strings.Split(spec, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	floats := func(n int, limit float64) ([]float64, error) {
		if len(parts) != n {
			return nil, fmt.Errorf("%s color needs %d components, got %q", model, n, spec)
		}
		out := make([]float64, n)
		for i, s := range parts {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 || v > limit {
				return nil, fmt.Errorf("invalid %s component %q", model, s)
			}
			out[i] = v / limit
		}
		return out, nil
	}
	hex := func(v []float64) string {
		var sb strings.Builder
		sb.WriteByte('#')
		for _, c := range v {
			fmt.Fprintf(&sb, "%02X", int(c*255+0.5))
		}
		return sb.String()
	}
	switch model {
	case "rgb":
		v, err := floats(3, 1)
		if err != nil {
			return "", err
		}
		return hex(v), nil
	case "RGB":
		v, err := floats(3, 255)
		if err != nil {
			return "", err
		}
		return hex(v), nil
	case "gray":
		v, err := floats(1, 1)
		if err != nil {
			return "", err
		}
		return hex([]float64{v[0], v[0], v[0]}), nil
	case "HTML":
		if len(spec) != 6 {
			return "", fmt.Errorf("invalid HTML color %q", spec)
		}
		if _, err := strconv.ParseUint(spec, 16, 32); err != nil {
			return "", fmt.Errorf("invalid HTML color %q", spec)
		}
		return "#" + strings.ToUpper(spec), nil
	case "named":
		if v, ok := namedColors[spec]; ok {
			return v, nil
		}
		return spec, nil
	}
	return "", fmt.Errorf("unknown color model %q", model)
}

package markdown

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fake struct{ calls []string }

func (f *fake) Convert(_ context.Context, latex string, display bool) (string, error) {
	if latex == "bad" {
		return "", errors.New(`undefined <\bad>`)
	}
	mode := "inline"
	if display {
		mode = "display"
	}
	f.calls = append(f.calls, mode+":"+latex)
	return "<svg>" + mode + "</svg>", nil
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		calls []string
		want  string
	}{
		{"inline", "Euler: $e^{i\\pi}+1=0$ done", []string{`inline:e^{i\pi}+1=0`}, "<p>Euler: <svg>inline</svg> done</p>"},
		{"display", "$$\\sum_i x_i$$", []string{`display:\sum_i x_i`}, "<p><svg>display</svg></p>"},
		{"prices", "costs $5 and $6", nil, "<p>costs $5 and $6</p>"},
		{"escaped dollar", `$a\$b$`, []string{`inline:a\$b`}, "<svg>inline</svg>"},
		{"unclosed", "only $x", nil, "only $x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fake{}
			out, err := Convert(f, []byte(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(f.calls, "|") != strings.Join(tt.calls, "|") {
				t.Errorf("calls = %q, want %q", f.calls, tt.calls)
			}
			if !strings.Contains(string(out), tt.want) {
				t.Errorf("output %q lacks %q", out, tt.want)
			}
		})
	}
}

func TestConvertError(t *testing.T) {
	out, err := Convert(&fake{}, []byte("see $bad$"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `class="texsvg-error"`) || strings.Contains(s, `<\bad>`) {
		t.Errorf("error not rendered safely: %s", s)
	}
}

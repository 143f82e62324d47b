package texsvg

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/observability"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/recovery"
)

// wellFormed checks that svg parses as XML with a single <svg> root.
func wellFormed(t testing.TB, svg string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(svg))
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("malformed SVG: %v\n%s", err, svg)
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if tok.Name.Local != "svg" {
					t.Fatalf("root element is %s", tok.Name.Local)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if roots != 1 {
		t.Fatalf("%d root elements", roots)
	}
}

var viewBoxRe = regexp.MustCompile(`viewBox="([-0-9.]+) ([-0-9.]+) ([-0-9.]+) ([-0-9.]+)"`)

func viewBox(t *testing.T, svg string) (w, h float64) {
	t.Helper()
	m := viewBoxRe.FindStringSubmatch(svg)
	if m == nil {
		t.Fatalf("no viewBox in %s", svg)
	}
	w, _ = strconv.ParseFloat(m[3], 64)
	h, _ = strconv.ParseFloat(m[4], 64)
	return w, h
}

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRenderValid(t *testing.T) {
	r := newRenderer(t)
	inputs := []string{
		"",
		"x",
		`x^2 + y^2 = z^2`,
		`\frac{1}{2}`,
		`\sqrt[3]{x+1}`,
		`\sum_{i=0}^{n} i = \frac{n(n+1)}{2}`,
		`\int_0^\infty e^{-x^2}\,dx = \frac{\sqrt{\pi}}{2}`,
		`\left( \frac{a}{b} \right)`,
		`\begin{pmatrix} 1 & 0 \\ 0 & 1 \end{pmatrix}`,
		`\begin{aligned} a &= b \\ c &= d \end{aligned}`,
		`\overbrace{a+b}^{n}`,
		`\text{if } x > 0`,
		`\ce{H2O}`,
		`\color{red}{x}`,
		`\newcommand{\sq}[1]{#1^2}\sq{y}`,
		`\xrightarrow[under]{over}`,
		`\bra{\psi}`,
		`\cancel{x}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			for _, display := range []bool{true, false} {
				svg, err := r.Convert(context.Background(), in, display)
				if err != nil {
					t.Fatalf("Convert(%q, %v): %v", in, display, err)
				}
				wellFormed(t, svg)
				if w, h := viewBox(t, svg); w <= 0 || h <= 0 {
					t.Errorf("degenerate viewBox %v x %v", w, h)
				}
			}
		})
	}
}

func TestPythagoras(t *testing.T) {
	svg, err := newRenderer(t).Render(`x^2 + y^2 = z^2`)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(svg, `data-mml-node="msup"`); n != 3 {
		t.Errorf("%d script groups, want 3", n)
	}
	if n := strings.Count(svg, `data-c="3d"`); n != 1 {
		t.Errorf("%d '=' glyphs, want 1", n)
	}
	w, _ := viewBox(t, svg)
	one, err := newRenderer(t).Render(`x`)
	if err != nil {
		t.Fatal(err)
	}
	wx, _ := viewBox(t, one)
	if ratio := w / wx; ratio < 5 || ratio > 20 {
		t.Errorf("width is %.1f times a single glyph", ratio)
	}
}

func TestFractionBar(t *testing.T) {
	svg, err := newRenderer(t).Render(`\frac{1}{2}`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(svg, `data-mml-node="mfrac"`) || !strings.Contains(svg, "<rect") {
		t.Errorf("missing fraction bar: %s", svg)
	}
}

func TestInlineIsShorter(t *testing.T) {
	r := newRenderer(t)
	inline, err := r.RenderInline(`a_{i}^{j}`)
	if err != nil {
		t.Fatal(err)
	}
	display, err := r.Render(`a_{i}^{j}`)
	if err != nil {
		t.Fatal(err)
	}
	_, hi := viewBox(t, inline)
	_, hd := viewBox(t, display)
	if hi >= hd {
		t.Errorf("inline height %v not below display height %v", hi, hd)
	}
	if !strings.Contains(inline, "vertical-align") {
		t.Errorf("inline output lacks baseline alignment: %s", inline)
	}
	if !strings.Contains(display, "display: block") {
		t.Errorf("display output is not a block: %s", display)
	}
}

func TestStrictUndefined(t *testing.T) {
	_, err := newRenderer(t).Render(`\unknownmacro{x}`)
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	var undef *parser.UndefinedControlSequenceError
	if !errors.As(err, &undef) || undef.Name != `\unknownmacro` {
		t.Fatalf("expected UndefinedControlSequenceError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "texsvg: render error: ") {
		t.Errorf("message %q", err.Error())
	}
}

func TestPermissiveUndefined(t *testing.T) {
	svg, err := newRenderer(t, WithPermissive(true)).Render(`\unknownmacro{x}`)
	if err != nil {
		t.Fatalf("permissive render failed: %v", err)
	}
	wellFormed(t, svg)
	if !strings.Contains(svg, `data-mml-node="merror"`) {
		t.Errorf("no placeholder in %s", svg)
	}
}

func TestRecoveryStrategy(t *testing.T) {
	s := recovery.NewLenientStrategy()
	r := newRenderer(t, WithRecovery(s))
	if _, err := r.Render(`\foo + \baz`); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Collected()); n != 2 {
		t.Errorf("collected %d errors, want 2", n)
	}
}

func TestErrorKinds(t *testing.T) {
	r := newRenderer(t)
	t.Run("macro", func(t *testing.T) {
		_, err := r.Render(`\def\loop{\loop}\loop`)
		var merr *macro.Error
		if !errors.As(err, &merr) {
			t.Fatalf("expected macro.Error, got %v", err)
		}
	})
	t.Run("token budget", func(t *testing.T) {
		src := `\def\x{` + strings.Repeat("x", 500) + `}` + strings.Repeat(`\x`, 400)
		_, err := r.Render(src)
		var merr *macro.Error
		if !errors.As(err, &merr) || merr.Kind != macro.ErrTooManyTokens {
			t.Fatalf("expected a token budget error, got %v", err)
		}
	})
	t.Run("syntax", func(t *testing.T) {
		_, err := r.Render(`\frac{1}{2`)
		var serr *parser.SyntaxError
		if !errors.As(err, &serr) {
			t.Fatalf("expected SyntaxError, got %v", err)
		}
	})
	t.Run("metrics", func(t *testing.T) {
		_, err := r.Render("\U0001F600")
		var miss *fonts.MetricsMissingError
		if !errors.As(err, &miss) {
			t.Fatalf("expected MetricsMissingError, got %v", err)
		}
	})
	t.Run("array size", func(t *testing.T) {
		small := newRenderer(t, WithMaxArraySize(2, 2))
		if _, err := small.Render(`\begin{matrix} a & b & c \end{matrix}`); err == nil {
			t.Fatal("expected an error for a 3-column matrix")
		}
	})
}

func TestEscaping(t *testing.T) {
	r := newRenderer(t, WithTitle(true))
	svg, err := r.Render(`\text{a < b \& "c"} > d`)
	if err != nil {
		t.Fatal(err)
	}
	wellFormed(t, svg)
	if !strings.Contains(svg, "<title>") || strings.Contains(svg, `a < b`) {
		t.Errorf("title not escaped: %s", svg)
	}
}

func TestControlCharacters(t *testing.T) {
	plain := newRenderer(t)
	titled := newRenderer(t, WithTitle(true))
	tests := []struct {
		name string
		r    *Renderer
		src  string
	}{
		{"class", plain, "\\class{a\x01b}{x}"},
		{"href", plain, "\\href{a\x02}{x}"},
		{"tip", plain, "\\texttip{x}{\x03}"},
		{"title comment", titled, "x % \x01 comment"},
		{"title invalid utf8", titled, "x % \xff\xfe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg, err := tt.r.Render(tt.src)
			if err != nil {
				t.Fatalf("Render(%q): %v", tt.src, err)
			}
			wellFormed(t, svg)
		})
	}
}

func TestDeterministic(t *testing.T) {
	src := `\left[\int_0^1 \frac{x^2}{\sqrt{1-x}}\,dx\right] \ne \alpha`
	a, err := newRenderer(t).Render(src)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newRenderer(t).Render(src)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("renders differ")
	}
}

func TestFontCacheOff(t *testing.T) {
	svg, err := newRenderer(t, WithFontCache(false)).Render(`x+x`)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(svg, "<use") || strings.Contains(svg, "<defs") {
		t.Errorf("glyph references with the font cache off: %s", svg)
	}
}

func TestAssistiveMathML(t *testing.T) {
	svg, err := newRenderer(t, WithAssistiveMathML(true)).Render(`x^2`)
	if err != nil {
		t.Fatal(err)
	}
	wellFormed(t, svg)
	if !strings.Contains(svg, "<metadata><math") {
		t.Errorf("no MathML metadata: %s", svg)
	}
}

func TestCache(t *testing.T) {
	r := newRenderer(t, WithCache(8))
	a, err := r.Render(`x^2`)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Render(`x^2`)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("cached render differs")
	}
	if _, err := r.RenderInline(`x^2`); err != nil {
		t.Fatal(err)
	}
	if hits, misses := r.CacheStats(); hits != 1 || misses != 2 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestConcurrentRenders(t *testing.T) {
	r := newRenderer(t)
	want, err := r.Render(`\sum_{k=1}^n k^2`)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Render(`\sum_{k=1}^n k^2`)
			if err == nil && got != want {
				err = errors.New("concurrent render differs")
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRenderer(t).Convert(ctx, `x`, true)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

type recordingTracer struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingTracer) StartSpan(ctx context.Context, name string) (context.Context, observability.Span) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return observability.NopTracer().StartSpan(ctx, name)
}

func TestStages(t *testing.T) {
	tr := &recordingTracer{}
	if _, err := newRenderer(t, WithTracer(tr)).Render(`x`); err != nil {
		t.Fatal(err)
	}
	want := "texsvg.expand texsvg.parse texsvg.layout texsvg.write"
	if got := strings.Join(tr.names, " "); got != want {
		t.Errorf("spans = %s, want %s", got, want)
	}
}

type recordingLogger struct {
	observability.NopLogger
	mu   sync.Mutex
	keys []string
}

func (l *recordingLogger) Debug(msg string, fields ...observability.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range fields {
		l.keys = append(l.keys, f.Key())
	}
}

func (l *recordingLogger) count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, k := range l.keys {
		if k == key {
			n++
		}
	}
	return n
}

func TestCacheLogging(t *testing.T) {
	l := &recordingLogger{}
	r := newRenderer(t, WithCache(4), WithLogger(l))
	for range 3 {
		if _, err := r.Render(`y_1`); err != nil {
			t.Fatal(err)
		}
	}
	if got := l.count(observability.MetricCacheMisses); got != 1 {
		t.Errorf("logged %d cache misses, want 1", got)
	}
	if got := l.count(observability.MetricCacheHits); got != 2 {
		t.Errorf("logged %d cache hits, want 2", got)
	}

	l = &recordingLogger{}
	if _, err := newRenderer(t, WithLogger(l)).Render(`y_1`); err != nil {
		t.Fatal(err)
	}
	if got := l.count(observability.MetricCacheMisses); got != 0 {
		t.Errorf("logged %d cache misses without a cache", got)
	}
}

func TestPackageLevel(t *testing.T) {
	svg, err := Render(`a+b`)
	if err != nil {
		t.Fatal(err)
	}
	wellFormed(t, svg)
	if _, err := RenderInline(`\undefinedthing`); err == nil {
		t.Error("default renderer should be strict")
	}
}

func TestUnknownPackage(t *testing.T) {
	if _, err := New(WithPackages("nosuchpackage")); err == nil {
		t.Error("expected an error for an unknown package")
	}
}

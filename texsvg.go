// Package texsvg renders LaTeX math to self-contained SVG.
//
// A Renderer is built once with the enabled extension packages and the
// undefined-control-sequence policy, then serves any number of concurrent
// Render and RenderInline calls:
//
//	r, err := texsvg.New(texsvg.WithPackages("base", "ams"))
//	if err != nil {
//		return err
//	}
//	svg, err := r.Render(`\frac{1}{2}`)
//
// Each call runs four stages in sequence: macro expansion, parsing, layout
// and SVG emission. Any stage failure is returned as a *RenderError.
package texsvg

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wudi/texsvg/cache"
	"github.com/wudi/texsvg/extensions"
	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/ir"
	"github.com/wudi/texsvg/layout"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/mathml"
	"github.com/wudi/texsvg/observability"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/recovery"
	"github.com/wudi/texsvg/scanner"
	"github.com/wudi/texsvg/writer"
)

// RenderError wraps the failure of any render stage.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "texsvg: render error: " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer converts LaTeX to SVG. It is safe for concurrent use.
type Renderer struct {
	opts   options
	set    *extensions.Set
	fonts  *fonts.Table
	cache  *cache.Cache
	digest string
	writer writer.Writer
}

// New builds a Renderer. The font table is loaded before New returns.
func New(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	set, err := extensions.Build(o.packages...)
	if err != nil {
		return nil, err
	}
	tab := o.fonts
	if tab == nil {
		if tab, err = fonts.Default(); err != nil {
			return nil, fmt.Errorf("texsvg: load fonts: %w", err)
		}
	}
	if o.recovery == nil && o.permissive {
		o.recovery = warnStrategy{log: o.logger}
	}
	r := &Renderer{
		opts:   o,
		set:    set,
		fonts:  tab,
		cache:  cache.New(o.cacheSize),
		digest: o.digest(set.Names),
		writer: (&writer.WriterBuilder{}).Build(),
	}
	o.logger.Debug("renderer ready",
		observability.String("packages", strings.Join(set.Names, ",")),
		observability.Int("macros", set.Macros.Len()))
	return r, nil
}

// Packages returns the installed packages in installation order.
func (r *Renderer) Packages() []string { return append([]string(nil), r.set.Names...) }

// Render renders latex in display mode.
func (r *Renderer) Render(latex string) (string, error) {
	return r.Convert(context.Background(), latex, true)
}

// RenderInline renders latex in inline mode.
func (r *Renderer) RenderInline(latex string) (string, error) {
	return r.Convert(context.Background(), latex, false)
}

// Convert renders latex in display or inline mode. Cancelling ctx stops
// parsing and emission.
func (r *Renderer) Convert(ctx context.Context, latex string, display bool) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	key := cache.KeyOf(display, latex, r.digest)
	if svg, ok := r.cache.Get(key); ok {
		r.opts.logger.Debug("cache hit", observability.Int(observability.MetricCacheHits, 1))
		return svg, nil
	}
	if r.cache != nil {
		r.opts.logger.Debug("cache miss", observability.Int(observability.MetricCacheMisses, 1))
	}
	start := time.Now()
	svg, err := r.render(ctx, latex, display)
	if err != nil {
		r.opts.logger.Debug("render failed", observability.Error("error", err))
		return "", &RenderError{Err: err}
	}
	r.cache.Put(key, svg)
	r.opts.logger.Debug("rendered",
		observability.Int64(observability.MetricRenderTime, time.Since(start).Microseconds()),
		observability.Int(observability.MetricOutputBytes, len(svg)))
	return svg, nil
}

func (r *Renderer) render(ctx context.Context, latex string, display bool) (string, error) {
	var (
		toks []scanner.Token
		node ir.Node
		box  *layout.Box
		buf  bytes.Buffer
	)
	err := r.stage(ctx, "texsvg.expand", func(_ context.Context, span observability.Span) error {
		var err error
		if toks, err = scanner.Tokenize(latex, scanner.Config{MaxTokens: r.opts.maxTokens}); err != nil {
			return err
		}
		exp := macro.NewExpander(macro.NewNamespace(r.set.Macros), macro.Config{
			MaxDepth:      r.opts.maxMacroDepth,
			MaxExpansions: r.opts.maxExpansions,
			MaxTokens:     r.opts.maxTokens,
		})
		toks, err = exp.Expand(toks)
		span.SetTag(observability.MetricTokenCount, len(toks))
		return err
	})
	if err != nil {
		return "", err
	}
	err = r.stage(ctx, "texsvg.parse", func(ctx context.Context, _ observability.Span) error {
		var err error
		node, err = parser.Parse(ctx, r.set.Grammar, parser.Config{
			Recovery: r.opts.recovery,
			MaxRows:  r.opts.maxRows,
			MaxCols:  r.opts.maxCols,
		}, toks)
		return err
	})
	if err != nil {
		return "", err
	}
	err = r.stage(ctx, "texsvg.layout", func(_ context.Context, span observability.Span) error {
		var err error
		box, err = layout.Layout(node, layout.Config{
			Display:  display,
			MaxWidth: r.opts.maxWidth,
			Fonts:    r.fonts,
		})
		if err == nil {
			span.SetTag(observability.MetricGlyphCount, box.Glyphs())
		}
		return err
	})
	if err != nil {
		return "", err
	}
	cfg := writer.Config{
		Display:   display,
		FontCache: r.opts.fontCache,
		XHeight:   r.fonts.Metrics().XHeight / fonts.UnitsPerEm,
	}
	if r.opts.title {
		cfg.Title = latex
	}
	if r.opts.mathML {
		m, err := mathml.FromLaTeX(latex, display)
		if err != nil {
			r.opts.logger.Warn("assistive MathML unavailable", observability.Error("error", err))
		} else {
			cfg.Metadata = m
		}
	}
	err = r.stage(ctx, "texsvg.write", func(ctx context.Context, span observability.Span) error {
		err := r.writer.Write(ctx, box, &buf, cfg)
		span.SetTag(observability.MetricOutputBytes, buf.Len())
		return err
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) stage(ctx context.Context, name string, fn func(context.Context, observability.Span) error) error {
	ctx, span := r.opts.tracer.StartSpan(ctx, name)
	defer span.Finish()
	if err := fn(ctx, span); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

// CacheStats reports the hits and misses of the result cache.
func (r *Renderer) CacheStats() (hits, misses int64) { return r.cache.Stats() }

// warnStrategy lets parsing continue past undefined control sequences and
// logs each one.
type warnStrategy struct{ log observability.Logger }

func (w warnStrategy) OnError(_ recovery.Context, err error, loc recovery.Location) recovery.Action {
	w.log.Warn("undefined control sequence",
		observability.String("name", loc.Name),
		observability.Int("line", loc.Line),
		observability.Int("column", loc.Column))
	return recovery.ActionWarn
}

var defaultRenderer = sync.OnceValues(func() (*Renderer, error) { return New() })

// Render renders latex in display mode with the default packages.
func Render(latex string) (string, error) {
	r, err := defaultRenderer()
	if err != nil {
		return "", &RenderError{Err: err}
	}
	return r.Render(latex)
}

// RenderInline renders latex in inline mode with the default packages.
func RenderInline(latex string) (string, error) {
	r, err := defaultRenderer()
	if err != nil {
		return "", &RenderError{Err: err}
	}
	return r.RenderInline(latex)
}

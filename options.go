package texsvg

import (
	"fmt"
	"strings"

	"github.com/wudi/texsvg/extensions"
	"github.com/wudi/texsvg/fonts"
	"github.com/wudi/texsvg/macro"
	"github.com/wudi/texsvg/observability"
	"github.com/wudi/texsvg/parser"
	"github.com/wudi/texsvg/recovery"
)

// Option configures a Renderer.
type Option func(*options)

type options struct {
	packages      []string
	permissive    bool
	recovery      recovery.Strategy
	maxWidth      float64
	maxMacroDepth int
	maxExpansions int
	maxTokens     int
	maxRows       int
	maxCols       int
	fontCache     bool
	title         bool
	mathML        bool
	cacheSize     int
	logger        observability.Logger
	tracer        observability.Tracer
	fonts         *fonts.Table
}

func defaultOptions() options {
	return options{
		packages:      extensions.DefaultPackages,
		maxMacroDepth: macro.DefaultMaxDepth,
		maxExpansions: macro.DefaultMaxExpansions,
		maxTokens:     macro.DefaultMaxTokens,
		maxRows:       parser.DefaultMaxRows,
		maxCols:       parser.DefaultMaxCols,
		fontCache:     true,
		logger:        observability.NopLogger{},
		tracer:        observability.NopTracer(),
	}
}

// digest names every option that changes the output, so renderers with
// different settings never share cached documents.
func (o options) digest(packages []string) string {
	return fmt.Sprintf("%s|%t|%t|%g|%d|%d|%d|%d|%d|%t|%t|%t",
		strings.Join(packages, ","), o.permissive, o.recovery != nil, o.maxWidth,
		o.maxMacroDepth, o.maxExpansions, o.maxTokens, o.maxRows, o.maxCols,
		o.fontCache, o.title, o.mathML)
}

// WithPackages sets the enabled extension packages. "base" is always
// installed.
func WithPackages(names ...string) Option {
	return func(o *options) { o.packages = names }
}

// WithPermissive turns undefined control sequences into placeholder glyphs
// instead of errors. Each one is logged at warn level.
func WithPermissive(permissive bool) Option {
	return func(o *options) { o.permissive = permissive }
}

// WithRecovery installs a custom policy for undefined control sequences.
// It takes precedence over WithPermissive.
func WithRecovery(s recovery.Strategy) Option {
	return func(o *options) { o.recovery = s }
}

// WithMaxWidth breaks display formulas wider than em at relations and
// binary operators. Zero disables breaking.
func WithMaxWidth(em float64) Option {
	return func(o *options) { o.maxWidth = em }
}

// WithMaxMacroDepth bounds how deeply macros may expand inside each other.
func WithMaxMacroDepth(n int) Option {
	return func(o *options) { o.maxMacroDepth = n }
}

// WithMaxExpansions bounds the number of macro expansions per formula.
func WithMaxExpansions(n int) Option {
	return func(o *options) { o.maxExpansions = n }
}

// WithMaxTokens bounds the length of a formula after macro expansion.
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithMaxArraySize bounds the rows and columns of matrices and arrays.
func WithMaxArraySize(rows, cols int) Option {
	return func(o *options) {
		o.maxRows = rows
		o.maxCols = cols
	}
}

// WithFontCache shares glyph outlines through <defs>. It is on by default.
func WithFontCache(on bool) Option {
	return func(o *options) { o.fontCache = on }
}

// WithTitle puts the LaTeX source in the <title> of every document.
func WithTitle(on bool) Option {
	return func(o *options) { o.title = on }
}

// WithAssistiveMathML embeds MathML for screen readers in <metadata>.
func WithAssistiveMathML(on bool) Option {
	return func(o *options) { o.mathML = on }
}

// WithCache keeps the last size documents. Zero disables caching.
func WithCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

// WithLogger reports renders and recovered errors to l.
func WithLogger(l observability.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer opens a span on t for every render stage.
func WithTracer(t observability.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithFonts renders with t instead of the bundled table.
func WithFonts(t *fonts.Table) Option {
	return func(o *options) { o.fonts = t }
}

// Package writer serializes a laid out box tree as a standalone SVG
// document.
package writer

import (
	"context"
	"io"
	"strings"

	"github.com/wudi/texsvg/layout"
)

// DefaultXHeight is the ex size in em used when Config.XHeight is zero.
const DefaultXHeight = 0.442

type Config struct {
	// Display centres the drawing as a block; otherwise it is aligned on
	// the baseline of the surrounding text.
	Display bool
	// FontCache emits each glyph outline once in <defs> and references it
	// by id; otherwise every glyph carries its own path.
	FontCache bool
	// Title is the accessible label of the drawing; empty omits <title>.
	Title string
	// Metadata is well-formed markup placed inside <metadata>, such as the
	// MathML of the expression.
	Metadata string
	// XHeight is the size of one ex in em.
	XHeight float64
	// IDPrefix prefixes glyph ids; "TXS" when empty.
	IDPrefix string
}

// Writer serializes box trees.
type Writer interface {
	Write(ctx Context, root *layout.Box, w io.Writer, cfg Config) error
}

// Interceptor observes a serialization.
type Interceptor interface {
	BeforeWrite(ctx Context, root *layout.Box) error
	AfterWrite(ctx Context, root *layout.Box, bytesWritten int64) error
}

type WriterBuilder struct{ interceptors []Interceptor }

func (b *WriterBuilder) WithInterceptor(i Interceptor) *WriterBuilder {
	b.interceptors = append(b.interceptors, i)
	return b
}
func (b *WriterBuilder) Build() Writer { return &impl{interceptors: b.interceptors} }

type Context interface {
	Done() <-chan struct{}
	Err() error
}

// Write returns the SVG document for root.
func Write(root *layout.Box, cfg Config) (string, error) {
	var sb strings.Builder
	if err := (&impl{}).Write(context.Background(), root, &sb, cfg); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Package scripting runs JavaScript that drives the renderer, for batch
// jobs that compute their formulas.
package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a script and returns its completion value.
	Execute(ctx context.Context, script string) (any, error)

	// RegisterRenderer exposes r to scripts as the global functions
	// render(latex) and renderInline(latex).
	RegisterRenderer(r Renderer) error
}

// Renderer converts LaTeX to SVG. *texsvg.Renderer satisfies it.
type Renderer interface {
	Convert(ctx context.Context, latex string, display bool) (string, error)
}

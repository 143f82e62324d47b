package scripting

import (
	"context"
	"sync"

	"github.com/dop251/goja"
)

type GojaEngine struct {
	mu  sync.Mutex
	vm  *goja.Runtime
	ctx context.Context
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm, ctx: context.Background()}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx = ctx
	defer func() { e.ctx = context.Background() }()

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterRenderer(r Renderer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.vm.Set("render", e.renderFunc(r, true)); err != nil {
		return err
	}
	return e.vm.Set("renderInline", e.renderFunc(r, false))
}

// renderFunc throws a JavaScript error when the conversion fails, so
// scripts can catch it.
func (e *GojaEngine) renderFunc(r Renderer, display bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.vm.NewTypeError("render: missing LaTeX argument"))
		}
		svg, err := r.Convert(e.ctx, call.Arguments[0].String(), display)
		if err != nil {
			panic(e.vm.NewGoError(err))
		}
		return e.vm.ToValue(svg)
	}
}

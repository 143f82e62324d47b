package scripting

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

type upper struct{}

func (upper) Convert(_ context.Context, latex string, display bool) (string, error) {
	if latex == "bad" {
		return "", errors.New("undefined control sequence")
	}
	if display {
		return "<svg display>" + latex + "</svg>", nil
	}
	return "<svg>" + latex + "</svg>", nil
}

func TestGojaEngine_Render(t *testing.T) {
	engine := NewEngine()
	if err := engine.RegisterRenderer(upper{}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		script string
		want   any
	}{
		{`render("x^2")`, "<svg display>x^2</svg>"},
		{`renderInline("a")`, "<svg>a</svg>"},
		{`["a","b"].map(s => renderInline(s)).join("")`, "<svg>a</svg><svg>b</svg>"},
		{`try { render("bad"); "no" } catch (e) { "caught" }`, "caught"},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			got, err := engine.Execute(context.Background(), tt.script)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGojaEngine_RenderError(t *testing.T) {
	engine := NewEngine()
	if err := engine.RegisterRenderer(upper{}); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Execute(context.Background(), `render("bad")`); err == nil {
		t.Fatal("expected the conversion error to propagate")
	}
	if _, err := engine.Execute(context.Background(), `render()`); err == nil {
		t.Fatal("expected a TypeError for a missing argument")
	}
}

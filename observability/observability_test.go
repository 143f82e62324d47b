package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	l.With(String("stage", "parse")).Warn("undefined control sequence", String("name", "foo"), Int("offset", 3), Float64("em", 1.5))
	out := buf.String()
	for _, want := range []string{"level=WARN", "stage=parse", "name=foo", "offset=3", "em=1.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q lacks %q", out, want)
		}
	}
}

func TestLogTracer(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	tr := NewLogTracer(l)
	_, span := tr.StartSpan(context.Background(), "texsvg.layout")
	span.SetTag("glyphs", 12)
	span.Finish()
	if !strings.Contains(buf.String(), "span=texsvg.layout") || !strings.Contains(buf.String(), "glyphs=12") {
		t.Errorf("span log = %q", buf.String())
	}

	buf.Reset()
	_, span = tr.StartSpan(context.Background(), "texsvg.parse")
	span.SetError(errors.New("boom"))
	span.Finish()
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("failed span log = %q", buf.String())
	}
}

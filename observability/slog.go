package observability

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type slogLogger struct{ l *slog.Logger }

// NewSlogLogger adapts l to Logger. A nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key(), f.Value()))
	}
	return out
}

func (s slogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, attrs(fields)...) }
func (s slogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, attrs(fields)...) }
func (s slogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, attrs(fields)...) }
func (s slogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, attrs(fields)...) }
func (s slogLogger) With(fields ...Field) Logger       { return slogLogger{s.l.With(attrs(fields)...)} }

// NewLogTracer returns a tracer that reports every finished span to l at
// debug level with its duration and tags.
func NewLogTracer(l Logger) Tracer {
	if l == nil {
		l = NopLogger{}
	}
	return logTracer{l}
}

type logTracer struct{ l Logger }

func (t logTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &logSpan{l: t.l, name: name, start: time.Now(), tags: map[string]interface{}{}}
}

type logSpan struct {
	l     Logger
	name  string
	start time.Time

	mu   sync.Mutex
	tags map[string]interface{}
	err  error
}

func (s *logSpan) SetTag(key string, value interface{}) {
	s.mu.Lock()
	s.tags[key] = value
	s.mu.Unlock()
}

func (s *logSpan) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *logSpan) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields := []Field{String("span", s.name), Int64("duration_us", time.Since(s.start).Microseconds())}
	keys := make([]string, 0, len(s.tags))
	for k := range s.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, anyField{k, s.tags[k]})
	}
	if s.err != nil {
		fields = append(fields, Error("error", s.err))
		s.l.Warn("span failed", fields...)
		return
	}
	s.l.Debug("span finished", fields...)
}

type anyField struct {
	key string
	val interface{}
}

func (f anyField) Key() string        { return f.key }
func (f anyField) Value() interface{} { return f.val }

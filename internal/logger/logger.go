package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Options controls how the service logger is built.
type Options struct {
	Env    string
	Level  string
	Output io.Writer
}

// New builds the service logger. Deployed environments (k8s, prod, dev)
// get JSON records for aggregation; anything else gets readable text with
// highlighted errors. Every record carries trace_id/span_id when the
// context holds an OTel span.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	inK8s := os.Getenv("KUBERNETES_SERVICE_HOST") != ""
	structured := inK8s || opts.Env == "prod" || opts.Env == "dev"

	var handler slog.Handler
	if structured {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     parseLevel(opts.Level, slog.LevelInfo),
			AddSource: true,
		})
	} else {
		handler = &highlightHandler{
			next: slog.NewTextHandler(out, &slog.HandlerOptions{
				Level: parseLevel(opts.Level, slog.LevelDebug),
			}),
		}
	}
	return slog.New(&spanHandler{next: handler})
}

// ForService returns a logger tagged with the service identity.
func ForService(opts Options, service, version string) *slog.Logger {
	return New(opts).With(
		slog.String("service", service),
		slog.String("version", version),
		slog.String("environment", opts.Env),
	)
}

// Discard is a logger for tests that should stay quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// highlightHandler paints ERROR messages red on a terminal.
type highlightHandler struct {
	next slog.Handler
}

func (h *highlightHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *highlightHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelError {
		return h.next.Handle(ctx, r)
	}

	painted := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("\x1b[31m%s\x1b[0m", r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		painted.AddAttrs(a)
		return true
	})
	return h.next.Handle(ctx, painted)
}

func (h *highlightHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &highlightHandler{next: h.next.WithAttrs(attrs)}
}

func (h *highlightHandler) WithGroup(name string) slog.Handler {
	return &highlightHandler{next: h.next.WithGroup(name)}
}

// spanHandler copies the active span identity onto each record.
type spanHandler struct {
	next slog.Handler
}

func (h *spanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *spanHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanHandler{next: h.next.WithAttrs(attrs)}
}

func (h *spanHandler) WithGroup(name string) slog.Handler {
	return &spanHandler{next: h.next.WithGroup(name)}
}

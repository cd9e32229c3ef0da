package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction.
type Config struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string

	// Format is "json" or "text".
	Format string

	// AddSource includes the source file and line in each record.
	AddSource bool

	// RedactPAN masks PAN-like digit runs in messages and string
	// attribute values before emission.
	RedactPAN bool

	// Writer receives log output. Defaults to os.Stderr.
	Writer io.Writer
}

// DefaultConfig returns the logging configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		RedactPAN: true,
	}
}

// New builds a slog.Logger from the config.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	if cfg.RedactPAN {
		handler = &redactingHandler{inner: handler, redactor: NewRedactor(true)}
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactingHandler masks PAN-like values in the message and string
// attributes before delegating to the wrapped handler.
type redactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.redactor.Redact(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(h.redactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactAttr(attr)
	}
	return &redactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *redactingHandler) redactAttr(attr slog.Attr) slog.Attr {
	switch attr.Value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, h.redactor.Redact(attr.Value.String()))
	case slog.KindGroup:
		members := attr.Value.Group()
		redacted := make([]any, 0, len(members))
		for _, member := range members {
			redacted = append(redacted, h.redactAttr(member))
		}
		return slog.Group(attr.Key, redacted...)
	default:
		return attr
	}
}

package logging

import (
	"context"
	"log/slog"
	"time"
)

// Typed attribute constructors keep call sites free of raw slog imports.

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func String(key, value string) slog.Attr { return slog.String(key, value) }

// Error records err under the "error" key. A nil error is recorded as "none".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "none")
	}
	return slog.String("error", err.Error())
}

// NewNop returns a logger that drops every record.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with the component name. A nil logger yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

const defaultHint = "inspect the run log for details"

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact so the operator can tell what was lost and what to do next.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	emit(logger, slog.LevelWarn, msg, eventType, "processing continued with reduced output", attrs)
}

// ErrorWithContext logs an error carrying event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	emit(logger, slog.LevelError, msg, eventType, "", attrs)
}

func emit(logger *slog.Logger, level slog.Level, msg, eventType, impact string, attrs []slog.Attr) {
	if logger == nil {
		return
	}
	have := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		have[a.Key] = true
	}
	if !have[FieldEventType] {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !have[FieldErrorHint] {
		attrs = append(attrs, String(FieldErrorHint, defaultHint))
	}
	if impact != "" && !have[FieldImpact] {
		attrs = append(attrs, String(FieldImpact, impact))
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

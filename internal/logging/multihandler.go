package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler sends each record to every sink enabled for its level:
// stdout, the session log file and, when configured, Graylog.
type MultiHandler struct {
	sinks []slog.Handler
}

// NewMultiHandler ignores nil sinks, so optional outputs can be passed as is.
func NewMultiHandler(sinks ...slog.Handler) *MultiHandler {
	m := &MultiHandler{sinks: make([]slog.Handler, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range m.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers r to every enabled sink. A failing sink does not stop the
// others; the failures are joined into the returned error.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	out := &MultiHandler{sinks: make([]slog.Handler, len(m.sinks))}
	for i, s := range m.sinks {
		out.sinks[i] = fn(s)
	}
	return out
}

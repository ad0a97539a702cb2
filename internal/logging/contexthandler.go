package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns the attributes describing the work in progress,
// such as the run id and segment of the segment being analysed. It is called
// once per record and may return nil when nothing is running.
type ContextProvider func() []slog.Attr

// ContextHandler tags every record with the attributes of its provider.
// Attributes set on the record itself take precedence over provided ones with
// the same key.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider == nil {
		return h.inner.Handle(ctx, r)
	}
	provided := h.provider()
	if len(provided) == 0 {
		return h.inner.Handle(ctx, r)
	}

	own := make(map[string]struct{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own[a.Key] = struct{}{}
		return true
	})
	for _, a := range provided {
		if _, set := own[a.Key]; !set {
			r.AddAttrs(a)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}

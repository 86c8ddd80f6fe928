package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/luxapientia/alphacore-sub000/ledger"
)

// rotatingWriter adapts ledger.RotatingTextLog's line-oriented Write to the
// io.Writer slog.NewJSONHandler expects.
type rotatingWriter struct {
	log *ledger.RotatingTextLog
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	if err := w.log.Write(strings.TrimSuffix(string(p), "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

// fanoutHandler dispatches every log record to more than one slog.Handler,
// the way a validator operator wants both a colored terminal stream and a
// plain rotated file without running two independent loggers.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	return &fanoutHandler{handlers: handlers}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

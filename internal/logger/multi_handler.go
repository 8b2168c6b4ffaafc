package logger

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler duplicates each record to every wired sink, so the same
// entry lands on stdout and Better Stack without call sites knowing about
// either.
type MultiHandler struct {
	targets []slog.Handler
}

// NewMultiHandler builds a handler fanning out to the given targets.
// Nil targets are skipped so optional sinks can be passed unconditionally.
func NewMultiHandler(targets ...slog.Handler) *MultiHandler {
	kept := make([]slog.Handler, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &MultiHandler{targets: kept}
}

// Enabled reports whether at least one target accepts the level.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, t := range h.targets {
		if t.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every target enabled for its level.
// A failing sink does not stop delivery to the others.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, t := range h.targets {
		if !t.Enabled(ctx, r.Level) {
			continue
		}
		// Records are not safe to share between handlers.
		if err := t.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs applies the attributes to every target.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.targets))
	for i, t := range h.targets {
		next[i] = t.WithAttrs(attrs)
	}
	return &MultiHandler{targets: next}
}

// WithGroup applies the group to every target.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.targets))
	for i, t := range h.targets {
		next[i] = t.WithGroup(name)
	}
	return &MultiHandler{targets: next}
}

// Package correlation carries a per-request ID through context.Context and
// stamps it onto every slog record written with that context.
package correlation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// AttrKey is the log attribute name under which the ID is written.
const AttrKey = "correlation_id"

type contextKey struct{}

// NewID returns a fresh random (v4) UUID string.
func NewID() string {
	return uuid.NewString()
}

// Resolve returns candidate when it is a well-formed UUID, otherwise a new ID.
// Used to accept upstream request IDs without trusting arbitrary header content.
func Resolve(candidate string) string {
	if _, err := uuid.Parse(candidate); err == nil {
		return candidate
	}
	return NewID()
}

// WithID returns a new context carrying the given correlation ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID extracts the correlation ID from ctx, returning ("", false) if not present.
func ID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Handler wraps a slog.Handler and injects AttrKey when the context carries an ID.
type Handler struct {
	inner slog.Handler
}

func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ID(ctx); ok {
		r.AddAttrs(slog.String(AttrKey, id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("correlation handler: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}

package dmail

import (
	"context"
	"strings"

	"github.com/Kebolder/e6aibot/internal/e6ai"
)

// Handler processes one inbound dmail routed to it by subject.
type Handler interface {
	Name() string
	Execute(ctx context.Context, dm e6ai.Dmail) error
}

// Registry maps a lowercased subject to a handler. Static after
// construction; anything without an exact case-insensitive match routes to
// the fallback.
type Registry struct {
	handlers map[string]Handler
	fallback Handler
}

func NewRegistry(fallback Handler, handlers ...Handler) *Registry {
	m := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		m[strings.ToLower(h.Name())] = h
	}
	return &Registry{
		handlers: m,
		fallback: fallback,
	}
}

// Lookup returns the handler for a subject, or the fallback. The boolean
// reports whether the subject matched a registered command.
func (r *Registry) Lookup(subject string) (Handler, bool) {
	if h, ok := r.handlers[strings.ToLower(subject)]; ok {
		return h, true
	}
	return r.fallback, false
}

// Package eventbus is the side channel events leave the core through.
// Handlers run after the state change committed; their failures never
// reach reconciliation.
package eventbus

import (
	"context"

	"github.com/amirasaad/paylink/pkg/domain/events"
)

// HandlerFunc handles one event.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus publishes events and dispatches them to registered handlers.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType string, handler HandlerFunc)
}

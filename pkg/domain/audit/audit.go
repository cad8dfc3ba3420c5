package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a mutating admin operation.
type Action string

// Audited actions.
const (
	ActionProviderConfigCreate     Action = "provider_config.create"
	ActionProviderConfigUpdate     Action = "provider_config.update"
	ActionProviderConfigDeactivate Action = "provider_config.deactivate"
)

// EntityProviderConfig is the entity type recorded for provider config actions.
const EntityProviderConfig = "provider_config"

// Log is an append-only record of an admin action. Details never carry secrets.
type Log struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	Action     Action
	EntityType string
	EntityID   uuid.UUID
	Details    map[string]any
	CreatedAt  time.Time
}

// New stamps a log entry.
func New(actor uuid.UUID, action Action, entityType string, entityID uuid.UUID, details map[string]any) *Log {
	return &Log{
		ID:         uuid.New(),
		ActorID:    actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}

package types

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

// Actor identifies who performs a booking mutation. A nil ID means the system.
type Actor struct {
	ID   *uuid.UUID      `json:"id,omitempty"`
	Role enums.ActorRole `json:"role"`
	Name string          `json:"name,omitempty"`
}

// SystemActor is used by background jobs.
func SystemActor() Actor {
	return Actor{Role: enums.ActorRoleSystem}
}

// NewActor builds an actor for an authenticated principal.
func NewActor(id uuid.UUID, role enums.ActorRole) Actor {
	return Actor{ID: &id, Role: role}
}

// IsSystem reports whether the actor has no principal.
func (a Actor) IsSystem() bool {
	return a.ID == nil || a.Role == enums.ActorRoleSystem
}

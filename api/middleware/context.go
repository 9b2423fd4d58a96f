package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxRole      contextKey = "actor_role"
	ctxActorName contextKey = "actor_name"
)

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the authenticated principal seeded by Auth.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	id, err := uuid.Parse(ActorIDFromContext(ctx))
	if err != nil {
		return types.Actor{}, false
	}
	role, err := enums.ParseActorRole(RoleFromContext(ctx))
	if err != nil || role == enums.ActorRoleSystem {
		return types.Actor{}, false
	}
	actor := types.NewActor(id, role)
	if name, ok := ctx.Value(ctxActorName).(string); ok {
		actor.Name = name
	}
	return actor, true
}

// WithActor injects the principal into the context for downstream handlers.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if actor.ID != nil {
		ctx = context.WithValue(ctx, ctxActorID, actor.ID.String())
	}
	ctx = context.WithValue(ctx, ctxRole, string(actor.Role))
	if actor.Name != "" {
		ctx = context.WithValue(ctx, ctxActorName, actor.Name)
	}
	return ctx
}

package rbac

import "context"

// SuperAdminRoleCode is the fixed role code that bypasses the grant lookup.
const SuperAdminRoleCode = "super-admin"

// Actor is the authenticated principal attached to a request context.
type Actor struct {
	UserID     int64
	RoleIDs    []int64
	SuperAdmin bool
}

type actorKey struct{}

// WithActor attaches the actor to the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom extracts the actor from the context. Absent actor means the
// request carries no authorization context and must be denied.
func ActorFrom(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

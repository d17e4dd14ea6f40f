package shared

import "context"

// Role enumerates the actor roles the workflow cares about. Identity itself is
// established by an upstream gateway; this service only consumes it.
type Role string

const (
	RoleUser     Role = "USER"
	RoleReviewer Role = "REVIEWER"
	RoleAdmin    Role = "ADMIN"
)

// Actor identifies who is performing a request.
type Actor struct {
	ID   int64
	Role Role
}

// CanReview reports whether the actor may approve or reject submissions.
func (a Actor) CanReview() bool {
	return a.Role == RoleReviewer || a.Role == RoleAdmin
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor created the given record.
func (a Actor) Owns(createdBy int64) bool {
	return a.ID != 0 && a.ID == createdBy
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. The zero Actor is
// returned when no actor middleware ran.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}

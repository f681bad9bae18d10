package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// Actor identifies the authenticated principal behind an administrative
// operation. Authentication itself happens outside the CMS core; callers
// adapt their session/user model to this contract.
type Actor interface {
	ActorID() uuid.UUID
	IsAuthenticated() bool
	IsSuperuser() bool
}

// PermissionOracle answers capability checks such as "article:update" for a
// given actor.
type PermissionOracle interface {
	HasRole(ctx context.Context, actor Actor, capability string) bool
}

// StaticActor is a value implementation of Actor used by the CLI and tests.
type StaticActor struct {
	ID            uuid.UUID
	Authenticated bool
	Superuser     bool
}

func (a StaticActor) ActorID() uuid.UUID    { return a.ID }
func (a StaticActor) IsAuthenticated() bool { return a.Authenticated }
func (a StaticActor) IsSuperuser() bool     { return a.Superuser }

// SystemActor returns the superuser identity used for operator tooling.
func SystemActor() Actor {
	return StaticActor{ID: uuid.Nil, Authenticated: true, Superuser: true}
}

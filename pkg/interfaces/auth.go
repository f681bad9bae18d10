package interfaces

import "context"

// AuthProvider exposes the host's session layer: who is signed in on the
// request context and which capabilities they hold.
type AuthProvider interface {
	CurrentUserID(ctx context.Context) (string, error)
	HasPermission(ctx context.Context, permission string) (bool, error)
}

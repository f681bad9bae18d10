package permissions

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Policy decides whether an actor may run an administrative action against an
// entity type. Superusers may act on every type. Other authenticated actors
// may act on content types when the oracle grants "<type>:<action>". Account
// types are reserved to superusers.
type Policy struct {
	oracle interfaces.PermissionOracle
}

// NewPolicy builds a policy. A nil oracle falls back to ContextOracle.
func NewPolicy(oracle interfaces.PermissionOracle) *Policy {
	if oracle == nil {
		oracle = ContextOracle{}
	}
	return &Policy{oracle: oracle}
}

// Authorize returns nil when actor may perform action on the type.
func (p *Policy) Authorize(ctx context.Context, actor interfaces.Actor, d entities.Descriptor, action Action) error {
	if actor == nil || !actor.IsAuthenticated() {
		return domain.PermissionError("authentication required")
	}
	if actor.IsSuperuser() {
		return nil
	}
	if d.Kind == domain.KindAccount {
		return domain.PermissionError("only superusers can manage " + strings.ToLower(d.Label) + " accounts").
			WithMetadata(map[string]any{"type": d.Key, "action": string(action)})
	}
	permission := Join(d.Key, action)
	if !p.oracle.HasRole(ctx, actor, permission) {
		return denied(permission)
	}
	return nil
}

// ContextOracle resolves capabilities through the Checker stored on the
// context with WithChecker or WithPermissions. Without a checker every
// authenticated staff actor is allowed.
type ContextOracle struct{}

func (ContextOracle) HasRole(ctx context.Context, _ interfaces.Actor, capability string) bool {
	return Allowed(ctx, capability)
}

// SetOracle grants each actor a static permission Set.
type SetOracle map[string]Set

func (o SetOracle) HasRole(_ context.Context, actor interfaces.Actor, capability string) bool {
	if actor == nil {
		return false
	}
	set, ok := o[actor.ActorID().String()]
	if !ok {
		return false
	}
	return set.Allowed(capability)
}

// OracleFunc adapts a function to PermissionOracle.
type OracleFunc func(ctx context.Context, actor interfaces.Actor, capability string) bool

func (fn OracleFunc) HasRole(ctx context.Context, actor interfaces.Actor, capability string) bool {
	return fn(ctx, actor, capability)
}

// AuthOracle defers capability checks to the host session. The session user
// must be the actor being authorized.
type AuthOracle struct {
	Provider interfaces.AuthProvider
}

func (o AuthOracle) HasRole(ctx context.Context, actor interfaces.Actor, capability string) bool {
	if o.Provider == nil || actor == nil {
		return false
	}
	current, err := o.Provider.CurrentUserID(ctx)
	if err != nil || current != actor.ActorID().String() {
		return false
	}
	allowed, err := o.Provider.HasPermission(ctx, normalize(capability))
	return err == nil && allowed
}

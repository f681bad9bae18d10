package commands

import (
	"fmt"

	"github.com/goliatone/go-command/dispatcher"

	entitiescmd "github.com/goliatone/go-cms-admin/internal/commands/entities"
	maintenancecmd "github.com/goliatone/go-cms-admin/internal/commands/maintenance"
)

// GlobalDispatcher subscribes handlers to the process-wide go-command
// dispatcher so hosts can call dispatcher.Dispatch with entity messages.
type GlobalDispatcher struct{}

// RegisterCommand satisfies CommandDispatcher.
func (GlobalDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	switch h := handler.(type) {
	case *entitiescmd.ToggleEntityHandler:
		return dispatcher.SubscribeCommand[entitiescmd.ToggleEntityCommand](h), nil
	case *entitiescmd.DeleteEntityHandler:
		return dispatcher.SubscribeCommand[entitiescmd.DeleteEntityCommand](h), nil
	case *entitiescmd.BulkEntityHandler:
		return dispatcher.SubscribeCommand[entitiescmd.BulkEntityCommand](h), nil
	case *entitiescmd.ReorderEntityHandler:
		return dispatcher.SubscribeCommand[entitiescmd.ReorderEntityCommand](h), nil
	case *entitiescmd.CheckSlugHandler:
		return dispatcher.SubscribeCommand[entitiescmd.CheckSlugCommand](h), nil
	case *maintenancecmd.PruneRateLimitsHandler:
		return dispatcher.SubscribeCommand[maintenancecmd.PruneRateLimitsCommand](h), nil
	default:
		return nil, fmt.Errorf("commands: unsupported handler %T", handler)
	}
}

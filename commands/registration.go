package commands

import (
	"errors"

	command "github.com/goliatone/go-command"

	internalcommands "github.com/goliatone/go-cms-admin/internal/commands"
	entitiescmd "github.com/goliatone/go-cms-admin/internal/commands/entities"
	maintenancecmd "github.com/goliatone/go-cms-admin/internal/commands/maintenance"
	"github.com/goliatone/go-cms-admin/internal/di"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// ResultSink receives the response envelope of every entity command.
type ResultSink = entitiescmd.ResultSink

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	Results        ResultSink
	// PruneRateLimitsCron overrides Config.Commands.PruneRateLimitsCron.
	PruneRateLimitsCron string
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands builds the command handlers exposed by the container
// and optionally registers them with registry, dispatcher and cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	cfg := container.Config

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	if opts.Dispatcher == nil && cfg.Commands.AutoRegisterDispatcher {
		opts.Dispatcher = GlobalDispatcher{}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	// Entity commands.
	if service := container.Dispatcher(); service != nil {
		logger := internalcommands.CommandLogger(provider, "entities")
		timeout := cfg.Commands.Timeout
		register(entitiescmd.NewToggleEntityHandler(service, logger, opts.Results,
			internalcommands.WithTimeout[entitiescmd.ToggleEntityCommand](timeout)))
		register(entitiescmd.NewDeleteEntityHandler(service, logger, opts.Results,
			internalcommands.WithTimeout[entitiescmd.DeleteEntityCommand](timeout)))
		register(entitiescmd.NewBulkEntityHandler(service, logger, opts.Results,
			internalcommands.WithTimeout[entitiescmd.BulkEntityCommand](timeout)))
		register(entitiescmd.NewReorderEntityHandler(service, logger, opts.Results,
			internalcommands.WithTimeout[entitiescmd.ReorderEntityCommand](timeout)))
		register(entitiescmd.NewCheckSlugHandler(service, logger, opts.Results,
			internalcommands.WithTimeout[entitiescmd.CheckSlugCommand](timeout)))
	}

	// Maintenance commands.
	if pruner, ok := container.RateLimiter().(maintenancecmd.Pruner); ok {
		expression := opts.PruneRateLimitsCron
		if expression == "" {
			expression = cfg.Commands.PruneRateLimitsCron
		}
		register(maintenancecmd.NewPruneRateLimitsHandler(pruner, internalcommands.CommandLogger(provider, "maintenance"), expression))
	}

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure services are configured")
	}

	return result, errs
}

package maintenancecmd

import (
	"context"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-admin/internal/commands"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const pruneRateLimitsMessageType = "cms.ratelimit.prune"

// DefaultPruneExpression schedules bucket pruning when no cron expression is
// configured.
const DefaultPruneExpression = "@every 10m"

// Pruner drops idle rate limit state.
type Pruner interface {
	Prune() int
}

// PruneRateLimitsCommand releases token buckets of actors that went idle.
type PruneRateLimitsCommand struct{}

// Type implements command.Message.
func (PruneRateLimitsCommand) Type() string { return pruneRateLimitsMessageType }

func (PruneRateLimitsCommand) Validate() error { return nil }

// PruneRateLimitsHandler runs on demand or from a cron registrar.
type PruneRateLimitsHandler struct {
	inner      *commands.Handler[PruneRateLimitsCommand]
	cronConfig command.HandlerConfig
}

// NewPruneRateLimitsHandler binds the handler to pruner. An empty expression
// falls back to DefaultPruneExpression.
func NewPruneRateLimitsHandler(pruner Pruner, logger interfaces.Logger, expression string, opts ...commands.HandlerOption[PruneRateLimitsCommand]) *PruneRateLimitsHandler {
	logger = commands.EnsureLogger(logger)
	exec := func(ctx context.Context, _ PruneRateLimitsCommand) error {
		removed := pruner.Prune()
		logger.Debug("ratelimit.command.prune.removed", "removed", removed)
		return nil
	}

	handlerOpts := []commands.HandlerOption[PruneRateLimitsCommand]{
		commands.WithLogger[PruneRateLimitsCommand](logger),
		commands.WithOperation[PruneRateLimitsCommand]("ratelimit.prune"),
	}
	handlerOpts = append(handlerOpts, opts...)

	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = DefaultPruneExpression
	}
	return &PruneRateLimitsHandler{
		inner:      commands.NewHandler[PruneRateLimitsCommand](exec, handlerOpts...),
		cronConfig: command.HandlerConfig{Expression: expression},
	}
}

// Execute satisfies command.Commander[PruneRateLimitsCommand].
func (h *PruneRateLimitsHandler) Execute(ctx context.Context, msg PruneRateLimitsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CronHandler satisfies command.CronCommand.
func (h *PruneRateLimitsHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), PruneRateLimitsCommand{})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *PruneRateLimitsHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

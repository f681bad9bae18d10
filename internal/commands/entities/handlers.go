package entitiescmd

import (
	"context"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-admin/internal/commands"
	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// ResultSink receives the response envelope of every executed command,
// including failures. Hosts use it to render the outcome.
type ResultSink func(ctx context.Context, messageType string, result dispatch.Result)

func newInner[T command.Message](exec command.CommandFunc[T], logger interfaces.Logger, sink ResultSink, operation string, opts []commands.HandlerOption[T]) *commands.Handler[T] {
	handlerOpts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithRejected(func(ctx context.Context, msg T, err error) {
			publish(ctx, sink, msg.Type(), nil, "", err)
		}),
	}
	handlerOpts = append(handlerOpts, opts...)
	return commands.NewHandler[T](exec, handlerOpts...)
}

func publish(ctx context.Context, sink ResultSink, messageType string, value any, message string, err error) error {
	if sink != nil {
		sink(ctx, messageType, dispatch.Respond(value, message, err))
	}
	return err
}

// ToggleEntityHandler runs toggle_active through the dispatcher.
type ToggleEntityHandler struct {
	inner *commands.Handler[ToggleEntityCommand]
}

func NewToggleEntityHandler(service dispatch.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[ToggleEntityCommand]) *ToggleEntityHandler {
	exec := func(ctx context.Context, msg ToggleEntityCommand) error {
		out, err := service.ToggleActive(ctx, dispatch.ToggleRequest{
			Type:  msg.EntityType,
			ID:    msg.ID,
			Actor: commands.ActorFromContext(ctx),
		})
		return publish(ctx, sink, msg.Type(), out, out.Message, err)
	}
	return &ToggleEntityHandler{inner: newInner(exec, logger, sink, "entities.toggle", opts)}
}

// Execute satisfies command.Commander[ToggleEntityCommand].
func (h *ToggleEntityHandler) Execute(ctx context.Context, msg ToggleEntityCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeleteEntityHandler runs delete_one through the dispatcher.
type DeleteEntityHandler struct {
	inner *commands.Handler[DeleteEntityCommand]
}

func NewDeleteEntityHandler(service dispatch.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[DeleteEntityCommand]) *DeleteEntityHandler {
	exec := func(ctx context.Context, msg DeleteEntityCommand) error {
		out, err := service.Delete(ctx, dispatch.DeleteRequest{
			Type:  msg.EntityType,
			ID:    msg.ID,
			Actor: commands.ActorFromContext(ctx),
		})
		return publish(ctx, sink, msg.Type(), out, out.Message, err)
	}
	return &DeleteEntityHandler{inner: newInner(exec, logger, sink, "entities.delete", opts)}
}

func (h *DeleteEntityHandler) Execute(ctx context.Context, msg DeleteEntityCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BulkEntityHandler routes bulk actions to the matching dispatcher operation.
type BulkEntityHandler struct {
	inner *commands.Handler[BulkEntityCommand]
}

func NewBulkEntityHandler(service dispatch.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[BulkEntityCommand]) *BulkEntityHandler {
	exec := func(ctx context.Context, msg BulkEntityCommand) error {
		req := dispatch.BulkRequest{
			Type:  msg.EntityType,
			IDs:   msg.IDs,
			Actor: commands.ActorFromContext(ctx),
		}
		var (
			out dispatch.BulkOutcome
			err error
		)
		switch strings.ToLower(strings.TrimSpace(msg.Action)) {
		case BulkActionActivate:
			out, err = service.BulkSetActive(ctx, req, true)
		case BulkActionDeactivate:
			out, err = service.BulkSetActive(ctx, req, false)
		case BulkActionDelete:
			out, err = service.BulkDelete(ctx, req)
		default:
			out, err = service.BulkToggle(ctx, req)
		}
		return publish(ctx, sink, msg.Type(), out, out.Message, err)
	}
	return &BulkEntityHandler{inner: newInner(exec, logger, sink, "entities.bulk", opts)}
}

func (h *BulkEntityHandler) Execute(ctx context.Context, msg BulkEntityCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ReorderEntityHandler persists a new order through the dispatcher.
type ReorderEntityHandler struct {
	inner *commands.Handler[ReorderEntityCommand]
}

func NewReorderEntityHandler(service dispatch.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[ReorderEntityCommand]) *ReorderEntityHandler {
	exec := func(ctx context.Context, msg ReorderEntityCommand) error {
		out, err := service.Reorder(ctx, dispatch.ReorderRequest{
			Type:  msg.EntityType,
			Order: msg.Order,
			Actor: commands.ActorFromContext(ctx),
		})
		return publish(ctx, sink, msg.Type(), out, out.Message, err)
	}
	return &ReorderEntityHandler{inner: newInner(exec, logger, sink, "entities.reorder", opts)}
}

func (h *ReorderEntityHandler) Execute(ctx context.Context, msg ReorderEntityCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CheckSlugHandler reports slug availability. The answer only reaches the
// caller through the sink.
type CheckSlugHandler struct {
	inner *commands.Handler[CheckSlugCommand]
}

func NewCheckSlugHandler(service dispatch.Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[CheckSlugCommand]) *CheckSlugHandler {
	exec := func(ctx context.Context, msg CheckSlugCommand) error {
		out, err := service.CheckSlug(ctx, dispatch.SlugCheckRequest{
			Type:    msg.EntityType,
			Value:   msg.Value,
			Exclude: msg.Exclude,
			Actor:   commands.ActorFromContext(ctx),
		})
		return publish(ctx, sink, msg.Type(), out, "", err)
	}
	return &CheckSlugHandler{inner: newInner(exec, logger, sink, "entities.check_slug", opts)}
}

func (h *CheckSlugHandler) Execute(ctx context.Context, msg CheckSlugCommand) error {
	return h.inner.Execute(ctx, msg)
}

// Handlers returns every entity command handler wired to service.
func Handlers(service dispatch.Service, logger interfaces.Logger, sink ResultSink) []any {
	return []any{
		NewToggleEntityHandler(service, logger, sink),
		NewDeleteEntityHandler(service, logger, sink),
		NewBulkEntityHandler(service, logger, sink),
		NewReorderEntityHandler(service, logger, sink),
		NewCheckSlugHandler(service, logger, sink),
	}
}

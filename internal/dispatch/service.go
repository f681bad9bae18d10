package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/assets"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/internal/ordering"
	"github.com/goliatone/go-cms-admin/internal/permissions"
	"github.com/goliatone/go-cms-admin/internal/ratelimit"
	"github.com/goliatone/go-cms-admin/internal/slugs"
	"github.com/goliatone/go-cms-admin/pkg/activity"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Operation names used in logs and activity metadata.
const (
	OpToggleActive   = "toggle_active"
	OpDeleteOne      = "delete_one"
	OpBulkToggle     = "bulk_toggle"
	OpBulkActivate   = "bulk_activate"
	OpBulkDeactivate = "bulk_deactivate"
	OpBulkDelete     = "bulk_delete"
	OpReorder        = "reorder"
	OpCheckSlug      = "check_slug_unique"
)

// Service runs administrative operations against any registered entity type.
type Service interface {
	ToggleActive(ctx context.Context, req ToggleRequest) (ToggleOutcome, error)
	Delete(ctx context.Context, req DeleteRequest) (DeleteOutcome, error)
	BulkToggle(ctx context.Context, req BulkRequest) (BulkOutcome, error)
	BulkSetActive(ctx context.Context, req BulkRequest, active bool) (BulkOutcome, error)
	BulkDelete(ctx context.Context, req BulkRequest) (BulkOutcome, error)
	Reorder(ctx context.Context, req ReorderRequest) (ReorderOutcome, error)
	CheckSlug(ctx context.Context, req SlugCheckRequest) (SlugCheck, error)
}

// ServiceOption configures the dispatcher at construction time.
type ServiceOption func(*service)

// WithPolicy overrides the permission policy.
func WithPolicy(policy *permissions.Policy) ServiceOption {
	return func(s *service) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithRateLimiter sets the per-actor limiter applied to mutating operations.
func WithRateLimiter(limiter ratelimit.Limiter) ServiceOption {
	return func(s *service) {
		if limiter != nil {
			s.limiter = limiter
		}
	}
}

// WithReclaimer enables asset reclamation after deletes.
func WithReclaimer(reclaimer *assets.Reclaimer) ServiceOption {
	return func(s *service) {
		s.reclaimer = reclaimer
	}
}

func WithSlugGenerator(generator *slugs.Generator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.slugs = generator
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// CacheInvalidator drops cached reads for the given entity types.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// WithCacheInvalidator is told about every type a successful mutation
// touched.
func WithCacheInvalidator(invalidator CacheInvalidator) ServiceOption {
	return func(s *service) {
		s.cache = invalidator
	}
}

// WithActivityEmitter wires the emitter used to record successful operations.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		s.activity = emitter
	}
}

type service struct {
	registry  *entities.Registry
	store     *storage.Store
	sequencer *ordering.Sequencer
	slugs     *slugs.Generator
	policy    *permissions.Policy
	limiter   ratelimit.Limiter
	reclaimer *assets.Reclaimer
	activity  *activity.Emitter
	cache     CacheInvalidator
	logger    interfaces.Logger
}

// NewService wires the dispatcher. Without options it uses the context
// permission oracle, no rate limit and no asset reclamation.
func NewService(registry *entities.Registry, store *storage.Store, sequencer *ordering.Sequencer, opts ...ServiceOption) Service {
	s := &service{
		registry:  registry,
		store:     store,
		sequencer: sequencer,
		slugs:     slugs.NewGenerator(),
		policy:    permissions.NewPolicy(nil),
		limiter:   ratelimit.Unlimited{},
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sequencer == nil {
		s.sequencer = ordering.NewSequencer(store, ordering.WithLogger(s.logger))
	}
	return s
}

func (s *service) ToggleActive(ctx context.Context, req ToggleRequest) (ToggleOutcome, error) {
	d, err := s.admit(ctx, req.Type, req.Actor, permissions.ActionUpdate, true)
	if err != nil {
		return ToggleOutcome{}, s.fail(OpToggleActive, req.Type, req.Actor, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return ToggleOutcome{}, s.fail(OpToggleActive, d.Key, req.Actor, err)
	}

	var record entities.Record
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		changed, err := s.store.ToggleMany(ctx, tx, d, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if changed == 0 {
			return domain.NotFoundError(d.Label, id.String())
		}
		record, err = s.store.Find(ctx, tx, d, id)
		return err
	})
	if err != nil {
		return ToggleOutcome{}, s.fail(OpToggleActive, d.Key, req.Actor, err)
	}

	status := record.ActiveFlag()
	state := "inactive"
	if status {
		state = "active"
	}
	outcome := ToggleOutcome{
		ID:      id,
		Status:  status,
		Message: fmt.Sprintf("%s %q is now %s", d.Label, record.DisplayName(), state),
	}
	s.succeed(ctx, OpToggleActive, "toggle", d, req.Actor, id.String(), map[string]any{"active": status})
	return outcome, nil
}

func (s *service) Delete(ctx context.Context, req DeleteRequest) (DeleteOutcome, error) {
	d, err := s.admit(ctx, req.Type, req.Actor, permissions.ActionDelete, true)
	if err != nil {
		return DeleteOutcome{}, s.fail(OpDeleteOne, req.Type, req.Actor, err)
	}
	id, err := parseID(req.ID)
	if err != nil {
		return DeleteOutcome{}, s.fail(OpDeleteOne, d.Key, req.Actor, err)
	}

	var record entities.Record
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		found, err := s.store.Find(ctx, tx, d, id)
		if err != nil {
			return err
		}
		if err := guardAccountDelete(d, req.Actor, found); err != nil {
			return err
		}
		record = found
		return s.store.Delete(ctx, tx, d, id)
	})
	if err != nil {
		return DeleteOutcome{}, s.fail(OpDeleteOne, d.Key, req.Actor, err)
	}

	outcome := DeleteOutcome{
		ID:          id,
		DisplayName: record.DisplayName(),
		Message:     fmt.Sprintf("%s %q deleted", d.Label, record.DisplayName()),
	}
	if s.reclaimer != nil {
		report, err := s.reclaimer.ReclaimDeleted(ctx, d, record)
		outcome.Assets = report
		if err != nil {
			s.logger.Warn("dispatch.delete_one.reclaim_failed", "type", d.Key, "id", id, "error", err)
		}
	}
	s.succeed(ctx, OpDeleteOne, "delete", d, req.Actor, id.String(), map[string]any{
		"display_name":   outcome.DisplayName,
		"assets_deleted": len(outcome.Assets.Deleted),
	})
	return outcome, nil
}

func (s *service) BulkToggle(ctx context.Context, req BulkRequest) (BulkOutcome, error) {
	d, ids, err := s.admitBulk(ctx, req, permissions.ActionUpdate)
	if err != nil {
		return BulkOutcome{}, s.fail(OpBulkToggle, req.Type, req.Actor, err)
	}

	var count int64
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		changed, err := s.store.ToggleMany(ctx, tx, d, ids)
		count = changed
		return err
	})
	if err != nil {
		return BulkOutcome{}, s.fail(OpBulkToggle, d.Key, req.Actor, err)
	}

	s.succeed(ctx, OpBulkToggle, "bulk_toggle", d, req.Actor, "", map[string]any{"count": count})
	return BulkOutcome{Count: count, Message: fmt.Sprintf("%s toggled", countOf(d, count))}, nil
}

func (s *service) BulkSetActive(ctx context.Context, req BulkRequest, active bool) (BulkOutcome, error) {
	op, verb, past := OpBulkDeactivate, "bulk_deactivate", "deactivated"
	if active {
		op, verb, past = OpBulkActivate, "bulk_activate", "activated"
	}
	d, ids, err := s.admitBulk(ctx, req, permissions.ActionUpdate)
	if err != nil {
		return BulkOutcome{}, s.fail(op, req.Type, req.Actor, err)
	}

	var count int64
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		changed, err := s.store.SetActiveMany(ctx, tx, d, ids, active)
		count = changed
		return err
	})
	if err != nil {
		return BulkOutcome{}, s.fail(op, d.Key, req.Actor, err)
	}

	s.succeed(ctx, op, verb, d, req.Actor, "", map[string]any{"count": count})
	return BulkOutcome{Count: count, Message: fmt.Sprintf("%s %s", countOf(d, count), past)}, nil
}

func (s *service) BulkDelete(ctx context.Context, req BulkRequest) (BulkOutcome, error) {
	d, ids, err := s.admitBulk(ctx, req, permissions.ActionDelete)
	if err != nil {
		return BulkOutcome{}, s.fail(OpBulkDelete, req.Type, req.Actor, err)
	}

	var (
		records []entities.Record
		count   int64
	)
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		found, err := s.store.FindMany(ctx, tx, d, ids)
		if err != nil {
			return err
		}
		for _, record := range found {
			if err := guardAccountDelete(d, req.Actor, record); err != nil {
				return err
			}
		}
		records = found
		deleted, err := s.store.DeleteMany(ctx, tx, d, ids)
		count = deleted
		return err
	})
	if err != nil {
		return BulkOutcome{}, s.fail(OpBulkDelete, d.Key, req.Actor, err)
	}

	outcome := BulkOutcome{Count: count, Message: fmt.Sprintf("%s deleted", countOf(d, count))}
	if s.reclaimer != nil {
		report, err := s.reclaimer.ReclaimMany(ctx, d, records)
		outcome.Assets = report
		if err != nil {
			s.logger.Warn("dispatch.bulk_delete.reclaim_failed", "type", d.Key, "error", err)
		}
	}
	s.succeed(ctx, OpBulkDelete, "bulk_delete", d, req.Actor, "", map[string]any{"count": count})
	return outcome, nil
}

func (s *service) Reorder(ctx context.Context, req ReorderRequest) (ReorderOutcome, error) {
	d, err := s.admit(ctx, req.Type, req.Actor, permissions.ActionUpdate, true)
	if err != nil {
		return ReorderOutcome{}, s.fail(OpReorder, req.Type, req.Actor, err)
	}
	order, err := ordering.ParseIDs(req.Order)
	if err != nil {
		return ReorderOutcome{}, s.fail(OpReorder, d.Key, req.Actor, err)
	}

	result, err := s.sequencer.Reorder(ctx, d, order)
	if err != nil {
		return ReorderOutcome{}, s.fail(OpReorder, d.Key, req.Actor, err)
	}

	s.succeed(ctx, OpReorder, "reorder", d, req.Actor, "", map[string]any{
		"updated": result.Updated,
		"ignored": len(result.Ignored),
	})
	return ReorderOutcome{
		Updated: result.Updated,
		Ignored: result.Ignored,
		Message: "Order saved",
	}, nil
}

func (s *service) CheckSlug(ctx context.Context, req SlugCheckRequest) (SlugCheck, error) {
	d, err := s.admit(ctx, req.Type, req.Actor, permissions.ActionRead, false)
	if err != nil {
		return SlugCheck{}, s.fail(OpCheckSlug, req.Type, req.Actor, err)
	}
	if !d.Sluggable() {
		return SlugCheck{}, s.fail(OpCheckSlug, d.Key, req.Actor,
			domain.ValidationError(d.Label+" has no slug"))
	}

	exclude := uuid.Nil
	if strings.TrimSpace(req.Exclude) != "" {
		if exclude, err = parseID(req.Exclude); err != nil {
			return SlugCheck{}, s.fail(OpCheckSlug, d.Key, req.Actor, err)
		}
	}

	normalized, err := s.slugs.Normalize(req.Value)
	if err != nil {
		return SlugCheck{}, s.fail(OpCheckSlug, d.Key, req.Actor, err)
	}

	db := s.store.DB()
	exists := func(ctx context.Context, candidate string, exclude uuid.UUID) (bool, error) {
		return s.store.SlugExists(ctx, db, d, candidate, exclude)
	}

	taken, err := exists(ctx, normalized, exclude)
	if err != nil {
		return SlugCheck{}, s.fail(OpCheckSlug, d.Key, req.Actor, err)
	}
	check := SlugCheck{Slug: normalized, Exists: taken, Suggestion: normalized}
	if taken {
		if check.Suggestion, err = s.slugs.Generate(ctx, normalized, exists, exclude); err != nil {
			return SlugCheck{}, s.fail(OpCheckSlug, d.Key, req.Actor, err)
		}
	}
	return check, nil
}

// admit resolves the type, consumes a rate-limit token for mutating calls and
// applies the permission policy, in that order.
func (s *service) admit(ctx context.Context, typeName string, actor interfaces.Actor, action permissions.Action, mutating bool) (entities.Descriptor, error) {
	d, err := s.registry.Lookup(typeName)
	if err != nil {
		return entities.Descriptor{}, err
	}
	if err := ctx.Err(); err != nil {
		return entities.Descriptor{}, domain.StorageError(err, "request cancelled")
	}
	if mutating {
		key := actorKey(actor)
		if !s.limiter.Allow(key) {
			return entities.Descriptor{}, domain.RateLimitedError(key)
		}
	}
	if err := s.policy.Authorize(ctx, actor, d, action); err != nil {
		return entities.Descriptor{}, err
	}
	return d, nil
}

func (s *service) admitBulk(ctx context.Context, req BulkRequest, action permissions.Action) (entities.Descriptor, []uuid.UUID, error) {
	d, err := s.admit(ctx, req.Type, req.Actor, action, true)
	if err != nil {
		return entities.Descriptor{}, nil, err
	}
	ids := parseBulkIDs(req.IDs)
	if len(ids) == 0 {
		return entities.Descriptor{}, nil, domain.ValidationError("no valid identifiers supplied")
	}
	return d, ids, nil
}

func (s *service) fail(op, typeName string, actor interfaces.Actor, err error) error {
	fields := []any{
		"operation", op,
		"type", typeName,
		"actor_id", actorKey(actor),
		"error_kind", string(domain.KindOf(err)),
		"error", err,
	}
	if domain.KindOf(err) == domain.ErrorKindInternal {
		s.logger.Error("dispatch.operation.failed", fields...)
	} else {
		s.logger.Debug("dispatch.operation.rejected", fields...)
	}
	return err
}

func (s *service) succeed(ctx context.Context, op, verb string, d entities.Descriptor, actor interfaces.Actor, objectID string, metadata map[string]any) {
	s.logger.WithContext(ctx).Info("dispatch.operation.success",
		"operation", op,
		"type", d.Key,
		"actor_id", actorKey(actor),
		"object_id", objectID,
	)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, d.Key); err != nil {
			s.logger.Warn("dispatch.cache.invalidate_failed", "operation", op, "type", d.Key, "error", err)
		}
	}
	if !s.activity.Enabled() {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["operation"] = op
	event := activity.Event{
		Verb:       verb,
		ActorID:    actorKey(actor),
		ObjectType: d.Key,
		ObjectID:   objectID,
		Metadata:   metadata,
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.Warn("dispatch.activity.emit_failed", "operation", op, "type", d.Key, "error", err)
	}
}

// guardAccountDelete refuses to delete superuser accounts and the acting
// account itself.
func guardAccountDelete(d entities.Descriptor, actor interfaces.Actor, record entities.Record) error {
	if d.Kind != domain.KindAccount {
		return nil
	}
	if user, ok := record.(*entities.User); ok && user.IsSuperuser {
		return domain.PermissionError("superuser accounts cannot be deleted").
			WithMetadata(map[string]any{"id": user.ID.String()})
	}
	if actor != nil && record.RecordID() == actor.ActorID() {
		return domain.PermissionError("you cannot delete your own account")
	}
	return nil
}

func actorKey(actor interfaces.Actor) string {
	if actor == nil || !actor.IsAuthenticated() {
		return "anonymous"
	}
	return actor.ActorID().String()
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.InvalidIdentifierError(raw)
	}
	return id, nil
}

// parseBulkIDs drops blank, malformed and repeated entries.
func parseBulkIDs(raw []string) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	out := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func countOf(d entities.Descriptor, count int64) string {
	noun := strings.ToLower(d.Label)
	if count != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s", count, noun)
}

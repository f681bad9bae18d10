package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/assets"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/internal/ordering"
	"github.com/goliatone/go-cms-admin/internal/slugs"
	"github.com/goliatone/go-cms-admin/pkg/activity"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// entry is what the writer needs from an editorial record.
type entry interface {
	entities.Sluggable
	GetPosition() int
	SetPosition(int)
}

// ServiceOption configures the article and blog services.
type ServiceOption func(*writer)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(w *writer) {
		if clock != nil {
			w.now = clock
		}
	}
}

type IDGenerator func() uuid.UUID

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(w *writer) {
		if generator != nil {
			w.id = generator
		}
	}
}

func WithSlugGenerator(generator *slugs.Generator) ServiceOption {
	return func(w *writer) {
		if generator != nil {
			w.slugs = generator
		}
	}
}

// WithReclaimer removes assets dropped by an update.
func WithReclaimer(reclaimer *assets.Reclaimer) ServiceOption {
	return func(w *writer) {
		w.reclaimer = reclaimer
	}
}

// WithReadCache caches Get, GetBySlug and List. Writes through the service
// invalidate the type's entries.
func WithReadCache(c *ReadCache) ServiceOption {
	return func(w *writer) {
		w.cache = c
	}
}

func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(w *writer) {
		w.activity = emitter
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(w *writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// writer holds the create/update path shared by every editorial type.
type writer struct {
	store     *storage.Store
	sequencer *ordering.Sequencer
	slugs     *slugs.Generator
	reclaimer *assets.Reclaimer
	cache     *ReadCache
	activity  *activity.Emitter
	logger    interfaces.Logger
	now       func() time.Time
	id        IDGenerator
}

func newWriter(store *storage.Store, sequencer *ordering.Sequencer, opts ...ServiceOption) *writer {
	w := &writer{
		store:     store,
		sequencer: sequencer,
		slugs:     slugs.NewGenerator(),
		logger:    logging.NoOp(),
		now:       time.Now,
		id:        uuid.New,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.sequencer == nil {
		w.sequencer = ordering.NewSequencer(store)
	}
	return w
}

// create assigns slug and position and inserts record in one serialized
// transaction.
func (w *writer) create(ctx context.Context, d entities.Descriptor, record entry, explicitSlug string, actor uuid.UUID) error {
	position, err := w.sequencer.Append(ctx, d, func(ctx context.Context, tx bun.Tx, position int) error {
		slug, err := w.resolveSlug(ctx, tx, d, explicitSlug, record.SlugSource(), uuid.Nil)
		if err != nil {
			return err
		}
		record.SetSlug(slug)
		record.SetPosition(position)
		return w.store.Insert(ctx, tx, record)
	})
	if err != nil {
		w.logger.Debug("content.create.failed", "type", d.Key, "error", err)
		return err
	}

	w.logger.Info("content.created",
		"type", d.Key,
		"id", record.RecordID(),
		"slug", record.GetSlug(),
		"position", position,
	)
	w.invalidate(ctx, d)
	w.emit(ctx, "create", d, record, actor)
	return nil
}

// update persists after over the stored row. The row is reloaded inside the
// serialized transaction so position and slug come from the locked read, not
// from the caller's copy. An explicit slug that differs from the stored one
// must be free. A changed title without an explicit slug regenerates the slug,
// skipping the record itself.
func (w *writer) update(ctx context.Context, d entities.Descriptor, after entry, explicitSlug string, actor uuid.UUID) error {
	var before entry
	err := w.store.Serialize(ctx, d, func(ctx context.Context, tx bun.Tx) error {
		found, err := w.store.Find(ctx, tx, d, after.RecordID())
		if err != nil {
			return err
		}
		current, ok := found.(entry)
		if !ok {
			return domain.ValidationError(d.Label + " is not an editorial type")
		}
		before = current

		slug := current.GetSlug()
		switch {
		case explicitSlug != "":
			normalized, err := w.slugs.Normalize(explicitSlug)
			if err != nil {
				return err
			}
			if normalized != slug {
				if slug, err = w.resolveSlug(ctx, tx, d, normalized, "", after.RecordID()); err != nil {
					return err
				}
			}
		case after.SlugSource() != current.SlugSource():
			regenerated, err := w.resolveSlug(ctx, tx, d, "", after.SlugSource(), after.RecordID())
			if err != nil {
				return err
			}
			slug = regenerated
		}
		after.SetSlug(slug)
		after.SetPosition(current.GetPosition())
		return w.store.Update(ctx, tx, after)
	})
	if err != nil {
		w.logger.Debug("content.update.failed", "type", d.Key, "id", after.RecordID(), "error", err)
		return err
	}

	w.logger.Info("content.updated", "type", d.Key, "id", after.RecordID(), "slug", after.GetSlug())
	w.invalidate(ctx, d)
	if w.reclaimer != nil {
		if _, err := w.reclaimer.ReclaimReplaced(ctx, d, before, after); err != nil {
			w.logger.Warn("content.update.reclaim_failed", "type", d.Key, "id", after.RecordID(), "error", err)
		}
	}
	w.emit(ctx, "update", d, after, actor)
	return nil
}

// resolveSlug validates an explicit slug, or generates one from source.
func (w *writer) resolveSlug(ctx context.Context, tx bun.IDB, d entities.Descriptor, explicit, source string, exclude uuid.UUID) (string, error) {
	exists := func(ctx context.Context, candidate string, exclude uuid.UUID) (bool, error) {
		return w.store.SlugExists(ctx, tx, d, candidate, exclude)
	}
	if explicit == "" {
		return w.slugs.Generate(ctx, source, exists, exclude)
	}
	normalized, err := w.slugs.Normalize(explicit)
	if err != nil {
		return "", err
	}
	taken, err := exists(ctx, normalized, exclude)
	if err != nil {
		return "", err
	}
	if taken {
		return "", domain.ConflictError("slug "+normalized+" is already in use", domain.TextCodeSlugConflict).
			WithMetadata(map[string]any{"type": d.Key, "slug": normalized})
	}
	return normalized, nil
}

func (w *writer) invalidate(ctx context.Context, d entities.Descriptor) {
	if err := w.cache.Invalidate(ctx, d.Key); err != nil {
		w.logger.Warn("content.cache.invalidate_failed", "type", d.Key, "error", err)
	}
}

func (w *writer) emit(ctx context.Context, verb string, d entities.Descriptor, record entities.Record, actor uuid.UUID) {
	if !w.activity.Enabled() {
		return
	}
	event := activity.Event{
		Verb:       verb,
		ActorID:    actor.String(),
		ObjectType: d.Key,
		ObjectID:   record.RecordID().String(),
		Metadata:   map[string]any{"title": record.DisplayName()},
	}
	if err := w.activity.Emit(ctx, event); err != nil {
		w.logger.Warn("content.activity.emit_failed", "type", d.Key, "error", err)
	}
}

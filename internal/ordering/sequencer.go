package ordering

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AppendFunc receives the open transaction and the position reserved for the
// new record.
type AppendFunc func(ctx context.Context, tx bun.Tx, position int) error

// ReorderResult summarises a reorder call.
type ReorderResult struct {
	Updated int64       `json:"updated"`
	Ignored []uuid.UUID `json:"ignored,omitempty"`
}

// Sequencer assigns and rewrites ordinal positions within one entity type.
type Sequencer struct {
	store           *storage.Store
	logger          interfaces.Logger
	requireComplete bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequireComplete rejects reorder lists that omit existing records.
func WithRequireComplete(enabled bool) Option {
	return func(s *Sequencer) {
		s.requireComplete = enabled
	}
}

func NewSequencer(store *storage.Store, opts ...Option) *Sequencer {
	s := &Sequencer{store: store, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextPosition returns max(position)+1, or 0 when the type is empty. It
// must run inside Store.Serialize for the same descriptor.
func (s *Sequencer) NextPosition(ctx context.Context, db bun.IDB, d entities.Descriptor) (int, error) {
	if !d.Orderable() {
		return 0, domain.ValidationError(d.Label + " is not orderable")
	}
	highest, ok, err := s.store.MaxPosition(ctx, db, d)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return highest + 1, nil
}

// Append reserves the next position and runs fn in the same serialized
// transaction, so concurrent appends receive distinct positions.
func (s *Sequencer) Append(ctx context.Context, d entities.Descriptor, fn AppendFunc) (int, error) {
	var assigned int
	err := s.store.Serialize(ctx, d, func(ctx context.Context, tx bun.Tx) error {
		position, err := s.NextPosition(ctx, tx, d)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, position); err != nil {
			return err
		}
		assigned = position
		return nil
	})
	if err != nil {
		return 0, err
	}
	return assigned, nil
}

// Reorder sets position = index for each id in order. Ids that do not exist
// are ignored. Ids of the type missing from order keep their position unless
// the sequencer requires complete lists. The update is all-or-nothing.
func (s *Sequencer) Reorder(ctx context.Context, d entities.Descriptor, order []uuid.UUID) (ReorderResult, error) {
	if !d.Orderable() {
		return ReorderResult{}, domain.ValidationError(d.Label + " is not orderable")
	}
	if err := checkDuplicates(order); err != nil {
		return ReorderResult{}, err
	}
	if len(order) == 0 && !s.requireComplete {
		return ReorderResult{}, nil
	}

	var result ReorderResult
	err := s.store.Serialize(ctx, d, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.store.ExistingIDs(ctx, tx, d, order)
		if err != nil {
			return err
		}
		known := make(map[uuid.UUID]struct{}, len(existing))
		for _, id := range existing {
			known[id] = struct{}{}
		}

		if s.requireComplete {
			all, err := s.store.IDs(ctx, tx, d)
			if err != nil {
				return err
			}
			if missing := missingFrom(all, order); len(missing) > 0 {
				return domain.ValidationError(fmt.Sprintf("reorder must list every %s; %d missing", strings.ToLower(d.Label), len(missing))).
					WithMetadata(map[string]any{"missing": missing})
			}
		}

		positions := make(map[uuid.UUID]int, len(known))
		ignored := []uuid.UUID{}
		for index, id := range order {
			if _, ok := known[id]; !ok {
				ignored = append(ignored, id)
				continue
			}
			positions[id] = index
		}

		updated, err := s.store.SetPositions(ctx, tx, d, positions)
		if err != nil {
			return err
		}
		result = ReorderResult{Updated: updated, Ignored: ignored}
		return nil
	})
	if err != nil {
		return ReorderResult{}, err
	}

	s.logger.Debug("ordering.reorder.applied",
		"type", d.Key,
		"updated", result.Updated,
		"ignored", len(result.Ignored),
	)
	return result, nil
}

// ParseIDs converts raw identifiers into UUIDs. Any malformed entry fails the
// whole list.
func ParseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, domain.InvalidIdentifierError(value)
		}
		out = append(out, id)
	}
	return out, nil
}

func checkDuplicates(order []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(order))
	for _, id := range order {
		if _, ok := seen[id]; ok {
			return domain.ValidationError(fmt.Sprintf("duplicate identifier %s in order", id)).
				WithMetadata(map[string]any{"id": id.String()})
		}
		seen[id] = struct{}{}
	}
	return nil
}

func missingFrom(all, order []uuid.UUID) []string {
	listed := make(map[uuid.UUID]struct{}, len(order))
	for _, id := range order {
		listed[id] = struct{}{}
	}
	missing := []string{}
	for _, id := range all {
		if _, ok := listed[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	return missing
}

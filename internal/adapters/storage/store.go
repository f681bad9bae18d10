package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// TxFunc is the body of a store transaction.
type TxFunc func(ctx context.Context, tx bun.Tx) error

// Store is the bun-backed persistence layer shared by every entity type.
// Methods taking a bun.IDB run against either the database or an open
// transaction.
type Store struct {
	db     *bun.DB
	logger interfaces.Logger
	locks  sync.Map
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(db *bun.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *bun.DB { return s.db }

// IsPostgres reports whether the store talks to PostgreSQL.
func (s *Store) IsPostgres() bool {
	return s.db.Dialect().Name() == dialect.PG
}

// RunInTx runs fn in a transaction. Any error rolls the transaction back.
func (s *Store) RunInTx(ctx context.Context, fn TxFunc) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// Serialize runs fn in a transaction that holds the write lock for the
// descriptor's type. Read-then-write sections (next position, slug
// uniqueness) must run inside it. The lock is an in-process mutex plus a
// transaction-scoped advisory lock on PostgreSQL.
func (s *Store) Serialize(ctx context.Context, d entities.Descriptor, fn TxFunc) error {
	mu := s.lockFor(d.Key)
	mu.Lock()
	defer mu.Unlock()
	s.logger.Debug("storage.type_lock.acquired", "type", d.Key)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if s.IsPostgres() {
			if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", advisoryKey(d)); err != nil {
				return domain.StorageError(err, "acquire type lock")
			}
		}
		return fn(ctx, tx)
	})
}

func (s *Store) lockFor(key string) *sync.Mutex {
	value, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return value.(*sync.Mutex)
}

func advisoryKey(d entities.Descriptor) int64 {
	return int64(xxhash.Sum64String("cms:order:" + d.Table))
}

// Find loads one record. Missing rows are a not-found error.
func (s *Store) Find(ctx context.Context, db bun.IDB, d entities.Descriptor, id uuid.UUID) (entities.Record, error) {
	record := d.NewRecord()
	err := db.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError(d.Label, id.String())
		}
		return nil, domain.StorageError(err, "load "+d.Key)
	}
	return record, nil
}

// FindMany loads the records matching ids. Unknown ids are skipped.
func (s *Store) FindMany(ctx context.Context, db bun.IDB, d entities.Descriptor, ids []uuid.UUID) ([]entities.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	set := d.NewSet()
	err := db.NewSelect().Model(set.Dest()).Where("?TableAlias.id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.StorageError(err, "load "+d.Key+" set")
	}
	return set.Records(), nil
}

// IDs returns the ids of every record of the type, ordered by position when
// the type is orderable.
func (s *Store) IDs(ctx context.Context, db bun.IDB, d entities.Descriptor) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := db.NewSelect().Model(d.Model()).Column("id")
	if d.Orderable() {
		q = q.OrderExpr("? ASC", bun.Ident(d.PositionColumn))
	}
	if err := q.Scan(ctx, &ids); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.StorageError(err, "list "+d.Key+" ids")
	}
	return ids, nil
}

// ExistingIDs filters ids down to the ones present in the table.
func (s *Store) ExistingIDs(ctx context.Context, db bun.IDB, d entities.Descriptor, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	err := db.NewSelect().Model(d.Model()).Column("id").Where("?TableAlias.id IN (?)", bun.In(ids)).Scan(ctx, &found)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.StorageError(err, "filter "+d.Key+" ids")
	}
	return found, nil
}

// Insert writes a new record.
func (s *Store) Insert(ctx context.Context, db bun.IDB, record entities.Record) error {
	if _, err := db.NewInsert().Model(record).Exec(ctx); err != nil {
		return mapWriteError(err, "insert")
	}
	return nil
}

// Update writes the named columns of record, matched by primary key.
func (s *Store) Update(ctx context.Context, db bun.IDB, record entities.Record, columns ...string) error {
	q := db.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return mapWriteError(err, "update")
	}
	if affected(res) == 0 {
		return domain.NotFoundError("record", record.RecordID().String())
	}
	return nil
}

// ToggleMany flips the active column of every matching record in one
// statement and returns the number of rows changed.
func (s *Store) ToggleMany(ctx context.Context, db bun.IDB, d entities.Descriptor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	col := bun.Ident(d.ActiveColumn)
	res, err := db.NewUpdate().Model(d.Model()).
		Set("? = NOT ?", col, col).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, domain.StorageError(err, "toggle "+d.Key+" set")
	}
	return affected(res), nil
}

// SetActiveMany writes value to the active column of every matching record.
func (s *Store) SetActiveMany(ctx context.Context, db bun.IDB, d entities.Descriptor, ids []uuid.UUID, value bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := db.NewUpdate().Model(d.Model()).
		Set("? = ?", bun.Ident(d.ActiveColumn), value).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, domain.StorageError(err, "update "+d.Key+" set")
	}
	return affected(res), nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, db bun.IDB, d entities.Descriptor, id uuid.UUID) error {
	res, err := db.NewDelete().Model(d.Model()).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return domain.StorageError(err, "delete "+d.Key)
	}
	if affected(res) == 0 {
		return domain.NotFoundError(d.Label, id.String())
	}
	return nil
}

// DeleteMany removes every matching record in one statement.
func (s *Store) DeleteMany(ctx context.Context, db bun.IDB, d entities.Descriptor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := db.NewDelete().Model(d.Model()).Where("id IN (?)", bun.In(ids)).Exec(ctx)
	if err != nil {
		return 0, domain.StorageError(err, "delete "+d.Key+" set")
	}
	return affected(res), nil
}

// SlugExists reports whether slug belongs to a record other than exclude.
func (s *Store) SlugExists(ctx context.Context, db bun.IDB, d entities.Descriptor, slug string, exclude uuid.UUID) (bool, error) {
	if !d.Sluggable() {
		return false, domain.ValidationError(d.Label + " has no slug")
	}
	q := db.NewSelect().Model(d.Model()).Where("?TableAlias.? = ?", bun.Ident(d.SlugColumn), slug)
	if exclude != uuid.Nil {
		q = q.Where("?TableAlias.id <> ?", exclude)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return false, domain.StorageError(err, "check "+d.Key+" slug")
	}
	return exists, nil
}

// MaxPosition returns the highest position of the type; ok is false when the
// type has no records.
func (s *Store) MaxPosition(ctx context.Context, db bun.IDB, d entities.Descriptor) (int, bool, error) {
	if !d.Orderable() {
		return 0, false, domain.ValidationError(d.Label + " is not orderable")
	}
	var highest sql.NullInt64
	err := db.NewSelect().Model(d.Model()).
		ColumnExpr("MAX(?TableAlias.?)", bun.Ident(d.PositionColumn)).
		Scan(ctx, &highest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, domain.StorageError(err, "read "+d.Key+" max position")
	}
	if !highest.Valid {
		return 0, false, nil
	}
	return int(highest.Int64), true, nil
}

// SetPositions assigns positions[id] to each listed record in a single
// statement and returns the number of rows changed.
func (s *Store) SetPositions(ctx context.Context, db bun.IDB, d entities.Descriptor, positions map[uuid.UUID]int) (int64, error) {
	if !d.Orderable() {
		return 0, domain.ValidationError(d.Label + " is not orderable")
	}
	if len(positions) == 0 {
		return 0, nil
	}

	col := bun.Ident(d.PositionColumn)
	ids := make([]uuid.UUID, 0, len(positions))
	var expr strings.Builder
	args := make([]any, 0, len(positions)*2+2)

	expr.WriteString("? = CASE id")
	args = append(args, col)
	for id, pos := range positions {
		ids = append(ids, id)
		expr.WriteString(" WHEN ? THEN ?")
		args = append(args, id, pos)
	}
	expr.WriteString(" ELSE ? END")
	args = append(args, col)

	res, err := db.NewUpdate().Model(d.Model()).
		Set(expr.String(), args...).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, domain.StorageError(err, "reorder "+d.Key)
	}
	return affected(res), nil
}

// Reference is a media reference lookup across one type.
type Reference struct {
	// URL is matched as an exact substring of rich-text columns.
	URL string
	// Path is matched for equality against asset columns.
	Path string
	// Exclude skips the record that owns the reference.
	Exclude uuid.UUID
}

// ReferencesAsset reports whether any record of the type other than
// ref.Exclude still points at the asset.
func (s *Store) ReferencesAsset(ctx context.Context, db bun.IDB, d entities.Descriptor, ref Reference) (bool, error) {
	if len(d.RichTextColumns) == 0 && len(d.AssetColumns) == 0 {
		return false, nil
	}
	contains := "instr(?, ?) > 0"
	if s.IsPostgres() {
		contains = "strpos(?, ?) > 0"
	}

	type condition struct {
		expr string
		args []any
	}
	conditions := []condition{}
	if ref.URL != "" {
		for _, col := range d.RichTextColumns {
			conditions = append(conditions, condition{contains, []any{bun.Ident(col), ref.URL}})
		}
	}
	if ref.Path != "" {
		for _, col := range d.AssetColumns {
			conditions = append(conditions, condition{"? = ?", []any{bun.Ident(col), ref.Path}})
		}
	}
	if len(conditions) == 0 {
		return false, nil
	}

	q := db.NewSelect().Model(d.Model()).WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, c := range conditions {
			q = q.WhereOr(c.expr, c.args...)
		}
		return q
	})
	if ref.Exclude != uuid.Nil {
		q = q.Where("?TableAlias.id <> ?", ref.Exclude)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return false, domain.StorageError(err, "scan "+d.Key+" references")
	}
	return exists, nil
}

func affected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

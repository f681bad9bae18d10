package storage

import (
	"errors"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure from
// sqlite or PostgreSQL.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func mapWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return domain.ConflictError("record violates a unique constraint", domain.TextCodeUniqueViolation).
			WithMetadata(map[string]any{"operation": op, "cause": err.Error()})
	}
	return domain.StorageError(err, op+" failed")
}

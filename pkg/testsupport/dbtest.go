package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-cms-admin/internal/migrations"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var dbCounter atomic.Int64

// NewSQLiteMemoryDB opens the process-wide shared in-memory database.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", "file::memory:?cache=shared")
}

// NewNamedSQLiteMemoryDB opens an in-memory database private to name, so
// parallel tests never observe each other's rows.
func NewNamedSQLiteMemoryDB(name string) (*sql.DB, error) {
	return sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name))
}

type dbOptions struct {
	migrate bool
}

// DBOption tunes NewBunDB.
type DBOption func(*dbOptions)

// WithoutMigrations returns an empty database.
func WithoutMigrations() DBOption {
	return func(o *dbOptions) { o.migrate = false }
}

// NewBunDB returns a migrated bun database backed by a private in-memory
// sqlite instance. The database is closed when the test ends.
func NewBunDB(tb testing.TB, opts ...DBOption) *bun.DB {
	tb.Helper()

	options := dbOptions{migrate: true}
	for _, opt := range opts {
		opt(&options)
	}

	name := sanitize(tb.Name()) + fmt.Sprintf("_%d", dbCounter.Add(1))
	sqlDB, err := NewNamedSQLiteMemoryDB(name)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	tb.Cleanup(func() { _ = db.Close() })

	if options.migrate {
		if _, err := migrations.Migrate(context.Background(), db); err != nil {
			tb.Fatalf("migrate: %v", err)
		}
	}
	return db
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

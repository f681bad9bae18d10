package cms

import (
	"context"
	"io/fs"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-admin/internal/migrations"
)

// GetMigrationsFS returns the embedded SQL files, one directory per dialect.
func GetMigrationsFS() fs.FS {
	return migrations.FS()
}

// Migrate applies pending schema steps for the database dialect and returns
// the names of the steps it ran.
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	return migrations.Migrate(ctx, db)
}

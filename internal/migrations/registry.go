package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

//go:embed data/sqlite/*.sql data/postgres/*.sql
var files embed.FS

const splitMarker = "--bun:split"

// FS exposes the embedded SQL files, grouped by dialect directory.
func FS() fs.FS {
	return files
}

// Step is one named schema change.
type Step struct {
	Name       string
	Statements []string
}

// Registry holds the ordered schema steps for one dialect.
type Registry struct {
	dialect string
	steps   []Step
}

// applied records which steps ran against a database.
type applied struct {
	bun.BaseModel `bun:"table:cms_schema_migrations"`

	Name      string    `bun:"name,pk"`
	AppliedAt time.Time `bun:"applied_at,notnull"`
}

// NewRegistry loads the embedded steps for the database dialect.
func NewRegistry(name dialect.Name) (*Registry, error) {
	dir, err := dialectDir(name)
	if err != nil {
		return nil, err
	}
	r := &Registry{dialect: dir}
	entries, err := fs.ReadDir(files, path.Join("data", dir))
	if err != nil {
		return nil, fmt.Errorf("migrations: read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		raw, err := fs.ReadFile(files, path.Join("data", dir, name))
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", name, err)
		}
		if err := r.Register(strings.TrimSuffix(name, ".up.sql"), string(raw)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a step. Statements are separated by --bun:split lines.
func (r *Registry) Register(name, script string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("migrations: step name required")
	}
	for _, step := range r.steps {
		if step.Name == name {
			return fmt.Errorf("migrations: duplicate step %q", name)
		}
	}
	statements := []string{}
	for _, chunk := range strings.Split(script, splitMarker) {
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	if len(statements) == 0 {
		return fmt.Errorf("migrations: step %q has no statements", name)
	}
	r.steps = append(r.steps, Step{Name: name, Statements: statements})
	return nil
}

// Steps returns the registered steps in order.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Apply runs pending steps, each in its own transaction, and returns the
// names of the steps it applied.
func (r *Registry) Apply(ctx context.Context, db *bun.DB) ([]string, error) {
	if _, err := db.NewCreateTable().Model((*applied)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("migrations: create ledger: %w", err)
	}

	var done []string
	if err := db.NewSelect().Model((*applied)(nil)).Column("name").Scan(ctx, &done); err != nil {
		return nil, fmt.Errorf("migrations: read ledger: %w", err)
	}
	seen := make(map[string]struct{}, len(done))
	for _, name := range done {
		seen[name] = struct{}{}
	}

	var ran []string
	for _, step := range r.steps {
		if _, ok := seen[step.Name]; ok {
			continue
		}
		err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, statement := range step.Statements {
				if _, err := tx.ExecContext(ctx, statement); err != nil {
					return fmt.Errorf("migrations: %s: %w", step.Name, err)
				}
			}
			_, err := tx.NewInsert().Model(&applied{Name: step.Name, AppliedAt: time.Now().UTC()}).Exec(ctx)
			return err
		})
		if err != nil {
			return ran, err
		}
		ran = append(ran, step.Name)
	}
	return ran, nil
}

// Migrate loads the registry for the database dialect and applies it.
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	registry, err := NewRegistry(db.Dialect().Name())
	if err != nil {
		return nil, err
	}
	return registry.Apply(ctx, db)
}

func dialectDir(name dialect.Name) (string, error) {
	switch name {
	case dialect.SQLite:
		return "sqlite", nil
	case dialect.PG:
		return "postgres", nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %s", name)
	}
}

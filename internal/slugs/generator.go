package slugs

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds the suffix search before giving up with a conflict.
const DefaultMaxAttempts = 1000

// ExistsFunc reports whether slug is already taken by a record other than
// exclude. uuid.Nil excludes nothing.
type ExistsFunc func(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)

// Normalizer turns free text into a URL-safe slug.
type Normalizer = slug.Normalizer

// Generator derives unique slugs from titles.
type Generator struct {
	normalizer  Normalizer
	maxAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithNormalizer overrides the go-slug default normalizer.
func WithNormalizer(normalizer Normalizer) Option {
	return func(g *Generator) {
		if normalizer != nil {
			g.normalizer = normalizer
		}
	}
}

// WithMaxAttempts caps the number of candidates tried (base included).
func WithMaxAttempts(attempts int) Option {
	return func(g *Generator) {
		if attempts > 0 {
			g.maxAttempts = attempts
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		normalizer:  slug.Default(),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Normalize applies the slug rules to value. Input that normalizes to an
// empty string is rejected.
func (g *Generator) Normalize(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", invalidInput(value)
	}
	normalized, err := g.normalizer.Normalize(trimmed)
	if err != nil {
		return "", invalidInput(value)
	}
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return "", invalidInput(value)
	}
	return normalized, nil
}

// Generate returns the first free slug in the sequence base, base-1, base-2...
func (g *Generator) Generate(ctx context.Context, title string, exists ExistsFunc, exclude uuid.UUID) (string, error) {
	base, err := g.Normalize(title)
	if err != nil {
		return "", err
	}
	if exists == nil {
		return base, nil
	}

	candidate := base
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate, exclude)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}

	return "", domain.ConflictError(
		fmt.Sprintf("no free slug for %q after %d attempts", base, g.maxAttempts),
		domain.TextCodeSlugConflict,
	).WithMetadata(map[string]any{"slug": base, "attempts": g.maxAttempts})
}

func invalidInput(value string) error {
	return domain.ValidationError(fmt.Sprintf("cannot derive a slug from %q", value)).
		WithTextCode(domain.TextCodeSlugInvalidInput)
}

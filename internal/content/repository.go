package content

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
)

// NewArticleRepository returns the read repository for articles, keyed by
// slug and wrapped with c when caching is enabled.
func NewArticleRepository(db *bun.DB, c *ReadCache) repository.Repository[*entities.Article] {
	return wrapWithCache(newArticleRepository(db), c)
}

func newArticleRepository(db *bun.DB) repository.Repository[*entities.Article] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*entities.Article]{
		NewRecord: func() *entities.Article { return &entities.Article{} },
		GetID: func(a *entities.Article) uuid.UUID {
			return a.ID
		},
		SetID: func(a *entities.Article, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(a *entities.Article) string {
			return a.Slug
		},
	})
}

// NewBlogRepository returns the read repository for blogs, keyed by slug.
func NewBlogRepository(db *bun.DB, c *ReadCache) repository.Repository[*entities.Blog] {
	return wrapWithCache(newBlogRepository(db), c)
}

func newBlogRepository(db *bun.DB) repository.Repository[*entities.Blog] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*entities.Blog]{
		NewRecord: func() *entities.Blog { return &entities.Blog{} },
		GetID: func(b *entities.Blog) uuid.UUID {
			return b.ID
		},
		SetID: func(b *entities.Blog, id uuid.UUID) {
			b.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(b *entities.Blog) string {
			return b.Slug
		},
	})
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return domain.NotFoundError(resource, key)
	}
	return domain.StorageError(err, resource+" repository error")
}

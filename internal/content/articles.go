package content

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/ordering"
)

// ArticleService exposes article management use-cases.
type ArticleService interface {
	Create(ctx context.Context, req CreateArticleRequest) (*entities.Article, error)
	Update(ctx context.Context, req UpdateArticleRequest) (*entities.Article, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.Article, error)
	GetBySlug(ctx context.Context, slug string) (*entities.Article, error)
	List(ctx context.Context, opts ListOptions) (ListResult[*entities.Article], error)
}

// CreateArticleRequest captures the article form. Slug is optional and
// derived from Title when blank. IsActive defaults to true.
type CreateArticleRequest struct {
	Title          string
	Subtitle       string
	Slug           string
	Image          *string
	Content        string
	ShowOnHomepage bool
	IsActive       *bool
	AuthorID       *uuid.UUID
	CreatedBy      uuid.UUID
}

func (r CreateArticleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Subtitle, validation.Length(0, 255)),
		validation.Field(&r.Slug, validation.Length(0, 255)),
	)
}

// UpdateArticleRequest replaces the editable fields of an article. A nil
// Image keeps the stored one unless RemoveImage is set.
type UpdateArticleRequest struct {
	ID             uuid.UUID
	Title          string
	Subtitle       string
	Slug           string
	Image          *string
	RemoveImage    bool
	Content        string
	ShowOnHomepage bool
	IsActive       bool
	UpdatedBy      uuid.UUID
}

func (r UpdateArticleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.By(requireID)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Subtitle, validation.Length(0, 255)),
		validation.Field(&r.Slug, validation.Length(0, 255)),
	)
}

type articleService struct {
	*writer
	repo repository.Repository[*entities.Article]
	d    entities.Descriptor
}

// NewArticleService wires the article service over the shared store.
func NewArticleService(store *storage.Store, sequencer *ordering.Sequencer, opts ...ServiceOption) ArticleService {
	w := newWriter(store, sequencer, opts...)
	return &articleService{
		writer: w,
		repo:   NewArticleRepository(store.DB(), w.cache),
		d:      entities.ArticleDescriptor(),
	}
}

func (s *articleService) Create(ctx context.Context, req CreateArticleRequest) (*entities.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid article")
	}
	now := s.now().UTC()
	record := &entities.Article{
		ID:             s.id(),
		Title:          strings.TrimSpace(req.Title),
		Subtitle:       strings.TrimSpace(req.Subtitle),
		Image:          cleanPath(req.Image),
		Content:        req.Content,
		ShowOnHomepage: req.ShowOnHomepage,
		IsActive:       boolOr(req.IsActive, true),
		AuthorID:       req.AuthorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.create(ctx, s.d, record, req.Slug, req.CreatedBy); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *articleService) Update(ctx context.Context, req UpdateArticleRequest) (*entities.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid article")
	}
	before, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	after := *before
	after.Title = strings.TrimSpace(req.Title)
	after.Subtitle = strings.TrimSpace(req.Subtitle)
	after.Content = req.Content
	after.ShowOnHomepage = req.ShowOnHomepage
	after.IsActive = req.IsActive
	after.UpdatedAt = s.now().UTC()
	switch {
	case req.RemoveImage:
		after.Image = nil
	case req.Image != nil:
		after.Image = cleanPath(req.Image)
	}

	if err := s.update(ctx, s.d, &after, req.Slug, req.UpdatedBy); err != nil {
		return nil, err
	}
	return &after, nil
}

func (s *articleService) Get(ctx context.Context, id uuid.UUID) (*entities.Article, error) {
	if id == uuid.Nil {
		return nil, domain.InvalidIdentifierError("")
	}
	record, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, s.d.Label, id.String())
	}
	return record, nil
}

func (s *articleService) GetBySlug(ctx context.Context, slug string) (*entities.Article, error) {
	slug = strings.TrimSpace(slug)
	record, err := s.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, s.d.Label, slug)
	}
	return record, nil
}

func (s *articleService) List(ctx context.Context, opts ListOptions) (ListResult[*entities.Article], error) {
	plan := planList(opts)
	records, total, err := list(ctx, s.repo, plan, "show_on_homepage", s.d.ActiveColumn)
	if err != nil {
		return ListResult[*entities.Article]{}, mapRepositoryError(err, s.d.Label, "")
	}
	return newListResult(records, total, plan), nil
}

func cleanPath(path *string) *string {
	if path == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*path)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func requireID(value any) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

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

// BlogService exposes blog management use-cases.
type BlogService interface {
	Create(ctx context.Context, req CreateBlogRequest) (*entities.Blog, error)
	Update(ctx context.Context, req UpdateBlogRequest) (*entities.Blog, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*entities.Blog, error)
	List(ctx context.Context, opts ListOptions) (ListResult[*entities.Blog], error)
}

type CreateBlogRequest struct {
	Title     string
	Subtitle  string
	Slug      string
	Content   string
	Active    *bool
	Homepage  bool
	CreatedBy uuid.UUID
}

func (r CreateBlogRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Subtitle, validation.Length(0, 255)),
		validation.Field(&r.Slug, validation.Length(0, 255)),
	)
}

type UpdateBlogRequest struct {
	ID        uuid.UUID
	Title     string
	Subtitle  string
	Slug      string
	Content   string
	Active    bool
	Homepage  bool
	UpdatedBy uuid.UUID
}

func (r UpdateBlogRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.By(requireID)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Subtitle, validation.Length(0, 255)),
		validation.Field(&r.Slug, validation.Length(0, 255)),
	)
}

type blogService struct {
	*writer
	repo repository.Repository[*entities.Blog]
	d    entities.Descriptor
}

func NewBlogService(store *storage.Store, sequencer *ordering.Sequencer, opts ...ServiceOption) BlogService {
	w := newWriter(store, sequencer, opts...)
	return &blogService{
		writer: w,
		repo:   NewBlogRepository(store.DB(), w.cache),
		d:      entities.BlogDescriptor(),
	}
}

func (s *blogService) Create(ctx context.Context, req CreateBlogRequest) (*entities.Blog, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid blog")
	}
	now := s.now().UTC()
	record := &entities.Blog{
		ID:        s.id(),
		Title:     strings.TrimSpace(req.Title),
		Subtitle:  strings.TrimSpace(req.Subtitle),
		Content:   req.Content,
		Active:    boolOr(req.Active, true),
		Homepage:  req.Homepage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.create(ctx, s.d, record, req.Slug, req.CreatedBy); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *blogService) Update(ctx context.Context, req UpdateBlogRequest) (*entities.Blog, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid blog")
	}
	before, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	after := *before
	after.Title = strings.TrimSpace(req.Title)
	after.Subtitle = strings.TrimSpace(req.Subtitle)
	after.Content = req.Content
	after.Active = req.Active
	after.Homepage = req.Homepage
	after.UpdatedAt = s.now().UTC()

	if err := s.update(ctx, s.d, &after, req.Slug, req.UpdatedBy); err != nil {
		return nil, err
	}
	return &after, nil
}

func (s *blogService) Get(ctx context.Context, id uuid.UUID) (*entities.Blog, error) {
	if id == uuid.Nil {
		return nil, domain.InvalidIdentifierError("")
	}
	record, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, s.d.Label, id.String())
	}
	return record, nil
}

func (s *blogService) GetBySlug(ctx context.Context, slug string) (*entities.Blog, error) {
	slug = strings.TrimSpace(slug)
	record, err := s.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, s.d.Label, slug)
	}
	return record, nil
}

func (s *blogService) List(ctx context.Context, opts ListOptions) (ListResult[*entities.Blog], error) {
	plan := planList(opts)
	records, total, err := list(ctx, s.repo, plan, "homepage", s.d.ActiveColumn)
	if err != nil {
		return ListResult[*entities.Blog]{}, mapRepositoryError(err, s.d.Label, "")
	}
	return newListResult(records, total, plan), nil
}

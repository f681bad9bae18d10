package users

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/domain"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/activity"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const (
	MinPasswordLength = 8
	DefaultRole       = "editor"
)

// Service manages staff accounts.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*entities.User, error)
	Update(ctx context.Context, req UpdateUserRequest) (*entities.User, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.User, error)
	List(ctx context.Context) ([]*entities.User, error)
	Authenticate(ctx context.Context, username, password string) (*entities.User, error)
}

type CreateUserRequest struct {
	Username  string
	Email     string
	Password  string
	Role      string
	Superuser bool
	Active    *bool
	CreatedBy uuid.UUID
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 150)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 128)),
	)
}

// UpdateUserRequest edits an account. An empty Password keeps the stored hash.
type UpdateUserRequest struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Password  string
	Role      string
	Superuser bool
	Active    bool
	UpdatedBy uuid.UUID
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 150)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Length(MinPasswordLength, 128)),
	)
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) ServiceOption {
	return func(s *service) {
		s.cost = cost
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		s.activity = emitter
	}
}

type service struct {
	store    *storage.Store
	d        entities.Descriptor
	now      func() time.Time
	cost     int
	logger   interfaces.Logger
	activity *activity.Emitter
}

func NewService(store *storage.Store, opts ...ServiceOption) Service {
	s := &service{
		store:  store,
		d:      entities.UserDescriptor(),
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (*entities.User, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid user")
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := &entities.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         roleOrDefault(req.Role),
		IsActive:     active,
		IsSuperuser:  req.Superuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, s.store.DB(), user); err != nil {
		return nil, usernameConflict(err, user.Username)
	}
	s.logger.Info("users.created", "id", user.ID, "username", user.Username)
	s.emit(ctx, "create", user, req.CreatedBy)
	return user, nil
}

func (s *service) Update(ctx context.Context, req UpdateUserRequest) (*entities.User, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid user")
	}
	var user *entities.User
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.store.Find(ctx, tx, s.d, req.ID)
		if err != nil {
			return err
		}
		user = record.(*entities.User)
		user.Username = strings.TrimSpace(req.Username)
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
		user.Role = roleOrDefault(req.Role)
		user.IsSuperuser = req.Superuser
		user.IsActive = req.Active
		user.UpdatedAt = s.now().UTC()
		if req.Password != "" {
			if user.PasswordHash, err = s.hash(req.Password); err != nil {
				return err
			}
		}
		return usernameConflict(s.store.Update(ctx, tx, user), user.Username)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("users.updated", "id", user.ID, "password_changed", req.Password != "")
	s.emit(ctx, "update", user, req.UpdatedBy)
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	record, err := s.store.Find(ctx, s.store.DB(), s.d, id)
	if err != nil {
		return nil, err
	}
	return record.(*entities.User), nil
}

func (s *service) List(ctx context.Context) ([]*entities.User, error) {
	var out []*entities.User
	err := s.store.DB().NewSelect().Model(&out).OrderExpr("?TableAlias.username ASC").Scan(ctx)
	if err != nil {
		return nil, domain.StorageError(err, "list users")
	}
	return out, nil
}

// Authenticate checks credentials for an active account. Every mismatch
// reports the same permission error.
func (s *service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	var user entities.User
	err := s.store.DB().NewSelect().Model(&user).
		Where("?TableAlias.username = ?", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)
	if err != nil || !user.IsActive {
		return nil, domain.PermissionError("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.PermissionError("invalid credentials")
	}
	return &user, nil
}

func (s *service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.ValidationError("password is too long")
		}
		return "", domain.StorageError(err, "hash password")
	}
	return string(hash), nil
}

func (s *service) emit(ctx context.Context, verb string, user *entities.User, actor uuid.UUID) {
	if !s.activity.Enabled() {
		return
	}
	err := s.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actor.String(),
		UserID:     user.ID.String(),
		ObjectType: s.d.Key,
		ObjectID:   user.ID.String(),
		Metadata:   map[string]any{"username": user.Username},
	})
	if err != nil {
		s.logger.Warn("users.activity.emit_failed", "error", err)
	}
}

func usernameConflict(err error, username string) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) == domain.ErrorKindConflict {
		return domain.ConflictError("username "+username+" is already taken", domain.TextCodeUniqueViolation)
	}
	return err
}

func roleOrDefault(role string) string {
	if trimmed := strings.TrimSpace(role); trimmed != "" {
		return trimmed
	}
	return DefaultRole
}

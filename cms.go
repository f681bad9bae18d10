package cms

import (
	"github.com/goliatone/go-cms-admin/internal/content"
	"github.com/goliatone/go-cms-admin/internal/di"
	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/users"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// DispatchService exports the generic entity operation contract.
type DispatchService = dispatch.Service

// Result is the envelope returned to admin clients.
type Result = dispatch.Result

// ArticleService exports the article management contract.
type ArticleService = content.ArticleService

// BlogService exports the blog management contract.
type BlogService = content.BlogService

// UserService exports the account management contract.
type UserService = users.Service

// AuthProvider is the host session contract accepted by di.WithAuthProvider.
type AuthProvider = interfaces.AuthProvider

// Actor identifies the principal behind an administrative call.
type Actor = interfaces.Actor

type (
	ToggleRequest    = dispatch.ToggleRequest
	DeleteRequest    = dispatch.DeleteRequest
	BulkRequest      = dispatch.BulkRequest
	ReorderRequest   = dispatch.ReorderRequest
	SlugCheckRequest = dispatch.SlugCheckRequest
)

// Respond folds an operation outcome into a Result.
func Respond(value any, message string, err error) Result {
	return dispatch.Respond(value, message, err)
}

// Module represents the top level admin runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Dispatcher runs toggle, delete, bulk, reorder and slug checks for any
// registered entity type.
func (m *Module) Dispatcher() DispatchService {
	return m.container.Dispatcher()
}

func (m *Module) Articles() ArticleService {
	return m.container.ArticleService()
}

func (m *Module) Blogs() BlogService {
	return m.container.BlogService()
}

func (m *Module) Users() UserService {
	return m.container.UserService()
}

// EntityTypes lists the registered type keys.
func (m *Module) EntityTypes() []string {
	descriptors := m.container.Registry().Descriptors()
	keys := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		keys = append(keys, d.Key)
	}
	return keys
}

// Close releases resources the module opened itself.
func (m *Module) Close() error {
	return m.container.Close()
}

// Descriptor exports the registry entry type for hosts registering their own
// entity types.
type Descriptor = entities.Descriptor

package permissions

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-admin/internal/domain"
)

// Action is the verb half of a capability token such as "article:update".
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var ErrPermissionDenied = errors.New("permissions: denied")

// Error names the refused capability and unwraps to ErrPermissionDenied.
type Error struct {
	Permission string
}

func (e Error) Error() string {
	if e.Permission == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error { return ErrPermissionDenied }

// Join builds the capability token for an entity type key.
func Join(resource string, action Action) string {
	res, act := normalize(resource), normalize(string(action))
	if res == "" || act == "" {
		return ""
	}
	return res + ":" + act
}

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool { return fn(permission) }

// Set is a static grant list. "*" grants everything and "article:*" grants
// every action on articles.
type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		if normalized := normalize(perm); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	normalized := normalize(permission)
	if len(s) == 0 || normalized == "" {
		return false
	}
	resource, _, _ := strings.Cut(normalized, ":")
	for _, candidate := range []string{normalized, resource + ":*", "*"} {
		if _, ok := s[candidate]; ok {
			return true
		}
	}
	return false
}

type contextKey struct{}

// WithChecker stores the request's permission checker on ctx.
func WithChecker(ctx context.Context, checker Checker) context.Context {
	if ctx == nil || checker == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, checker)
}

// WithPermissions stores a static grant list on ctx.
func WithPermissions(ctx context.Context, perms ...string) context.Context {
	if len(perms) == 0 {
		return ctx
	}
	return WithChecker(ctx, NewSet(perms...))
}

func checkerFrom(ctx context.Context) Checker {
	if ctx == nil {
		return nil
	}
	checker, _ := ctx.Value(contextKey{}).(Checker)
	return checker
}

// Allowed reports whether ctx grants permission. Contexts without a checker
// allow everything.
func Allowed(ctx context.Context, permission string) bool {
	checker := checkerFrom(ctx)
	normalized := normalize(permission)
	if checker == nil || normalized == "" {
		return true
	}
	return checker.Allowed(normalized)
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// denied keeps the typed Error as the source so
// errors.Is(err, ErrPermissionDenied) holds.
func denied(permission string) *goerrors.Error {
	perr := Error{Permission: permission}
	return goerrors.Wrap(perr, goerrors.CategoryAuthz, perr.Error()).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(domain.TextCodePermission).
		WithMetadata(map[string]any{"permission": permission})
}

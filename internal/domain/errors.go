package domain

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeEntityNotFound   = "ENTITY_NOT_FOUND"
	TextCodeTypeUnknown      = "ENTITY_TYPE_UNKNOWN"
	TextCodePermission       = "PERMISSION_DENIED"
	TextCodeValidation       = "VALIDATION_FAILED"
	TextCodeInvalidID        = "INVALID_IDENTIFIER"
	TextCodeSlugInvalidInput = "SLUG_INVALID_INPUT"
	TextCodeSlugConflict     = "SLUG_CONFLICT"
	TextCodeUniqueViolation  = "UNIQUE_VIOLATION"
	TextCodeRateLimited      = "RATE_LIMITED"
	TextCodeStorage          = "STORAGE_FAILURE"
)

// NotFoundError reports a missing entity or an unknown entity type.
func NotFoundError(resource, key string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("%s %q not found", resource, key), goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeEntityNotFound).
		WithMetadata(map[string]any{"resource": resource, "key": key})
}

// UnknownTypeError reports a type name that is not in the registry.
func UnknownTypeError(name string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("unknown entity type %q", name), goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeTypeUnknown).
		WithMetadata(map[string]any{"type": name})
}

func PermissionError(message string) *goerrors.Error {
	if message == "" {
		message = "permission denied"
	}
	return goerrors.New(message, goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodePermission)
}

func ValidationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeValidation)
}

// InvalidIdentifierError reports an identifier that cannot be parsed.
func InvalidIdentifierError(raw string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("invalid identifier %q", raw), goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeInvalidID)
}

func RateLimitedError(actor string) *goerrors.Error {
	return goerrors.New("too many requests, slow down", goerrors.CategoryRateLimit).
		WithCode(goerrors.CodeTooManyRequests).
		WithTextCode(TextCodeRateLimited).
		WithMetadata(map[string]any{"actor_id": actor})
}

func ConflictError(message, textCode string) *goerrors.Error {
	if textCode == "" {
		textCode = TextCodeUniqueViolation
	}
	return goerrors.New(message, goerrors.CategoryConflict).
		WithCode(goerrors.CodeConflict).
		WithTextCode(textCode)
}

// StorageError wraps a persistence failure. Errors already categorised are
// returned untouched so the original kind survives.
func StorageError(err error, message string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(TextCodeStorage)
}

// KindOf maps any error onto the response error kinds.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	var typed *goerrors.Error
	if !errors.As(err, &typed) {
		return ErrorKindInternal
	}
	switch {
	case goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return ErrorKindNotFound
	case goerrors.IsCategory(err, goerrors.CategoryAuthz), goerrors.IsCategory(err, goerrors.CategoryAuth):
		return ErrorKindPermission
	case goerrors.IsCategory(err, goerrors.CategoryValidation), goerrors.IsCategory(err, goerrors.CategoryBadInput):
		return ErrorKindValidation
	case goerrors.IsCategory(err, goerrors.CategoryRateLimit):
		return ErrorKindRateLimited
	case goerrors.IsCategory(err, goerrors.CategoryConflict):
		return ErrorKindConflict
	default:
		return ErrorKindInternal
	}
}

package domain

import "strings"

// Kind groups entity types by the permission policy that applies to them.
type Kind string

const (
	// KindContent marks editorial entities (articles, blogs) staff may manage.
	KindContent Kind = "content"
	// KindAccount marks user accounts; only superusers may act on them.
	KindAccount Kind = "account"
)

// ErrorKind is the machine-readable failure class returned to callers.
type ErrorKind string

const (
	ErrorKindNone        ErrorKind = ""
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindPermission  ErrorKind = "permission"
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindConflict    ErrorKind = "conflict"
	ErrorKindInternal    ErrorKind = "internal"
)

// NormalizeKey lowercases and trims a type name so lookups are
// case-insensitive.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

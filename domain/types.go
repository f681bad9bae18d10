package domain

import internaldomain "github.com/goliatone/go-cms-admin/internal/domain"

// Kind groups entity types by the permission policy that applies to them.
type Kind = internaldomain.Kind

const (
	KindContent = internaldomain.KindContent
	KindAccount = internaldomain.KindAccount
)

// ErrorKind is the machine-readable failure class carried by results.
type ErrorKind = internaldomain.ErrorKind

const (
	ErrorKindNotFound    = internaldomain.ErrorKindNotFound
	ErrorKindPermission  = internaldomain.ErrorKindPermission
	ErrorKindValidation  = internaldomain.ErrorKindValidation
	ErrorKindRateLimited = internaldomain.ErrorKindRateLimited
	ErrorKindConflict    = internaldomain.ErrorKindConflict
	ErrorKindInternal    = internaldomain.ErrorKindInternal
)

// KindOf classifies an error returned by the CMS services.
func KindOf(err error) ErrorKind {
	return internaldomain.KindOf(err)
}

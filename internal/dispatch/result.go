package dispatch

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-admin/internal/domain"
)

// Result is the response contract shared by every dispatcher operation.
type Result struct {
	OK        bool             `json:"ok"`
	Value     any              `json:"value,omitempty"`
	Message   string           `json:"message,omitempty"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
}

const internalMessage = "the operation could not be completed"

// Respond folds an operation outcome into a Result. Internal failures do not
// leak their message.
func Respond(value any, message string, err error) Result {
	if err == nil {
		return Result{OK: true, Value: value, Message: message}
	}
	kind := domain.KindOf(err)
	if kind == domain.ErrorKindInternal {
		return Result{ErrorKind: kind, Message: internalMessage}
	}
	return Result{ErrorKind: kind, Message: errorMessage(err)}
}

func errorMessage(err error) string {
	var typed *goerrors.Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return err.Error()
}

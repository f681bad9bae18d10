package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidMessage = "COMMAND_MESSAGE_INVALID"
	textCodeCancelled      = "COMMAND_CANCELLED"
	textCodeTimedOut       = "COMMAND_TIMED_OUT"
	textCodeFailed         = "COMMAND_FAILED"
)

// Errors already categorised, such as the dispatcher's not found or
// permission errors, pass through every wrapper unchanged.

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid command message").
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(textCodeInvalidMessage)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command timed out").
			WithTextCode(textCodeTimedOut)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command cancelled").
		WithTextCode(textCodeCancelled)
}

func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command failed").
		WithTextCode(textCodeFailed)
}

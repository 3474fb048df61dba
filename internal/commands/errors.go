package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-sitemap/routes"
)

// ErrServiceUnavailable indicates a handler was wired without its revalidation service.
var ErrServiceUnavailable = errors.New("commands: revalidation service is unavailable")

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"

	unknownLocaleCode     = "SITEMAP_UNKNOWN_LOCALE"
	sourceUnavailableCode = "SITEMAP_SOURCE_UNAVAILABLE"
	rebuildFailedCode     = "SITEMAP_REBUILD_FAILED"
	revalidateFailedCode  = "SITEMAP_REVALIDATE_FAILED"
)

// wrapValidationError tags message validation failures with the validation category.
func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

// wrapContextError tags context cancellations and deadline expirations.
func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch err {
	case context.Canceled:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case context.DeadlineExceeded:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError tags execution failures that were not already categorised.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}

// wrapRebuildError maps domain failures from the revalidation service onto
// command categories with stable text codes.
func wrapRebuildError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, routes.ErrUnknownLocale), errors.Is(err, routes.ErrLocaleCodeRequired):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "unknown locale").
			WithTextCode(unknownLocaleCode)
	case errors.Is(err, routes.ErrSourceUnavailable):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "content source unavailable").
			WithTextCode(sourceUnavailableCode)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "rebuild failed").
			WithTextCode(rebuildFailedCode)
	}
}

// wrapRevalidateError maps enqueue failures onto command categories.
func wrapRevalidateError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, routes.ErrUnknownLocale), errors.Is(err, routes.ErrLocaleCodeRequired):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "unknown locale").
			WithTextCode(unknownLocaleCode)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "revalidation enqueue failed").
			WithTextCode(revalidateFailedCode)
	}
}

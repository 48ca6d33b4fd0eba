package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Stable error codes returned to clients.
const (
	CodeInvalidInput       = "validation/invalid-input"
	CodeNoUpdatableFields  = "validation/no-updatable-fields"
	CodeUserNotFound       = "auth/user-not-found"
	CodeWrongPassword      = "auth/wrong-password"
	CodePendingApproval    = "auth/pending-approval"
	CodeUnauthorized       = "auth/unauthorized"
	CodeForbidden          = "auth/forbidden"
	CodeDuplicateEmail     = "conflict/duplicate-email"
	CodeRecordNotFound     = "not-found"
	CodeStoreUnavailable   = "store/unavailable"
	CodeInternal           = "internal"
	CodeRetentionDisabled  = "retention/disabled"
	CodeRetentionLockTaken = "retention/locked"
)

// AppError is what services return to handlers. Kind picks the HTTP status.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg}
}

func validationError(msg string, details any) *AppError {
	return &AppError{Kind: KindValidation, Code: CodeInvalidInput, Message: msg, Details: details}
}

func forbidden(reason string) *AppError {
	return newError(KindForbidden, CodeForbidden, reason)
}

func notFound(what string) *AppError {
	return newError(KindNotFound, CodeRecordNotFound, what+" not found")
}

// fieldError converts a trade field validation failure.
func fieldError(err error) error {
	var fe *entity.FieldError
	if errors.As(err, &fe) {
		return validationError("invalid trade payload", map[string]string{fe.Field: fe.Message})
	}
	return err
}

// storeError maps repository sentinels onto AppErrors; what names the record for 404s.
func storeError(err error, what string) error {
	var appErr *AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return &AppError{Kind: KindConflict, Code: CodeDuplicateEmail, Message: "email already registered", Err: err}
	case errors.Is(err, repository.ErrSchemaIncompatible):
		return &AppError{Kind: KindInternal, Code: CodeNoUpdatableFields, Message: "store schema cannot hold these fields", Err: err}
	case errors.Is(err, repository.ErrNoUpdatableFields):
		return &AppError{Kind: KindValidation, Code: CodeNoUpdatableFields, Message: "no updatable fields", Err: err}
	case errors.Is(err, repository.ErrStoreUnavailable):
		return &AppError{Kind: KindInternal, Code: CodeStoreUnavailable, Message: "store unavailable", Err: err}
	}
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: "internal error", Err: err}
}

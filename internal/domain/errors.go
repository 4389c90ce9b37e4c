package domain

import "errors"

// Common business errors.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrConflict      = errors.New("conflicting state")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")
)

// AppError carries an HTTP status code alongside a user-facing message.
type AppError struct {
	Code    int    // HTTP status code
	Message string // user-facing message
	Err     error  // underlying error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Code: 404, Message: msg, Err: ErrNotFound}
}

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: 400, Message: msg, Err: ErrInvalidInput}
}

// NewConflictError maps to 400, not 409. The API contract predates this
// implementation and clients match on 400 for duplicate/unavailable cases.
func NewConflictError(msg string) *AppError {
	return &AppError{Code: 400, Message: msg, Err: ErrConflict}
}

func NewForbiddenError(msg string) *AppError {
	return &AppError{Code: 403, Message: msg, Err: ErrForbidden}
}

func NewUnauthorizedError(msg string) *AppError {
	return &AppError{Code: 401, Message: msg, Err: ErrUnauthorized}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{Code: 500, Message: msg, Err: err}
}

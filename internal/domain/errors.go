package domain

import (
	"errors"
	"net/http"
)

// Code classifies an AppError.
type Code int

const (
	CodeNotFound Code = iota + 1
	CodeAlreadyExists
	CodeValidation
	CodeInternal
	CodeUnauthorized
)

var codeStatus = map[Code]int{
	CodeNotFound:      http.StatusNotFound,
	CodeAlreadyExists: http.StatusConflict,
	CodeValidation:    http.StatusBadRequest,
	CodeInternal:      http.StatusInternalServerError,
	CodeUnauthorized:  http.StatusUnauthorized,
}

// AppError is an error whose Message may be shown to the user. Err holds the
// cause and only reaches the logs.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
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

// Is matches any *AppError with the same code, so
// errors.Is(err, ErrNotFound) holds for every not-found error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound      = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &AppError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal      = &AppError{Code: CodeInternal, Message: "internal error"}
	// ErrUnauthorized is returned for unknown emails and wrong passwords alike.
	ErrUnauthorized = &AppError{Code: CodeUnauthorized, Message: "invalid email or password"}
)

// NewAppError creates an AppError.
func NewAppError(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first *AppError in err's chain, or 0.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

func IsNotFound(err error) bool      { return CodeOf(err) == CodeNotFound }
func IsAlreadyExists(err error) bool { return CodeOf(err) == CodeAlreadyExists }
func IsValidation(err error) bool    { return CodeOf(err) == CodeValidation }
func IsInternal(err error) bool      { return CodeOf(err) == CodeInternal }
func IsUnauthorized(err error) bool  { return CodeOf(err) == CodeUnauthorized }

// HTTPStatusCode maps err to a response status. Anything that is not an
// *AppError is a 500.
func HTTPStatusCode(err error) int {
	if status, ok := codeStatus[CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

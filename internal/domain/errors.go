package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Code - машиночитаемый код доменной ошибки.
type Code string

const (
	CodeValidation      Code = "VALIDATION"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus возвращает HTTP-статус для кода ошибки.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error - доменная ошибка с кодом, сообщением и деталями по полям.
type Error struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is сравнивает ошибки по коду, поэтому errors.Is(err, ErrNotFound)
// срабатывает для любой ошибки NOT_FOUND.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause оборачивает исходную ошибку.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

var (
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated, Message: "authentication credentials were not provided or are invalid"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "conflict"}
)

// ValidationFailed создает ошибку валидации с деталями по полям.
func ValidationFailed(msg string, details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// FieldError - ошибка валидации одного поля.
func FieldError(field, msg string) *Error {
	return ValidationFailed("validation failed", map[string]string{field: msg})
}

// NotFound создает ошибку "не найдено" для сущности.
func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found"}
}

// Conflict создает ошибку конфликта.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Unauthenticated создает ошибку аутентификации.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// StatusOf возвращает HTTP-статус для произвольной ошибки.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Package core предоставляет систему ошибок сервиса.
package core

import (
	"fmt"
)

// Коды ошибок сервиса
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodePublishFailed    = "PUBLISH_FAILED"
)

// DomainError базовый тип ошибки сервиса.
// Все ошибки обработки команд являются per-request и возвращаются вызывающей
// стороне, ни одна из них не фатальна для процесса.
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error реализует интерфейс error
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap возвращает причину ошибки
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is проверяет, соответствует ли ошибка коду
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewValidationError создает ошибку валидации команды
func NewValidationError(format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    CodeValidationFailed,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotFoundError создает ошибку отсутствия сущности
func NewNotFoundError(format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewConflictError создает ошибку конфликта состояния
func NewConflictError(format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    CodeConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewPublishError создает ошибку публикации события
func NewPublishError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodePublishFailed,
		Message: message,
		Cause:   cause,
	}
}

// Wrap оборачивает существующую ошибку с кодом
func Wrap(err error, code, message string) *DomainError {
	if err == nil {
		return nil
	}
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// CodeOf возвращает код ошибки или пустую строку для не-доменных ошибок
func CodeOf(err error) string {
	var de *DomainError
	for err != nil {
		if e, ok := err.(*DomainError); ok {
			de = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if de == nil {
		return ""
	}
	return de.Code
}

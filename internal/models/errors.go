package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorCode tags an AppError with its kind.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken  ErrorCode = "INVALID_TOKEN"
	CodeDuplicateLike ErrorCode = "DUPLICATE_LIKE"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError is also returned for posts the viewer may not see.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInvalidTokenError(err error) *AppError {
	return &AppError{
		Code:    CodeInvalidToken,
		Message: "Invalid or expired token",
		Err:     err,
	}
}

func NewDuplicateLikeError(target LikeTarget, id uint) *AppError {
	return &AppError{
		Code:    CodeDuplicateLike,
		Message: fmt.Sprintf("%s %d is already liked by this user", target, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError of the given kind.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error kind to its HTTP status. Unclassified errors are 500.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeUnauthorized, CodeInvalidToken:
		return fiber.StatusUnauthorized
	case CodeDuplicateLike:
		return fiber.StatusConflict
	case CodeValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes the error with the status its kind maps to.
// Internal details are never echoed back.
func RespondWithError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError(err)
	}

	response := ErrorResponse{Error: appErr.Message, Code: string(appErr.Code)}
	if status == fiber.StatusInternalServerError {
		response = ErrorResponse{Error: "Internal server error", Code: string(CodeInternal)}
	}
	return c.Status(status).JSON(response)
}

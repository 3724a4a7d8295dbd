package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeLoadFailed       = "LOAD_FAILED"
	ErrCodeMalformedQuiz    = "MALFORMED_QUIZ"
	ErrCodeSubmissionFailed = "SUBMISSION_FAILED"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "MALFORMED_QUIZ")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewUnauthorizedError creates a new UNAUTHORIZED error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  401,
	}
}

// NewLoadFailedError wraps a failed quiz fetch.
func NewLoadFailedError(quizID string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("could not load quiz %s", quizID),
		Status:  502,
		Err:     err,
	}
}

// NewMalformedQuizError reports a quiz definition that cannot be taken.
func NewMalformedQuizError(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedQuiz,
		Message: fmt.Sprintf("malformed quiz: %s", reason),
		Status:  502,
	}
}

// NewSubmissionFailedError wraps a result submission that gave up.
func NewSubmissionFailedError(attempts int, err error) *AppError {
	return &AppError{
		Code:    ErrCodeSubmissionFailed,
		Message: fmt.Sprintf("result submission failed after %d attempt(s)", attempts),
		Status:  502,
		Err:     err,
	}
}

// Code returns the AppError code found in err's chain, or "".
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	return Code(err) == code
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// New is errors.New from the standard library.
func New(text string) error {
	return stderrors.New(text)
}

// Package errors provides unified error handling for the speakerlab service.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// UnsupportedFormat creates a new AppError for a media container extension
// outside the configured allow-list.
func UnsupportedFormat(extension string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: "Invalid file format. Please upload a video file.",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"extension": extension},
	}
}

// MalformedTranscript creates a new AppError for a transcript document that
// is missing required fields.
func MalformedTranscript(reason string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedTranscript, Message: fmt.Sprintf("Malformed transcript document: %s.", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"reason": reason},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Unauthorized creates a new AppError for an unauthorized request.
func Unauthorized(reason string) *AppError {
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// CollaboratorFailed creates a new AppError for a failed transcription or
// diarization backend call. The whole request aborts; no partial results.
func CollaboratorFailed(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCollaboratorFailed, Message: fmt.Sprintf("The %s backend failed.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service},
		Cause:   cause,
	}
}

// AggregationFailed creates a new AppError for a statistics computation
// failure. Callers report it as a partial result field, not a request failure.
func AggregationFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeAggregationFailed, Message: fmt.Sprintf("Statistics generation failed: %v", cause),
		HTTPStatus: http.StatusOK, Retryable: false,
		Cause: cause,
	}
}

// AudioExtraction creates a new AppError for an ffmpeg failure.
func AudioExtraction(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeAudioExtraction, Message: fmt.Sprintf("Audio %s failed.", operation),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"operation": operation},
		Cause:   cause,
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An internal error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Cause: cause,
	}
}

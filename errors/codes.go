package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidFormat indicates an unsupported media container format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeMalformedTranscript indicates a transcript document missing required fields.
	ErrCodeMalformedTranscript ErrorCode = "MALFORMED_TRANSCRIPT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Processing errors
const (
	// ErrCodeCollaboratorFailed indicates a transcription or diarization backend failed.
	ErrCodeCollaboratorFailed ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeAggregationFailed indicates statistics computation hit malformed data.
	// Reported as a partial failure alongside the transcript, never fatal.
	ErrCodeAggregationFailed ErrorCode = "AGGREGATION_FAILED"
	// ErrCodeAudioExtraction indicates ffmpeg audio extraction or slicing failed.
	ErrCodeAudioExtraction ErrorCode = "AUDIO_EXTRACTION_FAILED"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeCollaboratorFailed: true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

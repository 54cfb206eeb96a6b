package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeLoginFailed            = "login_failed"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidPage      = "invalid_page"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeCategoryNotFound = "category_not_found"
	ErrCodeQuestionNotFound = "question_not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// WebSocket errors
	ErrCodeInvalidPayload      = "invalid_payload"
	ErrCodeUnknownMessageType  = "unknown_message_type"
	ErrCodeQuestionUnavailable = "question_unavailable"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)

package domain

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrAuth            = errors.New("api key rejected")
	ErrUpload          = errors.New("upload failed")
	ErrRequest         = errors.New("generation request failed")
	ErrTimeout         = errors.New("polling budget exhausted")
	ErrProviderFailure = errors.New("provider failure")
)

// ErrorCode maps a workflow error to the stable code surfaced over the API.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrUpload):
		return "upload_error"
	case errors.Is(err, ErrRequest):
		return "request_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrProviderFailure):
		return "provider_failure"
	default:
		return "internal"
	}
}

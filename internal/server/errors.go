package server

import (
	"github.com/localrivet/tempomcp/internal/errortypes"
)

// Error response codes carried in the Code field of tool responses.
const (
	StatusCodeInvalidArgument = "INVALID_ARGUMENT"
	StatusCodeNotFound        = "NOT_FOUND"
	StatusCodeRateLimited     = "RATE_LIMITED"
	StatusCodeTransientError  = "TRANSIENT_REMOTE_ERROR"
	StatusCodeProtocolError   = "REMOTE_PROTOCOL_ERROR"
	StatusCodeRemoteError     = "REMOTE_ERROR"
	StatusCodeConfigError     = "CONFIG_ERROR"
	StatusCodeInternalError   = "INTERNAL_ERROR"
)

// errorCode maps a service error to its response code. Unknown error
// values classify as internal.
func errorCode(err error) string {
	switch errortypes.TypeOf(err) {
	case errortypes.ErrorTypeValidation:
		return StatusCodeInvalidArgument
	case errortypes.ErrorTypeNotFound:
		return StatusCodeNotFound
	case errortypes.ErrorTypeRateLimited:
		return StatusCodeRateLimited
	case errortypes.ErrorTypeTransient:
		return StatusCodeTransientError
	case errortypes.ErrorTypeProtocol:
		return StatusCodeProtocolError
	case errortypes.ErrorTypeAPI:
		return StatusCodeRemoteError
	case errortypes.ErrorTypeConfig:
		return StatusCodeConfigError
	default:
		return StatusCodeInternalError
	}
}

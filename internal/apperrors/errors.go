package apperrors

import "errors"

// ErrorCode identifies a failure class across the engine.
type ErrorCode string

const (
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeConflict          ErrorCode = "CONFLICT"
	ErrorCodeNotInitialized    ErrorCode = "NOT_INITIALIZED"
	ErrorCodeDiscoveryFailed   ErrorCode = "DISCOVERY_FAILED"
	ErrorCodeDeviceUnreachable ErrorCode = "DEVICE_UNREACHABLE"
	ErrorCodeSoapRejected      ErrorCode = "SOAP_REJECTED"
	ErrorCodeSoapMalformed     ErrorCode = "SOAP_MALFORMED"
	ErrorCodeTimeout           ErrorCode = "TIMEOUT"
	ErrorCodeUpstreamRejected  ErrorCode = "UPSTREAM_REJECTED"
	ErrorCodeResolverFailed    ErrorCode = "RESOLVER_FAILED"
	ErrorCodeParseFailed       ErrorCode = "PARSE_FAILED"
)

// AppError is the base application error type.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (err *AppError) Error() string {
	if err.Err != nil {
		return err.Message + ": " + err.Err.Error()
	}
	return err.Message
}

func (err *AppError) Unwrap() error {
	return err.Err
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ErrNotInitialized is returned by engine operations before start.
var ErrNotInitialized = New(ErrorCodeNotInitialized, "engine not initialized")

// CodeOf extracts the error code from an error chain, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

package types

import (
	"errors"
	"fmt"
)

// Error codes carried by CEPError.
const (
	ErrInvalidAddress    = "INVALID_ADDRESS"
	ErrNotOpen           = "NOT_OPEN"
	ErrTransport         = "TRANSPORT_ERROR"
	ErrDecode            = "DECODE_ERROR"
	ErrNetworkResolution = "NETWORK_RESOLUTION_ERROR"
	ErrPollTimeout       = "POLL_TIMEOUT"
	ErrGatewayRejection  = "GATEWAY_REJECTION"
	ErrInvalidKey        = "INVALID_KEY"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrConfigError       = "CONFIG_ERROR"
)

// CEPError is the error type returned by every SDK operation.
type CEPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *CEPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CEPError) Unwrap() error {
	return e.Err
}

// NewError builds a CEPError with a formatted message.
func NewError(code string, format string, args ...interface{}) *CEPError {
	return &CEPError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a CEPError around a cause.
func WrapError(code string, err error, format string, args ...interface{}) *CEPError {
	return &CEPError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsCode reports whether err, or an error it wraps, is a CEPError with code.
func IsCode(err error, code string) bool {
	var cepErr *CEPError
	if !errors.As(err, &cepErr) {
		return false
	}
	return cepErr.Code == code
}

// Code returns the code of the outermost CEPError in err's chain, or "".
func Code(err error) string {
	var cepErr *CEPError
	if errors.As(err, &cepErr) {
		return cepErr.Code
	}
	return ""
}

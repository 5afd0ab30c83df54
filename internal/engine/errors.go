package engine

import "fmt"

type ErrorCode string

const (
	// Request-time codes. These never escape ResolveAndDispatch; they are
	// recovered into fallback or degraded responses and recorded on usage rows.
	ErrorEmptyInput       ErrorCode = "EMPTY_INPUT"
	ErrorNoConfidentMatch ErrorCode = "NO_CONFIDENT_MATCH"
	ErrorHandlerFailed    ErrorCode = "HANDLER_ERROR"
	ErrorHandlerTimeout   ErrorCode = "HANDLER_TIMEOUT"

	// Registration-time codes. Fatal at startup, unreachable at request time
	// once registration has been validated.
	ErrorDuplicateIntent ErrorCode = "DUPLICATE_INTENT"
	ErrorUnknownIntent   ErrorCode = "UNKNOWN_INTENT"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("engine: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("engine: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

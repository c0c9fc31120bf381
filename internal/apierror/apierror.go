// Package apierror defines the wire-stable error taxonomy shared by Oprish,
// Pandemonium and Effis. Domain packages return *Error; only the REST and
// gateway adapters decide how to log or serialize it.
package apierror

import "fmt"

// Type is one of the wire-stable error kinds from the error handling design.
type Type string

const (
	Unauthorized Type = "UNAUTHORIZED"
	Forbidden    Type = "FORBIDDEN"
	NotFound     Type = "NOT_FOUND"
	Validation   Type = "VALIDATION"
	Conflict     Type = "CONFLICT"
	RateLimited  Type = "RATE_LIMITED"
	Misdirected  Type = "MISDIRECTED"
	Server       Type = "SERVER"
)

// Status returns the conventional HTTP status code for a Type.
func (t Type) Status() int {
	switch t {
	case Unauthorized:
		return 401
	case Forbidden:
		return 403
	case NotFound:
		return 404
	case Validation:
		return 422
	case Conflict:
		return 409
	case RateLimited:
		return 429
	case Misdirected:
		return 421
	default:
		return 500
	}
}

// Error is the single tagged error type returned by every domain package.
// It never carries a raw driver/IO error in a client-visible field; callers
// that need to log the underlying cause should wrap it with %w before
// passing to a logger, not return it through Info.
type Error struct {
	Kind      Type   `json:"type"`
	ValueName string `json:"value_name,omitempty"`
	Info      string `json:"info,omitempty"`
	RetryMs   int64  `json:"retry_after,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.ValueName != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Info, e.ValueName)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Info)
}

func (e *Error) Unwrap() error { return e.cause }

// Validationf builds a VALIDATION error naming the offending field.
func Validationf(field, format string, args ...any) *Error {
	return &Error{Kind: Validation, ValueName: field, Info: fmt.Sprintf(format, args...)}
}

// Conflictf builds a CONFLICT error naming the offending field.
func Conflictf(field, format string, args ...any) *Error {
	return &Error{Kind: Conflict, ValueName: field, Info: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NOT_FOUND error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Info: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a FORBIDDEN error.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: Forbidden, Info: fmt.Sprintf(format, args...)}
}

// Unauthorizedf builds an UNAUTHORIZED error.
func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Kind: Unauthorized, Info: fmt.Sprintf(format, args...)}
}

// Misdirectedf builds a MISDIRECTED error.
func Misdirectedf(format string, args ...any) *Error {
	return &Error{Kind: Misdirected, Info: fmt.Sprintf(format, args...)}
}

// RateLimitedMs builds a RATE_LIMITED error carrying the retry delay.
func RateLimitedMs(retryAfterMs int64) *Error {
	return &Error{Kind: RateLimited, Info: "You are being rate limited", RetryMs: retryAfterMs}
}

// Internal wraps an infrastructure error (DB, cache, I/O) as a sanitized
// SERVER error. The original error is kept for logging via errors.Unwrap
// but its text never reaches Info.
func Internal(sanitized string, cause error) *Error {
	return &Error{Kind: Server, Info: sanitized, cause: cause}
}

// As reports whether err is (or wraps) an *Error, following the stdlib
// errors.As convention used throughout the teacher's error packages.
func As(err error) (*Error, bool) {
	var target *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return target, false
}

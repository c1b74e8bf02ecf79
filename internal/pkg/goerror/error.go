package goerror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeBusiness represents business rule violations.
	TypeBusiness
	// TypeValidation represents input validation failures.
	TypeValidation
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, and the failure kind callers branch on.
type Error struct {
	err     error
	msg     string
	errType Type
	kind    Kind
	fields  map[string]string
}

// Error implements the error interface.
//
// The user-facing message wins over the wrapped cause so transport details
// never leak through Error().
func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}

	if e.err != nil {
		return e.err.Error()
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Kind: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.kind.String(),
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Kind returns the failure kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

func new(err error, msg string, et Type, kind Kind) *Error {
	return &Error{err: err, msg: msg, errType: et, kind: kind}
}

// New creates an error of the given kind with a user-facing message.
func New(kind Kind, msg string) error {
	return new(nil, msg, kind.defaultType(), kind)
}

// Wrap creates an error of the given kind that keeps err as its cause.
func Wrap(err error, kind Kind, msg string) error {
	return new(err, msg, kind.defaultType(), kind)
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, KindInternal)
}

// NewInvalidInput creates a validation error of kind KindMissingFields.
//
// When err is nil the variadic kv pairs become the field map.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		e := new(err, "Validation error", TypeValidation, KindMissingFields)
		if fe, ok := err.(interface{ Values() map[string]string }); ok {
			e.fields = fe.Values()
		}
		return e
	}

	if len(kv)%2 != 0 {
		return new(nil, "Invalid request", TypeValidation, KindMissingFields)
	}

	e := new(nil, "Validation error", TypeValidation, KindMissingFields)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// KindOf reports the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}

	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

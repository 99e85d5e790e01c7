package identity

import (
	"errors"
	"fmt"
)

// Error kinds shared by every account and remember-token store. The string
// values are stable and appear in logs.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	// ErrNotActive marks a credential that exists but can no longer be used
	// (expired or unknown remember token).
	ErrNotActive = errors.New("not_active")
	// ErrUnavailable marks a store that could not answer. It is never a
	// credential failure.
	ErrUnavailable = errors.New("store_unavailable")
)

// OpError carries the failing operation and one of the kinds above.
// Msg is free text and must not contain secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string { return describe(e.Op, e.Kind, e.Msg) }

func (e OpError) Unwrap() error { return e.Kind }

// ConflictError names the unique field that collided, e.g. "email".
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string { return describe(e.Op, ErrConflict, e.Field) }

func (e ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError names the missing row or referenced resource.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string { return describe(e.Op, ErrNotFound, e.Resource) }

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// UnavailableError keeps the driver cause next to ErrUnavailable so
// errors.Is matches both, e.g. context.DeadlineExceeded.
type UnavailableError struct {
	Op  string
	Err error
}

func (e UnavailableError) Error() string {
	if e.Err == nil {
		return describe(e.Op, ErrUnavailable, "")
	}
	return describe(e.Op, ErrUnavailable, e.Err.Error())
}

func (e UnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

func describe(op string, kind error, detail string) string {
	if detail == "" {
		return fmt.Sprintf("%s: %v", op, kind)
	}
	return fmt.Sprintf("%s: %v: %s", op, kind, detail)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

func IsNotActive(err error) bool { return errors.Is(err, ErrNotActive) }

func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

package session

import (
	"errors"
	"fmt"

	"estate/cmd/identity"
)

var (
	// ErrValidation marks malformed or missing input. It is detected before any store access.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials covers unknown email, wrong password, and absent or expired tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable is returned when a backing store is unreachable or timed out.
	// Callers should retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrIntegrity is the kind for uniqueness violations (duplicate email on registration).
	ErrIntegrity = identity.ErrConflict

	// ErrInvalidSession is returned by Codec.Decode for tampered, foreign or expired records.
	ErrInvalidSession = errors.New("invalid session")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// ValidationError names the offending field. Reason is safe to show to users.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// StoreError wraps a store failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStoreUnavailable, e.Err)
}

func (e StoreError) Unwrap() []error { return []error{ErrStoreUnavailable, e.Err} }

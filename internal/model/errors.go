package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable error category returned to clients.
type ErrorKind string

const (
	KindValidation   ErrorKind = "ValidationError"
	KindUnauthorized ErrorKind = "Unauthorized"
	KindTokenInvalid ErrorKind = "TokenInvalid"
	KindTokenExpired ErrorKind = "TokenExpired"
	KindTokenMissing ErrorKind = "TokenMissing"
	KindNotFound     ErrorKind = "NotFound"
	KindPersistence  ErrorKind = "PersistenceError"
	KindDispatch     ErrorKind = "DispatchError"
	KindInternal     ErrorKind = "InternalError"
)

// AuthError is returned by token issuers when a credential or token is rejected.
// Anything else coming out of an issuer is treated as an internal failure.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewAuthError(kind ErrorKind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError marks a failed write or read against the relational store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DispatchError marks a push notification rejected by the messaging gateway.
type DispatchError struct {
	Target string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s: %v", e.Target, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// AsAuthError unwraps err into an *AuthError when it is one.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
